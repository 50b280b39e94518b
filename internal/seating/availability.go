package seating

import (
	"fmt"
	"sort"

	"github.com/blureserve/seat-reservation/internal/model"
)

// DefaultCapacity is the number of seats in the office.
const DefaultCapacity = 100

// Overlapping returns the ids of the reservations whose window overlaps q.
// Callers pass the reservations of a single date.  A stored reservation
// with an unparsable time yields an error rather than being skipped.
func Overlapping(reservations []model.Reservation, q Window) ([]string, error) {
	ids := make([]string, 0, len(reservations))
	for _, r := range reservations {
		h, err := ParseHour(r.Time)
		if err != nil {
			return nil, fmt.Errorf("reservation %s: %w", r.ID, err)
		}
		if (Window{Start: h, Slots: r.NumSlots}).Overlaps(q) {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

// Occupied collects the seats held by the given reservations.
func Occupied(assignments []model.SeatAssignment, reservationIDs []string) map[int]struct{} {
	want := make(map[string]struct{}, len(reservationIDs))
	for _, id := range reservationIDs {
		want[id] = struct{}{}
	}
	taken := make(map[int]struct{})
	for _, a := range assignments {
		if _, ok := want[a.ReservationID]; ok {
			taken[a.SeatID] = struct{}{}
		}
	}
	return taken
}

// Free returns the seats in 1..capacity that are not taken, ascending.
func Free(capacity int, taken map[int]struct{}) []int {
	free := make([]int, 0, capacity)
	for seat := 1; seat <= capacity; seat++ {
		if _, ok := taken[seat]; !ok {
			free = append(free, seat)
		}
	}
	return free
}

// Unavailable returns the requested seats that are taken, ascending.
func Unavailable(requested []int, taken map[int]struct{}) []int {
	var out []int
	for _, s := range requested {
		if _, ok := taken[s]; ok {
			out = append(out, s)
		}
	}
	sort.Ints(out)
	return out
}

// NormalizeSeats drops duplicates and rejects seats outside 1..capacity.
// The result is sorted.
func NormalizeSeats(seats []int, capacity int) ([]int, error) {
	seen := make(map[int]struct{}, len(seats))
	out := make([]int, 0, len(seats))
	for _, s := range seats {
		if s < 1 || s > capacity {
			return nil, fmt.Errorf("seat %d outside 1..%d", s, capacity)
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Ints(out)
	return out, nil
}
