package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blureserve/seat-reservation/internal/model"
	"github.com/blureserve/seat-reservation/internal/queue"
	"github.com/blureserve/seat-reservation/internal/repository"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type countingInvalidator struct {
	mu    sync.Mutex
	bumps int
}

func (c *countingInvalidator) Bump(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bumps++
	return nil
}

type fixture struct {
	store  *repository.MemoryStore
	svc    *Reservations
	ledger *Ledger
	events *recordingPublisher
	cache  *countingInvalidator
}

const (
	managerID   int64 = 1
	reportA     int64 = 2
	reportB     int64 = 3
	loneEmp     int64 = 4
	unfundedEmp int64 = 5
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := repository.NewMemoryStore()
	st.AddEmployee(model.Employee{ID: managerID})
	st.AddEmployee(model.Employee{ID: reportA, ManagerID: managerID})
	st.AddEmployee(model.Employee{ID: reportB, ManagerID: managerID})
	st.AddEmployee(model.Employee{ID: loneEmp})
	st.AddEmployee(model.Employee{ID: unfundedEmp, ManagerID: 99})
	st.AddFundAccount(model.FundAccount{EmployeeID: managerID, CurrentFunds: 10000})

	f := &fixture{store: st, events: &recordingPublisher{}, cache: &countingInvalidator{}}
	f.svc = NewReservations(st, Options{Events: f.events, Cache: f.cache})
	f.ledger = NewLedger(st, nil)
	return f
}

func (f *fixture) outstanding(t *testing.T) int64 {
	t.Helper()
	b, err := f.ledger.Balance(context.Background(), managerID)
	require.NoError(t, err)
	return b.FundsOutstanding
}

func TestAvailableAfterBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.Create(ctx, CreateRequest{EmployeeID: reportA, SeatIDs: []int{5, 6}, Date: "2024-01-01", Time: "10:00", NumSlots: 2})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	free, err := f.svc.Available(ctx, "2024-01-01", "10:00", 2)
	require.NoError(t, err)
	assert.Len(t, free, 98)
	assert.NotContains(t, free, 5)
	assert.NotContains(t, free, 6)
	assert.Equal(t, 1, free[0])
	assert.Equal(t, 100, free[len(free)-1])

	// [10,12) against later, earlier and straddling windows.
	free, err = f.svc.Available(ctx, "2024-01-01", "12:00", 2)
	require.NoError(t, err)
	assert.Len(t, free, 100)
	free, err = f.svc.Available(ctx, "2024-01-01", "09:00", 1)
	require.NoError(t, err)
	assert.Len(t, free, 100)
	free, err = f.svc.Available(ctx, "2024-01-01", "11:00", 2)
	require.NoError(t, err)
	assert.Len(t, free, 98)

	free, err = f.svc.Available(ctx, "2024-01-02", "10:00", 2)
	require.NoError(t, err)
	assert.Len(t, free, 100)
}

func TestAvailableValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, tc := range []struct {
		date, time string
		slots      int
	}{
		{"2024-13-01", "10:00", 1},
		{"01/01/2024", "10:00", 1},
		{"2024-01-01", "ten", 1},
		{"2024-01-01", "24:00", 1},
		{"2024-01-01", "10:00", 0},
		{"2024-01-01", "10:00", 25},
	} {
		_, err := f.svc.Available(ctx, tc.date, tc.time, tc.slots)
		assert.ErrorIs(t, err, ErrValidation, "%v", tc)
	}
}

func TestCreateChargesManager(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.Create(ctx, CreateRequest{EmployeeID: reportA, SeatIDs: []int{1, 2, 3}, Date: "2024-01-01", Time: "09:00", NumSlots: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(600), f.outstanding(t))

	require.Len(t, f.events.events, 1)
	ev := f.events.events[0]
	assert.Equal(t, queue.EventCreated, ev.Type)
	assert.Equal(t, id, ev.ReservationID)
	assert.Equal(t, managerID, ev.ManagerID)
	assert.Equal(t, []int{1, 2, 3}, ev.Seats)
	assert.Equal(t, int64(600), ev.Amount)
	assert.Equal(t, 1, f.cache.bumps)

	b, err := f.ledger.Balance(ctx, managerID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), b.CurrentFunds, "current funds move only on top-up")
}

func TestCreateCollapsesDuplicateSeats(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), CreateRequest{EmployeeID: reportA, SeatIDs: []int{7, 7, 7}, Date: "2024-01-01", Time: "09:00", NumSlots: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(100), f.outstanding(t))
}

func TestCreateWithoutFundAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateRequest{EmployeeID: unfundedEmp, SeatIDs: []int{1}, Date: "2024-01-01", Time: "09:00", NumSlots: 1})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, CreateRequest{EmployeeID: loneEmp, SeatIDs: []int{2}, Date: "2024-01-01", Time: "09:00", NumSlots: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.outstanding(t))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for name, req := range map[string]CreateRequest{
		"no seats":     {EmployeeID: reportA, Date: "2024-01-01", Time: "10:00", NumSlots: 1},
		"seat zero":    {EmployeeID: reportA, SeatIDs: []int{0}, Date: "2024-01-01", Time: "10:00", NumSlots: 1},
		"seat 101":     {EmployeeID: reportA, SeatIDs: []int{101}, Date: "2024-01-01", Time: "10:00", NumSlots: 1},
		"bad date":     {EmployeeID: reportA, SeatIDs: []int{1}, Date: "2024-02-30", Time: "10:00", NumSlots: 1},
		"bad time":     {EmployeeID: reportA, SeatIDs: []int{1}, Date: "2024-01-01", Time: ":30", NumSlots: 1},
		"zero slots":   {EmployeeID: reportA, SeatIDs: []int{1}, Date: "2024-01-01", Time: "10:00", NumSlots: 0},
		"negative slo": {EmployeeID: reportA, SeatIDs: []int{1}, Date: "2024-01-01", Time: "10:00", NumSlots: -2},
		"over a day":   {EmployeeID: reportA, SeatIDs: []int{1}, Date: "2024-01-01", Time: "10:00", NumSlots: 25},
		"huge slots":   {EmployeeID: reportA, SeatIDs: []int{5}, Date: "2024-01-01", Time: "10:00", NumSlots: math.MaxInt - 5},
	} {
		_, err := f.svc.Create(ctx, req)
		assert.ErrorIs(t, err, ErrValidation, name)
	}
	rs, err := f.svc.ListForEmployee(ctx, reportA)
	require.NoError(t, err)
	assert.Empty(t, rs)
	assert.Empty(t, f.events.events)
	assert.Equal(t, int64(0), f.outstanding(t))
}

func TestCreateUnknownEmployeeWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateRequest{EmployeeID: 404, SeatIDs: []int{1}, Date: "2024-01-01", Time: "10:00", NumSlots: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	free, err := f.svc.Available(ctx, "2024-01-01", "10:00", 1)
	require.NoError(t, err)
	assert.Len(t, free, 100)
	assert.Equal(t, 0, f.cache.bumps)
}

func TestCreateConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateRequest{EmployeeID: reportA, SeatIDs: []int{10, 11}, Date: "2024-01-01", Time: "10:00", NumSlots: 2})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, CreateRequest{EmployeeID: reportB, SeatIDs: []int{11, 12}, Date: "2024-01-01", Time: "11:00", NumSlots: 1})
	require.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "[11]")

	rs, err := f.svc.ListForEmployee(ctx, reportB)
	require.NoError(t, err)
	assert.Empty(t, rs)
	assert.Equal(t, int64(400), f.outstanding(t))

	// Same seat after the window ends is fine.
	_, err = f.svc.Create(ctx, CreateRequest{EmployeeID: reportB, SeatIDs: []int{11}, Date: "2024-01-01", Time: "12:00", NumSlots: 1})
	require.NoError(t, err)
}

func TestCancelRestoresSeatsAndLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.Create(ctx, CreateRequest{EmployeeID: reportA, SeatIDs: []int{5, 6}, Date: "2024-01-01", Time: "10:00", NumSlots: 2})
	require.NoError(t, err)
	require.Equal(t, int64(400), f.outstanding(t))

	require.NoError(t, f.svc.Cancel(ctx, reportA, id))
	assert.Equal(t, int64(0), f.outstanding(t))

	free, err := f.svc.Available(ctx, "2024-01-01", "10:00", 2)
	require.NoError(t, err)
	assert.Len(t, free, 100)

	require.Len(t, f.events.events, 2)
	assert.Equal(t, queue.EventCancelled, f.events.events[1].Type)
	assert.Equal(t, int64(400), f.events.events[1].Amount)
	assert.Equal(t, 2, f.cache.bumps)

	assert.ErrorIs(t, f.svc.Cancel(ctx, reportA, id), ErrNotFound)
}

func TestCancelOtherEmployeesReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.Create(ctx, CreateRequest{EmployeeID: reportA, SeatIDs: []int{1}, Date: "2024-01-01", Time: "10:00", NumSlots: 1})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Cancel(ctx, reportB, id), ErrUnauthorized)
	_, err = f.svc.Details(ctx, reportB, id)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.store.GetReservation(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, int64(100), f.outstanding(t))
	assert.ErrorIs(t, f.svc.Cancel(ctx, reportA, " "), ErrValidation)
}

func TestDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.Create(ctx, CreateRequest{EmployeeID: reportA, SeatIDs: []int{9, 3}, Date: "2024-03-04", Time: "14:30", NumSlots: 3})
	require.NoError(t, err)

	d, err := f.svc.Details(ctx, reportA, id)
	require.NoError(t, err)
	assert.Equal(t, id, d.ID)
	assert.Equal(t, "2024-03-04", d.Date)
	assert.Equal(t, "14:30", d.Time)
	assert.Equal(t, 3, d.NumSlots)
	assert.Equal(t, []int{3, 9}, d.Seats)
	assert.Contains(t, d.QRCodeURL, "data:image/png;base64,")

	_, err = f.svc.Details(ctx, reportA, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []string
	for i := 1; i <= 3; i++ {
		id, err := f.svc.Create(ctx, CreateRequest{EmployeeID: reportA, SeatIDs: []int{i}, Date: "2024-01-01", Time: "10:00", NumSlots: 1})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	rs, err := f.svc.ListForEmployee(ctx, reportA)
	require.NoError(t, err)
	require.Len(t, rs, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{rs[0].ID, rs[1].ID, rs[2].ID})
}

func TestPublishFailureDoesNotFailCreate(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")
	_, err := f.svc.Create(context.Background(), CreateRequest{EmployeeID: reportA, SeatIDs: []int{1}, Date: "2024-01-01", Time: "10:00", NumSlots: 1})
	assert.NoError(t, err)
}

func TestConcurrentBookingsKeepLedgerConsistent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			emp := reportA
			if i%2 == 1 {
				emp = reportB
			}
			_, err := f.svc.Create(ctx, CreateRequest{
				EmployeeID: emp,
				SeatIDs:    []int{i + 1, i + 51},
				Date:       "2024-05-06",
				Time:       fmt.Sprintf("%02d:00", 8+i%4),
				NumSlots:   1 + i%3,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var want int64
	for _, emp := range []int64{reportA, reportB} {
		rs, err := f.svc.ListForEmployee(ctx, emp)
		require.NoError(t, err)
		for _, r := range rs {
			want += Charge(DefaultSlotRate, r.NumSlots, 2)
		}
	}
	assert.Equal(t, want, f.outstanding(t))
}

func TestConcurrentBookingsOfSameSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, conflicts := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(ctx, CreateRequest{EmployeeID: reportA, SeatIDs: []int{42}, Date: "2024-01-01", Time: "10:00", NumSlots: 1})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, 19, conflicts)
}

// failingStore breaks seat-assignment inserts inside transactions so the
// reservation row written just before must be rolled back.
type failingStore struct {
	*repository.MemoryStore
}

func (f failingStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	return f.MemoryStore.WithinTx(ctx, func(tx repository.Store) error {
		return fn(failingTx{Store: tx})
	})
}

type failingTx struct {
	repository.Store
}

func (failingTx) CreateSeatAssignments(context.Context, []model.SeatAssignment) error {
	return errors.New("disk full")
}

func TestFailedInsertLeavesNoOrphans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewReservations(failingStore{f.store}, Options{Events: f.events})

	_, err := svc.Create(ctx, CreateRequest{EmployeeID: reportA, SeatIDs: []int{1}, Date: "2024-01-01", Time: "10:00", NumSlots: 1})
	require.ErrorIs(t, err, ErrPersistence)

	rs, err := f.store.ListReservationsByDate(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.Empty(t, rs)
	assert.Equal(t, int64(0), f.outstanding(t))
	assert.Empty(t, f.events.events)
}

func TestCorruptStoredTimeIsPersistenceError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.CreateReservation(ctx, &model.Reservation{ID: "bad", EmployeeID: reportA, Date: "2024-01-01", Time: "noon", NumSlots: 1}))

	_, err := f.svc.Available(ctx, "2024-01-01", "10:00", 1)
	assert.ErrorIs(t, err, ErrPersistence)
}
