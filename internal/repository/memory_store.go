package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blureserve/seat-reservation/internal/model"
)

type memState struct {
	employees    map[int64]model.Employee
	credentials  map[string]model.Credential
	reservations map[string]model.Reservation
	order        map[string]int64 // insertion sequence, breaks created_at ties
	nextSeq      int64
	seats        []model.SeatAssignment
	funds        map[int64]model.FundAccount
	tokens       map[string]model.RefreshToken
}

func newMemState() *memState {
	return &memState{
		employees:    make(map[int64]model.Employee),
		credentials:  make(map[string]model.Credential),
		reservations: make(map[string]model.Reservation),
		order:        make(map[string]int64),
		funds:        make(map[int64]model.FundAccount),
		tokens:       make(map[string]model.RefreshToken),
	}
}

func (m *memState) clone() *memState {
	c := newMemState()
	for k, v := range m.employees {
		c.employees[k] = v
	}
	for k, v := range m.credentials {
		c.credentials[k] = v
	}
	for k, v := range m.reservations {
		c.reservations[k] = v
	}
	for k, v := range m.order {
		c.order[k] = v
	}
	c.nextSeq = m.nextSeq
	c.seats = append([]model.SeatAssignment(nil), m.seats...)
	for k, v := range m.funds {
		c.funds[k] = v
	}
	for k, v := range m.tokens {
		c.tokens[k] = v
	}
	return c
}

// MemoryStore is an in-process Store.  Transactions are serialised
// behind a single mutex and roll back by restoring a snapshot, which
// gives the same all-or-nothing behaviour as the MySQL store.
type MemoryStore struct {
	mu   *sync.Mutex
	st   *memState
	inTx bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{mu: &sync.Mutex{}, st: newMemState()}
}

// lock acquires the store mutex unless the caller already holds it
// through WithinTx.  It returns the matching unlock function.
func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTx runs fn with exclusive access to the store and restores the
// previous state when fn fails.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.clone()
	if err := fn(&MemoryStore{mu: s.mu, st: s.st, inTx: true}); err != nil {
		*s.st = *snapshot
		return err
	}
	return nil
}

// AddEmployee inserts or replaces an employee.
func (s *MemoryStore) AddEmployee(e model.Employee) {
	defer s.lock()()
	s.st.employees[e.ID] = e
}

// AddCredential inserts or replaces a credential.
func (s *MemoryStore) AddCredential(c model.Credential) {
	defer s.lock()()
	c.Username = strings.ToLower(strings.TrimSpace(c.Username))
	s.st.credentials[c.Username] = c
}

// AddFundAccount inserts or replaces a manager's fund account.
func (s *MemoryStore) AddFundAccount(f model.FundAccount) {
	defer s.lock()()
	s.st.funds[f.EmployeeID] = f
}

func (s *MemoryStore) GetEmployee(_ context.Context, empID int64) (model.Employee, error) {
	defer s.lock()()
	e, ok := s.st.employees[empID]
	if !ok {
		return model.Employee{}, ErrNotFound
	}
	return e, nil
}

func (s *MemoryStore) GetCredential(_ context.Context, username string) (model.Credential, error) {
	defer s.lock()()
	c, ok := s.st.credentials[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return model.Credential{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) ListReservationsByDate(_ context.Context, date string) ([]model.Reservation, error) {
	defer s.lock()()
	out := []model.Reservation{}
	for _, r := range s.st.reservations {
		if r.Date == date {
			out = append(out, r)
		}
	}
	s.sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) ListReservationsByEmployee(_ context.Context, empID int64) ([]model.Reservation, error) {
	defer s.lock()()
	out := []model.Reservation{}
	for _, r := range s.st.reservations {
		if r.EmployeeID == empID {
			out = append(out, r)
		}
	}
	s.sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) sortNewestFirst(rs []model.Reservation) {
	sort.Slice(rs, func(i, j int) bool {
		return s.st.order[rs[i].ID] > s.st.order[rs[j].ID]
	})
}

func (s *MemoryStore) GetReservation(_ context.Context, id string) (model.Reservation, error) {
	defer s.lock()()
	r, ok := s.st.reservations[id]
	if !ok {
		return model.Reservation{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) CreateReservation(_ context.Context, r *model.Reservation) error {
	defer s.lock()()
	r.CreatedAt = time.Now().UTC().Truncate(time.Second)
	s.st.nextSeq++
	s.st.order[r.ID] = s.st.nextSeq
	s.st.reservations[r.ID] = *r
	return nil
}

func (s *MemoryStore) CreateSeatAssignments(_ context.Context, seats []model.SeatAssignment) error {
	defer s.lock()()
	s.st.seats = append(s.st.seats, seats...)
	return nil
}

func (s *MemoryStore) SeatAssignments(_ context.Context, reservationIDs []string) ([]model.SeatAssignment, error) {
	defer s.lock()()
	want := make(map[string]struct{}, len(reservationIDs))
	for _, id := range reservationIDs {
		want[id] = struct{}{}
	}
	out := []model.SeatAssignment{}
	for _, a := range s.st.seats {
		if _, ok := want[a.ReservationID]; ok {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReservationID != out[j].ReservationID {
			return out[i].ReservationID < out[j].ReservationID
		}
		return out[i].SeatID < out[j].SeatID
	})
	return out, nil
}

func (s *MemoryStore) DeleteReservation(_ context.Context, id string) error {
	defer s.lock()()
	if _, ok := s.st.reservations[id]; !ok {
		return ErrNotFound
	}
	kept := s.st.seats[:0]
	for _, a := range s.st.seats {
		if a.ReservationID != id {
			kept = append(kept, a)
		}
	}
	s.st.seats = kept
	delete(s.st.reservations, id)
	delete(s.st.order, id)
	return nil
}

func (s *MemoryStore) GetFundAccount(_ context.Context, empID int64) (model.FundAccount, error) {
	defer s.lock()()
	f, ok := s.st.funds[empID]
	if !ok {
		return model.FundAccount{}, ErrNotFound
	}
	return f, nil
}

func (s *MemoryStore) AdjustOutstanding(_ context.Context, empID, delta int64) error {
	defer s.lock()()
	f, ok := s.st.funds[empID]
	if !ok {
		return ErrNotFound
	}
	f.FundsOutstanding += delta
	s.st.funds[empID] = f
	return nil
}

func (s *MemoryStore) AddCurrentFunds(_ context.Context, empID, amount int64) error {
	defer s.lock()()
	f, ok := s.st.funds[empID]
	if !ok {
		return ErrNotFound
	}
	f.CurrentFunds += amount
	s.st.funds[empID] = f
	return nil
}

func (s *MemoryStore) StoreRefresh(_ context.Context, empID int64, tokenHash string, exp time.Time) error {
	defer s.lock()()
	s.st.tokens[tokenHash] = model.RefreshToken{EmployeeID: empID, TokenHash: tokenHash, ExpiresAt: exp}
	return nil
}

func (s *MemoryStore) ValidateRefresh(_ context.Context, tokenHash string) (int64, error) {
	defer s.lock()()
	t, ok := s.st.tokens[tokenHash]
	if !ok {
		return 0, ErrNotFound
	}
	return checkRefresh(t)
}

func (s *MemoryStore) RevokeByHash(_ context.Context, tokenHash string) error {
	defer s.lock()()
	t, ok := s.st.tokens[tokenHash]
	if !ok || t.RevokedAt != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	t.RevokedAt = &now
	s.st.tokens[tokenHash] = t
	return nil
}

func (s *MemoryStore) RevokeAllForEmployee(_ context.Context, empID int64) error {
	defer s.lock()()
	now := time.Now().UTC()
	for h, t := range s.st.tokens {
		if t.EmployeeID == empID && t.RevokedAt == nil {
			t.RevokedAt = &now
			s.st.tokens[h] = t
		}
	}
	return nil
}
