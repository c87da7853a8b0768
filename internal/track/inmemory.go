package track

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"storeops.dev/internal/auth"
	"storeops.dev/internal/ids"
)

// InMemory implements Service with in-process concurrency safety. It backs
// tests and DSN-less development runs; production deployments use the SQL
// store.
type InMemory struct {
	mu         sync.RWMutex
	stores     map[string]*Store
	byUsername map[string]string // username -> store id
	temps      []Temperature
	tips       []Tip
	stock      map[string]*OutOfStockItem
	stockOrder []string
	now        func() time.Time
}

var _ Service = (*InMemory)(nil)

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		stores:     make(map[string]*Store),
		byUsername: make(map[string]string),
		stock:      make(map[string]*OutOfStockItem),
		now:        time.Now,
	}
}

// SetClock overrides the time source. Only intended for test use.
func (s *InMemory) SetClock(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

func (s *InMemory) RegisterStore(ctx context.Context, params RegisterParams) (Store, error) {
	if err := params.Validate(); err != nil {
		return Store{}, err
	}
	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return Store{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(params.Username))
	if _, exists := s.byUsername[username]; exists {
		return Store{}, ErrDuplicateUsername
	}
	st := &Store{
		ID:           ids.New(),
		Name:         params.Name,
		Location:     params.Location,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	s.stores[st.ID] = st
	s.byUsername[username] = st.ID
	return *st, nil
}

func (s *InMemory) AuthenticateStore(ctx context.Context, username, password string) (Store, error) {
	s.mu.RLock()
	id, ok := s.byUsername[strings.ToLower(strings.TrimSpace(username))]
	var st *Store
	if ok {
		st = s.stores[id]
	}
	s.mu.RUnlock()

	// Unknown user and wrong password produce the same error so usernames
	// cannot be enumerated.
	if st == nil {
		return Store{}, ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(st.PasswordHash, password); err != nil {
		return Store{}, ErrInvalidCredentials
	}
	return *st, nil
}

func (s *InMemory) GetStore(ctx context.Context, id string) (Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stores[id]
	if !ok {
		return Store{}, ErrNotFound
	}
	return *st, nil
}

func (s *InMemory) CreateTemperature(ctx context.Context, storeID string, in TemperatureInput) (Temperature, error) {
	if err := in.Validate(); err != nil {
		return Temperature{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := Temperature{
		ID:            ids.New(),
		StoreID:       storeID,
		EquipmentType: in.EquipmentType,
		MachineID:     in.MachineID,
		Hopper:        in.Hopper,
		Temperature:   in.Temperature,
		RecordedAt:    s.now().UTC(),
	}
	s.temps = append(s.temps, rec)
	return rec, nil
}

func (s *InMemory) ListTemperatures(ctx context.Context, storeID string, filter TemperatureFilter) ([]Temperature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Temperature, 0)
	for _, rec := range s.temps {
		if rec.StoreID != storeID {
			continue
		}
		if !filter.Matches(rec) {
			continue
		}
		out = append(out, rec)
	}
	sortNewestFirst(out, func(r Temperature) time.Time { return r.RecordedAt })
	return out, nil
}

func (s *InMemory) CreateTip(ctx context.Context, storeID string, in TipInput) (Tip, error) {
	if err := in.Validate(); err != nil {
		return Tip{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := Tip{
		ID:         ids.New(),
		StoreID:    storeID,
		Amount:     in.Amount,
		Notes:      in.Notes,
		RecordedAt: s.now().UTC(),
	}
	s.tips = append(s.tips, rec)
	return rec, nil
}

func (s *InMemory) ListTips(ctx context.Context, storeID string, filter RangeFilter) ([]Tip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Tip, 0)
	for _, rec := range s.tips {
		if rec.StoreID != storeID {
			continue
		}
		if !filter.Matches(rec.RecordedAt) {
			continue
		}
		out = append(out, rec)
	}
	sortNewestFirst(out, func(r Tip) time.Time { return r.RecordedAt })
	return out, nil
}

func (s *InMemory) CreateOutOfStock(ctx context.Context, storeID string, in OutOfStockInput) (OutOfStockItem, error) {
	if err := in.Validate(); err != nil {
		return OutOfStockItem{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := &OutOfStockItem{
		ID:         ids.New(),
		StoreID:    storeID,
		ItemName:   in.ItemName,
		Quantity:   in.Quantity,
		Notes:      in.Notes,
		Status:     StatusOutstanding,
		RecordedAt: s.now().UTC(),
	}
	s.stock[rec.ID] = rec
	s.stockOrder = append(s.stockOrder, rec.ID)
	return *rec, nil
}

func (s *InMemory) ListOutOfStock(ctx context.Context, storeID string, filter RangeFilter) ([]OutOfStockItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]OutOfStockItem, 0)
	for _, id := range s.stockOrder {
		rec, ok := s.stock[id]
		if !ok || rec.StoreID != storeID {
			continue
		}
		if !filter.Matches(rec.RecordedAt) {
			continue
		}
		out = append(out, *rec)
	}
	sortNewestFirst(out, func(r OutOfStockItem) time.Time { return r.RecordedAt })
	return out, nil
}

func (s *InMemory) RestockItem(ctx context.Context, storeID, itemID string) (OutOfStockItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.stock[itemID]
	if !ok || rec.StoreID != storeID {
		return OutOfStockItem{}, ErrNotFound
	}
	if rec.Status == StatusRestocked {
		return OutOfStockItem{}, ErrAlreadyRestocked
	}
	rec.Status = StatusRestocked
	return *rec, nil
}

func (s *InMemory) DeleteOutOfStock(ctx context.Context, storeID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.stock[itemID]
	if !ok || rec.StoreID != storeID {
		return ErrNotFound
	}
	delete(s.stock, itemID)
	return nil
}

// sortNewestFirst orders records by timestamp descending; ties keep insertion
// order stable.
func sortNewestFirst[T any](recs []T, at func(T) time.Time) {
	sort.SliceStable(recs, func(i, j int) bool {
		return at(recs[i]).After(at(recs[j]))
	})
}
