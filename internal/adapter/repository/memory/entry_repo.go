package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iho/bobpool/internal/domain"
	"github.com/iho/bobpool/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository and
// usecase.LedgerRepository with in-process storage.
type EntryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.Entry
	idGen   usecase.IDGenerator
	now     func() time.Time
}

// NewEntryRepository creates an empty in-memory store.
func NewEntryRepository(idGen usecase.IDGenerator) *EntryRepository {
	return &EntryRepository{
		entries: make(map[string]*domain.Entry),
		idGen:   idGen,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// List returns copies of a restaurant's entries, newest first.
func (r *EntryRepository) List(ctx context.Context, restaurantID int64) ([]*domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewPersistenceError("list entries", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*domain.Entry, 0)
	for _, e := range r.entries {
		if e.RestaurantID == restaurantID {
			entries = append(entries, e.Clone())
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	return entries, nil
}

// Create stores the draft under a new ID.
func (r *EntryRepository) Create(ctx context.Context, draft *domain.EntryDraft) (*domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewPersistenceError("create entry", err)
	}

	entry := draft.ToEntry(r.idGen.Generate(), r.now())

	r.mu.Lock()
	r.entries[entry.ID] = entry
	r.mu.Unlock()

	return entry.Clone(), nil
}

// Update overwrites the spend amount and contribution of one entry.
func (r *EntryRepository) Update(ctx context.Context, id string, rev domain.EntryRevision) error {
	if err := ctx.Err(); err != nil {
		return domain.NewPersistenceError("update entry", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return domain.ErrEntryNotFound
	}

	e.SpendAmount = rev.SpendAmount
	e.Contribution = rev.Contribution

	return nil
}

// Import stores entries as-is, keeping their IDs and timestamps.
// Used to seed the store with existing records.
func (r *EntryRepository) Import(entries ...*domain.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range entries {
		r.entries[e.ID] = e.Clone()
	}
}

// SumContributions returns the raw sum and count of a restaurant's entries.
func (r *EntryRepository) SumContributions(ctx context.Context, restaurantID int64) (int64, int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, domain.NewPersistenceError("sum contributions", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var sum, count int64
	for _, e := range r.entries {
		if e.RestaurantID == restaurantID {
			sum += e.Contribution
			count++
		}
	}

	return sum, count, nil
}
