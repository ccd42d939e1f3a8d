package usecase

import (
	"context"
	"time"

	"github.com/iho/bobpool/internal/domain"
)

// EntryRepository defines data access for ledger entries.
// Every failure is returned as a *domain.PersistenceError.
type EntryRepository interface {
	// List returns the entries of a restaurant, newest first.
	List(ctx context.Context, restaurantID int64) ([]*domain.Entry, error)
	// Create persists draft and returns it with the assigned ID and CreatedAt.
	Create(ctx context.Context, draft *domain.EntryDraft) (*domain.Entry, error)
	// Update writes the spend amount and contribution of one entry.
	Update(ctx context.Context, id string, rev domain.EntryRevision) error
}

// LedgerRepository defines store-side aggregate queries.
type LedgerRepository interface {
	SumContributions(ctx context.Context, restaurantID int64) (sum int64, count int64, err error)
}

// RestaurantCatalog is the read-only restaurant reference data.
type RestaurantCatalog interface {
	List() []domain.Restaurant
	Get(id int64) (domain.Restaurant, error)
	GetMenu(id int64) ([]domain.MenuItem, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key so a failed request can be retried.
	Release(ctx context.Context, key string) error
}

// MetricsRecorder receives ledger business events.
type MetricsRecorder interface {
	EntryCreated(kind domain.EntryKind)
	EntryRevised(kind domain.EntryKind)
	EntryFailed(operation, reason string)
	PoolObserved(restaurantID int64, balance int64)
	MalformedSkipped(restaurantID int64, count int)
}

type noopMetrics struct{}

func (noopMetrics) EntryCreated(domain.EntryKind) {}
func (noopMetrics) EntryRevised(domain.EntryKind) {}
func (noopMetrics) EntryFailed(string, string)    {}
func (noopMetrics) PoolObserved(int64, int64)     {}
func (noopMetrics) MalformedSkipped(int64, int)   {}
