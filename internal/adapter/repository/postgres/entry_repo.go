package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/iho/bobpool/internal/domain"
	"github.com/iho/bobpool/internal/infrastructure/postgres/generated"
	"github.com/iho/bobpool/internal/usecase"
)

type dbPool interface {
	generated.DBTX
	Begin(context.Context) (pgx.Tx, error)
}

// EntryRepository implements usecase.EntryRepository.
// Every write also records an outbox event in the same transaction.
type EntryRepository struct {
	queries   *generated.Queries
	txManager *TxManager
	retrier   *Retrier
	idGen     usecase.IDGenerator
	now       func() time.Time
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool, idGen usecase.IDGenerator, logger zerolog.Logger) *EntryRepository {
	return newEntryRepository(pool, idGen, logger)
}

func newEntryRepository(pool dbPool, idGen usecase.IDGenerator, logger zerolog.Logger) *EntryRepository {
	return &EntryRepository{
		queries:   generated.New(pool),
		txManager: newTxManagerWithPool(pool),
		retrier:   NewRetrier(logger),
		idGen:     idGen,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List retrieves the entries of a restaurant, newest first.
func (r *EntryRepository) List(ctx context.Context, restaurantID int64) ([]*domain.Entry, error) {
	rows, err := r.queries.ListEntriesByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, domain.NewPersistenceError("list entries", err)
	}

	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}

	return entries, nil
}

// Create inserts the draft and its entry.created event.
func (r *EntryRepository) Create(ctx context.Context, draft *domain.EntryDraft) (*domain.Entry, error) {
	entry := draft.ToEntry(r.idGen.Generate(), r.now().Truncate(time.Microsecond))

	event := &domain.OutboxEvent{
		ID:            r.idGen.Generate(),
		AggregateID:   entry.ID,
		AggregateType: domain.AggregateTypeEntry,
		EventType:     domain.EventTypeEntryCreated,
		Payload:       domain.EntryCreatedPayload(entry),
		CreatedAt:     entry.CreatedAt,
	}

	var created generated.Entry

	err := r.retrier.Retry(ctx, "create entry", func() error {
		return r.txManager.InTx(ctx, func(tx *Tx) error {
			q := r.queries.WithTx(tx.PgxTx())

			row, err := q.CreateEntry(ctx, generated.CreateEntryParams{
				ID:               entry.ID,
				RestaurantID:     entry.RestaurantID,
				DisplayName:      entry.DisplayName(),
				ParticipantNames: entry.ParticipantNames,
				SpendAmount:      entry.SpendAmount,
				Contribution:     entry.Contribution,
				Kind:             string(entry.Kind),
				CreatedAt:        timeToPgTimestamptz(entry.CreatedAt),
			})
			if err != nil {
				return err
			}

			created = row

			return insertOutboxEvent(ctx, q, event)
		})
	})
	if err != nil {
		return nil, domain.NewPersistenceError("create entry", err)
	}

	return rowToEntry(created), nil
}

// Update writes the revised amounts and the entry.revised event.
func (r *EntryRepository) Update(ctx context.Context, id string, rev domain.EntryRevision) error {
	event := &domain.OutboxEvent{
		ID:            r.idGen.Generate(),
		AggregateID:   id,
		AggregateType: domain.AggregateTypeEntry,
		EventType:     domain.EventTypeEntryRevised,
		Payload:       domain.EntryRevisedPayload(id, rev),
		CreatedAt:     r.now(),
	}

	err := r.retrier.Retry(ctx, "update entry", func() error {
		return r.txManager.InTx(ctx, func(tx *Tx) error {
			q := r.queries.WithTx(tx.PgxTx())

			affected, err := q.UpdateEntryAmounts(ctx, generated.UpdateEntryAmountsParams{
				ID:           id,
				SpendAmount:  rev.SpendAmount,
				Contribution: rev.Contribution,
			})
			if err != nil {
				return err
			}
			if affected == 0 {
				return domain.ErrEntryNotFound
			}

			return insertOutboxEvent(ctx, q, event)
		})
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrEntryNotFound):
		return err
	default:
		return domain.NewPersistenceError("update entry", err)
	}
}
