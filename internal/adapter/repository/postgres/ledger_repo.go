package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bobpool/internal/domain"
	"github.com/iho/bobpool/internal/infrastructure/postgres/generated"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return newLedgerRepository(pool)
}

func newLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// SumContributions returns SUM(contribution) and the row count of a restaurant.
func (r *LedgerRepository) SumContributions(ctx context.Context, restaurantID int64) (int64, int64, error) {
	row, err := r.queries.SumContributionsByRestaurant(ctx, restaurantID)
	if err != nil {
		return 0, 0, domain.NewPersistenceError("sum contributions", err)
	}

	return row.TotalContribution, row.EntryCount, nil
}
