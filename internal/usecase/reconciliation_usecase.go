package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/bobpool/internal/domain"
)

// ReconciliationUseCase audits stored contributions against the aggregator.
type ReconciliationUseCase struct {
	entryRepo  EntryRepository
	ledgerRepo LedgerRepository
	catalog    RestaurantCatalog
	logger     zerolog.Logger
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	entryRepo EntryRepository,
	ledgerRepo LedgerRepository,
	catalog RestaurantCatalog,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		entryRepo:  entryRepo,
		ledgerRepo: ledgerRepo,
		catalog:    catalog,
		logger:     logger.With().Str("component", "reconciliation").Logger(),
	}
}

// ConsistencyResult is the audit of one restaurant pool.
//
// StoredSum and StoredCount come from the store's own aggregate; AggregatedPool
// is the aggregator's view. Skipped entries explain a non-zero Difference.
type ConsistencyResult struct {
	RestaurantID   int64
	StoredSum      int64
	StoredCount    int64
	AggregatedPool int64
	EntryCount     int
	Difference     int64
	SkippedEntries []SkippedEntryInfo
	IsConsistent   bool
	CheckedAt      time.Time
}

// ConsistencyReport covers every catalog restaurant.
type ConsistencyReport struct {
	Results      []*ConsistencyResult
	Inconsistent int
	CheckedAt    time.Time
}

// CheckRestaurant compares SUM(contribution) in the store with currentPool.
func (uc *ReconciliationUseCase) CheckRestaurant(ctx context.Context, restaurantID int64) (*ConsistencyResult, error) {
	if _, err := uc.catalog.Get(restaurantID); err != nil {
		return nil, err
	}

	storedSum, storedCount, err := uc.ledgerRepo.SumContributions(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.List(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	stats := domain.Aggregate(entries)

	result := &ConsistencyResult{
		RestaurantID:   restaurantID,
		StoredSum:      storedSum,
		StoredCount:    storedCount,
		AggregatedPool: stats.CurrentPool,
		EntryCount:     stats.EntryCount,
		Difference:     storedSum - stats.CurrentPool,
		SkippedEntries: make([]SkippedEntryInfo, 0, len(stats.Skipped)),
		CheckedAt:      time.Now().UTC(),
	}

	for _, s := range stats.Skipped {
		result.SkippedEntries = append(result.SkippedEntries, SkippedEntryInfo{
			EntryID: s.EntryID,
			Reason:  s.Reason.Error(),
		})
	}

	result.IsConsistent = result.Difference == 0 &&
		len(result.SkippedEntries) == 0 &&
		storedCount == int64(len(entries))

	if !result.IsConsistent {
		uc.logger.Warn().
			Int64("restaurant_id", restaurantID).
			Int64("stored_sum", storedSum).
			Int64("aggregated_pool", stats.CurrentPool).
			Int("skipped", len(stats.Skipped)).
			Msg("ledger inconsistency detected")
	}

	return result, nil
}

// CheckAll audits every catalog restaurant.
func (uc *ReconciliationUseCase) CheckAll(ctx context.Context) (*ConsistencyReport, error) {
	restaurants := uc.catalog.List()

	report := &ConsistencyReport{
		Results:   make([]*ConsistencyResult, 0, len(restaurants)),
		CheckedAt: time.Now().UTC(),
	}

	for _, r := range restaurants {
		result, err := uc.CheckRestaurant(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check restaurant %d: %w", r.ID, err)
		}

		if !result.IsConsistent {
			report.Inconsistent++
		}
		report.Results = append(report.Results, result)
	}

	return report, nil
}
