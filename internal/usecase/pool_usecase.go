package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/bobpool/internal/domain"
)

// PoolUseCase handles the restaurant pool ledger.
type PoolUseCase struct {
	entryRepo EntryRepository
	catalog   RestaurantCatalog
	cache     Cache
	metrics   MetricsRecorder
	guard     *InFlightGuard
	logger    zerolog.Logger
	cacheTTL  time.Duration

	mu       sync.Mutex
	sessions map[int64]*domain.EditSession
}

// NewPoolUseCase creates a new PoolUseCase. cache and metrics may be nil.
func NewPoolUseCase(
	entryRepo EntryRepository,
	catalog RestaurantCatalog,
	cache Cache,
	metrics MetricsRecorder,
	logger zerolog.Logger,
) *PoolUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &PoolUseCase{
		entryRepo: entryRepo,
		catalog:   catalog,
		cache:     cache,
		metrics:   metrics,
		guard:     NewInFlightGuard(),
		logger:    logger.With().Str("component", "pool").Logger(),
		cacheTTL:  DefaultSummaryCacheTTL,
		sessions:  make(map[int64]*domain.EditSession),
	}
}

// SetCacheTTL overrides DefaultSummaryCacheTTL.
func (uc *PoolUseCase) SetCacheTTL(ttl time.Duration) {
	if ttl > 0 {
		uc.cacheTTL = ttl
	}
}

// RecordDepositInput represents input for a split deposit.
type RecordDepositInput struct {
	RestaurantID int64
	Participants []string
	Items        []domain.LineItem
}

// RecordWithdrawalInput represents input for a single withdrawal.
type RecordWithdrawalInput struct {
	RestaurantID int64
	Participant  string
	Amount       int64
}

// EntryResult is a written entry with the pool balance after the write.
// CurrentPool is nil when the balance could not be re-read.
type EntryResult struct {
	Entry       *domain.Entry
	CurrentPool *int64
}

// SkippedEntryInfo describes an entry left out of a summary.
type SkippedEntryInfo struct {
	EntryID string `json:"entry_id"`
	Reason  string `json:"reason"`
}

// PoolSummary is the restaurant screen: info, entries and pool statistics.
type PoolSummary struct {
	Restaurant         domain.Restaurant  `json:"restaurant"`
	Entries            []*domain.Entry    `json:"entries"`
	CurrentPool        int64              `json:"current_pool"`
	TotalDeposited     int64              `json:"total_deposited"`
	TotalWithdrawn     int64              `json:"total_withdrawn"`
	DistinctDepositors int                `json:"distinct_depositors"`
	SkippedEntries     []SkippedEntryInfo `json:"skipped_entries"`
	GeneratedAt        time.Time          `json:"generated_at"`
}

// RestaurantSummary is one row of the home screen.
type RestaurantSummary struct {
	ID          int64
	Name        string
	Category    string
	Hours       string
	MemberCount int
	PoolAmount  int64
}

// EditStatus reports the edit session of one restaurant's entry list.
type EditStatus struct {
	State     domain.EditState
	EntryID   string
	Draft     string
	LastError error
}

// NewDepositBuilder fills a SplitEntryBuilder from input. Items without a price
// are prefilled from the restaurant menu when their label matches.
func (uc *PoolUseCase) NewDepositBuilder(input RecordDepositInput) (*domain.SplitEntryBuilder, error) {
	menu, err := uc.catalog.GetMenu(input.RestaurantID)
	if err != nil {
		return nil, err
	}

	b := domain.NewSplitEntryBuilder(input.RestaurantID)
	for _, name := range input.Participants {
		if err := b.AddParticipant(name); err != nil {
			return nil, err
		}
	}

	for i, item := range input.Items {
		if i >= len(b.LineItems()) {
			b.AddLineItem()
		}

		if item.Price == "" && b.PrefillLineItem(i, menu, item.Label) {
			continue
		}

		b.SetLineItem(i, item.Label, item.Price)
	}

	return b, nil
}

// RecordDeposit builds and records a split deposit.
func (uc *PoolUseCase) RecordDeposit(ctx context.Context, input RecordDepositInput) (*EntryResult, error) {
	b, err := uc.NewDepositBuilder(input)
	if err != nil {
		return nil, err
	}

	return uc.RecordSplitDeposit(ctx, b)
}

// RecordSplitDeposit persists the deposit assembled by b. The builder is reset
// only after the store accepted the entry, so a failed submission can be retried.
func (uc *PoolUseCase) RecordSplitDeposit(ctx context.Context, b *domain.SplitEntryBuilder) (*EntryResult, error) {
	if _, err := uc.catalog.Get(b.RestaurantID()); err != nil {
		return nil, err
	}

	draft, err := b.Build()
	if err != nil {
		return nil, err
	}

	result, err := uc.create(ctx, draft)
	if err != nil {
		return nil, err
	}

	b.Reset()

	return result, nil
}

// RecordWithdrawal persists a single-actor withdrawal. The pool may go negative.
func (uc *PoolUseCase) RecordWithdrawal(ctx context.Context, input RecordWithdrawalInput) (*EntryResult, error) {
	if _, err := uc.catalog.Get(input.RestaurantID); err != nil {
		return nil, err
	}

	draft, err := domain.NewWithdrawal(input.RestaurantID, input.Participant, input.Amount)
	if err != nil {
		return nil, err
	}

	return uc.create(ctx, draft)
}

func (uc *PoolUseCase) create(ctx context.Context, draft *domain.EntryDraft) (*EntryResult, error) {
	release, err := uc.guard.Acquire(DraftKey(draft))
	if err != nil {
		return nil, err
	}
	defer release()

	entry, err := uc.entryRepo.Create(ctx, draft)
	if err != nil {
		uc.metrics.EntryFailed("create", failureReason(err))
		uc.logger.Error().Err(err).
			Int64("restaurant_id", draft.RestaurantID).
			Str("kind", string(draft.Kind)).
			Msg("failed to create entry")
		return nil, err
	}

	uc.invalidate(ctx, entry.RestaurantID)
	uc.metrics.EntryCreated(entry.Kind)
	uc.logger.Info().
		Str("entry_id", entry.ID).
		Int64("restaurant_id", entry.RestaurantID).
		Str("kind", string(entry.Kind)).
		Int64("contribution", entry.Contribution).
		Msg("entry created")

	return &EntryResult{Entry: entry, CurrentPool: uc.poolAfterWrite(ctx, entry.RestaurantID)}, nil
}

// ListEntries returns the entries of a restaurant, newest first.
func (uc *PoolUseCase) ListEntries(ctx context.Context, restaurantID int64) ([]*domain.Entry, error) {
	if _, err := uc.catalog.Get(restaurantID); err != nil {
		return nil, err
	}

	return uc.entryRepo.List(ctx, restaurantID)
}

// GetPoolSummary aggregates the entries of a restaurant. A cached summary is
// served when available.
func (uc *PoolUseCase) GetPoolSummary(ctx context.Context, restaurantID int64) (*PoolSummary, error) {
	restaurant, err := uc.catalog.Get(restaurantID)
	if err != nil {
		return nil, err
	}

	if summary, ok := uc.cachedSummary(ctx, restaurantID); ok {
		return summary, nil
	}

	entries, err := uc.entryRepo.List(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	stats := domain.Aggregate(entries)
	summary := &PoolSummary{
		Restaurant:         restaurant,
		Entries:            entries,
		CurrentPool:        stats.CurrentPool,
		TotalDeposited:     stats.TotalDeposited,
		TotalWithdrawn:     stats.TotalWithdrawn,
		DistinctDepositors: stats.DistinctDepositors,
		SkippedEntries:     make([]SkippedEntryInfo, 0, len(stats.Skipped)),
		GeneratedAt:        time.Now().UTC(),
	}

	for _, s := range stats.Skipped {
		uc.logger.Warn().
			Int64("restaurant_id", restaurantID).
			Str("entry_id", s.EntryID).
			Err(s.Reason).
			Msg("skipping malformed entry")
		summary.SkippedEntries = append(summary.SkippedEntries, SkippedEntryInfo{
			EntryID: s.EntryID,
			Reason:  s.Reason.Error(),
		})
	}

	if len(stats.Skipped) > 0 {
		uc.metrics.MalformedSkipped(restaurantID, len(stats.Skipped))
	}
	uc.metrics.PoolObserved(restaurantID, stats.CurrentPool)

	uc.storeSummary(ctx, summary)

	return summary, nil
}

// ListRestaurantSummaries returns member count and pool amount of every
// catalog restaurant, in catalog order.
func (uc *PoolUseCase) ListRestaurantSummaries(ctx context.Context) ([]RestaurantSummary, error) {
	restaurants := uc.catalog.List()
	summaries := make([]RestaurantSummary, 0, len(restaurants))

	for _, r := range restaurants {
		pool, err := uc.GetPoolSummary(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("restaurant %d: %w", r.ID, err)
		}

		summaries = append(summaries, RestaurantSummary{
			ID:          r.ID,
			Name:        r.Name,
			Category:    r.Category,
			Hours:       r.Hours,
			MemberCount: pool.DistinctDepositors,
			PoolAmount:  pool.CurrentPool,
		})
	}

	return summaries, nil
}

// ReviseEntry corrects the spend amount of one entry through the restaurant's
// edit session. An empty rawAmount resumes the draft preserved by a failed save.
func (uc *PoolUseCase) ReviseEntry(ctx context.Context, restaurantID int64, entryID, rawAmount string) (*EntryResult, error) {
	entries, err := uc.ListEntries(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	var entry *domain.Entry
	for _, e := range entries {
		if e.ID == entryID {
			entry = e
			break
		}
	}
	if entry == nil {
		return nil, domain.ErrEntryNotFound
	}

	amount, err := uc.startSave(restaurantID, entry, rawAmount)
	if err != nil {
		return nil, err
	}

	revised, err := domain.ReviseEntry(entry, amount)
	if err == nil {
		err = uc.entryRepo.Update(ctx, entry.ID, revised.Revision())
	}

	uc.finishSave(restaurantID, err)

	if err != nil {
		uc.metrics.EntryFailed("revise", failureReason(err))
		uc.logger.Error().Err(err).
			Int64("restaurant_id", restaurantID).
			Str("entry_id", entryID).
			Msg("failed to revise entry")
		return nil, err
	}

	uc.invalidate(ctx, restaurantID)
	uc.metrics.EntryRevised(revised.Kind)
	uc.logger.Info().
		Str("entry_id", revised.ID).
		Int64("restaurant_id", restaurantID).
		Int64("spend_amount", revised.SpendAmount).
		Int64("contribution", revised.Contribution).
		Msg("entry revised")

	return &EntryResult{Entry: revised, CurrentPool: uc.poolAfterWrite(ctx, restaurantID)}, nil
}

// EditStatus returns the edit session state of a restaurant's entry list.
func (uc *PoolUseCase) EditStatus(restaurantID int64) (EditStatus, error) {
	if _, err := uc.catalog.Get(restaurantID); err != nil {
		return EditStatus{}, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	s := uc.session(restaurantID)

	return EditStatus{
		State:     s.State(),
		EntryID:   s.EntryID(),
		Draft:     s.Draft(),
		LastError: s.LastError(),
	}, nil
}

// MenuPrice looks up the reference price of label on a restaurant's menu.
func (uc *PoolUseCase) MenuPrice(restaurantID int64, label string) (int64, bool, error) {
	menu, err := uc.catalog.GetMenu(restaurantID)
	if err != nil {
		return 0, false, err
	}

	item, ok := domain.FindMenuItem(menu, label)

	return item.Price, ok, nil
}

// GetRestaurant returns catalog info of one restaurant.
func (uc *PoolUseCase) GetRestaurant(restaurantID int64) (domain.Restaurant, error) {
	return uc.catalog.Get(restaurantID)
}

func (uc *PoolUseCase) startSave(restaurantID int64, entry *domain.Entry, rawAmount string) (int64, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	s := uc.session(restaurantID)
	if err := s.Begin(entry); err != nil {
		return 0, err
	}

	if rawAmount != "" {
		if err := s.SetDraft(rawAmount); err != nil {
			return 0, err
		}
	}

	amount, err := s.StartSave()
	if err != nil {
		s.Cancel()
		return 0, err
	}

	return amount, nil
}

func (uc *PoolUseCase) finishSave(restaurantID int64, err error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.session(restaurantID).Finish(err)
}

// session must be called with uc.mu held.
func (uc *PoolUseCase) session(restaurantID int64) *domain.EditSession {
	s, ok := uc.sessions[restaurantID]
	if !ok {
		s = &domain.EditSession{}
		uc.sessions[restaurantID] = s
	}
	return s
}

func (uc *PoolUseCase) poolAfterWrite(ctx context.Context, restaurantID int64) *int64 {
	summary, err := uc.GetPoolSummary(ctx, restaurantID)
	if err != nil {
		uc.logger.Warn().Err(err).Int64("restaurant_id", restaurantID).Msg("failed to re-read pool balance")
		return nil
	}

	pool := summary.CurrentPool
	return &pool
}

func (uc *PoolUseCase) cachedSummary(ctx context.Context, restaurantID int64) (*PoolSummary, bool) {
	if uc.cache == nil {
		return nil, false
	}

	data, err := uc.cache.Get(ctx, PoolSummaryCacheKey(restaurantID))
	if err != nil {
		uc.logger.Warn().Err(err).Int64("restaurant_id", restaurantID).Msg("summary cache read failed")
		return nil, false
	}
	if data == nil {
		return nil, false
	}

	var summary PoolSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		uc.logger.Warn().Err(err).Int64("restaurant_id", restaurantID).Msg("discarding corrupt cached summary")
		return nil, false
	}

	return &summary, true
}

func (uc *PoolUseCase) storeSummary(ctx context.Context, summary *PoolSummary) {
	if uc.cache == nil {
		return
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return
	}

	if err := uc.cache.Set(ctx, PoolSummaryCacheKey(summary.Restaurant.ID), data, uc.cacheTTL); err != nil {
		uc.logger.Warn().Err(err).Int64("restaurant_id", summary.Restaurant.ID).Msg("summary cache write failed")
	}
}

func (uc *PoolUseCase) invalidate(ctx context.Context, restaurantID int64) {
	if uc.cache == nil {
		return
	}

	if err := uc.cache.Delete(ctx, PoolSummaryCacheKey(restaurantID)); err != nil {
		uc.logger.Warn().Err(err).Int64("restaurant_id", restaurantID).Msg("summary cache invalidation failed")
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrPersistence):
		return "persistence"
	case domain.IsValidationError(err):
		return "validation"
	case errors.Is(err, domain.ErrOperationInFlight), errors.Is(err, domain.ErrEditInProgress):
		return "conflict"
	default:
		return "other"
	}
}
