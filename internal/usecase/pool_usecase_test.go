package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/iho/bobpool/internal/domain"
	"github.com/iho/bobpool/internal/usecase"
	"github.com/iho/bobpool/internal/usecase/mocks"
)

type poolFixture struct {
	uc      *usecase.PoolUseCase
	repo    *mocks.MockEntryRepository
	cache   *mocks.MockCache
	metrics *mocks.MockMetricsRecorder
}

func newPoolFixture(t *testing.T, withCache bool) *poolFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &poolFixture{
		repo:    mocks.NewMockEntryRepository(ctrl),
		metrics: mocks.NewMockMetricsRecorder(ctrl),
	}

	var cache usecase.Cache
	if withCache {
		f.cache = mocks.NewMockCache(ctrl)
		cache = f.cache
	}

	f.metrics.EXPECT().PoolObserved(gomock.Any(), gomock.Any()).AnyTimes()
	f.uc = usecase.NewPoolUseCase(f.repo, newStubCatalog(), cache, f.metrics, zerolog.Nop())

	return f
}

func TestPoolUseCase_RecordDeposit(t *testing.T) {
	f := newPoolFixture(t, false)
	ctx := context.Background()

	created := depositEntry("e1", 1, 15000, "A", "B")

	f.repo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, draft *domain.EntryDraft) (*domain.Entry, error) {
			if draft.Kind != domain.KindDeposit {
				t.Fatalf("expected deposit draft, got %s", draft.Kind)
			}
			if draft.SpendAmount != 15000 || draft.Contribution != 5000 {
				t.Fatalf("unexpected draft amounts: spend=%d contribution=%d", draft.SpendAmount, draft.Contribution)
			}
			if draft.DisplayName() != "A, B" {
				t.Fatalf("unexpected roster %q", draft.DisplayName())
			}
			return created, nil
		})
	f.repo.EXPECT().List(ctx, int64(1)).Return([]*domain.Entry{created}, nil)
	f.metrics.EXPECT().EntryCreated(domain.KindDeposit)

	result, err := f.uc.RecordDeposit(ctx, usecase.RecordDepositInput{
		RestaurantID: 1,
		Participants: []string{"A", "B"},
		Items:        []domain.LineItem{{Label: "set menu", Price: "15000"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Entry.ID != "e1" {
		t.Fatalf("expected entry e1, got %s", result.Entry.ID)
	}
	if result.CurrentPool == nil || *result.CurrentPool != 5000 {
		t.Fatalf("expected pool 5000, got %v", result.CurrentPool)
	}
}

func TestPoolUseCase_NewDepositBuilderPrefillsFromMenu(t *testing.T) {
	f := newPoolFixture(t, false)

	b, err := f.uc.NewDepositBuilder(usecase.RecordDepositInput{
		RestaurantID: 1,
		Participants: []string{"A", "B", "C"},
		Items: []domain.LineItem{
			{Label: "kimchi stew"},
			{Label: "bibimbap", Price: "8000"},
			{Label: "side", Price: "oops"},
			{Label: "drinks", Price: "3000"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items := b.LineItems()
	if len(items) != 4 {
		t.Fatalf("expected 4 line items, got %d", len(items))
	}
	if items[0].Price != "9000" {
		t.Fatalf("expected menu prefill 9000, got %q", items[0].Price)
	}
	if items[1].Price != "8000" {
		t.Fatalf("expected manual price to win, got %q", items[1].Price)
	}
	if got := b.TotalSpend(); got != 20000 {
		t.Fatalf("expected total 20000, got %d", got)
	}
}

func TestPoolUseCase_RecordDepositValidation(t *testing.T) {
	tests := []struct {
		name  string
		input usecase.RecordDepositInput
		err   error
	}{
		{
			name:  "empty roster",
			input: usecase.RecordDepositInput{RestaurantID: 1, Items: []domain.LineItem{{Price: "5000"}}},
			err:   domain.ErrEmptyRoster,
		},
		{
			name:  "zero total",
			input: usecase.RecordDepositInput{RestaurantID: 1, Participants: []string{"A"}},
			err:   domain.ErrNonPositiveTotal,
		},
		{
			name:  "blank participant",
			input: usecase.RecordDepositInput{RestaurantID: 1, Participants: []string{"  "}},
			err:   domain.ErrInvalidParticipantName,
		},
		{
			name:  "unknown restaurant",
			input: usecase.RecordDepositInput{RestaurantID: 99, Participants: []string{"A"}},
			err:   domain.ErrRestaurantNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPoolFixture(t, false)

			_, err := f.uc.RecordDeposit(context.Background(), tt.input)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestPoolUseCase_RecordSplitDepositKeepsBuilderOnFailure(t *testing.T) {
	f := newPoolFixture(t, false)
	ctx := context.Background()

	b := domain.NewSplitEntryBuilder(1)
	if err := b.AddParticipant("A"); err != nil {
		t.Fatalf("add participant: %v", err)
	}
	b.SetLineItem(0, "lunch", "12000")

	storeErr := domain.NewPersistenceError("create entry", errors.New("connection refused"))
	f.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil, storeErr)
	f.metrics.EXPECT().EntryFailed("create", "persistence")

	_, err := f.uc.RecordSplitDeposit(ctx, b)
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	if len(b.Roster()) != 1 || b.TotalSpend() != 12000 {
		t.Fatalf("expected builder state preserved, got roster=%v total=%d", b.Roster(), b.TotalSpend())
	}

	created := depositEntry("e1", 1, 12000, "A")
	f.repo.EXPECT().Create(ctx, gomock.Any()).Return(created, nil)
	f.repo.EXPECT().List(ctx, int64(1)).Return([]*domain.Entry{created}, nil)
	f.metrics.EXPECT().EntryCreated(domain.KindDeposit)

	if _, err := f.uc.RecordSplitDeposit(ctx, b); err != nil {
		t.Fatalf("retry failed: %v", err)
	}

	if len(b.Roster()) != 0 || len(b.LineItems()) != 1 {
		t.Fatalf("expected builder reset after success")
	}
}

func TestPoolUseCase_RecordWithdrawalCanOverdraw(t *testing.T) {
	f := newPoolFixture(t, false)
	ctx := context.Background()

	prior := depositEntry("e1", 1, 15000, "A", "B")
	withdrawal := withdrawEntry("w1", 1, 7000, "A")

	f.repo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, draft *domain.EntryDraft) (*domain.Entry, error) {
			if draft.Kind != domain.KindWithdraw || draft.Contribution != -7000 {
				t.Fatalf("unexpected withdrawal draft %+v", draft)
			}
			return withdrawal, nil
		})
	f.repo.EXPECT().List(ctx, int64(1)).Return([]*domain.Entry{withdrawal, prior}, nil)
	f.metrics.EXPECT().EntryCreated(domain.KindWithdraw)

	result, err := f.uc.RecordWithdrawal(ctx, usecase.RecordWithdrawalInput{
		RestaurantID: 1,
		Participant:  "A",
		Amount:       7000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.CurrentPool == nil || *result.CurrentPool != -2000 {
		t.Fatalf("expected pool -2000, got %v", result.CurrentPool)
	}
}

func TestPoolUseCase_RecordWithdrawalRejectsZero(t *testing.T) {
	f := newPoolFixture(t, false)

	_, err := f.uc.RecordWithdrawal(context.Background(), usecase.RecordWithdrawalInput{
		RestaurantID: 1,
		Participant:  "A",
	})
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestPoolUseCase_DuplicateSubmissionInFlight(t *testing.T) {
	f := newPoolFixture(t, false)
	ctx := context.Background()

	entered := make(chan struct{})
	unblock := make(chan struct{})
	created := withdrawEntry("w1", 1, 3000, "A")

	f.repo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(context.Context, *domain.EntryDraft) (*domain.Entry, error) {
			close(entered)
			<-unblock
			return created, nil
		})
	f.repo.EXPECT().List(ctx, int64(1)).Return([]*domain.Entry{created}, nil)
	f.metrics.EXPECT().EntryCreated(domain.KindWithdraw)

	input := usecase.RecordWithdrawalInput{RestaurantID: 1, Participant: "A", Amount: 3000}

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = f.uc.RecordWithdrawal(ctx, input)
	}()

	<-entered
	_, err := f.uc.RecordWithdrawal(ctx, input)
	close(unblock)
	wg.Wait()

	if !errors.Is(err, domain.ErrOperationInFlight) {
		t.Fatalf("expected ErrOperationInFlight, got %v", err)
	}
	if firstErr != nil {
		t.Fatalf("first submission failed: %v", firstErr)
	}
}

func TestPoolUseCase_GetPoolSummaryReportsSkipped(t *testing.T) {
	f := newPoolFixture(t, false)
	ctx := context.Background()

	broken := depositEntry("bad", 1, 9000, "C")
	broken.Contribution = 42

	f.repo.EXPECT().List(ctx, int64(1)).Return([]*domain.Entry{
		depositEntry("e1", 1, 15000, "A", "B"),
		broken,
		withdrawEntry("w1", 1, 2000, "A"),
	}, nil)
	f.metrics.EXPECT().MalformedSkipped(int64(1), 1)

	summary, err := f.uc.GetPoolSummary(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.CurrentPool != 3000 {
		t.Fatalf("expected pool 3000, got %d", summary.CurrentPool)
	}
	if summary.TotalDeposited != 5000 || summary.TotalWithdrawn != 2000 {
		t.Fatalf("unexpected totals: deposited=%d withdrawn=%d", summary.TotalDeposited, summary.TotalWithdrawn)
	}
	if summary.DistinctDepositors != 2 {
		t.Fatalf("expected 2 depositors, got %d", summary.DistinctDepositors)
	}
	if len(summary.SkippedEntries) != 1 || summary.SkippedEntries[0].EntryID != "bad" {
		t.Fatalf("expected bad entry skipped, got %+v", summary.SkippedEntries)
	}
	if len(summary.Entries) != 3 {
		t.Fatalf("expected all entries listed, got %d", len(summary.Entries))
	}
}

func TestPoolUseCase_GetPoolSummaryCache(t *testing.T) {
	f := newPoolFixture(t, true)
	ctx := context.Background()
	key := usecase.PoolSummaryCacheKey(1)

	var stored []byte

	gomock.InOrder(
		f.cache.EXPECT().Get(ctx, key).Return(nil, nil),
		f.repo.EXPECT().List(ctx, int64(1)).Return([]*domain.Entry{depositEntry("e1", 1, 15000, "A", "B")}, nil),
		f.cache.EXPECT().Set(ctx, key, gomock.Any(), usecase.DefaultSummaryCacheTTL).DoAndReturn(
			func(_ context.Context, _ string, value []byte, _ time.Duration) error {
				stored = value
				return nil
			}),
	)

	first, err := f.uc.GetPoolSummary(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.cache.EXPECT().Get(ctx, key).DoAndReturn(func(context.Context, string) ([]byte, error) {
		return stored, nil
	})

	second, err := f.uc.GetPoolSummary(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second.CurrentPool != first.CurrentPool || second.DistinctDepositors != first.DistinctDepositors {
		t.Fatalf("cached summary differs: %+v vs %+v", second, first)
	}
	if second.Entries[0].DisplayName() != "A, B" {
		t.Fatalf("expected roster to survive caching, got %q", second.Entries[0].DisplayName())
	}
}

func TestPoolUseCase_CorruptCacheFallsBackToStore(t *testing.T) {
	f := newPoolFixture(t, true)
	ctx := context.Background()
	key := usecase.PoolSummaryCacheKey(1)

	f.cache.EXPECT().Get(ctx, key).Return([]byte("{not json"), nil)
	f.repo.EXPECT().List(ctx, int64(1)).Return(nil, nil)
	f.cache.EXPECT().Set(ctx, key, gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	summary, err := f.uc.GetPoolSummary(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.CurrentPool != 0 {
		t.Fatalf("expected empty pool, got %d", summary.CurrentPool)
	}
}

func TestPoolUseCase_WriteInvalidatesCache(t *testing.T) {
	f := newPoolFixture(t, true)
	ctx := context.Background()
	key := usecase.PoolSummaryCacheKey(1)
	created := withdrawEntry("w1", 1, 1000, "A")

	gomock.InOrder(
		f.repo.EXPECT().Create(ctx, gomock.Any()).Return(created, nil),
		f.cache.EXPECT().Delete(ctx, key).Return(nil),
		f.cache.EXPECT().Get(ctx, key).Return(nil, nil),
		f.repo.EXPECT().List(ctx, int64(1)).Return([]*domain.Entry{created}, nil),
		f.cache.EXPECT().Set(ctx, key, gomock.Any(), gomock.Any()).Return(nil),
	)
	f.metrics.EXPECT().EntryCreated(domain.KindWithdraw)

	if _, err := f.uc.RecordWithdrawal(ctx, usecase.RecordWithdrawalInput{RestaurantID: 1, Participant: "A", Amount: 1000}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPoolUseCase_ReviseEntry(t *testing.T) {
	f := newPoolFixture(t, false)
	ctx := context.Background()

	target := depositEntry("e1", 1, 15000, "A", "B")
	other := depositEntry("e2", 1, 8000, "C")

	f.repo.EXPECT().List(ctx, int64(1)).Return([]*domain.Entry{other, target}, nil)
	f.repo.EXPECT().Update(ctx, "e1", domain.EntryRevision{SpendAmount: 25000, Contribution: -5000}).Return(nil)
	f.repo.EXPECT().List(ctx, int64(1)).Return([]*domain.Entry{other, {
		ID: "e1", RestaurantID: 1, ParticipantNames: []string{"A", "B"},
		SpendAmount: 25000, Contribution: -5000, Kind: domain.KindDeposit,
	}}, nil)
	f.metrics.EXPECT().EntryRevised(domain.KindDeposit)

	result, err := f.uc.ReviseEntry(ctx, 1, "e1", "25,000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Entry.Contribution != -5000 || result.Entry.ParticipantCount() != 2 {
		t.Fatalf("unexpected revised entry %+v", result.Entry)
	}
	if result.CurrentPool == nil || *result.CurrentPool != -3000 {
		t.Fatalf("expected pool -3000, got %v", result.CurrentPool)
	}
	if target.SpendAmount != 15000 {
		t.Fatalf("listed entry was mutated")
	}

	status, err := f.uc.EditStatus(1)
	if err != nil {
		t.Fatalf("edit status: %v", err)
	}
	if status.State != domain.EditViewing || status.EntryID != "" {
		t.Fatalf("expected idle session, got %+v", status)
	}
}

func TestPoolUseCase_ReviseEntryFailurePreservesDraft(t *testing.T) {
	f := newPoolFixture(t, false)
	ctx := context.Background()

	target := depositEntry("e1", 1, 15000, "A", "B")
	storeErr := domain.NewPersistenceError("update entry", errors.New("timeout"))

	f.repo.EXPECT().List(ctx, int64(1)).Return([]*domain.Entry{target}, nil).Times(2)
	f.repo.EXPECT().Update(ctx, "e1", gomock.Any()).Return(storeErr)
	f.metrics.EXPECT().EntryFailed("revise", "persistence")

	if _, err := f.uc.ReviseEntry(ctx, 1, "e1", "12000"); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	status, _ := f.uc.EditStatus(1)
	if status.State != domain.EditViewing || status.Draft != "12000" || !errors.Is(status.LastError, domain.ErrPersistence) {
		t.Fatalf("expected preserved draft after failure, got %+v", status)
	}

	f.repo.EXPECT().Update(ctx, "e1", domain.EntryRevision{SpendAmount: 12000, Contribution: 8000}).Return(nil)
	f.repo.EXPECT().List(ctx, int64(1)).Return(nil, nil)
	f.metrics.EXPECT().EntryRevised(domain.KindDeposit)

	if _, err := f.uc.ReviseEntry(ctx, 1, "e1", ""); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
}

func TestPoolUseCase_ReviseEntryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		f := newPoolFixture(t, false)
		f.repo.EXPECT().List(ctx, int64(1)).Return([]*domain.Entry{depositEntry("e1", 1, 1000, "A")}, nil)

		if _, err := f.uc.ReviseEntry(ctx, 1, "missing", "100"); !errors.Is(err, domain.ErrEntryNotFound) {
			t.Fatalf("expected ErrEntryNotFound, got %v", err)
		}
	})

	t.Run("invalid amount", func(t *testing.T) {
		f := newPoolFixture(t, false)
		f.repo.EXPECT().List(ctx, int64(1)).Return([]*domain.Entry{depositEntry("e1", 1, 1000, "A")}, nil)

		if _, err := f.uc.ReviseEntry(ctx, 1, "e1", "-5"); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}

		status, _ := f.uc.EditStatus(1)
		if status.State != domain.EditViewing {
			t.Fatalf("expected session released, got %s", status.State)
		}
	})

	t.Run("withdrawal to zero", func(t *testing.T) {
		f := newPoolFixture(t, false)
		f.repo.EXPECT().List(ctx, int64(1)).Return([]*domain.Entry{withdrawEntry("w1", 1, 1000, "A")}, nil)
		f.metrics.EXPECT().EntryFailed("revise", "validation")

		if _, err := f.uc.ReviseEntry(ctx, 1, "w1", "0"); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})
}

func TestPoolUseCase_OneRevisionPerList(t *testing.T) {
	f := newPoolFixture(t, false)
	ctx := context.Background()

	entries := []*domain.Entry{depositEntry("e1", 1, 1000, "A"), depositEntry("e2", 1, 2000, "B")}
	entered := make(chan struct{})
	unblock := make(chan struct{})

	f.repo.EXPECT().List(ctx, int64(1)).Return(entries, nil).AnyTimes()
	f.repo.EXPECT().Update(ctx, "e1", gomock.Any()).DoAndReturn(
		func(context.Context, string, domain.EntryRevision) error {
			close(entered)
			<-unblock
			return nil
		})
	f.metrics.EXPECT().EntryRevised(domain.KindDeposit)

	done := make(chan error, 1)
	go func() {
		_, err := f.uc.ReviseEntry(ctx, 1, "e1", "1500")
		done <- err
	}()

	<-entered

	if _, err := f.uc.ReviseEntry(ctx, 1, "e2", "2500"); !errors.Is(err, domain.ErrEditInProgress) {
		t.Fatalf("expected ErrEditInProgress, got %v", err)
	}

	status, _ := f.uc.EditStatus(1)
	if status.State != domain.EditPersisting || status.EntryID != "e1" {
		t.Fatalf("expected e1 persisting, got %+v", status)
	}

	close(unblock)
	if err := <-done; err != nil {
		t.Fatalf("first revision failed: %v", err)
	}
}

func TestPoolUseCase_ListRestaurantSummaries(t *testing.T) {
	f := newPoolFixture(t, false)
	ctx := context.Background()

	f.repo.EXPECT().List(ctx, int64(1)).Return([]*domain.Entry{
		depositEntry("e1", 1, 15000, "A", "B"),
		depositEntry("e2", 1, 30000, "A", "C", "D"),
	}, nil)
	f.repo.EXPECT().List(ctx, int64(2)).Return(nil, nil)

	summaries, err := f.uc.ListRestaurantSummaries(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summaries) != 2 || summaries[0].ID != 1 || summaries[1].ID != 2 {
		t.Fatalf("expected catalog order, got %+v", summaries)
	}
	if summaries[0].MemberCount != 4 || summaries[0].PoolAmount != 5000 {
		t.Fatalf("unexpected summary %+v", summaries[0])
	}
	if summaries[1].MemberCount != 0 || summaries[1].PoolAmount != 0 {
		t.Fatalf("expected empty pool, got %+v", summaries[1])
	}
}

func TestPoolUseCase_ListRestaurantSummariesPropagatesError(t *testing.T) {
	f := newPoolFixture(t, false)
	ctx := context.Background()

	f.repo.EXPECT().List(ctx, int64(1)).Return(nil, domain.NewPersistenceError("list entries", errors.New("down")))

	if _, err := f.uc.ListRestaurantSummaries(ctx); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestPoolUseCase_MenuPrice(t *testing.T) {
	f := newPoolFixture(t, false)

	price, ok, err := f.uc.MenuPrice(1, " bibimbap ")
	if err != nil || !ok || price != 8500 {
		t.Fatalf("expected 8500, got price=%d ok=%v err=%v", price, ok, err)
	}

	if _, ok, _ := f.uc.MenuPrice(1, "pizza"); ok {
		t.Fatalf("expected no match")
	}

	if _, _, err := f.uc.MenuPrice(42, "x"); !errors.Is(err, domain.ErrRestaurantNotFound) {
		t.Fatalf("expected ErrRestaurantNotFound, got %v", err)
	}
}

func TestPoolSummaryJSONRoundTrip(t *testing.T) {
	summary := usecase.PoolSummary{
		Restaurant:  domain.Restaurant{ID: 1, Name: "Kimbap House"},
		Entries:     []*domain.Entry{depositEntry("e1", 1, 15000, "A, B")},
		CurrentPool: 5000,
	}
	summary.Entries[0].RosterJoined = true
	summary.Entries[0].Contribution = 5000

	data, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded usecase.PoolSummary
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.Entries[0].ParticipantCount() != 2 {
		t.Fatalf("expected joined roster flag to survive, got %d participants", decoded.Entries[0].ParticipantCount())
	}
	if err := decoded.Entries[0].Validate(); err != nil {
		t.Fatalf("expected decoded entry to stay valid: %v", err)
	}
}
