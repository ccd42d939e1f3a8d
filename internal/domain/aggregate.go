package domain

// SkippedEntry records an entry the aggregator left out.
type SkippedEntry struct {
	EntryID string
	Reason  error
}

// PoolStats are the display statistics of one restaurant pool.
type PoolStats struct {
	CurrentPool        int64
	TotalDeposited     int64
	TotalWithdrawn     int64
	DistinctDepositors int
	EntryCount         int
	Skipped            []SkippedEntry
}

// Aggregate folds entries into PoolStats. Entry order does not matter.
// Entries that violate the ledger invariants are skipped and reported.
func Aggregate(entries []*Entry) PoolStats {
	var stats PoolStats
	depositors := make(map[string]struct{})

	for _, e := range entries {
		if e == nil {
			stats.Skipped = append(stats.Skipped, SkippedEntry{Reason: ErrMalformedEntry})
			continue
		}

		if err := e.Validate(); err != nil {
			stats.Skipped = append(stats.Skipped, SkippedEntry{EntryID: e.ID, Reason: err})
			continue
		}

		stats.EntryCount++
		stats.CurrentPool += e.Contribution

		switch e.Kind {
		case KindDeposit:
			if e.Contribution > 0 {
				stats.TotalDeposited += e.Contribution
			}
			for _, name := range e.Roster() {
				depositors[name] = struct{}{}
			}
		case KindWithdraw:
			stats.TotalWithdrawn += abs(e.Contribution)
		}
	}

	stats.DistinctDepositors = len(depositors)

	return stats
}

// CurrentPool sums contribution over the well-formed entries.
func CurrentPool(entries []*Entry) int64 {
	return Aggregate(entries).CurrentPool
}

// TotalDeposited sums the positive contributions of deposits.
func TotalDeposited(entries []*Entry) int64 {
	return Aggregate(entries).TotalDeposited
}

// TotalWithdrawn sums the absolute contributions of withdrawals.
func TotalWithdrawn(entries []*Entry) int64 {
	return Aggregate(entries).TotalWithdrawn
}

// DistinctDepositorCount counts each name appearing in any deposit roster once.
func DistinctDepositorCount(entries []*Entry) int {
	return Aggregate(entries).DistinctDepositors
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
