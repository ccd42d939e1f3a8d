package usecase

import (
	"strconv"
	"time"
)

const (
	// DefaultSummaryCacheTTL bounds how long a cached pool summary may be served.
	// Writes invalidate the cached summary immediately.
	DefaultSummaryCacheTTL = 30 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	poolSummaryKeyPrefix = "bobpool:pool:"
)

// PoolSummaryCacheKey returns the cache key of a restaurant's pool summary.
func PoolSummaryCacheKey(restaurantID int64) string {
	return poolSummaryKeyPrefix + strconv.FormatInt(restaurantID, 10)
}
