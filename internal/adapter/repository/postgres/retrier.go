package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// SQLSTATE codes worth another attempt.
const (
	pgErrSerializationFailure = "40001"
	pgErrDeadlock             = "40P01"
	pgErrLockNotAvailable     = "55P03"
)

// RetryPolicy bounds how often a write is attempted again.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryPolicy suits short single-entry transactions.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:      3,
	InitialInterval: 50 * time.Millisecond,
	MaxInterval:     time.Second,
	MaxElapsedTime:  10 * time.Second,
}

// Retrier re-runs entry transactions that failed on lock contention or
// before the request reached the server.
type Retrier struct {
	policy RetryPolicy
	logger zerolog.Logger
}

// NewRetrier creates a Retrier with DefaultRetryPolicy.
func NewRetrier(logger zerolog.Logger) *Retrier {
	return NewRetrierWithPolicy(DefaultRetryPolicy, logger)
}

// NewRetrierWithPolicy creates a Retrier with a custom policy.
func NewRetrierWithPolicy(policy RetryPolicy, logger zerolog.Logger) *Retrier {
	return &Retrier{policy: policy, logger: logger}
}

// Retry runs fn until it succeeds, fails permanently, or the policy is exhausted.
// The last error is returned unchanged.
func (r *Retrier) Retry(ctx context.Context, op string, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialInterval
	b.MaxInterval = r.policy.MaxInterval
	b.MaxElapsedTime = r.policy.MaxElapsedTime

	attempt := 0

	return backoff.Retry(func() error {
		attempt++

		err := fn()
		if err == nil {
			return nil
		}

		if !isRetryableError(err) || attempt > r.policy.MaxRetries {
			return backoff.Permanent(err)
		}

		r.logger.Warn().Err(err).
			Str("op", op).
			Int("attempt", attempt).
			Msg("transient postgres error, retrying")

		return err
	}, backoff.WithContext(b, ctx))
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrSerializationFailure, pgErrDeadlock, pgErrLockNotAvailable:
			return true
		}
		return false
	}

	// Connection failures where nothing was sent are safe to replay.
	return pgconn.SafeToRetry(err)
}
