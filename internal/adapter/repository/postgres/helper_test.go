package postgres

import (
	"fmt"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/rs/zerolog"
)

var entryColumns = []string{
	"id", "restaurant_id", "display_name", "participant_names",
	"spend_amount", "contribution", "kind", "created_at",
}

type sequenceIDs struct {
	n int
}

func (s *sequenceIDs) Generate() string {
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

func newTestEntryRepository(t *testing.T) (*EntryRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	pool := newMockPool(t)
	repo := newEntryRepository(pool, &sequenceIDs{}, zerolog.Nop())
	repo.now = func() time.Time { return time.Date(2024, 3, 4, 12, 30, 0, 0, time.UTC) }
	repo.retrier = NewRetrierWithPolicy(fastPolicy, zerolog.Nop())

	return repo, pool
}
