package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/bobpool/internal/domain"
	"github.com/iho/bobpool/internal/infrastructure/postgres/generated"
)

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// rowToEntry maps a row to an Entry. Rows without a structured roster carry
// only the joined display name and are flagged RosterJoined.
func rowToEntry(row generated.Entry) *domain.Entry {
	entry := &domain.Entry{
		ID:           row.ID,
		RestaurantID: row.RestaurantID,
		SpendAmount:  row.SpendAmount,
		Contribution: row.Contribution,
		Kind:         domain.EntryKind(row.Kind),
		CreatedAt:    row.CreatedAt.Time,
	}

	if row.ParticipantNames == nil {
		entry.ParticipantNames = []string{row.DisplayName}
		entry.RosterJoined = true
	} else {
		entry.ParticipantNames = row.ParticipantNames
	}

	return entry
}
