package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/iho/bobpool/internal/domain"
	"github.com/iho/bobpool/internal/usecase"
)

const (
	insertEntrySQL = `INSERT INTO entries
	(id, restaurant_id, display_name, participant_names, spend_amount, contribution, kind, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	listEntriesSQL = `SELECT id, restaurant_id, display_name, participant_names, spend_amount, contribution, kind, created_at
	FROM entries
	WHERE restaurant_id = ?
	ORDER BY created_at DESC, id DESC`

	updateEntrySQL = `UPDATE entries SET spend_amount = ?, contribution = ? WHERE id = ?`

	sumEntriesSQL = `SELECT COALESCE(SUM(contribution), 0), COUNT(*) FROM entries WHERE restaurant_id = ?`
)

// EntryRepository implements usecase.EntryRepository and
// usecase.LedgerRepository on a local SQLite file.
type EntryRepository struct {
	db     *sql.DB
	idGen  usecase.IDGenerator
	logger zerolog.Logger
	now    func() time.Time
}

// NewEntryRepository opens (and migrates) the database at dbPath.
func NewEntryRepository(dbPath string, idGen usecase.IDGenerator, logger zerolog.Logger) (*EntryRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &EntryRepository{
		db:     db,
		idGen:  idGen,
		logger: logger.With().Str("store", "sqlite").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close closes the database.
func (r *EntryRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *EntryRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// List returns a restaurant's entries, newest first.
func (r *EntryRepository) List(ctx context.Context, restaurantID int64) ([]*domain.Entry, error) {
	rows, err := r.db.QueryContext(ctx, listEntriesSQL, restaurantID)
	if err != nil {
		return nil, domain.NewPersistenceError("list entries", err)
	}
	defer rows.Close()

	entries := make([]*domain.Entry, 0)
	for rows.Next() {
		var (
			e           domain.Entry
			displayName string
			roster      sql.NullString
			kind        string
			createdAt   int64
		)

		if err := rows.Scan(&e.ID, &e.RestaurantID, &displayName, &roster, &e.SpendAmount, &e.Contribution, &kind, &createdAt); err != nil {
			return nil, domain.NewPersistenceError("list entries", err)
		}

		e.Kind = domain.EntryKind(kind)
		e.CreatedAt = time.UnixMicro(createdAt).UTC()

		if roster.Valid {
			if err := json.Unmarshal([]byte(roster.String), &e.ParticipantNames); err != nil {
				r.logger.Warn().Err(err).Str("entry_id", e.ID).Msg("unreadable roster, falling back to display name")
				roster.Valid = false
			}
		}
		if !roster.Valid {
			e.ParticipantNames = []string{displayName}
			e.RosterJoined = true
		}

		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistenceError("list entries", err)
	}

	return entries, nil
}

// Create inserts the draft under a new ID.
func (r *EntryRepository) Create(ctx context.Context, draft *domain.EntryDraft) (*domain.Entry, error) {
	entry := draft.ToEntry(r.idGen.Generate(), r.now().Truncate(time.Microsecond))

	roster, err := json.Marshal(entry.ParticipantNames)
	if err != nil {
		return nil, domain.NewPersistenceError("create entry", err)
	}

	_, err = r.db.ExecContext(ctx, insertEntrySQL,
		entry.ID,
		entry.RestaurantID,
		entry.DisplayName(),
		string(roster),
		entry.SpendAmount,
		entry.Contribution,
		string(entry.Kind),
		entry.CreatedAt.UnixMicro(),
	)
	if err != nil {
		return nil, domain.NewPersistenceError("create entry", err)
	}

	r.logger.Debug().Str("entry_id", entry.ID).Int64("restaurant_id", entry.RestaurantID).Msg("entry saved")

	return entry, nil
}

// Update writes the spend amount and contribution of one entry.
func (r *EntryRepository) Update(ctx context.Context, id string, rev domain.EntryRevision) error {
	res, err := r.db.ExecContext(ctx, updateEntrySQL, rev.SpendAmount, rev.Contribution, id)
	if err != nil {
		return domain.NewPersistenceError("update entry", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewPersistenceError("update entry", err)
	}
	if n == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// SumContributions returns SUM(contribution) and the row count of a restaurant.
func (r *EntryRepository) SumContributions(ctx context.Context, restaurantID int64) (int64, int64, error) {
	var sum, count int64
	if err := r.db.QueryRowContext(ctx, sumEntriesSQL, restaurantID).Scan(&sum, &count); err != nil {
		return 0, 0, domain.NewPersistenceError("sum contributions", err)
	}
	return sum, count, nil
}

// ImportJoined inserts a row that only has a comma-joined display name,
// as rows carried over from the original schema do.
func (r *EntryRepository) ImportJoined(ctx context.Context, e *domain.Entry) error {
	_, err := r.db.ExecContext(ctx, insertEntrySQL,
		e.ID,
		e.RestaurantID,
		e.DisplayName(),
		nil,
		e.SpendAmount,
		e.Contribution,
		string(e.Kind),
		e.CreatedAt.UnixMicro(),
	)
	return domain.NewPersistenceError("import entry", err)
}
