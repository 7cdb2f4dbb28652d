package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"weekly_scheduler_bot/internal/domain/cycle"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS cycle_states (
	channel_key TEXT PRIMARY KEY,
	payload     TEXT NOT NULL,
	updated_at  TEXT NOT NULL
)`

// SQLiteStateRepository is the single-file relational backend.
type SQLiteStateRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStateRepository(db *sql.DB) *SQLiteStateRepository {
	return &SQLiteStateRepository{db: db, now: time.Now}
}

func (r *SQLiteStateRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("error creating cycle_states table: %w", err)
	}
	return nil
}

func (r *SQLiteStateRepository) Load(ctx context.Context, channelKey string) (*cycle.State, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM cycle_states WHERE channel_key = ?`, channelKey).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cycle.ErrStateNotFound
		}
		return nil, fmt.Errorf("error loading cycle state: %w", err)
	}
	return cycle.Decode([]byte(payload))
}

func (r *SQLiteStateRepository) Save(ctx context.Context, channelKey string, st *cycle.State) error {
	payload, err := cycle.Encode(st)
	if err != nil {
		return err
	}

	query := `INSERT INTO cycle_states (channel_key, payload, updated_at)
               VALUES (?, ?, ?)
               ON CONFLICT (channel_key) DO UPDATE
               SET payload = excluded.payload, updated_at = excluded.updated_at`

	updatedAt := r.now().UTC().Format(time.RFC3339)
	if _, err := r.db.ExecContext(ctx, query, channelKey, string(payload), updatedAt); err != nil {
		return fmt.Errorf("error saving cycle state: %w", err)
	}
	return nil
}
