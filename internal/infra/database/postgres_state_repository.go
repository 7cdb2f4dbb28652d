package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"weekly_scheduler_bot/internal/domain/cycle"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS cycle_states (
	channel_key TEXT PRIMARY KEY,
	payload     JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStateRepository stores one JSON state document per channel.
type PostgresStateRepository struct {
	db *sql.DB
}

func NewPostgresStateRepository(db *sql.DB) *PostgresStateRepository {
	return &PostgresStateRepository{db: db}
}

// Migrate creates the cycle_states table if needed.
func (r *PostgresStateRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("error creating cycle_states table: %w", err)
	}
	return nil
}

func (r *PostgresStateRepository) Load(ctx context.Context, channelKey string) (*cycle.State, error) {
	query := `SELECT payload FROM cycle_states WHERE channel_key = $1`

	var payload string
	err := r.db.QueryRowContext(ctx, query, channelKey).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cycle.ErrStateNotFound
		}
		return nil, fmt.Errorf("error loading cycle state: %w", err)
	}
	return cycle.Decode([]byte(payload))
}

func (r *PostgresStateRepository) Save(ctx context.Context, channelKey string, st *cycle.State) error {
	payload, err := cycle.Encode(st)
	if err != nil {
		return err
	}

	query := `INSERT INTO cycle_states (channel_key, payload, updated_at)
               VALUES ($1, $2, NOW())
               ON CONFLICT (channel_key) DO UPDATE
               SET payload = EXCLUDED.payload, updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, channelKey, string(payload)); err != nil {
		return fmt.Errorf("error saving cycle state: %w", err)
	}
	return nil
}
