package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"   // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

const pingTimeout = 10 * time.Second

// poolConfig sizes a connection pool. One invocation issues a handful of
// sequential queries, so the pools stay small.
type poolConfig struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
	maxIdleTime time.Duration
	// init runs once after opening, before the ping.
	init []string
}

var (
	postgresPool = poolConfig{
		maxOpen:     5,
		maxIdle:     2,
		maxLifetime: 5 * time.Minute,
		maxIdleTime: time.Minute,
	}
	// SQLite allows one writer; a single connection serializes writes
	// inside the process and busy_timeout covers other processes.
	sqlitePool = poolConfig{
		maxOpen: 1,
		maxIdle: 1,
		init:    []string{"PRAGMA busy_timeout = 5000"},
	}
)

// NewPostgresConnection opens a pooled lib/pq connection and pings it.
func NewPostgresConnection(dataSourceName string) (*sql.DB, error) {
	return open("postgres", dataSourceName, postgresPool)
}

// NewSQLiteConnection opens the SQLite file at path with the modernc driver.
func NewSQLiteConnection(path string) (*sql.DB, error) {
	return open("sqlite", path, sqlitePool)
}

func open(driver, dsn string, pool poolConfig) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}

	db.SetMaxOpenConns(pool.maxOpen)
	db.SetMaxIdleConns(pool.maxIdle)
	db.SetConnMaxLifetime(pool.maxLifetime)
	db.SetConnMaxIdleTime(pool.maxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	for _, stmt := range pool.init {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure %s connection (%s): %w", driver, stmt, err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}
	return db, nil
}
