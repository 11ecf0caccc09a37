// Package db provides PostgreSQL access for the last-played-track record.
package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable is the cache table name when none is configured.
const DefaultTable = "last_played_track"

// Common errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidTable = errors.New("invalid table name")
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool  *pgxpool.Pool
	table string
}

// New creates a new database connection pool. An empty table selects DefaultTable.
func New(ctx context.Context, databaseURL, table string) (*DB, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool, table: table}, nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// LastTracks returns a LastTrackRepository.
func (db *DB) LastTracks() *LastTrackRepository {
	return &LastTrackRepository{pool: db.pool, table: db.table}
}

// Migrate creates the cache table if it does not exist.
func (db *DB) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, db.table)

	if _, err := db.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("creating %s table: %w", db.table, err)
	}
	return nil
}
