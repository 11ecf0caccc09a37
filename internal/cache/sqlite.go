package cache

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/justestif/go-now-playing/internal/track"
)

// SQLite stores the record in a local SQLite table.
type SQLite struct {
	db    *sql.DB
	table string
}

// OpenSQLite opens (or creates) the database at path and ensures the table exists.
// The path can be ":memory:" for an in-memory database.
func OpenSQLite(ctx context.Context, path, table string) (*SQLite, error) {
	if !validTable(table) {
		return nil, errors.Errorf("invalid table name %q", table)
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// A single connection keeps ":memory:" databases coherent.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	s := &SQLite{db: conn, table: table}
	if err := s.Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the cache table if it does not exist.
func (s *SQLite) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         TEXT PRIMARY KEY,
			data       TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`, s.table)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return errors.Wrapf(err, "failed to create %s table", s.table)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Get loads and decodes the record.
func (s *SQLite) Get(ctx context.Context) (*track.Track, error) {
	query := fmt.Sprintf(`SELECT data FROM %s WHERE id = ?`, s.table)

	var data string
	err := s.db.QueryRowContext(ctx, query, LastKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(err, "failed to get last track")
	}

	t, err := track.Decode([]byte(data))
	if err != nil {
		return nil, wrap(err, "failed to decode last track")
	}
	return &t, nil
}

// Put overwrites the record.
func (s *SQLite) Put(ctx context.Context, t track.Track) error {
	data, err := track.Encode(t)
	if err != nil {
		return wrap(err, "failed to encode track")
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP
	`, s.table)

	if _, err := s.db.ExecContext(ctx, query, LastKey, string(data)); err != nil {
		return wrap(err, "failed to store last track")
	}
	return nil
}

func validTable(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
