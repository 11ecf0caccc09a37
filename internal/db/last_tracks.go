package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LastTrackRepository handles the last-played-track row.
type LastTrackRepository struct {
	pool  *pgxpool.Pool
	table string
}

// Get retrieves a record by ID.
func (r *LastTrackRepository) Get(ctx context.Context, id string) (*LastTrack, error) {
	query := fmt.Sprintf(`
		SELECT id, data, updated_at
		FROM %s
		WHERE id = $1
	`, r.table)

	var rec LastTrack
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.Data,
		&rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying last track: %w", err)
	}
	return &rec, nil
}

// Upsert overwrites the record, creating it on first write.
func (r *LastTrackRepository) Upsert(ctx context.Context, rec *LastTrack) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = NOW()
		RETURNING updated_at
	`, r.table)

	err := r.pool.QueryRow(ctx, query, rec.ID, rec.Data).Scan(&rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting last track: %w", err)
	}
	return nil
}
