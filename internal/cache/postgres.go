package cache

import (
	"context"

	"github.com/pkg/errors"

	"github.com/justestif/go-now-playing/internal/db"
	"github.com/justestif/go-now-playing/internal/track"
)

// Repository is the subset of db.LastTrackRepository the Postgres store uses.
type Repository interface {
	Get(ctx context.Context, id string) (*db.LastTrack, error)
	Upsert(ctx context.Context, rec *db.LastTrack) error
}

// Postgres stores the record in a PostgreSQL table.
type Postgres struct {
	repo Repository
}

// NewPostgres creates a store over the given repository.
func NewPostgres(repo Repository) *Postgres {
	return &Postgres{repo: repo}
}

// Get loads and decodes the record.
func (p *Postgres) Get(ctx context.Context) (*track.Track, error) {
	rec, err := p.repo.Get(ctx, LastKey)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(err, "failed to get last track")
	}

	t, err := track.Decode(rec.Data)
	if err != nil {
		return nil, wrap(err, "failed to decode last track")
	}
	return &t, nil
}

// Put overwrites the record.
func (p *Postgres) Put(ctx context.Context, t track.Track) error {
	data, err := track.Encode(t)
	if err != nil {
		return wrap(err, "failed to encode track")
	}

	if err := p.repo.Upsert(ctx, &db.LastTrack{ID: LastKey, Data: data}); err != nil {
		return wrap(err, "failed to store last track")
	}
	return nil
}
