package cache

import (
	"context"

	"github.com/pkg/errors"

	"github.com/justestif/go-now-playing/internal/config"
	"github.com/justestif/go-now-playing/internal/db"
)

// Open builds the store selected by cfg.Driver. The returned close function
// releases any database handle and is never nil.
func Open(ctx context.Context, cfg config.CacheConfig) (Store, func(), error) {
	noop := func() {}

	table := cfg.Table
	if table == "" {
		table = db.DefaultTable
	}

	switch cfg.Driver {
	case config.DriverNone, "":
		return Nop{}, noop, nil

	case config.DriverMemory:
		return NewMemory(), noop, nil

	case config.DriverSQLite:
		s, err := OpenSQLite(ctx, cfg.SQLitePath, table)
		if err != nil {
			return nil, noop, err
		}
		return s, func() { _ = s.Close() }, nil

	case config.DriverPostgres:
		database, err := db.New(ctx, cfg.DatabaseURL, table)
		if err != nil {
			return nil, noop, errors.Wrap(err, "failed to connect to postgres")
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, noop, err
		}
		return NewPostgres(database.LastTracks()), database.Close, nil

	default:
		return nil, noop, errors.Errorf("unknown cache driver %q", cfg.Driver)
	}
}
