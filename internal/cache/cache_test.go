package cache

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/justestif/go-now-playing/internal/config"
	"github.com/justestif/go-now-playing/internal/db"
	"github.com/justestif/go-now-playing/internal/track"
)

var sample = track.Track{
	IsPlaying: true,
	Type:      track.TypeTrack,
	Song:      "Test Song",
	Artist:    "Artist A, Artist B",
	Href:      "https://open.spotify.com/track/123",
}

// fakeRepo implements Repository in memory.
type fakeRepo struct {
	mu      sync.Mutex
	rows    map[string][]byte
	getErr  error
	putErr  error
	upserts int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[string][]byte)}
}

func (f *fakeRepo) Get(_ context.Context, id string) (*db.LastTrack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.rows[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &db.LastTrack{ID: id, Data: data}, nil
}

func (f *fakeRepo) Upsert(_ context.Context, rec *db.LastTrack) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.upserts++
	f.rows[rec.ID] = rec.Data
	return nil
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "cache.db"), "last_played_track")
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory":   NewMemory(),
		"sqlite":   sqlite,
		"postgres": NewPostgres(newFakeRepo()),
	}
}

func TestStores_EmptyGet(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			got, err := store.Get(context.Background())
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got != nil {
				t.Errorf("Get() = %+v, want nil for empty store", got)
			}
		})
	}
}

func TestStores_RoundTrip(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := store.Put(ctx, sample); err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			got, err := store.Get(ctx)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got == nil {
				t.Fatal("Get() = nil after Put")
			}
			if *got != sample {
				t.Errorf("Get() = %+v, want %+v", *got, sample)
			}
		})
	}
}

func TestStores_Overwrite(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			second := track.Track{IsPlaying: true, Type: track.TypeTrack, Song: "Second", Artist: "Other"}

			if err := store.Put(ctx, sample); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if err := store.Put(ctx, second); err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			got, err := store.Get(ctx)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got == nil || *got != second {
				t.Errorf("Get() = %+v, want %+v", got, second)
			}
		})
	}
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var store Nop

	if err := store.Put(ctx, sample); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || *got != track.Silence() {
		t.Errorf("Get() = %+v, want silence", got)
	}
}

func TestPostgres_Errors(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("connection refused")

	repo := newFakeRepo()
	repo.getErr = cause
	repo.putErr = cause
	store := NewPostgres(repo)

	_, err := store.Get(ctx)
	if !errors.Is(err, ErrStore) {
		t.Errorf("Get() error = %v, want ErrStore", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Get() error = %v, want cause preserved", err)
	}

	if err := store.Put(ctx, sample); !errors.Is(err, ErrStore) {
		t.Errorf("Put() error = %v, want ErrStore", err)
	}
}

func TestPostgres_WritesFixedKey(t *testing.T) {
	repo := newFakeRepo()
	store := NewPostgres(repo)

	for i := 0; i < 3; i++ {
		if err := store.Put(context.Background(), sample); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	if len(repo.rows) != 1 {
		t.Errorf("rows = %d, want exactly 1", len(repo.rows))
	}
	if _, ok := repo.rows[LastKey]; !ok {
		t.Errorf("row %q missing", LastKey)
	}
	if repo.upserts != 3 {
		t.Errorf("upserts = %d, want 3", repo.upserts)
	}
}

func TestPostgres_CorruptRecord(t *testing.T) {
	repo := newFakeRepo()
	repo.rows[LastKey] = []byte("{broken")

	_, err := NewPostgres(repo).Get(context.Background())
	if !errors.Is(err, ErrStore) {
		t.Errorf("Get() error = %v, want ErrStore", err)
	}
}

func TestOpenSQLite_InvalidTable(t *testing.T) {
	_, err := OpenSQLite(context.Background(), ":memory:", "bad-name")
	if err == nil {
		t.Error("OpenSQLite() should reject invalid table names")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     config.CacheConfig
		want    string
		wantErr bool
	}{
		{"none", config.CacheConfig{Driver: config.DriverNone}, "cache.Nop", false},
		{"empty driver", config.CacheConfig{}, "cache.Nop", false},
		{"memory", config.CacheConfig{Driver: config.DriverMemory}, "*cache.Memory", false},
		{"sqlite", config.CacheConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"}, "*cache.SQLite", false},
		{"unknown", config.CacheConfig{Driver: "redis"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, closeFn, err := Open(ctx, tt.cfg)
			defer closeFn()

			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := typeName(store); got != tt.want {
				t.Errorf("Open() store = %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(s Store) string {
	switch s.(type) {
	case Nop:
		return "cache.Nop"
	case *Memory:
		return "*cache.Memory"
	case *SQLite:
		return "*cache.SQLite"
	case *Postgres:
		return "*cache.Postgres"
	default:
		return "unknown"
	}
}
