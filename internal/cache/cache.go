// Package cache stores the last known track in a single fixed-key record.
//
// Exactly one logical row ("last") exists per store. Writes overwrite it; it
// is never deleted. Concurrent writers race benignly: last write wins.
package cache

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/justestif/go-now-playing/internal/track"
)

// LastKey is the fixed key of the single cached record.
const LastKey = "last"

// ErrStore tags every cache read or write failure.
var ErrStore = errors.New("cache store failure")

// Store is the last-known-track capability.
// Get returns (nil, nil) when no record exists yet.
type Store interface {
	Get(ctx context.Context) (*track.Track, error)
	Put(ctx context.Context, t track.Track) error
}

// storeError wraps a driver error so errors.Is matches both ErrStore and the cause.
type storeError struct {
	cause error
}

func (e *storeError) Error() string { return ErrStore.Error() + ": " + e.cause.Error() }

func (e *storeError) Is(target error) bool { return target == ErrStore }

func (e *storeError) Unwrap() error { return e.cause }

func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &storeError{cause: errors.Wrap(err, msg)}
}

// Nop is the store for deployments without a cache collaborator. It never
// records anything and always reports the silence track.
type Nop struct{}

// Get returns the silence track.
func (Nop) Get(context.Context) (*track.Track, error) {
	t := track.Silence()
	return &t, nil
}

// Put discards t.
func (Nop) Put(context.Context, track.Track) error { return nil }

// Memory keeps the serialized record in process memory. It suits local
// development and tests; it is not shared between instances.
type Memory struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Get decodes the stored record.
func (m *Memory) Get(context.Context) (*track.Track, error) {
	m.mu.RLock()
	data := m.data
	m.mu.RUnlock()

	if data == nil {
		return nil, nil
	}

	t, err := track.Decode(data)
	if err != nil {
		return nil, wrap(err, "failed to decode cached track")
	}
	return &t, nil
}

// Put overwrites the stored record.
func (m *Memory) Put(_ context.Context, t track.Track) error {
	data, err := track.Encode(t)
	if err != nil {
		return wrap(err, "failed to encode track")
	}

	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

// Ensure all stores implement Store.
var (
	_ Store = Nop{}
	_ Store = (*Memory)(nil)
	_ Store = (*SQLite)(nil)
	_ Store = (*Postgres)(nil)
)
