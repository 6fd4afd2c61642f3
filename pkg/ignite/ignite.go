// Package ignite provides a high-performance key/value data store
// designed for fast read and write operations, inspired by Bitcask.
// It combines an in-memory hash table (KeyDir/Index) with an append-only log
// structure on disk to achieve high throughput. It is designed for applications
// requiring fast read and write operations, such as caching, session management,
// and real-time data processing, aiming to provide a simple, efficient, and
// reliable solution for persistent key/value storage in Go applications:
// keys are held in memory, values live in segment files on disk.
package ignite

import (
	"context"
	stdErrors "errors"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/iamNilotpal/ignite/internal/engine"
	"github.com/iamNilotpal/ignite/pkg/logger"
	"github.com/iamNilotpal/ignite/pkg/options"
)

// ErrClosed is returned by any Instance operation after Close has completed.
var ErrClosed = stdErrors.New("ignite: instance is closed")

// shared is the state one or more Instance handles hold in common: the
// underlying engine, the readers-writer lock guarding it, and a one-slot
// semaphore that keeps at most one compaction running at a time even when
// several cloned handles call Compact concurrently.
type shared struct {
	engine *engine.Engine
	mu     sync.RWMutex
	compactSem *semaphore.Weighted
	closed bool
}

// Instance represents an instance of the Ignite key/value data store.
// It encapsulates the core engine responsible for data handling and
// the configuration options for this specific database instance.
//
// Instance is cheaply duplicable: Clone returns a new Instance sharing the
// same underlying engine and lock, so it can be handed to many concurrent
// workers without each needing its own open store. Get, Set, Delete,
// Compact, Close, Sync, and ForEach take the exclusive hold; Get does so
// even though segment reads use ReadAt and move no file cursor. Keys, Len,
// IsEmpty, and ContainsKey only need a shared hold.
type Instance struct {
	shared  *shared
	options *options.Options
}

// NewInstance creates and initializes a new Ignite DB instance.
func NewInstance(ctx context.Context, service string, opts ...options.OptionFunc) (*Instance, error) {
	log := logger.New(service)

	defaultOpts := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&defaultOpts)
	}

	eng, err := engine.New(ctx, &engine.Config{Logger: log, Options: &defaultOpts})
	if err != nil {
		return nil, err
	}

	return &Instance{
		shared: &shared{
			engine:     eng,
			compactSem: semaphore.NewWeighted(1),
		},
		options: &defaultOpts,
	}, nil
}

// Clone returns a new Instance handle sharing this one's underlying engine
// and lock. Both handles observe the same data; closing one closes the
// store for all of them.
func (i *Instance) Clone() *Instance {
	return &Instance{shared: i.shared, options: i.options}
}

// Set stores a key-value pair in the database.
// If the key already exists, its value will be updated.
// The record is appended to the active segment; it is fsynced before Set
// returns only when the Sync option is enabled.
func (i *Instance) Set(ctx context.Context, key string, value []byte) error {
	i.shared.mu.Lock()
	defer i.shared.mu.Unlock()

	if i.shared.closed {
		return ErrClosed
	}
	return i.shared.engine.Set([]byte(key), value)
}

// Get retrieves the value associated with the given key. The returned bool
// reports whether the key has a live entry.
func (i *Instance) Get(ctx context.Context, key string) ([]byte, bool, error) {
	i.shared.mu.Lock()
	defer i.shared.mu.Unlock()

	if i.shared.closed {
		return nil, false, ErrClosed
	}
	return i.shared.engine.Get([]byte(key))
}

// Delete removes a key-value pair from the database. It succeeds silently
// if the key has no live entry.
func (i *Instance) Delete(ctx context.Context, key string) error {
	i.shared.mu.Lock()
	defer i.shared.mu.Unlock()

	if i.shared.closed {
		return ErrClosed
	}
	return i.shared.engine.Delete([]byte(key))
}

// Keys returns a snapshot of every live key.
func (i *Instance) Keys(ctx context.Context) ([]string, error) {
	i.shared.mu.RLock()
	defer i.shared.mu.RUnlock()

	if i.shared.closed {
		return nil, ErrClosed
	}
	return i.shared.engine.Keys(), nil
}

// Len returns the number of live keys.
func (i *Instance) Len(ctx context.Context) (int, error) {
	i.shared.mu.RLock()
	defer i.shared.mu.RUnlock()

	if i.shared.closed {
		return 0, ErrClosed
	}
	return i.shared.engine.Len(), nil
}

// IsEmpty reports whether the store holds zero live keys.
func (i *Instance) IsEmpty(ctx context.Context) (bool, error) {
	i.shared.mu.RLock()
	defer i.shared.mu.RUnlock()

	if i.shared.closed {
		return true, ErrClosed
	}
	return i.shared.engine.IsEmpty(), nil
}

// ContainsKey reports whether key has a live entry.
func (i *Instance) ContainsKey(ctx context.Context, key string) (bool, error) {
	i.shared.mu.RLock()
	defer i.shared.mu.RUnlock()

	if i.shared.closed {
		return false, ErrClosed
	}
	return i.shared.engine.ContainsKey([]byte(key)), nil
}

// ForEach calls fn with every live key/value pair, stopping early if fn
// returns an error.
func (i *Instance) ForEach(ctx context.Context, fn func(key string, value []byte) error) error {
	i.shared.mu.Lock()
	defer i.shared.mu.Unlock()

	if i.shared.closed {
		return ErrClosed
	}
	return i.shared.engine.ForEach(func(key, value []byte) error {
		return fn(string(key), value)
	})
}

// Sync forces any pending writes to be flushed to stable storage.
func (i *Instance) Sync(ctx context.Context) error {
	i.shared.mu.Lock()
	defer i.shared.mu.Unlock()

	if i.shared.closed {
		return ErrClosed
	}
	return i.shared.engine.Sync()
}

// Compact runs an on-demand compaction pass. The semaphore ensures that if
// two cloned handles call Compact concurrently, the second blocks until the
// first finishes rather than racing over the same segment table.
func (i *Instance) Compact(ctx context.Context) error {
	if err := i.shared.compactSem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer i.shared.compactSem.Release(1)

	i.shared.mu.Lock()
	defer i.shared.mu.Unlock()

	if i.shared.closed {
		return ErrClosed
	}
	return i.shared.engine.Compact()
}

// Close gracefully shuts down the Ignite DB instance, releasing all
// associated resources, flushing any pending writes, and ensuring data
// durability. Close is idempotent across every clone of this Instance: the
// first call closes the underlying engine, later calls return ErrClosed.
func (i *Instance) Close(ctx context.Context) error {
	i.shared.mu.Lock()
	defer i.shared.mu.Unlock()

	if i.shared.closed {
		return ErrClosed
	}
	i.shared.closed = true
	return i.shared.engine.Close()
}
