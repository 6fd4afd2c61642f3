// Package engine provides the core database engine implementation for the Ignite storage system.
//
// The engine serves as the central coordinator and entry point for all database operations.
// It owns a single Storage instance — which in turn owns the lock, the segment table, and the
// key directory — and layers two things on top: lifecycle management (Close is idempotent and
// tears down storage exactly once) and an optional background compaction loop driven by the
// configured compaction interval.
//
// The engine tracks its open/closed state with an atomic flag, so Close runs its
// teardown only once. It does not otherwise synchronize its operations: concurrent
// callers go through pkg/ignite, which wraps an Engine in a readers-writer lock.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iamNilotpal/ignite/internal/storage"
	"github.com/iamNilotpal/ignite/pkg/options"
	"go.uber.org/zap"
)

var (
	// ErrEngineClosed is returned when attempting to perform operations on a closed engine.
	ErrEngineClosed = errors.New("operation failed: cannot access closed engine")
)

// Engine represents the main database engine that coordinates all subsystems.
// It acts as the primary interface for database operations and manages the lifecycle
// of all internal components. The engine itself does not lock — callers needing
// concurrent-safe access use pkg/ignite, which wraps an Engine in a readers-writer
// discipline.
type Engine struct {
	options *options.Options   // options contains all configuration parameters for the engine and its subsystems.
	log     *zap.SugaredLogger // log provides structured logging capabilities throughout the engine.
	closed  atomic.Bool        // closed is an atomic boolean that tracks the engine's lifecycle state.
	storage *storage.Storage   // storage handles all persistent data operations and the key directory.

	compactStop chan struct{}
	compactDone sync.WaitGroup
}

// Config holds all the parameters needed to initialize a new Engine instance.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New creates and initializes a new Engine instance with the provided configuration,
// opening its Storage (which performs directory locking and segment replay) and, if
// CompactInterval is positive, starting a background compaction loop.
func New(ctx context.Context, config *Config) (*Engine, error) {
	s, err := storage.New(ctx, &storage.Config{
		Logger:  config.Logger,
		Options: config.Options,
	})
	if err != nil {
		return nil, err
	}

	e := &Engine{
		options:     config.Options,
		log:         config.Logger,
		storage:     s,
		compactStop: make(chan struct{}),
	}

	if config.Options.CompactInterval > 0 {
		e.startCompactionLoop()
	}

	return e, nil
}

// startCompactionLoop runs Compact on a timer until Close is called. Errors
// from a background compaction pass are logged, not propagated — a failed
// compaction leaves the store in its prior, still-correct state.
func (e *Engine) startCompactionLoop() {
	e.compactDone.Add(1)
	go func() {
		defer e.compactDone.Done()

		ticker := time.NewTicker(e.options.CompactInterval)
		defer ticker.Stop()

		for {
			select {
			case <-e.compactStop:
				return
			case <-ticker.C:
				if err := e.storage.Compact(); err != nil {
					e.log.Errorw("background compaction failed", "error", err)
				}
			}
		}
	}()
}

// Set stores value under key.
func (e *Engine) Set(key, value []byte) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.storage.Set(key, value)
}

// Get returns the current value for key.
func (e *Engine) Get(key []byte) ([]byte, bool, error) {
	if e.closed.Load() {
		return nil, false, ErrEngineClosed
	}
	return e.storage.Get(key)
}

// Delete removes key, succeeding silently if it has no live entry.
func (e *Engine) Delete(key []byte) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.storage.Delete(key)
}

// Keys returns a snapshot of every live key.
func (e *Engine) Keys() []string { return e.storage.Keys() }

// Len returns the number of live keys.
func (e *Engine) Len() int { return e.storage.Len() }

// IsEmpty reports whether the engine holds zero live keys.
func (e *Engine) IsEmpty() bool { return e.storage.IsEmpty() }

// ContainsKey reports whether key has a live entry.
func (e *Engine) ContainsKey(key []byte) bool { return e.storage.ContainsKey(key) }

// ForEach calls fn with every live key/value pair.
func (e *Engine) ForEach(fn func(key, value []byte) error) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.storage.ForEach(fn)
}

// Sync flushes the active segment's pending writes to stable storage.
func (e *Engine) Sync() error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.storage.Sync()
}

// Compact runs an on-demand compaction pass, independent of the background loop.
func (e *Engine) Compact() error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.storage.Compact()
}

// Close gracefully shuts down the engine and releases all associated resources.
// It stops the background compaction loop and waits for it to exit, then closes
// storage, which syncs the active segment before releasing the directory lock.
// It does not wait for other calls that are still in flight.
func (e *Engine) Close() error {
	// Use atomic compare-and-swap to transition from open (false) to closed (true).
	// This operation is atomic and thread-safe, ensuring only one goroutine
	// can successfully close the engine. The operation returns true if the
	// swap was successful (engine was open) or false if it failed (already closed).
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	close(e.compactStop)
	e.compactDone.Wait()

	// Perform the actual shutdown by closing the storage subsystem.
	return e.storage.Close()
}
