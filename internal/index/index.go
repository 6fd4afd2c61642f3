// Package index provides the in-memory hash table implementation for the ignite key-value store.
// This package embodies the core Bitcask architectural principle: maintain all keys in memory
// with minimal metadata while storing actual values on disk for optimal memory utilization.
//
// The design philosophy centers on memory efficiency as the primary constraint. Every byte
// stored in the RecordPointer structure directly impacts the system's ability to handle
// large datasets. The approach here prioritizes compact data structures over convenience
// features, recognizing that memory constraints often determine system scalability limits.
//
// The index enables O(1) key lookups through an in-memory hash table while keeping
// storage overhead minimal. This allows the system to handle datasets significantly
// larger than available RAM while maintaining excellent read performance characteristics.
//
// Put applies last-writer-wins by timestamp rather than by insertion order: an incoming
// entry only replaces an existing one when its timestamp is greater than or equal to the
// stored entry's. This keeps replay order-insensitive and lets a hint-derived entry
// (timestamp reconstructed as 0) always lose to the data-file entry it was derived from.
package index

import (
	"context"
	stdErrors "errors"

	"github.com/iamNilotpal/ignite/pkg/errors"
)

var (
	ErrIndexClosed = stdErrors.New("operation failed: cannot access closed index")
)

// New creates and initializes a new Index instance configured according to the
// provided parameters. The returned Index is immediately ready for concurrent
// use and includes optimizations like pre-allocated map capacity.
func New(ctx context.Context, config *Config) (*Index, error) {
	if config == nil || config.DataDir == "" || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "Index configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	return &Index{
		log:           config.Logger,
		dataDir:       config.DataDir,
		recordPointer: make(map[string]*RecordPointer, 2046),
	}, nil
}

// Get returns the pointer stored for key, and whether one exists.
func (idx *Index) Get(key string) (*RecordPointer, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ptr, ok := idx.recordPointer[key]
	return ptr, ok
}

// Put records ptr for key, applying last-writer-wins by timestamp: if an
// entry for key already exists with a timestamp greater than ptr's, the
// existing entry is kept and Put returns it instead. Put returns the entry
// that ends up stored for key.
func (idx *Index) Put(key string, ptr *RecordPointer) *RecordPointer {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if existing, ok := idx.recordPointer[key]; ok {
		if existing.Timestamp > ptr.Timestamp {
			return existing
		}
	}

	idx.recordPointer[key] = ptr
	return ptr
}

// Remove deletes any entry for key. It is a no-op if key is absent.
func (idx *Index) Remove(key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.recordPointer, key)
}

// Keys returns a snapshot of every key currently present in the index. The
// order is unspecified.
func (idx *Index) Keys() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	keys := make([]string, 0, len(idx.recordPointer))
	for k := range idx.recordPointer {
		keys = append(keys, k)
	}
	return keys
}

// ForEach calls fn once for every key/pointer pair currently in the index.
// If fn returns an error, iteration stops and that error is returned.
// Mutating the index from within fn is not supported; ForEach iterates a
// snapshot of keys taken under a read lock.
func (idx *Index) ForEach(fn func(key string, ptr *RecordPointer) error) error {
	idx.mu.RLock()
	snapshot := make(map[string]*RecordPointer, len(idx.recordPointer))
	for k, v := range idx.recordPointer {
		snapshot[k] = v
	}
	idx.mu.RUnlock()

	for k, v := range snapshot {
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of keys currently in the index.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.recordPointer)
}

// ContainsKey reports whether key has an entry in the index.
func (idx *Index) ContainsKey(key string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.recordPointer[key]
	return ok
}

// Close gracefully shuts down the Index, cleaning up resources and ensuring
// that the index cannot be used after closure.
func (idx *Index) Close() error {
	// Use atomic compare-and-swap to safely check and update the closed state.
	if !idx.closed.CompareAndSwap(false, true) {
		return ErrIndexClosed
	}

	idx.log.Infow("Closing index system")

	idx.mu.Lock()
	defer idx.mu.Unlock()

	// Clear the record pointer map to release all memory associated with
	// the index entries.
	clear(idx.recordPointer)
	idx.recordPointer = nil

	idx.log.Infow("Index system closed successfully")
	return nil
}
