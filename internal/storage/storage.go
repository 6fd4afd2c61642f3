// Package storage provides a comprehensive file-based storage mechanism for managing segments of data
// in high-throughput, append-only scenarios.
//
// This package was designed to solve the fundamental challenge of efficiently storing streaming data
// that arrives continuously and needs to be persisted reliably. Think of it as a specialized foundation
// for systems like write-ahead logs, event sourcing platforms, or time-series databases where data
// flows in continuously and must be stored in an organized, retrievable manner.
//
// Core Architecture:
//
// The storage system operates on the concept of "segments" - individual files that contain chunks
// of data. When a segment reaches its configured size limit, the system automatically creates a new
// segment and continues writing to it. This segmentation strategy provides several key benefits:
// it keeps individual files at manageable sizes, enables parallel processing of historical data,
// facilitates efficient cleanup of old data, and provides natural boundaries for backup operations.
//
// The storage engine maintains exactly one active segment file at any given time. This active segment
// is where all new data gets appended. Once this segment reaches its size threshold, the system
// seamlessly transitions to a new segment, ensuring continuous write availability with minimal latency.
//
// Initialization and Recovery:
//
// When the storage system starts up, it performs an intelligent recovery process: it opens every
// existing data segment read-only, rebuilds the key directory from each one's hint file when
// present (falling back to scanning the data file itself), and then always allocates a brand new
// active segment one id past the highest one found — so a freshly opened store never resumes
// appending into a segment that existed before the open, matching
// original_source/srv/src/store/storage.rs's DiskStorage::open_with_options.
package storage

import (
	"context"
	stdErrors "errors"
	"path/filepath"
	"sort"

	"go.uber.org/multierr"

	"github.com/iamNilotpal/ignite/internal/format"
	"github.com/iamNilotpal/ignite/internal/index"
	"github.com/iamNilotpal/ignite/internal/lock"
	"github.com/iamNilotpal/ignite/internal/segment"
	"github.com/iamNilotpal/ignite/pkg/errors"
	"github.com/iamNilotpal/ignite/pkg/filesys"
)

var (
	ErrSegmentClosed = stdErrors.New("operation failed: cannot access closed segment")

	// ErrKeyTooLarge and ErrValueTooLarge are returned by Set when the
	// configured MaxKeySize/MaxValueSize bound is exceeded.
	ErrKeyTooLarge   = stdErrors.New("storage: key exceeds configured maximum size")
	ErrValueTooLarge = stdErrors.New("storage: value exceeds configured maximum size")
)

// tombstone is the reserved value written by Delete. Any data record whose
// value equals this sentinel is a logical deletion rather than live data.
var tombstone = []byte("\x00__ignite_tombstone__\x00")

// New opens (creating if necessary) the store directory described by
// config.Options, replays its segments into a fresh key directory, and
// returns a ready-to-use Storage holding an exclusive directory lock.
func New(ctx context.Context, config *Config) (*Storage, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "Storage configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	opts := config.Options
	log := config.Logger

	dir := filepath.Join(opts.DataDir, opts.SegmentOptions.Directory)
	log.Infow("Initializing storage system", "dataDir", dir)

	if err := filesys.CreateDir(dir, 0755, true); err != nil {
		return nil, errors.NewStorageError(
			err, errors.ErrorCodeIO, "Failed to create segment directory",
		).WithPath(dir)
	}

	l, err := lock.Acquire(opts.DataDir)
	if err != nil {
		if stdErrors.Is(err, lock.ErrAlreadyLocked) {
			return nil, errors.NewStorageError(
				err, errors.ErrorCodeAlreadyLocked, "Data directory is already locked by another instance",
			).WithPath(opts.DataDir)
		}
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to acquire directory lock").
			WithPath(opts.DataDir)
	}

	idx, err := index.New(ctx, &index.Config{DataDir: dir, Logger: log})
	if err != nil {
		l.Release()
		return nil, err
	}

	s := &Storage{
		dir:       dir,
		lock:      l,
		index:     idx,
		options:   opts,
		log:       log,
		dataFiles: make(map[uint64]*segment.DataFile),
	}

	if err := s.openDataFiles(); err != nil {
		s.teardown()
		return nil, err
	}

	if err := s.buildKeydir(); err != nil {
		s.teardown()
		return nil, err
	}

	if err := s.newActiveSegment(0); err != nil {
		s.teardown()
		return nil, err
	}

	log.Infow("Storage system initialized successfully", "activeSegmentID", s.activeSegmentID, "keys", s.index.Len())
	return s, nil
}

func (s *Storage) teardown() {
	for _, df := range s.dataFiles {
		df.Close()
	}
	s.index.Close()
	s.lock.Release()
}

// openDataFiles opens every *.data file in the store directory read-only.
func (s *Storage) openDataFiles() error {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+segment.DataSuffix))
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to list segment directory").
			WithPath(s.dir)
	}

	for _, path := range matches {
		df, err := segment.OpenData(path, false)
		if err != nil {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to open segment file").
				WithPath(path)
		}
		s.dataFiles[df.ID()] = df
	}

	s.log.Infow("discovered immutable data files", "count", len(s.dataFiles))
	return nil
}

// buildKeydir replays every discovered data file into the key directory, in
// ascending id order, preferring a sibling hint file when one exists.
func (s *Storage) buildKeydir() error {
	ids := make([]uint64, 0, len(s.dataFiles))
	for id := range s.dataFiles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		hintPath := segment.HintFilePath(s.dir, id)
		if segment.HintExists(s.dir, id) {
			if err := s.buildKeydirFromHint(id, hintPath); err != nil {
				return err
			}
		} else if err := s.buildKeydirFromData(id); err != nil {
			return err
		}
	}

	s.log.Infow("build keydir done", "keys", s.index.Len())
	return nil
}

func (s *Storage) buildKeydirFromHint(id uint64, path string) error {
	hf, err := segment.OpenHint(path, false)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to open hint file").WithPath(path)
	}
	defer hf.Close()

	return hf.Iterate(func(rec *format.HintRecord) (bool, error) {
		s.index.Put(string(rec.Key), &index.RecordPointer{
			Key:       string(rec.Key),
			SegmentID: id,
			Offset:    int64(rec.DataOffset()),
			EntrySize: uint32(rec.DataSize()),
			ValueSize: rec.Header.ValueSize(),
			Timestamp: 0,
		})
		return true, nil
	})
}

func (s *Storage) buildKeydirFromData(id uint64) error {
	df := s.dataFiles[id]
	return df.Iterate(func(rec *format.DataRecord) (bool, error) {
		if string(rec.Value) == string(tombstone) {
			s.index.Remove(string(rec.Key))
			return true, nil
		}

		s.index.Put(string(rec.Key), &index.RecordPointer{
			Key:       string(rec.Key),
			SegmentID: rec.FileID,
			Offset:    rec.Offset,
			EntrySize: uint32(rec.Size()),
			ValueSize: uint32(len(rec.Value)),
			Timestamp: int64(rec.Timestamp()),
		})
		return true, nil
	})
}

// newActiveSegment allocates a new active (writable) data segment. If id is
// 0, the next id is one past the highest known segment id (or 1 if none
// exist yet).
func (s *Storage) newActiveSegment(id uint64) error {
	if id == 0 {
		var max uint64
		for existing := range s.dataFiles {
			if existing > max {
				max = existing
			}
		}
		id = max + 1
	}

	path := segment.DataFilePath(s.dir, id)
	writable, err := segment.OpenData(path, true)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to create active segment").WithPath(path)
	}

	s.dataFiles[id] = writable
	s.activeSegmentID = id

	s.log.Infow("new active segment", "segmentID", id)
	return nil
}

func (s *Storage) activeDataFile() *segment.DataFile {
	return s.dataFiles[s.activeSegmentID]
}

// write appends key/value to the active segment, rotating to a new segment
// first if the active one has grown past its configured size limit.
func (s *Storage) write(key, value []byte) (*format.DataRecord, error) {
	active := s.activeDataFile()

	size, err := active.Size()
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to stat active segment")
	}

	if uint64(size) > s.options.MaxLogFileSize {
		s.log.Infow("active segment exceeds max size, rotating", "segmentID", s.activeSegmentID, "size", size)
		active.Sync()
		if err := s.newActiveSegment(0); err != nil {
			return nil, err
		}
		active = s.activeDataFile()
	}

	rec, err := active.Write(key, value)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to write data record")
	}

	if s.options.Sync {
		if err := active.Sync(); err != nil {
			return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to sync active segment")
		}
	}

	return rec, nil
}

// Set stores value under key, appending a new data record and updating the
// key directory to point at it.
func (s *Storage) Set(key, value []byte) error {
	if s.closed.Load() {
		return ErrSegmentClosed
	}

	if s.options.MaxKeySize > 0 && uint64(len(key)) > s.options.MaxKeySize {
		return errors.NewValidationError(ErrKeyTooLarge, errors.ErrorCodeKeyTooLarge, "key exceeds maximum size").
			WithField("key").WithRule("maxKeySize").WithExpected(s.options.MaxKeySize).WithProvided(len(key))
	}
	if s.options.MaxValueSize > 0 && uint64(len(value)) > s.options.MaxValueSize {
		return errors.NewValidationError(ErrValueTooLarge, errors.ErrorCodeValueTooLarge, "value exceeds maximum size").
			WithField("value").WithRule("maxValueSize").WithExpected(s.options.MaxValueSize).WithProvided(len(value))
	}

	rec, err := s.write(key, value)
	if err != nil {
		return err
	}

	s.index.Put(string(key), &index.RecordPointer{
		Key:       string(key),
		SegmentID: rec.FileID,
		Offset:    rec.Offset,
		EntrySize: uint32(rec.Size()),
		ValueSize: uint32(len(value)),
		Timestamp: int64(rec.Timestamp()),
	})

	return nil
}

// Get returns the current value for key, or (nil, false) if key has no live entry.
func (s *Storage) Get(key []byte) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrSegmentClosed
	}

	ptr, ok := s.index.Get(string(key))
	if !ok {
		return nil, false, nil
	}

	df, ok := s.dataFiles[ptr.SegmentID]
	if !ok {
		return nil, false, errors.NewIndexError(
			nil, errors.ErrorCodeIndexInvalidSegmentID, "key directory points at an unknown segment",
		).WithKey(string(key)).WithSegmentID(ptr.SegmentID)
	}

	rec, err := df.Read(ptr.Offset)
	if err != nil {
		return nil, false, errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to read data record").
			WithSegmentID(ptr.SegmentID).WithOffset(ptr.Offset)
	}
	if rec == nil {
		return nil, false, nil
	}

	return rec.Value, true, nil
}

// Delete removes key. It is a no-op if key has no live entry.
func (s *Storage) Delete(key []byte) error {
	if s.closed.Load() {
		return ErrSegmentClosed
	}

	if !s.index.ContainsKey(string(key)) {
		return nil
	}

	if _, err := s.write(key, tombstone); err != nil {
		return err
	}
	s.index.Remove(string(key))
	return nil
}

// Keys returns a snapshot of every live key.
func (s *Storage) Keys() []string {
	return s.index.Keys()
}

// Len returns the number of live keys.
func (s *Storage) Len() int { return s.index.Len() }

// IsEmpty reports whether the store holds zero live keys.
func (s *Storage) IsEmpty() bool { return s.index.Len() == 0 }

// ContainsKey reports whether key has a live entry.
func (s *Storage) ContainsKey(key []byte) bool { return s.index.ContainsKey(string(key)) }

// ForEach calls fn with every live key/value pair. Iteration stops if fn
// returns an error.
func (s *Storage) ForEach(fn func(key, value []byte) error) error {
	return s.index.ForEach(func(key string, ptr *index.RecordPointer) error {
		df, ok := s.dataFiles[ptr.SegmentID]
		if !ok {
			return errors.NewIndexError(
				nil, errors.ErrorCodeIndexInvalidSegmentID, "key directory points at an unknown segment",
			).WithKey(key).WithSegmentID(ptr.SegmentID)
		}

		rec, err := df.Read(ptr.Offset)
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}
		return fn([]byte(key), rec.Value)
	})
}

// Sync flushes the active segment's pending writes to stable storage.
func (s *Storage) Sync() error {
	if active := s.activeDataFile(); active != nil {
		return active.Sync()
	}
	return nil
}

// Close flushes pending writes, closes every segment handle, and releases
// the directory lock. Close is idempotent; a second call returns nil.
func (s *Storage) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	var closeErr error
	closeErr = multierr.Append(closeErr, s.Sync())

	for _, df := range s.dataFiles {
		closeErr = multierr.Append(closeErr, df.Close())
	}

	closeErr = multierr.Append(closeErr, s.index.Close())
	closeErr = multierr.Append(closeErr, s.lock.Release())

	return closeErr
}
