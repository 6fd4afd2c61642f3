// Package options provides data structures and functions for configuring
// the Ignite database. It defines various parameters that control Ignite's
// storage behavior, performance, and maintenance operations, such as
// directory paths, segment characteristics, and compaction intervals.
package options

import (
	"strings"
	"time"
)

// Defines configurable parameters for each segment.
// It provides fine-grained control over segment behavior, performance, and resource utilization.
type segmentOptions struct {
	// Records the configured segment size. The storage engine does not read
	// this field; rotation is driven by Options.MaxLogFileSize, which
	// WithSegmentSize and WithMaxLogFileSize set together with this one.
	//
	//  - Default: 1GB
	//  - Maximum: 4GB
	//  - Minimum: 512MB
	Size uint64 `json:"maxSegmentSize"`

	// Specifies where segment files are stored.
	//
	// Default: "/var/lib/ignitedb/segments"
	Directory string `json:"directory"`

	// Prefix is retained for backward-compatible configuration shape but no
	// longer appears in segment filenames: segments are named by their
	// numeric id alone (e.g. "000001.data"), per internal/segment.
	Prefix string `json:"prefix"`
}

// Defines the configuration parameters for Ignite DB.
// It provides control over storage, performance and maintenance aspects.
type Options struct {
	// Specifies the base path where files will be stored.
	//
	// Default: "/var/lib/ignitedb"
	DataDir string `json:"dataDir"`

	// Defines how often the compaction process runs to
	// merge old segments. More frequent compaction means more
	// optimal storage but higher overhead. Zero disables background
	// compaction; compaction then runs only when Compact is called.
	//
	// Default: 0
	CompactInterval time.Duration `json:"compactInterval"`

	// Configures segment management including size limits and naming convention.
	SegmentOptions *segmentOptions `json:"segmentOptions"`

	// MaxLogFileSize is the size, in bytes, at which the active data segment
	// is rotated to a new one. Distinct from SegmentOptions.Size: this is
	// the threshold the storage engine actually checks on every write.
	//
	// Default: 1GB
	MaxLogFileSize uint64 `json:"maxLogFileSize"`

	// Sync controls whether every write is followed by an fsync of the
	// active segment file. Disabled by default for throughput; enable it
	// for durability guarantees stronger than "survives process crash".
	//
	// Default: false
	Sync bool `json:"sync"`

	// MaxKeySize bounds the size, in bytes, of any key accepted by Set.
	// Zero means unbounded.
	//
	// Default: 0 (unbounded)
	MaxKeySize uint64 `json:"maxKeySize"`

	// MaxValueSize bounds the size, in bytes, of any value accepted by Set.
	// Zero means unbounded.
	//
	// Default: 0 (unbounded)
	MaxValueSize uint64 `json:"maxValueSize"`
}

// OptionFunc is a function type that modifies the Ignite system's configuration.
type OptionFunc func(*Options)

// Resets DataDir, SegmentOptions and CompactInterval to their default values.
// The other fields of the Options struct are left unchanged.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		opts := NewDefaultOptions()
		o.DataDir = opts.DataDir
		o.SegmentOptions = opts.SegmentOptions
		o.CompactInterval = opts.CompactInterval
	}
}

// Sets the primary data directory for Ignite.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// Sets the interval at which Ignite performs compaction operations. An
// interval not longer than DefaultCompactInterval is ignored and leaves the
// current value unchanged.
func WithCompactInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval > DefaultCompactInterval {
			o.CompactInterval = interval
		}
	}
}

// Sets the directory specifically for storing segment files.
func WithSegmentDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.SegmentOptions.Directory = directory
		}
	}
}

// Sets the file name prefix for segment files.
func WithSegmentPrefix(prefix string) OptionFunc {
	return func(o *Options) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" {
			o.SegmentOptions.Prefix = prefix
		}
	}
}

// Sets the maximum size of individual segment files.
func WithSegmentSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size > MinSegmentSize && size < MaxSegmentSize {
			o.SegmentOptions.Size = size
			o.MaxLogFileSize = size
		}
	}
}

// WithMaxLogFileSize sets the byte threshold at which the active segment
// rotates. Unlike WithSegmentSize, which ignores sizes outside
// (MinSegmentSize, MaxSegmentSize), it accepts any non-zero size, which is
// useful for tests that need small segments.
func WithMaxLogFileSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.MaxLogFileSize = size
			o.SegmentOptions.Size = size
		}
	}
}

// WithSync enables or disables fsync-after-every-write durability.
func WithSync(sync bool) OptionFunc {
	return func(o *Options) { o.Sync = sync }
}

// WithMaxKeySize bounds accepted key sizes. A size of 0 means unbounded.
func WithMaxKeySize(size uint64) OptionFunc {
	return func(o *Options) { o.MaxKeySize = size }
}

// WithMaxValueSize bounds accepted value sizes. A size of 0 means unbounded.
func WithMaxValueSize(size uint64) OptionFunc {
	return func(o *Options) { o.MaxValueSize = size }
}
