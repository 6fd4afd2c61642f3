package storage

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/iamNilotpal/ignite/internal/index"
	"github.com/iamNilotpal/ignite/internal/lock"
	"github.com/iamNilotpal/ignite/internal/segment"
	"github.com/iamNilotpal/ignite/pkg/options"
)

// Storage is the disk engine: it owns the directory lock, every known
// segment file (exactly one of which is the writable active segment), the
// in-memory key directory, and the options that bound its behavior.
//
// Storage is not safe for concurrent use by multiple goroutines on its own —
// pkg/ignite wraps it with a readers-writer lock to provide that discipline,
// matching how the original single-threaded DiskStorage is wrapped by an
// Arc<RwLock<..>> one layer up.
type Storage struct {
	dir     string             // directory holding this store's segment and lock files.
	lock    *lock.Lock         // held for the lifetime of the open store.
	index   *index.Index       // in-memory key directory.
	options *options.Options   // configuration parameters controlling behavior.
	log     *zap.SugaredLogger // structured logger for operational visibility.

	dataFiles       map[uint64]*segment.DataFile // every known data segment, keyed by id.
	activeSegmentID uint64                       // id of the currently writable segment.
	closed          atomic.Bool
}

// Config encapsulates the configuration parameters required to open a Storage.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}
