// Package lock implements the directory lock that prevents two engine
// instances from opening the same data directory concurrently. Grounded in
// original_source/srv/src/store/lockfile.rs's Lockfile: an exclusively
// created LOCK file whose mere existence is the lock, released by deleting
// it.
package lock

import (
	stdErrors "errors"
	"os"
	"path/filepath"
)

// FileName is the name of the lock file created inside a data directory.
const FileName = "LOCK"

// ErrAlreadyLocked is returned by Acquire when another instance already
// holds the directory's lock.
var ErrAlreadyLocked = stdErrors.New("lock: directory is already locked")

// Lock represents ownership of a data directory's LOCK file. The zero value
// is not usable; obtain one via Acquire.
type Lock struct {
	path   string
	handle *os.File
}

// Acquire creates dir (and any missing parents) and exclusively creates its
// LOCK file. It returns ErrAlreadyLocked if the file already exists.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrAlreadyLocked
		}
		return nil, err
	}

	return &Lock{path: path, handle: f}, nil
}

// Path returns the path of the underlying LOCK file: the directory given to
// Acquire joined with FileName.
func (l *Lock) Path() string { return l.path }

// Release closes and removes the LOCK file. It is safe to call at most
// once; a second call is a no-op error from the filesystem, not a panic.
func (l *Lock) Release() error {
	closeErr := l.handle.Close()
	if err := os.Remove(l.path); err != nil && closeErr == nil {
		return err
	}
	return closeErr
}
