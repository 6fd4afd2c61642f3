package lock_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/ignite/internal/lock"
)

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()

	l, err := lock.Acquire(dir)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, lock.FileName))

	require.NoError(t, l.Release())
	require.NoFileExists(t, filepath.Join(dir, lock.FileName))
}

func TestAcquireRejectsSecondHolder(t *testing.T) {
	dir := t.TempDir()

	l, err := lock.Acquire(dir)
	require.NoError(t, err)
	defer l.Release()

	_, err = lock.Acquire(dir)
	require.ErrorIs(t, err, lock.ErrAlreadyLocked)
}

func TestAcquireCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	l, err := lock.Acquire(dir)
	require.NoError(t, err)
	require.NoError(t, l.Release())
}
