package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/ignite/internal/segment"
	"github.com/iamNilotpal/ignite/internal/storage"
	"github.com/iamNilotpal/ignite/pkg/logger"
	"github.com/iamNilotpal/ignite/pkg/options"
)

func newOpts(dir string, optFns ...options.OptionFunc) *options.Options {
	opts := options.NewDefaultOptions()
	options.WithDataDir(dir)(&opts)
	for _, fn := range optFns {
		fn(&opts)
	}
	return &opts
}

func openStorage(t *testing.T, dir string, optFns ...options.OptionFunc) *storage.Storage {
	t.Helper()
	s, err := storage.New(context.Background(), &storage.Config{
		Options: newOpts(dir, optFns...),
		Logger:  logger.Nop(),
	})
	require.NoError(t, err)
	return s
}

func TestSetGetDeleteLifecycle(t *testing.T) {
	dir := t.TempDir()
	s := openStorage(t, dir)
	defer s.Close()

	require.Equal(t, 0, s.Len())

	_, ok, err := s.Get([]byte("hello"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set([]byte("hello"), []byte("world")))
	require.Equal(t, 1, s.Len())
	require.True(t, s.ContainsKey([]byte("hello")))

	v, ok, err := s.Get([]byte("hello"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("world"), v)

	require.NoError(t, s.Set([]byte("hello"), []byte("underworld")))
	v, ok, err = s.Get([]byte("hello"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("underworld"), v)

	require.NoError(t, s.Delete([]byte("hello")))
	_, ok, err = s.Get([]byte("hello"))
	require.NoError(t, err)
	require.False(t, ok)

	// Second delete is a no-op, not an error.
	require.NoError(t, s.Delete([]byte("hello")))
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s := openStorage(t, dir)
	require.NoError(t, s.Set([]byte("persistence"), []byte("check")))
	require.NoError(t, s.Set([]byte("removed"), []byte("entry")))
	require.NoError(t, s.Delete([]byte("removed")))
	require.NoError(t, s.Close())

	s2 := openStorage(t, dir)
	defer s2.Close()

	v, ok, err := s2.Get([]byte("persistence"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("check"), v)

	_, ok, err = s2.Get([]byte("removed"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSecondOpenIsLocked(t *testing.T) {
	dir := t.TempDir()
	s := openStorage(t, dir)
	defer s.Close()

	_, err := storage.New(context.Background(), &storage.Config{
		Options: newOpts(dir),
		Logger:  logger.Nop(),
	})
	require.Error(t, err)
}

func TestRotatesSegmentsOnSize(t *testing.T) {
	dir := t.TempDir()
	s := openStorage(t, dir, options.WithMaxLogFileSize(40))
	for i := 0; i <= 10; i++ {
		require.NoError(t, s.Set([]byte("version"), []byte{byte(i)}))
	}
	require.NoError(t, s.Close())

	s2 := openStorage(t, dir, options.WithMaxLogFileSize(40))
	defer s2.Close()
	v, ok, err := s2.Get([]byte("version"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{10}, v)
}

func TestForEachVisitsLiveKeysOnly(t *testing.T) {
	dir := t.TempDir()
	s := openStorage(t, dir)
	defer s.Close()

	require.NoError(t, s.Set([]byte("a"), []byte("1")))
	require.NoError(t, s.Set([]byte("b"), []byte("2")))
	require.NoError(t, s.Delete([]byte("b")))

	seen := map[string]string{}
	err := s.ForEach(func(key, value []byte) error {
		seen[string(key)] = string(value)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "1"}, seen)
}

func TestCompactPreservesLiveValues(t *testing.T) {
	dir := t.TempDir()
	s := openStorage(t, dir, options.WithMaxLogFileSize(40))

	for i := 0; i < 20; i++ {
		require.NoError(t, s.Set([]byte("k"), []byte{byte(i)}))
	}
	require.NoError(t, s.Set([]byte("stable"), []byte("value")))
	require.NoError(t, s.Delete([]byte("stable")))

	require.NoError(t, s.Compact())

	v, ok, err := s.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{19}, v)

	_, ok, err = s.Get([]byte("stable"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Close())

	s2 := openStorage(t, dir, options.WithMaxLogFileSize(40))
	defer s2.Close()
	v, ok, err = s2.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{19}, v)
}

func TestMaxKeyAndValueSizeBounds(t *testing.T) {
	dir := t.TempDir()
	s := openStorage(t, dir, options.WithMaxKeySize(2), options.WithMaxValueSize(2))
	defer s.Close()

	require.Error(t, s.Set([]byte("toolong"), []byte("v")))
	require.Error(t, s.Set([]byte("k"), []byte("toolong")))
	require.NoError(t, s.Set([]byte("ok"), []byte("ok")))
}

func TestCompactReducesSegmentCountForManyKeys(t *testing.T) {
	dir := t.TempDir()
	segDir := filepath.Join(dir, "segments")
	s := openStorage(t, dir, options.WithMaxLogFileSize(512))

	for i := 0; i < 1000; i++ {
		key := []byte{byte(i >> 8), byte(i)}
		require.NoError(t, s.Set(key, []byte("stale")))
		require.NoError(t, s.Set(key, []byte("value")))
	}

	before, err := filepath.Glob(filepath.Join(segDir, "*"+segment.DataSuffix))
	require.NoError(t, err)

	require.NoError(t, s.Compact())

	after, err := filepath.Glob(filepath.Join(segDir, "*"+segment.DataSuffix))
	require.NoError(t, err)
	require.Less(t, len(after), len(before))

	for i := 0; i < 1000; i++ {
		key := []byte{byte(i >> 8), byte(i)}
		v, ok, err := s.Get(key)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, []byte("value"), v)
	}

	require.NoError(t, s.Close())
}

func TestReplayFromHintMatchesDataOnlyReplay(t *testing.T) {
	dir := t.TempDir()
	segDir := filepath.Join(dir, "segments")
	s := openStorage(t, dir, options.WithMaxLogFileSize(64))

	for i := 0; i < 30; i++ {
		require.NoError(t, s.Set([]byte("k"), []byte{byte(i)}))
	}
	require.NoError(t, s.Set([]byte("other"), []byte("value")))
	require.NoError(t, s.Compact())
	require.NoError(t, s.Close())

	hints, err := filepath.Glob(filepath.Join(segDir, "*"+segment.HintSuffix))
	require.NoError(t, err)
	require.NotEmpty(t, hints, "compaction should have produced hint files")

	s2 := openStorage(t, dir, options.WithMaxLogFileSize(64))
	defer s2.Close()

	v, ok, err := s2.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{29}, v)

	v, ok, err = s2.Get([]byte("other"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("value"), v)
}
