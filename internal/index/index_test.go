package index_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/ignite/internal/index"
	"github.com/iamNilotpal/ignite/pkg/logger"
)

func newIndex(t *testing.T) *index.Index {
	t.Helper()
	idx, err := index.New(context.Background(), &index.Config{
		DataDir: t.TempDir(),
		Logger:  logger.Nop(),
	})
	require.NoError(t, err)
	return idx
}

func TestPutGetRoundTrip(t *testing.T) {
	idx := newIndex(t)

	ptr := &index.RecordPointer{Key: "foo", SegmentID: 1, Offset: 10, Timestamp: 5}
	idx.Put("foo", ptr)

	got, ok := idx.Get("foo")
	require.True(t, ok)
	require.Equal(t, ptr, got)
}

func TestPutLastWriterWinsByTimestamp(t *testing.T) {
	idx := newIndex(t)

	idx.Put("foo", &index.RecordPointer{Timestamp: 10, Offset: 1})
	idx.Put("foo", &index.RecordPointer{Timestamp: 5, Offset: 2})

	got, ok := idx.Get("foo")
	require.True(t, ok)
	require.Equal(t, int64(10), got.Timestamp)
	require.Equal(t, int64(1), got.Offset)
}

func TestPutEqualTimestampTakesIncoming(t *testing.T) {
	idx := newIndex(t)

	idx.Put("foo", &index.RecordPointer{Timestamp: 5, Offset: 1})
	idx.Put("foo", &index.RecordPointer{Timestamp: 5, Offset: 2})

	got, _ := idx.Get("foo")
	require.Equal(t, int64(2), got.Offset)
}

func TestRemoveAndContainsKey(t *testing.T) {
	idx := newIndex(t)

	idx.Put("foo", &index.RecordPointer{Timestamp: 1})
	require.True(t, idx.ContainsKey("foo"))

	idx.Remove("foo")
	require.False(t, idx.ContainsKey("foo"))

	_, ok := idx.Get("foo")
	require.False(t, ok)
}

func TestKeysAndLen(t *testing.T) {
	idx := newIndex(t)
	idx.Put("a", &index.RecordPointer{Timestamp: 1})
	idx.Put("b", &index.RecordPointer{Timestamp: 1})

	require.Equal(t, 2, idx.Len())
	require.ElementsMatch(t, []string{"a", "b"}, idx.Keys())
}

func TestForEach(t *testing.T) {
	idx := newIndex(t)
	idx.Put("a", &index.RecordPointer{Timestamp: 1})
	idx.Put("b", &index.RecordPointer{Timestamp: 1})

	seen := map[string]bool{}
	err := idx.ForEach(func(key string, ptr *index.RecordPointer) error {
		seen[key] = true
		return nil
	})
	require.NoError(t, err)
	require.Len(t, seen, 2)
}

func TestSecondCloseReturnsErrIndexClosed(t *testing.T) {
	idx := newIndex(t)
	require.NoError(t, idx.Close())
	require.ErrorIs(t, idx.Close(), index.ErrIndexClosed)
}
