package segment_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/ignite/internal/format"
	"github.com/iamNilotpal/ignite/internal/segment"
)

func TestFileNamePadding(t *testing.T) {
	require.Equal(t, "000001.data", segment.FileName(1, segment.DataSuffix))
	require.Equal(t, "000042.hint", segment.FileName(42, segment.HintSuffix))
	require.Equal(t, "1234567.data", segment.FileName(1234567, segment.DataSuffix))
}

func TestParseID(t *testing.T) {
	id, ok := segment.ParseID("/x/y/000007.data")
	require.True(t, ok)
	require.Equal(t, uint64(7), id)

	_, ok = segment.ParseID("/x/y/LOCK")
	require.False(t, ok)
}

func TestDataFileWriteReadIterate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, segment.FileName(1, segment.DataSuffix))

	df, err := segment.OpenData(path, true)
	require.NoError(t, err)

	r1, err := df.Write([]byte("a"), []byte("1"))
	require.NoError(t, err)
	require.Equal(t, uint64(1), r1.FileID)

	r2, err := df.Write([]byte("b"), []byte("2"))
	require.NoError(t, err)
	require.Greater(t, r2.Offset, r1.Offset)

	got, err := df.Read(r1.Offset)
	require.NoError(t, err)
	require.Equal(t, []byte("a"), got.Key)
	require.Equal(t, []byte("1"), got.Value)

	var seen []string
	err = df.Iterate(func(rec *format.DataRecord) (bool, error) {
		seen = append(seen, string(rec.Key))
		return true, nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, seen)

	require.NoError(t, df.Close())
}

func TestDataFileCloseRemovesEmptyWritable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, segment.FileName(2, segment.DataSuffix))

	df, err := segment.OpenData(path, true)
	require.NoError(t, err)
	require.NoError(t, df.Close())

	_, err = segment.OpenData(path, false)
	require.Error(t, err)
}

func TestHintFileWriteIterate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, segment.FileName(3, segment.HintSuffix))

	hf, err := segment.OpenHint(path, true)
	require.NoError(t, err)

	require.NoError(t, hf.Write([]byte("k1"), 0, format.HeaderSize+4))
	require.NoError(t, hf.Write([]byte("k2"), format.HeaderSize+4, format.HeaderSize+4))

	var offsets []uint64
	err = hf.Iterate(func(rec *format.HintRecord) (bool, error) {
		offsets = append(offsets, rec.DataOffset())
		return true, nil
	})
	require.NoError(t, err)
	require.Equal(t, []uint64{0, uint64(format.HeaderSize + 4)}, offsets)

	require.NoError(t, hf.Close())
}

func TestCopyBytesFrom(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, segment.FileName(4, segment.DataSuffix))
	dstPath := filepath.Join(dir, segment.FileName(5, segment.DataSuffix))

	src, err := segment.OpenData(srcPath, true)
	require.NoError(t, err)
	rec, err := src.Write([]byte("key"), []byte("value"))
	require.NoError(t, err)

	dst, err := segment.OpenData(dstPath, true)
	require.NoError(t, err)

	newOffset, err := dst.CopyBytesFrom(src, rec.Offset, rec.Size())
	require.NoError(t, err)
	require.Equal(t, int64(0), newOffset)

	got, err := dst.Read(newOffset)
	require.NoError(t, err)
	require.Equal(t, []byte("key"), got.Key)
	require.Equal(t, []byte("value"), got.Value)
	require.Equal(t, rec.Header.CRC(), got.Header.CRC())
	require.Equal(t, rec.Header.Timestamp(), got.Header.Timestamp())
}
