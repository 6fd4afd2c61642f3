package format_test

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/ignite/internal/format"
)

func TestDataHeaderRoundTrip(t *testing.T) {
	cases := []struct {
		crc, ts, ksz, vsz uint32
	}{
		{10, 10, 10, 10},
		{0, 0, 0, 0},
		{10000, 10000, 10000, 10000},
		{0xFFFFFFFF, 1, 2, 3},
	}

	for _, c := range cases {
		h := format.NewDataHeader(c.crc, c.ts, c.ksz, c.vsz)
		var raw [format.HeaderSize]byte
		copy(raw[:], h[:])

		got := format.DataHeader(raw)
		if diff := cmp.Diff(h, got); diff != "" {
			t.Fatalf("header round-trip mismatch (-want +got):\n%s", diff)
		}
		require.Equal(t, c.crc, got.CRC())
		require.Equal(t, c.ts, got.Timestamp())
		require.Equal(t, c.ksz, got.KeySize())
		require.Equal(t, c.vsz, got.ValueSize())
	}
}

func TestWriteReadDataRecord(t *testing.T) {
	var buf bytes.Buffer
	offset, err := format.WriteDataRecord(&seekWriter{Buffer: &buf}, []byte("hello"), []byte("world"))
	require.NoError(t, err)
	require.Equal(t, int64(0), offset)

	rec, err := format.ReadDataRecord(bytes.NewReader(buf.Bytes()), 0)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, []byte("hello"), rec.Key)
	require.Equal(t, []byte("world"), rec.Value)
	require.Equal(t, int64(format.HeaderSize+10), rec.Size())
}

func TestReadDataRecordAtEOF(t *testing.T) {
	rec, err := format.ReadDataRecord(bytes.NewReader(nil), 0)
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestReadDataRecordTruncatedPayload(t *testing.T) {
	header := format.NewDataHeader(0, 1, 5, 5)
	raw := append(append([]byte{}, header[:]...), []byte("hel")...) // short payload

	_, err := format.ReadDataRecord(bytes.NewReader(raw), 0)
	require.ErrorIs(t, err, format.ErrDeserialize)
}

func TestWriteReadHintRecord(t *testing.T) {
	var buf bytes.Buffer
	w := &seekWriter{Buffer: &buf}

	offset, err := format.WriteHintRecord(w, []byte("hello"), 42, format.HeaderSize+10)
	require.NoError(t, err)
	require.Equal(t, int64(0), offset)

	rec, err := format.ReadHintRecord(bytes.NewReader(buf.Bytes()), 0)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, []byte("hello"), rec.Key)
	require.Equal(t, uint64(42), rec.DataOffset())
	require.Equal(t, uint64(format.HeaderSize+10), rec.DataSize())
}

// seekWriter adapts a growing *bytes.Buffer to io.WriteSeeker for tests:
// Seek(0, io.SeekCurrent) reports the buffer's current length (its tail),
// which is the only seek operation WriteDataRecord/WriteHintRecord perform.
type seekWriter struct {
	Buffer *bytes.Buffer
}

func (w *seekWriter) Write(p []byte) (int, error) { return w.Buffer.Write(p) }

func (w *seekWriter) Seek(offset int64, whence int) (int64, error) {
	return int64(w.Buffer.Len()), nil
}
