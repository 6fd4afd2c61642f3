package format

import (
	stdErrors "errors"
	"io"
	"time"
)

// ErrDeserialize indicates a record header was read in full but its key or
// value payload was truncated — the file ends (or is corrupt) partway
// through a record that its own header claims is longer.
var ErrDeserialize = stdErrors.New("invalid bytes, cannot deserialize record")

// DataRecord is one key/value entry as it exists on disk: a header plus the
// raw key and value bytes. Offset and FileID are populated once the record
// has been attached to a location in a segment: ReadDataRecord leaves both
// zero, and the caller (internal/segment) sets them.
type DataRecord struct {
	Header DataHeader
	Key    []byte
	Value  []byte

	Offset int64
	FileID uint64
}

// Size is the total on-disk footprint of the record: header + key + value.
func (r *DataRecord) Size() int64 {
	return int64(HeaderSize) + int64(len(r.Key)) + int64(len(r.Value))
}

// Timestamp is the record's write time in epoch seconds, as stored in its header.
func (r *DataRecord) Timestamp() uint32 {
	return r.Header.Timestamp()
}

// WriteDataRecord serializes key/value as a new data record at the stream's
// current tail (determined via Seek(0, io.SeekCurrent)) and returns the
// offset the record was written at. The timestamp field is the current wall
// clock in epoch seconds; CRC is left as zero.
func WriteDataRecord(w io.WriteSeeker, key, value []byte) (int64, error) {
	offset, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}

	header := NewDataHeader(0, uint32(time.Now().Unix()), uint32(len(key)), uint32(len(value)))
	if _, err := w.Write(header[:]); err != nil {
		return 0, err
	}
	if _, err := w.Write(key); err != nil {
		return 0, err
	}
	if _, err := w.Write(value); err != nil {
		return 0, err
	}

	return offset, nil
}

// ReadDataRecord parses the data record at offset from r. It returns
// (nil, nil) when offset lands exactly at a clean end of stream (no more
// records); a header that reads successfully but whose key/value payload is
// truncated is ErrDeserialize.
func ReadDataRecord(r io.ReaderAt, offset int64) (*DataRecord, error) {
	var header DataHeader
	_, err := r.ReadAt(header[:], offset)
	if err != nil {
		if stdErrors.Is(err, io.EOF) || stdErrors.Is(err, io.ErrUnexpectedEOF) {
			// Fewer than HeaderSize bytes available: no more records.
			return nil, nil
		}
		return nil, err
	}

	keySize := header.KeySize()
	valueSize := header.ValueSize()

	buf := make([]byte, int(keySize)+int(valueSize))
	if len(buf) > 0 {
		if _, err := r.ReadAt(buf, offset+int64(HeaderSize)); err != nil {
			return nil, ErrDeserialize
		}
	}

	return &DataRecord{
		Header: header,
		Key:    buf[:keySize:keySize],
		Value:  buf[keySize:],
	}, nil
}

// HintRecord is one compacted-segment locator: the offset of a data record
// within its data segment, plus the key and value sizes needed to
// reconstruct the data record's total size without re-reading it.
type HintRecord struct {
	Header HintHeader
	Key    []byte
}

// Size is the on-disk footprint of the hint record itself (not the data
// record it points at).
func (r *HintRecord) Size() int64 {
	return int64(HeaderSize) + int64(len(r.Key))
}

// DataOffset is the offset, within the data segment, of the data record
// this hint describes.
func (r *HintRecord) DataOffset() uint64 {
	return r.Header.Offset()
}

// DataSize reconstructs the on-disk size of the data record this hint
// describes: header + key + value.
func (r *HintRecord) DataSize() uint64 {
	return uint64(HeaderSize) + uint64(r.Header.KeySize()) + uint64(r.Header.ValueSize())
}

// WriteHintRecord serializes a hint pointing at a data record of dataSize
// bytes located at dataOffset within its data segment, key identifying the
// live key. valueSize is derived as dataSize - HeaderSize - len(key).
func WriteHintRecord(w io.WriteSeeker, key []byte, dataOffset, dataSize uint64) (int64, error) {
	offset, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}

	valueSize := dataSize - uint64(HeaderSize) - uint64(len(key))
	header := NewHintHeader(dataOffset, uint32(len(key)), uint32(valueSize))
	if _, err := w.Write(header[:]); err != nil {
		return 0, err
	}
	if _, err := w.Write(key); err != nil {
		return 0, err
	}

	return offset, nil
}

// ReadHintRecord parses the hint record at offset from r. Like
// ReadDataRecord, it returns (nil, nil) at a clean end of stream.
func ReadHintRecord(r io.ReaderAt, offset int64) (*HintRecord, error) {
	var header HintHeader
	_, err := r.ReadAt(header[:], offset)
	if err != nil {
		if stdErrors.Is(err, io.EOF) || stdErrors.Is(err, io.ErrUnexpectedEOF) {
			return nil, nil
		}
		return nil, err
	}

	key := make([]byte, header.KeySize())
	if len(key) > 0 {
		if _, err := r.ReadAt(key, offset+int64(HeaderSize)); err != nil {
			return nil, ErrDeserialize
		}
	}

	return &HintRecord{Header: header, Key: key}, nil
}
