// Package format defines the on-disk byte layout of the two record kinds
// Ignite appends to segment files: data records (key + value, written by
// every Set/Delete) and hint records (a compact locator written only during
// compaction). Both headers are fixed-size and big-endian, so a segment file
// can be walked purely by repeatedly reading a header and skipping ahead by
// the size it describes.
package format

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed size, in bytes, of both the data-record and
// hint-record headers.
const HeaderSize = 16

// DataHeader is the 16-byte header prefixing every data record:
// CRC32 (4) | timestamp seconds (4) | key size (4) | value size (4), all
// big-endian. The CRC field round-trips but is never computed or verified
// (see DESIGN.md).
type DataHeader [HeaderSize]byte

// NewDataHeader packs the four header fields into their wire layout.
func NewDataHeader(crc, timestamp, keySize, valueSize uint32) DataHeader {
	var h DataHeader
	binary.BigEndian.PutUint32(h[0:4], crc)
	binary.BigEndian.PutUint32(h[4:8], timestamp)
	binary.BigEndian.PutUint32(h[8:12], keySize)
	binary.BigEndian.PutUint32(h[12:16], valueSize)
	return h
}

// CRC returns the header's CRC32 field.
func (h DataHeader) CRC() uint32 { return binary.BigEndian.Uint32(h[0:4]) }

// Timestamp returns the header's epoch-seconds timestamp field.
func (h DataHeader) Timestamp() uint32 { return binary.BigEndian.Uint32(h[4:8]) }

// KeySize returns the header's key-length field.
func (h DataHeader) KeySize() uint32 { return binary.BigEndian.Uint32(h[8:12]) }

// ValueSize returns the header's value-length field.
func (h DataHeader) ValueSize() uint32 { return binary.BigEndian.Uint32(h[12:16]) }

func (h DataHeader) String() string {
	return fmt.Sprintf(
		"DataHeader(crc=%d, timestamp=%d, keySize=%d, valueSize=%d)",
		h.CRC(), h.Timestamp(), h.KeySize(), h.ValueSize(),
	)
}

// HintHeader is the 16-byte header prefixing every hint record:
// data-record offset (8) | key size (4) | value size (4), all big-endian.
type HintHeader [HeaderSize]byte

// NewHintHeader packs the hint header fields into their wire layout.
func NewHintHeader(offset uint64, keySize, valueSize uint32) HintHeader {
	var h HintHeader
	binary.BigEndian.PutUint64(h[0:8], offset)
	binary.BigEndian.PutUint32(h[8:12], keySize)
	binary.BigEndian.PutUint32(h[12:16], valueSize)
	return h
}

// Offset returns the offset, within the referenced data segment, of the
// data record this hint describes.
func (h HintHeader) Offset() uint64 { return binary.BigEndian.Uint64(h[0:8]) }

// KeySize returns the key-length field.
func (h HintHeader) KeySize() uint32 { return binary.BigEndian.Uint32(h[8:12]) }

// ValueSize returns the value-length field.
func (h HintHeader) ValueSize() uint32 { return binary.BigEndian.Uint32(h[12:16]) }

func (h HintHeader) String() string {
	return fmt.Sprintf(
		"HintHeader(offset=%d, keySize=%d, valueSize=%d)",
		h.Offset(), h.KeySize(), h.ValueSize(),
	)
}
