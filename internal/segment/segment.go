// Package segment implements a handle over one on-disk segment file: a
// data file (NNNNNN.data) holding key/value records, or a hint file
// (NNNNNN.hint) holding compacted locators. It owns no cross-file state —
// the segment table, active-segment bookkeeping, and rotation policy all
// live one layer up in internal/storage. A segment only knows how to
// encode/decode its own records and manage its own file handle, grounded in
// original_source/srv/src/store/logfile.rs's LogFile/DataFile/HintFile split.
package segment

import (
	stdErrors "errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/iamNilotpal/ignite/internal/format"
)

// DataSuffix and HintSuffix are the filename suffixes for, respectively,
// data segments and hint segments. IDs are a zero-padded 6-digit decimal
// prefix, e.g. "000001.data".
const (
	DataSuffix = ".data"
	HintSuffix = ".hint"
)

// ErrNotWriteable is returned when a write is attempted against a segment
// opened read-only.
var ErrNotWriteable = stdErrors.New("segment: file is not writeable")

// FileName renders the canonical zero-padded filename for a segment id and
// suffix, e.g. FileName(1, DataSuffix) == "000001.data".
func FileName(id uint64, suffix string) string {
	return paddedID(id) + suffix
}

// DataFilePath and HintFilePath join dir with the canonical filename for id.
func DataFilePath(dir string, id uint64) string {
	return filepath.Join(dir, FileName(id, DataSuffix))
}

func HintFilePath(dir string, id uint64) string {
	return filepath.Join(dir, FileName(id, HintSuffix))
}

func paddedID(id uint64) string {
	s := strconv.FormatUint(id, 10)
	if len(s) >= 6 {
		return s
	}
	return strings.Repeat("0", 6-len(s)) + s
}

// ParseID extracts the numeric id from a segment file's base name — the run
// of digits before the first '.'. It reports ok=false if the name doesn't
// start with a parseable id, in which case the caller ignores the file, per
// the rule that a segment's identity is "a numeric id parsed from the
// filename prefix (digits up to the first '.'); if parsing fails, the file
// is ignored."
func ParseID(path string) (id uint64, ok bool) {
	base := filepath.Base(path)
	i := strings.IndexByte(base, '.')
	if i < 0 {
		i = len(base)
	}

	n, err := strconv.ParseUint(base[:i], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// handle is the shared plumbing between DataFile and HintFile: one file
// identified by a numeric id, optionally writable via append, with a
// separate read handle so random-access reads and iteration work correctly
// even while the write handle is appending to the same file.
type handle struct {
	path     string
	id       uint64
	writable bool

	writer *os.File
	reader *os.File
}

func openHandle(path string, writable, create bool) (*handle, error) {
	id, ok := ParseID(path)
	if !ok {
		return nil, stdErrors.New("segment: path has no parseable file id: " + path)
	}

	h := &handle{path: path, id: id, writable: writable}

	if writable {
		flags := os.O_WRONLY | os.O_APPEND
		if create {
			flags |= os.O_CREATE
		}
		w, err := os.OpenFile(path, flags, 0644)
		if err != nil {
			return nil, err
		}
		h.writer = w
	}

	r, err := os.Open(path)
	if err != nil {
		if h.writer != nil {
			h.writer.Close()
		}
		return nil, err
	}
	h.reader = r

	return h, nil
}

// Path returns the filesystem path this handle was opened from.
func (h *handle) Path() string { return h.path }

// Size returns the file's current length.
func (h *handle) Size() (int64, error) {
	info, err := h.reader.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Sync flushes the write handle to stable storage. A no-op on a read-only handle.
func (h *handle) Sync() error {
	if h.writer == nil {
		return nil
	}
	return h.writer.Sync()
}

// tailSeeker adapts the write handle to io.WriteSeeker for the format
// package: Seek(0, io.SeekCurrent) reports the file's current length (its
// append tail), the only seek format.Write*Record ever performs.
type tailSeeker struct {
	f *os.File
}

func (t tailSeeker) Write(p []byte) (int, error) { return t.f.Write(p) }

func (t tailSeeker) Seek(offset int64, whence int) (int64, error) {
	info, err := t.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// closeHandle syncs best-effort, closes both file descriptors, and — if
// this is a writable handle left at zero size — removes the file.
// Mirrors original_source/logfile.rs's Drop impl, which unlinks a log file
// it created but never wrote a record into.
func closeHandle(h *handle) error {
	if h.writer != nil {
		h.writer.Sync()
	}

	var closeErr error
	if h.writer != nil {
		closeErr = h.writer.Close()
	}
	if err := h.reader.Close(); err != nil && closeErr == nil {
		closeErr = err
	}

	if h.writable {
		if info, err := os.Stat(h.path); err == nil && info.Size() == 0 {
			os.Remove(h.path)
		}
	}

	return closeErr
}

// DataFile is a handle over one NNNNNN.data segment: an append-only log of
// data records, readable at any offset and iterable from the start.
type DataFile struct {
	*handle
}

// OpenData opens (creating if needed, when writable) the data file at path.
func OpenData(path string, writable bool) (*DataFile, error) {
	h, err := openHandle(path, writable, true)
	if err != nil {
		return nil, err
	}
	return &DataFile{handle: h}, nil
}

// ID is the segment's numeric id.
func (d *DataFile) ID() uint64 { return d.id }

// Write appends a data record for key/value and returns it populated with
// its Offset and FileID.
func (d *DataFile) Write(key, value []byte) (*format.DataRecord, error) {
	if !d.writable {
		return nil, ErrNotWriteable
	}

	offset, err := format.WriteDataRecord(tailSeeker{f: d.writer}, key, value)
	if err != nil {
		return nil, err
	}

	rec, err := format.ReadDataRecord(d.reader, offset)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, format.ErrDeserialize
	}
	rec.Offset = offset
	rec.FileID = d.id
	return rec, nil
}

// Read parses the data record at offset.
func (d *DataFile) Read(offset int64) (*format.DataRecord, error) {
	rec, err := format.ReadDataRecord(d.reader, offset)
	if err != nil || rec == nil {
		return rec, err
	}
	rec.Offset = offset
	rec.FileID = d.id
	return rec, nil
}

// CopyBytesFrom copies the exact byte range [offset, offset+size) from
// another data file into this one at its current tail, returning the
// offset the bytes landed at. Used by compaction to relocate a live record
// byte-for-byte, preserving its stored CRC and timestamp.
func (d *DataFile) CopyBytesFrom(src *DataFile, offset, size int64) (int64, error) {
	if !d.writable {
		return 0, ErrNotWriteable
	}

	buf := make([]byte, size)
	if _, err := src.reader.ReadAt(buf, offset); err != nil {
		return 0, err
	}

	dst, err := d.handle.Size()
	if err != nil {
		return 0, err
	}
	if _, err := d.writer.Write(buf); err != nil {
		return 0, err
	}
	return dst, nil
}

// Iterate walks every data record from the start of the file in order,
// calling fn with each. Iteration stops early, without error, if fn returns
// false. A record successfully parsed from a truncated tail (fewer bytes
// than its header claims) ends iteration silently, matching replay's
// tolerance for an in-progress write at the very end of the active segment.
func (d *DataFile) Iterate(fn func(rec *format.DataRecord) (bool, error)) error {
	var offset int64
	for {
		rec, err := format.ReadDataRecord(d.reader, offset)
		if err != nil {
			if stdErrors.Is(err, format.ErrDeserialize) {
				return nil
			}
			return err
		}
		if rec == nil {
			return nil
		}
		rec.Offset = offset
		rec.FileID = d.id

		cont, err := fn(rec)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
		offset += rec.Size()
	}
}

// Close syncs, closes, and removes the file if it is writable and empty.
func (d *DataFile) Close() error { return closeHandle(d.handle) }

// HintFile is a handle over one NNNNNN.hint segment: a write-once,
// read-many log of compacted locators parallel to a data file.
type HintFile struct {
	*handle
}

// OpenHint opens (creating if needed, when writable) the hint file at path.
func OpenHint(path string, writable bool) (*HintFile, error) {
	h, err := openHandle(path, writable, true)
	if err != nil {
		return nil, err
	}
	return &HintFile{handle: h}, nil
}

// ID is the segment's numeric id (matches its sibling data file's id).
func (hf *HintFile) ID() uint64 { return hf.id }

// Write appends a hint record pointing at a data record of dataSize bytes
// located at dataOffset within the sibling data file.
func (hf *HintFile) Write(key []byte, dataOffset, dataSize uint64) error {
	if !hf.writable {
		return ErrNotWriteable
	}
	_, err := format.WriteHintRecord(tailSeeker{f: hf.writer}, key, dataOffset, dataSize)
	return err
}

// Iterate walks every hint record from the start of the file in order.
func (hf *HintFile) Iterate(fn func(rec *format.HintRecord) (bool, error)) error {
	var offset int64
	for {
		rec, err := format.ReadHintRecord(hf.reader, offset)
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}

		cont, err := fn(rec)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
		offset += rec.Size()
	}
}

// Close syncs, closes, and removes the file if it is writable and empty.
func (hf *HintFile) Close() error { return closeHandle(hf.handle) }

// HintExists reports whether a hint file for id exists in dir.
func HintExists(dir string, id uint64) bool {
	_, err := os.Stat(HintFilePath(dir, id))
	return err == nil
}
