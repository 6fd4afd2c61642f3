package storage

import (
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/iamNilotpal/ignite/internal/index"
	"github.com/iamNilotpal/ignite/internal/segment"
	"github.com/iamNilotpal/ignite/pkg/errors"
)

// Compact rewrites every live record into a fresh run of segments, dropping
// tombstones and superseded versions, then deletes every segment strictly
// older than the point compaction started from.
//
// Grounded in original_source/srv/src/store/storage.rs's DiskStorage::compact:
// reserve F+1 as the new active segment (so concurrent Set/Delete calls land
// somewhere compaction will never touch) and F+2 as the first compaction
// output; copy every live record byte-for-byte via CopyBytesFrom, preserving
// its stored CRC and timestamp; write a parallel hint record for each;
// rotate the compaction output when it exceeds the configured segment size;
// finally remove every segment whose id is ≤ F.
func (s *Storage) Compact() error {
	if s.closed.Load() {
		return ErrSegmentClosed
	}

	oldestLive := s.activeSegmentID
	if err := s.newActiveSegment(oldestLive + 1); err != nil {
		return err
	}

	compactionID := oldestLive + 2
	compactDF, err := segment.OpenData(segment.DataFilePath(s.dir, compactionID), true)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to open compaction segment")
	}
	s.dataFiles[compactionID] = compactDF

	hintFile, err := segment.OpenHint(segment.HintFilePath(s.dir, compactionID), true)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to open compaction hint file")
	}

	keys := s.index.Keys()
	for _, key := range keys {
		ptr, ok := s.index.Get(key)
		if !ok {
			continue
		}

		if uint64(mustSize(compactDF)) > s.options.MaxLogFileSize {
			compactDF.Sync()
			hintFile.Sync()

			compactionID++
			compactDF, err = segment.OpenData(segment.DataFilePath(s.dir, compactionID), true)
			if err != nil {
				return errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to rotate compaction segment")
			}
			s.dataFiles[compactionID] = compactDF

			hintFile, err = segment.OpenHint(segment.HintFilePath(s.dir, compactionID), true)
			if err != nil {
				return errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to rotate compaction hint file")
			}
		}

		src, ok := s.dataFiles[ptr.SegmentID]
		if !ok {
			return errors.NewIndexError(
				nil, errors.ErrorCodeIndexInvalidSegmentID, "compaction found a key directory entry with no backing segment",
			).WithKey(key).WithSegmentID(ptr.SegmentID)
		}

		newOffset, err := compactDF.CopyBytesFrom(src, ptr.Offset, int64(ptr.EntrySize))
		if err != nil {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to copy record during compaction").
				WithSegmentID(ptr.SegmentID).WithOffset(ptr.Offset)
		}

		if err := hintFile.Write([]byte(key), uint64(newOffset), uint64(ptr.EntrySize)); err != nil {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to write compaction hint record")
		}

		s.index.Put(key, &index.RecordPointer{
			Key:       key,
			SegmentID: compactDF.ID(),
			Offset:    newOffset,
			EntrySize: ptr.EntrySize,
			ValueSize: ptr.ValueSize,
			Timestamp: ptr.Timestamp,
		})
	}

	compactDF.Sync()
	hintFile.Sync()
	hintFile.Close()

	return s.removeStaleSegments(oldestLive)
}

// removeStaleSegments deletes every data+hint file pair whose id is at most
// boundary, in parallel: each pair's close+unlink is independent of every
// other pair's, so there's no reason to serialize them. Grounded in
// marselester-hastydb's errgroup use for independent cleanup fan-out.
func (s *Storage) removeStaleSegments(boundary uint64) error {
	var g errgroup.Group

	for id, df := range s.dataFiles {
		if id > boundary {
			continue
		}

		id, df := id, df
		g.Go(func() error {
			path := df.Path()
			df.Close()
			os.Remove(path)
			os.Remove(segment.HintFilePath(s.dir, id))
			return nil
		})
		delete(s.dataFiles, id)
	}

	return g.Wait()
}

func mustSize(df *segment.DataFile) int64 {
	size, err := df.Size()
	if err != nil {
		return 0
	}
	return size
}
