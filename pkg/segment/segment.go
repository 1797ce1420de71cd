// Package segment owns the on-disk write-ahead log files. A segment is one
// append-only file of codec frames; the Manager keeps them ordered by
// generation number, rotates the active one at a size threshold and retires
// old generations after compaction.
package segment

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/exp/mmap"
)

// Pointer locates one record on disk.
type Pointer struct {
	Segment uint64
	Offset  int64
	Length  uint32
}

// Segment is a single log file. While active it accepts sequential appends
// through a buffered writer; once sealed it is read-only behind an mmap.
type Segment struct {
	id   uint64
	path string

	file   *os.File
	writer *bufio.Writer
	reader *mmap.ReaderAt

	size int64
}

func segmentPath(dir string, id uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%020d.log", id))
}

// create opens a fresh writable segment. The file may already exist (reused
// after recovery truncation).
func create(dir string, id uint64) (*Segment, error) {
	s := &Segment{id: id, path: segmentPath(dir, id)}
	if err := s.openWritable(); err != nil {
		return nil, err
	}
	info, err := s.file.Stat()
	if err != nil {
		s.file.Close()
		return nil, err
	}
	s.size = info.Size()
	return s, nil
}

// openSealed opens an existing segment read-only behind an mmap.
func openSealed(dir string, id uint64) (*Segment, error) {
	path := segmentPath(dir, id)
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	return &Segment{
		id:     id,
		path:   path,
		reader: reader,
		size:   int64(reader.Len()),
	}, nil
}

func (s *Segment) ID() uint64   { return s.id }
func (s *Segment) Path() string { return s.path }
func (s *Segment) Size() int64  { return s.size }

// Append writes data at the end of the segment and returns the offset the
// frame starts at. The buffered writer is flushed before returning so that
// concurrent ReadAt calls for the returned offset always succeed.
func (s *Segment) Append(data []byte) (int64, error) {
	if s.file == nil {
		return 0, ErrSegmentSealed
	}
	offset := s.size
	if _, err := s.writer.Write(data); err != nil {
		return 0, err
	}
	if err := s.writer.Flush(); err != nil {
		return 0, err
	}
	s.size += int64(len(data))
	return offset, nil
}

// ReadAt fills buf with segment bytes starting at offset.
func (s *Segment) ReadAt(buf []byte, offset int64) error {
	if s.reader != nil {
		_, err := s.reader.ReadAt(buf, offset)
		return err
	}
	_, err := s.file.ReadAt(buf, offset)
	return err
}

// ReadAll returns the full segment contents, used by log replay.
func (s *Segment) ReadAll() ([]byte, error) {
	buf := make([]byte, s.size)
	if s.size == 0 {
		return buf, nil
	}
	if err := s.ReadAt(buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}

// Sync forces buffered appends to durable storage. No-op on sealed segments.
func (s *Segment) Sync() error {
	if s.file == nil {
		return nil
	}
	if err := s.writer.Flush(); err != nil {
		return err
	}
	return s.file.Sync()
}

// Seal makes the segment read-only: the write handle is flushed, synced and
// swapped for an mmap reader.
func (s *Segment) Seal() error {
	if s.file == nil {
		return nil
	}
	if err := s.Sync(); err != nil {
		return err
	}
	if err := s.file.Close(); err != nil {
		return err
	}
	s.file = nil
	s.writer = nil

	reader, err := mmap.Open(s.path)
	if err != nil {
		return err
	}
	s.reader = reader
	return nil
}

// Reactivate turns a sealed segment writable again, discarding everything
// past offset. Recovery uses it to resume appends on the newest segment
// after dropping a torn trailing record.
func (s *Segment) Reactivate(offset int64) error {
	if s.reader != nil {
		if err := s.reader.Close(); err != nil {
			return err
		}
		s.reader = nil
	}
	if err := os.Truncate(s.path, offset); err != nil {
		return err
	}
	if err := s.openWritable(); err != nil {
		return err
	}
	s.size = offset
	return nil
}

// Close releases the file handle or mmap without deleting anything.
func (s *Segment) Close() error {
	if s.file != nil {
		if err := s.writer.Flush(); err != nil {
			return err
		}
		if err := s.file.Close(); err != nil {
			return err
		}
		s.file = nil
		s.writer = nil
	}
	if s.reader != nil {
		if err := s.reader.Close(); err != nil {
			return err
		}
		s.reader = nil
	}
	return nil
}

// Remove closes the segment and deletes its file.
func (s *Segment) Remove() error {
	if err := s.Close(); err != nil {
		return err
	}
	return os.Remove(s.path)
}
