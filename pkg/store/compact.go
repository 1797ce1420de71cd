package store

import (
	"fmt"
	"time"

	"github.com/downfa11-org/caskdb/pkg/metrics"
	"github.com/downfa11-org/caskdb/pkg/record"
	"github.com/downfa11-org/caskdb/pkg/segment"
	"github.com/downfa11-org/caskdb/util"
)

// Compact forces a log compaction regardless of the stale-byte ratio.
func (s *Store) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.compactLocked()
}

// maybeCompact runs after every mutation, under the write lock.
func (s *Store) maybeCompact() {
	if s.totalBytes < s.cfg.CompactionMinBytes {
		return
	}
	if float64(s.staleBytes) <= s.cfg.CompactionRatio*float64(s.totalBytes) {
		return
	}
	if err := s.compactLocked(); err != nil {
		// Pre-compaction state is intact; the next trigger retries.
		util.Error("compaction failed: %v", err)
	}
}

// compactLocked rewrites every live record into a fresh segment generation,
// syncs it, swaps the index pointers and only then retires the superseded
// generations. Any failure before the pointer swap abandons the partial
// rewrite: the duplicate records it wrote are plain stale bytes and the
// old segments remain untouched.
func (s *Store) compactLocked() error {
	start := time.Now()

	barrier, err := s.segments.Rotate()
	if err != nil {
		return err
	}

	items := s.idx.Items()
	moved := make(map[string]segment.Pointer, len(items))
	var written int64

	abandon := func(err error) error {
		s.totalBytes += written
		s.staleBytes += written
		return err
	}

	for key, ptr := range items {
		frame, err := s.segments.Read(ptr)
		if err != nil {
			return abandon(err)
		}
		if _, _, err := record.Decode(frame); err != nil {
			return abandon(fmt.Errorf("%w: segment %d offset %d: %v", ErrLogCorruption, ptr.Segment, ptr.Offset, err))
		}

		newPtr, err := s.segments.Append(frame)
		if err != nil {
			return abandon(err)
		}
		moved[key] = newPtr
		written += int64(len(frame))
	}

	if err := s.segments.Sync(); err != nil {
		return abandon(err)
	}

	for key, ptr := range moved {
		s.idx.Put([]byte(key), ptr)
	}
	if err := s.segments.Retire(barrier); err != nil {
		// Pointers already moved; leftover files cost space, not correctness.
		util.Error("compaction: retiring old segments: %v", err)
	}

	s.totalBytes = written
	s.staleBytes = 0

	metrics.CompactionsTotal.Inc()
	metrics.CompactionDuration.Observe(time.Since(start).Seconds())
	s.updateGauges()

	util.Info("compaction: rewrote %d keys (%d bytes) in %s, %d segments live",
		len(moved), written, time.Since(start).Round(time.Millisecond), s.segments.Count())
	return nil
}
