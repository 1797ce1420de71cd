package store

import (
	"errors"
	"fmt"

	"github.com/downfa11-org/caskdb/pkg/record"
	"github.com/downfa11-org/caskdb/pkg/segment"
	"github.com/downfa11-org/caskdb/util"
)

// recover replays every segment oldest to newest, rebuilding the index and
// the stale/total byte counters. It returns the resume offset for the newest
// segment: normally its size, or the start of a torn trailing record left by
// a crash mid-append. A torn record is only tolerated there; an incomplete
// record in any older segment, or a corrupt record anywhere, fails Open.
func (s *Store) recover() (int64, error) {
	ids := s.segments.IDs()
	var resume int64

	for i, id := range ids {
		data, err := s.segments.ReadSegment(id)
		if err != nil {
			return 0, err
		}
		last := i == len(ids)-1

		pos := 0
		for pos < len(data) {
			rec, n, derr := record.Decode(data[pos:])
			if derr != nil {
				if errors.Is(derr, record.ErrIncompleteRecord) && last {
					util.Warn("recovery: dropping %d torn trailing bytes in segment %d", len(data)-pos, id)
					break
				}
				return 0, fmt.Errorf("%w: segment %d offset %d: %v", ErrLogCorruption, id, pos, derr)
			}

			ptr := segment.Pointer{Segment: id, Offset: int64(pos), Length: uint32(n)}
			switch rec.Type {
			case record.TypeSet:
				if prev, existed := s.idx.Put(rec.Key, ptr); existed {
					s.staleBytes += int64(prev.Length)
				}
			case record.TypeRemove:
				if prev, existed := s.idx.Delete(rec.Key); existed {
					s.staleBytes += int64(prev.Length)
				}
				s.staleBytes += int64(n)
			}
			s.totalBytes += int64(n)
			pos += n
		}

		if last {
			resume = int64(pos)
		}
	}

	if s.totalBytes > 0 {
		live := s.totalBytes - s.staleBytes
		util.Info("recovery: %d keys, %d live / %d total bytes (%.1f%% stale)",
			s.idx.Len(), live, s.totalBytes,
			100*float64(s.staleBytes)/float64(s.totalBytes))
	}
	return resume, nil
}
