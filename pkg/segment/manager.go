package segment

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/downfa11-org/caskdb/util"
)

// Manager owns every segment in a store directory: the ordered read-only
// generations plus the single active segment accepting appends.
type Manager struct {
	dir     string
	maxSize int64

	mu       sync.RWMutex
	segments map[uint64]*Segment
	ids      []uint64 // ascending
	active   *Segment
}

// Open discovers existing segment files in dir, oldest to newest, and opens
// them all read-only. No segment accepts writes until Activate runs; replay
// happens in between.
func Open(dir string, maxSegmentSize int64) (*Manager, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		dir:      dir,
		maxSize:  maxSegmentSize,
		segments: make(map[uint64]*Segment),
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := parseSegmentName(entry.Name())
		if !ok {
			continue
		}
		seg, err := openSealed(dir, id)
		if err != nil {
			m.closeAll()
			return nil, fmt.Errorf("open segment %d: %w", id, err)
		}
		m.segments[id] = seg
		m.ids = append(m.ids, id)
	}
	sort.Slice(m.ids, func(i, j int) bool { return m.ids[i] < m.ids[j] })
	return m, nil
}

func parseSegmentName(name string) (uint64, bool) {
	base, ok := strings.CutSuffix(name, ".log")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(base, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// IDs returns the segment generation numbers, ascending.
func (m *Manager) IDs() []uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]uint64, len(m.ids))
	copy(out, m.ids)
	return out
}

// ReadSegment returns the full contents of one segment for replay.
func (m *Manager) ReadSegment(id uint64) ([]byte, error) {
	m.mu.RLock()
	seg, ok := m.segments[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("segment %d: %w", id, ErrSegmentNotFound)
	}
	return seg.ReadAll()
}

// Activate makes the manager writable. With no existing segments a first
// generation is created; otherwise the newest segment is truncated to
// resumeOffset (dropping any torn trailing record) and reopened for appends.
func (m *Manager) Activate(resumeOffset int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.ids) == 0 {
		seg, err := create(m.dir, 1)
		if err != nil {
			return err
		}
		m.segments[1] = seg
		m.ids = []uint64{1}
		m.active = seg
		return nil
	}

	newest := m.segments[m.ids[len(m.ids)-1]]
	if err := newest.Reactivate(resumeOffset); err != nil {
		return err
	}
	m.active = newest
	return nil
}

// Append writes one encoded record to the active segment, rotating to a new
// generation first if the active segment has reached the size threshold.
func (m *Manager) Append(data []byte) (Pointer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return Pointer{}, ErrNoActiveSegment
	}
	if m.active.Size() > 0 && m.active.Size()+int64(len(data)) > m.maxSize {
		if _, err := m.rotate(); err != nil {
			return Pointer{}, err
		}
	}

	offset, err := m.active.Append(data)
	if err != nil {
		return Pointer{}, err
	}
	return Pointer{Segment: m.active.ID(), Offset: offset, Length: uint32(len(data))}, nil
}

// Rotate seals the active segment and starts a fresh one, returning the new
// generation number. The compactor uses this as its rewrite barrier: every
// generation below the returned id is eligible for retirement afterwards.
func (m *Manager) Rotate() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return 0, ErrNoActiveSegment
	}
	return m.rotate()
}

func (m *Manager) rotate() (uint64, error) {
	if err := m.active.Seal(); err != nil {
		return 0, err
	}
	nextID := m.active.ID() + 1
	seg, err := create(m.dir, nextID)
	if err != nil {
		return 0, err
	}
	m.segments[nextID] = seg
	m.ids = append(m.ids, nextID)
	m.active = seg
	util.Debug("rotated to segment %d", nextID)
	return nextID, nil
}

// Read returns the exact bytes a pointer references.
func (m *Manager) Read(ptr Pointer) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seg, ok := m.segments[ptr.Segment]
	if !ok {
		return nil, fmt.Errorf("segment %d: %w", ptr.Segment, ErrSegmentNotFound)
	}
	buf := make([]byte, ptr.Length)
	if err := seg.ReadAt(buf, ptr.Offset); err != nil {
		return nil, err
	}
	return buf, nil
}

// Sync flushes the active segment to durable storage.
func (m *Manager) Sync() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return nil
	}
	return m.active.Sync()
}

// Retire deletes every segment older than the given generation. Callers must
// have synced the replacement data first; deletion order is oldest first so a
// crash mid-retire never leaves a gap in the replay sequence.
func (m *Manager) Retire(before uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var kept []uint64
	for i, id := range m.ids {
		if id >= before {
			kept = append(kept, m.ids[i:]...)
			break
		}
		seg := m.segments[id]
		if err := seg.Remove(); err != nil {
			util.Error("retire segment %d: %v", id, err)
			m.ids = append(kept, m.ids[i:]...)
			return err
		}
		delete(m.segments, id)
		util.Debug("retired segment %d", id)
	}
	m.ids = kept
	return nil
}

// ActiveID returns the generation currently accepting appends.
func (m *Manager) ActiveID() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return 0
	}
	return m.active.ID()
}

// ActiveSize returns the byte size of the active segment.
func (m *Manager) ActiveSize() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return 0
	}
	return m.active.Size()
}

// Count returns the number of live segments.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.segments)
}

// TotalSize returns the summed size of all live segments.
func (m *Manager) TotalSize() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for _, seg := range m.segments {
		total += seg.Size()
	}
	return total
}

// Close releases every file handle. Segments stay on disk.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeAll()
}

func (m *Manager) closeAll() error {
	var firstErr error
	for _, seg := range m.segments {
		if err := seg.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
