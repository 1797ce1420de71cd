package segment_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/downfa11-org/caskdb/pkg/segment"
)

func openManager(t *testing.T, dir string, maxSize int64) *segment.Manager {
	t.Helper()
	m, err := segment.Open(dir, maxSize)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := m.Activate(activeSize(t, dir, m)); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	return m
}

func activeSize(t *testing.T, dir string, m *segment.Manager) int64 {
	t.Helper()
	ids := m.IDs()
	if len(ids) == 0 {
		return 0
	}
	info, err := os.Stat(filepath.Join(dir, segmentFileName(ids[len(ids)-1])))
	if err != nil {
		t.Fatalf("stat newest segment: %v", err)
	}
	return info.Size()
}

func segmentFileName(id uint64) string {
	buf := []byte("00000000000000000000.log")
	for i := 19; id > 0; i-- {
		buf[i] = byte('0' + id%10)
		id /= 10
	}
	return string(buf)
}

func TestManager_AppendRead(t *testing.T) {
	m := openManager(t, t.TempDir(), 1<<20)
	defer m.Close()

	data := [][]byte{[]byte("first"), []byte("second record"), []byte("third")}
	ptrs := make([]segment.Pointer, len(data))

	var offset int64
	for i, d := range data {
		ptr, err := m.Append(d)
		if err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
		if ptr.Offset != offset {
			t.Fatalf("Append %d: offset %d, want %d", i, ptr.Offset, offset)
		}
		offset += int64(len(d))
		ptrs[i] = ptr
	}

	for i, ptr := range ptrs {
		got, err := m.Read(ptr)
		if err != nil {
			t.Fatalf("Read %d failed: %v", i, err)
		}
		if !bytes.Equal(got, data[i]) {
			t.Fatalf("Read %d: got %q, want %q", i, got, data[i])
		}
	}
}

func TestManager_Rotation(t *testing.T) {
	m := openManager(t, t.TempDir(), 64)
	defer m.Close()

	payload := bytes.Repeat([]byte("x"), 40)

	first, err := m.Append(payload)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	second, err := m.Append(payload)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if first.Segment == second.Segment {
		t.Fatalf("expected rotation, both appends in segment %d", first.Segment)
	}
	if second.Offset != 0 {
		t.Fatalf("expected new segment to start at offset 0, got %d", second.Offset)
	}

	// The sealed segment must still serve reads.
	got, err := m.Read(first)
	if err != nil {
		t.Fatalf("Read from sealed segment failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("sealed segment data mismatch")
	}
}

func TestManager_OversizedRecordGetsOwnRotation(t *testing.T) {
	m := openManager(t, t.TempDir(), 16)
	defer m.Close()

	// A record larger than the threshold still lands; rotation only happens
	// when the active segment is non-empty.
	big := bytes.Repeat([]byte("y"), 64)
	ptr, err := m.Append(big)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if ptr.Offset != 0 {
		t.Fatalf("expected offset 0, got %d", ptr.Offset)
	}
}

func TestManager_Retire(t *testing.T) {
	m := openManager(t, t.TempDir(), 32)
	defer m.Close()

	payload := bytes.Repeat([]byte("z"), 24)
	var last segment.Pointer
	for i := 0; i < 4; i++ {
		ptr, err := m.Append(payload)
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		last = ptr
	}
	if m.Count() < 3 {
		t.Fatalf("expected several segments, got %d", m.Count())
	}

	if err := m.Retire(last.Segment); err != nil {
		t.Fatalf("Retire failed: %v", err)
	}
	if m.Count() != 1 {
		t.Fatalf("expected 1 segment after retire, got %d", m.Count())
	}

	if _, err := m.Read(segment.Pointer{Segment: 1, Offset: 0, Length: 4}); !errors.Is(err, segment.ErrSegmentNotFound) {
		t.Fatalf("expected ErrSegmentNotFound, got %v", err)
	}
	if _, err := m.Read(last); err != nil {
		t.Fatalf("read from kept segment failed: %v", err)
	}
}

func TestManager_ReopenDiscoversSegments(t *testing.T) {
	dir := t.TempDir()

	m := openManager(t, dir, 32)
	payload := bytes.Repeat([]byte("w"), 24)
	var ptrs []segment.Pointer
	for i := 0; i < 3; i++ {
		ptr, err := m.Append(payload)
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		ptrs = append(ptrs, ptr)
	}
	if err := m.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	m2 := openManager(t, dir, 32)
	defer m2.Close()

	if got, want := m2.Count(), len(ptrs); got != want {
		t.Fatalf("reopened manager has %d segments, want %d", got, want)
	}
	for i, ptr := range ptrs {
		got, err := m2.Read(ptr)
		if err != nil {
			t.Fatalf("Read %d after reopen failed: %v", i, err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("Read %d after reopen: data mismatch", i)
		}
	}
}

func TestManager_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "LOCK"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "abc.log"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := segment.Open(dir, 1<<20)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer m.Close()

	if m.Count() != 0 {
		t.Fatalf("expected 0 segments, got %d", m.Count())
	}
}
