package index_test

import (
	"testing"

	"github.com/downfa11-org/caskdb/pkg/index"
	"github.com/downfa11-org/caskdb/pkg/segment"
)

func TestIndex_PutGetDelete(t *testing.T) {
	idx := index.New()

	if _, ok := idx.Get([]byte("a")); ok {
		t.Fatal("expected miss on empty index")
	}

	first := segment.Pointer{Segment: 1, Offset: 0, Length: 20}
	if _, existed := idx.Put([]byte("a"), first); existed {
		t.Fatal("unexpected previous entry")
	}

	got, ok := idx.Get([]byte("a"))
	if !ok || got != first {
		t.Fatalf("got %+v, want %+v", got, first)
	}

	second := segment.Pointer{Segment: 1, Offset: 20, Length: 24}
	prev, existed := idx.Put([]byte("a"), second)
	if !existed || prev != first {
		t.Fatalf("Put returned %+v/%v, want previous pointer", prev, existed)
	}

	prev, existed = idx.Delete([]byte("a"))
	if !existed || prev != second {
		t.Fatalf("Delete returned %+v/%v, want latest pointer", prev, existed)
	}
	if _, ok := idx.Get([]byte("a")); ok {
		t.Fatal("entry survived Delete")
	}
	if _, existed := idx.Delete([]byte("a")); existed {
		t.Fatal("second Delete reported an entry")
	}
}

func TestIndex_ItemsSnapshot(t *testing.T) {
	idx := index.New()
	idx.Put([]byte("a"), segment.Pointer{Segment: 1, Offset: 0, Length: 10})
	idx.Put([]byte("b"), segment.Pointer{Segment: 1, Offset: 10, Length: 10})

	items := idx.Items()
	if len(items) != 2 {
		t.Fatalf("snapshot has %d items, want 2", len(items))
	}

	// Mutations after the snapshot must not leak into it.
	idx.Delete([]byte("a"))
	if _, ok := items["a"]; !ok {
		t.Fatal("snapshot mutated by Delete")
	}
	if idx.Len() != 1 {
		t.Fatalf("Len %d, want 1", idx.Len())
	}
}
