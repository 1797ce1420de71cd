// Package index holds the in-memory key directory: an exact map from key to
// the disk location of its newest live value. It is derived state, rebuilt
// from the segments on every open and never persisted.
package index

import (
	"sync"

	"github.com/downfa11-org/caskdb/pkg/segment"
)

type Index struct {
	mu      sync.RWMutex
	entries map[string]segment.Pointer
}

func New() *Index {
	return &Index{entries: make(map[string]segment.Pointer)}
}

// Get returns the pointer for key, if any.
func (i *Index) Get(key []byte) (segment.Pointer, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	ptr, ok := i.entries[string(key)]
	return ptr, ok
}

// Put maps key to ptr and returns the pointer it replaced, if any, so the
// caller can account the superseded record as stale bytes.
func (i *Index) Put(key []byte, ptr segment.Pointer) (segment.Pointer, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	prev, existed := i.entries[string(key)]
	i.entries[string(key)] = ptr
	return prev, existed
}

// Delete erases the mapping for key and returns the removed pointer, if any.
// A logical delete drops the entry outright; the log itself records the
// Remove event for replay.
func (i *Index) Delete(key []byte) (segment.Pointer, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	prev, existed := i.entries[string(key)]
	if existed {
		delete(i.entries, string(key))
	}
	return prev, existed
}

// Len returns the number of live keys.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

// Items returns a snapshot of every mapping, used by the compactor to walk
// live keys without holding the index lock across disk I/O.
func (i *Index) Items() map[string]segment.Pointer {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make(map[string]segment.Pointer, len(i.entries))
	for k, v := range i.entries {
		out[k] = v
	}
	return out
}
