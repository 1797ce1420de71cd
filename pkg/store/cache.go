package store

import "github.com/dgraph-io/ristretto/v2"

// newReadCache builds the optional value cache in front of segment reads.
// Cost is the value length, so the budget bounds resident bytes rather than
// entry count.
func newReadCache(budget int64) (*ristretto.Cache[string, []byte], error) {
	counters := budget / 1024
	if counters < 1<<10 {
		counters = 1 << 10
	}
	return ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: counters,
		MaxCost:     budget,
		BufferItems: 64,
	})
}

func (s *Store) cacheGet(key []byte) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	cached, ok := s.cache.Get(string(key))
	if !ok {
		return nil, false
	}
	// Callers own what Get hands back, so never leak the cached slice.
	out := make([]byte, len(cached))
	copy(out, cached)
	return out, true
}

func (s *Store) cachePut(key, value []byte) {
	if s.cache == nil {
		return
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	s.cache.Set(string(key), stored, int64(len(stored)))
}

func (s *Store) cacheDel(key []byte) {
	if s.cache == nil {
		return
	}
	s.cache.Del(string(key))
}
