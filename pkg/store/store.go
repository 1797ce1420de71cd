package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/downfa11-org/caskdb/pkg/config"
	"github.com/downfa11-org/caskdb/pkg/index"
	"github.com/downfa11-org/caskdb/pkg/metrics"
	"github.com/downfa11-org/caskdb/pkg/record"
	"github.com/downfa11-org/caskdb/pkg/segment"
	"github.com/downfa11-org/caskdb/util"
	"github.com/dgraph-io/ristretto/v2"
)

type Store struct {
	dir string
	cfg *config.Config

	// mu is the single mutation boundary: Set, Remove and compaction hold
	// the write side, Get holds the read side.
	mu sync.RWMutex

	segments *segment.Manager
	idx      *index.Index
	cache    *ristretto.Cache[string, []byte]
	lock     *dirLock

	totalBytes int64
	staleBytes int64
	lastSync   time.Time
	closed     bool
}

// Open creates the directory if absent, takes the exclusive directory lock,
// replays every segment to rebuild the index and reopens the newest segment
// for appends. A nil cfg uses the documented defaults.
func Open(dir string, cfg *config.Config) (*Store, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	lock, err := acquireLock(dir)
	if err != nil {
		return nil, err
	}

	mgr, err := segment.Open(dir, cfg.SegmentSize)
	if err != nil {
		lock.release()
		return nil, err
	}

	s := &Store{
		dir:      dir,
		cfg:      cfg,
		segments: mgr,
		idx:      index.New(),
		lock:     lock,
		lastSync: time.Now(),
	}

	resume, err := s.recover()
	if err != nil {
		mgr.Close()
		lock.release()
		return nil, err
	}
	if err := mgr.Activate(resume); err != nil {
		mgr.Close()
		lock.release()
		return nil, err
	}

	if cfg.ReadCacheBytes > 0 {
		s.cache, err = newReadCache(cfg.ReadCacheBytes)
		if err != nil {
			mgr.Close()
			lock.release()
			return nil, err
		}
	}

	if cfg.EnableExporter {
		metrics.StartMetricsServer(cfg.ExporterPort)
	}
	s.updateGauges()

	util.Info("store opened at %s: %d keys, %d segments", dir, s.idx.Len(), mgr.Count())
	return s, nil
}

// Set durably maps key to value, overwriting any existing entry.
func (s *Store) Set(key, value []byte) error {
	if err := s.checkKey(key); err != nil {
		return err
	}
	if len(value) > s.cfg.MaxValueSize {
		return ErrValueTooLarge
	}

	stored, flags, err := s.compressValue(value)
	if err != nil {
		return err
	}
	frame := record.Encode(&record.Record{
		Type:  record.TypeSet,
		Flags: flags,
		Key:   key,
		Value: stored,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	ptr, err := s.segments.Append(frame)
	if err != nil {
		return err
	}
	prev, existed := s.idx.Put(key, ptr)
	s.totalBytes += int64(len(frame))
	if existed {
		s.staleBytes += int64(prev.Length)
	}
	if err := s.syncAfterMutation(); err != nil {
		return err
	}

	s.cachePut(key, value)
	metrics.SetsTotal.Inc()
	s.updateGauges()
	s.maybeCompact()
	return nil
}

// Get returns the value for key, or ErrKeyNotFound. A decode failure on a
// pointed read means the index references invalid bytes and surfaces as
// ErrLogCorruption.
func (s *Store) Get(key []byte) ([]byte, error) {
	if err := s.checkKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	metrics.GetsTotal.Inc()

	if value, ok := s.cacheGet(key); ok {
		metrics.CacheHitsTotal.Inc()
		return value, nil
	}

	ptr, ok := s.idx.Get(key)
	if !ok {
		return nil, ErrKeyNotFound
	}

	frame, err := s.segments.Read(ptr)
	if err != nil {
		if errors.Is(err, segment.ErrSegmentNotFound) {
			return nil, fmt.Errorf("%w: stale index pointer: %v", ErrLogCorruption, err)
		}
		return nil, err
	}

	rec, _, err := record.Decode(frame)
	if err != nil {
		return nil, fmt.Errorf("%w: segment %d offset %d: %v", ErrLogCorruption, ptr.Segment, ptr.Offset, err)
	}
	if rec.Type != record.TypeSet || !bytes.Equal(rec.Key, key) {
		return nil, fmt.Errorf("%w: index points at wrong record in segment %d", ErrLogCorruption, ptr.Segment)
	}

	value, err := s.decompressValue(rec.Value, rec.Flags)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogCorruption, err)
	}
	s.cachePut(key, value)
	return value, nil
}

// Remove durably deletes key. Removing an absent key is not a valid durable
// event, so ErrKeyNotFound is returned before anything reaches the log.
func (s *Store) Remove(key []byte) error {
	if err := s.checkKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	if _, ok := s.idx.Get(key); !ok {
		return ErrKeyNotFound
	}

	frame := record.Encode(&record.Record{Type: record.TypeRemove, Key: key})
	if _, err := s.segments.Append(frame); err != nil {
		return err
	}
	prev, _ := s.idx.Delete(key)

	// The remove record is stale the moment it lands: it only matters for
	// replay and compaction drops it along with the value it killed.
	s.totalBytes += int64(len(frame))
	s.staleBytes += int64(prev.Length) + int64(len(frame))

	if err := s.syncAfterMutation(); err != nil {
		return err
	}

	s.cacheDel(key)
	metrics.RemovesTotal.Inc()
	s.updateGauges()
	s.maybeCompact()
	return nil
}

// Stats reports the running byte counters and live key count.
func (s *Store) Stats() (liveKeys int, totalBytes, staleBytes int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx.Len(), s.totalBytes, s.staleBytes
}

// Close flushes and syncs the active segment, then releases every resource.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.segments.Sync()
	if cerr := s.segments.Close(); err == nil {
		err = cerr
	}
	if s.cache != nil {
		s.cache.Close()
	}
	if lerr := s.lock.release(); err == nil {
		err = lerr
	}
	return err
}

func (s *Store) checkKey(key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	if len(key) > s.cfg.MaxKeySize {
		return ErrKeyTooLarge
	}
	return nil
}

func (s *Store) syncAfterMutation() error {
	switch s.cfg.SyncPolicy {
	case "always":
		return s.segments.Sync()
	case "interval":
		if time.Since(s.lastSync) >= time.Duration(s.cfg.SyncIntervalMS)*time.Millisecond {
			s.lastSync = time.Now()
			return s.segments.Sync()
		}
	}
	return nil
}

func (s *Store) compressValue(value []byte) ([]byte, byte, error) {
	if s.cfg.CompressionType == "none" || len(value) < s.cfg.CompressionMinBytes {
		return value, 0, nil
	}
	compressed, err := util.Compress(value, s.cfg.CompressionType)
	if err != nil {
		return nil, 0, err
	}
	// Incompressible payloads are stored raw.
	if len(compressed) >= len(value) {
		return value, 0, nil
	}
	switch s.cfg.CompressionType {
	case "gzip":
		return compressed, record.FlagGzip, nil
	case "lz4":
		return compressed, record.FlagLZ4, nil
	}
	return value, 0, nil
}

func (s *Store) decompressValue(stored []byte, flags byte) ([]byte, error) {
	switch {
	case flags&record.FlagGzip != 0:
		return util.Decompress(stored, "gzip")
	case flags&record.FlagLZ4 != 0:
		return util.Decompress(stored, "lz4")
	default:
		return stored, nil
	}
}

func (s *Store) updateGauges() {
	metrics.LiveKeys.Set(float64(s.idx.Len()))
	metrics.TotalBytes.Set(float64(s.totalBytes))
	metrics.StaleBytes.Set(float64(s.staleBytes))
	metrics.SegmentCount.Set(float64(s.segments.Count()))
}
