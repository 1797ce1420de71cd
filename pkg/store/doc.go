// Package store is the public surface of the caskdb storage engine: an
// embeddable, single-process persistent key-value store backed by a
// write-ahead log.
//
// Write path: Set/Remove encode a record, append it to the active segment,
// update the in-memory index and sync per the configured durability policy.
// Read path: Get resolves the key through the index to a (segment, offset,
// length) pointer and reads exactly those bytes back.
//
// The segments are the source of truth. The index is rebuilt by replaying
// them at Open, and space held by overwritten or removed records is
// reclaimed by compaction once the stale-byte ratio crosses the configured
// threshold.
//
// One Store handle per directory. Mutations are serialized internally;
// reads may run concurrently with each other.
package store
