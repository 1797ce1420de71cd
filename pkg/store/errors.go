package store

import "errors"

var (
	// ErrKeyNotFound is the expected outcome of Get or Remove on an absent
	// key, not an engine failure.
	ErrKeyNotFound = errors.New("key not found")

	// ErrLogCorruption is returned when replay or a pointed read encounters
	// bytes that should have been valid records.
	ErrLogCorruption = errors.New("log corruption")

	// ErrStoreLocked is returned when another process holds the directory.
	ErrStoreLocked = errors.New("store directory locked by another process")

	// ErrStoreClosed is returned for operations after Close.
	ErrStoreClosed = errors.New("store is closed")

	ErrEmptyKey      = errors.New("empty key")
	ErrKeyTooLarge   = errors.New("key exceeds maximum size")
	ErrValueTooLarge = errors.New("value exceeds maximum size")
)
