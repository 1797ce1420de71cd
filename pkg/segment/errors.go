package segment

import "errors"

var (
	// ErrSegmentNotFound is returned when a pointer references a segment id
	// that has been retired. The index should never hand out such a pointer,
	// so seeing this indicates a bug rather than a user error.
	ErrSegmentNotFound = errors.New("segment not found")

	// ErrSegmentSealed is returned on appends to a read-only segment.
	ErrSegmentSealed = errors.New("segment is sealed")

	// ErrNoActiveSegment is returned on appends before Activate.
	ErrNoActiveSegment = errors.New("no active segment")
)
