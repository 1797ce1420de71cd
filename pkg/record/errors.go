package record

import "errors"

var (
	// ErrIncompleteRecord is returned when a buffer ends before the frame it
	// started. Only tolerable at the tail of the newest segment.
	ErrIncompleteRecord = errors.New("incomplete record")

	// ErrCorruptRecord is returned when a frame is malformed: unknown tag,
	// impossible lengths or checksum mismatch.
	ErrCorruptRecord = errors.New("corrupt record")
)
