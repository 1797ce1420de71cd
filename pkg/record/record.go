// Package record implements the wire codec for write-ahead log entries.
//
// Every entry is a self-delimiting frame so a segment file is just a flat
// concatenation of frames, decodable front to back without an external index:
//
//	checksum (4 bytes, CRC32-IEEE over the rest of the frame)
//	type     (1 byte, Set or Remove)
//	flags    (1 byte, value compression)
//	key len  (4 bytes, big-endian)
//	value len(4 bytes, big-endian, always 0 for Remove)
//	key      (variable)
//	value    (variable)
//
// A truncated trailing frame decodes as ErrIncompleteRecord, which is how a
// crash mid-append is told apart from real corruption (ErrCorruptRecord).
package record

import (
	"encoding/binary"
	"hash/crc32"
)

type Type byte

const (
	TypeSet Type = iota + 1
	TypeRemove
)

// Value compression flags. At most one may be set.
const (
	FlagGzip byte = 1 << iota
	FlagLZ4
)

const flagMask = FlagGzip | FlagLZ4

// HeaderSize is the fixed frame prefix before key and value bytes.
const HeaderSize = 4 + 1 + 1 + 4 + 4

// Hard wire-format bounds. Lengths beyond these are treated as corruption,
// not as huge records. The store enforces its own (configurable) caps on
// write, which must stay at or below these.
const (
	MaxKeySize   = 64 << 10
	MaxValueSize = 16 << 20
)

type Record struct {
	Type  Type
	Flags byte
	Key   []byte
	Value []byte
}

// EncodedLen returns the frame size Encode would produce.
func EncodedLen(r *Record) int {
	return HeaderSize + len(r.Key) + len(r.Value)
}

// Encode serializes a record into a single frame.
func Encode(r *Record) []byte {
	buf := make([]byte, EncodedLen(r))
	buf[4] = byte(r.Type)
	buf[5] = r.Flags
	binary.BigEndian.PutUint32(buf[6:10], uint32(len(r.Key)))
	binary.BigEndian.PutUint32(buf[10:14], uint32(len(r.Value)))
	copy(buf[HeaderSize:], r.Key)
	copy(buf[HeaderSize+len(r.Key):], r.Value)
	binary.BigEndian.PutUint32(buf[0:4], crc32.ChecksumIEEE(buf[4:]))
	return buf
}

// Decode parses the first frame in buf and returns it along with the number
// of bytes consumed. Key and value are copied out of buf, so the caller may
// reuse or unmap the backing storage.
func Decode(buf []byte) (Record, int, error) {
	if len(buf) < HeaderSize {
		return Record{}, 0, ErrIncompleteRecord
	}

	typ := Type(buf[4])
	flags := buf[5]
	keyLen := binary.BigEndian.Uint32(buf[6:10])
	valLen := binary.BigEndian.Uint32(buf[10:14])

	if typ != TypeSet && typ != TypeRemove {
		return Record{}, 0, ErrCorruptRecord
	}
	if flags&^flagMask != 0 {
		return Record{}, 0, ErrCorruptRecord
	}
	if keyLen == 0 || keyLen > MaxKeySize || valLen > MaxValueSize {
		return Record{}, 0, ErrCorruptRecord
	}
	if typ == TypeRemove && valLen != 0 {
		return Record{}, 0, ErrCorruptRecord
	}

	total := HeaderSize + int(keyLen) + int(valLen)
	if len(buf) < total {
		return Record{}, 0, ErrIncompleteRecord
	}

	if binary.BigEndian.Uint32(buf[0:4]) != crc32.ChecksumIEEE(buf[4:total]) {
		return Record{}, 0, ErrCorruptRecord
	}

	rec := Record{Type: typ, Flags: flags}
	rec.Key = make([]byte, keyLen)
	copy(rec.Key, buf[HeaderSize:HeaderSize+int(keyLen)])
	if valLen > 0 {
		rec.Value = make([]byte, valLen)
		copy(rec.Value, buf[HeaderSize+int(keyLen):total])
	}
	return rec, total, nil
}
