package chunk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Binary chunk encoding, version 1. Layout (little-endian):
//
//	[0]    format version
//	[1:3]  chunk edge length (uint16)
//	[...]  tiles        Size*Size bytes
//	[...]  heights      Size*Size float32 bit patterns
//	[...]  decorations  Size*Size bytes
//	[last] modified flag
//
// The layout is length-stable: every v1 chunk file has the same size.

const codecVersion = 1

// ErrCorrupt marks persisted bytes that cannot be decoded. Callers recover
// by regenerating the chunk; it is never fatal.
var ErrCorrupt = errors.New("corrupt chunk data")

// EncodedLen is the exact byte length of an encoded v1 chunk.
const EncodedLen = 3 + Size*Size + Size*Size*4 + Size*Size + 1

// Encode serializes chunk data. Decode(Encode(d)) reproduces d exactly.
func Encode(d *Data) []byte {
	buf := make([]byte, 0, EncodedLen)
	buf = append(buf, codecVersion)
	buf = binary.LittleEndian.AppendUint16(buf, Size)
	buf = append(buf, d.Tiles...)
	for _, h := range d.Heights {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(h))
	}
	buf = append(buf, d.Decorations...)
	if d.Modified {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

// Decode parses a v1 chunk. Any structural mismatch returns ErrCorrupt.
func Decode(raw []byte) (*Data, error) {
	if len(raw) != EncodedLen {
		return nil, fmt.Errorf("%w: length %d, want %d", ErrCorrupt, len(raw), EncodedLen)
	}
	if raw[0] != codecVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrCorrupt, raw[0], codecVersion)
	}
	if edge := binary.LittleEndian.Uint16(raw[1:3]); edge != Size {
		return nil, fmt.Errorf("%w: edge length %d, want %d", ErrCorrupt, edge, Size)
	}

	d := NewData()
	off := 3
	copy(d.Tiles, raw[off:off+Size*Size])
	off += Size * Size
	for i := range d.Heights {
		d.Heights[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[off:]))
		off += 4
	}
	copy(d.Decorations, raw[off:off+Size*Size])
	off += Size * Size
	switch raw[off] {
	case 0:
		d.Modified = false
	case 1:
		d.Modified = true
	default:
		return nil, fmt.Errorf("%w: modified flag %d", ErrCorrupt, raw[off])
	}
	return d, nil
}
