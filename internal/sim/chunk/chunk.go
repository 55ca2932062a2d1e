// Package chunk defines the addressable unit of generated world content:
// a fixed 32x32 block of cells with tile, height and decoration layers.
package chunk

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// Size is the chunk edge length in world cells. It is baked into the
// persistence format; changing it invalidates every saved chunk.
const Size = 32

// Coord is an integer chunk address. Comparison is exact integer equality,
// which makes it safe as a map key.
type Coord struct {
	X int
	Y int
}

// FromWorld maps a world cell position to the chunk containing it.
func FromWorld(x, y int) Coord {
	return Coord{X: floorDiv(x, Size), Y: floorDiv(y, Size)}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

// Manhattan returns |dx| + |dy| between two chunk coords.
func Manhattan(a, b Coord) int {
	return absInt(a.X-b.X) + absInt(a.Y-b.Y)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// LoadState is the chunk lifecycle state machine:
// Unloaded -> Loading -> Loaded -> Unloading -> Unloaded.
type LoadState uint8

const (
	Unloaded LoadState = iota
	Loading
	Loaded
	Unloading
)

func (s LoadState) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Unloading:
		return "unloading"
	default:
		return "invalid"
	}
}

// Data owns the per-cell layers of one chunk, indexed by y*Size+x.
// A zero tile or decoration byte means "absent"; real ids start at 1.
type Data struct {
	Tiles       []uint8
	Heights     []float32
	Decorations []uint8

	// Modified is set by post-generation edits so eviction knows the
	// chunk must be persisted before it is dropped.
	Modified bool
}

// NewData allocates an empty chunk with all layers zeroed.
func NewData() *Data {
	n := Size * Size
	return &Data{
		Tiles:       make([]uint8, n),
		Heights:     make([]float32, n),
		Decorations: make([]uint8, n),
	}
}

func inBounds(x, y int) bool {
	return x >= 0 && x < Size && y >= 0 && y < Size
}

// Tile returns the tile id at a local cell, or 0 if absent or out of bounds.
// Out-of-bounds access is neutral, never a panic.
func (d *Data) Tile(x, y int) uint8 {
	if !inBounds(x, y) {
		return 0
	}
	return d.Tiles[y*Size+x]
}

// SetTile writes a tile id and marks the chunk modified.
func (d *Data) SetTile(x, y int, tile uint8) {
	if !inBounds(x, y) {
		return
	}
	d.Tiles[y*Size+x] = tile
	d.Modified = true
}

// Height returns the height at a local cell, or 0 if out of bounds.
func (d *Data) Height(x, y int) float32 {
	if !inBounds(x, y) {
		return 0
	}
	return d.Heights[y*Size+x]
}

// SetHeight writes a height value and marks the chunk modified.
func (d *Data) SetHeight(x, y int, h float32) {
	if !inBounds(x, y) {
		return
	}
	d.Heights[y*Size+x] = h
	d.Modified = true
}

// Decoration returns the decoration id at a local cell, or 0 if absent.
func (d *Data) Decoration(x, y int) uint8 {
	if !inBounds(x, y) {
		return 0
	}
	return d.Decorations[y*Size+x]
}

// SetDecoration writes a decoration id and marks the chunk modified.
func (d *Data) SetDecoration(x, y int, dec uint8) {
	if !inBounds(x, y) {
		return
	}
	d.Decorations[y*Size+x] = dec
	d.Modified = true
}

// Clone deep-copies the data. Used when handing a snapshot to a writer
// goroutine while the tick loop keeps mutating the original.
func (d *Data) Clone() *Data {
	c := NewData()
	copy(c.Tiles, d.Tiles)
	copy(c.Heights, d.Heights)
	copy(c.Decorations, d.Decorations)
	c.Modified = d.Modified
	return c
}

// Equal reports whether two chunks hold identical content.
func (d *Data) Equal(o *Data) bool {
	if d.Modified != o.Modified {
		return false
	}
	if len(d.Tiles) != len(o.Tiles) || len(d.Heights) != len(o.Heights) || len(d.Decorations) != len(o.Decorations) {
		return false
	}
	for i := range d.Tiles {
		if d.Tiles[i] != o.Tiles[i] {
			return false
		}
	}
	for i := range d.Heights {
		if math.Float32bits(d.Heights[i]) != math.Float32bits(o.Heights[i]) {
			return false
		}
	}
	for i := range d.Decorations {
		if d.Decorations[i] != o.Decorations[i] {
			return false
		}
	}
	return true
}

// Digest hashes the chunk content. The index database stores it so a
// corrupted chunk file can be detected without decoding.
func (d *Data) Digest() [32]byte {
	h := sha256.New()
	h.Write(d.Tiles)
	var tmp [4]byte
	for _, v := range d.Heights {
		binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
		h.Write(tmp[:])
	}
	h.Write(d.Decorations)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
