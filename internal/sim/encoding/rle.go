// Package encoding carries chunk layers over the JSON protocol. A layer
// (the tile or decoration plane of one chunk) is Size*Size palette ids;
// generated terrain is dominated by uniform patches, so runs of equal
// ids are varint-packed and the result base64'd.
package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"driftworld/internal/sim/chunk"
)

// LayerCells is the cell count of one chunk layer.
const LayerCells = chunk.Size * chunk.Size

// EncodeLayer packs a chunk layer as base64(varint (id, run) pairs).
func EncodeLayer(layer []uint8) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	for i := 0; i < len(layer); {
		id := layer[i]
		run := 1
		for i+run < len(layer) && layer[i+run] == id {
			run++
		}

		n := binary.PutUvarint(tmp[:], uint64(id))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])

		i += run
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeLayer reverses EncodeLayer. The runs must describe exactly one
// chunk layer; truncated, overflowing or malformed input is rejected.
func DecodeLayer(b64 string) ([]uint8, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}

	out := make([]uint8, 0, LayerCells)
	for i := 0; i < len(raw); {
		id, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at byte %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at byte %d", i)
		}
		i += n

		if id > 0xFF {
			return nil, fmt.Errorf("palette id %d does not fit a layer cell", id)
		}
		if run == 0 || run > uint64(LayerCells-len(out)) {
			return nil, fmt.Errorf("run of %d overflows the layer at cell %d", run, len(out))
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint8(id))
		}
	}
	if len(out) != LayerCells {
		return nil, fmt.Errorf("layer has %d cells, want %d", len(out), LayerCells)
	}
	return out, nil
}
