package encoding

import (
	"encoding/base64"
	"encoding/binary"
	"strings"
	"testing"
)

// testLayer mimics generated terrain: large uniform patches with a few
// single-cell features scattered through them.
func testLayer() []uint8 {
	layer := make([]uint8, LayerCells)
	for i := range layer {
		switch {
		case i < 300:
			layer[i] = 1
		case i < 700:
			layer[i] = 4
		default:
			layer[i] = 9
		}
	}
	layer[50] = 7
	layer[699] = 2
	layer[LayerCells-1] = 3
	return layer
}

func TestLayer_RoundTrip(t *testing.T) {
	in := testLayer()
	enc := EncodeLayer(in)
	out, err := DecodeLayer(enc)
	if err != nil {
		t.Fatalf("DecodeLayer: %v", err)
	}
	if len(out) != LayerCells {
		t.Fatalf("len = %d, want %d", len(out), LayerCells)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("cell %d: got %d want %d", i, out[i], in[i])
		}
	}
}

func TestLayer_UniformCompressesToOnePair(t *testing.T) {
	enc := EncodeLayer(make([]uint8, LayerCells))
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		t.Fatalf("base64: %v", err)
	}
	// One id byte plus the varint for 1024.
	if len(raw) != 3 {
		t.Fatalf("uniform layer encoded to %d bytes, want 3", len(raw))
	}
}

func TestDecodeLayer_RejectsMalformedInput(t *testing.T) {
	pair := func(id, run uint64) []byte {
		var tmp [binary.MaxVarintLen64]byte
		n := binary.PutUvarint(tmp[:], id)
		b := append([]byte(nil), tmp[:n]...)
		n = binary.PutUvarint(tmp[:], run)
		return append(b, tmp[:n]...)
	}
	b64 := func(raw []byte) string { return base64.StdEncoding.EncodeToString(raw) }

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"not base64", "%%%", "illegal base64"},
		{"truncated pair", b64(pair(3, 1024)[:1]), "bad varint"},
		{"id too wide", b64(pair(300, 1024)), "does not fit"},
		{"zero run", b64(append(pair(1, 0), pair(2, 1024)...)), "overflows"},
		{"run past layer end", b64(pair(1, 1025)), "overflows"},
		{"short layer", b64(pair(1, 1023)), "1023 cells"},
	}
	for _, c := range cases {
		_, err := DecodeLayer(c.in)
		if err == nil {
			t.Fatalf("%s: accepted", c.name)
		}
		if !strings.Contains(err.Error(), c.want) {
			t.Fatalf("%s: error %q does not mention %q", c.name, err, c.want)
		}
	}
}
