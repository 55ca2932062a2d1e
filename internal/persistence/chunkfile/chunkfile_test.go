package chunkfile

import (
	"errors"
	"os"
	"testing"

	"driftworld/internal/sim/chunk"
)

func testData() *chunk.Data {
	d := chunk.NewData()
	for i := range d.Tiles {
		d.Tiles[i] = uint8(i % 7)
		d.Heights[i] = float32(i) * 0.01
		d.Decorations[i] = uint8(i % 3)
	}
	d.Modified = true
	return d
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	c := chunk.Coord{X: -3, Y: 12}
	want := testData()

	n, err := s.Save(c, want)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n <= 0 {
		t.Fatalf("reported size %d", n)
	}

	got, err := s.Load(c)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("round trip mismatch")
	}
}

func TestLoad_Missing(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	_, err = s.Load(chunk.Coord{X: 1, Y: 1})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing chunk: got %v, want ErrNotExist", err)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	c := chunk.Coord{X: 0, Y: 0}
	if err := os.WriteFile(s.Path(c), []byte("not zstd at all"), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	_, err = s.Load(c)
	if !errors.Is(err, chunk.ErrCorrupt) {
		t.Fatalf("garbage file: got %v, want ErrCorrupt", err)
	}
}

func TestSave_Overwrite(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	c := chunk.Coord{X: 5, Y: 5}
	first := testData()
	if _, err := s.Save(c, first); err != nil {
		t.Fatalf("first save: %v", err)
	}

	second := chunk.NewData()
	second.SetTile(0, 0, 9)
	if _, err := s.Save(c, second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := s.Load(c)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Equal(second) {
		t.Fatalf("overwrite did not replace content")
	}
}

func TestDelete_And_Exists(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	c := chunk.Coord{X: 2, Y: -2}
	if s.Exists(c) {
		t.Fatalf("chunk exists before save")
	}
	if err := s.Delete(c); err != nil {
		t.Fatalf("deleting absent chunk: %v", err)
	}

	if _, err := s.Save(c, testData()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !s.Exists(c) {
		t.Fatalf("chunk missing after save")
	}
	if err := s.Delete(c); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Exists(c) {
		t.Fatalf("chunk still exists after delete")
	}
}
