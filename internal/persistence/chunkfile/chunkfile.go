// Package chunkfile stores one zstd-compressed chunk per file. A missing
// file means "no persisted data"; corrupt bytes surface chunk.ErrCorrupt
// so the caller regenerates instead of aborting.
package chunkfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"driftworld/internal/sim/chunk"
)

// Store reads and writes chunk files under a fixed directory.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("chunkfile: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// Path returns the file a chunk coordinate maps to.
func (s *Store) Path(c chunk.Coord) string {
	return filepath.Join(s.dir, fmt.Sprintf("chunk_%d_%d.zst", c.X, c.Y))
}

// Save writes a chunk, replacing any previous file. The write goes to a
// temp file first so a crash cannot leave a truncated chunk behind.
func (s *Store) Save(c chunk.Coord, d *chunk.Data) (int, error) {
	raw := chunk.Encode(d)

	tmp, err := os.CreateTemp(s.dir, "chunk_*.tmp")
	if err != nil {
		return 0, fmt.Errorf("chunkfile save %v: %w", c, err)
	}
	defer os.Remove(tmp.Name())

	enc, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("chunkfile save %v: %w", c, err)
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		tmp.Close()
		return 0, fmt.Errorf("chunkfile save %v: %w", c, err)
	}
	if err := enc.Close(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("chunkfile save %v: %w", c, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("chunkfile save %v: %w", c, err)
	}

	info, err := os.Stat(tmp.Name())
	if err != nil {
		return 0, fmt.Errorf("chunkfile save %v: %w", c, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(c)); err != nil {
		return 0, fmt.Errorf("chunkfile save %v: %w", c, err)
	}
	return int(info.Size()), nil
}

// Load reads a chunk back. A missing file returns os.ErrNotExist (via the
// wrapped error); undecodable content returns chunk.ErrCorrupt.
func (s *Store) Load(c chunk.Coord) (*chunk.Data, error) {
	f, err := os.Open(s.Path(c))
	if err != nil {
		return nil, fmt.Errorf("chunkfile load %v: %w", c, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("chunkfile load %v: %w", c, chunk.ErrCorrupt)
	}
	defer dec.Close()

	raw, err := io.ReadAll(io.LimitReader(dec, chunk.EncodedLen+1))
	if err != nil {
		return nil, fmt.Errorf("chunkfile load %v: %w", c, chunk.ErrCorrupt)
	}

	d, err := chunk.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("chunkfile load %v: %w", c, err)
	}
	return d, nil
}

// Delete removes a chunk file. Deleting a chunk that was never saved is
// not an error.
func (s *Store) Delete(c chunk.Coord) error {
	err := os.Remove(s.Path(c))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("chunkfile delete %v: %w", c, err)
	}
	return nil
}

// Exists reports whether a chunk has a persisted file.
func (s *Store) Exists(c chunk.Coord) bool {
	_, err := os.Stat(s.Path(c))
	return err == nil
}
