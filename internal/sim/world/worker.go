package world

import (
	"driftworld/internal/sim/chunk"
	"driftworld/internal/sim/climate"
	"driftworld/internal/sim/terrain"
)

type jobKind uint8

const (
	jobLoad jobKind = iota + 1
	jobSave
)

type job struct {
	kind  jobKind
	coord chunk.Coord
	data  *chunk.Data
	tick  uint64

	// season is snapshotted by the world loop at dispatch so workers
	// never read the climate system's mutable season field.
	season climate.Season
}

// workerLoop services load and save jobs until the jobs channel closes.
// It only calls pure generator methods and the store; all mutable world
// state stays with the loop goroutine.
func (w *World) workerLoop() {
	for j := range w.jobs {
		switch j.kind {
		case jobLoad:
			w.completions <- w.materialize(j.coord, j.season)
		case jobSave:
			w.saveChunk(j.coord, j.data, j.tick)
		}
	}
}

// materialize produces chunk data for a coordinate: from disk when a
// valid file exists, regenerated otherwise. A corrupt or unreadable file
// is not fatal; the chunk is rebuilt from the seed and the failure is
// reported as a warning.
func (w *World) materialize(c chunk.Coord, season climate.Season) completion {
	if w.store != nil {
		d, err := w.store.Load(c)
		switch {
		case err == nil:
			return completion{coord: c, data: d, fromDisk: true}
		case isNotExist(err):
			// First visit, fall through to generation.
		default:
			return completion{coord: c, data: w.generate(c, season), warn: err}
		}
	}
	return completion{coord: c, data: w.generate(c, season)}
}

// generate builds a chunk from the seeded generators alone. Every method
// used here is cache-free, so any number of workers can generate
// concurrently and two generations of the same coordinate are identical.
func (w *World) generate(c chunk.Coord, season climate.Season) *chunk.Data {
	d := chunk.NewData()
	baseX := c.X * chunk.Size
	baseY := c.Y * chunk.Size

	for ly := 0; ly < chunk.Size; ly++ {
		for lx := 0; lx < chunk.Size; lx++ {
			wx, wy := baseX+lx, baseY+ly
			fx, fy := float64(wx), float64(wy)

			h := w.terrain.GenerateHeight(fx, fy)
			tile := w.terrain.TileTypeAt(h, fx, fy)
			if w.water.SampleWater(wx, wy) {
				tile = terrain.Water
			}

			d.SetHeight(lx, ly, float32(h))
			d.SetTile(lx, ly, uint8(tile))

			if tile != terrain.Water {
				t, m := w.climate.Compute(wx, wy, season)
				d.SetDecoration(lx, ly, uint8(w.vegetation.Sample(wx, wy, h, t, m)))
			}
		}
	}

	// Freshly generated content is not an edit; only player-visible
	// mutations should trigger a save on eviction.
	d.Modified = false
	return d
}
