package water

import "testing"

// flatHeights builds a chunk-sized height map filled with a constant.
func flatHeights(size int, h float32) []float32 {
	m := make([]float32, size*size)
	for i := range m {
		m[i] = h
	}
	return m
}

// rampHeights slopes from high in the north-west to low in the south-east.
func rampHeights(size int, top, bottom float32) []float32 {
	m := make([]float32, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			t := float32(x+y) / float32(2*(size-1))
			m[y*size+x] = top + (bottom-top)*t
		}
	}
	return m
}

func TestHasWaterAt_DeterministicAndCached(t *testing.T) {
	a := NewManager(42, DefaultParams())
	b := NewManager(42, DefaultParams())

	for x := -20; x <= 20; x += 3 {
		for y := -20; y <= 20; y += 3 {
			first := a.HasWaterAt(x, y)
			if second := a.HasWaterAt(x, y); second != first {
				t.Fatalf("cached query at (%d,%d) flipped", x, y)
			}
			if b.HasWaterAt(x, y) != first {
				t.Fatalf("water presence at (%d,%d) differs across instances", x, y)
			}
		}
	}
}

func TestGenerateRiver_Deterministic(t *testing.T) {
	const size = 32
	heights := rampHeights(size, 0.7, 0.2)

	m1 := NewManager(42, DefaultParams())
	m2 := NewManager(42, DefaultParams())
	start := Vec2{X: 4, Y: 4}

	p1 := m1.GenerateRiver(start, heights, size)
	p2 := m2.GenerateRiver(start, heights, size)

	if len(p1) == 0 {
		t.Fatalf("river on a valid ramp produced no path")
	}
	if len(p1) != len(p2) {
		t.Fatalf("path lengths differ: %d vs %d", len(p1), len(p2))
	}
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatalf("paths diverge at step %d: %v vs %v", i, p1[i], p2[i])
		}
	}
}

func TestGenerateRiver_StopsOutsideHeightBand(t *testing.T) {
	const size = 32
	// Entire map above the river band: the walk should stop immediately
	// after the first step leaves the valid band.
	heights := flatHeights(size, 0.95)

	m := NewManager(42, DefaultParams())
	path := m.GenerateRiver(Vec2{X: 16, Y: 16}, heights, size)
	if len(path) > 2 {
		t.Fatalf("river kept flowing above max height band: %d points", len(path))
	}
}

func TestGenerateRiver_Bounded(t *testing.T) {
	const size = 32
	heights := flatHeights(size, 0.4) // plateau: no descent anywhere

	m := NewManager(42, DefaultParams())
	path := m.GenerateRiver(Vec2{X: 16, Y: 16}, heights, size)

	// Branches may extend the raw point count, but the trunk is capped;
	// a runaway loop would produce orders of magnitude more points.
	if len(path) == 0 || len(path) > maxRiverSteps*20 {
		t.Fatalf("suspicious path length on plateau: %d", len(path))
	}
}

func TestGenerateLake_RespectsBasinShape(t *testing.T) {
	const size = 32
	heights := flatHeights(size, 0.3)
	// Raise a wall well above center + depth_variation.
	for y := 0; y < size; y++ {
		for x := 20; x < size; x++ {
			heights[y*size+x] = 0.9
		}
	}

	m := NewManager(42, DefaultParams())
	points := m.GenerateLake(Vec2{X: 10, Y: 16}, heights, size)
	if len(points) == 0 {
		t.Fatalf("no lake grown in a flat basin")
	}
	for _, p := range points {
		if p.X >= 20 {
			t.Fatalf("lake climbed the wall at %v", p)
		}
		if p.X < 0 || p.X >= size || p.Y < 0 || p.Y >= size {
			t.Fatalf("lake point out of chunk: %v", p)
		}
	}
}

func TestGenerateWaterfall_HardPreconditions(t *testing.T) {
	const size = 32
	m := NewManager(42, DefaultParams())

	// Flat map: slope 0, drop 0 -> no waterfall even with huge drop params.
	if _, ok := m.GenerateWaterfall(Vec2{X: 16, Y: 16}, flatHeights(size, 0.5), size); ok {
		t.Fatalf("waterfall on flat ground")
	}

	// Cliff: column x<16 high, x>=16 low. Slope and drop both clear.
	cliff := flatHeights(size, 0.2)
	for y := 0; y < size; y++ {
		for x := 0; x < 16; x++ {
			cliff[y*size+x] = 3.0
		}
	}
	wf, ok := m.GenerateWaterfall(Vec2{X: 15, Y: 16}, cliff, size)
	if !ok {
		t.Fatalf("no waterfall at cliff edge")
	}
	if wf.Height < m.Params().Waterfall.MinHeight || wf.Height > m.Params().Waterfall.MaxHeight {
		t.Fatalf("waterfall height out of range: %v", wf.Height)
	}
	if wf.FlowStrength <= 0 {
		t.Fatalf("waterfall flow strength not scaled: %v", wf.FlowStrength)
	}

	// Gentle long ramp: large total drop but slope below threshold.
	gentle := make([]float32, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			gentle[y*size+x] = 0.8 - 0.01*float32(x)
		}
	}
	if _, ok := m.GenerateWaterfall(Vec2{X: 16, Y: 16}, gentle, size); ok {
		t.Fatalf("waterfall formed on a gentle slope")
	}
}

func TestHighlandParams_Distinct(t *testing.T) {
	d := DefaultParams()
	h := HighlandParams()
	if h.River == d.River || h.Lake == d.Lake {
		t.Fatalf("highland preset equals default")
	}
}
