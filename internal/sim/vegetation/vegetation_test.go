package vegetation

import (
	"math"
	"testing"
)

func TestPlantAt_Deterministic(t *testing.T) {
	a := NewSystem(42, DefaultRules())
	b := NewSystem(42, DefaultRules())

	for x := -30; x <= 30; x += 2 {
		for y := -30; y <= 30; y += 2 {
			pa := a.PlantAt(x, y, 0.4, 0.5, 0.6)
			if pb := b.PlantAt(x, y, 0.4, 0.5, 0.6); pa != pb {
				t.Fatalf("plant at (%d,%d) differs across instances: %v vs %v", x, y, pa, pb)
			}
			if again := a.PlantAt(x, y, 0.4, 0.5, 0.6); again != pa {
				t.Fatalf("cached plant at (%d,%d) flipped: %v vs %v", x, y, pa, again)
			}
		}
	}
}

func TestPlantAt_DensityGate(t *testing.T) {
	// DensityFactor 0 filters every position before compatibility runs,
	// even in a perfect environment.
	rules := DefaultRules()
	rules.DensityFactor = 0
	s := NewSystem(42, rules)

	for x := 0; x < 50; x++ {
		if p := s.PlantAt(x, 0, 0.4, 0.5, 0.6); p != None {
			t.Fatalf("plant %v placed with zero density factor", p)
		}
	}
}

func TestPlantAt_HostileEnvironment(t *testing.T) {
	rules := DefaultRules()
	rules.DensityFactor = 1 // pass the gate everywhere
	s := NewSystem(42, rules)

	// Height 0.95 is above every plant's survivable band.
	for x := 0; x < 50; x++ {
		if p := s.PlantAt(x, 0, 0.95, 0.5, 0.6); p != None {
			t.Fatalf("plant %v survived at height 0.95", p)
		}
	}
}

func TestPlantAt_WetLowlandFavorsWillow(t *testing.T) {
	rules := DefaultRules()
	rules.DensityFactor = 1
	s := NewSystem(42, rules)

	// Height 0.08, moisture 0.95: only willow's survivable bands contain
	// this environment, so every gated position must yield willow.
	for x := 0; x < 50; x++ {
		if p := s.PlantAt(x, 0, 0.08, 0.5, 0.95); p != Willow {
			t.Fatalf("expected willow at wet lowland, got %v", p)
		}
	}
}

func TestSuitability_IdealBeatsMarginal(t *testing.T) {
	s := NewSystem(42, DefaultRules())
	pine := envelopes[3]
	if pine.plant != Pine {
		t.Fatalf("envelope table order changed")
	}

	ideal := s.suitability(pine.env, 0.6, 0.4, 0.5)    // all axes ideal
	marginal := s.suitability(pine.env, 0.32, 0.65, 0.75) // all axes near the edge
	if ideal != 1 {
		t.Fatalf("ideal environment should score 1, got %v", ideal)
	}
	if marginal >= ideal {
		t.Fatalf("marginal environment scored %v, not below ideal", marginal)
	}
}

func TestFactorScore_Shape(t *testing.T) {
	ideal := [2]float64{0.4, 0.6}
	survive := [2]float64{0.2, 0.8}

	if got := factorScore(0.1, ideal, survive); got != 0 {
		t.Fatalf("below survivable: got %v", got)
	}
	if got := factorScore(0.5, ideal, survive); got != 1 {
		t.Fatalf("inside ideal: got %v", got)
	}
	if got := factorScore(0.3, ideal, survive); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("midpoint of lower ramp: got %v", got)
	}
	if got := factorScore(0.7, ideal, survive); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("midpoint of upper ramp: got %v", got)
	}
}

func TestDensityAt_Buckets(t *testing.T) {
	// Hostile environment: nothing grows, density must be the bottom
	// bucket.
	s := NewSystem(42, DefaultRules())
	if d := s.DensityAt(0, 0, 3, 0.95, 0.5, 0.6); d != DensityNone {
		t.Fatalf("hostile neighborhood classified %v", d)
	}

	// Guaranteed growth everywhere: the ratio is 1.0.
	rules := DefaultRules()
	rules.DensityFactor = 1
	lush := NewSystem(42, rules)
	if d := lush.DensityAt(0, 0, 3, 0.3, 0.5, 0.6); d != DensityVeryDense {
		t.Fatalf("saturated neighborhood classified %v", d)
	}
}

func TestDensityAt_Deterministic(t *testing.T) {
	a := NewSystem(7, DefaultRules())
	b := NewSystem(7, DefaultRules())
	if a.DensityAt(5, -3, 4, 0.35, 0.55, 0.6) != b.DensityAt(5, -3, 4, 0.35, 0.55, 0.6) {
		t.Fatalf("density differs across instances")
	}
}
