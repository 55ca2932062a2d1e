// Package vegetation places plants by environment compatibility. Every
// position draws from its own hash-seeded random stream, so placement is
// reproducible regardless of query order.
package vegetation

import (
	"math"
	"sort"

	"driftworld/internal/sim/mathx"
)

// Plant identifies a vegetation type. Zero means no plant, which lets a
// Plant value double as a chunk decoration id.
type Plant uint8

const (
	None Plant = iota
	Grass
	Flower
	Bamboo
	Pine
	Maple
	Willow
)

func (p Plant) String() string {
	switch p {
	case None:
		return "none"
	case Grass:
		return "grass"
	case Flower:
		return "flower"
	case Bamboo:
		return "bamboo"
	case Pine:
		return "pine"
	case Maple:
		return "maple"
	case Willow:
		return "willow"
	default:
		return "unknown"
	}
}

// Density buckets the plant coverage of a neighborhood.
type Density uint8

const (
	DensityNone Density = iota
	DensitySparse
	DensityMedium
	DensityDense
	DensityVeryDense
)

func (d Density) String() string {
	switch d {
	case DensityNone:
		return "none"
	case DensitySparse:
		return "sparse"
	case DensityMedium:
		return "medium"
	case DensityDense:
		return "dense"
	case DensityVeryDense:
		return "very_dense"
	default:
		return "unknown"
	}
}

// envelope holds a plant's ideal and survivable ranges for each
// environment axis. Outside the survivable range the plant cannot appear
// at all; inside it, suitability ramps linearly toward the ideal band.
type envelope struct {
	idealHeight [2]float64
	heightRange [2]float64
	idealTemp   [2]float64
	tempRange   [2]float64
	idealMoist  [2]float64
	moistRange  [2]float64
}

// envelopes is ordered; candidate enumeration must not depend on map
// iteration order or generation stops being reproducible.
var envelopes = []struct {
	plant Plant
	env   envelope
}{
	{Grass, envelope{
		idealHeight: [2]float64{0.2, 0.6}, heightRange: [2]float64{0.1, 0.7},
		idealTemp: [2]float64{0.3, 0.8}, tempRange: [2]float64{0.2, 0.9},
		idealMoist: [2]float64{0.4, 0.7}, moistRange: [2]float64{0.2, 0.9},
	}},
	{Flower, envelope{
		idealHeight: [2]float64{0.25, 0.5}, heightRange: [2]float64{0.2, 0.6},
		idealTemp: [2]float64{0.4, 0.7}, tempRange: [2]float64{0.3, 0.8},
		idealMoist: [2]float64{0.5, 0.8}, moistRange: [2]float64{0.4, 0.9},
	}},
	{Bamboo, envelope{
		idealHeight: [2]float64{0.3, 0.5}, heightRange: [2]float64{0.2, 0.6},
		idealTemp: [2]float64{0.5, 0.8}, tempRange: [2]float64{0.4, 0.9},
		idealMoist: [2]float64{0.6, 0.9}, moistRange: [2]float64{0.5, 1.0},
	}},
	{Pine, envelope{
		idealHeight: [2]float64{0.4, 0.8}, heightRange: [2]float64{0.3, 0.9},
		idealTemp: [2]float64{0.2, 0.6}, tempRange: [2]float64{0.1, 0.7},
		idealMoist: [2]float64{0.3, 0.7}, moistRange: [2]float64{0.2, 0.8},
	}},
	{Maple, envelope{
		idealHeight: [2]float64{0.3, 0.6}, heightRange: [2]float64{0.2, 0.7},
		idealTemp: [2]float64{0.4, 0.7}, tempRange: [2]float64{0.3, 0.8},
		idealMoist: [2]float64{0.4, 0.7}, moistRange: [2]float64{0.3, 0.8},
	}},
	{Willow, envelope{
		idealHeight: [2]float64{0.1, 0.4}, heightRange: [2]float64{0.05, 0.5},
		idealTemp: [2]float64{0.4, 0.7}, tempRange: [2]float64{0.3, 0.8},
		idealMoist: [2]float64{0.7, 1.0}, moistRange: [2]float64{0.6, 1.0},
	}},
}

// Rules tunes global vegetation behavior.
type Rules struct {
	// DensityFactor gates what fraction of positions host any plant.
	DensityFactor float64 `yaml:"density_factor"`
	// ClusterRatio biases plants toward group distribution.
	ClusterRatio float64 `yaml:"cluster_ratio"`
	// EnvironmentSensitivity sharpens how strongly suitability scores
	// separate candidates. Higher means pickier.
	EnvironmentSensitivity float64 `yaml:"environment_sensitivity"`
	// Variation adds placement randomness.
	Variation float64 `yaml:"variation"`
}

func DefaultRules() Rules {
	return Rules{
		DensityFactor:          0.5,
		ClusterRatio:           0.3,
		EnvironmentSensitivity: 0.6,
		Variation:              0.2,
	}
}

// System resolves the plant at any position. Cached results are stored in
// place; only the world-loop goroutine may use a System.
type System struct {
	rules Rules
	seed  int64

	cache map[[2]int]Plant
}

func NewSystem(seed int64, rules Rules) *System {
	return &System{
		rules: rules,
		seed:  seed,
		cache: make(map[[2]int]Plant),
	}
}

func (s *System) Rules() Rules { return s.rules }

// PlantAt returns the plant at (x, y) given that cell's environment, or
// None. The first random draw is the density gate; the second is the
// weighted lottery across compatible plants. Both draws come from the
// position's own stream.
func (s *System) PlantAt(x, y int, height, temperature, moisture float64) Plant {
	k := [2]int{x, y}
	if p, ok := s.cache[k]; ok {
		return p
	}
	p := s.Sample(x, y, height, temperature, moisture)
	s.cache[k] = p
	return p
}

// Sample resolves a plant without the cache. It has no mutable state, so
// generation workers may call it concurrently.
func (s *System) Sample(x, y int, height, temperature, moisture float64) Plant {
	return s.resolve(x, y, height, temperature, moisture)
}

func (s *System) resolve(x, y int, height, temperature, moisture float64) Plant {
	rng := mathx.NewRand(mathx.Hash2(s.seed, x, y))

	if rng.Float64() > s.rules.DensityFactor {
		return None
	}

	type candidate struct {
		plant  Plant
		weight float64
	}
	var candidates []candidate
	for _, e := range envelopes {
		if !survivable(e.env, height, temperature, moisture) {
			continue
		}
		candidates = append(candidates, candidate{e.plant, s.suitability(e.env, height, temperature, moisture)})
	}
	if len(candidates) == 0 {
		return None
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].weight > candidates[j].weight
	})

	total := 0.0
	for _, c := range candidates {
		total += c.weight
	}
	pick := rng.Float64() * total

	cumulative := 0.0
	for _, c := range candidates {
		cumulative += c.weight
		if pick <= cumulative {
			return c.plant
		}
	}
	return candidates[0].plant
}

// DensityAt classifies plant coverage in the square neighborhood of
// radius r around (x, y), sampled against a single shared environment.
func (s *System) DensityAt(x, y, radius int, height, temperature, moisture float64) Density {
	count := 0
	side := 2*radius + 1
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			if s.PlantAt(x+dx, y+dy, height, temperature, moisture) != None {
				count++
			}
		}
	}

	ratio := float64(count) / float64(side*side)
	switch {
	case ratio < 0.05:
		return DensityNone
	case ratio < 0.2:
		return DensitySparse
	case ratio < 0.4:
		return DensityMedium
	case ratio < 0.7:
		return DensityDense
	default:
		return DensityVeryDense
	}
}

func survivable(e envelope, height, temperature, moisture float64) bool {
	return height >= e.heightRange[0] && height <= e.heightRange[1] &&
		temperature >= e.tempRange[0] && temperature <= e.tempRange[1] &&
		moisture >= e.moistRange[0] && moisture <= e.moistRange[1]
}

// suitability combines the three per-axis scores by geometric mean, then
// raises the result to the environment sensitivity exponent.
func (s *System) suitability(e envelope, height, temperature, moisture float64) float64 {
	h := factorScore(height, e.idealHeight, e.heightRange)
	t := factorScore(temperature, e.idealTemp, e.tempRange)
	m := factorScore(moisture, e.idealMoist, e.moistRange)
	combined := math.Pow(h*t*m, 1.0/3.0)
	return math.Pow(combined, s.rules.EnvironmentSensitivity)
}

// factorScore is 1 inside the ideal band, 0 outside the survivable band,
// linear in between.
func factorScore(value float64, ideal, survive [2]float64) float64 {
	if value < survive[0] || value > survive[1] {
		return 0
	}
	if value >= ideal[0] && value <= ideal[1] {
		return 1
	}
	if value < ideal[0] {
		return (value - survive[0]) / (ideal[0] - survive[0])
	}
	return (survive[1] - value) / (survive[1] - ideal[1])
}
