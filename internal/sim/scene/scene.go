// Package scene places discrete point-of-interest features. Authored
// placements always win; generated candidates pass an environment filter,
// a minimum-separation check against everything already placed, and a
// weighted lottery seeded from the position.
package scene

import (
	"fmt"
	"sort"

	"driftworld/internal/sim/mathx"
	"driftworld/internal/sim/terrain"
)

// Type identifies a scene feature.
type Type uint8

const (
	Village Type = iota + 1
	Town
	City
	Temple
	Waterfall
	Lake
	Forest
	Mountain
	Cave
	BattleField
	SecretRealm
)

func (t Type) String() string {
	switch t {
	case Village:
		return "village"
	case Town:
		return "town"
	case City:
		return "city"
	case Temple:
		return "temple"
	case Waterfall:
		return "waterfall"
	case Lake:
		return "lake"
	case Forest:
		return "forest"
	case Mountain:
		return "mountain"
	case Cave:
		return "cave"
	case BattleField:
		return "battlefield"
	case SecretRealm:
		return "secret_realm"
	default:
		return "unknown"
	}
}

// ParseType maps a scene name back to its Type.
func ParseType(s string) (Type, bool) {
	for t := Village; t <= SecretRealm; t++ {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}

// Fixed is an authored scene placement. Fixed scenes take precedence over
// generation and seed the separation constraint set.
type Fixed struct {
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
	Type string `yaml:"type"`
}

// Rules tunes scene distribution.
type Rules struct {
	// Density scales how often generated candidates survive, 0 to 1.
	Density float64 `yaml:"density"`
	// MinDistance is the minimum euclidean separation between scenes.
	MinDistance float64 `yaml:"min_distance"`
	// TypeWeights adds always-eligible candidates with the given lottery
	// weight, keyed by scene name.
	TypeWeights map[string]float64 `yaml:"type_weights"`
	// Fixed lists authored placements.
	Fixed []Fixed `yaml:"fixed"`
}

func DefaultRules() Rules {
	return Rules{
		Density:     0.5,
		MinDistance: 100,
	}
}

// Validate rejects rule values that would misbehave silently later.
func (r Rules) Validate() error {
	if r.Density < 0 || r.Density > 1 {
		return fmt.Errorf("scene density %v outside [0, 1]", r.Density)
	}
	if r.MinDistance < 0 {
		return fmt.Errorf("scene min_distance %v is negative", r.MinDistance)
	}
	for name := range r.TypeWeights {
		if _, ok := ParseType(name); !ok {
			return fmt.Errorf("unknown scene type %q in type_weights", name)
		}
	}
	for _, f := range r.Fixed {
		if _, ok := ParseType(f.Type); !ok {
			return fmt.Errorf("unknown scene type %q in fixed placements", f.Type)
		}
	}
	return nil
}

// Env is the local environment a placement decision reads.
type Env struct {
	Height      float64
	Temperature float64
	Moisture    float64
	Slope       float64
	Band        terrain.Band
}

// Placer resolves scenes position by position. Chosen positions join the
// separation constraint set, so later queries in the same pass respect
// earlier placements. Single world-loop goroutine only.
type Placer struct {
	rules Rules
	seed  int64

	fixed   map[[2]int]Type
	chosen  map[[2]int]Type
	placed  [][2]int
	weights []weighted
}

type weighted struct {
	t Type
	w float64
}

func NewPlacer(seed int64, rules Rules) (*Placer, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	p := &Placer{
		rules:  rules,
		seed:   seed,
		fixed:  make(map[[2]int]Type, len(rules.Fixed)),
		chosen: make(map[[2]int]Type),
	}
	for _, f := range rules.Fixed {
		t, _ := ParseType(f.Type)
		p.fixed[[2]int{f.X, f.Y}] = t
		p.placed = append(p.placed, [2]int{f.X, f.Y})
	}

	// Configured weights are applied in a fixed order so the lottery is
	// reproducible.
	for name, w := range rules.TypeWeights {
		t, _ := ParseType(name)
		p.weights = append(p.weights, weighted{t, w})
	}
	sort.Slice(p.weights, func(i, j int) bool { return p.weights[i].t < p.weights[j].t })

	return p, nil
}

// SceneAt decides the scene at (x, y), if any. Repeated queries of the
// same cell return the same answer: a chosen placement is remembered, so
// it does not trip the separation check against itself.
func (p *Placer) SceneAt(x, y int, env Env) (Type, bool) {
	if t, ok := p.fixed[[2]int{x, y}]; ok {
		return t, true
	}
	if t, ok := p.chosen[[2]int{x, y}]; ok {
		return t, true
	}

	if !p.farEnough(x, y) {
		return 0, false
	}

	rng := mathx.NewRand(mathx.Hash2(p.seed, x, y))

	// The density gate thins generated scenes before any candidate work.
	if rng.Float64() >= p.rules.Density {
		return 0, false
	}

	candidates := p.environmentCandidates(env)
	candidates = append(candidates, p.weights...)
	if len(candidates) == 0 {
		return 0, false
	}

	total := 0.0
	for _, c := range candidates {
		total += c.w
	}
	pick := rng.Float64() * total

	cumulative := 0.0
	for _, c := range candidates {
		cumulative += c.w
		if pick <= cumulative {
			p.chosen[[2]int{x, y}] = c.t
			p.placed = append(p.placed, [2]int{x, y})
			return c.t, true
		}
	}
	return 0, false
}

// environmentCandidates proposes scene types the local terrain supports.
func (p *Placer) environmentCandidates(env Env) []weighted {
	var out []weighted
	switch env.Band {
	case terrain.Peak:
		if env.Height > 0.85 {
			out = append(out, weighted{Temple, 10})
		}
	case terrain.Plain:
		out = append(out, weighted{Village, 5})
		if env.Height > 0.25 && env.Height < 0.35 {
			out = append(out, weighted{Town, 3})
		}
	case terrain.Valley:
		if env.Moisture > 0.8 {
			out = append(out, weighted{Lake, 8})
		}
	case terrain.MountainBand:
		if env.Slope > 0.7 {
			out = append(out, weighted{Waterfall, 7})
		}
	}
	return out
}

// farEnough checks squared euclidean distance against every placement
// made so far, authored ones included.
func (p *Placer) farEnough(x, y int) bool {
	minSq := p.rules.MinDistance * p.rules.MinDistance
	for _, q := range p.placed {
		dx := float64(x - q[0])
		dy := float64(y - q[1])
		if dx*dx+dy*dy < minSq {
			return false
		}
	}
	return true
}
