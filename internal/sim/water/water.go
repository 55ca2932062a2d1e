// Package water traces rivers by steepest descent, grows lakes by
// noise-perturbed flood fill, and classifies waterfalls from local slope
// and height drop.
package water

import (
	"math"

	"driftworld/internal/sim/mathx"
	"driftworld/internal/sim/noise"
)

// Vec2 is a continuous position inside a chunk-local height map.
type Vec2 struct {
	X float64
	Y float64
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

func (v Vec2) Distance(o Vec2) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func fromAngle(a float64) Vec2 { return Vec2{math.Cos(a), math.Sin(a)} }

func (v Vec2) Angle() float64 { return math.Atan2(v.Y, v.X) }

// RiverParams controls steepest-descent river tracing.
type RiverParams struct {
	MinWidth          int     `yaml:"min_width"`
	MaxWidth          int     `yaml:"max_width"`
	Meandering        float64 `yaml:"meandering"`
	BranchProbability float64 `yaml:"branch_probability"`
	MaxBranches       int     `yaml:"max_branches"`
}

// LakeParams controls flood-fill lake growth.
type LakeParams struct {
	Frequency       float64 `yaml:"frequency"`
	MinSize         int     `yaml:"min_size"`
	MaxSize         int     `yaml:"max_size"`
	DepthVariation  float64 `yaml:"depth_variation"`
	ShoreComplexity float64 `yaml:"shore_complexity"`
}

// WaterfallParams holds the hard preconditions and flow scaling.
type WaterfallParams struct {
	MinHeight    float64 `yaml:"min_height"`
	MaxHeight    float64 `yaml:"max_height"`
	MinSlope     float64 `yaml:"min_slope"`
	FlowStrength float64 `yaml:"flow_strength"`
	SplashRange  float64 `yaml:"splash_range"`
}

// Params bundles the three water feature configs plus the presence signal.
type Params struct {
	River     RiverParams     `yaml:"river"`
	Lake      LakeParams      `yaml:"lake"`
	Waterfall WaterfallParams `yaml:"waterfall"`

	// PresenceThreshold: noise below this value means "has water". This
	// is a second, coarser signal than terrain's Water tile and is
	// allowed to disagree with it.
	PresenceThreshold float64 `yaml:"presence_threshold"`
}

func DefaultParams() Params {
	return Params{
		River: RiverParams{
			MinWidth:          1,
			MaxWidth:          3,
			Meandering:        0.3,
			BranchProbability: 0.15,
			MaxBranches:       2,
		},
		Lake: LakeParams{
			Frequency:       0.05,
			MinSize:         5,
			MaxSize:         15,
			DepthVariation:  0.2,
			ShoreComplexity: 0.3,
		},
		Waterfall: WaterfallParams{
			MinHeight:    1.0,
			MaxHeight:    5.0,
			MinSlope:     0.6,
			FlowStrength: 1.0,
			SplashRange:  2.0,
		},
		PresenceThreshold: -0.4,
	}
}

// HighlandParams widens meanders and roughens lake shores; tuned for
// mountainous maps.
func HighlandParams() Params {
	p := DefaultParams()
	p.River = RiverParams{
		MinWidth:          2,
		MaxWidth:          5,
		Meandering:        0.4,
		BranchProbability: 0.2,
		MaxBranches:       3,
	}
	p.Lake = LakeParams{
		Frequency:       0.08,
		MinSize:         8,
		MaxSize:         20,
		DepthVariation:  0.3,
		ShoreComplexity: 0.5,
	}
	p.Waterfall = WaterfallParams{
		MinHeight:    1.5,
		MaxHeight:    8.0,
		MinSlope:     0.7,
		FlowStrength: 1.5,
		SplashRange:  3.0,
	}
	return p
}

// Rivers only exist inside this height band; outside it a trace stops.
const (
	minRiverHeight = 0.1
	maxRiverHeight = 0.8
)

// maxRiverSteps bounds a trunk trace so noise plateaux cannot loop forever.
const maxRiverSteps = 100

// Waterfall is a classified waterfall site.
type Waterfall struct {
	Position     Vec2
	Height       float64
	FlowStrength float64
	SplashRange  float64
}

// Manager owns the water presence cache and feature generators.
//
// The presence cache is mutated in place under the single-writer
// discipline: only the world-loop goroutine may call into a Manager.
type Manager struct {
	params Params
	seed   int64

	presence *noise.Field
	shore    *noise.Field

	cache map[[2]int]bool
}

func NewManager(seed int64, params Params) *Manager {
	return &Manager{
		params:   params,
		seed:     seed,
		presence: noise.New(seed),
		shore:    noise.New(seed + 1),
		cache:    make(map[[2]int]bool),
	}
}

func (m *Manager) Params() Params { return m.params }

// HasWaterAt reports the coarse water-presence signal for a world cell.
func (m *Manager) HasWaterAt(x, y int) bool {
	k := [2]int{x, y}
	if v, ok := m.cache[k]; ok {
		return v
	}
	v := m.SampleWater(x, y)
	m.cache[k] = v
	return v
}

// SampleWater computes water presence without the cache. Safe to call
// from generation workers; the noise field is immutable.
func (m *Manager) SampleWater(x, y int) bool {
	return m.presence.Sample(float64(x)*0.02, float64(y)*0.02) < m.params.PresenceThreshold
}

// GenerateRiver walks downhill from start across the given height map,
// adding bounded meander to the descent direction, and spawning side
// branches with configured probability. The walk is deterministic for a
// fixed (seed, start).
func (m *Manager) GenerateRiver(start Vec2, heights []float32, chunkSize int) []Vec2 {
	var path []Vec2
	current := start
	rng := mathx.NewRand(mathx.Hash2(m.seed, int(start.X), int(start.Y)))

	for len(path) < maxRiverSteps {
		path = append(path, current)

		flowAngle := m.flowAngle(current, heights, chunkSize)
		meander := rng.Range(-m.params.River.Meandering, m.params.River.Meandering)
		current = current.Add(fromAngle(flowAngle + meander))

		if !m.validRiverPoint(current, heights, chunkSize) {
			break
		}

		if rng.Float64() < m.params.River.BranchProbability {
			branches := 1 + rng.IntN(m.params.River.MaxBranches)
			for i := 0; i < branches; i++ {
				path = append(path, m.generateBranch(current, heights, chunkSize, rng)...)
			}
		}
	}

	return path
}

// generateBranch walks a shorter, more meandering side channel whose
// direction blends local descent with a fixed branch angle (70/30), so
// branches stay visually distinct from the trunk while flowing downhill.
func (m *Manager) generateBranch(start Vec2, heights []float32, chunkSize int, rng *mathx.Rand) []Vec2 {
	var path []Vec2
	current := start

	maxLength := m.params.River.MaxWidth * 3
	branchAngle := rng.Range(0, 2*math.Pi)
	branchWidth := float64(m.params.River.MinWidth) +
		rng.Float64()*float64(m.params.River.MaxWidth/2-m.params.River.MinWidth+1)

	stepSize := 0.5 + branchWidth/5
	branchLength := int(float64(maxLength) * (0.5 + branchWidth/float64(m.params.River.MaxWidth)))

	for len(path) < branchLength && m.validRiverPoint(current, heights, chunkSize) {
		path = append(path, current)

		flowAngle := m.flowAngle(current, heights, chunkSize)

		// Narrow channels meander harder.
		meanderFactor := m.params.River.Meandering *
			(1 + (float64(m.params.River.MaxWidth)-branchWidth)/float64(m.params.River.MaxWidth))
		meander := rng.Range(-meanderFactor, meanderFactor)

		combined := flowAngle*0.7 + branchAngle*0.3 + meander
		current = current.Add(fromAngle(combined).Scale(stepSize))
	}

	return path
}

// GenerateLake grows an irregular lake region around center. Cells join if
// their height stays within depth_variation of the center and they fall
// inside a radius modulated by shore noise and by how much higher than the
// center they sit.
func (m *Manager) GenerateLake(center Vec2, heights []float32, chunkSize int) []Vec2 {
	var points []Vec2
	rng := mathx.NewRand(mathx.Hash2(m.seed+1, int(center.X), int(center.Y)))

	centerHeight := m.heightAt(center, heights, chunkSize)

	// Unsuitable (high) centers still produce a lake, just a smaller one.
	sizeFactor := 1.0
	if centerHeight >= 0.4 {
		sizeFactor = 0.6
	}
	minSize := int(float64(m.params.Lake.MinSize) * sizeFactor)
	maxSize := int(float64(m.params.Lake.MaxSize) * sizeFactor)
	size := minSize
	if maxSize > minSize {
		size += rng.IntN(maxSize - minSize + 1)
	}

	scale := m.params.Lake.ShoreComplexity

	for dx := -size; dx <= size; dx++ {
		for dy := -size; dy <= size; dy++ {
			point := center.Add(Vec2{float64(dx), float64(dy)})
			if point.X < 0 || point.X >= float64(chunkSize) || point.Y < 0 || point.Y >= float64(chunkSize) {
				continue
			}

			pointHeight := m.heightAt(point, heights, chunkSize)
			if pointHeight > centerHeight+m.params.Lake.DepthVariation {
				continue
			}

			distance := point.Distance(center)
			shoreNoise := m.shore.Sample(point.X*scale, point.Y*scale)

			// Higher ground pulls the shoreline inward.
			heightFactor := 1 - math.Max((pointHeight-centerHeight)/m.params.Lake.DepthVariation, 0)
			effectiveSize := float64(size) * (1 + shoreNoise*m.params.Lake.ShoreComplexity) * heightFactor

			if distance < effectiveSize {
				points = append(points, point)
			}
		}
	}

	return points
}

// GenerateWaterfall classifies a waterfall at position. Both preconditions
// are hard filters: slope below MinSlope or drop below MinHeight yields
// nothing, regardless of the other value.
func (m *Manager) GenerateWaterfall(position Vec2, heights []float32, chunkSize int) (Waterfall, bool) {
	slope := m.slope(position, heights, chunkSize)
	if slope < m.params.Waterfall.MinSlope {
		return Waterfall{}, false
	}

	drop := m.heightDrop(position, heights, chunkSize)
	if drop < m.params.Waterfall.MinHeight {
		return Waterfall{}, false
	}

	height := math.Min(drop, m.params.Waterfall.MaxHeight)
	return Waterfall{
		Position:     position,
		Height:       height,
		FlowStrength: m.params.Waterfall.FlowStrength * (height / m.params.Waterfall.MaxHeight),
		SplashRange:  m.params.Waterfall.SplashRange,
	}, true
}

// flowAngle finds the steepest-descent direction among the 8 neighbors.
func (m *Manager) flowAngle(pos Vec2, heights []float32, chunkSize int) float64 {
	current := m.heightAt(pos, heights, chunkSize)
	minHeight := current
	flowDir := Vec2{0, 1}

	for i := 0; i < 8; i++ {
		angle := float64(i) * math.Pi / 4
		offset := fromAngle(angle)
		check := pos.Add(offset)
		if check.X < 0 || check.X >= float64(chunkSize) || check.Y < 0 || check.Y >= float64(chunkSize) {
			continue
		}
		h := m.heightAt(check, heights, chunkSize)
		if h < minHeight {
			minHeight = h
			flowDir = offset
		}
	}

	return flowDir.Angle()
}

// heightDrop measures the fall toward the downstream cell two steps along
// the flow direction. Uphill reads as zero.
func (m *Manager) heightDrop(position Vec2, heights []float32, chunkSize int) float64 {
	current := m.heightAt(position, heights, chunkSize)
	flowAngle := m.flowAngle(position, heights, chunkSize)
	downstream := position.Add(fromAngle(flowAngle).Scale(2))
	return math.Max(current-m.heightAt(downstream, heights, chunkSize), 0)
}

// slope returns the steepest normalized gradient among the 8 neighbors.
func (m *Manager) slope(position Vec2, heights []float32, chunkSize int) float64 {
	current := m.heightAt(position, heights, chunkSize)
	maxSlope := 0.0

	for i := 0; i < 8; i++ {
		angle := float64(i) * math.Pi / 4
		offset := fromAngle(angle)
		next := position.Add(offset)
		diff := math.Abs(current - m.heightAt(next, heights, chunkSize))
		length := math.Sqrt(offset.X*offset.X + offset.Y*offset.Y)
		if s := diff / length; s > maxSlope {
			maxSlope = s
		}
	}

	return math.Min(maxSlope/2, 1)
}

func (m *Manager) heightAt(pos Vec2, heights []float32, chunkSize int) float64 {
	x := int(pos.X)
	y := int(pos.Y)
	if x < 0 || x >= chunkSize || y < 0 || y >= chunkSize {
		return 0
	}
	idx := y*chunkSize + x
	if idx < 0 || idx >= len(heights) {
		return 0
	}
	return float64(heights[idx])
}

func (m *Manager) validRiverPoint(pos Vec2, heights []float32, chunkSize int) bool {
	x := int(pos.X)
	y := int(pos.Y)
	if x < 0 || x >= chunkSize || y < 0 || y >= chunkSize {
		return false
	}
	idx := y*chunkSize + x
	if idx < 0 || idx >= len(heights) {
		return false
	}
	h := float64(heights[idx])
	return h >= minRiverHeight && h <= maxRiverHeight
}
