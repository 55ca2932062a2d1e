// Package terrain converts (seed, world coordinate) into height values and
// discrete tile types by layering fractal base noise with mountain, plain
// and river feature masks.
package terrain

import (
	"math"

	"driftworld/internal/sim/noise"
)

// TileType identifies what occupies a world cell. Zero is reserved for
// "no tile" in chunk storage, so ids start at 1.
type TileType uint8

const (
	Water TileType = iota + 1
	Sand
	Grass
	Forest
	Mountain
	Snow
	Plains
	Wasteland
	Bamboo
	DenseForest
)

func (t TileType) String() string {
	switch t {
	case Water:
		return "water"
	case Sand:
		return "sand"
	case Grass:
		return "grass"
	case Forest:
		return "forest"
	case Mountain:
		return "mountain"
	case Snow:
		return "snow"
	case Plains:
		return "plains"
	case Wasteland:
		return "wasteland"
	case Bamboo:
		return "bamboo"
	case DenseForest:
		return "dense_forest"
	default:
		return "none"
	}
}

// Band discretizes height into coarse terrain classes. Scene placement and
// environment queries use it instead of raw height.
type Band uint8

const (
	Valley Band = iota // below 0.2
	Plain              // 0.2 - 0.4
	Hill               // 0.4 - 0.6
	MountainBand       // 0.6 - 0.8
	Peak               // above 0.8
)

func (b Band) String() string {
	switch b {
	case Valley:
		return "valley"
	case Plain:
		return "plain"
	case Hill:
		return "hill"
	case MountainBand:
		return "mountain"
	case Peak:
		return "peak"
	}
	return "invalid"
}

// BandOf maps a height value to its band.
func BandOf(height float64) Band {
	switch {
	case height < 0.2:
		return Valley
	case height < 0.4:
		return Plain
	case height < 0.6:
		return Hill
	case height < 0.8:
		return MountainBand
	default:
		return Peak
	}
}

// Config holds every knob of the height/tile pipeline. All fields have
// working defaults from DefaultConfig.
type Config struct {
	Amplitude   float64 `yaml:"amplitude"`
	Frequency   float64 `yaml:"frequency"`
	Octaves     int     `yaml:"octaves"`
	Persistence float64 `yaml:"persistence"`
	Lacunarity  float64 `yaml:"lacunarity"`

	HeightScale  float64 `yaml:"height_scale"`
	HeightOffset float64 `yaml:"height_offset"`
	WaterLevel   float64 `yaml:"water_level"`

	EnableMountains   bool    `yaml:"enable_mountains"`
	MountainFrequency float64 `yaml:"mountain_frequency"`
	MountainHeight    float64 `yaml:"mountain_height"`
	MountainThreshold float64 `yaml:"mountain_threshold"`

	EnablePlains   bool    `yaml:"enable_plains"`
	PlainFrequency float64 `yaml:"plain_frequency"`
	PlainHeight    float64 `yaml:"plain_height"`
	PlainThreshold float64 `yaml:"plain_threshold"`
	PlainStrength  float64 `yaml:"plain_strength"`

	EnableRivers   bool    `yaml:"enable_rivers"`
	RiverFrequency float64 `yaml:"river_frequency"`
	RiverWidth     float64 `yaml:"river_width"`
	RiverDepth     float64 `yaml:"river_depth"`

	BiomeFrequency float64 `yaml:"biome_frequency"`
}

func DefaultConfig() Config {
	return Config{
		Amplitude:   1.0,
		Frequency:   0.01,
		Octaves:     4,
		Persistence: 0.5,
		Lacunarity:  2.0,

		HeightScale:  1.0,
		HeightOffset: 0.0,
		WaterLevel:   0.3,

		EnableMountains:   true,
		MountainFrequency: 0.005,
		MountainHeight:    0.5,
		MountainThreshold: 0.6,

		EnablePlains:   true,
		PlainFrequency: 0.008,
		PlainHeight:    0.2,
		PlainThreshold: 0.5,
		PlainStrength:  0.7,

		EnableRivers:   true,
		RiverFrequency: 0.01,
		RiverWidth:     0.05,
		RiverDepth:     0.2,

		BiomeFrequency: 0.02,
	}
}

// MountainConfig biases generation toward sharp high terrain.
func MountainConfig() Config {
	c := DefaultConfig()
	c.MountainHeight = 0.8
	c.MountainThreshold = 0.4
	c.MountainFrequency = 0.008
	c.WaterLevel = 0.25
	return c
}

// PlainsConfig biases generation toward flat open terrain.
func PlainsConfig() Config {
	c := DefaultConfig()
	c.PlainStrength = 0.9
	c.PlainThreshold = 0.3
	c.MountainThreshold = 0.8
	c.WaterLevel = 0.2
	return c
}

// RiverValleyConfig widens and deepens carved river channels.
func RiverValleyConfig() Config {
	c := DefaultConfig()
	c.RiverWidth = 0.1
	c.RiverDepth = 0.3
	c.RiverFrequency = 0.015
	c.WaterLevel = 0.35
	return c
}

// Generator is a pure height/tile sampler. It has no mutable state and is
// safe to call from any goroutine.
type Generator struct {
	field *noise.Field
	cfg   Config
}

func NewGenerator(seed int64, cfg Config) *Generator {
	return &Generator{field: noise.New(seed), cfg: cfg}
}

func (g *Generator) Config() Config { return g.cfg }

// GenerateHeight returns the terrain height at a world cell. Identical
// (seed, x, y) always yields an identical value, independent of call order.
func (g *Generator) GenerateHeight(x, y float64) float64 {
	height := 0.0
	amplitude := g.cfg.Amplitude
	frequency := g.cfg.Frequency

	for i := 0; i < g.cfg.Octaves; i++ {
		height += g.field.Sample(x*frequency, y*frequency) * amplitude
		amplitude *= g.cfg.Persistence
		frequency *= g.cfg.Lacunarity
	}

	height = height*g.cfg.HeightScale + g.cfg.HeightOffset
	return g.applyFeatures(x, y, height)
}

// applyFeatures layers the mountain, plain and river masks over the base
// height. Each mask samples noise at its own coordinate offset so the
// masks are decorrelated from the base field and from each other.
func (g *Generator) applyFeatures(x, y, base float64) float64 {
	height := base

	if g.cfg.EnableMountains {
		n := g.field.Sample(x*g.cfg.MountainFrequency, y*g.cfg.MountainFrequency)
		if n > g.cfg.MountainThreshold {
			// Quadratic growth past the threshold gives sharp peaks
			// instead of smooth lumps.
			factor := (n - g.cfg.MountainThreshold) / (1 - g.cfg.MountainThreshold)
			height += g.cfg.MountainHeight * factor * factor
		}
	}

	if g.cfg.EnablePlains {
		n := g.field.Sample(x*g.cfg.PlainFrequency+1000, y*g.cfg.PlainFrequency+1000)
		if n > g.cfg.PlainThreshold {
			factor := (n - g.cfg.PlainThreshold) / (1 - g.cfg.PlainThreshold)
			blend := factor * g.cfg.PlainStrength
			height = height*(1-blend) + g.cfg.PlainHeight*blend
		}
	}

	if g.cfg.EnableRivers {
		n := g.field.Sample(x*g.cfg.RiverFrequency+2000, y*g.cfg.RiverFrequency+2000)
		if math.Abs(n) < g.cfg.RiverWidth {
			// Channel carved around the noise zero-crossing, deepest
			// at the center.
			factor := 1 - math.Abs(n)/g.cfg.RiverWidth
			height -= g.cfg.RiverDepth * factor * factor
		}
	}

	return height
}

// TileTypeAt classifies a cell from its height, then lets a secondary
// biome-noise pass reclassify grass and forest variants.
func (g *Generator) TileTypeAt(height, x, y float64) TileType {
	wl := g.cfg.WaterLevel

	var base TileType
	switch {
	case height < wl:
		base = Water
	case height < wl+0.05:
		base = Sand
	case height < wl+0.3:
		base = Grass
	case height < wl+0.6:
		base = Forest
	case height < wl+0.8:
		base = Mountain
	default:
		base = Snow
	}

	n := g.field.Sample(x*g.cfg.BiomeFrequency+3000, y*g.cfg.BiomeFrequency+3000)
	switch base {
	case Grass:
		if n > 0.6 {
			return Plains
		}
		if n < -0.6 {
			return Wasteland
		}
	case Forest:
		if n > 0.7 {
			return Bamboo
		}
		if n < -0.7 {
			return DenseForest
		}
	}
	return base
}

// Slope returns the central-difference gradient magnitude of the height
// field at a fixed small step. Water and scene placement use it to detect
// cliffs and waterfall sites.
func (g *Generator) Slope(x, y float64) float64 {
	const step = 0.01

	north := g.GenerateHeight(x, y+step)
	south := g.GenerateHeight(x, y-step)
	east := g.GenerateHeight(x+step, y)
	west := g.GenerateHeight(x-step, y)

	dzdx := (east - west) / (2 * step)
	dzdy := (north - south) / (2 * step)
	return math.Sqrt(dzdx*dzdx + dzdy*dzdy)
}
