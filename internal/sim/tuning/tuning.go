// Package tuning is the YAML configuration surface. Every knob has a
// default; a config file only needs the keys it changes.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"driftworld/internal/sim/chunk"
	"driftworld/internal/sim/climate"
	"driftworld/internal/sim/scene"
	"driftworld/internal/sim/terrain"
	"driftworld/internal/sim/vegetation"
	"driftworld/internal/sim/water"
)

type Config struct {
	// Seed drives every generator. Zero is rejected so a missing key
	// cannot silently produce the all-zero world.
	Seed int64 `yaml:"seed"`

	// ViewDistance is the chunk radius kept resident around the viewpoint.
	ViewDistance int `yaml:"view_distance"`
	// MemoryBudget caps resident chunks before eviction kicks in.
	MemoryBudget int `yaml:"memory_budget"`
	// LoadBudget caps chunk materializations started per tick.
	LoadBudget int `yaml:"load_budget"`
	// ChunkSize is fixed by the persistence format and must stay 32.
	ChunkSize int `yaml:"chunk_size"`
	// TickRateHz drives the world loop when running under Run.
	TickRateHz int `yaml:"tick_rate_hz"`

	Terrain    terrain.Config   `yaml:"terrain"`
	Climate    climate.Params   `yaml:"climate"`
	Water      water.Params     `yaml:"water"`
	Vegetation vegetation.Rules `yaml:"vegetation"`
	Scene      scene.Rules      `yaml:"scene"`

	// DataDir holds chunk files and the index database.
	DataDir string `yaml:"data_dir"`
	// Listen is the websocket bind address.
	Listen string `yaml:"listen"`
}

func Default() Config {
	return Config{
		Seed:         42,
		ViewDistance: 5,
		MemoryBudget: 100,
		LoadBudget:   2,
		ChunkSize:    chunk.Size,
		TickRateHz:   10,
		Terrain:      terrain.DefaultConfig(),
		Climate:      climate.DefaultParams(),
		Water:        water.DefaultParams(),
		Vegetation:   vegetation.DefaultRules(),
		Scene:        scene.DefaultRules(),
		DataDir:      "data",
		Listen:       ":8787",
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("tuning: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("tuning: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations that would fail later in ways that are
// hard to trace back here.
func (c Config) Validate() error {
	if c.Seed == 0 {
		return fmt.Errorf("seed must not be 0")
	}
	if c.ViewDistance <= 0 {
		return fmt.Errorf("view_distance %d must be positive", c.ViewDistance)
	}
	if c.MemoryBudget <= 0 {
		return fmt.Errorf("memory_budget %d must be positive", c.MemoryBudget)
	}
	if c.LoadBudget <= 0 {
		return fmt.Errorf("load_budget %d must be positive", c.LoadBudget)
	}
	if c.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz %d must be positive", c.TickRateHz)
	}
	if c.ChunkSize != chunk.Size {
		return fmt.Errorf("chunk_size %d is unsupported, the persistence format fixes it at %d", c.ChunkSize, chunk.Size)
	}
	if c.Terrain.Octaves <= 0 {
		return fmt.Errorf("terrain octaves %d must be positive", c.Terrain.Octaves)
	}
	if c.Terrain.Frequency <= 0 {
		return fmt.Errorf("terrain frequency %v must be positive", c.Terrain.Frequency)
	}
	if c.Vegetation.DensityFactor < 0 || c.Vegetation.DensityFactor > 1 {
		return fmt.Errorf("vegetation density_factor %v outside [0, 1]", c.Vegetation.DensityFactor)
	}
	if err := c.Scene.Validate(); err != nil {
		return err
	}
	return nil
}
