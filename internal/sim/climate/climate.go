// Package climate derives temperature and moisture for world cells from
// seeded noise plus latitude, altitude and season modifiers, and classifies
// cells into coarse climate zones.
package climate

import (
	"driftworld/internal/sim/noise"
)

// Season shifts temperature and moisture world-wide.
type Season uint8

const (
	Spring Season = iota
	Summer
	Autumn
	Winter
)

func (s Season) String() string {
	switch s {
	case Spring:
		return "spring"
	case Summer:
		return "summer"
	case Autumn:
		return "autumn"
	case Winter:
		return "winter"
	}
	return "invalid"
}

// temperatureDelta and moistureDelta are the discrete seasonal offsets.
func (s Season) temperatureDelta() float64 {
	switch s {
	case Summer:
		return 0.2
	case Winter:
		return -0.2
	default:
		return 0
	}
}

func (s Season) moistureDelta() float64 {
	switch s {
	case Spring:
		return 0.2
	case Autumn:
		return 0.1
	case Summer:
		return -0.1
	case Winter:
		return -0.2
	}
	return 0
}

// Zone is a coarse climate classification.
type Zone uint8

const (
	Tropical Zone = iota
	Temperate
	Continental
	Polar
	Desert
	Mountains
)

func (z Zone) String() string {
	switch z {
	case Tropical:
		return "tropical"
	case Temperate:
		return "temperate"
	case Continental:
		return "continental"
	case Polar:
		return "polar"
	case Desert:
		return "desert"
	case Mountains:
		return "mountains"
	}
	return "invalid"
}

// Params scales and biases the climate model.
type Params struct {
	TemperatureScale  float64 `yaml:"temperature_scale"`
	TemperatureOffset float64 `yaml:"temperature_offset"`
	MoistureScale     float64 `yaml:"moisture_scale"`
	MoistureOffset    float64 `yaml:"moisture_offset"`

	AltitudeTemperatureFactor float64 `yaml:"altitude_temperature_factor"`
	LatitudeTemperatureFactor float64 `yaml:"latitude_temperature_factor"`
	LatitudeMoistureFactor    float64 `yaml:"latitude_moisture_factor"`
}

func DefaultParams() Params {
	return Params{
		TemperatureScale:          1.0,
		TemperatureOffset:         0.0,
		MoistureScale:             1.0,
		MoistureOffset:            0.0,
		AltitudeTemperatureFactor: 0.5,
		LatitudeTemperatureFactor: 0.3,
		LatitudeMoistureFactor:    0.2,
	}
}

// referenceNorthing is the northing at which the latitude effect reaches
// its maximum.
const referenceNorthing = 10000.0

type cacheKey struct{ x, y int }

type sample struct {
	temperature float64
	moisture    float64
}

// System computes climate values with a position-keyed cache.
//
// The cache is mutated in place; callers must follow the single-writer
// discipline (only the world-loop goroutine calls into a System).
type System struct {
	params Params
	season Season

	tempField  *noise.Field
	moistField *noise.Field

	cache map[cacheKey]sample
}

func NewSystem(seed int64, params Params) *System {
	return &System{
		params:     params,
		season:     Summer,
		tempField:  noise.New(seed),
		moistField: noise.New(seed + 1),
		cache:      make(map[cacheKey]sample),
	}
}

func (s *System) Params() Params { return s.params }
func (s *System) Season() Season { return s.season }

// SetSeason switches the active season and drops the cache: season is part
// of the computation, not part of the cache key.
func (s *System) SetSeason(season Season) {
	if s.season == season {
		return
	}
	s.season = season
	s.cache = make(map[cacheKey]sample)
}

// Temperature returns the temperature at a cell in [0, 1].
func (s *System) Temperature(x, y int) float64 {
	return s.at(x, y).temperature
}

// Moisture returns the moisture at a cell in [0, 1].
func (s *System) Moisture(x, y int) float64 {
	return s.at(x, y).moisture
}

// Compute returns temperature and moisture without touching the cache or
// the current-season field. Generation workers pass the season they were
// dispatched with; everything read here is immutable after construction.
func (s *System) Compute(x, y int, season Season) (temperature, moisture float64) {
	return s.computeTemperature(x, y, season), s.computeMoisture(x, y, season)
}

// at computes temperature and moisture together and caches the pair.
func (s *System) at(x, y int) sample {
	k := cacheKey{x, y}
	if v, ok := s.cache[k]; ok {
		return v
	}
	v := sample{
		temperature: s.computeTemperature(x, y, s.season),
		moisture:    s.computeMoisture(x, y, s.season),
	}
	s.cache[k] = v
	return v
}

func (s *System) computeTemperature(x, y int, season Season) float64 {
	base := s.tempField.Sample(float64(x)*0.02, float64(y)*0.02)

	latitudeFactor := minF(float64(y)/referenceNorthing, 1)
	latitudeEffect := (1 - latitudeFactor) * s.params.LatitudeTemperatureFactor

	seasonEffect := season.temperatureDelta()

	// Altitude proxy from a second, lower-frequency octave of the same
	// field; colder the higher it reads.
	simulated := (s.tempField.Sample(float64(x)*0.01, float64(y)*0.01) + 1) * 0.5
	altitudeEffect := -simulated * s.params.AltitudeTemperatureFactor

	temp := ((base+1)*0.5+latitudeEffect+seasonEffect+altitudeEffect)*
		s.params.TemperatureScale + s.params.TemperatureOffset

	return clamp01(temp)
}

func (s *System) computeMoisture(x, y int, season Season) float64 {
	base := s.moistField.Sample(float64(x)*0.015, float64(y)*0.015)

	latitudeFactor := minF(float64(y)/referenceNorthing, 1)
	latitudeEffect := (1 - latitudeFactor) * s.params.LatitudeMoistureFactor

	seasonEffect := season.moistureDelta()

	// Proximity-to-water proxy at a very low frequency.
	waterProximity := (s.moistField.Sample(float64(x)*0.005, float64(y)*0.005) + 1) * 0.5
	waterEffect := waterProximity * 0.3

	moisture := ((base+1)*0.5+latitudeEffect+seasonEffect+waterEffect)*
		s.params.MoistureScale + s.params.MoistureOffset

	return clamp01(moisture)
}

// ZoneAt classifies a cell. Height above 0.7 forces Mountains; otherwise
// the temperature/moisture rules apply in fixed precedence order, coldest
// first.
func (s *System) ZoneAt(x, y int, height float64) Zone {
	if height > 0.7 {
		return Mountains
	}

	t := s.Temperature(x, y)
	m := s.Moisture(x, y)

	switch {
	case t < 0.2:
		return Polar
	case t > 0.7 && m < 0.3:
		return Desert
	case t > 0.6 && m > 0.5:
		return Tropical
	case t > 0.3 && t < 0.7 && m < 0.5:
		return Continental
	default:
		return Temperate
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
