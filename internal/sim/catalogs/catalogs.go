// Package catalogs exposes the stable id/name palettes clients need to
// interpret world data: tile types, plants, scenes, climate zones and
// seasons. Palettes are code-defined and versioned by digest, so a client
// can cache them and detect mismatches after a server upgrade.
package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"driftworld/internal/sim/climate"
	"driftworld/internal/sim/scene"
	"driftworld/internal/sim/terrain"
	"driftworld/internal/sim/vegetation"
)

// Entry pairs a wire id with its canonical name.
type Entry struct {
	ID   uint8  `json:"id"`
	Name string `json:"name"`
}

// Catalog is the full palette set sent to clients at handshake.
type Catalog struct {
	Tiles   []Entry  `json:"tiles"`
	Plants  []Entry  `json:"plants"`
	Scenes  []Entry  `json:"scenes"`
	Zones   []Entry  `json:"zones"`
	Seasons []string `json:"seasons"`

	// Digest covers every palette above. Ids are stable within a digest.
	Digest string `json:"digest"`
}

// Build assembles the catalog from the enum tables. The result is fully
// deterministic, two servers on the same code produce the same digest.
func Build() Catalog {
	c := Catalog{
		Tiles:   tiles(),
		Plants:  plants(),
		Scenes:  scenes(),
		Zones:   zones(),
		Seasons: Seasons(),
	}
	c.Digest = digest(c)
	return c
}

func digest(c Catalog) string {
	c.Digest = ""
	b, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func tiles() []Entry {
	out := make([]Entry, 0, int(terrain.DenseForest))
	for t := terrain.Water; t <= terrain.DenseForest; t++ {
		out = append(out, Entry{ID: uint8(t), Name: t.String()})
	}
	return out
}

func plants() []Entry {
	out := make([]Entry, 0, int(vegetation.Willow))
	for p := vegetation.Grass; p <= vegetation.Willow; p++ {
		out = append(out, Entry{ID: uint8(p), Name: p.String()})
	}
	return out
}

func scenes() []Entry {
	out := make([]Entry, 0, int(scene.SecretRealm))
	for s := scene.Village; s <= scene.SecretRealm; s++ {
		out = append(out, Entry{ID: uint8(s), Name: s.String()})
	}
	return out
}

func zones() []Entry {
	out := make([]Entry, 0, int(climate.Mountains)+1)
	for z := climate.Tropical; z <= climate.Mountains; z++ {
		out = append(out, Entry{ID: uint8(z), Name: z.String()})
	}
	return out
}

// Seasons lists season names in wire order.
func Seasons() []string {
	return []string{
		climate.Spring.String(),
		climate.Summer.String(),
		climate.Autumn.String(),
		climate.Winter.String(),
	}
}

// ParseSeason resolves a season name from the wire.
func ParseSeason(name string) (climate.Season, bool) {
	for s := climate.Spring; s <= climate.Winter; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}
