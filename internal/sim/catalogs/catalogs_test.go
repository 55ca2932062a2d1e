package catalogs

import (
	"testing"

	"driftworld/internal/sim/climate"
)

func TestBuildDeterministic(t *testing.T) {
	a := Build()
	b := Build()
	if a.Digest == "" {
		t.Fatalf("empty digest")
	}
	if a.Digest != b.Digest {
		t.Fatalf("digest differs across builds: %s vs %s", a.Digest, b.Digest)
	}
}

func TestPalettesCoverEnums(t *testing.T) {
	c := Build()
	if len(c.Tiles) != 10 {
		t.Fatalf("tiles = %d, want 10", len(c.Tiles))
	}
	if len(c.Plants) != 6 {
		t.Fatalf("plants = %d, want 6", len(c.Plants))
	}
	if len(c.Scenes) != 11 {
		t.Fatalf("scenes = %d, want 11", len(c.Scenes))
	}
	if len(c.Zones) != 6 {
		t.Fatalf("zones = %d, want 6", len(c.Zones))
	}
	for _, e := range c.Tiles {
		if e.Name == "" || e.Name == "none" || e.Name == "unknown" {
			t.Fatalf("tile id %d has bad name %q", e.ID, e.Name)
		}
	}
}

func TestParseSeason(t *testing.T) {
	for _, name := range Seasons() {
		s, ok := ParseSeason(name)
		if !ok {
			t.Fatalf("ParseSeason(%q) failed", name)
		}
		if s.String() != name {
			t.Fatalf("round trip %q -> %v", name, s)
		}
	}
	if _, ok := ParseSeason("monsoon"); ok {
		t.Fatalf("accepted unknown season")
	}
	if s, _ := ParseSeason("winter"); s != climate.Winter {
		t.Fatalf("winter parsed as %v", s)
	}
}
