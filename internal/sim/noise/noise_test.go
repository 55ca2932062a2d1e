package noise

import (
	"math"
	"testing"
)

func TestSample_Deterministic(t *testing.T) {
	a := New(42)
	b := New(42)

	coords := [][2]float64{{0.3, 0.7}, {-12.5, 4.25}, {1000.1, -999.9}, {0, 0}}
	for _, c := range coords {
		v1 := a.Sample(c[0], c[1])
		v2 := a.Sample(c[0], c[1])
		v3 := b.Sample(c[0], c[1])
		if v1 != v2 || v1 != v3 {
			t.Fatalf("sample at (%v,%v) not deterministic: %v %v %v", c[0], c[1], v1, v2, v3)
		}
	}
}

func TestSample_SeedChangesField(t *testing.T) {
	a := New(1)
	b := New(2)

	same := 0
	n := 0
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			fx := float64(x)*0.37 + 0.1
			fy := float64(y)*0.53 + 0.2
			if a.Sample(fx, fy) == b.Sample(fx, fy) {
				same++
			}
			n++
		}
	}
	if same == n {
		t.Fatalf("fields with different seeds are identical")
	}
}

func TestSample_Bounded(t *testing.T) {
	f := New(7)
	for x := -50; x < 50; x++ {
		for y := -50; y < 50; y++ {
			v := f.Sample(float64(x)*0.13, float64(y)*0.29)
			if v < -1 || v > 1 || math.IsNaN(v) {
				t.Fatalf("sample out of range at (%d,%d): %v", x, y, v)
			}
		}
	}
}

func TestFractal_BoundedRegardlessOfOctaves(t *testing.T) {
	f := New(99)
	for _, octaves := range []int{1, 2, 4, 8} {
		for i := 0; i < 200; i++ {
			x := float64(i)*0.07 - 7
			y := float64(i)*0.11 + 3
			v := f.Fractal(x, y, octaves, 0.5, 2.0)
			if v < -1 || v > 1 || math.IsNaN(v) {
				t.Fatalf("fractal(octaves=%d) out of range at (%v,%v): %v", octaves, x, y, v)
			}
		}
	}
}

func TestFractal_OneOctaveMatchesSample(t *testing.T) {
	f := New(5)
	x, y := 3.4, -1.2
	if got, want := f.Fractal(x, y, 1, 0.5, 2.0), f.Sample(x, y); got != want {
		t.Fatalf("one-octave fractal = %v, want %v", got, want)
	}
}
