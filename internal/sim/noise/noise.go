// Package noise provides seeded 2D gradient noise for world generation.
// All sampling is a pure function of (seed, x, y); the same field always
// returns the same value for the same coordinates.
package noise

// Field is a 2D Perlin sampler backed by a seeded permutation table.
type Field struct {
	perm [512]int
}

// New builds a field from a seed. Two fields with the same seed are
// indistinguishable.
func New(seed int64) *Field {
	f := &Field{}

	var base [256]int
	for i := range base {
		base[i] = i
	}

	// Fisher-Yates driven by an LCG so the table depends only on the seed.
	s := seed
	for i := 255; i > 0; i-- {
		s = s*6364136223846793005 + 1442695040888963407
		j := int(uint64(s>>16) % uint64(i+1))
		base[i], base[j] = base[j], base[i]
	}

	for i := 0; i < 256; i++ {
		f.perm[i] = base[i]
		f.perm[i+256] = base[i]
	}
	return f
}

// fade is the quintic smoothstep 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func grad(hash int, x, y float64) float64 {
	switch hash & 3 {
	case 0:
		return x + y
	case 1:
		return -x + y
	case 2:
		return x - y
	default:
		return -x - y
	}
}

func floorInt(v float64) int {
	i := int(v)
	if v < float64(i) {
		i--
	}
	return i
}

// Sample returns noise at (x, y) in [-1, 1].
func (f *Field) Sample(x, y float64) float64 {
	xi := floorInt(x)
	yi := floorInt(y)
	xf := x - float64(xi)
	yf := y - float64(yi)

	xi &= 255
	yi &= 255

	u := fade(xf)
	v := fade(yf)

	aa := f.perm[f.perm[xi]+yi]
	ab := f.perm[f.perm[xi]+yi+1]
	ba := f.perm[f.perm[xi+1]+yi]
	bb := f.perm[f.perm[xi+1]+yi+1]

	x1 := lerp(u, grad(aa, xf, yf), grad(ba, xf-1, yf))
	x2 := lerp(u, grad(ab, xf, yf-1), grad(bb, xf-1, yf-1))

	return lerp(v, x1, x2)
}

// Fractal sums octaves of Sample with amplitude *= persistence and
// frequency *= lacunarity per octave. The result is divided by the
// accumulated max amplitude, so it stays in [-1, 1] for any octave count.
func (f *Field) Fractal(x, y float64, octaves int, persistence, lacunarity float64) float64 {
	if octaves < 1 {
		octaves = 1
	}

	total := 0.0
	frequency := 1.0
	amplitude := 1.0
	maxValue := 0.0

	for i := 0; i < octaves; i++ {
		total += f.Sample(x*frequency, y*frequency) * amplitude
		maxValue += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}

	return total / maxValue
}
