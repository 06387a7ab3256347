package scenario

import "github.com/MichaelTJones/pcg"

// Rand is a small seeded PCG source. Identical seeds give identical
// scenarios on every platform.
type Rand struct {
	r *pcg.PCG32
}

// NewRand returns a generator seeded with seed.
func NewRand(seed int64) *Rand {
	r := &Rand{r: pcg.NewPCG32()}
	r.Seed(seed)
	return r
}

// Seed resets the generator state.
func (r *Rand) Seed(seed int64) {
	r.r.Seed(uint64(seed), 0xda3e39cb94b95bdb)
}

// Intn returns a value in [0, n). n must be positive and fit in 32 bits.
func (r *Rand) Intn(n int) int {
	return int(r.r.Bounded(uint32(n)))
}

// Float64 returns a value in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.r.Random()) / (1 << 32)
}

// Shuffle permutes s in place (Fisher-Yates).
func Shuffle[S ~[]E, E any](r *Rand, s S) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
