package history

import (
	"math/rand/v2"
	"sync"
)

// Source supplies uniform draws in [0, 1)
type Source interface {
	Float64() float64
}

// lockedSource serialises access to a *rand.Rand, which is not safe for concurrent use
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// NewSeededSource returns a reproducible Source
func NewSeededSource(seed uint64) Source {
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandomSource returns a Source seeded from the runtime's entropy
func NewRandomSource() Source {
	return &lockedSource{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// uniform draws from [lo, hi)
func uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}
