// Package synthetic provides the injectable randomness behind placeholder data. Adapters
// fall back to it when a live provider is unavailable, and the document evaluator uses it
// when no real expiry date is known.
package synthetic

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Source is the randomness consumed by synthetic generators.
type Source interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
	// Intn returns a value in [0, n).
	Intn(n int) int
}

// Rand is a Source backed by math/rand that is safe for concurrent use.
type Rand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRand returns a seeded Source. A zero seed uses the current time.
func NewRand(seed int64) *Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Rand{rng: rand.New(rand.NewSource(seed))}
}

// Float64 returns a value in [0.0, 1.0).
func (r *Rand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// Intn returns a value in [0, n).
func (r *Rand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

// Sequence replays fixed values in order, wrapping around. Used to pin synthetic output.
type Sequence struct {
	mu     sync.Mutex
	Floats []float64
	Ints   []int
	fi, ii int
}

// Float64 returns the next float, or 0 when none were given.
func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[s.fi%len(s.Floats)]
	s.fi++
	return v
}

// Intn returns the next int reduced modulo n, or 0 when none were given.
func (s *Sequence) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Ints) == 0 || n <= 0 {
		return 0
	}
	v := s.Ints[s.ii%len(s.Ints)]
	s.ii++
	if v < 0 {
		v = -v
	}
	return v % n
}

// Uniform returns a value in [min, max).
func Uniform(src Source, min, max float64) float64 {
	return min + src.Float64()*(max-min)
}

// Between returns an int in [min, max].
func Between(src Source, min, max int) int {
	if max <= min {
		return min
	}
	return min + src.Intn(max-min+1)
}

// Chance reports true with probability p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Pick returns a random element of items. items must not be empty.
func Pick[T any](src Source, items []T) T {
	return items[src.Intn(len(items))]
}

// Round1 rounds to one decimal place, the precision used in synthetic readings.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
