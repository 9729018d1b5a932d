// Package chance supplies the randomness behind agent reply selection and
// simulated typing latency.
package chance

import (
	"math/rand/v2"
	"time"
)

// Source picks pool entries and delays.
type Source interface {
	// Intn returns a uniform integer in [0, n). n must be > 0.
	Intn(n int) int
	// Delay returns a uniform duration in [min, max). If max <= min it returns min.
	Delay(min, max time.Duration) time.Duration
}

// Seeded is a Source backed by a PCG generator.
type Seeded struct {
	r *rand.Rand
}

// NewSeeded returns a deterministic source for seed. A zero seed draws one
// from the runtime's generator.
func NewSeeded(seed uint64) *Seeded {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Seeded{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Intn returns a uniform integer in [0, n).
func (s *Seeded) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	return s.r.IntN(n)
}

// Delay returns a uniform duration in [min, max), at millisecond granularity.
func (s *Seeded) Delay(min, max time.Duration) time.Duration {
	span := (max - min).Milliseconds()
	if span <= 0 {
		return min
	}
	return min + time.Duration(s.r.Int64N(span))*time.Millisecond
}

// Pick returns a uniformly chosen element of pool, or "" for an empty pool.
func Pick(src Source, pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[src.Intn(len(pool))]
}

// Scripted replays fixed choices. Picks and delays are consumed in order;
// once exhausted it returns index 0 and the minimum delay.
type Scripted struct {
	Picks  []int
	Delays []time.Duration
}

// Intn returns the next scripted pick, reduced modulo n.
func (s *Scripted) Intn(n int) int {
	if n <= 1 || len(s.Picks) == 0 {
		return 0
	}
	p := s.Picks[0]
	s.Picks = s.Picks[1:]
	if p < 0 {
		p = -p
	}
	return p % n
}

// Delay returns the next scripted delay clamped to [min, max).
func (s *Scripted) Delay(min, max time.Duration) time.Duration {
	if len(s.Delays) == 0 {
		return min
	}
	d := s.Delays[0]
	s.Delays = s.Delays[1:]
	if d < min {
		return min
	}
	if max > min && d >= max {
		return max - time.Millisecond
	}
	return d
}
