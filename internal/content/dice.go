package content

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Dice is the randomness source shared by the engine and the generators.
type Dice interface {
	Float64() float64
	IntN(n int) int
}

// LockedRand is a Dice safe for use from timer goroutines.
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand seeds a PCG source. Seed 0 picks a time-based seed.
func NewRand(seed int64) *LockedRand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &LockedRand{r: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))}
}

func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *LockedRand) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// Script replays fixed rolls in order and repeats the last one once the
// list runs out. Empty lists roll 0.99 and 0 so that chance gates stay shut.
type Script struct {
	mu     sync.Mutex
	Floats []float64
	Ints   []int
	fi, ii int
}

func (s *Script) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Floats) == 0 {
		return 0.99
	}
	v := s.Floats[min(s.fi, len(s.Floats)-1)]
	s.fi++
	return v
}

func (s *Script) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[min(s.ii, len(s.Ints)-1)]
	s.ii++
	if v < 0 {
		return 0
	}
	return v % n
}
