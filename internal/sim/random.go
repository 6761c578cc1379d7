package sim

import (
	"math/rand"
	"sync"
	"time"
)

// Random is the source of every random draw the engine makes.
type Random interface {
	// Float64 returns a uniform value in [0,1).
	Float64() float64
	// Intn returns a uniform value in [0,n).
	Intn(n int) int
}

// lockedRand serialises access to a *rand.Rand shared by the clock and the autopilot.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandom returns a Random seeded with seed, or with the wall clock when seed is 0.
func NewRandom(seed int64) Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
