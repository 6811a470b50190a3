package questiondoc

import (
	"math/rand"
	"sync"
)

// Intner is the random source used for sampling.
type Intner interface {
	Intn(n int) int
}

// lockedRand lets one parser serve concurrent callers.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a concurrency-safe, seeded random source.
func NewRand(seed int64) Intner {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// Sample returns at most quota questions. Lists that already fit the quota are
// returned in their original order; larger lists are shuffled with
// Fisher-Yates and truncated. The input slice is never modified.
func Sample(qs []ParsedQuestion, quota int, rng Intner) []ParsedQuestion {
	out := make([]ParsedQuestion, len(qs))
	copy(out, qs)
	if quota <= 0 || len(out) <= quota {
		return out
	}

	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out[:quota]
}
