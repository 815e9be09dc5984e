package dice

import (
	crand "crypto/rand"
	"math/rand/v2"
	"sync"
)

// Source is the randomness behind every roll. Implementations must be safe
// for concurrent use.
type Source interface {
	// Intn returns a value in [0, n). n must be positive.
	Intn(n int) int
}

type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// NewCryptoSource returns a ChaCha8 source seeded from crypto/rand.
func NewCryptoSource() Source {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return &lockedSource{rng: rand.New(rand.NewChaCha8(seed))}
}

// NewSeededSource returns a reproducible source: equal seeds give equal sequences.
func NewSeededSource(seed uint64) Source {
	return &lockedSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}
