package rng

// Source is the shared random handle threaded through every stochastic
// decision of a tournament. *math/rand.Rand satisfies it as well.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// Stream is a splitmix64 generator. Two streams built from the same seed
// produce the same sequence on every platform.
type Stream struct{ state uint64 }

func New(seed int64) *Stream { return &Stream{state: uint64(seed)} }

func (s *Stream) Uint64() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z ^= z >> 30
	z *= 0xBF58476D1CE4E5B9
	z ^= z >> 27
	z *= 0x94D049BB133111EB
	z ^= z >> 31
	return z
}

// Float64 returns a value in [0, 1) built from the top 53 bits.
func (s *Stream) Float64() float64 {
	return float64(s.Uint64()>>11) / (1 << 53)
}

// Intn returns a value in [0, n). Panics if n <= 0.
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		panic("rng: invalid argument to Intn")
	}
	return int(s.Uint64() % uint64(n))
}

// Shuffle permutes n elements in place, Fisher-Yates from the top.
func Shuffle(src Source, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		swap(i, j)
	}
}
