package vm

import "math/rand/v2"

// RandomSource supplies the bytes consumed by CXNN.
type RandomSource interface {
	Byte() uint8
}

// RandomFunc adapts a plain function to RandomSource.
type RandomFunc func() uint8

func (f RandomFunc) Byte() uint8 { return f() }

type randSource struct {
	rnd *rand.Rand
}

// NewRandomSource returns a uniform source. The same seed always yields the
// same sequence.
func NewRandomSource(seed uint64) RandomSource {
	return &randSource{rnd: rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))}
}

func (s *randSource) Byte() uint8 {
	return uint8(s.rnd.IntN(256))
}

type globalSource struct{}

func (globalSource) Byte() uint8 {
	return uint8(rand.IntN(256))
}
