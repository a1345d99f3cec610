package simulation

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
)

// substreamStride spaces substreams far apart on the generator's cycle.
const substreamStride = 0x9e3779b97f4a7c15

// Uniform is a source of uniform variates in [0,1).
type Uniform interface {
	Float64() float64
}

// Stream is a deterministic random number stream derived from a string seed.
// The same seed yields the same sequence on every machine and process.
//
// A stream is split into numbered substreams. The engine resets to substream i at the start
// of iteration i, so two runs sharing a seed see the same draws in every iteration even when
// a parameter change makes one of them consume more draws than the other.
type Stream struct {
	seed string
	hi   uint64
	lo   uint64
	src  *rand.PCG
	rng  *rand.Rand
}

// NewStream creates a stream whose PCG state is taken from the SHA-256 digest of seed.
func NewStream(seed string) *Stream {
	sum := sha256.Sum256([]byte(seed))
	hi := binary.BigEndian.Uint64(sum[0:8])
	lo := binary.BigEndian.Uint64(sum[8:16])
	src := rand.NewPCG(hi, lo)
	return &Stream{
		seed: seed,
		hi:   hi,
		lo:   lo,
		src:  src,
		rng:  rand.New(src),
	}
}

// Float64 returns the next uniform variate in [0,1).
func (s *Stream) Float64() float64 {
	return s.rng.Float64()
}

// Reset positions the stream at the start of substream n.
func (s *Stream) Reset(n uint64) {
	s.src.Seed(s.hi, s.lo+n*substreamStride)
}

// Seed returns the string the stream was created from.
func (s *Stream) Seed() string {
	return s.seed
}
