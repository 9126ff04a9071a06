package worldgen

import (
	"crypto/rand"
	"math/big"
)

// SeedModulus is the modulus of the client-side generator. Seeds are kept in
// [0, SeedModulus) so the value sent in game-starting is already a canonical
// generator state.
const SeedModulus = 233280

// NewSeed returns a fresh world seed. Every client in a room feeds the same
// seed into Sequence to rebuild identical terrain, ring and medkit layouts,
// so the server must hand the value out verbatim and never re-derive it.
func NewSeed() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(SeedModulus))
	if err != nil {
		// crypto/rand only fails when the platform source is broken.
		panic(err)
	}
	return n.Int64()
}

// Sequence is the deterministic generator shared with the client:
//
//	s = (s*9301 + 49297) mod 233280
//
// The constants are part of the wire contract; changing them desyncs every
// client that generated its world from an older seed.
type Sequence struct {
	state int64
}

func NewSequence(seed int64) *Sequence {
	return &Sequence{state: ((seed % SeedModulus) + SeedModulus) % SeedModulus}
}

// Next advances the generator and returns a value in [0, 1).
func (q *Sequence) Next() float64 {
	q.state = (q.state*9301 + 49297) % SeedModulus
	return float64(q.state) / SeedModulus
}
