package dice

import (
	"crypto/rand"
	"encoding/binary"
)

// CryptoSource is a math/rand.Source backed by crypto/rand. Seeding it does
// nothing.
type CryptoSource struct{}

func NewCryptoSource() CryptoSource {
	return CryptoSource{}
}

func (CryptoSource) Int63() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(err)
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) &^ (1 << 63))
}

func (CryptoSource) Seed(int64) {}

// Sequence is a rand.Source that replays fixed values, for scripting rolls and
// spoke choices in tests: a *rand.Rand over NewSequence(2, 0) returns 2 and then
// 0 from Intn(n), for any n larger than the value.
type Sequence struct {
	vals []int
	i    int
}

// NewSequence returns a Source cycling through vals.
func NewSequence(vals ...int) *Sequence {
	return &Sequence{vals: vals}
}

// Int63 puts the value in the bits rand.Rand.Int31 reads.
func (s *Sequence) Int63() int64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return int64(v) << 32
}

func (s *Sequence) Seed(int64) {}
