package engine

import (
	"encoding/binary"
	"time"

	"lukechampine.com/frand"
)

// RandSource picks the opening move on an empty board.
type RandSource interface {
	Intn(n int) int
}

// clockSource reseeds from the wall clock on every draw.
type clockSource struct{}

func (clockSource) Intn(n int) int {
	return newSeededRNG(uint64(time.Now().UnixNano())).Intn(n)
}

// NewSeededSource returns a deterministic source for reproducible openings.
func NewSeededSource(seed uint64) RandSource {
	return newSeededRNG(seed)
}

func newSeededRNG(seed uint64) *frand.RNG {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	return frand.NewCustom(key[:], 64, 12)
}
