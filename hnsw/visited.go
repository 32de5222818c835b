package hnsw

import "github.com/bits-and-blooms/bitset"

// visitedSet tracks the slots touched by one layer search. Instances are
// pooled per graph and sized to the member count up front, so Visit never
// grows the backing words on the hot path.
type visitedSet struct {
	bits *bitset.BitSet
}

func newVisitedSet(capacity int) *visitedSet {
	return &visitedSet{bits: bitset.New(uint(capacity))}
}

func (v *visitedSet) Visit(slot uint32) {
	v.bits.Set(uint(slot))
}

func (v *visitedSet) Visited(slot uint32) bool {
	return v.bits.Test(uint(slot))
}

func (v *visitedSet) Reset() {
	v.bits.ClearAll()
}
