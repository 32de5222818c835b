// Package attrindex maps internal vector IDs to their integer attribute
// values and maintains the attribute-sorted permutation the range tree is
// built over.
package attrindex

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// Index is the attribute index. It is immutable after New and safe for
// concurrent reads.
type Index struct {
	values []int32  // attribute value by internal ID
	order  []uint32 // permutation: IDs sorted by (value, ID) ascending
	pos    []uint32 // inverse permutation: internal ID -> sorted position
}

// New builds the index from the per-ID attribute values via a stable sort
// of IDs by attribute value (ties broken by ID).
func New(values []int32) *Index {
	n := len(values)

	order := make([]uint32, n)
	for i := range order {
		order[i] = uint32(i)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return values[order[i]] < values[order[j]]
	})

	pos := make([]uint32, n)
	for p, id := range order {
		pos[id] = uint32(p)
	}

	vals := make([]int32, n)
	copy(vals, values)

	return &Index{values: vals, order: order, pos: pos}
}

// Len returns the number of indexed IDs.
func (ix *Index) Len() int { return len(ix.values) }

// Value returns the attribute value of the given internal ID.
func (ix *Index) Value(id uint32) int32 { return ix.values[id] }

// Position returns the sorted position of the given internal ID.
func (ix *Index) Position(id uint32) int { return int(ix.pos[id]) }

// IDAt returns the internal ID at the given sorted position.
func (ix *Index) IDAt(pos int) uint32 { return ix.order[pos] }

// LowerBound returns the first sorted position whose attribute value is
// >= v, or Len() if no such position exists.
func (ix *Index) LowerBound(v int32) int {
	return sort.Search(len(ix.order), func(p int) bool {
		return ix.values[ix.order[p]] >= v
	})
}

// UpperBound returns the first sorted position whose attribute value is
// > v, or Len() if no such position exists.
func (ix *Index) UpperBound(v int32) int {
	return sort.Search(len(ix.order), func(p int) bool {
		return ix.values[ix.order[p]] > v
	})
}

// Eligible returns the set of internal IDs whose attribute value lies in
// [lo, hi]. The bitmap is freshly built per call; callers own it.
func (ix *Index) Eligible(lo, hi int32) *roaring.Bitmap {
	bm := roaring.New()
	if lo > hi {
		return bm
	}
	for p, end := ix.LowerBound(lo), ix.UpperBound(hi); p < end; p++ {
		bm.Add(ix.order[p])
	}
	return bm
}
