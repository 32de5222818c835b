package attrindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortedOrder(t *testing.T) {
	ix := New([]int32{30, 10, 20, 10})

	assert.Equal(t, 4, ix.Len())

	// Stable sort by (value, id): 10@1, 10@3, 20@2, 30@0.
	assert.Equal(t, uint32(1), ix.IDAt(0))
	assert.Equal(t, uint32(3), ix.IDAt(1))
	assert.Equal(t, uint32(2), ix.IDAt(2))
	assert.Equal(t, uint32(0), ix.IDAt(3))

	// Position is the inverse permutation.
	for p := 0; p < ix.Len(); p++ {
		assert.Equal(t, p, ix.Position(ix.IDAt(p)))
	}

	assert.Equal(t, int32(30), ix.Value(0))
	assert.Equal(t, int32(10), ix.Value(1))
}

func TestBounds(t *testing.T) {
	ix := New([]int32{10, 20, 20, 30})

	assert.Equal(t, 0, ix.LowerBound(5))
	assert.Equal(t, 0, ix.LowerBound(10))
	assert.Equal(t, 1, ix.LowerBound(15))
	assert.Equal(t, 1, ix.LowerBound(20))
	assert.Equal(t, 3, ix.LowerBound(21))
	assert.Equal(t, 4, ix.LowerBound(31))

	assert.Equal(t, 0, ix.UpperBound(5))
	assert.Equal(t, 1, ix.UpperBound(10))
	assert.Equal(t, 3, ix.UpperBound(20))
	assert.Equal(t, 4, ix.UpperBound(30))
}

func TestEligible(t *testing.T) {
	ix := New([]int32{10, 20, 20, 30, -5})

	bm := ix.Eligible(10, 20)
	require.EqualValues(t, 3, bm.GetCardinality())
	assert.True(t, bm.Contains(0))
	assert.True(t, bm.Contains(1))
	assert.True(t, bm.Contains(2))

	assert.True(t, ix.Eligible(-10, -1).Contains(4))
	assert.EqualValues(t, 0, ix.Eligible(100, 200).GetCardinality())
	assert.EqualValues(t, 0, ix.Eligible(20, 10).GetCardinality())
	assert.EqualValues(t, 5, ix.Eligible(-100, 100).GetCardinality())
}

func TestNegativeValues(t *testing.T) {
	ix := New([]int32{-3, 5, -7})

	assert.Equal(t, uint32(2), ix.IDAt(0))
	assert.Equal(t, uint32(0), ix.IDAt(1))
	assert.Equal(t, uint32(1), ix.IDAt(2))

	assert.Equal(t, 0, ix.LowerBound(-100))
	assert.Equal(t, 2, ix.UpperBound(-1))
}
