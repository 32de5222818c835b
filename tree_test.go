package rangehnsw

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeTopology(t *testing.T) {
	root := newTree(0, 8)

	assert.Equal(t, 8, root.size())
	assert.Equal(t, 3, root.depth())
	assert.Len(t, root.collect(nil), 15)

	// Leaves cover single positions.
	leaves := 0
	for _, n := range root.collect(nil) {
		if n.left == nil {
			require.Nil(t, n.right)
			assert.Equal(t, 1, n.size())
			leaves++
		} else {
			mid := (n.lo + n.hi) / 2
			assert.Equal(t, mid, n.left.hi)
			assert.Equal(t, mid, n.right.lo)
		}
	}
	assert.Equal(t, 8, leaves)
}

func TestTreeCover(t *testing.T) {
	const n = 37
	root := newTree(0, n)

	maxCover := 2 * int(math.Ceil(math.Log2(float64(n))))

	for pl := 0; pl < n; pl++ {
		for pr := pl + 1; pr <= n; pr++ {
			cover := root.cover(pl, pr, nil)

			assert.LessOrEqual(t, len(cover), maxCover, "[%d,%d)", pl, pr)

			// The cover tiles [pl, pr) exactly: disjoint, sorted, gapless.
			sort.Slice(cover, func(i, j int) bool { return cover[i].lo < cover[j].lo })
			pos := pl
			for _, c := range cover {
				require.Equal(t, pos, c.lo, "[%d,%d)", pl, pr)
				pos = c.hi
			}
			require.Equal(t, pr, pos, "[%d,%d)", pl, pr)
		}
	}
}

func TestTreeCoverOutside(t *testing.T) {
	root := newTree(0, 10)

	assert.Empty(t, root.cover(10, 10, nil))
	assert.Empty(t, root.cover(4, 4, nil))
}
