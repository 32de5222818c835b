package queue

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinQueueOrder(t *testing.T) {
	pq := NewMin(8)

	pq.PushItem(Item{Node: 1, Distance: 3.0})
	pq.PushItem(Item{Node: 2, Distance: 1.0})
	pq.PushItem(Item{Node: 3, Distance: 2.0})

	item, ok := pq.PopItem()
	require.True(t, ok)
	assert.Equal(t, uint32(2), item.Node)

	item, _ = pq.PopItem()
	assert.Equal(t, uint32(3), item.Node)

	item, _ = pq.PopItem()
	assert.Equal(t, uint32(1), item.Node)

	_, ok = pq.PopItem()
	assert.False(t, ok)
}

func TestMaxQueueOrder(t *testing.T) {
	pq := NewMax(8)

	pq.PushItem(Item{Node: 1, Distance: 3.0})
	pq.PushItem(Item{Node: 2, Distance: 1.0})
	pq.PushItem(Item{Node: 3, Distance: 2.0})

	item, ok := pq.TopItem()
	require.True(t, ok)
	assert.Equal(t, uint32(1), item.Node)

	item, _ = pq.PopItem()
	assert.Equal(t, uint32(1), item.Node)
	item, _ = pq.PopItem()
	assert.Equal(t, uint32(3), item.Node)
	item, _ = pq.PopItem()
	assert.Equal(t, uint32(2), item.Node)
}

func TestTieBreakByNode(t *testing.T) {
	// Min-heap surfaces the smaller node among equals.
	pq := NewMin(4)
	pq.PushItem(Item{Node: 7, Distance: 1.0})
	pq.PushItem(Item{Node: 3, Distance: 1.0})
	pq.PushItem(Item{Node: 5, Distance: 1.0})

	item, _ := pq.PopItem()
	assert.Equal(t, uint32(3), item.Node)
	item, _ = pq.PopItem()
	assert.Equal(t, uint32(5), item.Node)

	// Max-heap surfaces the larger node among equals, so trimming to k
	// drops larger nodes first.
	mq := NewMax(4)
	mq.PushItem(Item{Node: 7, Distance: 1.0})
	mq.PushItem(Item{Node: 3, Distance: 1.0})
	mq.PushItem(Item{Node: 5, Distance: 1.0})

	item, _ = mq.PopItem()
	assert.Equal(t, uint32(7), item.Node)
	item, _ = mq.PopItem()
	assert.Equal(t, uint32(5), item.Node)
}

func TestMinItemOnMaxHeap(t *testing.T) {
	pq := NewMax(8)

	_, ok := pq.MinItem()
	assert.False(t, ok)

	pq.PushItem(Item{Node: 1, Distance: 5.0})
	pq.PushItem(Item{Node: 2, Distance: 2.0})
	pq.PushItem(Item{Node: 3, Distance: 9.0})

	item, ok := pq.MinItem()
	require.True(t, ok)
	assert.Equal(t, uint32(2), item.Node)
	assert.Equal(t, 3, pq.Len())
}

func TestReset(t *testing.T) {
	pq := NewMin(4)
	pq.PushItem(Item{Node: 1, Distance: 1.0})
	pq.Reset()
	assert.Equal(t, 0, pq.Len())

	_, ok := pq.TopItem()
	assert.False(t, ok)
}

func TestHeapPropertyRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	pq := NewMin(0)
	var want []float32
	for i := 0; i < 500; i++ {
		d := rng.Float32()
		pq.PushItem(Item{Node: uint32(i), Distance: d})
		want = append(want, d)
	}

	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

	for i := 0; i < len(want); i++ {
		item, ok := pq.PopItem()
		require.True(t, ok)
		assert.Equal(t, want[i], item.Distance)
	}
}
