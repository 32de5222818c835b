package hnsw

import (
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rangehnsw/distance"
	"github.com/hupe1980/rangehnsw/vectorstore"
)

func newTestStore(t *testing.T, dim int, vectors [][]float32) *vectorstore.Store {
	t.Helper()
	flat := make([]float32, 0, len(vectors)*dim)
	for _, v := range vectors {
		require.Len(t, v, dim)
		flat = append(flat, v...)
	}
	return vectorstore.New(dim, flat)
}

func sequentialIDs(n int) []uint32 {
	ids := make([]uint32, n)
	for i := range ids {
		ids[i] = uint32(i)
	}
	return ids
}

func TestGraphEmpty(t *testing.T) {
	store := newTestStore(t, 2, nil)
	g := New(store, nil)
	g.Seal()

	_, _, ok := g.EntryPoint()
	assert.False(t, ok)
	assert.Nil(t, g.Search([]float32{0, 0}, 10))
}

func TestGraphSingleElement(t *testing.T) {
	store := newTestStore(t, 2, [][]float32{{3, 4}})
	g := New(store, sequentialIDs(1), func(o *Options) { o.RandomSeed = 5 })

	require.NoError(t, g.Insert(0))
	g.Seal()

	slot, _, ok := g.EntryPoint()
	require.True(t, ok)
	assert.Equal(t, 0, slot)

	res := g.Search([]float32{0, 0}, 10)
	require.Len(t, res, 1)
	assert.Equal(t, uint32(0), res[0].ID)
	assert.InDelta(t, 25.0, res[0].Distance, 1e-6)
}

func TestGraphInsertSealed(t *testing.T) {
	store := newTestStore(t, 2, [][]float32{{0, 0}, {1, 1}})
	g := New(store, sequentialIDs(2))

	require.NoError(t, g.Insert(0))
	g.Seal()

	assert.ErrorIs(t, g.Insert(1), ErrSealed)
}

func TestGraphSearchExactness(t *testing.T) {
	const n, dim = 500, 8

	rng := rand.New(rand.NewSource(7))
	vectors := make([][]float32, n)
	for i := range vectors {
		v := make([]float32, dim)
		for j := range v {
			v[j] = float32(rng.NormFloat64())
		}
		vectors[i] = v
	}

	store := newTestStore(t, dim, vectors)
	g := New(store, sequentialIDs(n), func(o *Options) {
		o.M = 12
		o.EFConstruction = 100
		o.RandomSeed = 7
	})

	for i := 0; i < n; i++ {
		require.NoError(t, g.Insert(i))
	}
	g.Seal()

	// A large ef over a modest graph should reach near-exact recall.
	hits := 0
	const queries, k = 50, 10
	for qi := 0; qi < queries; qi++ {
		q := make([]float32, dim)
		for j := range q {
			q[j] = float32(rng.NormFloat64())
		}

		type pair struct {
			id   uint32
			dist float32
		}
		exact := make([]pair, n)
		for i := range vectors {
			exact[i] = pair{id: uint32(i), dist: distance.SquaredL2(q, vectors[i])}
		}
		sort.Slice(exact, func(i, j int) bool { return exact[i].dist < exact[j].dist })

		truth := make(map[uint32]struct{}, k)
		for i := 0; i < k; i++ {
			truth[exact[i].id] = struct{}{}
		}

		res := g.Search(q, 200)
		if len(res) > k {
			res = res[:k]
		}
		for _, r := range res {
			if _, ok := truth[r.ID]; ok {
				hits++
			}
		}
	}

	recall := float64(hits) / float64(queries*k)
	assert.Greater(t, recall, 0.95, "recall %f", recall)
}

func TestGraphSearchOrdered(t *testing.T) {
	const n, dim = 200, 4

	rng := rand.New(rand.NewSource(11))
	vectors := make([][]float32, n)
	for i := range vectors {
		v := make([]float32, dim)
		for j := range v {
			v[j] = rng.Float32()
		}
		vectors[i] = v
	}

	store := newTestStore(t, dim, vectors)
	g := New(store, sequentialIDs(n), func(o *Options) { o.RandomSeed = 11 })
	for i := 0; i < n; i++ {
		require.NoError(t, g.Insert(i))
	}
	g.Seal()

	res := g.Search([]float32{0.5, 0.5, 0.5, 0.5}, 32)
	require.NotEmpty(t, res)
	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i].Distance, res[i-1].Distance)
	}
}

func TestGraphConcurrentInsert(t *testing.T) {
	const n, dim, workers = 1000, 8, 8

	rng := rand.New(rand.NewSource(13))
	vectors := make([][]float32, n)
	for i := range vectors {
		v := make([]float32, dim)
		for j := range v {
			v[j] = float32(rng.NormFloat64())
		}
		vectors[i] = v
	}

	store := newTestStore(t, dim, vectors)
	g := New(store, sequentialIDs(n), func(o *Options) {
		o.M = 8
		o.EFConstruction = 64
		o.RandomSeed = 13
	})

	// Seed sequentially, then hammer the rest concurrently.
	const seed = 64
	for i := 0; i < seed; i++ {
		require.NoError(t, g.Insert(i))
	}

	var next sync.Mutex
	cursor := seed
	claim := func() int {
		next.Lock()
		defer next.Unlock()
		if cursor >= n {
			return -1
		}
		i := cursor
		cursor++
		return i
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := claim()
				if i < 0 {
					return
				}
				assert.NoError(t, g.Insert(i))
			}
		}()
	}
	wg.Wait()
	g.Seal()

	// A generous ef must reach more than half of the elements.
	res := g.Search(vectors[n-1], n)
	assert.Greater(t, len(res), n/2)

	// Degree caps hold everywhere.
	s := g.Stats()
	assert.Equal(t, n, s.Elements)
	for slot := 0; slot < n; slot++ {
		for layer := 0; layer <= g.Level(slot); layer++ {
			maxConns := s.M
			if layer == 0 {
				maxConns = s.M0
			}
			require.LessOrEqual(t, len(g.Neighbors(slot, layer)), maxConns)
		}
	}
}

func TestGraphStats(t *testing.T) {
	store := newTestStore(t, 2, [][]float32{{0, 0}, {1, 0}, {0, 1}})
	g := New(store, sequentialIDs(3), func(o *Options) { o.M = 4; o.RandomSeed = 3 })
	for i := 0; i < 3; i++ {
		require.NoError(t, g.Insert(i))
	}
	g.Seal()

	s := g.Stats()
	assert.Equal(t, 3, s.Elements)
	assert.Equal(t, 4, s.M)
	assert.Equal(t, 8, s.M0)
	require.NotEmpty(t, s.Levels)
	assert.Equal(t, 3, s.Levels[0].Nodes)
	assert.NotEmpty(t, g.String())
}

func TestOptionsClamping(t *testing.T) {
	store := newTestStore(t, 2, [][]float32{{0, 0}})

	// M=1 would break the layer multiplier; it clamps to the minimum.
	g := New(store, sequentialIDs(1), func(o *Options) { o.M = 1 })
	assert.Equal(t, minimumM, g.mmax)
	assert.Equal(t, 2*minimumM, g.mmax0)
}
