// Package testutil provides deterministic data generators and exact
// reference search for tests and benchmarks.
package testutil

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/rangehnsw/attrindex"
	"github.com/hupe1980/rangehnsw/distance"
)

// SearchResult represents an exact-search result.
type SearchResult struct {
	ID       uint32
	Distance float32
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 { return r.seed }

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Int31n returns a non-negative pseudo-random int32 in [0,n).
func (r *RNG) Int31n(n int32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Int31n(n)
}

// UniformVectors generates num vectors with values in [0, 1) into a flat
// row-major buffer.
func (r *RNG) UniformVectors(num, dim int) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	for i := range data {
		data[i] = r.rand.Float32()
	}
	return data
}

// GaussianVectors generates num vectors with standard normal components
// into a flat row-major buffer.
func (r *RNG) GaussianVectors(num, dim int) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	for i := range data {
		data[i] = float32(r.rand.NormFloat64())
	}
	return data
}

// UnitVectors generates num L2-normalized vectors (points on the unit
// hypersphere) into a flat row-major buffer. Gaussian sampling followed by
// normalization distributes the points uniformly on the sphere; use these
// as query vectors when testing recall.
func (r *RNG) UnitVectors(num, dim int) []float32 {
	data := r.GaussianVectors(num, dim)
	for i := 0; i < num; i++ {
		vec := data[i*dim : (i+1)*dim]
		if !distance.NormalizeL2InPlace(vec) {
			vec[0] = 1
		}
	}
	return data
}

// UniformAttributes generates num attribute values uniform in [lo, hi).
func (r *RNG) UniformAttributes(num int, lo, hi int32) []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	values := make([]int32, num)
	span := hi - lo
	for i := range values {
		values[i] = lo + r.rand.Int31n(span)
	}
	return values
}

// SequentialKeys returns keys 0..num-1, the layout produced by the CSV
// attribute converter.
func SequentialKeys(num int) []int32 {
	keys := make([]int32, num)
	for i := range keys {
		keys[i] = int32(i)
	}
	return keys
}

// BruteForceRangeSearch performs exact range-filtered search over the
// row-major vectors: the k nearest to q among IDs whose attribute value
// lies in [lo, hi], ascending distance, ties broken by smaller ID.
// Eligibility comes from the attribute index's bitmap, the same structure
// the invariant tests check query results against.
func BruteForceRangeSearch(vectors []float32, dim int, attrs *attrindex.Index, q []float32, lo, hi int32, k int) []SearchResult {
	eligible := attrs.Eligible(lo, hi)

	results := make([]SearchResult, 0, eligible.GetCardinality())
	it := eligible.Iterator()
	for it.HasNext() {
		id := it.Next()
		vec := vectors[int(id)*dim : (int(id)+1)*dim]
		results = append(results, SearchResult{
			ID:       id,
			Distance: distance.SquaredL2(q, vec),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// ComputeRecall computes recall by comparing approximate result IDs
// against exact ground truth.
func ComputeRecall(groundTruth, approximate []SearchResult) float64 {
	if len(groundTruth) == 0 {
		return 1.0
	}

	truthSet := make(map[uint32]struct{}, len(groundTruth))
	for _, r := range groundTruth {
		truthSet[r.ID] = struct{}{}
	}

	hits := 0
	for _, r := range approximate {
		if _, ok := truthSet[r.ID]; ok {
			hits++
		}
	}

	return float64(hits) / float64(len(groundTruth))
}
