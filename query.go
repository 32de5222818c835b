package rangehnsw

import (
	"time"

	"github.com/hupe1980/rangehnsw/internal/queue"
)

// SearchResult is a single query hit.
type SearchResult struct {
	// ID is the internal (load-order) ID of the vector.
	ID uint32

	// Key is the external key the vector was loaded with.
	Key int32

	// Distance is the squared Euclidean distance to the query.
	Distance float32
}

// QueryRange returns the k indexed vectors closest to q whose attribute
// value lies in [rangeL, rangeR]. efSearch bounds the per-graph dynamic
// candidate list and is raised to k if smaller. Results ascend by
// distance; equal distances break toward the smaller internal ID, making
// repeated queries deterministic.
//
// QueryRange is safe for concurrent use.
func (ix *Index) QueryRange(q []float32, rangeL, rangeR int32, k, efSearch int) ([]SearchResult, error) {
	start := time.Now()

	res, err := ix.queryRange(q, rangeL, rangeR, k, efSearch)

	ix.opts.metricsCollector.RecordQuery(k, time.Since(start), err)
	ix.opts.logger.LogQuery(k, len(res), err)

	return res, err
}

func (ix *Index) queryRange(q []float32, rangeL, rangeR int32, k, efSearch int) ([]SearchResult, error) {
	if len(q) != ix.dim {
		return nil, &ErrDimensionMismatch{Expected: ix.dim, Actual: len(q)}
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if efSearch <= 0 {
		return nil, ErrInvalidEF
	}
	if rangeL > rangeR {
		return nil, &ErrInvalidRange{L: rangeL, R: rangeR}
	}

	ef := efSearch
	if ef < k {
		ef = k
	}

	// Translate the value interval into sorted-position space.
	pl := ix.attrs.LowerBound(rangeL)
	pr := ix.attrs.UpperBound(rangeR)
	if pl >= pr {
		return nil, nil
	}

	cover := ix.root.cover(pl, pr, make([]*treeNode, 0, 2*ix.root.depth()+1))

	// Bounded max-heap of the k nearest across all cover nodes, keyed by
	// (distance, ID).
	merged := queue.NewMax(k)
	for _, n := range cover {
		for _, r := range n.graph.Search(q, ef) {
			if merged.Len() < k {
				merged.PushItem(queue.Item{Node: r.ID, Distance: r.Distance})
				continue
			}
			worst, _ := merged.TopItem()
			if r.Distance < worst.Distance ||
				(r.Distance == worst.Distance && r.ID < worst.Node) {
				merged.PopItem()
				merged.PushItem(queue.Item{Node: r.ID, Distance: r.Distance})
			}
		}
	}

	out := make([]SearchResult, merged.Len())
	for i := merged.Len() - 1; i >= 0; i-- {
		item, _ := merged.PopItem()
		out[i] = SearchResult{ID: item.Node, Key: ix.keys[item.Node], Distance: item.Distance}
	}
	return out, nil
}
