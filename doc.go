// Package rangehnsw provides an in-memory index for range-filtered
// approximate nearest-neighbor search.
//
// The index composes a segment-tree decomposition over the attribute
// domain with one HNSW proximity graph per tree node: each base vector
// carries an int32 attribute, IDs are sorted by attribute value, a
// complete binary tree is built over the sorted order, and every tree
// node owns an HNSW graph over exactly the vectors in its sub-range. A
// query (q, [L, R], k) decomposes [L, R] into the minimal O(log N) cover
// of tree nodes, searches each node's graph, and merges the candidates
// into the k nearest under squared Euclidean distance. Because every
// searched graph contains only eligible vectors, no query-time filtering
// is required.
//
// # Quick start
//
//	ix, err := rangehnsw.Build(ctx, rangehnsw.BuildConfig{
//	    Dimension:      128,
//	    Vectors:        vectors, // row-major, len = N*128
//	    Keys:           keys,
//	    Values:         values,
//	    M:              16,
//	    EFConstruction: 200,
//	    WorkerCount:    8,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	results, err := ix.QueryRange(query, 100, 500, 10, 64)
//
// The index is built once and immutable afterwards: there is no insertion,
// deletion, or persistence. QueryRange is safe for concurrent use once
// Build returns.
//
// Construction parallelizes across a configurable worker pool: tree nodes
// are independent build tasks, and large nodes additionally split their
// insert loops across idle workers. Graph insertion uses per-element
// mutexes acquired in ascending order.
package rangehnsw
