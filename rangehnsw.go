package rangehnsw

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/hupe1980/rangehnsw/attrindex"
	"github.com/hupe1980/rangehnsw/vectorstore"
)

// BuildConfig describes the dataset and construction parameters.
// The caller keeps ownership of all slices; Build copies what it needs.
type BuildConfig struct {
	// Dimension is the vector dimensionality d.
	Dimension int

	// Vectors holds the N base vectors row-major: len = N*Dimension.
	Vectors []float32

	// Keys are external identifiers carried through to query results as
	// opaque metadata. len(Keys) must equal len(Values).
	Keys []int32

	// Values are the filterable integer attributes, one per vector.
	// Internal IDs are assigned by position in this slice.
	Values []int32

	// M is the HNSW degree parameter (max links per element per layer;
	// layer 0 allows 2M).
	M int

	// EFConstruction is the dynamic candidate list size during build.
	EFConstruction int

	// WorkerCount is the number of build workers. Zero selects
	// runtime.GOMAXPROCS(0).
	WorkerCount int
}

// Index is a built range-filtered ANN index. It is immutable and safe for
// concurrent queries.
type Index struct {
	dim     int
	m       int
	efc     int
	workers int

	store *vectorstore.Store
	attrs *attrindex.Index
	keys  []int32
	root  *treeNode

	opts options

	activeWorkers atomic.Int64
	peakWorkers   atomic.Int64
	builtNodes    atomic.Int64
	totalNodes    int

	sem      *semaphore.Weighted
	progress rate.Sometimes
}

// Build constructs the index: it sorts IDs by attribute value, lays the
// complete binary tree over the sorted order, and populates every tree
// node's HNSW graph across the worker pool. Construction is
// all-or-nothing; on error no partial index is returned.
func Build(ctx context.Context, cfg BuildConfig, optFns ...Option) (*Index, error) {
	opts := applyOptions(optFns)

	if cfg.Dimension <= 0 {
		return nil, &ErrInvalidParameter{Name: "dimension", Value: cfg.Dimension}
	}
	if cfg.M <= 0 {
		return nil, &ErrInvalidParameter{Name: "M", Value: cfg.M}
	}
	if cfg.EFConstruction <= 0 {
		return nil, &ErrInvalidParameter{Name: "ef_construction", Value: cfg.EFConstruction}
	}
	if cfg.WorkerCount < 0 {
		return nil, &ErrInvalidParameter{Name: "worker_count", Value: cfg.WorkerCount}
	}

	n := len(cfg.Values)
	if n == 0 {
		return nil, ErrNoVectors
	}
	if len(cfg.Keys) != n {
		return nil, &ErrCountMismatch{What: "keys", Expected: n, Actual: len(cfg.Keys)}
	}
	if len(cfg.Vectors) != n*cfg.Dimension {
		return nil, &ErrCountMismatch{What: "vectors", Expected: n * cfg.Dimension, Actual: len(cfg.Vectors)}
	}

	workers := cfg.WorkerCount
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	keys := make([]int32, n)
	copy(keys, cfg.Keys)

	ix := &Index{
		dim:      cfg.Dimension,
		m:        cfg.M,
		efc:      cfg.EFConstruction,
		workers:  workers,
		store:    vectorstore.New(cfg.Dimension, cfg.Vectors),
		attrs:    attrindex.New(cfg.Values),
		keys:     keys,
		root:     newTree(0, n),
		opts:     opts,
		sem:      semaphore.NewWeighted(int64(workers)),
		progress: rate.Sometimes{Interval: time.Second},
	}

	start := time.Now()
	err := ix.buildGraphs(ctx)
	duration := time.Since(start)

	ix.opts.logger.LogBuild(ctx, n, workers, duration, err)
	ix.opts.metricsCollector.RecordBuild(n, duration, err)

	if err != nil {
		return nil, err
	}
	return ix, nil
}

// Len returns the number of indexed vectors.
func (ix *Index) Len() int { return ix.attrs.Len() }

// Dimension returns the vector dimensionality.
func (ix *Index) Dimension() int { return ix.dim }

// PeakWorkers returns the peak number of concurrently active build
// workers observed during construction.
func (ix *Index) PeakWorkers() int { return int(ix.peakWorkers.Load()) }

// Key returns the external key of the given internal ID.
func (ix *Index) Key(id uint32) int32 { return ix.keys[id] }

// Attribute returns the attribute value of the given internal ID.
func (ix *Index) Attribute(id uint32) int32 { return ix.attrs.Value(id) }
