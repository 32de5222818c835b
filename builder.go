package rangehnsw

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/rangehnsw/hnsw"
)

// insertChunk is the number of elements one insertion-parallel goroutine
// claims per step.
const insertChunk = 64

// buildGraphs populates every tree node's HNSW graph using a worker pool
// of ix.workers goroutines. Nodes are independent tasks, handed out
// largest-first so the root graph starts immediately; nodes at or above
// the insertion-parallel cutoff additionally split their insert loops
// across idle workers (bounded by the shared semaphore).
func (ix *Index) buildGraphs(ctx context.Context) error {
	nodes := ix.root.collect(nil)
	ix.totalNodes = len(nodes)

	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].size() > nodes[j].size()
	})

	tasks := make(chan *treeNode)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(tasks)
		for _, n := range nodes {
			select {
			case tasks <- n:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < ix.workers; w++ {
		g.Go(func() error {
			for n := range tasks {
				if err := ix.sem.Acquire(ctx, 1); err != nil {
					return err
				}
				err := ix.buildNode(ctx, n)
				ix.sem.Release(1)
				if err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}

// buildNode constructs one tree node's graph by inserting its members in
// ascending sorted-position order, then seals it for querying.
func (ix *Index) buildNode(ctx context.Context, n *treeNode) error {
	ix.enterWorker()
	defer ix.exitWorker()

	start := time.Now()

	elems := make([]uint32, n.size())
	for i := range elems {
		elems[i] = ix.attrs.IDAt(n.lo + i)
	}

	graph := hnsw.New(ix.store, elems, func(o *hnsw.Options) {
		o.M = ix.m
		o.EFConstruction = ix.efc
		o.Heuristic = ix.opts.heuristic
		o.RandomSeed = nodeSeed(ix.opts.randomSeed, n.lo, n.hi)
	})

	var err error
	if len(elems) >= ix.opts.insertionParallelCutoff && ix.workers > 1 {
		err = ix.insertParallel(ctx, graph, len(elems))
	} else {
		err = insertSequential(ctx, graph, len(elems))
	}
	if err != nil {
		return err
	}

	graph.Seal()
	n.graph = graph

	built := int(ix.builtNodes.Add(1))
	ix.opts.metricsCollector.RecordNodeBuild(len(elems), time.Since(start))
	ix.progress.Do(func() {
		ix.opts.logger.LogBuildProgress(ctx, built, ix.totalNodes)
	})

	return nil
}

// insertSequential inserts slots [0, size) in order, checking for
// cancellation between chunks.
func insertSequential(ctx context.Context, graph *hnsw.Graph, size int) error {
	for i := 0; i < size; i++ {
		if i%insertChunk == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := graph.Insert(i); err != nil {
			return err
		}
	}
	return nil
}

// insertParallel splits one graph's insert loop across the calling worker
// plus any idle workers it can claim from the shared semaphore. The first
// elements are inserted sequentially so the upper layers are connected
// before concurrent insertion begins.
func (ix *Index) insertParallel(ctx context.Context, graph *hnsw.Graph, size int) error {
	seed := insertChunk * 2
	if seed > size {
		seed = size
	}
	if err := insertSequential(ctx, graph, seed); err != nil {
		return err
	}

	var next atomic.Int64
	next.Store(int64(seed))

	g, gctx := errgroup.WithContext(ctx)

	insertLoop := func() error {
		for {
			lo := int(next.Add(insertChunk)) - insertChunk
			if lo >= size {
				return nil
			}
			if err := gctx.Err(); err != nil {
				return err
			}
			hi := lo + insertChunk
			if hi > size {
				hi = size
			}
			for i := lo; i < hi; i++ {
				if err := graph.Insert(i); err != nil {
					return err
				}
			}
		}
	}

	helpers := 0
	for helpers < ix.workers-1 && ix.sem.TryAcquire(1) {
		helpers++
		g.Go(func() error {
			defer ix.sem.Release(1)
			ix.enterWorker()
			defer ix.exitWorker()
			return insertLoop()
		})
	}

	// The owning worker participates inline.
	g.Go(insertLoop)

	return g.Wait()
}

// enterWorker and exitWorker maintain the active/peak worker counters
// consumed by the benchmark harness.
func (ix *Index) enterWorker() {
	active := ix.activeWorkers.Add(1)
	for {
		peak := ix.peakWorkers.Load()
		if active <= peak || ix.peakWorkers.CompareAndSwap(peak, active) {
			return
		}
	}
}

func (ix *Index) exitWorker() {
	ix.activeWorkers.Add(-1)
}

// nodeSeed derives a per-node RNG seed from the global seed and the node's
// position interval, keeping rebuilds with a fixed seed reproducible.
func nodeSeed(seed int64, lo, hi int) int64 {
	x := uint64(seed) ^ uint64(lo)*0x9e3779b97f4a7c15 ^ uint64(hi)*0xbf58476d1ce4e5b9
	x ^= x >> 31
	return int64(x)
}
