// Package hnsw implements the Hierarchical Navigable Small World proximity
// graph (Malkov & Yashunin) over a subset of a shared vector store.
//
// One Graph exists per range-tree node; elements are addressed by slot, the
// element's position in the node's attribute-sorted member list. A graph
// lives in one of two phases: building (concurrent Insert calls guarded by
// per-element mutexes) or querying (read-only after Seal; adjacency reads
// take no per-element mutex, and only the entry point is read under a
// shared lock).
package hnsw

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/rangehnsw/distance"
	"github.com/hupe1980/rangehnsw/internal/queue"
	"github.com/hupe1980/rangehnsw/vectorstore"
)

const (
	// mmax0Multiplier is the multiplier for maximum connections at layer 0.
	mmax0Multiplier = 2

	// minimumM is the minimum valid value for M. M == 1 would make the
	// layer multiplier 1/ln(1) divide by zero.
	minimumM = 2

	// DefaultM is the default number of bidirectional links per layer.
	DefaultM = 8

	// DefaultEFConstruction is the default dynamic candidate list size
	// during construction.
	DefaultEFConstruction = 200
)

// ErrSealed is returned by Insert after the graph entered the query phase.
var ErrSealed = errors.New("hnsw: graph is sealed")

// Options represents the options for configuring a Graph.
type Options struct {
	// M specifies the number of established connections per element per
	// layer. Layer 0 allows 2*M.
	M int

	// EFConstruction specifies the size of the dynamic candidate list
	// during insertion. Larger values improve graph quality at the cost
	// of build time.
	EFConstruction int

	// Heuristic selects the diversity-preserving neighbor selection
	// (Malkov & Yashunin, Algorithm 4) instead of plain nearest-M.
	Heuristic bool

	// RandomSeed seeds the layer-assignment RNG, making builds
	// reproducible.
	RandomSeed int64
}

// DefaultOptions holds the defaults applied by New.
var DefaultOptions = Options{
	M:              DefaultM,
	EFConstruction: DefaultEFConstruction,
	Heuristic:      true,
	RandomSeed:     1,
}

// Result is a single search hit: the element's internal (global) ID and its
// squared Euclidean distance to the query.
type Result struct {
	ID       uint32
	Distance float32
}

type element struct {
	level int32
	conns [][]uint32 // per layer, slots; capacity M (2M at layer 0)
}

// Graph is an HNSW graph over the elements elems, whose vectors live in the
// shared store.
type Graph struct {
	store *vectorstore.Store
	elems []uint32 // slot -> internal ID

	mmax  int
	mmax0 int
	ml    float64
	opts  Options

	nodes []element
	locks []sync.Mutex // one per slot, acquired in ascending slot order

	epMu    sync.RWMutex // guards entry point replacement
	epSlot  int32        // -1 while empty
	epLevel int32

	rngMu sync.Mutex
	rng   *rand.Rand

	sealed atomic.Bool

	minPool     sync.Pool
	maxPool     sync.Pool
	visitedPool sync.Pool
}

// New creates an empty graph over the given member IDs. The member vectors
// are read from store; elems must be the node's IDs in attribute-sorted
// order, which is also the required insertion order.
func New(store *vectorstore.Store, elems []uint32, optFns ...func(o *Options)) *Graph {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.M < minimumM {
		opts.M = minimumM
	}
	if opts.EFConstruction < 1 {
		opts.EFConstruction = DefaultEFConstruction
	}

	g := &Graph{
		store:  store,
		elems:  elems,
		mmax:   opts.M,
		mmax0:  mmax0Multiplier * opts.M,
		ml:     1 / math.Log(float64(opts.M)),
		opts:   opts,
		nodes:  make([]element, len(elems)),
		locks:  make([]sync.Mutex, len(elems)),
		epSlot: -1,
		rng:    rand.New(rand.NewSource(opts.RandomSeed)), // nolint gosec
	}

	g.minPool = sync.Pool{New: func() any { return queue.NewMin(opts.EFConstruction) }}
	g.maxPool = sync.Pool{New: func() any { return queue.NewMax(opts.EFConstruction) }}
	g.visitedPool = sync.Pool{New: func() any { return newVisitedSet(len(elems)) }}

	return g
}

// Len returns the number of member elements.
func (g *Graph) Len() int { return len(g.elems) }

// IDAt returns the internal ID stored at the given slot.
func (g *Graph) IDAt(slot int) uint32 { return g.elems[slot] }

// Seal transitions the graph from the building phase to the querying
// phase. Inserts after Seal fail; searches before Seal are not allowed.
func (g *Graph) Seal() { g.sealed.Store(true) }

// Sealed reports whether the graph entered the query phase.
func (g *Graph) Sealed() bool { return g.sealed.Load() }

// EntryPoint returns the current entry point slot and its top layer.
// ok is false while the graph is empty.
func (g *Graph) EntryPoint() (slot int, level int, ok bool) {
	g.epMu.RLock()
	defer g.epMu.RUnlock()
	if g.epSlot < 0 {
		return 0, 0, false
	}
	return int(g.epSlot), int(g.epLevel), true
}

func (g *Graph) vector(slot uint32) []float32 {
	return g.store.Get(g.elems[slot])
}

func (g *Graph) capAt(layer int) int {
	if layer == 0 {
		return g.mmax0
	}
	return g.mmax
}

// randomLevel samples the top layer for a new element: floor(-ln(u) * mL)
// with u uniform in (0, 1].
func (g *Graph) randomLevel() int {
	g.rngMu.Lock()
	u := 1 - g.rng.Float64()
	g.rngMu.Unlock()
	return int(math.Floor(-math.Log(u) * g.ml))
}

// getConnections copies the layer adjacency of slot into buf. During the
// building phase the slot's mutex serializes against concurrent edge
// updates; after Seal the lists are immutable and read directly.
func (g *Graph) getConnections(slot uint32, layer int, buf []uint32) []uint32 {
	if g.sealed.Load() {
		nd := &g.nodes[slot]
		if layer > int(nd.level) {
			return buf[:0]
		}
		return append(buf[:0], nd.conns[layer]...)
	}

	g.locks[slot].Lock()
	defer g.locks[slot].Unlock()

	nd := &g.nodes[slot]
	if nd.conns == nil || layer > int(nd.level) {
		return buf[:0]
	}
	return append(buf[:0], nd.conns[layer]...)
}

// Insert adds the element at the given slot to the graph. Slots must be
// inserted in ascending order per worker batch; concurrent Insert calls for
// distinct slots are safe.
func (g *Graph) Insert(slot int) error {
	if g.sealed.Load() {
		return ErrSealed
	}

	vec := g.vector(uint32(slot))
	level := g.randomLevel()

	conns := make([][]uint32, level+1)
	for l := range conns {
		conns[l] = make([]uint32, 0, g.capAt(l))
	}

	// Publish level and lists before the element becomes reachable
	// through reciprocal edges.
	g.locks[slot].Lock()
	g.nodes[slot] = element{level: int32(level), conns: conns}
	g.locks[slot].Unlock()

	// First element becomes the entry point.
	g.epMu.Lock()
	if g.epSlot < 0 {
		g.epSlot = int32(slot)
		g.epLevel = int32(level)
		g.epMu.Unlock()
		return nil
	}
	epSlot, epLevel := g.epSlot, g.epLevel
	g.epMu.Unlock()

	curr := uint32(epSlot)
	currDist := distance.SquaredL2(vec, g.vector(curr))

	// Greedy descent through the layers above the new element's top.
	scratch := make([]uint32, 0, g.mmax0)
	for l := int(epLevel); l > level; l-- {
		curr, currDist = g.greedyStep(vec, curr, currDist, l, scratch)
	}

	// Search and link from min(level, top) down to 0.
	for l := min(level, int(epLevel)); l >= 0; l-- {
		results := g.searchLayer(vec, curr, currDist, l, g.opts.EFConstruction)

		if best, ok := results.MinItem(); ok {
			curr, currDist = best.Node, best.Distance
		}

		neighbors := g.selectNeighbors(vec, results, g.capAt(l))

		results.Reset()
		g.maxPool.Put(results)

		g.link(uint32(slot), neighbors, l)
	}

	if level > int(epLevel) {
		g.epMu.Lock()
		if int32(level) > g.epLevel {
			g.epLevel = int32(level)
			g.epSlot = int32(slot)
		}
		g.epMu.Unlock()
	}

	return nil
}

// greedyStep repeatedly moves to the closest neighbor at the given layer
// until no improvement is possible.
func (g *Graph) greedyStep(q []float32, curr uint32, currDist float32, layer int, scratch []uint32) (uint32, float32) {
	for changed := true; changed; {
		changed = false
		for _, next := range g.getConnections(curr, layer, scratch) {
			nextDist := distance.SquaredL2(q, g.vector(next))
			if nextDist < currDist {
				curr = next
				currDist = nextDist
				changed = true
			}
		}
	}
	return curr, currDist
}

// searchLayer performs the classical candidate-list search at one layer.
// The returned max-heap holds up to ef (slot, distance) pairs and must be
// recycled into maxPool by the caller.
func (g *Graph) searchLayer(q []float32, epSlot uint32, epDist float32, layer, ef int) *queue.PriorityQueue {
	visited := g.visitedPool.Get().(*visitedSet)
	visited.Reset()
	defer g.visitedPool.Put(visited)

	candidates := g.minPool.Get().(*queue.PriorityQueue)
	candidates.Reset()
	defer func() {
		candidates.Reset()
		g.minPool.Put(candidates)
	}()

	results := g.maxPool.Get().(*queue.PriorityQueue)
	results.Reset()

	visited.Visit(epSlot)
	candidates.PushItem(queue.Item{Node: epSlot, Distance: epDist})
	results.PushItem(queue.Item{Node: epSlot, Distance: epDist})

	scratch := make([]uint32, 0, g.mmax0)

	for candidates.Len() > 0 {
		curr, _ := candidates.PopItem()

		if worst, ok := results.TopItem(); ok && curr.Distance > worst.Distance && results.Len() >= ef {
			break
		}

		for _, next := range g.getConnections(curr.Node, layer, scratch) {
			if visited.Visited(next) {
				continue
			}
			visited.Visit(next)

			nextDist := distance.SquaredL2(q, g.vector(next))

			worst, _ := results.TopItem()
			if results.Len() < ef {
				candidates.PushItem(queue.Item{Node: next, Distance: nextDist})
				results.PushItem(queue.Item{Node: next, Distance: nextDist})
			} else if nextDist < worst.Distance {
				candidates.PushItem(queue.Item{Node: next, Distance: nextDist})
				results.PushItem(queue.Item{Node: next, Distance: nextDist})
				results.PopItem()
			}
		}
	}

	return results
}

// selectNeighbors reduces the candidate heap to at most m slots, nearest
// first.
func (g *Graph) selectNeighbors(q []float32, candidates *queue.PriorityQueue, m int) []uint32 {
	if g.opts.Heuristic {
		return g.selectNeighborsHeuristic(candidates, m)
	}
	return g.selectNeighborsSimple(candidates, m)
}

// selectNeighborsSimple keeps the nearest m candidates.
func (g *Graph) selectNeighborsSimple(candidates *queue.PriorityQueue, m int) []uint32 {
	for candidates.Len() > m {
		candidates.PopItem()
	}
	res := make([]uint32, candidates.Len())
	for i := candidates.Len() - 1; i >= 0; i-- {
		item, _ := candidates.PopItem()
		res[i] = item.Node
	}
	return res
}

// selectNeighborsHeuristic applies the diversity heuristic: a candidate c
// is kept only if no already-selected neighbor is closer to c than the
// query is. Pruned candidates backfill remaining capacity in distance
// order.
func (g *Graph) selectNeighborsHeuristic(candidates *queue.PriorityQueue, m int) []uint32 {
	if candidates.Len() <= m {
		return g.selectNeighborsSimple(candidates, m)
	}

	// The max-heap pops worst to best; reverse into nearest-first order.
	temp := make([]queue.Item, candidates.Len())
	for i := len(temp) - 1; i >= 0; i-- {
		temp[i], _ = candidates.PopItem()
	}

	result := make([]uint32, 0, m)
	resultVecs := make([][]float32, 0, m)
	pruned := make([]queue.Item, 0, len(temp))

	for _, cand := range temp {
		if len(result) >= m {
			break
		}

		candVec := g.vector(cand.Node)
		good := true
		for _, selVec := range resultVecs {
			if distance.SquaredL2(candVec, selVec) < cand.Distance {
				good = false
				break
			}
		}

		if good {
			result = append(result, cand.Node)
			resultVecs = append(resultVecs, candVec)
		} else {
			pruned = append(pruned, cand)
		}
	}

	for _, cand := range pruned {
		if len(result) >= m {
			break
		}
		result = append(result, cand.Node)
	}

	return result
}

// link commits the new element's edges for one layer: the forward list plus
// reciprocal edges, re-pruning any neighbor whose degree would exceed its
// cap. All affected element mutexes are held for the whole step, acquired
// in ascending slot order.
func (g *Graph) link(slot uint32, neighbors []uint32, layer int) {
	lockSet := make([]uint32, 0, len(neighbors)+1)
	lockSet = append(lockSet, slot)
	lockSet = append(lockSet, neighbors...)
	sortSlots(lockSet)
	lockSet = dedupSlots(lockSet)

	for _, s := range lockSet {
		g.locks[s].Lock()
	}
	defer func() {
		for i := len(lockSet) - 1; i >= 0; i-- {
			g.locks[lockSet[i]].Unlock()
		}
	}()

	nd := &g.nodes[slot]
	nd.conns[layer] = append(nd.conns[layer][:0], neighbors...)

	for _, nb := range neighbors {
		g.addReciprocal(nb, slot, layer)
	}
}

// addReciprocal adds slot to nb's adjacency at the given layer, shrinking
// the list back to its cap with the selection heuristic when it overflows.
// The caller holds both mutexes.
func (g *Graph) addReciprocal(nb, slot uint32, layer int) {
	nd := &g.nodes[nb]
	conns := nd.conns[layer]

	for _, c := range conns {
		if c == slot {
			return
		}
	}

	maxConns := g.capAt(layer)
	if len(conns) < maxConns {
		nd.conns[layer] = append(conns, slot)
		return
	}

	nbVec := g.vector(nb)

	candidates := g.maxPool.Get().(*queue.PriorityQueue)
	candidates.Reset()
	defer func() {
		candidates.Reset()
		g.maxPool.Put(candidates)
	}()

	for _, c := range conns {
		candidates.PushItem(queue.Item{Node: c, Distance: distance.SquaredL2(nbVec, g.vector(c))})
	}
	candidates.PushItem(queue.Item{Node: slot, Distance: distance.SquaredL2(nbVec, g.vector(slot))})

	selected := g.selectNeighbors(nbVec, candidates, maxConns)
	nd.conns[layer] = append(nd.conns[layer][:0], selected...)
}

// Search returns up to ef candidates from layer 0, nearest first, as
// internal IDs. The graph must be sealed; an empty graph returns nil.
func (g *Graph) Search(q []float32, ef int) []Result {
	g.epMu.RLock()
	epSlot, epLevel := g.epSlot, g.epLevel
	g.epMu.RUnlock()

	if epSlot < 0 {
		return nil
	}
	if ef < 1 {
		ef = 1
	}

	curr := uint32(epSlot)
	currDist := distance.SquaredL2(q, g.vector(curr))

	scratch := make([]uint32, 0, g.mmax0)
	for l := int(epLevel); l > 0; l-- {
		curr, currDist = g.greedyStep(q, curr, currDist, l, scratch)
	}

	results := g.searchLayer(q, curr, currDist, 0, ef)
	defer func() {
		results.Reset()
		g.maxPool.Put(results)
	}()

	out := make([]Result, results.Len())
	for i := results.Len() - 1; i >= 0; i-- {
		item, _ := results.PopItem()
		out[i] = Result{ID: g.elems[item.Node], Distance: item.Distance}
	}
	return out
}

// sortSlots sorts a small slot slice in ascending order. Adjacency lists
// are tiny (at most 2M+1 entries), so insertion sort beats sort.Slice.
func sortSlots(s []uint32) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// dedupSlots compacts a sorted slot slice in place. Locking the same slot
// twice would self-deadlock.
func dedupSlots(s []uint32) []uint32 {
	out := s[:0]
	for i, v := range s {
		if i == 0 || v != s[i-1] {
			out = append(out, v)
		}
	}
	return out
}
