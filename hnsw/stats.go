package hnsw

import "fmt"

// LevelStats summarizes one layer of the graph.
type LevelStats struct {
	Level          int
	Nodes          int
	Connections    int
	AvgConnections int
}

// Stats summarizes the graph structure.
type Stats struct {
	Elements int
	MaxLevel int
	M        int
	M0       int
	Levels   []LevelStats
}

// Stats returns statistics about the graph. It walks the adjacency lists
// and should only be called on a sealed graph.
func (g *Graph) Stats() Stats {
	maxLevel := 0
	for i := range g.nodes {
		if l := int(g.nodes[i].level); l > maxLevel && g.nodes[i].conns != nil {
			maxLevel = l
		}
	}

	levels := make([]LevelStats, maxLevel+1)
	for l := range levels {
		levels[l].Level = l
	}

	for i := range g.nodes {
		nd := &g.nodes[i]
		if nd.conns == nil {
			continue
		}
		for l := 0; l <= int(nd.level); l++ {
			levels[l].Nodes++
			levels[l].Connections += len(nd.conns[l])
		}
	}

	for l := range levels {
		if levels[l].Nodes > 0 {
			levels[l].AvgConnections = levels[l].Connections / levels[l].Nodes
		}
	}

	return Stats{
		Elements: len(g.elems),
		MaxLevel: maxLevel,
		M:        g.mmax,
		M0:       g.mmax0,
		Levels:   levels,
	}
}

// Neighbors returns the internal IDs adjacent to the element at slot on
// the given layer. It is intended for inspection of sealed graphs.
func (g *Graph) Neighbors(slot, layer int) []uint32 {
	nd := &g.nodes[slot]
	if nd.conns == nil || layer > int(nd.level) {
		return nil
	}
	out := make([]uint32, len(nd.conns[layer]))
	for i, s := range nd.conns[layer] {
		out[i] = g.elems[s]
	}
	return out
}

// Level returns the top layer of the element at slot.
func (g *Graph) Level(slot int) int { return int(g.nodes[slot].level) }

// String returns a short description of the graph.
func (g *Graph) String() string {
	s := g.Stats()
	return fmt.Sprintf("HNSW(M=%d, M0=%d, Elements=%d, MaxLevel=%d)", s.M, s.M0, s.Elements, s.MaxLevel)
}
