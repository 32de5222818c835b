package rangehnsw

import "fmt"

// Stats summarizes a built index.
type Stats struct {
	Vectors        int
	Dimension      int
	M              int
	EFConstruction int
	Workers        int
	PeakWorkers    int
	TreeNodes      int
	TreeDepth      int
	GraphElements  int // sum of per-node graph sizes
	MaxGraphLevel  int
}

// Stats returns statistics about the built index.
func (ix *Index) Stats() Stats {
	s := Stats{
		Vectors:        ix.attrs.Len(),
		Dimension:      ix.dim,
		M:              ix.m,
		EFConstruction: ix.efc,
		Workers:        ix.workers,
		PeakWorkers:    int(ix.peakWorkers.Load()),
		TreeDepth:      ix.root.depth(),
	}

	for _, n := range ix.root.collect(nil) {
		s.TreeNodes++
		s.GraphElements += n.graph.Len()
		if gs := n.graph.Stats(); gs.MaxLevel > s.MaxGraphLevel {
			s.MaxGraphLevel = gs.MaxLevel
		}
	}

	return s
}

// String returns a short description of the index.
func (ix *Index) String() string {
	return fmt.Sprintf("RangeHNSW(N=%d, dim=%d, M=%d, efc=%d, treeDepth=%d)",
		ix.attrs.Len(), ix.dim, ix.m, ix.efc, ix.root.depth())
}
