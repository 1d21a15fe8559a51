package engine

import (
	"github.com/piwi3910/ParcelKit/internal/model"
)

// sharedEdgeVertices is the number of distinct matched vertex pairs that
// make two parcels neighbors. One matched vertex is only a corner touch.
const sharedEdgeVertices = 2

// AreNeighbors reports whether two parcels share an edge. Parcels in
// different blocks are never neighbors. Two parcels share an edge when at
// least two distinct vertex pairs lie within tolerance of each other, each
// vertex being used in at most one pair.
//
// Shared edges where one side has more vertices than the other along the
// edge can be missed: only vertex coincidence is tested, not overlap of
// collinear segments.
func AreNeighbors(p1, p2 model.Parcel, tolerance float64) bool {
	if p1.BlockKey != p2.BlockKey {
		return false
	}
	return sharesEdge(p1.Boundary.Vertices(), p2.Boundary.Vertices(), tolerance)
}

// vertexPair is a matched (i, j) vertex index pair.
type vertexPair struct {
	i, j int
}

// sharesEdge reports whether a matching of size two exists between the two
// vertex sets. The answer does not depend on argument order.
func sharesEdge(a, b []model.Point2D, tolerance float64) bool {
	var first vertexPair
	found := false
	// Pairs that reuse exactly one vertex of the first pair; combining one
	// of each kind also yields two disjoint pairs.
	var sameI, sameJ bool

	for i, pa := range a {
		for j, pb := range b {
			if pa.Distance(pb) > tolerance {
				continue
			}
			if !found {
				first = vertexPair{i: i, j: j}
				found = true
				continue
			}
			switch {
			case i != first.i && j != first.j:
				return true
			case i == first.i && j != first.j:
				sameI = true
			case j == first.j && i != first.i:
				sameJ = true
			}
			if sameI && sameJ {
				return true
			}
		}
	}
	return false
}

// AdjacencyIndex stores the neighbor relation of the parcels of one block.
// Parcels live in an arena slice and neighbors are referenced by index.
type AdjacencyIndex struct {
	BlockKey  string
	parcels   []model.Parcel
	neighbors [][]int
}

// NewAdjacencyIndex computes all pairwise neighbor tests for the given
// parcels once. Parcels from other blocks than the first one's never become
// neighbors.
func NewAdjacencyIndex(parcels []model.Parcel, tolerance float64) *AdjacencyIndex {
	idx := &AdjacencyIndex{
		parcels:   parcels,
		neighbors: make([][]int, len(parcels)),
	}
	if len(parcels) > 0 {
		idx.BlockKey = parcels[0].BlockKey
	}

	vertices := make([][]model.Point2D, len(parcels))
	for i, p := range parcels {
		vertices[i] = p.Boundary.Vertices()
	}

	for i := 0; i < len(parcels); i++ {
		for j := i + 1; j < len(parcels); j++ {
			if parcels[i].BlockKey != parcels[j].BlockKey {
				continue
			}
			if sharesEdge(vertices[i], vertices[j], tolerance) {
				idx.neighbors[i] = append(idx.neighbors[i], j)
				idx.neighbors[j] = append(idx.neighbors[j], i)
			}
		}
	}
	return idx
}

// Len returns the number of parcels in the index.
func (a *AdjacencyIndex) Len() int {
	return len(a.parcels)
}

// Parcel returns the parcel at position i.
func (a *AdjacencyIndex) Parcel(i int) model.Parcel {
	return a.parcels[i]
}

// Neighbors returns the positions of the neighbors of parcel i in
// ascending order.
func (a *AdjacencyIndex) Neighbors(i int) []int {
	return a.neighbors[i]
}

// Adjacent reports whether parcels i and j share an edge.
func (a *AdjacencyIndex) Adjacent(i, j int) bool {
	for _, n := range a.neighbors[i] {
		if n == j {
			return true
		}
	}
	return false
}

// Pairs returns every adjacent pair once, with i < j, ordered by i then j.
func (a *AdjacencyIndex) Pairs() [][2]int {
	var pairs [][2]int
	for i, ns := range a.neighbors {
		for _, j := range ns {
			if i < j {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}

// BuildBlockIndexes groups parcels by block and builds one adjacency index
// per block, in order of first appearance.
func BuildBlockIndexes(parcels []model.Parcel, tolerance float64) []*AdjacencyIndex {
	groups := model.GroupByBlock(parcels)
	indexes := make([]*AdjacencyIndex, 0, len(groups))
	for _, g := range groups {
		indexes = append(indexes, NewAdjacencyIndex(g.Parcels, tolerance))
	}
	return indexes
}

// NeighborsOf returns the ids of the parcels that share an edge with target,
// in input order. The target itself is skipped by id.
func NeighborsOf(target model.Parcel, parcels []model.Parcel, tolerance float64) []string {
	var ids []string
	for _, p := range parcels {
		if p.ID == target.ID {
			continue
		}
		if AreNeighbors(target, p, tolerance) {
			ids = append(ids, p.ID)
		}
	}
	return ids
}
