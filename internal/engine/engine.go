// Package engine answers adjacency and combination questions over parcel
// snapshots. Every function is a pure function of its arguments; adjacency
// is always recomputed from geometry and never cached between calls.
package engine

import (
	"github.com/piwi3910/ParcelKit/internal/model"
)

// Engine binds the adjacency and combination operations to a config.
type Engine struct {
	Settings model.EngineConfig
}

func New(settings model.EngineConfig) *Engine {
	return &Engine{Settings: settings}
}

// AreNeighbors reports whether two parcels share an edge using the
// configured vertex tolerance.
func (e *Engine) AreNeighbors(p1, p2 model.Parcel) bool {
	return AreNeighbors(p1, p2, e.Settings.VertexTolerance)
}

// NeighborsOf returns the ids of the parcels adjacent to target.
func (e *Engine) NeighborsOf(target model.Parcel, parcels []model.Parcel) []string {
	return NeighborsOf(target, parcels, e.Settings.VertexTolerance)
}

// FindCombinations searches with an explicit area tolerance. A negative
// tolerancePct selects the configured default.
func (e *Engine) FindCombinations(parcels []model.Parcel, target, tolerancePct float64) []model.Combination {
	if tolerancePct < 0 {
		tolerancePct = e.Settings.AreaTolerancePct
	}
	return FindCombinations(parcels, target, tolerancePct, e.Settings.VertexTolerance)
}

// BlockAdjacency lists every adjacent pair of parcel ids, block by block.
type BlockAdjacency struct {
	BlockKey string      `json:"block_key"`
	Pairs    [][2]string `json:"pairs"`
}

// Adjacency computes the neighbor pairs of every block in the snapshot.
func (e *Engine) Adjacency(parcels []model.Parcel) []BlockAdjacency {
	indexes := BuildBlockIndexes(parcels, e.Settings.VertexTolerance)
	result := make([]BlockAdjacency, 0, len(indexes))
	for _, idx := range indexes {
		ba := BlockAdjacency{BlockKey: idx.BlockKey, Pairs: [][2]string{}}
		for _, pair := range idx.Pairs() {
			ba.Pairs = append(ba.Pairs, [2]string{idx.Parcel(pair[0]).ID, idx.Parcel(pair[1]).ID})
		}
		result = append(result, ba)
	}
	return result
}
