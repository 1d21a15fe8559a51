package engine

import (
	"math"
	"sort"
	"strings"

	"github.com/piwi3910/ParcelKit/internal/model"
)

// MaxCombinationSize is the largest number of parcels in a combination.
// Searching beyond triples grows combinatorially and is not supported.
const MaxCombinationSize = 3

// areaRange is the inclusive interval of accepted total areas.
type areaRange struct {
	min, max float64
}

func newAreaRange(target, tolerancePct float64) areaRange {
	return areaRange{min: target * (1 - tolerancePct), max: target * (1 + tolerancePct)}
}

func (r areaRange) contains(v float64) bool {
	return v >= r.min && v <= r.max
}

// combinationSet accumulates accepted combinations and rejects repeats by
// their sorted member id list.
type combinationSet struct {
	seen  map[string]bool
	items []model.Combination
}

func newCombinationSet() *combinationSet {
	return &combinationSet{seen: make(map[string]bool)}
}

func (s *combinationSet) add(members []model.Parcel) {
	ids := make([]string, len(members))
	var total float64
	for i, p := range members {
		ids[i] = p.ID
		total += p.Attributes.AreaValue()
	}
	sort.Strings(ids)
	key := strings.Join(ids, "\x00")
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.items = append(s.items, model.Combination{Members: ids, TotalArea: total})
}

// FindCombinations returns the single parcels, adjacent pairs and contiguous
// triples whose entered areas sum to within tolerancePct of target, ordered
// by ascending distance from target. Parcels without a positive entered area
// are not candidates. Members of a pair or triple always share a block.
func FindCombinations(parcels []model.Parcel, target, tolerancePct, vertexTolerance float64) []model.Combination {
	if target <= 0 || tolerancePct < 0 {
		return nil
	}
	valid := newAreaRange(target, tolerancePct)

	var candidates []model.Parcel
	for _, p := range parcels {
		if p.Attributes.HasArea() {
			candidates = append(candidates, p)
		}
	}

	found := newCombinationSet()

	// Phase 1: singles
	for _, p := range candidates {
		if valid.contains(p.Attributes.AreaValue()) {
			found.add([]model.Parcel{p})
		}
	}

	indexes := BuildBlockIndexes(candidates, vertexTolerance)

	// Phase 2: adjacent pairs within a block
	for _, idx := range indexes {
		for _, pair := range idx.Pairs() {
			u, v := idx.Parcel(pair[0]), idx.Parcel(pair[1])
			if valid.contains(u.Attributes.AreaValue() + v.Attributes.AreaValue()) {
				found.add([]model.Parcel{u, v})
			}
		}
	}

	// Phase 3: contiguous triples, grown from each adjacent pair by one
	// neighbor of either member
	for _, idx := range indexes {
		for _, pair := range idx.Pairs() {
			u, v := pair[0], pair[1]
			base := idx.Parcel(u).Attributes.AreaValue() + idx.Parcel(v).Attributes.AreaValue()
			for _, w := range unionNeighbors(idx, u, v) {
				p := idx.Parcel(w)
				if valid.contains(base + p.Attributes.AreaValue()) {
					found.add([]model.Parcel{idx.Parcel(u), idx.Parcel(v), p})
				}
			}
		}
	}

	results := found.items
	sort.SliceStable(results, func(i, j int) bool {
		return math.Abs(results[i].TotalArea-target) < math.Abs(results[j].TotalArea-target)
	})
	return results
}

// unionNeighbors returns the neighbors of u or v other than u and v
// themselves, each once, in ascending order.
func unionNeighbors(idx *AdjacencyIndex, u, v int) []int {
	seen := make(map[int]bool)
	var result []int
	for _, ns := range [][]int{idx.Neighbors(u), idx.Neighbors(v)} {
		for _, w := range ns {
			if w == u || w == v || seen[w] {
				continue
			}
			seen[w] = true
			result = append(result, w)
		}
	}
	sort.Ints(result)
	return result
}
