package engine

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/piwi3910/ParcelKit/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTolerance = 0.5

func squareParcel(id, block string, x, y, size float64, area *float64) model.Parcel {
	return model.Parcel{
		ID:       id,
		BlockKey: block,
		UnitKey:  id,
		Boundary: model.SingleRing(model.Ring{
			{X: x, Y: y}, {X: x + size, Y: y}, {X: x + size, Y: y + size}, {X: x, Y: y + size},
		}),
		Attributes: model.Attributes{Area: area},
	}
}

func TestAreNeighbors_SharedEdge(t *testing.T) {
	a := squareParcel("a", "1", 0, 0, 10, nil)
	b := squareParcel("b", "1", 10, 0, 10, nil)
	assert.True(t, AreNeighbors(a, b, testTolerance))
	assert.True(t, AreNeighbors(b, a, testTolerance))
}

func TestAreNeighbors_CornerTouchIsNotAnEdge(t *testing.T) {
	a := squareParcel("a", "1", 0, 0, 10, nil)
	b := squareParcel("b", "1", 10, 10, 10, nil)
	assert.False(t, AreNeighbors(a, b, testTolerance))
}

func TestAreNeighbors_DifferentBlocks(t *testing.T) {
	a := squareParcel("a", "1", 0, 0, 10, nil)
	b := squareParcel("b", "2", 10, 0, 10, nil)
	assert.False(t, AreNeighbors(a, b, testTolerance))
}

func TestAreNeighbors_HandDrawnOffsetWithinTolerance(t *testing.T) {
	a := squareParcel("a", "1", 0, 0, 10, nil)
	b := squareParcel("b", "1", 10.3, 0.2, 10, nil)
	assert.True(t, AreNeighbors(a, b, testTolerance))

	far := squareParcel("c", "1", 10.8, 0, 10, nil)
	assert.False(t, AreNeighbors(a, far, testTolerance))
}

func TestAreNeighbors_EachVertexMatchesOnce(t *testing.T) {
	// Both vertices of the sliver sit within tolerance of the same single
	// corner of the square: that is still a corner touch.
	a := squareParcel("a", "1", 0, 0, 10, nil)
	sliver := model.Parcel{ID: "s", BlockKey: "1", Boundary: model.SingleRing(model.Ring{
		{X: 10.1, Y: 10.1}, {X: 10.2, Y: 10.0}, {X: 30, Y: 30},
	})}
	assert.False(t, AreNeighbors(a, sliver, testTolerance))
	assert.False(t, AreNeighbors(sliver, a, testTolerance))
}

func TestSharesEdge_OrderIndependent(t *testing.T) {
	// X is close to both A and B, Y only to A. A first-fit scan from either
	// side could pair A with X and stop at one match; a matching of size
	// two (A-Y, B-X) exists and must be found.
	a := []model.Point2D{{X: 0, Y: 0}, {X: 1, Y: 0}}
	b := []model.Point2D{{X: 0.5, Y: 0}, {X: -0.5, Y: 0}}
	assert.True(t, sharesEdge(a, b, 0.6))
	assert.True(t, sharesEdge(b, a, 0.6))
}

func TestAreNeighbors_Symmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var parcels []model.Parcel
	for i := 0; i < 30; i++ {
		ring := make(model.Ring, 3+rng.Intn(4))
		for k := range ring {
			ring[k] = model.Point2D{X: float64(rng.Intn(6)) + rng.Float64()*0.4, Y: float64(rng.Intn(6)) + rng.Float64()*0.4}
		}
		parcels = append(parcels, model.Parcel{ID: string(rune('a' + i)), BlockKey: "1", Boundary: model.SingleRing(ring)})
	}
	for _, p := range parcels {
		for _, q := range parcels {
			assert.Equal(t, AreNeighbors(p, q, testTolerance), AreNeighbors(q, p, testTolerance),
				"asymmetric result for %s/%s", p.ID, q.ID)
		}
	}
}

func TestAdjacencyIndex_RowOfParcels(t *testing.T) {
	parcels := []model.Parcel{
		squareParcel("a", "1", 0, 0, 10, nil),
		squareParcel("b", "1", 10, 0, 10, nil),
		squareParcel("c", "1", 20, 0, 10, nil),
		squareParcel("d", "1", 50, 0, 10, nil),
	}
	idx := NewAdjacencyIndex(parcels, testTolerance)

	require.Equal(t, 4, idx.Len())
	assert.Equal(t, "1", idx.BlockKey)
	assert.Equal(t, []int{1}, idx.Neighbors(0))
	assert.Equal(t, []int{0, 2}, idx.Neighbors(1))
	assert.Empty(t, idx.Neighbors(3))
	assert.True(t, idx.Adjacent(2, 1))
	assert.False(t, idx.Adjacent(0, 2))
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, idx.Pairs())
}

func TestBuildBlockIndexes_SeparatesBlocks(t *testing.T) {
	parcels := []model.Parcel{
		squareParcel("a", "1", 0, 0, 10, nil),
		squareParcel("x", "2", 10, 0, 10, nil),
		squareParcel("b", "1", 0, 10, 10, nil),
	}
	indexes := BuildBlockIndexes(parcels, testTolerance)
	require.Len(t, indexes, 2)
	assert.Equal(t, "1", indexes[0].BlockKey)
	assert.Equal(t, 2, indexes[0].Len())
	assert.Equal(t, [][2]int{{0, 1}}, indexes[0].Pairs())
	assert.Empty(t, indexes[1].Pairs())
}

func TestNeighborsOf(t *testing.T) {
	parcels := []model.Parcel{
		squareParcel("a", "1", 0, 0, 10, nil),
		squareParcel("b", "1", 10, 0, 10, nil),
		squareParcel("c", "1", 0, 10, 10, nil),
		squareParcel("d", "1", 10, 10, 10, nil),
	}
	assert.Equal(t, []string{"b", "c"}, NeighborsOf(parcels[0], parcels, testTolerance))
}

func TestFindCombinations_BlockFiveScenario(t *testing.T) {
	parcels := []model.Parcel{
		squareParcel("p500", "5", 0, 0, 10, model.Float(500)),
		squareParcel("p600", "5", 10, 0, 10, model.Float(600)),
		squareParcel("p950", "5", 100, 100, 10, model.Float(950)),
	}
	results := FindCombinations(parcels, 1100, 0.05, testTolerance)

	require.Len(t, results, 1)
	assert.Equal(t, []string{"p500", "p600"}, results[0].Members)
	assert.Equal(t, 1100.0, results[0].TotalArea)
}

func TestFindCombinations_SinglesMatch(t *testing.T) {
	parcels := []model.Parcel{
		squareParcel("a", "1", 0, 0, 10, model.Float(1000)),
		squareParcel("b", "2", 0, 0, 10, model.Float(1040)),
		squareParcel("c", "3", 0, 0, 10, model.Float(500)),
	}
	results := FindCombinations(parcels, 1000, 0.05, testTolerance)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"a"}, results[0].Members)
	assert.Equal(t, []string{"b"}, results[1].Members)
}

func TestFindCombinations_PairsNeedAdjacency(t *testing.T) {
	parcels := []model.Parcel{
		squareParcel("a", "1", 0, 0, 10, model.Float(500)),
		squareParcel("b", "1", 10, 10, 10, model.Float(500)), // corner touch only
	}
	assert.Empty(t, FindCombinations(parcels, 1000, 0.05, testTolerance))
}

func TestFindCombinations_PairsNeedSameBlock(t *testing.T) {
	parcels := []model.Parcel{
		squareParcel("a", "1", 0, 0, 10, model.Float(500)),
		squareParcel("b", "2", 10, 0, 10, model.Float(500)),
	}
	assert.Empty(t, FindCombinations(parcels, 1000, 0.05, testTolerance))
}

func TestFindCombinations_TripleInARow(t *testing.T) {
	parcels := []model.Parcel{
		squareParcel("a", "1", 0, 0, 10, model.Float(100)),
		squareParcel("b", "1", 10, 0, 10, model.Float(100)),
		squareParcel("c", "1", 20, 0, 10, model.Float(100)),
		squareParcel("d", "1", 60, 0, 10, model.Float(100)),
	}
	results := FindCombinations(parcels, 300, 0.05, testTolerance)

	require.Len(t, results, 1, "the triple is found from both adjacent pairs but kept once")
	assert.Equal(t, []string{"a", "b", "c"}, results[0].Members)
	assert.Equal(t, 300.0, results[0].TotalArea)
}

func TestFindCombinations_TripleViaEitherMember(t *testing.T) {
	// b is adjacent to a and c; a and c are not adjacent. The triple grows
	// from pair (a,b) with c, a neighbor of b only.
	parcels := []model.Parcel{
		squareParcel("a", "1", 0, 0, 10, model.Float(100)),
		squareParcel("b", "1", 10, 0, 10, model.Float(200)),
		squareParcel("c", "1", 10, 10, 10, model.Float(300)),
	}
	results := FindCombinations(parcels, 600, 0, testTolerance)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"a", "b", "c"}, results[0].Members)
}

func TestFindCombinations_SkipsMissingArea(t *testing.T) {
	parcels := []model.Parcel{
		squareParcel("a", "1", 0, 0, 10, model.Float(500)),
		squareParcel("b", "1", 10, 0, 10, nil),
		squareParcel("c", "1", 20, 0, 10, model.Float(0)),
	}
	results := FindCombinations(parcels, 500, 0.05, testTolerance)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"a"}, results[0].Members)
}

func TestFindCombinations_OrderedByDistanceToTarget(t *testing.T) {
	parcels := []model.Parcel{
		squareParcel("p500", "1", 0, 0, 10, model.Float(500)),
		squareParcel("p600", "1", 10, 0, 10, model.Float(600)),
		squareParcel("p950", "2", 0, 0, 10, model.Float(950)),
		squareParcel("p1000", "3", 0, 0, 10, model.Float(1000)),
	}
	results := FindCombinations(parcels, 1000, 0.15, testTolerance)

	require.Len(t, results, 3)
	assert.Equal(t, []string{"p1000"}, results[0].Members)
	assert.Equal(t, []string{"p950"}, results[1].Members)
	assert.Equal(t, []string{"p500", "p600"}, results[2].Members)
}

func TestFindCombinations_InvalidTarget(t *testing.T) {
	parcels := []model.Parcel{squareParcel("a", "1", 0, 0, 10, model.Float(500))}
	assert.Empty(t, FindCombinations(parcels, 0, 0.05, testTolerance))
	assert.Empty(t, FindCombinations(parcels, 500, -0.05, testTolerance))
}

func TestFindCombinations_GridProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var parcels []model.Parcel
	for row := 0; row < 4; row++ {
		for col := 0; col < 5; col++ {
			area := float64(100 + rng.Intn(400))
			id := string(rune('a'+row)) + string(rune('0'+col))
			parcels = append(parcels, squareParcel(id, "g", float64(col)*10, float64(row)*10, 10, model.Float(area)))
		}
	}
	target, pct := 700.0, 0.05
	results := FindCombinations(parcels, target, pct, testTolerance)
	require.NotEmpty(t, results)

	seen := make(map[string]bool)
	lastDistance := -1.0
	for _, r := range results {
		assert.GreaterOrEqual(t, r.TotalArea, target*(1-pct))
		assert.LessOrEqual(t, r.TotalArea, target*(1+pct))
		assert.LessOrEqual(t, len(r.Members), MaxCombinationSize)
		assert.True(t, sort.StringsAreSorted(r.Members))

		key := strings.Join(r.Members, ",")
		assert.False(t, seen[key], "duplicate combination %s", key)
		seen[key] = true

		d := r.TotalArea - target
		if d < 0 {
			d = -d
		}
		assert.GreaterOrEqual(t, d, lastDistance)
		lastDistance = d
	}
}

func TestEngine_UsesConfiguredTolerances(t *testing.T) {
	cfg := model.DefaultEngineConfig()
	e := New(cfg)
	parcels := []model.Parcel{
		squareParcel("p500", "5", 0, 0, 10, model.Float(500)),
		squareParcel("p600", "5", 10.4, 0, 10, model.Float(600)),
	}
	assert.True(t, e.AreNeighbors(parcels[0], parcels[1]))
	assert.Len(t, e.FindCombinations(parcels, 1100, -1), 1)
	assert.Equal(t, []string{"p600"}, e.NeighborsOf(parcels[0], parcels))

	cfg.VertexTolerance = 0.1
	strict := New(cfg)
	assert.False(t, strict.AreNeighbors(parcels[0], parcels[1]))
	assert.Empty(t, strict.FindCombinations(parcels, 1100, -1))
}

func TestEngine_Adjacency(t *testing.T) {
	e := New(model.DefaultEngineConfig())
	parcels := []model.Parcel{
		squareParcel("a", "1", 0, 0, 10, nil),
		squareParcel("b", "1", 10, 0, 10, nil),
		squareParcel("z", "9", 0, 0, 10, nil),
	}
	adj := e.Adjacency(parcels)
	require.Len(t, adj, 2)
	assert.Equal(t, [][2]string{{"a", "b"}}, adj[0].Pairs)
	assert.Equal(t, "9", adj[1].BlockKey)
	assert.Empty(t, adj[1].Pairs)
}
