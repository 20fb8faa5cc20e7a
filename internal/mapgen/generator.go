// Package mapgen builds mapmodel.Topology instances: a default
// procedural generator using a density-fill lattice algorithm, plus a
// fixture-map JSON loader for named maps (e.g. "map02").
//
// The generator is deliberately kept behind an interface per spec §1:
// the production, DB-backed map provider is a Non-goal, but a CORE
// repo needs something runnable.
package mapgen

import (
	"math/rand"

	"github.com/kipod/server/internal/mapmodel"
)

// Generator produces a Topology for a new game. Implementations are
// swappable; NewProcedural is the only CORE-side default.
type Generator interface {
	Generate(seed int64, numTowns, numMarkets, numStorages int) (*mapmodel.Topology, error)
}

// Procedural lays out points on a square lattice, connects orthogonal
// neighbors that survive a per-pair density roll, then designates
// posts on distinct points picked by a seeded random permutation —
// towns first, then markets, then storages. Post placement does not
// check adjacency, so two towns may sit on neighboring points.
type Procedural struct {
	LatticeSize int // side length of the point lattice
	Density     float64
}

// NewProcedural returns the default generator.
func NewProcedural() *Procedural {
	return &Procedural{LatticeSize: 8, Density: 0.55}
}

func (p *Procedural) Generate(seed int64, numTowns, numMarkets, numStorages int) (*mapmodel.Topology, error) {
	rng := rand.New(rand.NewSource(seed))
	n := p.LatticeSize
	if n < 2 {
		n = 2
	}

	// idx(r, c) numbers lattice points row-major; every point exists
	// (no holes), only edges are probabilistic, guaranteeing the graph
	// stays usable for any post count up to n*n.
	idx := func(r, c int) int { return r*n + c }

	points := make([]mapmodel.Point, 0, n*n)
	coords := make(map[int][2]int, n*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			points = append(points, mapmodel.Point{Idx: idx(r, c)})
			coords[idx(r, c)] = [2]int{c * 64, r * 64}
		}
	}

	var lines []mapmodel.Line
	lineIdx := 0
	addLine := func(a, b int) {
		length := 4 + rng.Intn(7) // 4..10, matching train-at-endpoint granularity
		lines = append(lines, mapmodel.Line{Idx: lineIdx, Length: length, P0: a, P1: b})
		lineIdx++
	}

	// Density-gated orthogonal connections, the graph analogue of
	// FillSymmetrical's per-cell density roll.
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			if c+1 < n && rng.Float64() < p.Density {
				addLine(idx(r, c), idx(r, c+1))
			}
			if r+1 < n && rng.Float64() < p.Density {
				addLine(idx(r, c), idx(r+1, c))
			}
		}
	}
	ensureConnected(n, idx, &lines, &lineIdx, rng)

	total := numTowns + numMarkets + numStorages
	chosen := choosePoints(n*n, total, rng)

	posts := make([]mapmodel.Post, 0, total)
	postIdx := 0
	assignPost := func(pointIdx int, t mapmodel.PostType) {
		post := mapmodel.Post{Idx: postIdx, Type: t, PointIdx: pointIdx}
		if t == mapmodel.PostTown {
			post.Level = 1
			if stats, ok := mapmodel.TownLevel(1); ok {
				post.PopulationCapacity = stats.PopulationCapacity
				post.ProductCapacity = stats.ProductCapacity
				post.ArmorCapacity = stats.ArmorCapacity
				post.TrainCooldown = stats.TrainCooldown
				post.NextLevelPrice = stats.NextLevelPrice
			}
			post.Population = post.PopulationCapacity / 2
			post.Product = post.ProductCapacity / 4
			post.Armor = post.ArmorCapacity / 4
		} else {
			post.Replenishment = 2 + rng.Intn(4)
		}
		posts = append(posts, post)
		for i := range points {
			if points[i].Idx == pointIdx {
				id := postIdx
				points[i].PostID = &id
			}
		}
		postIdx++
	}

	for i := 0; i < numTowns && i < len(chosen); i++ {
		assignPost(chosen[i], mapmodel.PostTown)
	}
	for i := numTowns; i < numTowns+numMarkets && i < len(chosen); i++ {
		assignPost(chosen[i], mapmodel.PostMarket)
	}
	for i := numTowns + numMarkets; i < total && i < len(chosen); i++ {
		assignPost(chosen[i], mapmodel.PostStorage)
	}

	return &mapmodel.Topology{
		Name:        "procedural",
		Points:      points,
		Lines:       lines,
		Posts:       posts,
		Coordinates: coords,
	}, nil
}

// ensureConnected gives every lattice point that the density roll left
// without any line one extra line to a row or column neighbor, so every
// point (and so every post) has at least one line. It does not join
// separate components: the resulting graph may still be disconnected
// as a whole.
func ensureConnected(n int, idx func(r, c int) int, lines *[]mapmodel.Line, lineIdx *int, rng *rand.Rand) {
	touched := make(map[int]bool)
	for _, l := range *lines {
		touched[l.P0] = true
		touched[l.P1] = true
	}
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			p := idx(r, c)
			if touched[p] {
				continue
			}
			var neighbor int
			switch {
			case c+1 < n:
				neighbor = idx(r, c+1)
			case r+1 < n:
				neighbor = idx(r+1, c)
			default:
				neighbor = idx(r, c-1)
			}
			length := 4 + rng.Intn(7)
			*lines = append(*lines, mapmodel.Line{Idx: *lineIdx, Length: length, P0: p, P1: neighbor})
			*lineIdx++
			touched[p] = true
			touched[neighbor] = true
		}
	}
}

// choosePoints picks k distinct point ids out of n via the rng, spread
// across the id space at random so posts don't cluster in one corner.
func choosePoints(n, k int, rng *rand.Rand) []int {
	if k > n {
		k = n
	}
	perm := rng.Perm(n)
	out := make([]int, k)
	copy(out, perm[:k])
	return out
}
