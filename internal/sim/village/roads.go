package village

import (
	"hamletcraft.dev/internal/sim/catalog"
	"hamletcraft.dev/internal/sim/grid"
	"hamletcraft.dev/internal/sim/village/logic/search"
)

// Road graph queries. The graph is implicit: 4-connected adjacency over
// tiles occupied by road-kind items, derived live from the ledger and
// never cached, so it can't go stale when roads are placed or demolished.

func (v *Village) IsRoadTile(t grid.Tile) bool {
	it, ok := v.byTile[t]
	return ok && it.Kind == catalog.KindRoad
}

// IsValidRoadTile adds the bounds check. Occupancy already guarantees a
// road tile holds nothing else; re-checking the kind keeps the query
// safe against future multi-layer tiles.
func (v *Village) IsValidRoadTile(t grid.Tile) bool {
	return grid.InRadius(t, v.cfg.GridRadius) && v.IsRoadTile(t)
}

// AdjacentRoadTiles returns the cardinal neighbors of t that are valid
// road tiles, in fixed order.
func (v *Village) AdjacentRoadTiles(t grid.Tile) []grid.Tile {
	var out []grid.Tile
	for _, n := range grid.Cardinals(t) {
		if v.IsValidRoadTile(n) {
			out = append(out, n)
		}
	}
	return out
}

// ReachableWithin returns every road tile within maxHops of t, excluding
// t itself. Safe on disconnected or empty graphs.
func (v *Village) ReachableWithin(t grid.Tile, maxHops int) []grid.Tile {
	return search.BFS(t, v.AdjacentRoadTiles, maxHops)
}

// NextStepToward greedily picks the road neighbor of from that is
// closest (straight-line) to target. Ties resolve by neighbor order;
// good enough for cosmetic wandering.
func (v *Village) NextStepToward(from, target grid.Tile) (grid.Tile, bool) {
	var best grid.Tile
	bestD := -1
	for _, n := range v.AdjacentRoadTiles(from) {
		d := grid.EuclidSq(n, target)
		if bestD < 0 || d < bestD {
			best, bestD = n, d
		}
	}
	return best, bestD >= 0
}

// roadTiles lists every valid road tile in placement order.
func (v *Village) roadTiles() []grid.Tile {
	var out []grid.Tile
	for _, it := range v.items {
		if it.Kind == catalog.KindRoad && grid.InRadius(it.Tile, v.cfg.GridRadius) {
			out = append(out, it.Tile)
		}
	}
	return out
}
