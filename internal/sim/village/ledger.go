package village

import (
	"math"

	"hamletcraft.dev/internal/protocol"
	"hamletcraft.dev/internal/sim/catalog"
	"hamletcraft.dev/internal/sim/grid"
)

// ValidatePosition checks the spatial rules for placing def at t and
// returns "" on success or a protocol rejection code. Proximity rules
// use Chebyshev distance: the 8 surrounding tiles count as adjacent.
func (v *Village) ValidatePosition(t grid.Tile, def catalog.ItemDef) string {
	if !grid.InRadius(t, v.cfg.GridRadius) {
		return protocol.CodeBounds
	}
	if _, occupied := v.byTile[t]; occupied {
		return protocol.CodeOccupied
	}
	if !def.AllowsAdjacentSameID {
		for _, it := range v.items {
			if it.ID == def.ID && it.Kind == def.Kind && grid.Chebyshev(it.Tile, t) <= 1 {
				return protocol.CodeAdjacent
			}
		}
	}
	if def.Kind == catalog.KindBuilding && def.RequiresNearbyRoad {
		if !v.hasRoadNear(t) {
			return protocol.CodeNoRoad
		}
	}
	return ""
}

// IsValidPosition is the boolean form of ValidatePosition.
func (v *Village) IsValidPosition(t grid.Tile, def catalog.ItemDef) bool {
	return v.ValidatePosition(t, def) == ""
}

func (v *Village) hasRoadNear(t grid.Tile) bool {
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if v.IsRoadTile(grid.Tile{X: t.X + dx, Y: t.Y + dy}) {
				return true
			}
		}
	}
	return false
}

func (v *Village) CanAfford(def catalog.ItemDef) bool {
	return v.econ.Budget >= float64(def.Cost)
}

// CheckRequirements resolves each declared requirement against the
// current economy. The switch is exhaustive over the catalog's closed
// requirement enum; the default arm fails closed so a kind that somehow
// slips past catalog validation can never silently pass.
func (v *Village) CheckRequirements(def catalog.ItemDef) (bool, map[string]protocol.MissingReq) {
	var missing map[string]protocol.MissingReq
	add := func(key string, cur, req float64, buildingID string) {
		if missing == nil {
			missing = map[string]protocol.MissingReq{}
		}
		missing[key] = protocol.MissingReq{Current: cur, Required: req, BuildingID: buildingID}
	}
	for _, r := range def.Requirements {
		switch r.Kind {
		case catalog.ReqPopulation:
			if float64(v.econ.Population) < r.Amount {
				add("population", float64(v.econ.Population), r.Amount, "")
			}
		case catalog.ReqBudget:
			if v.econ.Budget < r.Amount {
				add("budget", v.econ.Budget, r.Amount, "")
			}
		case catalog.ReqUnemployedWorkers:
			if float64(v.econ.Unemployed) < r.Amount {
				add("unemployed_workers", float64(v.econ.Unemployed), r.Amount, "")
			}
		case catalog.ReqHasBuilding:
			if !v.hasBuilding(r.BuildingID) {
				add("has_building", 0, 1, r.BuildingID)
			}
		default:
			add(string(r.Kind), 0, 1, "")
		}
	}
	return missing == nil, missing
}

func (v *Village) hasBuilding(id string) bool {
	for _, it := range v.items {
		if it.ID == id {
			return true
		}
	}
	return false
}

// removalToolPlaced reports whether any placed item grants the tool
// needed to clear protected decorations.
func (v *Village) removalToolPlaced() bool {
	for _, it := range v.items {
		if def, ok := v.cat.Get(it.ID); ok && def.GrantsRemovalTool {
			return true
		}
	}
	return false
}

// DemolitionCost is what demolishing the item costs: a fraction of the
// purchase price, floored. Demolition debits the budget; it never pays out.
func DemolitionCost(def catalog.ItemDef) int {
	return int(math.Floor(float64(def.Cost) * def.RefundRate))
}

// Place validates and commits a paid placement. On any rejection the
// ledger, budget and workforce are untouched. Returns "" and nil on
// success, else a rejection code and (for E_REQ) the unmet requirements.
func (v *Village) Place(t grid.Tile, id string, flipped bool) (string, map[string]protocol.MissingReq) {
	def, ok := v.cat.Get(id)
	if !ok {
		return protocol.CodeBadItem, nil
	}
	if code := v.ValidatePosition(t, def); code != "" {
		return code, nil
	}
	if !v.CanAfford(def) {
		return protocol.CodeFunds, nil
	}
	if met, missing := v.CheckRequirements(def); !met {
		return protocol.CodeReq, missing
	}
	v.econ.Budget -= float64(def.Cost)
	v.commit(t, def, flipped)
	return "", nil
}

// Remove validates and commits a paid demolition.
func (v *Village) Remove(t grid.Tile) string {
	it, ok := v.byTile[t]
	if !ok {
		return protocol.CodeNotFound
	}
	def, ok := v.cat.Get(it.ID)
	if !ok {
		// Catalog drift (item id no longer defined): allow free cleanup.
		v.evict(t)
		return ""
	}
	if def.ProtectedDecoration && !v.removalToolPlaced() {
		return protocol.CodeProtected
	}
	cost := DemolitionCost(def)
	if v.econ.Budget < float64(cost) {
		return protocol.CodeFunds
	}
	v.econ.Budget -= float64(cost)
	v.evict(t)
	v.reconcileRemoval(def)
	return ""
}

// PlaceFree commits an environment-driven placement: no cost, no
// requirement checks, but bounds and occupancy still hold.
func (v *Village) PlaceFree(t grid.Tile, id string, flipped bool) bool {
	def, ok := v.cat.Get(id)
	if !ok {
		return false
	}
	if !grid.InRadius(t, v.cfg.GridRadius) {
		return false
	}
	if _, occupied := v.byTile[t]; occupied {
		return false
	}
	v.commit(t, def, flipped)
	return true
}

// RemoveFree commits an environment-driven removal: no cost, no
// protection check.
func (v *Village) RemoveFree(t grid.Tile) bool {
	it, ok := v.byTile[t]
	if !ok {
		return false
	}
	v.evict(t)
	if def, ok := v.cat.Get(it.ID); ok {
		v.reconcileRemoval(def)
	}
	return true
}

// commit appends the item and runs the workforce allocator for it.
func (v *Village) commit(t grid.Tile, def catalog.ItemDef, flipped bool) {
	it := &PlacedItem{Kind: def.Kind, ID: def.ID, Tile: t, Flipped: flipped}
	v.items = append(v.items, it)
	v.byTile[t] = it
	v.reconcilePlacement(def)
}

// evict removes the item at t from both indexes.
func (v *Village) evict(t grid.Tile) {
	delete(v.byTile, t)
	for i, it := range v.items {
		if it.Tile == t {
			v.items = append(v.items[:i], v.items[i+1:]...)
			break
		}
	}
}
