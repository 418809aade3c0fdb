package village

import (
	"math"

	"hamletcraft.dev/internal/persistence/snapshot"
	"hamletcraft.dev/internal/sim/grid"
)

// ExportSnapshot captures the persisted state. Villagers are ambient
// and deliberately not saved; they respawn from the road graph.
func (v *Village) ExportSnapshot() snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			WorldID: v.cfg.ID,
			Tick:    v.tick.Load(),
		},
		Seed:       v.cfg.Seed,
		TickRateHz: v.cfg.TickRateHz,
		DayTicks:   v.cfg.DayTicks,
		GridRadius: v.cfg.GridRadius,
		Budget:     v.econ.Budget,
		Population: v.econ.Population,
		Unemployed: v.econ.Unemployed,
		CycleTick:  v.cycleTick,
	}
	snap.Items = make([]snapshot.ItemV1, 0, len(v.items))
	for _, it := range v.items {
		snap.Items = append(snap.Items, snapshot.ItemV1{
			Kind:    string(it.Kind),
			ID:      it.ID,
			X:       it.Tile.X,
			Y:       it.Tile.Y,
			Flipped: it.Flipped,
		})
	}
	return snap
}

// Restore replaces the world content with a snapshot. Items with
// unknown ids, out-of-bounds tiles, or duplicate tiles are dropped
// rather than failing the whole load. Stored economy figures are used
// only when they agree with the item list; anything suspect is
// recomputed from the items, which are the source of truth.
func (v *Village) Restore(snap snapshot.SnapshotV1) {
	v.items = nil
	v.byTile = map[grid.Tile]*PlacedItem{}
	v.villagers = nil

	for _, si := range snap.Items {
		def, ok := v.cat.Get(si.ID)
		if !ok {
			continue
		}
		t := grid.Tile{X: si.X, Y: si.Y}
		if !grid.InRadius(t, v.cfg.GridRadius) {
			continue
		}
		if _, dup := v.byTile[t]; dup {
			continue
		}
		it := &PlacedItem{Kind: def.Kind, ID: def.ID, Tile: t, Flipped: si.Flipped}
		v.items = append(v.items, it)
		v.byTile[t] = it
	}

	if math.IsNaN(snap.Budget) || math.IsInf(snap.Budget, 0) {
		v.econ.Budget = v.cfg.StartingBudget
	} else {
		v.econ.Budget = snap.Budget
	}

	v.recomputeWorkforce()
	// Keep the stored unemployed split only if it is sane for the
	// recomputed population.
	if snap.Population == v.econ.Population &&
		snap.Unemployed >= 0 && snap.Unemployed <= snap.Population {
		v.econ.Unemployed = snap.Unemployed
		v.settleWorkforce()
	}

	if snap.CycleTick >= 0 && snap.CycleTick < v.cfg.DayTicks {
		v.cycleTick = snap.CycleTick
	} else {
		v.cycleTick = 0
	}
	v.tick.Store(snap.Header.Tick)
}
