package village

import (
	"math"
	"testing"

	"hamletcraft.dev/internal/persistence/snapshot"
	"hamletcraft.dev/internal/sim/grid"
)

func TestSnapshotRoundTrip(t *testing.T) {
	v := newTestVillage(t, 800)
	mustPlace(t, v, 0, 0, "dirt_road")
	mustPlace(t, v, 1, 0, "hut")
	mustPlace(t, v, 1, 1, "farm")
	v.cycleTick = 123
	stepTicks(v, 5)

	snap := v.ExportSnapshot()
	if snap.Header.Version != snapshot.Version || snap.Header.WorldID != "test" {
		t.Fatalf("header = %+v", snap.Header)
	}
	if len(snap.Items) != 3 {
		t.Fatalf("exported %d items", len(snap.Items))
	}

	v2 := newTestVillage(t, 0)
	v2.Restore(snap)

	if got := v2.GetPlacedItems(); len(got) != 3 {
		t.Fatalf("restored %d items", len(got))
	}
	if v2.GetBudget() != v.GetBudget() {
		t.Fatalf("budget %v != %v", v2.GetBudget(), v.GetBudget())
	}
	if v2.GetPopulation() != 4 || v2.GetUnemployedWorkers() != 2 {
		t.Fatalf("pop=%d unemp=%d", v2.GetPopulation(), v2.GetUnemployedWorkers())
	}
	if v2.GetProductionMultiplier() != 1 {
		t.Fatalf("multiplier = %v", v2.GetProductionMultiplier())
	}
	if v2.cycleTick != v.cycleTick {
		t.Fatalf("cycleTick %d != %d", v2.cycleTick, v.cycleTick)
	}
	if v2.Tick() != v.Tick() {
		t.Fatalf("tick %d != %d", v2.Tick(), v.Tick())
	}
	if it, ok := v2.ItemAt(grid.Tile{X: 1, Y: 0}); !ok || it.ID != "hut" {
		t.Fatalf("hut missing after restore: %+v ok=%v", it, ok)
	}
}

func TestSnapshotOmitsVillagers(t *testing.T) {
	v := newTestVillage(t, 800)
	placeRoadLine(t, v, 0, 3)
	v.econ.Population = 4
	v.econ.Unemployed = 4
	v.trySpawnVillager(4, 0)
	if len(v.villagers) != 1 {
		t.Fatal("spawn failed")
	}

	snap := v.ExportSnapshot()
	v.Restore(snap)
	if len(v.villagers) != 0 {
		t.Fatalf("%d villagers survived restore", len(v.villagers))
	}
}

func TestRestoreDropsBadItems(t *testing.T) {
	v := newTestVillage(t, 800)
	snap := v.ExportSnapshot()
	snap.Items = []snapshot.ItemV1{
		{Kind: "road", ID: "dirt_road", X: 0, Y: 0},
		// Unknown id, out-of-bounds tile, then a duplicate of the first
		// road: all three are dropped.
		{Kind: "building", ID: "castle", X: 1, Y: 0},
		{Kind: "road", ID: "dirt_road", X: 9, Y: 0},
		{Kind: "road", ID: "dirt_road", X: 0, Y: 0},
		{Kind: "building", ID: "hut", X: 2, Y: 0},
	}
	v.Restore(snap)

	items := v.GetPlacedItems()
	if len(items) != 2 {
		t.Fatalf("restored %d items: %v", len(items), items)
	}
	if _, ok := v.ItemAt(grid.Tile{X: 0, Y: 0}); !ok {
		t.Fatal("road lost")
	}
	if it, _ := v.ItemAt(grid.Tile{X: 2, Y: 0}); it.ID != "hut" {
		t.Fatal("hut lost")
	}
	if v.GetPopulation() != 4 {
		t.Fatalf("population = %d after recompute", v.GetPopulation())
	}
}

func TestRestoreRecomputesInconsistentEconomy(t *testing.T) {
	v := newTestVillage(t, 800)
	snap := v.ExportSnapshot()
	snap.Items = []snapshot.ItemV1{
		{Kind: "building", ID: "hut", X: 0, Y: 0},
		{Kind: "building", ID: "farm", X: 2, Y: 0},
	}
	snap.Population = 1000 // disagrees with the item list
	snap.Unemployed = 999
	v.Restore(snap)

	if v.GetPopulation() != 4 || v.GetUnemployedWorkers() != 2 {
		t.Fatalf("pop=%d unemp=%d", v.GetPopulation(), v.GetUnemployedWorkers())
	}
}

func TestRestoreKeepsConsistentUnemployedSplit(t *testing.T) {
	v := newTestVillage(t, 800)
	snap := v.ExportSnapshot()
	snap.Items = []snapshot.ItemV1{
		{Kind: "building", ID: "hut", X: 0, Y: 0},
		{Kind: "building", ID: "farm", X: 2, Y: 0},
	}
	snap.Population = 4
	snap.Unemployed = 3 // understaffed on purpose, but sane
	v.Restore(snap)

	if v.GetUnemployedWorkers() != 3 {
		t.Fatalf("unemployed = %d, want stored 3", v.GetUnemployedWorkers())
	}
	if got := v.GetProductionMultiplier(); got != 0.5 {
		t.Fatalf("multiplier = %v, want 0.5", got)
	}
}

func TestRestoreSanitizesScalars(t *testing.T) {
	v := newTestVillage(t, 800)
	snap := v.ExportSnapshot()
	snap.Budget = math.NaN()
	snap.CycleTick = v.cfg.DayTicks * 3
	v.Restore(snap)

	if v.GetBudget() != v.cfg.StartingBudget {
		t.Fatalf("budget = %v, want starting budget", v.GetBudget())
	}
	if v.cycleTick != 0 {
		t.Fatalf("cycleTick = %d", v.cycleTick)
	}

	snap.Budget = math.Inf(1)
	snap.CycleTick = -5
	v.Restore(snap)
	if v.GetBudget() != v.cfg.StartingBudget || v.cycleTick != 0 {
		t.Fatalf("budget=%v cycleTick=%d", v.GetBudget(), v.cycleTick)
	}
}
