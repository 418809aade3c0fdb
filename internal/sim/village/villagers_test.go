package village

import (
	"math"
	"testing"

	"hamletcraft.dev/internal/sim/grid"
)

// stepTicks runs n bare simulation ticks (no clients, no commands).
func stepTicks(v *Village, n int) {
	for i := 0; i < n; i++ {
		v.step(nil, nil, nil)
	}
}

func TestSpawnCapDayNight(t *testing.T) {
	v := newTestVillage(t, 5000)
	mustPlace(t, v, 0, 0, "dirt_road")
	mustPlace(t, v, 1, 0, "hut")  // pop 4, unemployed 4
	mustPlace(t, v, 1, 1, "farm") // employs 2

	v.cycleTick = 0 // day
	if got := v.spawnCap(); got != 2 {
		t.Fatalf("day cap = %d, want unemployed 2", got)
	}
	v.cycleTick = v.cfg.DayTicks - 1 // night
	if got := v.spawnCap(); got != 4 {
		t.Fatalf("night cap = %d, want population 4", got)
	}
}

func TestNoSpawnWithoutPopulation(t *testing.T) {
	v := newTestVillage(t, 5000)
	placeRoadLine(t, v, 0, 3)
	// Roads but no housing: cap is 0 day and night.
	stepTicks(v, v.cfg.TickRateHz*10)
	if n := len(v.villagers); n != 0 {
		t.Fatalf("%d villagers spawned with zero population", n)
	}
}

func TestNoSpawnWithoutRoads(t *testing.T) {
	v := newTestVillage(t, 5000)
	v.PlaceFree(grid.Tile{X: 0, Y: 0}, "hut", false)
	stepTicks(v, v.cfg.TickRateHz*10)
	if n := len(v.villagers); n != 0 {
		t.Fatalf("%d villagers spawned with no road graph", n)
	}
}

func TestSpawnRespectsCap(t *testing.T) {
	v := newTestVillage(t, 5000)
	placeRoadLine(t, v, 0, 4)
	v.PlaceFree(grid.Tile{X: 0, Y: 1}, "hut", false) // unemployed 4

	stepTicks(v, v.cfg.TickRateHz*30)
	if n := len(v.villagers); n == 0 || n > 4 {
		t.Fatalf("villagers = %d, want 1..4", n)
	}
	for _, a := range v.villagers {
		if !v.IsValidRoadTile(a.Tile) {
			t.Fatalf("villager %s off the road graph at %v", a.ID, a.Tile)
		}
		if a.Speed < v.cfg.VillagerSpeedMin || a.Speed > v.cfg.VillagerSpeedMax {
			t.Fatalf("villager %s speed %v outside configured range", a.ID, a.Speed)
		}
	}
}

func TestCapShrinkTrimsOldestFirst(t *testing.T) {
	v := newTestVillage(t, 5000)
	placeRoadLine(t, v, 0, 4)
	v.econ.Population = 4
	v.econ.Unemployed = 4
	for i := 0; i < 4; i++ {
		v.trySpawnVillager(4, uint64(i))
	}
	if len(v.villagers) != 4 {
		t.Fatalf("spawned %d", len(v.villagers))
	}
	oldest, second := v.villagers[0].ID, v.villagers[1].ID

	v.econ.Unemployed = 2 // two households found work
	v.tickVillagers(0.05, 100)
	if len(v.villagers) != 2 {
		t.Fatalf("after trim: %d villagers", len(v.villagers))
	}
	for _, a := range v.villagers {
		if a.ID == oldest || a.ID == second {
			t.Fatalf("oldest villager %s survived the trim", a.ID)
		}
	}
}

func TestVillagerHealsOntoNeighborRoad(t *testing.T) {
	v := newTestVillage(t, 5000)
	placeRoadLine(t, v, 0, 2)
	v.econ.Population = 4
	v.econ.Unemployed = 4
	v.trySpawnVillager(4, 0)
	a := v.villagers[0]
	a.Tile = grid.Tile{X: 1, Y: 0}

	v.RemoveFree(grid.Tile{X: 1, Y: 0})
	v.tickVillagers(0.05, 1)

	if len(v.villagers) != 1 {
		t.Fatalf("villager removed despite neighbor roads")
	}
	if a.Tile != (grid.Tile{X: 2, Y: 0}) && a.Tile != (grid.Tile{X: 0, Y: 0}) {
		t.Fatalf("healed to %v", a.Tile)
	}
	if a.State != StateIdle {
		t.Fatalf("healed villager state = %v", a.State)
	}
}

func TestVillagerRemovedWhenStranded(t *testing.T) {
	v := newTestVillage(t, 5000)
	v.PlaceFree(grid.Tile{X: 0, Y: 0}, "dirt_road", false)
	v.econ.Population = 4
	v.econ.Unemployed = 4
	v.trySpawnVillager(4, 0)
	if len(v.villagers) != 1 {
		t.Fatal("spawn failed")
	}

	v.RemoveFree(grid.Tile{X: 0, Y: 0})
	v.tickVillagers(0.05, 1)
	if len(v.villagers) != 0 {
		t.Fatalf("stranded villager survived at %v", v.villagers[0].Tile)
	}
}

func TestIdleToMovingTransition(t *testing.T) {
	v := newTestVillage(t, 5000)
	placeRoadLine(t, v, 0, 4)
	v.econ.Population = 4
	v.econ.Unemployed = 4
	v.trySpawnVillager(4, 0)
	a := v.villagers[0]
	a.Tile = grid.Tile{X: 2, Y: 0}
	a.State = StateIdle
	a.IdleLeft = 0.01

	v.tickVillagers(0.05, 1)
	if a.State != StateMoving {
		t.Fatalf("state = %v after idle timer expired", a.State)
	}
	if grid.Chebyshev(a.Target, grid.Tile{X: 2, Y: 0}) != 1 || !v.IsValidRoadTile(a.Target) {
		t.Fatalf("target = %v", a.Target)
	}
	if a.MoveLeft < v.cfg.MoveSecMin || a.MoveLeft > v.cfg.MoveSecMax {
		t.Fatalf("move bout = %v outside configured range", a.MoveLeft)
	}
}

func TestIdleStaysPutWithNoNeighbors(t *testing.T) {
	v := newTestVillage(t, 5000)
	v.PlaceFree(grid.Tile{X: 0, Y: 0}, "dirt_road", false)
	v.econ.Population = 4
	v.econ.Unemployed = 4
	v.trySpawnVillager(4, 0)
	a := v.villagers[0]
	a.IdleLeft = 0.01

	v.tickVillagers(0.05, 1)
	if a.State != StateIdle {
		t.Fatalf("state = %v, want idle", a.State)
	}
	if a.IdleLeft < v.cfg.IdleSecMin-0.05 {
		t.Fatalf("idle timer not re-rolled: %v", a.IdleLeft)
	}
}

func TestMovingCrossesTiles(t *testing.T) {
	v := newTestVillage(t, 5000)
	placeRoadLine(t, v, 0, 4)
	v.econ.Population = 4
	v.econ.Unemployed = 4
	v.trySpawnVillager(4, 0)
	a := v.villagers[0]
	a.Tile = grid.Tile{X: 0, Y: 0}
	a.State = StateMoving
	a.Target = grid.Tile{X: 1, Y: 0}
	a.Dest = grid.Tile{X: 4, Y: 0}
	a.Speed = 2 // tiles per second
	a.MoveLeft = 10
	a.Progress = 0

	// Just over half a second at 2 tiles/s crosses one tile.
	for i := 0; i < 11; i++ {
		v.tickVillagers(0.05, uint64(i))
	}
	if a.Tile != (grid.Tile{X: 1, Y: 0}) {
		t.Fatalf("tile after 0.5s = %v", a.Tile)
	}
	if a.State != StateMoving || a.Target != (grid.Tile{X: 2, Y: 0}) {
		t.Fatalf("state=%v target=%v, want moving toward (2,0)", a.State, a.Target)
	}
}

func TestMovingStopsAtDestination(t *testing.T) {
	v := newTestVillage(t, 5000)
	placeRoadLine(t, v, 0, 2)
	v.econ.Population = 4
	v.econ.Unemployed = 4
	v.trySpawnVillager(4, 0)
	a := v.villagers[0]
	a.Tile = grid.Tile{X: 0, Y: 0}
	a.State = StateMoving
	a.Target = grid.Tile{X: 1, Y: 0}
	a.Dest = grid.Tile{X: 1, Y: 0}
	a.Speed = 2
	a.MoveLeft = 10
	a.Progress = 0.99

	v.tickVillagers(0.05, 1)
	if a.State != StateIdle || a.Tile != (grid.Tile{X: 1, Y: 0}) {
		t.Fatalf("state=%v tile=%v, want idle at destination", a.State, a.Tile)
	}
}

func TestMovingTargetDemolishedSnapsBack(t *testing.T) {
	v := newTestVillage(t, 5000)
	placeRoadLine(t, v, 0, 2)
	v.econ.Population = 4
	v.econ.Unemployed = 4
	v.trySpawnVillager(4, 0)
	a := v.villagers[0]
	a.Tile = grid.Tile{X: 0, Y: 0}
	a.State = StateMoving
	a.Target = grid.Tile{X: 1, Y: 0}
	a.Dest = grid.Tile{X: 2, Y: 0}
	a.Progress = 0.5

	v.RemoveFree(grid.Tile{X: 1, Y: 0})
	v.tickVillagers(0.05, 1)
	if a.State != StateIdle || a.Tile != (grid.Tile{X: 0, Y: 0}) || a.Progress != 0 {
		t.Fatalf("state=%v tile=%v progress=%v", a.State, a.Tile, a.Progress)
	}
}

func TestWorldPosInterpolates(t *testing.T) {
	a := &Villager{
		Tile:     grid.Tile{X: 0, Y: 0},
		Target:   grid.Tile{X: 1, Y: 0},
		State:    StateMoving,
		Progress: 0.5,
	}
	wx, wy := a.WorldPos()
	tx0, ty0 := grid.TileToWorld(a.Tile)
	tx1, ty1 := grid.TileToWorld(a.Target)
	if math.Abs(wx-(tx0+tx1)/2) > 1e-9 || math.Abs(wy-(ty0+ty1)/2) > 1e-9 {
		t.Fatalf("WorldPos = (%v,%v)", wx, wy)
	}

	a.State = StateIdle
	wx, wy = a.WorldPos()
	if wx != tx0 || wy != ty0 {
		t.Fatalf("idle WorldPos = (%v,%v), want tile center", wx, wy)
	}
}
