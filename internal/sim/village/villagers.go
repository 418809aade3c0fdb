package village

import (
	"fmt"
	"math"

	"hamletcraft.dev/internal/sim/grid"
)

// VillagerState is the two-state behavior machine: villagers idle on a
// tile for a while, then wander the road graph for a while.
type VillagerState int

const (
	StateIdle VillagerState = iota
	StateMoving
)

func (s VillagerState) String() string {
	if s == StateMoving {
		return "moving"
	}
	return "idle"
}

// Villager is one ambient agent. Purely cosmetic: villagers never touch
// the ledger or the economy, they only read the road graph.
type Villager struct {
	ID   string
	Num  uint64
	Tile grid.Tile

	State    VillagerState
	Target   grid.Tile // next tile while moving
	Dest     grid.Tile // soft wander destination
	Progress float64   // 0..1 interpolation toward Target

	Speed    float64 // tiles per second
	IdleLeft float64 // seconds remaining in Idle
	MoveLeft float64 // seconds remaining in the Moving bout

	Facing  float64 // radians, world space
	Variant int     // cosmetic sprite variant
	Born    uint64  // spawn tick, oldest-first trim order

	rng    roller
	remove bool
}

// WorldPos is the interpolated world-space position between the current
// and target tile.
func (a *Villager) WorldPos() (float64, float64) {
	cx, cy := grid.TileToWorld(a.Tile)
	if a.State != StateMoving {
		return cx, cy
	}
	tx, ty := grid.TileToWorld(a.Target)
	return cx + (tx-cx)*a.Progress, cy + (ty-cy)*a.Progress
}

// spawnCap is how many villagers may be alive right now: during the day
// only the unemployed wander; at night everyone might be out.
func (v *Village) spawnCap() int {
	if v.isDay() {
		return v.econ.Unemployed
	}
	return v.econ.Population
}

// tickVillagers advances the ambient simulation by dt seconds.
func (v *Village) tickVillagers(dt float64, nowTick uint64) {
	limit := v.spawnCap()

	for n := v.spawnTimer.add(dt); n > 0; n-- {
		v.trySpawnVillager(limit, nowTick)
	}

	// Cap shrank (house demolished, phase change): trim the oldest.
	// The slice is append-ordered, so the front is oldest.
	for i := 0; i < len(v.villagers)-limit; i++ {
		v.villagers[i].remove = true
	}

	for _, a := range v.villagers {
		if a.remove {
			continue
		}
		v.healVillager(a)
		if a.remove {
			continue
		}
		switch a.State {
		case StateIdle:
			v.tickIdle(a, dt)
		case StateMoving:
			v.tickMoving(a, dt)
		}
	}

	// Drop marked agents and any that ended the tick off the road graph.
	alive := v.villagers[:0]
	for _, a := range v.villagers {
		if a.remove || !v.IsValidRoadTile(a.Tile) {
			continue
		}
		alive = append(alive, a)
	}
	v.villagers = alive
}

func (v *Village) trySpawnVillager(limit int, nowTick uint64) {
	if len(v.villagers) >= limit {
		return
	}
	roads := v.roadTiles()
	if len(roads) == 0 {
		return
	}
	v.nextVillNum++
	num := v.nextVillNum
	rng := roller{seed: v.cfg.Seed + int64(num)*0x9e37}
	a := &Villager{
		ID:      fmt.Sprintf("V%d", num),
		Num:     num,
		Tile:    roads[v.rng.pick(len(roads))],
		State:   StateIdle,
		Speed:   rng.rangeFloat(v.cfg.VillagerSpeedMin, v.cfg.VillagerSpeedMax),
		Variant: rng.pick(8),
		Born:    nowTick,
		rng:     rng,
	}
	a.IdleLeft = a.rng.rangeFloat(v.cfg.IdleSecMin, v.cfg.IdleSecMax)
	v.villagers = append(v.villagers, a)
}

// healVillager handles roads demolished underneath an agent: snap to a
// neighboring road tile if one exists, otherwise mark for removal.
func (v *Village) healVillager(a *Villager) {
	if v.IsValidRoadTile(a.Tile) {
		return
	}
	// Cardinals first, then diagonals: prefer the shorter visual hop.
	for _, n := range grid.Cardinals(a.Tile) {
		if v.IsValidRoadTile(n) {
			v.snapTo(a, n)
			return
		}
	}
	for _, d := range [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}} {
		n := grid.Tile{X: a.Tile.X + d[0], Y: a.Tile.Y + d[1]}
		if v.IsValidRoadTile(n) {
			v.snapTo(a, n)
			return
		}
	}
	a.remove = true
}

func (v *Village) snapTo(a *Villager, t grid.Tile) {
	a.Tile = t
	a.Progress = 0
	a.State = StateIdle
	a.IdleLeft = a.rng.rangeFloat(v.cfg.IdleSecMin, v.cfg.IdleSecMax)
}

func (v *Village) tickIdle(a *Villager, dt float64) {
	a.IdleLeft -= dt
	if a.IdleLeft > 0 {
		return
	}
	// Pick a soft destination among reachable road tiles, then take one
	// greedy step toward it. No reachable target: try any neighbor.
	// Still nothing: stay idle and re-roll the timer.
	reach := v.ReachableWithin(a.Tile, v.cfg.WanderRadius)
	var step grid.Tile
	ok := false
	if len(reach) > 0 {
		a.Dest = reach[a.rng.pick(len(reach))]
		step, ok = v.NextStepToward(a.Tile, a.Dest)
	}
	if !ok {
		if ns := v.AdjacentRoadTiles(a.Tile); len(ns) > 0 {
			step = ns[a.rng.pick(len(ns))]
			a.Dest = step
			ok = true
		}
	}
	if !ok {
		a.IdleLeft = a.rng.rangeFloat(v.cfg.IdleSecMin, v.cfg.IdleSecMax)
		return
	}
	a.State = StateMoving
	a.Target = step
	a.Progress = 0
	a.MoveLeft = a.rng.rangeFloat(v.cfg.MoveSecMin, v.cfg.MoveSecMax)
	a.face(step)
}

func (v *Village) tickMoving(a *Villager, dt float64) {
	a.MoveLeft -= dt
	// Target demolished mid-step: stop where we are.
	if !v.IsValidRoadTile(a.Target) {
		v.snapTo(a, a.Tile)
		return
	}
	a.Progress += a.Speed * dt
	if a.Progress < 1 {
		return
	}
	// Snap to the target tile and immediately continue or go idle.
	a.Tile = a.Target
	a.Progress = 0
	if a.MoveLeft <= 0 || a.Tile == a.Dest {
		v.snapTo(a, a.Tile)
		return
	}
	next, ok := v.NextStepToward(a.Tile, a.Dest)
	if !ok {
		v.snapTo(a, a.Tile)
		return
	}
	a.Target = next
	a.face(next)
}

func (a *Villager) face(next grid.Tile) {
	cx, cy := grid.TileToWorld(a.Tile)
	nx, ny := grid.TileToWorld(next)
	a.Facing = math.Atan2(ny-cy, nx-cx)
}
