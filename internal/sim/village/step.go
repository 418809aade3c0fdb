package village

import (
	"encoding/json"
	"hamletcraft.dev/internal/sim/catalog"
	"hamletcraft.dev/internal/sim/grid"
)

// step advances the simulation by one tick: drain deferred requests,
// advance the clock, run the interval jobs, move the villagers, emit
// state. Ledger scans never interleave with mutations because all of
// this runs on the single loop goroutine.
func (v *Village) step(joins []JoinRequest, leaves []string, cmds []CmdEnvelope) {
	nowTick := v.tick.Load()
	dt := 1 / float64(v.cfg.TickRateHz)

	v.cycleTick++
	if v.cycleTick >= v.cfg.DayTicks {
		v.cycleTick = 0
	}

	for _, id := range leaves {
		v.handleLeave(id)
	}
	for _, req := range joins {
		v.handleJoin(req)
	}

	for _, env := range cmds {
		res := v.applyCmd(env.Cmd)
		if v.auditLogger != nil && mutatingOp(env.Cmd.Op) {
			_ = v.auditLogger.WriteAudit(AuditEntry{
				Tick:     nowTick,
				ClientID: env.ClientID,
				Op:       env.Cmd.Op,
				ItemID:   env.Cmd.ItemID,
				X:        env.Cmd.X,
				Y:        env.Cmd.Y,
				OK:       res.OK,
				Code:     res.Code,
			})
		}
		if c := v.clients[env.ClientID]; c != nil {
			if b, err := json.Marshal(res); err == nil {
				select {
				case c.Out <- b:
				default:
				}
			}
		}
	}

	for n := v.incomeTimer.add(dt); n > 0; n-- {
		v.applyIncome(nowTick)
	}
	for n := v.churnTimer.add(dt); n > 0; n-- {
		v.environmentChurn()
	}

	v.tickVillagers(dt, nowTick)

	if v.snapshotSink != nil {
		if n := v.snapshotTimer.add(dt); n > 0 {
			select {
			case v.snapshotSink <- v.ExportSnapshot():
			default:
				// Writer is behind; skip this one rather than block the tick.
			}
		}
	}

	if len(v.clients) > 0 {
		if b, err := json.Marshal(v.buildState(nowTick)); err == nil {
			v.broadcast(b)
		}
	}

	v.tick.Add(1)
}

// applyIncome applies one interval of the settlement economy: income
// scaled by the production multiplier, expenses unconditional. Expenses
// may push the budget negative; only rejected spends cannot.
func (v *Village) applyIncome(nowTick uint64) {
	var income, expense float64
	for _, it := range v.items {
		def, ok := v.cat.Get(it.ID)
		if !ok {
			continue
		}
		income += def.Income
		expense += def.Expense
	}
	v.econ.Budget += income*v.econ.Multiplier - expense
	if v.econLogger != nil {
		_ = v.econLogger.WriteEcon(EconEntry{
			Tick:        nowTick,
			Income:      income,
			Expense:     expense,
			Multiplier:  v.econ.Multiplier,
			BudgetAfter: v.econ.Budget,
		})
	}
}

// environmentChurn is the ambient tree cycle: each firing picks one
// random in-bounds tile; an empty tile sprouts a tree, a tile already
// holding one loses it. Uses the free placement path, so occupancy and
// bounds still apply but cost and requirements do not.
func (v *Village) environmentChurn() {
	r := v.cfg.GridRadius
	span := 2*r + 1
	t := grid.Tile{
		X: int(v.rng.next()%uint64(span)) - r,
		Y: int(v.rng.next()%uint64(span)) - r,
	}
	if it, ok := v.byTile[t]; ok {
		if it.ID == v.cfg.TreeItemID && it.Kind == catalog.KindDecoration {
			v.RemoveFree(t)
		}
		return
	}
	v.PlaceFree(t, v.cfg.TreeItemID, v.rng.next()%2 == 0)
}
