package village

import (
	"context"
	"time"
)

// Run drives the simulation until the context is canceled or Stop is
// called. Joins, leaves, and commands are buffered as they arrive and
// applied together at the next tick boundary, never mid-tick.
func (v *Village) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(v.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingCmds []CmdEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-v.stop:
			return nil
		case req := <-v.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-v.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-v.inbox:
			pendingCmds = append(pendingCmds, env)
		case req := <-v.statez:
			req.Resp <- v.buildStatez()
		case <-ticker.C:
			v.step(pendingJoins, pendingLeaves, pendingCmds)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingCmds = pendingCmds[:0]
		}
	}
}

func (v *Village) Stop() { close(v.stop) }

func (v *Village) buildStatez() Statez {
	return Statez{
		Tick:       v.tick.Load(),
		CycleTick:  v.cycleTick,
		Phase:      v.phase(),
		Budget:     v.econ.Budget,
		Population: v.econ.Population,
		Unemployed: v.econ.Unemployed,
		Multiplier: v.econ.Multiplier,
		Items:      len(v.items),
		Villagers:  len(v.villagers),
		Clients:    len(v.clients),
	}
}
