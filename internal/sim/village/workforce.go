package village

import (
	"hamletcraft.dev/internal/sim/catalog"
	"hamletcraft.dev/internal/sim/village/logic/mathx"
)

// Workforce allocator. Keeps four figures consistent after every ledger
// mutation:
//
//	population      = Σ population granted by placed items
//	0 ≤ unemployed ≤ population
//	workersRequired = Σ worker requirements of placed items
//	multiplier      = employed/required, clamped to [0,1]
//
// "employed" means population minus unemployed. There is no per-worker
// assignment tracking; the allocator reasons only in aggregates.

// reconcilePlacement updates the workforce figures for a just-placed item.
// New settlers take open jobs first: if the settlement is short on
// workers, the item's own population grant is assigned to jobs before
// the remainder joins the unemployed pool.
func (v *Village) reconcilePlacement(def catalog.ItemDef) {
	grant := def.Population
	req := def.WorkersRequired()

	v.econ.WorkersRequired += req

	if grant > 0 {
		shortage := v.econ.WorkersRequired - v.employed()
		assign := mathx.ClampInt(shortage, 0, grant)
		v.econ.Population += grant
		v.econ.Unemployed += grant - assign
	}
	if req > 0 {
		// Draft from the unemployed pool whatever the grant above did
		// not already cover.
		residual := v.econ.WorkersRequired - v.employed()
		take := mathx.ClampInt(residual, 0, req)
		if take > v.econ.Unemployed {
			take = v.econ.Unemployed
		}
		v.econ.Unemployed -= take
	}
	v.settleWorkforce()
}

// reconcileRemoval updates the workforce figures for a just-removed item.
// The item's workers return to the unemployed pool (then get re-drafted
// if jobs elsewhere are still short); a departing household is assumed
// to take its own job slot with it.
func (v *Village) reconcileRemoval(def catalog.ItemDef) {
	grant := def.Population
	req := def.WorkersRequired()

	if v.econ.WorkersRequired >= req {
		v.econ.WorkersRequired -= req
	} else {
		v.econ.WorkersRequired = 0
	}

	if req > 0 {
		freed := mathx.ClampInt(req, 0, v.employed())
		v.econ.Unemployed += freed
		// Residual shortage elsewhere claims the freed workers first.
		shortage := v.econ.WorkersRequired - v.employed()
		redraft := mathx.ClampInt(shortage, 0, freed)
		if redraft > v.econ.Unemployed {
			redraft = v.econ.Unemployed
		}
		v.econ.Unemployed -= redraft
	}
	if grant > 0 {
		v.econ.Population -= grant
		if v.econ.Population < 0 {
			v.econ.Population = 0
		}
		leave := grant - req
		if leave < 0 {
			leave = 0
		}
		v.econ.Unemployed -= leave
	}
	v.settleWorkforce()
}

func (v *Village) employed() int {
	return v.econ.Population - v.econ.Unemployed
}

// settleWorkforce clamps the unemployed count into [0, population] and
// rederives the production multiplier. Runs after every mutation as the
// final safety net; drift is recoverable, so clamp rather than panic.
func (v *Village) settleWorkforce() {
	v.econ.Unemployed = mathx.ClampInt(v.econ.Unemployed, 0, v.econ.Population)
	v.econ.Multiplier = productionMultiplier(v.econ.Population, v.econ.Unemployed, v.econ.WorkersRequired)
}

func productionMultiplier(population, unemployed, required int) float64 {
	if required <= 0 {
		return 1
	}
	employed := population - unemployed
	if employed <= 0 {
		return 0
	}
	m := float64(employed) / float64(required)
	if m > 1 {
		return 1
	}
	return m
}

// recomputeWorkforce rederives everything from the placed-item list.
// Used when restoring a snapshot whose stored figures are missing or
// inconsistent: jobs are filled first, the rest are unemployed.
func (v *Village) recomputeWorkforce() {
	pop, req := 0, 0
	for _, it := range v.items {
		if def, ok := v.cat.Get(it.ID); ok {
			pop += def.Population
			req += def.WorkersRequired()
		}
	}
	employed := req
	if employed > pop {
		employed = pop
	}
	v.econ.Population = pop
	v.econ.WorkersRequired = req
	v.econ.Unemployed = pop - employed
	v.settleWorkforce()
}
