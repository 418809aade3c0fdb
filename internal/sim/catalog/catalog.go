// Package catalog loads and validates the static item definitions:
// everything placeable on the village grid, with its cost, economic
// effects, spatial constraints, and placement prerequisites.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// ItemKind is a closed enum; anything else is rejected at load.
type ItemKind string

const (
	KindBuilding   ItemKind = "building"
	KindDecoration ItemKind = "decoration"
	KindRoad       ItemKind = "road"
)

// ReqKind is the closed set of placement requirement kinds. The checker
// switch in the ledger is exhaustive over these; Load rejects anything
// outside the set so an unknown kind can never reach the runtime path.
type ReqKind string

const (
	ReqPopulation        ReqKind = "population"
	ReqBudget            ReqKind = "budget"
	ReqUnemployedWorkers ReqKind = "unemployed_workers"
	ReqHasBuilding       ReqKind = "has_building"
)

// Requirement is one placement prerequisite. Amount carries the threshold
// for the numeric kinds; BuildingID carries the target for has_building.
type Requirement struct {
	Kind       ReqKind `json:"kind"`
	Amount     float64 `json:"amount,omitempty"`
	BuildingID string  `json:"building_id,omitempty"`
}

type ItemDef struct {
	ID   string   `json:"id"`
	Kind ItemKind `json:"kind"`

	Cost       int     `json:"cost"`
	RefundRate float64 `json:"refund_rate,omitempty"` // fraction of cost charged on demolition; 0.5 when absent

	Income     float64 `json:"income,omitempty"`  // per income interval, scaled by the production multiplier
	Expense    float64 `json:"expense,omitempty"` // per income interval, unconditional
	Population int     `json:"population,omitempty"`

	AllowsAdjacentSameID bool `json:"allows_adjacent_same_id,omitempty"`
	RequiresNearbyRoad   bool `json:"requires_nearby_road,omitempty"`

	// ProtectedDecoration marks environment items (trees, rocks) that can
	// only be demolished while some placed item grants the removal tool.
	ProtectedDecoration bool `json:"protected_decoration,omitempty"`
	GrantsRemovalTool   bool `json:"grants_removal_tool,omitempty"`

	Requirements []Requirement `json:"requirements,omitempty"`
}

// WorkersRequired returns the unemployed-workers threshold this item
// declares, or 0.
func (d ItemDef) WorkersRequired() int {
	for _, r := range d.Requirements {
		if r.Kind == ReqUnemployedWorkers {
			return int(r.Amount)
		}
	}
	return 0
}

type Catalog struct {
	Defs   map[string]ItemDef
	IDs    []string // sorted, for deterministic iteration
	Digest string
}

// Get looks up a definition by id. Absence is not an error; callers
// treat a missing id as a rejected operation.
func (c *Catalog) Get(id string) (ItemDef, bool) {
	d, ok := c.Defs[id]
	return d, ok
}

// Load reads and validates items.json. Validation failures are fatal on
// purpose: a bad catalog means a bad deploy, not a recoverable state.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("items.json: %w", err)
	}

	c := &Catalog{Defs: map[string]ItemDef{}}
	sum := sha256.Sum256(raw)
	c.Digest = hex.EncodeToString(sum[:])

	for i := range defs {
		d := defs[i]
		if err := validate(d); err != nil {
			return nil, fmt.Errorf("items.json: item %q: %w", d.ID, err)
		}
		if _, dup := c.Defs[d.ID]; dup {
			return nil, fmt.Errorf("items.json: duplicate id %q", d.ID)
		}
		if d.RefundRate == 0 {
			d.RefundRate = 0.5
		}
		c.Defs[d.ID] = d
	}

	c.IDs = make([]string, 0, len(c.Defs))
	for id := range c.Defs {
		c.IDs = append(c.IDs, id)
	}
	sort.Strings(c.IDs)
	return c, nil
}

func validate(d ItemDef) error {
	if d.ID == "" {
		return fmt.Errorf("empty id")
	}
	switch d.Kind {
	case KindBuilding, KindDecoration, KindRoad:
	default:
		return fmt.Errorf("unknown kind %q", d.Kind)
	}
	if d.Cost < 0 {
		return fmt.Errorf("negative cost")
	}
	if d.RefundRate < 0 || d.RefundRate > 1 {
		return fmt.Errorf("refund_rate out of [0,1]")
	}
	if d.Population < 0 {
		return fmt.Errorf("negative population")
	}
	if d.RequiresNearbyRoad && d.Kind != KindBuilding {
		return fmt.Errorf("requires_nearby_road only valid for buildings")
	}
	if d.ProtectedDecoration && d.Kind != KindDecoration {
		return fmt.Errorf("protected_decoration only valid for decorations")
	}
	for _, r := range d.Requirements {
		switch r.Kind {
		case ReqPopulation, ReqBudget, ReqUnemployedWorkers:
			if r.Amount < 0 {
				return fmt.Errorf("requirement %s: negative amount", r.Kind)
			}
			if r.BuildingID != "" {
				return fmt.Errorf("requirement %s: building_id not allowed", r.Kind)
			}
		case ReqHasBuilding:
			if r.BuildingID == "" {
				return fmt.Errorf("requirement has_building: missing building_id")
			}
			if r.Amount != 0 {
				return fmt.Errorf("requirement has_building: amount not allowed")
			}
		default:
			return fmt.Errorf("unknown requirement kind %q", r.Kind)
		}
	}
	return nil
}
