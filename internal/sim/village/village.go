// Package village implements the authoritative settlement simulation:
// the placement ledger, the budget/population/workforce economy, the
// road graph derived from placed items, and the ambient villager agents
// that wander it. All state is owned by a single goroutine; external
// requests enter through channels and are applied at tick boundaries.
package village

import (
	"fmt"
	"sync/atomic"

	"hamletcraft.dev/internal/persistence/snapshot"
	"hamletcraft.dev/internal/protocol"
	"hamletcraft.dev/internal/sim/catalog"
	"hamletcraft.dev/internal/sim/grid"
)

// PlacedItem is one catalog item committed to a tile. Items are never
// mutated in place; orientation is fixed at placement time.
type PlacedItem struct {
	Kind    catalog.ItemKind
	ID      string
	Tile    grid.Tile
	Flipped bool
}

// Economy is the derived settlement bookkeeping. Mutated only by the
// ledger and the workforce allocator.
type Economy struct {
	Budget          float64
	Population      int
	Unemployed      int
	WorkersRequired int
	Multiplier      float64
}

type JoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	Catalog protocol.CatalogMsg
}

type CmdEnvelope struct {
	ClientID string
	Cmd      protocol.CmdMsg
}

// EconLogger receives one entry per applied income interval.
type EconLogger interface {
	WriteEcon(entry EconEntry) error
}

// AuditLogger receives one entry per client command that mutated state.
type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type EconEntry struct {
	Tick        uint64  `json:"tick"`
	Income      float64 `json:"income"`
	Expense     float64 `json:"expense"`
	Multiplier  float64 `json:"multiplier"`
	BudgetAfter float64 `json:"budget_after"`
}

type AuditEntry struct {
	Tick     uint64 `json:"tick"`
	ClientID string `json:"client_id"`
	Op       string `json:"op"`
	ItemID   string `json:"item_id,omitempty"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	OK       bool   `json:"ok"`
	Code     string `json:"code,omitempty"`
}

type clientState struct {
	ID   string
	Name string
	Out  chan []byte
}

type statezReq struct {
	Resp chan Statez
}

// Statez is a point-in-time summary for the HTTP surface.
type Statez struct {
	Tick       uint64  `json:"tick"`
	CycleTick  int     `json:"cycle_tick"`
	Phase      string  `json:"phase"`
	Budget     float64 `json:"budget"`
	Population int     `json:"population"`
	Unemployed int     `json:"unemployed"`
	Multiplier float64 `json:"multiplier"`
	Items      int     `json:"items"`
	Villagers  int     `json:"villagers"`
	Clients    int     `json:"clients"`
}

// Village is the single-threaded authoritative simulation. All fields
// below the channels must be touched only from the Run goroutine.
type Village struct {
	cfg Config
	cat *catalog.Catalog

	tick atomic.Uint64

	inbox  chan CmdEnvelope
	join   chan JoinRequest
	leave  chan string
	statez chan statezReq
	stop   chan struct{}

	cycleTick int

	items  []*PlacedItem
	byTile map[grid.Tile]*PlacedItem

	econ Economy

	villagers   []*Villager
	nextVillNum uint64

	clients map[string]*clientState
	nextCli uint64

	incomeTimer   intervalTimer
	churnTimer    intervalTimer
	spawnTimer    intervalTimer
	snapshotTimer intervalTimer

	rng roller

	snapshotSink chan<- snapshot.SnapshotV1
	econLogger   EconLogger
	auditLogger  AuditLogger
}

// New builds a fresh village. A fresh world gets its initial ambient
// decorations; restoring from a snapshot replaces them (see Restore).
func New(cfg Config, cat *catalog.Catalog) (*Village, error) {
	cfg.applyDefaults()
	if cat == nil {
		return nil, fmt.Errorf("nil catalog")
	}
	if _, ok := cat.Get(cfg.TreeItemID); !ok {
		return nil, fmt.Errorf("catalog has no %q item for environment churn", cfg.TreeItemID)
	}
	v := &Village{
		cfg:     cfg,
		cat:     cat,
		inbox:   make(chan CmdEnvelope, 256),
		join:    make(chan JoinRequest, 8),
		leave:   make(chan string, 8),
		statez:  make(chan statezReq, 4),
		stop:    make(chan struct{}),
		byTile:  map[grid.Tile]*PlacedItem{},
		clients: map[string]*clientState{},
		econ: Economy{
			Budget:     cfg.StartingBudget,
			Multiplier: 1,
		},
		rng: roller{seed: cfg.Seed},
	}
	v.incomeTimer = intervalTimer{every: cfg.IncomeIntervalSec}
	v.churnTimer = intervalTimer{every: cfg.ChurnIntervalSec}
	v.spawnTimer = intervalTimer{every: cfg.SpawnIntervalSec}
	v.snapshotTimer = intervalTimer{every: cfg.SnapshotEverySec}
	v.seedEnvironment()
	return v, nil
}

// Channel accessors used by the transport layer.
func (v *Village) Inbox() chan<- CmdEnvelope { return v.inbox }
func (v *Village) Join() chan<- JoinRequest  { return v.join }
func (v *Village) Leave() chan<- string      { return v.leave }

// SetSnapshotSink wires the off-thread snapshot writer. Must be called
// before Run.
func (v *Village) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { v.snapshotSink = ch }

// SetLoggers wires optional persistence sinks. Either may be nil.
func (v *Village) SetLoggers(econ EconLogger, audit AuditLogger) {
	v.econLogger = econ
	v.auditLogger = audit
}

// Tick is safe to read from any goroutine.
func (v *Village) Tick() uint64 { return v.tick.Load() }

// RequestStatez asks the loop goroutine for a state summary.
func (v *Village) RequestStatez() Statez {
	resp := make(chan Statez, 1)
	select {
	case v.statez <- statezReq{Resp: resp}:
		return <-resp
	case <-v.stop:
		return Statez{}
	}
}

// Renderer-facing accessors. Loop-goroutine only; the ws transport
// reads the per-tick STATE message instead.

func (v *Village) GetPlacedItems() []PlacedItem {
	out := make([]PlacedItem, 0, len(v.items))
	for _, it := range v.items {
		out = append(out, *it)
	}
	return out
}

func (v *Village) GetVillagers() []Villager {
	out := make([]Villager, 0, len(v.villagers))
	for _, a := range v.villagers {
		out = append(out, *a)
	}
	return out
}

func (v *Village) GetBudget() float64             { return v.econ.Budget }
func (v *Village) GetPopulation() int             { return v.econ.Population }
func (v *Village) GetUnemployedWorkers() int      { return v.econ.Unemployed }
func (v *Village) GetProductionMultiplier() float64 { return v.econ.Multiplier }

// ItemAt returns the placed item occupying a tile, if any.
func (v *Village) ItemAt(t grid.Tile) (PlacedItem, bool) {
	it, ok := v.byTile[t]
	if !ok {
		return PlacedItem{}, false
	}
	return *it, true
}

func (v *Village) isDay() bool {
	// First 60% of the cycle is daylight.
	return v.cycleTick < v.cfg.DayTicks*3/5
}

func (v *Village) phase() string {
	if v.isDay() {
		return "day"
	}
	return "night"
}

// seedEnvironment scatters the initial ambient decorations on a fresh
// world. Uses free placement: no cost, no requirements.
func (v *Village) seedEnvironment() {
	r := v.cfg.GridRadius
	span := 2*r + 1
	for i := 0; i < v.cfg.InitialTrees; i++ {
		t := grid.Tile{
			X: int(v.rng.next()%uint64(span)) - r,
			Y: int(v.rng.next()%uint64(span)) - r,
		}
		v.PlaceFree(t, v.cfg.TreeItemID, v.rng.next()%2 == 0)
	}
}
