package protocol

import "encoding/json"

// Rejection codes returned in RESULT messages. Stable machine strings;
// clients key toasts and tutorial hints off them.
const (
	CodeBounds    = "E_BOUNDS"
	CodeOccupied  = "E_OCCUPIED"
	CodeAdjacent  = "E_ADJACENT"
	CodeNoRoad    = "E_NO_ROAD"
	CodeFunds     = "E_FUNDS"
	CodeReq       = "E_REQ"
	CodeProtected = "E_PROTECTED"
	CodeNotFound  = "E_NOT_FOUND"
	CodeBadItem   = "E_BAD_ITEM"
	CodeBadCmd    = "E_BAD_CMD"
)

// Command ops.
const (
	OpPlace  = "PLACE"
	OpRemove = "REMOVE"
	OpCheck  = "CHECK"
	OpCost   = "COST"
)

type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
}

type WorldParams struct {
	TickRateHz int   `json:"tick_rate_hz"`
	DayTicks   int   `json:"day_ticks"`
	GridRadius int   `json:"grid_radius"`
	Seed       int64 `json:"seed"`
}

type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	ClientID        string      `json:"client_id"`
	WorldParams     WorldParams `json:"world_params"`
	CatalogDigest   string      `json:"catalog_digest"`
}

// CatalogMsg carries the raw item definitions so the client renders
// costs and requirements without a second fetch.
type CatalogMsg struct {
	Type   string          `json:"type"`
	Digest string          `json:"digest"`
	Items  json.RawMessage `json:"items"`
}

type EconomyMsg struct {
	Budget          float64 `json:"budget"`
	Population      int     `json:"population"`
	Unemployed      int     `json:"unemployed"`
	WorkersRequired int     `json:"workers_required"`
	Multiplier      float64 `json:"multiplier"`
}

type PlacedItemMsg struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Flipped bool   `json:"flipped,omitempty"`
}

type VillagerMsg struct {
	ID      string  `json:"id"`
	X       int     `json:"x"`
	Y       int     `json:"y"`
	WX      float64 `json:"wx"` // interpolated world-space position
	WY      float64 `json:"wy"`
	Facing  float64 `json:"facing"`
	State   string  `json:"state"`
	Variant int     `json:"variant"`
}

type StateMsg struct {
	Type      string          `json:"type"`
	Tick      uint64          `json:"tick"`
	CycleTick int             `json:"cycle_tick"`
	Phase     string          `json:"phase"` // "day" or "night"
	Economy   EconomyMsg      `json:"economy"`
	Items     []PlacedItemMsg `json:"items"`
	Villagers []VillagerMsg   `json:"villagers"`
}

type CmdMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Seq             uint64 `json:"seq"`
	Op              string `json:"op"`
	X               int    `json:"x,omitempty"`
	Y               int    `json:"y,omitempty"`
	ItemID          string `json:"item_id,omitempty"`
	Flipped         bool   `json:"flipped,omitempty"`
}

// MissingReq reports one unmet placement requirement.
type MissingReq struct {
	Current    float64 `json:"current"`
	Required   float64 `json:"required"`
	BuildingID string  `json:"building_id,omitempty"`
}

type ResultMsg struct {
	Type    string                `json:"type"`
	Seq     uint64                `json:"seq"`
	OK      bool                  `json:"ok"`
	Code    string                `json:"code,omitempty"`
	Message string                `json:"message,omitempty"`
	Cost    int                   `json:"cost,omitempty"`
	Missing map[string]MissingReq `json:"missing,omitempty"`
}
