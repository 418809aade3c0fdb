package village

import (
	"encoding/json"
	"fmt"

	"hamletcraft.dev/internal/protocol"
)

// handleJoin registers a client and answers with WELCOME + CATALOG.
func (v *Village) handleJoin(req JoinRequest) {
	v.nextCli++
	id := fmt.Sprintf("C%d", v.nextCli)
	v.clients[id] = &clientState{ID: id, Name: req.Name, Out: req.Out}

	resp := JoinResponse{
		Welcome: protocol.WelcomeMsg{
			Type:            protocol.TypeWelcome,
			ProtocolVersion: protocol.Version,
			ClientID:        id,
			WorldParams: protocol.WorldParams{
				TickRateHz: v.cfg.TickRateHz,
				DayTicks:   v.cfg.DayTicks,
				GridRadius: v.cfg.GridRadius,
				Seed:       v.cfg.Seed,
			},
			CatalogDigest: v.cat.Digest,
		},
		Catalog: protocol.CatalogMsg{
			Type:   protocol.TypeCatalog,
			Digest: v.cat.Digest,
			Items:  v.catalogItemsJSON(),
		},
	}
	if req.Resp != nil {
		req.Resp <- resp
	}
}

func (v *Village) handleLeave(id string) {
	delete(v.clients, id)
}

// catalogItemsJSON marshals the definitions in sorted-id order.
func (v *Village) catalogItemsJSON() json.RawMessage {
	defs := make([]any, 0, len(v.cat.IDs))
	for _, id := range v.cat.IDs {
		d, _ := v.cat.Get(id)
		defs = append(defs, d)
	}
	b, err := json.Marshal(defs)
	if err != nil {
		return json.RawMessage("[]")
	}
	return b
}

// buildState assembles the per-tick STATE message.
func (v *Village) buildState(nowTick uint64) protocol.StateMsg {
	msg := protocol.StateMsg{
		Type:      protocol.TypeState,
		Tick:      nowTick,
		CycleTick: v.cycleTick,
		Phase:     v.phase(),
		Economy: protocol.EconomyMsg{
			Budget:          v.econ.Budget,
			Population:      v.econ.Population,
			Unemployed:      v.econ.Unemployed,
			WorkersRequired: v.econ.WorkersRequired,
			Multiplier:      v.econ.Multiplier,
		},
		Items:     make([]protocol.PlacedItemMsg, 0, len(v.items)),
		Villagers: make([]protocol.VillagerMsg, 0, len(v.villagers)),
	}
	for _, it := range v.items {
		msg.Items = append(msg.Items, protocol.PlacedItemMsg{
			Kind:    string(it.Kind),
			ID:      it.ID,
			X:       it.Tile.X,
			Y:       it.Tile.Y,
			Flipped: it.Flipped,
		})
	}
	for _, a := range v.villagers {
		wx, wy := a.WorldPos()
		msg.Villagers = append(msg.Villagers, protocol.VillagerMsg{
			ID:      a.ID,
			X:       a.Tile.X,
			Y:       a.Tile.Y,
			WX:      wx,
			WY:      wy,
			Facing:  a.Facing,
			State:   a.State.String(),
			Variant: a.Variant,
		})
	}
	return msg
}

// broadcast sends a marshaled message to every connected client,
// dropping it for clients whose queue is full rather than stalling the
// tick.
func (v *Village) broadcast(b []byte) {
	for _, c := range v.clients {
		select {
		case c.Out <- b:
		default:
		}
	}
}
