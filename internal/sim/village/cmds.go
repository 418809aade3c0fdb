package village

import (
	"hamletcraft.dev/internal/protocol"
	"hamletcraft.dev/internal/sim/grid"
)

// applyCmd executes one client command and returns the RESULT to send
// back. Ordinary rejections are results, never errors.
func (v *Village) applyCmd(cmd protocol.CmdMsg) protocol.ResultMsg {
	res := protocol.ResultMsg{Type: protocol.TypeResult, Seq: cmd.Seq}
	t := grid.Tile{X: cmd.X, Y: cmd.Y}

	switch cmd.Op {
	case protocol.OpPlace:
		code, missing := v.Place(t, cmd.ItemID, cmd.Flipped)
		res.OK = code == ""
		res.Code = code
		res.Missing = missing

	case protocol.OpRemove:
		code := v.Remove(t)
		res.OK = code == ""
		res.Code = code

	case protocol.OpCheck:
		def, ok := v.cat.Get(cmd.ItemID)
		if !ok {
			res.Code = protocol.CodeBadItem
			break
		}
		met, missing := v.CheckRequirements(def)
		res.OK = met
		res.Missing = missing
		if !met {
			res.Code = protocol.CodeReq
		}

	case protocol.OpCost:
		if cmd.ItemID != "" {
			def, ok := v.cat.Get(cmd.ItemID)
			if !ok {
				res.Code = protocol.CodeBadItem
				break
			}
			res.OK = true
			res.Cost = def.Cost
			break
		}
		it, ok := v.byTile[t]
		if !ok {
			res.Code = protocol.CodeNotFound
			break
		}
		def, ok := v.cat.Get(it.ID)
		if !ok {
			res.Code = protocol.CodeBadItem
			break
		}
		res.OK = true
		res.Cost = DemolitionCost(def)

	default:
		res.Code = protocol.CodeBadCmd
	}
	return res
}

// mutatingOp reports whether an op should be audit-logged.
func mutatingOp(op string) bool {
	return op == protocol.OpPlace || op == protocol.OpRemove
}
