package eval

import (
	"github.com/EvLab-MIT/cb2/internal/client"
	"github.com/EvLab-MIT/cb2/internal/messages"
)

// IdleFollower is the trivial baseline agent: it marks the active
// instruction done without moving. It passes only instructions whose
// baseline required no card changes.
type IdleFollower struct{}

func (IdleFollower) Act(state client.GameState) (*messages.MessageToServer, error) {
	for _, obj := range state.Instructions {
		if !obj.Completed && !obj.Cancelled {
			return messages.ObjectiveCompleteToServer(obj.UUID), nil
		}
	}
	return nil, nil
}

// ScriptedFollower replays a fixed envelope sequence, then stops. Used
// for deterministic harness tests and debugging.
type ScriptedFollower struct {
	Script []*messages.MessageToServer
	next   int
}

func (a *ScriptedFollower) Act(state client.GameState) (*messages.MessageToServer, error) {
	if a.next >= len(a.Script) {
		return nil, nil
	}
	msg := a.Script[a.next]
	a.next++
	return msg, nil
}
