package client

import (
	"github.com/EvLab-MIT/cb2/internal/messages"
)

// GameState is the client-side accumulated view of one game: the latest
// snapshot of each concern, folded from server messages in arrival order.
type GameState struct {
	Map          messages.MapUpdate
	Props        []messages.Prop
	TurnState    messages.TurnState
	Instructions []messages.ObjectiveMessage
	Actors       messages.StateSync
	LiveFeedback []messages.LiveFeedback
}

// Clone deep-copies the slice-valued fields so callers can hold a state
// across further folds.
func (g *GameState) Clone() GameState {
	out := *g
	out.Props = append([]messages.Prop(nil), g.Props...)
	out.Instructions = append([]messages.ObjectiveMessage(nil), g.Instructions...)
	out.LiveFeedback = append([]messages.LiveFeedback(nil), g.LiveFeedback...)
	out.Actors.Actors = append([]messages.ActorState(nil), g.Actors.Actors...)
	return out
}

// fold applies one server message to the accumulated view. Snapshot
// payloads replace their concern wholesale; actions patch actor poses.
func (g *GameState) fold(msg *messages.MessageFromServer) {
	switch msg.Type {
	case messages.FromServerTypeMapUpdate:
		g.Map = *msg.MapUpdate
	case messages.FromServerTypePropUpdate:
		g.Props = append([]messages.Prop(nil), msg.PropUpdate.Props...)
	case messages.FromServerTypeTurnState:
		g.TurnState = *msg.TurnState
	case messages.FromServerTypeObjectives:
		g.Instructions = append([]messages.ObjectiveMessage(nil), msg.Objectives...)
	case messages.FromServerTypeStateSync:
		g.Actors = *msg.State
	case messages.FromServerTypeActions:
		for _, action := range msg.Actions {
			g.applyAction(action)
		}
	case messages.FromServerTypeLiveFeedback:
		g.LiveFeedback = append(g.LiveFeedback, *msg.LiveFeedback)
	}
}

func (g *GameState) applyAction(action messages.Action) {
	for i := range g.Actors.Actors {
		a := &g.Actors.Actors[i]
		if a.ActorID != action.ID {
			continue
		}
		switch action.ActionType {
		case messages.ActionTypeTranslate:
			a.Location = a.Location.Add(action.Displacement)
			a.Rotation += action.Rotation
		case messages.ActionTypeRotate:
			a.Rotation += action.Rotation
		case messages.ActionTypeInstant:
			a.Location = a.Location.Add(action.Displacement)
			a.Rotation = action.Rotation
		}
		return
	}
}
