package state

import (
	"time"

	"github.com/EvLab-MIT/cb2/internal/messages"
)

// MapView returns the current map snapshot.
func (s *State) MapView() messages.MapUpdate {
	return s.worldMap
}

// PropsView returns a copy of the current props.
func (s *State) PropsView() []messages.Prop {
	return append([]messages.Prop(nil), s.props...)
}

// TurnStateView returns the current turn state.
func (s *State) TurnStateView() messages.TurnState {
	return s.turn
}

// InstructionsView returns a copy of the instruction list.
func (s *State) InstructionsView() []messages.ObjectiveMessage {
	return append([]messages.ObjectiveMessage(nil), s.instructions...)
}

// ActorStateView returns the actor snapshot addressed to one player.
func (s *State) ActorStateView(playerID int) messages.StateSync {
	sync := s.actorStates()
	sync.PlayerID = playerID
	if a, ok := s.actors[playerID]; ok {
		sync.PlayerRole = a.Role
	}
	return sync
}

func (s *State) actorStates() messages.StateSync {
	states := []messages.ActorState{}
	for _, a := range s.actors {
		if a.Left {
			continue
		}
		states = append(states, messages.ActorState{
			ActorID:  a.ID,
			Role:     a.Role,
			Location: a.Location,
			Rotation: a.Rotation,
		})
	}
	return messages.StateSync{Population: len(states), Actors: states, PlayerID: -1}
}

// DrainOutbound moves everything the given actor's client has not yet
// seen into a message batch, oldest concern first. It never blocks.
func (s *State) DrainOutbound(actorID int) []*messages.MessageFromServer {
	sy, ok := s.sync[actorID]
	if !ok {
		return nil
	}
	var out []*messages.MessageFromServer
	if sy.mapStale {
		out = append(out, messages.MapUpdateFromServer(s.worldMap))
		sy.mapStale = false
	}
	if sy.propsStale {
		out = append(out, messages.PropUpdateFromServer(messages.PropUpdate{Props: s.PropsView()}))
		sy.propsStale = false
	}
	if sy.stateStale {
		out = append(out, messages.StateSyncFromServer(s.ActorStateView(actorID)))
		sy.stateStale = false
	}
	if sy.turnStale {
		out = append(out, messages.TurnStateFromServer(s.turn))
		sy.turnStale = false
	}
	if sy.instructionsStale {
		out = append(out, messages.ObjectivesFromServer(s.InstructionsView()))
		sy.instructionsStale = false
	}
	if len(sy.actions) > 0 {
		out = append(out, messages.ActionsFromServer(sy.actions))
		sy.actions = nil
	}
	for _, fb := range sy.feedback {
		out = append(out, messages.LiveFeedbackFromServer(fb))
	}
	sy.feedback = nil
	for _, report := range sy.reports {
		r := report
		out = append(out, messages.ScenarioResponseFromServer(messages.ScenarioResponse{
			Type:          messages.ScenarioResponseTypeTriggerReport,
			TriggerReport: &r,
		}))
	}
	sy.reports = nil
	return out
}

// RequestStateSync marks all snapshots stale for one actor, forcing a
// full resend on the next drain.
func (s *State) RequestStateSync(actorID int) {
	if sy, ok := s.sync[actorID]; ok {
		sy.mapStale = true
		sy.propsStale = true
		sy.turnStale = true
		sy.instructionsStale = true
		sy.stateStale = true
	}
}

func (s *State) broadcastActions(actions []messages.Action) {
	for id, a := range s.actors {
		if !a.Left {
			s.sync[id].actions = append(s.sync[id].actions, actions...)
		}
	}
}

func (s *State) markTurnStale() {
	for _, sy := range s.sync {
		sy.turnStale = true
	}
}

func (s *State) markPropsStale() {
	for _, sy := range s.sync {
		sy.propsStale = true
	}
}

func (s *State) markInstructionsStale() {
	for _, sy := range s.sync {
		sy.instructionsStale = true
	}
}

func (s *State) markStateStale() {
	for _, sy := range s.sync {
		sy.stateStale = true
	}
}

// ScenarioView snapshots the whole game as a reloadable Scenario. The
// actor-state portion is unaddressed (PlayerID -1).
func (s *State) ScenarioView() messages.Scenario {
	return messages.Scenario{
		Map:        s.worldMap,
		PropUpdate: messages.PropUpdate{Props: s.PropsView()},
		TurnState:  s.turn,
		Objectives: s.InstructionsView(),
		ActorState: s.actorStates(),
	}
}

// LoadScenario replaces the whole game state with a snapshot. Seated
// actors keep their ids; their poses come from the scenario's actor state
// matched by role.
func (s *State) LoadScenario(scenario messages.Scenario) error {
	if s.Done() {
		return ErrGameOver
	}
	s.worldMap = scenario.Map
	s.props = append([]messages.Prop(nil), scenario.PropUpdate.Props...)
	s.turn = scenario.TurnState
	s.instructions = append([]messages.ObjectiveMessage(nil), scenario.Objectives...)
	for _, st := range scenario.ActorState.Actors {
		for _, a := range s.actors {
			if !a.Left && a.Role == st.Role {
				a.Location = st.Location
				a.Rotation = st.Rotation
			}
		}
	}
	// The snapshot's deadline is historical and usually already expired;
	// keeping it would roll the turn over on the next tick. The loaded
	// seat gets a fresh clock instead.
	if s.phase == PhaseActive {
		s.turn.TurnEnd = time.Now().Add(TurnDuration)
	}
	for id := range s.sync {
		s.RequestStateSync(id)
	}
	return nil
}
