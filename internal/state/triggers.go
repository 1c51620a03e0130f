package state

import (
	"github.com/EvLab-MIT/cb2/internal/events"
	"github.com/EvLab-MIT/cb2/internal/messages"
)

// evaluateTriggers walks registered triggers in registration order and
// fires the first one whose condition now holds. A trigger fires exactly
// once for the lifetime of the game.
func (s *State) evaluateTriggers(actor *Actor) {
	for _, trigger := range s.triggers {
		if s.fired[trigger.Name] {
			continue
		}
		if !s.triggerHolds(trigger) {
			continue
		}
		s.fired[trigger.Name] = true
		s.turn.Score += trigger.ScoreDelta
		s.markTurnStale()

		report := messages.TriggerReport{
			Type:      trigger.Type,
			Name:      trigger.Name,
			ActorID:   actor.ID,
			Location:  actor.Location,
			Objective: trigger.Objective,
			Score:     s.turn.Score,
		}
		s.record(events.TypeTriggerFired, actor.ID, actor.Role.String(), report)
		for id, a := range s.actors {
			if !a.Left {
				s.sync[id].reports = append(s.sync[id].reports, report)
			}
		}
		if trigger.EndsGame {
			s.endGame()
		}
		return
	}
}

func (s *State) triggerHolds(trigger messages.Trigger) bool {
	switch trigger.Type {
	case messages.TriggerTypeLocationReached:
		for _, a := range s.actors {
			if a.Left {
				continue
			}
			if trigger.ActorID >= 0 && a.ID != trigger.ActorID {
				continue
			}
			if a.Location.Equal(trigger.Location) {
				return true
			}
		}
		return false
	case messages.TriggerTypeObjectiveCompleted:
		for _, obj := range s.instructions {
			if obj.UUID == trigger.Objective && obj.Completed {
				return true
			}
		}
		return false
	case messages.TriggerTypeCardSetCompleted:
		return s.allCardsSelected() || s.turn.SetsCollected > 0
	default:
		return false
	}
}

// allCardsSelected reports whether every card remaining on the board is
// selected. Used by card-set triggers registered over scripted scenarios
// where the target set is exactly the cards placed.
func (s *State) allCardsSelected() bool {
	sawCard := false
	for i := range s.props {
		p := &s.props[i]
		if p.PropType != messages.PropTypeCard || p.Card == nil {
			continue
		}
		sawCard = true
		if !p.Card.Selected {
			return false
		}
	}
	return sawCard
}
