// Package scenario rebuilds game snapshots from the persisted event log.
// A scenario is a pure fold over the ordered event prefix of a game: the
// same prefix always yields the same snapshot, with no clock or
// randomness involved.
package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/EvLab-MIT/cb2/internal/client"
	"github.com/EvLab-MIT/cb2/internal/events"
	"github.com/EvLab-MIT/cb2/internal/infra/storage"
	"github.com/EvLab-MIT/cb2/internal/messages"
)

// ErrEventNotFound is returned when the anchor event id is absent from
// the repository.
var ErrEventNotFound = errors.New("event not found")

// ReconstructFromEvent folds the game's event prefix up to and including
// the given event into a loadable snapshot.
func ReconstructFromEvent(ctx context.Context, repo storage.EventRepository, eventID string) (messages.Scenario, error) {
	anchor, err := repo.Get(ctx, eventID)
	if err != nil {
		return messages.Scenario{}, fmt.Errorf("failed to look up event %s: %w", eventID, err)
	}
	if anchor == nil {
		return messages.Scenario{}, fmt.Errorf("event %s: %w", eventID, ErrEventNotFound)
	}
	records, err := repo.ListUpTo(ctx, anchor.GameID, eventID)
	if err != nil {
		return messages.Scenario{}, fmt.Errorf("failed to list events for game %s: %w", anchor.GameID, err)
	}
	return Fold(records)
}

// Fold replays an ordered record sequence into a snapshot. Records whose
// payloads fail to decode abort the fold; a snapshot built on a skipped
// record would silently diverge from the logged game.
func Fold(records []events.Record) (messages.Scenario, error) {
	var sc messages.Scenario
	sc.ActorState.PlayerID = -1
	for _, rec := range records {
		if err := foldRecord(&sc, rec); err != nil {
			return messages.Scenario{}, fmt.Errorf("event %s (%s): %w", rec.ID, rec.Type, err)
		}
	}
	return sc, nil
}

func foldRecord(sc *messages.Scenario, rec events.Record) error {
	switch rec.Type {
	case events.TypeMapUpdate:
		return json.Unmarshal(rec.Payload, &sc.Map)
	case events.TypePropUpdate:
		return json.Unmarshal(rec.Payload, &sc.PropUpdate)
	case events.TypeInitialState:
		return json.Unmarshal(rec.Payload, &sc.ActorState)
	case events.TypeTurnState, events.TypeStartOfTurn:
		return json.Unmarshal(rec.Payload, &sc.TurnState)
	case events.TypeAction:
		var action messages.Action
		if err := json.Unmarshal(rec.Payload, &action); err != nil {
			return err
		}
		applyAction(sc, action)
		return nil
	case events.TypeCardSelect:
		var prop messages.Prop
		if err := json.Unmarshal(rec.Payload, &prop); err != nil {
			return err
		}
		replaceProp(sc, prop)
		return nil
	case events.TypeCardSet:
		var collected messages.PropUpdate
		if err := json.Unmarshal(rec.Payload, &collected); err != nil {
			return err
		}
		// A scored set leaves the board; the score bump only shows up in
		// later turn-state records, so apply it here too.
		removeProps(sc, collected.Props)
		sc.TurnState.Score++
		sc.TurnState.SetsCollected++
		return nil
	case events.TypeInstructionSent:
		var obj messages.ObjectiveMessage
		if err := json.Unmarshal(rec.Payload, &obj); err != nil {
			return err
		}
		sc.Objectives = append(sc.Objectives, obj)
		return nil
	case events.TypeInstructionDone, events.TypeInstructionCancelled:
		var obj messages.ObjectiveMessage
		if err := json.Unmarshal(rec.Payload, &obj); err != nil {
			return err
		}
		for i := range sc.Objectives {
			if sc.Objectives[i].UUID == obj.UUID {
				sc.Objectives[i] = obj
			}
		}
		return nil
	case events.TypeTriggerFired:
		var report messages.TriggerReport
		if err := json.Unmarshal(rec.Payload, &report); err != nil {
			return err
		}
		sc.TurnState.Score = report.Score
		return nil
	case events.TypeLiveFeedback:
		// Transient signal; not part of reloadable state.
		return nil
	default:
		// Unknown record types are forward-compatibility noise, not errors.
		return nil
	}
}

func applyAction(sc *messages.Scenario, action messages.Action) {
	for i := range sc.ActorState.Actors {
		a := &sc.ActorState.Actors[i]
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

func replaceProp(sc *messages.Scenario, prop messages.Prop) {
	for i := range sc.PropUpdate.Props {
		if sc.PropUpdate.Props[i].ID == prop.ID {
			sc.PropUpdate.Props[i] = prop
			return
		}
	}
}

func removeProps(sc *messages.Scenario, collected []messages.Prop) {
	gone := make(map[int]bool, len(collected))
	for _, p := range collected {
		gone[p.ID] = true
	}
	kept := sc.PropUpdate.Props[:0]
	for _, p := range sc.PropUpdate.Props {
		if !gone[p.ID] {
			kept = append(kept, p)
		}
	}
	sc.PropUpdate.Props = kept
}

// FromGameState converts a client-side view to a loadable snapshot.
func FromGameState(state client.GameState) messages.Scenario {
	return messages.Scenario{
		Map:        state.Map,
		PropUpdate: messages.PropUpdate{Props: append([]messages.Prop(nil), state.Props...)},
		TurnState:  state.TurnState,
		Objectives: append([]messages.ObjectiveMessage(nil), state.Instructions...),
		ActorState: state.Actors,
	}
}

// ToGameState converts a snapshot to the client-side view shape.
func ToGameState(sc messages.Scenario) client.GameState {
	return client.GameState{
		Map:          sc.Map,
		Props:        append([]messages.Prop(nil), sc.PropUpdate.Props...),
		TurnState:    sc.TurnState,
		Instructions: append([]messages.ObjectiveMessage(nil), sc.Objectives...),
		Actors:       sc.ActorState,
	}
}
