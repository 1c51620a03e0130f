// Package eval replays logged instructions against an automated
// follower and scores the outcome against what the original human
// follower achieved.
package eval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/EvLab-MIT/cb2/internal/client"
	"github.com/EvLab-MIT/cb2/internal/coordinator"
	"github.com/EvLab-MIT/cb2/internal/events"
	"github.com/EvLab-MIT/cb2/internal/infra/storage"
	"github.com/EvLab-MIT/cb2/internal/messages"
	"github.com/EvLab-MIT/cb2/internal/platform/logger"
	"github.com/EvLab-MIT/cb2/internal/scenario"
)

// maxAgentActions caps how many envelopes an agent may send per
// instruction before the attempt is scored as a failure.
const maxAgentActions = 50

// Agent decides the follower's next envelope from the current view.
// Returning a nil message ends the attempt.
type Agent interface {
	Act(state client.GameState) (*messages.MessageToServer, error)
}

// InstructionResult is the outcome of replaying one instruction.
type InstructionResult struct {
	InstructionEventID string `json:"instruction_event_id"`
	InstructionUUID    string `json:"instruction_uuid"`
	GameID             string `json:"game_id"`
	Passed             bool   `json:"passed"`
	Skipped            bool   `json:"skipped"`
	SkipReason         string `json:"skip_reason,omitempty"`
	AgentActions       int    `json:"agent_actions"`
}

// Results aggregates a full evaluation run.
type Results struct {
	Total        int                 `json:"total"`
	Passed       int                 `json:"passed"`
	Failed       int                 `json:"failed"`
	Skipped      int                 `json:"skipped"`
	Instructions []InstructionResult `json:"instructions"`
}

// Runner drives follower evaluations over a persisted event log.
type Runner struct {
	repo   storage.EventRepository
	coord  *coordinator.Coordinator
	logger *logger.Logger
}

func NewRunner(repo storage.EventRepository, coord *coordinator.Coordinator, lg *logger.Logger) *Runner {
	return &Runner{repo: repo, coord: coord, logger: lg}
}

// RunFollowerEval replays every logged instruction against the agent.
// Instructions without a usable baseline are skipped and logged, never
// fatal to the run.
func (r *Runner) RunFollowerEval(ctx context.Context, agent Agent) (*Results, error) {
	instructions, err := r.repo.ListByType(ctx, events.TypeInstructionSent)
	if err != nil {
		return nil, fmt.Errorf("failed to list instructions: %w", err)
	}
	results := &Results{}
	for _, rec := range instructions {
		result := r.EvalInstruction(ctx, agent, rec)
		results.Total++
		switch {
		case result.Skipped:
			results.Skipped++
			r.logger.Warn("eval: skipping instruction " + rec.ID + ": " + result.SkipReason)
		case result.Passed:
			results.Passed++
		default:
			results.Failed++
		}
		results.Instructions = append(results.Instructions, result)
	}
	return results, nil
}

// EvalInstruction replays one instruction. The replay starts from the
// state just before the human follower's first action and is scored by
// comparing card selections against the state just after their last.
func (r *Runner) EvalInstruction(ctx context.Context, agent Agent, instruction events.Record) InstructionResult {
	result := InstructionResult{InstructionEventID: instruction.ID, GameID: instruction.GameID}

	var obj messages.ObjectiveMessage
	if err := json.Unmarshal(instruction.Payload, &obj); err != nil {
		return skip(result, "undecodable instruction payload: "+err.Error())
	}
	result.InstructionUUID = obj.UUID

	firstAction, err := r.repo.FirstChildOfType(ctx, instruction.ID, events.TypeAction)
	if err != nil || firstAction == nil {
		return skip(result, "no follower actions recorded for instruction")
	}
	startEvent, err := r.repo.Before(ctx, firstAction.ID)
	if err != nil || startEvent == nil {
		return skip(result, "no event precedes the first follower action")
	}
	lastAction, err := r.repo.LastChildOfType(ctx, instruction.ID, events.TypeAction)
	if err != nil || lastAction == nil {
		return skip(result, "no final follower action recorded")
	}
	baselineEvent, err := r.repo.After(ctx, lastAction.ID)
	if err != nil || baselineEvent == nil {
		return skip(result, "no event follows the last follower action")
	}
	baseline, err := scenario.ReconstructFromEvent(ctx, r.repo, baselineEvent.ID)
	if err != nil {
		return skip(result, "baseline reconstruction failed: "+err.Error())
	}

	gameName, err := r.coord.CreateGameFromEventID(ctx, startEvent.ID)
	if err != nil {
		return skip(result, "replay game creation failed: "+err.Error())
	}
	defer r.coord.CleanupGame(gameName)

	final, actions, err := r.runAgent(gameName, agent, obj.UUID)
	if err != nil {
		return skip(result, "agent run failed: "+err.Error())
	}
	result.AgentActions = actions
	result.Passed = CompareCardSelections(baseline, scenario.FromGameState(final))
	return result
}

func (r *Runner) runAgent(gameName string, agent Agent, instructionUUID string) (client.GameState, int, error) {
	d, err := r.coord.StateMachineDriver(gameName)
	if err != nil {
		return client.GameState{}, 0, err
	}
	snapshot := d.ScenarioView()

	endpoint, err := r.coord.JoinGameWithRole(gameName, messages.RoleFollower)
	if err != nil {
		return client.GameState{}, 0, err
	}
	defer endpoint.Close()
	// A scripted leader fills the second seat so the game activates.
	if _, err := r.coord.JoinGameWithRole(gameName, messages.RoleLeader); err != nil {
		return client.GameState{}, 0, err
	}
	// Activation resets the turn clock to a fresh leader turn; reload the
	// snapshot so the follower picks up exactly where the log left off.
	if err := d.LoadScenario(snapshot); err != nil {
		return client.GameState{}, 0, err
	}
	if err := endpoint.Initialize(); err != nil {
		return client.GameState{}, 0, err
	}

	view, err := endpoint.InitialState()
	if err != nil {
		return client.GameState{}, 0, err
	}
	sent := 0
	for sent < maxAgentActions && !endpoint.Over() && !instructionResolved(view, instructionUUID) {
		msg, err := agent.Act(view)
		if err != nil {
			return client.GameState{}, sent, err
		}
		if msg == nil {
			break
		}
		view, err = endpoint.Step(msg)
		if err != nil {
			return client.GameState{}, sent, err
		}
		sent++
	}
	return view, sent, nil
}

func instructionResolved(view client.GameState, instructionUUID string) bool {
	for _, obj := range view.Instructions {
		if obj.UUID == instructionUUID {
			return obj.Completed || obj.Cancelled
		}
	}
	return false
}

func skip(result InstructionResult, reason string) InstructionResult {
	result.Skipped = true
	result.SkipReason = reason
	return result
}

// CompareCardSelections reports whether two snapshots agree on exactly
// which cards are selected. This is the pass criterion for follower
// evaluation: the pattern matters, the path taken does not.
func CompareCardSelections(a, b messages.Scenario) bool {
	return selectionsEqual(selectedCardIDs(a), selectedCardIDs(b))
}

func selectedCardIDs(sc messages.Scenario) map[int]bool {
	ids := make(map[int]bool)
	for _, p := range sc.PropUpdate.Props {
		if p.PropType == messages.PropTypeCard && p.Card != nil && p.Card.Selected {
			ids[p.ID] = true
		}
	}
	return ids
}

func selectionsEqual(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}

// ErrNoInstructions is returned by callers that require a non-empty run.
var ErrNoInstructions = errors.New("no instructions in event log")
