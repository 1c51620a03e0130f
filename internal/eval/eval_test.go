package eval

import (
	"context"
	"testing"
	"time"

	"github.com/EvLab-MIT/cb2/internal/client"
	"github.com/EvLab-MIT/cb2/internal/coordinator"
	"github.com/EvLab-MIT/cb2/internal/events"
	"github.com/EvLab-MIT/cb2/internal/hexgrid"
	"github.com/EvLab-MIT/cb2/internal/infra/storage"
	"github.com/EvLab-MIT/cb2/internal/messages"
	"github.com/EvLab-MIT/cb2/internal/platform/logger"
	"github.com/EvLab-MIT/cb2/internal/state"
)

func cardScenario(selected ...int) messages.Scenario {
	chosen := make(map[int]bool)
	for _, id := range selected {
		chosen[id] = true
	}
	var props []messages.Prop
	for id := 1; id <= 3; id++ {
		props = append(props, messages.Prop{
			ID:       id,
			PropType: messages.PropTypeCard,
			Card:     &messages.CardConfig{Color: id, Shape: id, Count: id, Selected: chosen[id]},
		})
	}
	return messages.Scenario{PropUpdate: messages.PropUpdate{Props: props}}
}

func TestCompareCardSelections(t *testing.T) {
	cases := []struct {
		name string
		a, b messages.Scenario
		want bool
	}{
		{"both empty", cardScenario(), cardScenario(), true},
		{"same single card", cardScenario(2), cardScenario(2), true},
		{"different cards", cardScenario(1), cardScenario(2), false},
		{"subset", cardScenario(1, 2), cardScenario(1), false},
		{"same pair", cardScenario(1, 3), cardScenario(3, 1), true},
	}
	for _, tc := range cases {
		if got := CompareCardSelections(tc.a, tc.b); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestEvalSkipsInstructionWithoutActions(t *testing.T) {
	repo := storage.NewMemoryEventRepository()
	ctx := context.Background()

	// An instruction with no follower action children has no baseline.
	if err := repo.Append(ctx, events.Record{
		ID: "i1", GameID: "g1", Type: events.TypeInstructionSent,
		Time: time.Now(), ActorID: 0,
		Payload: []byte(`{"uuid":"u1","text":"do nothing"}`),
	}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	coord := coordinator.New(repo, nil, logger.NewLogger())
	defer coord.Shutdown()
	runner := NewRunner(repo, coord, logger.NewLogger())

	results, err := runner.RunFollowerEval(ctx, IdleFollower{})
	if err != nil {
		t.Fatalf("RunFollowerEval failed: %v", err)
	}
	if results.Total != 1 || results.Skipped != 1 {
		t.Errorf("Expected one skipped instruction, got %+v", results)
	}
	if results.Instructions[0].SkipReason == "" {
		t.Errorf("Expected a recorded skip reason")
	}
}

func TestEvalEmptyLog(t *testing.T) {
	repo := storage.NewMemoryEventRepository()
	coord := coordinator.New(repo, nil, logger.NewLogger())
	defer coord.Shutdown()
	runner := NewRunner(repo, coord, logger.NewLogger())

	results, err := runner.RunFollowerEval(context.Background(), IdleFollower{})
	if err != nil {
		t.Fatalf("RunFollowerEval failed: %v", err)
	}
	if results.Total != 0 {
		t.Errorf("Expected an empty run, got %+v", results)
	}
}

// cardSeeker walks straight onto a target cell once and then stops.
type cardSeeker struct {
	target hexgrid.HecsCoord
	moved  bool
}

func (a *cardSeeker) Act(view client.GameState) (*messages.MessageToServer, error) {
	if a.moved {
		return nil, nil
	}
	a.moved = true
	var me messages.ActorState
	for _, actor := range view.Actors.Actors {
		if actor.ActorID == view.Actors.PlayerID {
			me = actor
		}
	}
	return messages.ActionsToServer([]messages.Action{{
		ID:           view.Actors.PlayerID,
		ActionType:   messages.ActionTypeInstant,
		Displacement: a.target.Sub(me.Location),
	}}), nil
}

func TestEvalPassesWhenAgentMatchesTheHumanFollower(t *testing.T) {
	repo := storage.NewMemoryEventRepository()
	target := hexgrid.FromOffset(1, 1)
	cards := []messages.Prop{
		{ID: 1, PropType: messages.PropTypeCard, Location: target,
			Card: &messages.CardConfig{Color: 1, Shape: 1, Count: 1}},
		{ID: 2, PropType: messages.PropTypeCard, Location: hexgrid.FromOffset(3, 3),
			Card: &messages.CardConfig{Color: 2, Shape: 2, Count: 2}},
	}

	// Log a short game: the leader orders the follower onto the first
	// card and the follower obliges.
	sm := state.New("played-game", messages.MapUpdate{Rows: 8, Cols: 8}, cards,
		events.NewLog(repo.AsPersister()), logger.NewLogger())
	leaderID, err := sm.CreateActor(messages.RoleLeader)
	if err != nil {
		t.Fatalf("Failed to seat leader: %v", err)
	}
	followerID, err := sm.CreateActor(messages.RoleFollower)
	if err != nil {
		t.Fatalf("Failed to seat follower: %v", err)
	}
	if err := sm.SendInstruction(leaderID, messages.ObjectiveMessage{Text: "stand on the first card"}); err != nil {
		t.Fatalf("Failed to send instruction: %v", err)
	}
	if err := sm.EndTurn(leaderID); err != nil {
		t.Fatalf("Failed to end leader turn: %v", err)
	}
	if err := sm.ApplyAction(followerID, messages.Action{
		ID:           followerID,
		ActionType:   messages.ActionTypeInstant,
		Displacement: target,
	}); err != nil {
		t.Fatalf("Follower move rejected: %v", err)
	}
	uuid := sm.InstructionsView()[0].UUID
	if err := sm.CompleteInstruction(followerID, uuid); err != nil {
		t.Fatalf("Failed to complete instruction: %v", err)
	}

	coord := coordinator.New(repo, nil, logger.NewLogger())
	defer coord.Shutdown()
	runner := NewRunner(repo, coord, logger.NewLogger())

	results, err := runner.RunFollowerEval(context.Background(), &cardSeeker{target: target})
	if err != nil {
		t.Fatalf("RunFollowerEval failed: %v", err)
	}
	if results.Total != 1 || results.Passed != 1 {
		t.Fatalf("Expected one passing instruction, got %+v", results)
	}
	if results.Instructions[0].AgentActions == 0 {
		t.Errorf("Passing result recorded no agent actions")
	}
}

func TestScriptedFollowerStopsAtScriptEnd(t *testing.T) {
	agent := &ScriptedFollower{Script: []*messages.MessageToServer{
		messages.TurnCompleteToServer(),
	}}

	first, err := agent.Act(client.GameState{})
	if err != nil || first == nil {
		t.Fatalf("Expected the scripted envelope, got %v (%v)", first, err)
	}
	second, err := agent.Act(client.GameState{})
	if err != nil || second != nil {
		t.Errorf("Expected nil after the script ran out, got %v (%v)", second, err)
	}
}
