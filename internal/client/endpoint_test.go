package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/EvLab-MIT/cb2/internal/driver"
	"github.com/EvLab-MIT/cb2/internal/events"
	"github.com/EvLab-MIT/cb2/internal/messages"
	"github.com/EvLab-MIT/cb2/internal/platform/logger"
	"github.com/EvLab-MIT/cb2/internal/state"
)

// singleGameRegistry serves one driver under one name, standing in for
// the coordinator.
type singleGameRegistry struct {
	name string
	d    *driver.Driver
}

func (r *singleGameRegistry) StateMachineDriver(gameName string) (*driver.Driver, error) {
	if gameName != r.name {
		return nil, fmt.Errorf("unknown game %s", gameName)
	}
	return r.d, nil
}

func (r *singleGameRegistry) GameExists(gameName string) bool {
	return gameName == r.name
}

func newTestTable(t *testing.T) (*singleGameRegistry, int, int, context.CancelFunc) {
	t.Helper()
	sm := state.New("sock-game", messages.MapUpdate{Rows: 5, Cols: 5}, nil, events.NewLog(nil), logger.NewLogger())
	d := driver.New(sm, logger.NewLogger())
	leaderID, err := d.CreateActor(messages.RoleLeader)
	if err != nil {
		t.Fatalf("Failed to seat leader: %v", err)
	}
	followerID, err := d.CreateActor(messages.RoleFollower)
	if err != nil {
		t.Fatalf("Failed to seat follower: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	return &singleGameRegistry{name: "sock-game", d: d}, leaderID, followerID, cancel
}

func TestLocalSocketRoundTrip(t *testing.T) {
	registry, leaderID, followerID, cancel := newTestTable(t)
	defer cancel()

	leader := NewLocalSocket(registry, "sock-game", leaderID)
	follower := NewLocalSocket(registry, "sock-game", followerID)

	if err := leader.Send(messages.ObjectiveToServer(messages.ObjectiveMessage{Text: "walk to the lake"})); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	// The follower sees its snapshot burst, then the instruction.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		msg, err := follower.Receive(100 * time.Millisecond)
		if errors.Is(err, ErrNoMessages) {
			continue
		}
		if err != nil {
			t.Fatalf("Receive failed: %v", err)
		}
		if msg.Type == messages.FromServerTypeObjectives {
			for _, obj := range msg.Objectives {
				if obj.Text == "walk to the lake" {
					return
				}
			}
		}
	}
	t.Fatalf("Instruction never arrived at the follower socket")
}

func TestLocalSocketReceiveTimesOutWithoutBlocking(t *testing.T) {
	registry, leaderID, _, cancel := newTestTable(t)
	defer cancel()

	socket := NewLocalSocket(registry, "sock-game", leaderID)

	// Drain everything pending, then expect a clean timeout.
	for {
		_, err := socket.Receive(50 * time.Millisecond)
		if errors.Is(err, ErrNoMessages) {
			break
		}
		if err != nil {
			t.Fatalf("Receive failed: %v", err)
		}
	}
	start := time.Now()
	_, err := socket.Receive(50 * time.Millisecond)
	if !errors.Is(err, ErrNoMessages) {
		t.Errorf("Expected ErrNoMessages on quiet socket, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Receive blocked for %v, expected roughly the timeout", elapsed)
	}
}

func TestEndpointInitializeAndStep(t *testing.T) {
	registry, leaderID, _, cancel := newTestTable(t)
	defer cancel()

	endpoint := NewGameEndpoint(NewLocalSocket(registry, "sock-game", leaderID), messages.RoleLeader)

	if _, err := endpoint.InitialState(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized before Initialize, got %v", err)
	}
	if err := endpoint.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	initial, err := endpoint.InitialState()
	if err != nil {
		t.Fatalf("InitialState failed: %v", err)
	}
	if initial.Map.Rows != 5 {
		t.Errorf("Expected the initial view to carry the map, got %d rows", initial.Map.Rows)
	}
	if initial.TurnState.Turn != messages.RoleLeader {
		t.Errorf("Expected the leader to hold the opening turn")
	}
	if endpoint.Over() {
		t.Errorf("Fresh game reported as over")
	}

	view, err := endpoint.Step(messages.ObjectiveToServer(messages.ObjectiveMessage{Text: "first"}))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if len(view.Instructions) != 1 || view.Instructions[0].Text != "first" {
		t.Fatalf("Expected the stepped view to carry the instruction, got %+v", view.Instructions)
	}

	// A later step must not mutate the earlier returned view.
	if _, err := endpoint.Step(messages.ObjectiveToServer(messages.ObjectiveMessage{Text: "second"})); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if len(view.Instructions) != 1 {
		t.Errorf("Returned view mutated by a later step")
	}
}

func TestEndpointObservesGameOver(t *testing.T) {
	registry, leaderID, followerID, cancel := newTestTable(t)
	defer cancel()

	leader := NewGameEndpoint(NewLocalSocket(registry, "sock-game", leaderID), messages.RoleLeader)
	follower := NewGameEndpoint(NewLocalSocket(registry, "sock-game", followerID), messages.RoleFollower)
	if err := leader.Initialize(); err != nil {
		t.Fatalf("Leader initialize failed: %v", err)
	}
	if err := follower.Initialize(); err != nil {
		t.Fatalf("Follower initialize failed: %v", err)
	}

	// Burn through the whole game by passing the turn back and forth.
	endpoints := []*GameEndpoint{leader, follower}
	deadline := time.Now().Add(10 * time.Second)
	for i := 0; !leader.Over() && time.Now().Before(deadline); i++ {
		if _, err := endpoints[i%2].Step(messages.TurnCompleteToServer()); err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
		if _, err := leader.Poll(); err != nil {
			t.Fatalf("Poll failed: %v", err)
		}
	}
	if !leader.Over() {
		t.Errorf("Endpoint never observed the game ending")
	}
}
