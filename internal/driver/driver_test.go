package driver

import (
	"context"
	"testing"
	"time"

	"github.com/EvLab-MIT/cb2/internal/events"
	"github.com/EvLab-MIT/cb2/internal/messages"
	"github.com/EvLab-MIT/cb2/internal/platform/logger"
	"github.com/EvLab-MIT/cb2/internal/state"
)

func newTestDriver(t *testing.T) (*Driver, int, int) {
	t.Helper()
	sm := state.New("drv-game", messages.MapUpdate{Rows: 5, Cols: 5}, nil, events.NewLog(nil), logger.NewLogger())
	d := New(sm, logger.NewLogger())
	leaderID, err := d.CreateActor(messages.RoleLeader)
	if err != nil {
		t.Fatalf("Failed to seat leader: %v", err)
	}
	followerID, err := d.CreateActor(messages.RoleFollower)
	if err != nil {
		t.Fatalf("Failed to seat follower: %v", err)
	}
	return d, leaderID, followerID
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, desc string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", desc)
}

func TestDriverProcessesValidMessages(t *testing.T) {
	d, leaderID, followerID := newTestDriver(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.DrainMessages(leaderID, []*messages.MessageToServer{
		messages.ObjectiveToServer(messages.ObjectiveMessage{Text: "move two steps forward"}),
	})

	var received []*messages.MessageFromServer
	waitFor(t, time.Second, func() bool {
		d.FillMessages(followerID, &received)
		for _, msg := range received {
			if msg.Type == messages.FromServerTypeObjectives {
				for _, obj := range msg.Objectives {
					if obj.Text == "move two steps forward" {
						return true
					}
				}
			}
		}
		return false
	}, "instruction to reach the follower")
}

func TestDriverDropsMalformedEnvelopes(t *testing.T) {
	d, leaderID, followerID := newTestDriver(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	// Tag/payload mismatch, then a valid message. The driver must drop the
	// first and still process the second.
	mismatched := &messages.MessageToServer{
		Type:      messages.ToServerTypeActions,
		Objective: &messages.ObjectiveMessage{Text: "smuggled"},
	}
	d.DrainMessages(leaderID, []*messages.MessageToServer{
		mismatched,
		messages.ObjectiveToServer(messages.ObjectiveMessage{Text: "legitimate order"}),
	})

	var received []*messages.MessageFromServer
	waitFor(t, time.Second, func() bool {
		d.FillMessages(followerID, &received)
		for _, msg := range received {
			if msg.Type == messages.FromServerTypeObjectives {
				for _, obj := range msg.Objectives {
					if obj.Text == "smuggled" {
						t.Fatalf("Malformed envelope was interpreted instead of dropped")
					}
					if obj.Text == "legitimate order" {
						return true
					}
				}
			}
		}
		return false
	}, "valid instruction after a malformed one")
}

func TestDriverExitsWhenGameEnds(t *testing.T) {
	d, leaderID, followerID := newTestDriver(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	if err := d.LeaveActor(leaderID); err != nil {
		t.Fatalf("Failed to unseat leader: %v", err)
	}
	if err := d.LeaveActor(followerID); err != nil {
		t.Fatalf("Failed to unseat follower: %v", err)
	}

	waitFor(t, time.Second, d.Done, "driver loop to exit after game end")
	if !d.StateDone() {
		t.Errorf("Expected terminal state machine when the driver exits")
	}
}

func TestDriverExitsOnContextCancel(t *testing.T) {
	d, _, _ := newTestDriver(t)
	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	cancel()

	waitFor(t, time.Second, d.Done, "driver loop to exit on cancel")
}

func TestFillMessagesNeverBlocksAndPreservesOrder(t *testing.T) {
	d, leaderID, _ := newTestDriver(t)

	// Not running the loop: fill must return immediately with nothing.
	var out []*messages.MessageFromServer
	if d.FillMessages(leaderID, &out) {
		t.Errorf("Expected no messages before the loop runs")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.DrainMessages(leaderID, []*messages.MessageToServer{
		messages.ObjectiveToServer(messages.ObjectiveMessage{Text: "first"}),
		messages.ObjectiveToServer(messages.ObjectiveMessage{Text: "second"}),
	})

	waitFor(t, time.Second, func() bool {
		d.FillMessages(leaderID, &out)
		for _, msg := range out {
			if msg.Type == messages.FromServerTypeObjectives && len(msg.Objectives) == 2 {
				return msg.Objectives[0].Text == "first" && msg.Objectives[1].Text == "second"
			}
		}
		return false
	}, "both instructions in send order")
}
