// Package driver bridges a game's state machine to asynchronous message
// I/O. One driver goroutine per game pumps inbound envelopes into the
// state machine and state deltas out to per-actor queues, without ever
// blocking another game.
package driver

import (
	"context"
	"sync"
	"time"

	"github.com/EvLab-MIT/cb2/internal/messages"
	"github.com/EvLab-MIT/cb2/internal/platform/logger"
	"github.com/EvLab-MIT/cb2/internal/platform/metrics"
	"github.com/EvLab-MIT/cb2/internal/state"
)

// tickInterval bounds how long the loop sleeps when no messages are
// pending. Kept short so local sockets see near-immediate progress.
const tickInterval = 2 * time.Millisecond

// Driver owns one state machine and its per-actor message queues. The
// driver mutex guards the state machine as well as the queues: every
// touch of the wrapped State goes through it, so seat changes arriving
// from coordinator goroutines never race the run loop.
type Driver struct {
	mu       sync.Mutex
	sm       *state.State
	inbound  map[int][]*messages.MessageToServer
	outbound map[int][]*messages.MessageFromServer
	logger   *logger.Logger
	done     bool
}

// New wraps a state machine in a driver.
func New(sm *state.State, lg *logger.Logger) *Driver {
	return &Driver{
		sm:       sm,
		inbound:  make(map[int][]*messages.MessageToServer),
		outbound: make(map[int][]*messages.MessageFromServer),
		logger:   lg,
	}
}

// CreateActor seats an actor with the given role. Serialized with the run
// loop, so concurrent joins on the last slot resolve first-writer-wins.
func (d *Driver) CreateActor(role messages.Role) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sm.CreateActor(role)
}

// LeaveActor unseats an actor.
func (d *Driver) LeaveActor(actorID int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sm.LeaveActor(actorID)
}

// PlayerIDs returns the ids of currently seated actors.
func (d *Driver) PlayerIDs() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sm.PlayerIDs()
}

// StateDone reports whether the state machine reached a terminal state.
func (d *Driver) StateDone() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sm.Done()
}

// GameID returns the wrapped game's name.
func (d *Driver) GameID() string {
	return d.sm.GameID()
}

// LoadScenario replaces the wrapped game's state with a snapshot.
func (d *Driver) LoadScenario(scenario messages.Scenario) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sm.LoadScenario(scenario)
}

// RegisterTrigger adds a trigger to the wrapped game.
func (d *Driver) RegisterTrigger(trigger messages.Trigger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sm.RegisterTrigger(trigger)
}

// ScenarioView snapshots the wrapped game.
func (d *Driver) ScenarioView() messages.Scenario {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sm.ScenarioView()
}

// DrainMessages appends inbound messages to an actor's queue. Never blocks.
func (d *Driver) DrainMessages(actorID int, msgs []*messages.MessageToServer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inbound[actorID] = append(d.inbound[actorID], msgs...)
}

// FillMessages moves newly produced outbound messages for an actor into
// the caller's buffer, oldest first. Never blocks. Returns false if there
// was nothing to deliver.
func (d *Driver) FillMessages(actorID int, out *[]*messages.MessageFromServer) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	queued := d.outbound[actorID]
	if len(queued) == 0 {
		return false
	}
	*out = append(*out, queued...)
	d.outbound[actorID] = nil
	return true
}

// Done reports whether the run loop has exited. The coordinator uses this
// together with StateDone to decide cleanup eligibility.
func (d *Driver) Done() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

// Run pumps messages until the game is done or the context is cancelled.
// Each cycle pops at most one pending message per actor (fairness),
// applies it, flushes resulting state deltas, then yields.
func (d *Driver) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			// An invariant violation is fatal to this game only.
			d.mu.Lock()
			d.sm.MarkFailed("driver panic")
			d.mu.Unlock()
			d.logger.Error("driver for game " + d.sm.GameID() + " panicked; game abandoned")
		}
		d.mu.Lock()
		d.done = true
		d.mu.Unlock()
		metrics.RecordGameEnded()
	}()
	metrics.RecordGameStarted()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		d.mu.Lock()
		if d.sm.Done() {
			d.flushOutboundLocked()
			d.mu.Unlock()
			return
		}
		d.sm.Tick(time.Now())
		processed := d.processOnePerActorLocked()
		d.flushOutboundLocked()
		d.mu.Unlock()

		if !processed {
			time.Sleep(tickInterval)
		}
	}
}

// processOnePerActorLocked pops and applies one message per actor.
// Malformed messages are logged and dropped; they never stop the loop.
func (d *Driver) processOnePerActorLocked() bool {
	processed := false
	for actorID, queue := range d.inbound {
		if len(queue) == 0 {
			continue
		}
		msg := queue[0]
		d.inbound[actorID] = queue[1:]
		processed = true

		if err := msg.Validate(); err != nil {
			d.logger.Warn("game " + d.sm.GameID() + ": dropping inconsistent envelope: " + err.Error())
			continue
		}
		if err := d.apply(actorID, msg); err != nil {
			d.logger.Warn("game " + d.sm.GameID() + ": message rejected: " + err.Error())
		}
		metrics.RecordMessageIn()
	}
	return processed
}

func (d *Driver) apply(actorID int, msg *messages.MessageToServer) error {
	switch msg.Type {
	case messages.ToServerTypeActions:
		for _, action := range msg.Actions {
			if err := d.sm.ApplyAction(actorID, action); err != nil {
				return err
			}
		}
		return nil
	case messages.ToServerTypeTurnComplete:
		return d.sm.EndTurn(actorID)
	case messages.ToServerTypeObjective:
		return d.sm.SendInstruction(actorID, *msg.Objective)
	case messages.ToServerTypeObjectiveCompleted:
		return d.sm.CompleteInstruction(actorID, msg.ObjectiveComplete.UUID)
	case messages.ToServerTypeStateSyncRequest:
		d.sm.RequestStateSync(actorID)
		return nil
	case messages.ToServerTypeLiveFeedback:
		return d.sm.SendLiveFeedback(actorID, *msg.LiveFeedback)
	case messages.ToServerTypeScenarioRequest:
		return d.applyScenarioRequest(actorID, msg.ScenarioRequest)
	case messages.ToServerTypePong, messages.ToServerTypeTutorialRequest:
		// Latency bookkeeping and tutorial content live outside the
		// session layer; accepted and ignored here.
		return nil
	default:
		d.logger.Warn("unhandled message type; dropping")
		return nil
	}
}

func (d *Driver) applyScenarioRequest(actorID int, req *messages.ScenarioRequest) error {
	switch req.Type {
	case messages.ScenarioRequestTypeLoadScenario, messages.ScenarioRequestTypeOpenScenarioWorld:
		if req.ScenarioData != nil {
			if err := d.sm.LoadScenario(*req.ScenarioData); err != nil {
				return err
			}
		}
		d.outbound[actorID] = append(d.outbound[actorID],
			messages.ScenarioResponseFromServer(messages.ScenarioResponse{Type: messages.ScenarioResponseTypeLoaded}))
		return nil
	case messages.ScenarioRequestTypeRegisterTrigger:
		if req.Trigger != nil {
			d.sm.RegisterTrigger(*req.Trigger)
		}
		return nil
	case messages.ScenarioRequestTypeEndScenario:
		return d.sm.LeaveActor(actorID)
	default:
		return nil
	}
}

func (d *Driver) flushOutboundLocked() {
	for _, actorID := range d.sm.PlayerIDs() {
		msgs := d.sm.DrainOutbound(actorID)
		if len(msgs) == 0 {
			continue
		}
		d.outbound[actorID] = append(d.outbound[actorID], msgs...)
		for range msgs {
			metrics.RecordMessageOut()
		}
	}
}
