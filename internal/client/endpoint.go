package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/EvLab-MIT/cb2/internal/messages"
)

// ErrNotInitialized is returned by state accessors before Initialize
// succeeds.
var ErrNotInitialized = errors.New("endpoint not initialized")

// initializeTimeout bounds how long Initialize waits for the first full
// snapshot batch.
const initializeTimeout = 10 * time.Second

// stepQuiescence is how long Step keeps draining after the last message
// before declaring the turn view settled.
const stepQuiescence = 50 * time.Millisecond

// GameEndpoint is the per-player game handle: it folds incoming server
// messages into a GameState and exposes a synchronous initial_state /
// step / over interface over any Socket.
type GameEndpoint struct {
	socket      Socket
	role        messages.Role
	state       GameState
	initialized bool
}

// NewGameEndpoint wraps a connected socket for a player with the given
// role.
func NewGameEndpoint(socket Socket, role messages.Role) *GameEndpoint {
	return &GameEndpoint{socket: socket, role: role}
}

// Role returns the player's role in this game.
func (e *GameEndpoint) Role() messages.Role {
	return e.role
}

// Initialize drains the opening snapshot burst until the view has a map,
// a turn state and an actor roster. Must be called before InitialState
// or Step.
func (e *GameEndpoint) Initialize() error {
	if e.initialized {
		return nil
	}
	deadline := time.Now().Add(initializeTimeout)
	sawMap, sawTurn, sawActors := false, false, false
	for !(sawMap && sawTurn && sawActors) {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("initial snapshot incomplete: %w", ErrNoMessages)
		}
		msg, err := e.socket.Receive(remaining)
		if err != nil {
			if errors.Is(err, ErrNoMessages) {
				return fmt.Errorf("initial snapshot incomplete: %w", err)
			}
			return err
		}
		switch msg.Type {
		case messages.FromServerTypeMapUpdate:
			sawMap = true
		case messages.FromServerTypeTurnState:
			sawTurn = true
		case messages.FromServerTypeStateSync:
			sawActors = true
		}
		e.state.fold(msg)
	}
	e.initialized = true
	return nil
}

// InitialState returns the view accumulated by Initialize.
func (e *GameEndpoint) InitialState() (GameState, error) {
	if !e.initialized {
		return GameState{}, ErrNotInitialized
	}
	return e.state.Clone(), nil
}

// Step sends one envelope and drains responses until the stream goes
// quiet, returning the updated view. The returned state is a copy; later
// steps do not mutate it.
func (e *GameEndpoint) Step(msg *messages.MessageToServer) (GameState, error) {
	if !e.initialized {
		return GameState{}, ErrNotInitialized
	}
	if err := e.socket.Send(msg); err != nil {
		return GameState{}, err
	}
	return e.drainSettled()
}

// Poll drains any pending messages without sending, returning the
// updated view. Used by the idle side of the table to observe the other
// player's moves.
func (e *GameEndpoint) Poll() (GameState, error) {
	if !e.initialized {
		return GameState{}, ErrNotInitialized
	}
	return e.drainSettled()
}

func (e *GameEndpoint) drainSettled() (GameState, error) {
	for {
		msg, err := e.socket.Receive(stepQuiescence)
		if err != nil {
			if errors.Is(err, ErrNoMessages) {
				return e.state.Clone(), nil
			}
			return GameState{}, err
		}
		e.state.fold(msg)
	}
}

// Over reports whether the game reached a terminal state, as seen from
// this client's view.
func (e *GameEndpoint) Over() bool {
	return e.state.TurnState.GameOver
}

// Connected reports whether the underlying socket still has a live game.
func (e *GameEndpoint) Connected() bool {
	return e.socket.Connected()
}

// Close releases the underlying socket.
func (e *GameEndpoint) Close() error {
	return e.socket.Close()
}
