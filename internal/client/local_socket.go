package client

import (
	"fmt"
	"runtime"
	"time"

	"github.com/EvLab-MIT/cb2/internal/messages"
)

// LocalSocket delivers messages to a co-located driver with no network
// in between. Send hands the message straight to the driver's inbound
// queue and yields so the driver goroutine gets a chance to run.
type LocalSocket struct {
	registry ReceivedRegistry
	gameName string
	actorID  int
	received []*messages.MessageFromServer
	closed   bool
}

// ReceivedRegistry is DriverRegistry; aliased so the constructor reads
// naturally at call sites that pass the coordinator.
type ReceivedRegistry = DriverRegistry

// NewLocalSocket binds a socket to (game, actor) via the registry.
func NewLocalSocket(registry DriverRegistry, gameName string, actorID int) *LocalSocket {
	return &LocalSocket{
		registry: registry,
		gameName: gameName,
		actorID:  actorID,
	}
}

// Send enqueues one message on the driver. Never blocks.
func (s *LocalSocket) Send(message *messages.MessageToServer) error {
	if s.closed {
		return fmt.Errorf("socket closed: %w", ErrNoMessages)
	}
	d, err := s.registry.StateMachineDriver(s.gameName)
	if err != nil {
		return err
	}
	d.DrainMessages(s.actorID, []*messages.MessageToServer{message})
	// Give the driver goroutine a chance to run.
	runtime.Gosched()
	return nil
}

// Receive polls the driver's outbound queue until a message is available
// or the timeout elapses. Timing out yields ErrNoMessages, an expected
// outcome rather than a failure.
func (s *LocalSocket) Receive(timeout time.Duration) (*messages.MessageFromServer, error) {
	if len(s.received) > 0 {
		msg := s.received[0]
		s.received = s.received[1:]
		return msg, nil
	}
	deadline := time.Now().Add(timeout)
	for {
		runtime.Gosched()
		d, err := s.registry.StateMachineDriver(s.gameName)
		if err != nil {
			return nil, err
		}
		d.FillMessages(s.actorID, &s.received)
		if len(s.received) > 0 {
			msg := s.received[0]
			s.received = s.received[1:]
			return msg, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrNoMessages
		}
		time.Sleep(time.Millisecond)
	}
}

// Connected reports whether the game still exists in the registry.
func (s *LocalSocket) Connected() bool {
	return !s.closed && s.registry.GameExists(s.gameName)
}

// Close stops further sends. The driver keeps running; the game only
// ends through its own terminal state or coordinator cleanup.
func (s *LocalSocket) Close() error {
	s.closed = true
	return nil
}
