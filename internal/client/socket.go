// Package client provides the client-facing game handle: a GameEndpoint
// layered over a Socket. The same endpoint code runs against an
// in-process game (LocalSocket) or a networked one (RemoteSocket).
package client

import (
	"errors"
	"time"

	"github.com/EvLab-MIT/cb2/internal/driver"
	"github.com/EvLab-MIT/cb2/internal/messages"
)

// ErrNoMessages is the expected empty-poll outcome of Receive: nothing
// arrived before the timeout. It is not a transport failure; check
// Connected to tell a quiet socket from a dead one.
var ErrNoMessages = errors.New("no messages available")

// Socket is the uniform delivery contract. Implementations preserve
// per-actor FIFO ordering: Receive never returns messages out of send
// order.
type Socket interface {
	Send(message *messages.MessageToServer) error
	Receive(timeout time.Duration) (*messages.MessageFromServer, error)
	Connected() bool
	Close() error
}

// DriverRegistry locates the driver for a named game. The coordinator
// implements it; LocalSocket depends on this slice of it only.
type DriverRegistry interface {
	StateMachineDriver(gameName string) (*driver.Driver, error)
	GameExists(gameName string) bool
}
