// Package storage provides the persistence layer for game event logs.
// The repository pattern keeps the domain packages free of SQL; they
// depend on the interfaces here only.
package storage

import (
	"context"

	"github.com/EvLab-MIT/cb2/internal/events"
)

// EventRepository defines the durable contract for the append-only event
// log. Records are written once by the owning driver and are read-only
// afterward; reconstruction only reads.
type EventRepository interface {
	// Append adds a record to the ledger.
	Append(ctx context.Context, record events.Record) error

	// Get retrieves one record by id.
	Get(ctx context.Context, eventID string) (*events.Record, error)

	// ListByGame retrieves a game's full history, ordered by time.
	ListByGame(ctx context.Context, gameID string) ([]events.Record, error)

	// ListUpTo retrieves a game's history up to and including the given
	// event, in insertion order. Used for scenario reconstruction.
	ListUpTo(ctx context.Context, gameID, eventID string) ([]events.Record, error)

	// FirstChildOfType finds the earliest record of the given type whose
	// parent is the given event, or nil if none exists.
	FirstChildOfType(ctx context.Context, parentEventID string, t events.Type) (*events.Record, error)

	// LastChildOfType finds the latest such record, or nil if none.
	LastChildOfType(ctx context.Context, parentEventID string, t events.Type) (*events.Record, error)

	// Before returns the record immediately preceding the given one
	// within the same game, or nil at the start of history.
	Before(ctx context.Context, eventID string) (*events.Record, error)

	// After returns the record immediately following the given one
	// within the same game, or nil at the end of history.
	After(ctx context.Context, eventID string) (*events.Record, error)

	// ListByType retrieves all records of one type across games.
	ListByType(ctx context.Context, t events.Type) ([]events.Record, error)
}
