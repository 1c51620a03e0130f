// Package events provides the append-only event log for game sessions.
// Every action, instruction and turn change is recorded here; scenario
// reconstruction replays these records to rebuild historical state.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type defines the category of a game event.
type Type string

const (
	TypeMapUpdate            Type = "MAP_UPDATE"
	TypeInitialState         Type = "INITIAL_STATE"
	TypePropUpdate           Type = "PROP_UPDATE"
	TypeTurnState            Type = "TURN_STATE"
	TypeStartOfTurn          Type = "START_OF_TURN"
	TypeAction               Type = "ACTION"
	TypeCardSelect           Type = "CARD_SELECT"
	TypeCardSet              Type = "CARD_SET"
	TypeInstructionSent      Type = "INSTRUCTION_SENT"
	TypeInstructionActivated Type = "INSTRUCTION_ACTIVATED"
	TypeInstructionDone      Type = "INSTRUCTION_DONE"
	TypeInstructionCancelled Type = "INSTRUCTION_CANCELLED"
	TypeLiveFeedback         Type = "LIVE_FEEDBACK"
	TypeTriggerFired         Type = "TRIGGER_FIRED"
)

// Record is an immutable entry in a game's history. ParentEventID links
// responses to their cause: a follower ACTION points at the instruction
// event it serves.
type Record struct {
	ID            string          `json:"id"`
	GameID        string          `json:"game_id"`
	Type          Type            `json:"type"`
	ParentEventID string          `json:"parent_event_id,omitempty"`
	Time          time.Time       `json:"time"`
	ActorID       int             `json:"actor_id"`
	Role          string          `json:"role,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// NewRecordID generates a unique event identifier.
func NewRecordID() string {
	return uuid.NewString()
}

// Persister defines how a record is durably stored.
type Persister interface {
	Append(record Record) error
}

// Log is the in-memory append-only log for one game. Appends optionally
// write through to a Persister. The owning driver is the only writer;
// reconstruction only reads.
type Log struct {
	mu        sync.RWMutex
	records   []Record
	persister Persister
	writeErrs int
}

// NewLog creates a new event log with an optional persister.
func NewLog(persister Persister) *Log {
	return &Log{
		records:   make([]Record, 0),
		persister: persister,
	}
}

// Append adds a record to the log. Records are immutable once appended.
func (l *Log) Append(record Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record)

	if l.persister != nil {
		if err := l.persister.Append(record); err != nil {
			l.writeErrs++
		}
	}
}

// Replay returns a copy of the full ordered history.
func (l *Log) Replay() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records appended so far.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// WriteErrors returns how many persist attempts failed.
func (l *Log) WriteErrors() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.writeErrs
}
