// Package state implements the per-game turn engine. A State applies
// actions, advances turns, evaluates triggers, tracks score and detects
// termination. It is mutated exclusively by its owning driver goroutine.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/EvLab-MIT/cb2/internal/events"
	"github.com/EvLab-MIT/cb2/internal/hexgrid"
	"github.com/EvLab-MIT/cb2/internal/messages"
	"github.com/EvLab-MIT/cb2/internal/platform/logger"
	"github.com/google/uuid"
)

// Phase is the lifecycle stage of a game.
type Phase int

const (
	PhaseWaitingForPlayers Phase = iota
	PhaseActive
	PhaseDone
)

var (
	// ErrGameFull is returned when a third actor tries to join.
	ErrGameFull = errors.New("game already has two actors")
	// ErrRoleOccupied is returned when the requested role slot is taken.
	ErrRoleOccupied = errors.New("role slot already occupied")
	// ErrWrongTurn is returned for actions outside the actor's turn.
	ErrWrongTurn = errors.New("not this actor's turn")
	// ErrGameOver is returned for mutations on a terminal game.
	ErrGameOver = errors.New("game is over")
	// ErrMalformedAction is returned for actions that fail validation.
	ErrMalformedAction = errors.New("malformed action")
	// ErrUnknownActor is returned when the actor id is not seated.
	ErrUnknownActor = errors.New("unknown actor")
	// ErrUnknownInstruction is returned for an unrecognized instruction uuid.
	ErrUnknownInstruction = errors.New("unknown instruction")
	// ErrInstructionResolved is returned on a second completion or
	// cancellation of the same instruction.
	ErrInstructionResolved = errors.New("instruction already resolved")
)

// Actor is a seated player: a role, a unique id within the game, and a
// pose on the map.
type Actor struct {
	ID       int
	Role     messages.Role
	Location hexgrid.HecsCoord
	Rotation float64
	Left     bool
}

// actorSync tracks which snapshots an actor's client has yet to receive.
type actorSync struct {
	mapStale          bool
	propsStale        bool
	turnStale         bool
	instructionsStale bool
	stateStale        bool
	actions           []messages.Action
	feedback          []messages.LiveFeedback
	reports           []messages.TriggerReport
}

func staleSync() *actorSync {
	return &actorSync{
		mapStale:          true,
		propsStale:        true,
		turnStale:         true,
		instructionsStale: true,
		stateStale:        true,
	}
}

// State is the turn engine for one game.
type State struct {
	gameID string
	log    *events.Log
	logger *logger.Logger

	phase        Phase
	worldMap     messages.MapUpdate
	props        []messages.Prop
	turn         messages.TurnState
	instructions []messages.ObjectiveMessage
	actors       map[int]*Actor
	nextActorID  int

	triggers []messages.Trigger
	fired    map[string]bool

	// instructionEvents maps instruction uuid to the event id of its
	// INSTRUCTION_SENT record, for parent-event causal links.
	instructionEvents map[string]string

	sync   map[int]*actorSync
	failed bool
}

// New creates a state machine for a fresh game over the given map and
// props. The game stays in the waiting phase until two actors join.
func New(gameID string, worldMap messages.MapUpdate, props []messages.Prop, log *events.Log, lg *logger.Logger) *State {
	s := &State{
		gameID:            gameID,
		log:               log,
		logger:            lg,
		phase:             PhaseWaitingForPlayers,
		worldMap:          worldMap,
		props:             append([]messages.Prop(nil), props...),
		actors:            make(map[int]*Actor),
		fired:             make(map[string]bool),
		instructionEvents: make(map[string]string),
		sync:              make(map[int]*actorSync),
		turn: messages.TurnState{
			Turn:      messages.RoleLeader,
			TurnsLeft: DefaultTurnsPerGame,
			GameStart: time.Now(),
		},
	}
	s.record(events.TypeMapUpdate, -1, "", worldMap)
	s.record(events.TypePropUpdate, -1, "", messages.PropUpdate{Props: s.props})
	return s
}

// GameID returns the game's unique name.
func (s *State) GameID() string {
	return s.gameID
}

// Phase returns the current lifecycle stage.
func (s *State) Phase() Phase {
	return s.phase
}

// EventLog exposes the game's event log.
func (s *State) EventLog() *events.Log {
	return s.log
}

// CreateActor seats a new actor. Role assignment is the caller's
// (coordinator's) concern; this only enforces capacity and slot
// uniqueness. The game activates once both slots are filled.
func (s *State) CreateActor(role messages.Role) (int, error) {
	if s.Done() {
		return 0, ErrGameOver
	}
	if role != messages.RoleLeader && role != messages.RoleFollower {
		return 0, fmt.Errorf("cannot seat role %s: %w", role, ErrRoleOccupied)
	}
	if len(s.seated()) >= 2 {
		return 0, ErrGameFull
	}
	for _, a := range s.actors {
		if !a.Left && a.Role == role {
			return 0, fmt.Errorf("role %s: %w", role, ErrRoleOccupied)
		}
	}
	id := s.nextActorID
	s.nextActorID++
	s.actors[id] = &Actor{ID: id, Role: role}
	s.sync[id] = staleSync()

	if len(s.seated()) == 2 {
		s.activate()
	}
	return id, nil
}

// LeaveActor unseats an actor. The game ends when both slots empty out.
func (s *State) LeaveActor(actorID int) error {
	a, ok := s.actors[actorID]
	if !ok {
		return ErrUnknownActor
	}
	a.Left = true
	if len(s.seated()) == 0 && s.phase != PhaseDone {
		s.endGame()
	}
	return nil
}

// PlayerIDs returns the ids of currently seated actors.
func (s *State) PlayerIDs() []int {
	ids := []int{}
	for id, a := range s.actors {
		if !a.Left {
			ids = append(ids, id)
		}
	}
	return ids
}

// Done reports whether the game reached its terminal state. Once true it
// stays true: PhaseDone is absorbing and failed never resets.
func (s *State) Done() bool {
	return s.phase == PhaseDone || s.failed
}

// MarkFailed records an internal invariant violation. It is fatal to this
// game only; the coordinator's other games are unaffected.
func (s *State) MarkFailed(reason string) {
	s.logger.Error("game " + s.gameID + " invariant violation: " + reason)
	s.failed = true
	s.turn.GameOver = true
}

// ApplyAction validates and applies one action for the given actor.
// Rejections are reported as errors; the state is untouched on rejection.
func (s *State) ApplyAction(actorID int, action messages.Action) error {
	if s.Done() {
		return ErrGameOver
	}
	actor, ok := s.actors[actorID]
	if !ok || actor.Left {
		return ErrUnknownActor
	}
	// The logged action replays onto the actor named by its ID field, so
	// an envelope stamped for someone else must never enter the log.
	if action.ID != actorID {
		return fmt.Errorf("action stamped for actor %d sent by actor %d: %w", action.ID, actorID, ErrMalformedAction)
	}
	if s.phase != PhaseActive {
		return ErrWrongTurn
	}
	if actor.Role != s.turn.Turn {
		return ErrWrongTurn
	}
	if !action.Expiration.IsZero() && time.Now().After(action.Expiration) {
		return fmt.Errorf("action %d expired: %w", action.ID, ErrMalformedAction)
	}

	switch action.ActionType {
	case messages.ActionTypeTranslate:
		actor.Location = actor.Location.Add(action.Displacement)
		actor.Rotation += action.Rotation
	case messages.ActionTypeRotate:
		actor.Rotation += action.Rotation
	case messages.ActionTypeInstant:
		actor.Location = actor.Location.Add(action.Displacement)
		actor.Rotation = action.Rotation
	case messages.ActionTypeOutline, messages.ActionTypeInit:
		// Pose untouched; these only affect rendering.
	default:
		return fmt.Errorf("action type %d: %w", action.ActionType, ErrMalformedAction)
	}

	parent := ""
	if actor.Role == messages.RoleFollower {
		if active := s.activeInstruction(); active != nil {
			parent = s.instructionEvents[active.UUID]
		}
	}
	s.recordWithParent(events.TypeAction, actorID, actor.Role.String(), parent, action)
	s.broadcastActions([]messages.Action{action})
	s.markStateStale()

	if action.ActionType == messages.ActionTypeTranslate || action.ActionType == messages.ActionTypeInstant {
		s.handleCardCell(actor, parent)
		if !action.IsNoop() {
			s.spendMove()
		}
	}
	s.evaluateTriggers(actor)
	return nil
}

// EndTurn ends the acting player's turn early.
func (s *State) EndTurn(actorID int) error {
	if s.Done() {
		return ErrGameOver
	}
	actor, ok := s.actors[actorID]
	if !ok || actor.Left {
		return ErrUnknownActor
	}
	if s.phase != PhaseActive || actor.Role != s.turn.Turn {
		return ErrWrongTurn
	}
	s.advanceTurn()
	return nil
}

// Tick lets the turn clock advance. The driver calls this every cycle so
// expired turns roll over even when no messages arrive.
func (s *State) Tick(now time.Time) {
	if s.phase != PhaseActive {
		return
	}
	if !s.turn.TurnEnd.IsZero() && now.After(s.turn.TurnEnd) {
		s.advanceTurn()
	}
}

// SendInstruction appends a leader instruction to the game's list.
func (s *State) SendInstruction(actorID int, objective messages.ObjectiveMessage) error {
	if s.Done() {
		return ErrGameOver
	}
	actor, ok := s.actors[actorID]
	if !ok || actor.Left {
		return ErrUnknownActor
	}
	if actor.Role != messages.RoleLeader {
		return ErrWrongTurn
	}
	if objective.Text == "" {
		return fmt.Errorf("empty instruction text: %w", ErrMalformedAction)
	}
	if objective.UUID == "" {
		objective.UUID = uuid.NewString()
	}
	objective.Sender = messages.RoleLeader
	objective.Completed = false
	objective.Cancelled = false
	s.instructions = append(s.instructions, objective)

	eventID := s.record(events.TypeInstructionSent, actorID, actor.Role.String(), objective)
	s.instructionEvents[objective.UUID] = eventID
	s.markInstructionsStale()
	return nil
}

// CompleteInstruction marks an instruction completed. The completion flag
// transitions exactly once; a second resolution attempt is rejected.
func (s *State) CompleteInstruction(actorID int, instructionUUID string) error {
	return s.resolveInstruction(actorID, instructionUUID, true)
}

// CancelInstruction marks an instruction cancelled.
func (s *State) CancelInstruction(actorID int, instructionUUID string) error {
	return s.resolveInstruction(actorID, instructionUUID, false)
}

func (s *State) resolveInstruction(actorID int, instructionUUID string, completed bool) error {
	if s.Done() {
		return ErrGameOver
	}
	if _, ok := s.actors[actorID]; !ok {
		return ErrUnknownActor
	}
	for i := range s.instructions {
		obj := &s.instructions[i]
		if obj.UUID != instructionUUID {
			continue
		}
		if obj.Completed || obj.Cancelled {
			return fmt.Errorf("instruction %s: %w", instructionUUID, ErrInstructionResolved)
		}
		parent := s.instructionEvents[instructionUUID]
		if completed {
			obj.Completed = true
			s.recordWithParent(events.TypeInstructionDone, actorID, s.actors[actorID].Role.String(), parent, *obj)
		} else {
			obj.Cancelled = true
			s.recordWithParent(events.TypeInstructionCancelled, actorID, s.actors[actorID].Role.String(), parent, *obj)
		}
		s.markInstructionsStale()
		s.evaluateTriggers(s.actors[actorID])
		return nil
	}
	return fmt.Errorf("instruction %s: %w", instructionUUID, ErrUnknownInstruction)
}

// SendLiveFeedback forwards a leader signal to the follower's outbox.
func (s *State) SendLiveFeedback(actorID int, feedback messages.LiveFeedback) error {
	actor, ok := s.actors[actorID]
	if !ok || actor.Left {
		return ErrUnknownActor
	}
	if actor.Role != messages.RoleLeader {
		return ErrWrongTurn
	}
	s.record(events.TypeLiveFeedback, actorID, actor.Role.String(), feedback)
	for id, a := range s.actors {
		if a.Role == messages.RoleFollower && !a.Left {
			s.sync[id].feedback = append(s.sync[id].feedback, feedback)
		}
	}
	return nil
}

// RegisterTrigger adds a trigger. Triggers are evaluated in registration
// order and fire at most once each.
func (s *State) RegisterTrigger(trigger messages.Trigger) {
	s.triggers = append(s.triggers, trigger)
}

func (s *State) activate() {
	s.phase = PhaseActive
	s.turn.Turn = messages.RoleLeader
	s.turn.MovesRemaining = LeaderMovesPerTurn
	s.turn.TurnEnd = time.Now().Add(TurnDuration)
	s.turn.TurnNumber = 1
	s.record(events.TypeInitialState, -1, "", s.actorStates())
	s.record(events.TypeStartOfTurn, -1, "", s.turn)
	s.markTurnStale()
	s.markStateStale()
}

func (s *State) spendMove() {
	s.turn.MovesRemaining--
	s.markTurnStale()
	if s.turn.MovesRemaining <= 0 {
		s.advanceTurn()
	}
}

func (s *State) advanceTurn() {
	if s.phase != PhaseActive {
		s.MarkFailed("turn advance outside active phase")
		return
	}
	s.turn.TurnsLeft--
	if s.turn.TurnsLeft <= 0 {
		s.endGame()
		return
	}
	s.turn.Turn = s.turn.Turn.Opposite()
	s.turn.TurnNumber++
	if s.turn.Turn == messages.RoleLeader {
		s.turn.MovesRemaining = LeaderMovesPerTurn
	} else {
		s.turn.MovesRemaining = FollowerMovesPerTurn
	}
	s.turn.TurnEnd = time.Now().Add(TurnDuration)
	s.record(events.TypeStartOfTurn, -1, "", s.turn)
	s.markTurnStale()
}

func (s *State) endGame() {
	if s.phase == PhaseDone {
		s.MarkFailed("endGame on terminal state")
		return
	}
	s.phase = PhaseDone
	s.turn.GameOver = true
	s.record(events.TypeTurnState, -1, "", s.turn)
	s.markTurnStale()
}

func (s *State) seated() []*Actor {
	out := []*Actor{}
	for _, a := range s.actors {
		if !a.Left {
			out = append(out, a)
		}
	}
	return out
}

func (s *State) activeInstruction() *messages.ObjectiveMessage {
	for i := range s.instructions {
		obj := &s.instructions[i]
		if !obj.Completed && !obj.Cancelled {
			return obj
		}
	}
	return nil
}

func (s *State) record(t events.Type, actorID int, role string, payload any) string {
	return s.recordWithParent(t, actorID, role, "", payload)
}

func (s *State) recordWithParent(t events.Type, actorID int, role, parent string, payload any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal event payload: " + err.Error())
		data = nil
	}
	rec := events.Record{
		ID:            events.NewRecordID(),
		GameID:        s.gameID,
		Type:          t,
		ParentEventID: parent,
		Time:          time.Now(),
		ActorID:       actorID,
		Role:          role,
		Payload:       data,
	}
	s.log.Append(rec)
	return rec.ID
}
