// Package coordinator manages the set of live games: creation, joining,
// reconstruction from the event log, and cleanup. It owns the driver
// goroutines and hands out client endpoints wired to them.
package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/EvLab-MIT/cb2/internal/client"
	"github.com/EvLab-MIT/cb2/internal/driver"
	"github.com/EvLab-MIT/cb2/internal/events"
	"github.com/EvLab-MIT/cb2/internal/infra/storage"
	"github.com/EvLab-MIT/cb2/internal/messages"
	"github.com/EvLab-MIT/cb2/internal/platform/logger"
	"github.com/EvLab-MIT/cb2/internal/scenario"
	"github.com/EvLab-MIT/cb2/internal/state"
)

var (
	// ErrGameNotFound is returned for operations on an unknown game name.
	ErrGameNotFound = errors.New("game not found")
	// ErrNameCollision is returned when a requested game name is taken.
	ErrNameCollision = errors.New("game name already in use")
	// ErrGameFull is returned when a third player tries to join.
	ErrGameFull = errors.New("game already has two players")
)

type gameEntry struct {
	driver *driver.Driver
	cancel context.CancelFunc
}

// Coordinator tracks all live games. It implements client.DriverRegistry
// so local sockets can reach their drivers by game name.
type Coordinator struct {
	mu     sync.Mutex
	games  map[string]*gameEntry
	repo   storage.EventRepository
	maps   MapSource
	logger *logger.Logger
}

// New creates a coordinator. repo may be nil for ephemeral (unpersisted)
// games; maps defaults to the built-in map source when nil.
func New(repo storage.EventRepository, maps MapSource, lg *logger.Logger) *Coordinator {
	if maps == nil {
		maps = DefaultMapSource{}
	}
	return &Coordinator{
		games:  make(map[string]*gameEntry),
		repo:   repo,
		maps:   maps,
		logger: lg,
	}
}

// CreateGame starts a fresh game over the default map source and returns
// its unique name. The game's driver goroutine runs until the game ends
// or ctx is cancelled.
func (c *Coordinator) CreateGame(ctx context.Context) (string, error) {
	name := "game-" + uuid.NewString()
	return name, c.createGameNamed(ctx, name, c.maps.Map(), c.maps.Props())
}

// CreateGameFromEventID reconstructs the historical state at the given
// event and starts a new game holding that snapshot. The new game gets
// its own name and its own event log; the source game is untouched.
func (c *Coordinator) CreateGameFromEventID(ctx context.Context, eventID string) (string, error) {
	if c.repo == nil {
		return "", errors.New("no event repository configured")
	}
	snapshot, err := scenario.ReconstructFromEvent(ctx, c.repo, eventID)
	if err != nil {
		return "", fmt.Errorf("failed to reconstruct event %s: %w", eventID, err)
	}
	name := "replay-" + uuid.NewString()
	if err := c.createGameNamed(ctx, name, snapshot.Map, snapshot.PropUpdate.Props); err != nil {
		return "", err
	}
	d, err := c.StateMachineDriver(name)
	if err != nil {
		return "", err
	}
	if err := d.LoadScenario(snapshot); err != nil {
		c.CleanupGame(name)
		return "", fmt.Errorf("failed to load reconstructed snapshot: %w", err)
	}
	return name, nil
}

// MapSample returns a board from the configured map source, for clients
// that want to preview terrain before joining.
func (c *Coordinator) MapSample() messages.MapUpdate {
	return c.maps.Map()
}

// Matchmake finds a game with a free seat, creating one when every game
// is full, and returns its name. Seating is the caller's next step.
func (c *Coordinator) Matchmake(ctx context.Context) (string, error) {
	c.mu.Lock()
	for name, entry := range c.games {
		if !entry.driver.StateDone() && len(entry.driver.PlayerIDs()) < 2 {
			c.mu.Unlock()
			return name, nil
		}
	}
	c.mu.Unlock()
	return c.CreateGame(ctx)
}

// CreateGameFromInstructionUUID reconstructs the game holding the given
// instruction, anchored at the moment the instruction was issued.
func (c *Coordinator) CreateGameFromInstructionUUID(ctx context.Context, instructionUUID string) (string, error) {
	if c.repo == nil {
		return "", errors.New("no event repository configured")
	}
	records, err := c.repo.ListByType(ctx, events.TypeInstructionSent)
	if err != nil {
		return "", fmt.Errorf("failed to list instructions: %w", err)
	}
	for _, rec := range records {
		var obj messages.ObjectiveMessage
		if err := json.Unmarshal(rec.Payload, &obj); err != nil {
			continue
		}
		if obj.UUID == instructionUUID {
			return c.CreateGameFromEventID(ctx, rec.ID)
		}
	}
	return "", fmt.Errorf("instruction %s: %w", instructionUUID, ErrGameNotFound)
}

func (c *Coordinator) createGameNamed(ctx context.Context, name string, worldMap messages.MapUpdate, props []messages.Prop) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.games[name]; exists {
		return fmt.Errorf("game %s: %w", name, ErrNameCollision)
	}

	var persister events.Persister
	if c.repo != nil {
		if registrar, ok := c.repo.(interface {
			RegisterGame(ctx context.Context, gameID string) error
		}); ok {
			if err := registrar.RegisterGame(ctx, name); err != nil {
				return fmt.Errorf("failed to register game %s: %w", name, err)
			}
		}
		persister = repoPersister{ctx: ctx, repo: c.repo}
	}

	sm := state.New(name, worldMap, props, events.NewLog(persister), c.logger)
	d := driver.New(sm, c.logger)
	gameCtx, cancel := context.WithCancel(ctx)
	c.games[name] = &gameEntry{driver: d, cancel: cancel}
	go d.Run(gameCtx)

	c.logger.Event("GAME_CREATED", name)
	return nil
}

// SeatPlayer seats a player and returns the actor id and assigned role.
// Pass RoleNone to follow join order: the first player is the leader,
// the second the follower, the third is rejected. A concrete role pins
// that seat instead.
func (c *Coordinator) SeatPlayer(gameName string, pinned messages.Role) (int, messages.Role, error) {
	d, err := c.StateMachineDriver(gameName)
	if err != nil {
		return 0, messages.RoleNone, err
	}
	role := pinned
	if role == messages.RoleNone {
		role = messages.RoleLeader
		if len(d.PlayerIDs()) == 1 {
			role = messages.RoleFollower
		}
	}
	actorID, err := d.CreateActor(role)
	if err != nil {
		if errors.Is(err, state.ErrGameFull) {
			return 0, messages.RoleNone, ErrGameFull
		}
		return 0, messages.RoleNone, err
	}
	c.logger.Event("PLAYER_JOINED", gameName, role.String())
	return actorID, role, nil
}

// UnseatPlayer removes a player from a game, e.g. on disconnect.
func (c *Coordinator) UnseatPlayer(gameName string, actorID int) error {
	d, err := c.StateMachineDriver(gameName)
	if err != nil {
		return err
	}
	return d.LeaveActor(actorID)
}

// JoinGame seats the next player by join order and returns a local
// endpoint. The endpoint is not yet initialized; call Initialize on it.
func (c *Coordinator) JoinGame(gameName string) (*client.GameEndpoint, error) {
	return c.joinLocal(gameName, messages.RoleNone)
}

// JoinGameWithRole seats a player in a specific role slot, used by
// replay joins that pin a historical seat.
func (c *Coordinator) JoinGameWithRole(gameName string, role messages.Role) (*client.GameEndpoint, error) {
	return c.joinLocal(gameName, role)
}

func (c *Coordinator) joinLocal(gameName string, pinned messages.Role) (*client.GameEndpoint, error) {
	actorID, role, err := c.SeatPlayer(gameName, pinned)
	if err != nil {
		return nil, err
	}
	socket := client.NewLocalSocket(c, gameName, actorID)
	return client.NewGameEndpoint(socket, role), nil
}

// StateMachineDriver returns the driver for a named game.
func (c *Coordinator) StateMachineDriver(gameName string) (*driver.Driver, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.games[gameName]
	if !ok {
		return nil, fmt.Errorf("game %s: %w", gameName, ErrGameNotFound)
	}
	return entry.driver, nil
}

// GameExists reports whether the named game is still registered.
func (c *Coordinator) GameExists(gameName string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.games[gameName]
	return ok
}

// CleanupGame removes one game, cancelling its driver if still running.
// Safe to call for unknown names and safe to call twice.
func (c *Coordinator) CleanupGame(gameName string) {
	c.mu.Lock()
	entry, ok := c.games[gameName]
	if ok {
		delete(c.games, gameName)
	}
	c.mu.Unlock()
	if ok {
		entry.cancel()
		c.logger.Event("GAME_CLEANED", gameName)
	}
}

// Cleanup removes every game whose driver has exited and whose state
// machine is terminal. Idempotent; a second pass finds nothing new.
func (c *Coordinator) Cleanup() {
	c.mu.Lock()
	var finished []string
	for name, entry := range c.games {
		if entry.driver.Done() && entry.driver.StateDone() {
			finished = append(finished, name)
		}
	}
	c.mu.Unlock()
	for _, name := range finished {
		c.CleanupGame(name)
	}
}

// Shutdown cancels every driver and clears the registry.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	entries := make([]*gameEntry, 0, len(c.games))
	for _, entry := range c.games {
		entries = append(entries, entry)
	}
	c.games = make(map[string]*gameEntry)
	c.mu.Unlock()
	for _, entry := range entries {
		entry.cancel()
	}
}

// Stats summarizes the registry for the stats endpoint.
type Stats struct {
	ActiveGames   int `json:"active_games"`
	PlayersSeated int `json:"players_seated"`
}

// StatsView counts live games and seated players.
func (c *Coordinator) StatsView() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := Stats{ActiveGames: len(c.games)}
	for _, entry := range c.games {
		stats.PlayersSeated += len(entry.driver.PlayerIDs())
	}
	return stats
}

// repoPersister bridges the event log's write-through contract to the
// repository interface.
type repoPersister struct {
	ctx  context.Context
	repo storage.EventRepository
}

func (p repoPersister) Append(record events.Record) error {
	return p.repo.Append(p.ctx, record)
}
