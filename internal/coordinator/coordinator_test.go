package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/EvLab-MIT/cb2/internal/messages"
	"github.com/EvLab-MIT/cb2/internal/platform/logger"
)

func newTestCoordinator() *Coordinator {
	return New(nil, nil, logger.NewLogger())
}

func TestJoinOrderAssignsRoles(t *testing.T) {
	coord := newTestCoordinator()
	defer coord.Shutdown()
	ctx := context.Background()

	name, err := coord.CreateGame(ctx)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}

	first, err := coord.JoinGame(name)
	if err != nil {
		t.Fatalf("First join failed: %v", err)
	}
	if first.Role() != messages.RoleLeader {
		t.Errorf("Expected first joiner to lead, got %s", first.Role())
	}

	second, err := coord.JoinGame(name)
	if err != nil {
		t.Fatalf("Second join failed: %v", err)
	}
	if second.Role() != messages.RoleFollower {
		t.Errorf("Expected second joiner to follow, got %s", second.Role())
	}

	if _, err := coord.JoinGame(name); !errors.Is(err, ErrGameFull) {
		t.Errorf("Expected ErrGameFull for third joiner, got %v", err)
	}
}

func TestJoinUnknownGame(t *testing.T) {
	coord := newTestCoordinator()
	defer coord.Shutdown()

	if _, err := coord.JoinGame("no-such-game"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("Expected ErrGameNotFound, got %v", err)
	}
}

func TestMatchmakeReusesOpenSeat(t *testing.T) {
	coord := newTestCoordinator()
	defer coord.Shutdown()
	ctx := context.Background()

	first, err := coord.Matchmake(ctx)
	if err != nil {
		t.Fatalf("Matchmake failed: %v", err)
	}
	if _, _, err := coord.SeatPlayer(first, messages.RoleNone); err != nil {
		t.Fatalf("Failed to seat first player: %v", err)
	}

	second, err := coord.Matchmake(ctx)
	if err != nil {
		t.Fatalf("Matchmake failed: %v", err)
	}
	if second != first {
		t.Errorf("Expected matchmaking to fill the open seat, got a new game %s", second)
	}
	if _, _, err := coord.SeatPlayer(second, messages.RoleNone); err != nil {
		t.Fatalf("Failed to seat second player: %v", err)
	}

	third, err := coord.Matchmake(ctx)
	if err != nil {
		t.Fatalf("Matchmake failed: %v", err)
	}
	if third == first {
		t.Errorf("Expected a fresh game once the first filled up")
	}
}

func TestCleanupRemovesOnlyFinishedGames(t *testing.T) {
	coord := newTestCoordinator()
	defer coord.Shutdown()
	ctx := context.Background()

	live, err := coord.CreateGame(ctx)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	dead, err := coord.CreateGame(ctx)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}

	// Seat and immediately remove both players to end the second game.
	leaderID, _, err := coord.SeatPlayer(dead, messages.RoleLeader)
	if err != nil {
		t.Fatalf("Failed to seat leader: %v", err)
	}
	followerID, _, err := coord.SeatPlayer(dead, messages.RoleFollower)
	if err != nil {
		t.Fatalf("Failed to seat follower: %v", err)
	}
	if err := coord.UnseatPlayer(dead, leaderID); err != nil {
		t.Fatalf("Failed to unseat leader: %v", err)
	}
	if err := coord.UnseatPlayer(dead, followerID); err != nil {
		t.Fatalf("Failed to unseat follower: %v", err)
	}

	// Give the dead game's driver a moment to observe the end and exit.
	d, err := coord.StateMachineDriver(dead)
	if err != nil {
		t.Fatalf("Failed to fetch driver: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for !d.Done() && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if !d.Done() {
		t.Fatalf("Driver for ended game never exited")
	}

	coord.Cleanup()
	if coord.GameExists(dead) {
		t.Errorf("Expected finished game to be cleaned up")
	}
	if !coord.GameExists(live) {
		t.Errorf("Cleanup removed a live game")
	}

	// Idempotent: a second pass changes nothing.
	coord.Cleanup()
	if !coord.GameExists(live) {
		t.Errorf("Second cleanup pass removed a live game")
	}
}

func TestCleanupGameIsIdempotent(t *testing.T) {
	coord := newTestCoordinator()
	defer coord.Shutdown()

	name, err := coord.CreateGame(context.Background())
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	coord.CleanupGame(name)
	if coord.GameExists(name) {
		t.Errorf("Expected game to be removed")
	}
	coord.CleanupGame(name)          // second removal is a no-op
	coord.CleanupGame("never-there") // unknown names are fine too
}

func TestStatsViewCountsSeats(t *testing.T) {
	coord := newTestCoordinator()
	defer coord.Shutdown()
	ctx := context.Background()

	name, err := coord.CreateGame(ctx)
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	if _, _, err := coord.SeatPlayer(name, messages.RoleNone); err != nil {
		t.Fatalf("Failed to seat player: %v", err)
	}

	stats := coord.StatsView()
	if stats.ActiveGames != 1 || stats.PlayersSeated != 1 {
		t.Errorf("Expected 1 game and 1 player, got %+v", stats)
	}
}
