package storage

import (
	"context"
	"testing"
	"time"

	"github.com/EvLab-MIT/cb2/internal/events"
)

func appendRecords(t *testing.T, repo *MemoryEventRepository, recs []events.Record) {
	t.Helper()
	ctx := context.Background()
	for _, rec := range recs {
		if err := repo.Append(ctx, rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
}

func testRecords() []events.Record {
	now := time.Now()
	return []events.Record{
		{ID: "e1", GameID: "g1", Type: events.TypeMapUpdate, Time: now, ActorID: -1},
		{ID: "e2", GameID: "g1", Type: events.TypeInstructionSent, Time: now, ActorID: 0},
		{ID: "e3", GameID: "g2", Type: events.TypeMapUpdate, Time: now, ActorID: -1},
		{ID: "e4", GameID: "g1", Type: events.TypeAction, ParentEventID: "e2", Time: now, ActorID: 1},
		{ID: "e5", GameID: "g1", Type: events.TypeAction, ParentEventID: "e2", Time: now, ActorID: 1},
		{ID: "e6", GameID: "g1", Type: events.TypeInstructionDone, ParentEventID: "e2", Time: now, ActorID: 1},
	}
}

func TestListByGamePreservesOrderAndIsolation(t *testing.T) {
	repo := NewMemoryEventRepository()
	appendRecords(t, repo, testRecords())

	recs, err := repo.ListByGame(context.Background(), "g1")
	if err != nil {
		t.Fatalf("ListByGame failed: %v", err)
	}
	want := []string{"e1", "e2", "e4", "e5", "e6"}
	if len(recs) != len(want) {
		t.Fatalf("Expected %d records, got %d", len(want), len(recs))
	}
	for i, id := range want {
		if recs[i].ID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, recs[i].ID)
		}
	}
}

func TestListUpToIsInclusive(t *testing.T) {
	repo := NewMemoryEventRepository()
	appendRecords(t, repo, testRecords())

	recs, err := repo.ListUpTo(context.Background(), "g1", "e4")
	if err != nil {
		t.Fatalf("ListUpTo failed: %v", err)
	}
	if len(recs) != 3 || recs[len(recs)-1].ID != "e4" {
		t.Errorf("Expected prefix ending at e4, got %d records ending at %s",
			len(recs), recs[len(recs)-1].ID)
	}
}

func TestChildLookups(t *testing.T) {
	repo := NewMemoryEventRepository()
	appendRecords(t, repo, testRecords())
	ctx := context.Background()

	first, err := repo.FirstChildOfType(ctx, "e2", events.TypeAction)
	if err != nil || first == nil || first.ID != "e4" {
		t.Errorf("Expected first action child e4, got %v (%v)", first, err)
	}
	last, err := repo.LastChildOfType(ctx, "e2", events.TypeAction)
	if err != nil || last == nil || last.ID != "e5" {
		t.Errorf("Expected last action child e5, got %v (%v)", last, err)
	}
	none, err := repo.FirstChildOfType(ctx, "e1", events.TypeAction)
	if err != nil || none != nil {
		t.Errorf("Expected no children for e1, got %v (%v)", none, err)
	}
}

func TestBeforeAndAfterStayWithinGame(t *testing.T) {
	repo := NewMemoryEventRepository()
	appendRecords(t, repo, testRecords())
	ctx := context.Background()

	// e4's predecessor within g1 skips over g2's e3.
	before, err := repo.Before(ctx, "e4")
	if err != nil || before == nil || before.ID != "e2" {
		t.Errorf("Expected e2 before e4, got %v (%v)", before, err)
	}
	after, err := repo.After(ctx, "e5")
	if err != nil || after == nil || after.ID != "e6" {
		t.Errorf("Expected e6 after e5, got %v (%v)", after, err)
	}
	if end, err := repo.After(ctx, "e6"); err != nil || end != nil {
		t.Errorf("Expected nothing after the last event, got %v (%v)", end, err)
	}
}

func TestListByType(t *testing.T) {
	repo := NewMemoryEventRepository()
	appendRecords(t, repo, testRecords())

	recs, err := repo.ListByType(context.Background(), events.TypeAction)
	if err != nil {
		t.Fatalf("ListByType failed: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("Expected 2 action records, got %d", len(recs))
	}
}

func TestPersisterWritesThrough(t *testing.T) {
	repo := NewMemoryEventRepository()
	log := events.NewLog(repo.AsPersister())
	log.Append(events.Record{ID: "w1", GameID: "g1", Type: events.TypeMapUpdate, Time: time.Now(), ActorID: -1})

	rec, err := repo.Get(context.Background(), "w1")
	if err != nil || rec == nil {
		t.Errorf("Expected appended record to reach the repository, got %v (%v)", rec, err)
	}
	if log.WriteErrors() != 0 {
		t.Errorf("Expected no write errors, got %d", log.WriteErrors())
	}
}
