package storage

import (
	"context"
	"sync"

	"github.com/EvLab-MIT/cb2/internal/events"
)

// MemoryEventRepository is an in-memory EventRepository. It backs tests
// and ephemeral runs where no database file is wanted; insertion order
// stands in for the seq column.
type MemoryEventRepository struct {
	mu      sync.RWMutex
	records []events.Record
	index   map[string]int
}

func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{index: make(map[string]int)}
}

func (r *MemoryEventRepository) Append(ctx context.Context, record events.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index[record.ID] = len(r.records)
	r.records = append(r.records, record)
	return nil
}

func (r *MemoryEventRepository) Get(ctx context.Context, eventID string) (*events.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[eventID]
	if !ok {
		return nil, nil
	}
	rec := r.records[i]
	return &rec, nil
}

func (r *MemoryEventRepository) ListByGame(ctx context.Context, gameID string) ([]events.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []events.Record
	for _, rec := range r.records {
		if rec.GameID == gameID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *MemoryEventRepository) ListUpTo(ctx context.Context, gameID, eventID string) ([]events.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	end, ok := r.index[eventID]
	if !ok {
		return nil, nil
	}
	var out []events.Record
	for i, rec := range r.records {
		if i > end {
			break
		}
		if rec.GameID == gameID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *MemoryEventRepository) FirstChildOfType(ctx context.Context, parentEventID string, t events.Type) (*events.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.ParentEventID == parentEventID && rec.Type == t {
			out := rec
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryEventRepository) LastChildOfType(ctx context.Context, parentEventID string, t events.Type) (*events.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.records) - 1; i >= 0; i-- {
		rec := r.records[i]
		if rec.ParentEventID == parentEventID && rec.Type == t {
			out := rec
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryEventRepository) Before(ctx context.Context, eventID string) (*events.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[eventID]
	if !ok {
		return nil, nil
	}
	gameID := r.records[i].GameID
	for j := i - 1; j >= 0; j-- {
		if r.records[j].GameID == gameID {
			out := r.records[j]
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryEventRepository) After(ctx context.Context, eventID string) (*events.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[eventID]
	if !ok {
		return nil, nil
	}
	gameID := r.records[i].GameID
	for j := i + 1; j < len(r.records); j++ {
		if r.records[j].GameID == gameID {
			out := r.records[j]
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryEventRepository) ListByType(ctx context.Context, t events.Type) ([]events.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []events.Record
	for _, rec := range r.records {
		if rec.Type == t {
			out = append(out, rec)
		}
	}
	return out, nil
}

// AsPersister adapts the repository to the event log's write-through
// contract.
func (r *MemoryEventRepository) AsPersister() events.Persister {
	return memoryPersister{repo: r}
}

type memoryPersister struct {
	repo *MemoryEventRepository
}

func (p memoryPersister) Append(record events.Record) error {
	return p.repo.Append(context.Background(), record)
}
