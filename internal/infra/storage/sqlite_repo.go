package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/EvLab-MIT/cb2/internal/events"
	"github.com/EvLab-MIT/cb2/internal/platform/metrics"
)

const eventColumns = `id, game_id, event_type, parent_event_id, time, actor_id, role, payload`

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, record events.Record) error {
	query := `
		INSERT INTO events (id, game_id, event_type, parent_event_id, time, actor_id, role, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.GameID, string(record.Type), record.ParentEventID,
		record.Time, record.ActorID, record.Role, string(record.Payload),
	)
	metrics.RecordEventWrite(err)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]events.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []events.Record
	for rows.Next() {
		var rec events.Record
		var eventType, payload string
		err := rows.Scan(
			&rec.ID, &rec.GameID, &eventType, &rec.ParentEventID,
			&rec.Time, &rec.ActorID, &rec.Role, &payload,
		)
		if err != nil {
			return nil, err
		}
		rec.Type = events.Type(eventType)
		rec.Payload = []byte(payload)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *SQLiteEventRepository) getOne(ctx context.Context, query string, args ...interface{}) (*events.Record, error) {
	records, err := r.getMany(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (r *SQLiteEventRepository) Get(ctx context.Context, eventID string) (*events.Record, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	return r.getOne(ctx, query, eventID)
}

func (r *SQLiteEventRepository) ListByGame(ctx context.Context, gameID string) ([]events.Record, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE game_id = ? ORDER BY seq ASC`
	return r.getMany(ctx, query, gameID)
}

func (r *SQLiteEventRepository) ListUpTo(ctx context.Context, gameID, eventID string) ([]events.Record, error) {
	query := `SELECT ` + eventColumns + ` FROM events
		WHERE game_id = ? AND seq <= (SELECT seq FROM events WHERE id = ?)
		ORDER BY seq ASC`
	return r.getMany(ctx, query, gameID, eventID)
}

func (r *SQLiteEventRepository) FirstChildOfType(ctx context.Context, parentEventID string, t events.Type) (*events.Record, error) {
	query := `SELECT ` + eventColumns + ` FROM events
		WHERE parent_event_id = ? AND event_type = ? ORDER BY seq ASC LIMIT 1`
	return r.getOne(ctx, query, parentEventID, string(t))
}

func (r *SQLiteEventRepository) LastChildOfType(ctx context.Context, parentEventID string, t events.Type) (*events.Record, error) {
	query := `SELECT ` + eventColumns + ` FROM events
		WHERE parent_event_id = ? AND event_type = ? ORDER BY seq DESC LIMIT 1`
	return r.getOne(ctx, query, parentEventID, string(t))
}

func (r *SQLiteEventRepository) Before(ctx context.Context, eventID string) (*events.Record, error) {
	query := `SELECT ` + eventColumns + ` FROM events
		WHERE game_id = (SELECT game_id FROM events WHERE id = ?)
		AND seq < (SELECT seq FROM events WHERE id = ?)
		ORDER BY seq DESC LIMIT 1`
	return r.getOne(ctx, query, eventID, eventID)
}

func (r *SQLiteEventRepository) After(ctx context.Context, eventID string) (*events.Record, error) {
	query := `SELECT ` + eventColumns + ` FROM events
		WHERE game_id = (SELECT game_id FROM events WHERE id = ?)
		AND seq > (SELECT seq FROM events WHERE id = ?)
		ORDER BY seq ASC LIMIT 1`
	return r.getOne(ctx, query, eventID, eventID)
}

func (r *SQLiteEventRepository) ListByType(ctx context.Context, t events.Type) ([]events.Record, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE event_type = ? ORDER BY seq ASC`
	return r.getMany(ctx, query, string(t))
}

// RegisterGame inserts the games-table row for a new game.
func (r *SQLiteEventRepository) RegisterGame(ctx context.Context, gameID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO games (game_id, created_at) VALUES (?, CURRENT_TIMESTAMP)`, gameID)
	if err != nil {
		return fmt.Errorf("failed to register game: %w", err)
	}
	return nil
}

// Persister adapts the repository to the event log's write-through
// contract.
type Persister struct {
	repo *SQLiteEventRepository
}

// NewPersister wraps a repository as an events.Persister.
func NewPersister(repo *SQLiteEventRepository) *Persister {
	return &Persister{repo: repo}
}

func (p *Persister) Append(record events.Record) error {
	return p.repo.Append(context.Background(), record)
}
