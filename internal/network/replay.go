// Package network - replay.go
// JSON export of the immutable game history, plus scenario snapshots
// reconstructed at any event. Lets researchers inspect logged games
// without joining them.
package network

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/EvLab-MIT/cb2/internal/events"
	"github.com/EvLab-MIT/cb2/internal/infra/cache"
	"github.com/EvLab-MIT/cb2/internal/infra/storage"
	"github.com/EvLab-MIT/cb2/internal/platform/logger"
	"github.com/EvLab-MIT/cb2/internal/scenario"
)

// ReplayHandler serves the replay API over the persisted event log.
// The scenario cache is optional; nil means every request re-folds.
type ReplayHandler struct {
	repo      storage.EventRepository
	scenarios *cache.ScenarioCache
	logger    *logger.Logger
}

// NewReplayHandler creates a new replay handler.
func NewReplayHandler(repo storage.EventRepository, scenarios *cache.ScenarioCache, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{
		repo:      repo,
		scenarios: scenarios,
		logger:    log,
	}
}

// ReplayResponse is the API response for a game history export.
type ReplayResponse struct {
	GameID      string          `json:"game_id"`
	TotalEvents int             `json:"total_events"`
	FilteredBy  string          `json:"filtered_by,omitempty"`
	GeneratedAt string          `json:"generated_at"`
	Events      []events.Record `json:"events"`
}

// HandleReplay returns the ordered event history of a game.
// GET /api/replay?game_id=XXX&type=ACTION
func (rh *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	gameID := r.URL.Query().Get("game_id")
	if gameID == "" {
		rh.jsonError(w, "Missing game_id", http.StatusBadRequest)
		return
	}
	eventType := r.URL.Query().Get("type")

	records, err := rh.repo.ListByGame(r.Context(), gameID)
	if err != nil {
		rh.jsonError(w, "Failed to read event log", http.StatusInternalServerError)
		return
	}

	filterDesc := ""
	filtered := records
	if eventType != "" {
		filterDesc = "type " + eventType
		filtered = filtered[:0:0]
		for _, rec := range records {
			if string(rec.Type) == eventType {
				filtered = append(filtered, rec)
			}
		}
	}

	rh.logger.Event("REPLAY_EXPORT", gameID, "Events:"+strconv.Itoa(len(filtered)))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ReplayResponse{
		GameID:      gameID,
		TotalEvents: len(filtered),
		FilteredBy:  filterDesc,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      filtered,
	})
}

// HandleEventDetail returns one event by id.
// GET /api/replay/event?event_id=XXX
func (rh *ReplayHandler) HandleEventDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	eventID := r.URL.Query().Get("event_id")
	if eventID == "" {
		rh.jsonError(w, "Missing event_id", http.StatusBadRequest)
		return
	}
	rec, err := rh.repo.Get(r.Context(), eventID)
	if err != nil {
		rh.jsonError(w, "Failed to read event log", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		rh.jsonError(w, "Event not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// HandleStats returns per-type event counts for a game.
// GET /api/replay/stats?game_id=XXX
func (rh *ReplayHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	gameID := r.URL.Query().Get("game_id")
	if gameID == "" {
		rh.jsonError(w, "Missing game_id", http.StatusBadRequest)
		return
	}
	records, err := rh.repo.ListByGame(r.Context(), gameID)
	if err != nil {
		rh.jsonError(w, "Failed to read event log", http.StatusInternalServerError)
		return
	}

	stats := map[string]int{"total_events": len(records)}
	for _, rec := range records {
		stats[string(rec.Type)]++
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"game_id":      gameID,
		"generated_at": time.Now().Format(time.RFC3339),
		"stats":        stats,
	})
}

// HandleScenario returns the reconstructed snapshot at an event,
// consulting the cache before folding the log.
// GET /api/replay/scenario?event_id=XXX
func (rh *ReplayHandler) HandleScenario(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	eventID := r.URL.Query().Get("event_id")
	if eventID == "" {
		rh.jsonError(w, "Missing event_id", http.StatusBadRequest)
		return
	}

	if rh.scenarios != nil {
		if cached, err := rh.scenarios.GetScenario(r.Context(), eventID); err == nil {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(cached)
			return
		}
	}

	snapshot, err := scenario.ReconstructFromEvent(r.Context(), rh.repo, eventID)
	if err != nil {
		rh.jsonError(w, "Failed to reconstruct scenario: "+err.Error(), http.StatusNotFound)
		return
	}
	if rh.scenarios != nil {
		if err := rh.scenarios.SetScenario(context.WithoutCancel(r.Context()), eventID, snapshot); err != nil {
			rh.logger.Warn("Failed to cache scenario for " + eventID + ": " + err.Error())
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

// RegisterRoutes sets up the replay API routes.
func (rh *ReplayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/replay", rh.HandleReplay)
	mux.HandleFunc("/api/replay/event", rh.HandleEventDetail)
	mux.HandleFunc("/api/replay/stats", rh.HandleStats)
	mux.HandleFunc("/api/replay/scenario", rh.HandleScenario)
}

// jsonError sends an error response.
func (rh *ReplayHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
