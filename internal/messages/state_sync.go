package messages

import "github.com/EvLab-MIT/cb2/internal/hexgrid"

// ActorState is one actor's pose as seen in a state sync.
type ActorState struct {
	ActorID  int               `json:"actor_id"`
	Role     Role              `json:"actor_role"`
	Location hexgrid.HecsCoord `json:"location"`
	Rotation float64           `json:"rotation_degrees"`
}

// StateSync is a full actor-state snapshot, addressed to one player so
// the client knows which actor it controls.
type StateSync struct {
	Population int          `json:"population"`
	Actors     []ActorState `json:"actors"`
	PlayerID   int          `json:"player_id"`
	PlayerRole Role         `json:"player_role"`
}

// StateSyncRequest asks the server for a fresh StateSync.
type StateSyncRequest struct{}
