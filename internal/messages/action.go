package messages

import (
	"time"

	"github.com/EvLab-MIT/cb2/internal/hexgrid"
)

// ActionType categorizes what an action does to an actor or prop.
type ActionType int

const (
	ActionTypeInit ActionType = iota
	ActionTypeInstant
	ActionTypeRotate
	ActionTypeTranslate
	ActionTypeOutline
)

// AnimationType is a rendering hint carried alongside the action. The
// server never interprets it beyond validation.
type AnimationType int

const (
	AnimationTypeNone AnimationType = iota
	AnimationTypeIdle
	AnimationTypeWalking
	AnimationTypeInstant
	AnimationTypeTranslate
	AnimationTypeAccelDecel
	AnimationTypeSkipping
	AnimationTypeRotate
)

// Action is a single movement or pose change issued by an actor. Actions
// are immutable once issued; the state machine accepts or rejects them
// whole.
type Action struct {
	ID            int               `json:"id"`
	ActionType    ActionType        `json:"action_type"`
	AnimationType AnimationType     `json:"animation_type"`
	Displacement  hexgrid.HecsCoord `json:"displacement"`
	Rotation      float64           `json:"rotation"`
	BorderRadius  float64           `json:"border_radius"`
	DurationS     float64           `json:"duration_s"`
	Expiration    time.Time         `json:"expiration"`
}

// NoopAction builds an action that moves nothing. Stepping with a noop is
// the standard way for a client to poll the game without acting.
func NoopAction(actorID int) Action {
	return Action{
		ID:            actorID,
		ActionType:    ActionTypeTranslate,
		AnimationType: AnimationTypeIdle,
		DurationS:     0.1,
		Expiration:    time.Now().Add(10 * time.Second),
	}
}

// IsNoop reports whether the action carries no displacement or rotation.
func (a Action) IsNoop() bool {
	return a.Displacement == hexgrid.HecsCoord{} && a.Rotation == 0 &&
		a.ActionType != ActionTypeInstant
}
