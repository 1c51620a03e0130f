package state

import "time"

// Turn budgets. The leader plans, the follower walks, so the follower
// gets the larger move allowance.
const (
	LeaderMovesPerTurn   = 5
	FollowerMovesPerTurn = 10
	DefaultTurnsPerGame  = 16
	TurnDuration         = 60 * time.Second
)

// CardSetSize is the number of cards that make up a scoring set.
const CardSetSize = 3
