package messages

import "time"

// TurnState describes whose turn it is and what budget remains. A
// terminal TurnState (GameOver set) is never mutated again.
type TurnState struct {
	Turn           Role      `json:"turn"`
	MovesRemaining int       `json:"moves_remaining"`
	TurnsLeft      int       `json:"turns_left"`
	TurnEnd        time.Time `json:"turn_end"`
	GameStart      time.Time `json:"game_start"`
	SetsCollected  int       `json:"sets_collected"`
	Score          int       `json:"score"`
	GameOver       bool      `json:"game_over"`
	TurnNumber     int       `json:"turn_number"`
}

// TurnComplete is the client's request to end its turn early.
type TurnComplete struct {
	ReplayTime time.Time `json:"replay_time"`
}
