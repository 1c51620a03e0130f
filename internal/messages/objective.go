package messages

// CompletionState tracks an instruction's lifecycle. It transitions away
// from none exactly once.
type CompletionState int

const (
	CompletionStateNone CompletionState = iota
	CompletionStateCompleted
	CompletionStateCancelled
)

// ObjectiveMessage is an instruction from the leader to the follower.
type ObjectiveMessage struct {
	Sender    Role   `json:"sender"`
	Text      string `json:"text"`
	UUID      string `json:"uuid"`
	Completed bool   `json:"completed"`
	Cancelled bool   `json:"cancelled"`
}

// Completion derives the lifecycle state from the flags.
func (o ObjectiveMessage) Completion() CompletionState {
	switch {
	case o.Completed:
		return CompletionStateCompleted
	case o.Cancelled:
		return CompletionStateCancelled
	default:
		return CompletionStateNone
	}
}

// ObjectiveCompleteMessage marks an instruction done by uuid.
type ObjectiveCompleteMessage struct {
	UUID string `json:"uuid"`
}
