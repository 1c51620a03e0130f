package messages

// FeedbackType is the leader's real-time signal to the follower.
type FeedbackType int

const (
	FeedbackTypeNone FeedbackType = iota
	FeedbackTypePositive
	FeedbackTypeNegative
)

// LiveFeedback is transient signaling; it never touches game state and is
// not persisted as part of scenario snapshots.
type LiveFeedback struct {
	Signal FeedbackType `json:"signal"`
}
