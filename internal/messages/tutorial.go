package messages

// TutorialRequestType enumerates tutorial control requests.
type TutorialRequestType int

const (
	TutorialRequestTypeNone TutorialRequestType = iota
	TutorialRequestTypeStart
	TutorialRequestTypeNextStep
)

// TutorialRequest drives the scripted tutorial flow. The session layer
// only frames these; tutorial content is external.
type TutorialRequest struct {
	Type         TutorialRequestType `json:"type"`
	TutorialName string              `json:"tutorial_name,omitempty"`
}

// Pong answers a server ping, echoing its timestamp for latency tracking.
type Pong struct {
	PingReceiveTime string `json:"ping_receive_time"`
}
