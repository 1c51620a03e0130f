package messages

import (
	"errors"
	"fmt"
	"time"
)

// ErrEnvelopeMismatch is returned when an envelope's populated payload
// disagrees with its declared type tag. Such envelopes must be rejected,
// never interpreted by trusting the tag.
var ErrEnvelopeMismatch = errors.New("envelope payload does not match type tag")

// ToServerType tags the payload of a MessageToServer.
type ToServerType int

const (
	ToServerTypeActions ToServerType = iota
	ToServerTypeStateSyncRequest
	ToServerTypeRoomManagement
	ToServerTypeObjective
	ToServerTypeObjectiveCompleted
	ToServerTypeTurnComplete
	ToServerTypeTutorialRequest
	ToServerTypePong
	ToServerTypeLiveFeedback
	ToServerTypeScenarioRequest
)

// MessageToServer is the client-to-server envelope: a transmit timestamp,
// a type tag, and exactly one populated payload.
type MessageToServer struct {
	TransmitTime      time.Time                 `json:"transmit_time"`
	Type              ToServerType              `json:"type"`
	Actions           []Action                  `json:"actions,omitempty"`
	RoomRequest       *RoomManagementRequest    `json:"room_request,omitempty"`
	Objective         *ObjectiveMessage         `json:"objective,omitempty"`
	ObjectiveComplete *ObjectiveCompleteMessage `json:"objective_complete,omitempty"`
	TurnComplete      *TurnComplete             `json:"turn_complete,omitempty"`
	TutorialRequest   *TutorialRequest          `json:"tutorial_request,omitempty"`
	Pong              *Pong                     `json:"pong,omitempty"`
	LiveFeedback      *LiveFeedback             `json:"live_feedback,omitempty"`
	ScenarioRequest   *ScenarioRequest          `json:"scenario_request,omitempty"`
}

// Validate rejects envelopes whose populated fields disagree with the tag.
func (m *MessageToServer) Validate() error {
	populated := 0
	if len(m.Actions) > 0 {
		populated++
		if m.Type != ToServerTypeActions {
			return fmt.Errorf("actions populated under tag %d: %w", m.Type, ErrEnvelopeMismatch)
		}
	}
	for _, p := range []struct {
		set bool
		tag ToServerType
	}{
		{m.RoomRequest != nil, ToServerTypeRoomManagement},
		{m.Objective != nil, ToServerTypeObjective},
		{m.ObjectiveComplete != nil, ToServerTypeObjectiveCompleted},
		{m.TurnComplete != nil, ToServerTypeTurnComplete},
		{m.TutorialRequest != nil, ToServerTypeTutorialRequest},
		{m.Pong != nil, ToServerTypePong},
		{m.LiveFeedback != nil, ToServerTypeLiveFeedback},
		{m.ScenarioRequest != nil, ToServerTypeScenarioRequest},
	} {
		if p.set {
			populated++
			if m.Type != p.tag {
				return fmt.Errorf("payload for tag %d populated under tag %d: %w", p.tag, m.Type, ErrEnvelopeMismatch)
			}
		}
	}
	// A state sync request carries no payload; everything else carries
	// exactly one.
	if m.Type == ToServerTypeStateSyncRequest {
		if populated != 0 {
			return fmt.Errorf("state sync request with payload: %w", ErrEnvelopeMismatch)
		}
		return nil
	}
	if populated != 1 {
		return fmt.Errorf("expected exactly one payload, found %d: %w", populated, ErrEnvelopeMismatch)
	}
	return nil
}

// ActionsToServer wraps actions in a stamped envelope.
func ActionsToServer(actions []Action) *MessageToServer {
	return &MessageToServer{TransmitTime: time.Now(), Type: ToServerTypeActions, Actions: actions}
}

// ObjectiveToServer wraps a leader instruction in a stamped envelope.
func ObjectiveToServer(objective ObjectiveMessage) *MessageToServer {
	return &MessageToServer{TransmitTime: time.Now(), Type: ToServerTypeObjective, Objective: &objective}
}

// ObjectiveCompleteToServer marks an instruction done.
func ObjectiveCompleteToServer(uuid string) *MessageToServer {
	return &MessageToServer{
		TransmitTime:      time.Now(),
		Type:              ToServerTypeObjectiveCompleted,
		ObjectiveComplete: &ObjectiveCompleteMessage{UUID: uuid},
	}
}

// TurnCompleteToServer ends the sender's turn.
func TurnCompleteToServer() *MessageToServer {
	return &MessageToServer{TransmitTime: time.Now(), Type: ToServerTypeTurnComplete, TurnComplete: &TurnComplete{}}
}

// RoomRequestToServer wraps a room management request.
func RoomRequestToServer(req RoomManagementRequest) *MessageToServer {
	return &MessageToServer{TransmitTime: time.Now(), Type: ToServerTypeRoomManagement, RoomRequest: &req}
}

// ScenarioRequestToServer wraps a scenario control request.
func ScenarioRequestToServer(req ScenarioRequest) *MessageToServer {
	return &MessageToServer{TransmitTime: time.Now(), Type: ToServerTypeScenarioRequest, ScenarioRequest: &req}
}

// LiveFeedbackToServer wraps a live feedback signal.
func LiveFeedbackToServer(signal FeedbackType) *MessageToServer {
	return &MessageToServer{TransmitTime: time.Now(), Type: ToServerTypeLiveFeedback, LiveFeedback: &LiveFeedback{Signal: signal}}
}
