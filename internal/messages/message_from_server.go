package messages

import (
	"fmt"
	"time"
)

// FromServerType tags the payload of a MessageFromServer.
type FromServerType int

const (
	FromServerTypeActions FromServerType = iota
	FromServerTypeMapUpdate
	FromServerTypeStateSync
	FromServerTypeRoomManagement
	FromServerTypeObjectives
	FromServerTypeTurnState
	FromServerTypeScenarioResponse
	FromServerTypeLiveFeedback
	FromServerTypePropUpdate
	FromServerTypeStateMachineTick
)

// MessageFromServer is the server-to-client envelope: a transmit
// timestamp, a type tag, and exactly one populated payload.
type MessageFromServer struct {
	TransmitTime     time.Time               `json:"transmit_time"`
	Type             FromServerType          `json:"type"`
	Actions          []Action                `json:"actions,omitempty"`
	MapUpdate        *MapUpdate              `json:"map_update,omitempty"`
	State            *StateSync              `json:"state,omitempty"`
	RoomResponse     *RoomManagementResponse `json:"room_management_response,omitempty"`
	Objectives       []ObjectiveMessage      `json:"objectives,omitempty"`
	TurnState        *TurnState              `json:"turn_state,omitempty"`
	ScenarioResponse *ScenarioResponse       `json:"scenario_response,omitempty"`
	LiveFeedback     *LiveFeedback           `json:"live_feedback,omitempty"`
	PropUpdate       *PropUpdate             `json:"prop_update,omitempty"`
}

// Validate rejects envelopes whose populated fields disagree with the tag.
func (m *MessageFromServer) Validate() error {
	populated := 0
	if len(m.Actions) > 0 {
		populated++
		if m.Type != FromServerTypeActions {
			return fmt.Errorf("actions populated under tag %d: %w", m.Type, ErrEnvelopeMismatch)
		}
	}
	if len(m.Objectives) > 0 {
		populated++
		if m.Type != FromServerTypeObjectives {
			return fmt.Errorf("objectives populated under tag %d: %w", m.Type, ErrEnvelopeMismatch)
		}
	}
	for _, p := range []struct {
		set bool
		tag FromServerType
	}{
		{m.MapUpdate != nil, FromServerTypeMapUpdate},
		{m.State != nil, FromServerTypeStateSync},
		{m.RoomResponse != nil, FromServerTypeRoomManagement},
		{m.TurnState != nil, FromServerTypeTurnState},
		{m.ScenarioResponse != nil, FromServerTypeScenarioResponse},
		{m.LiveFeedback != nil, FromServerTypeLiveFeedback},
		{m.PropUpdate != nil, FromServerTypePropUpdate},
	} {
		if p.set {
			populated++
			if m.Type != p.tag {
				return fmt.Errorf("payload for tag %d populated under tag %d: %w", p.tag, m.Type, ErrEnvelopeMismatch)
			}
		}
	}
	// A tick is a bare heartbeat; everything else carries exactly one
	// payload. An empty objectives list under the objectives tag is legal.
	if m.Type == FromServerTypeStateMachineTick {
		if populated != 0 {
			return fmt.Errorf("state machine tick with payload: %w", ErrEnvelopeMismatch)
		}
		return nil
	}
	if m.Type == FromServerTypeObjectives && populated == 0 {
		return nil
	}
	if populated != 1 {
		return fmt.Errorf("expected exactly one payload, found %d: %w", populated, ErrEnvelopeMismatch)
	}
	return nil
}

// ActionsFromServer wraps actions in a stamped envelope.
func ActionsFromServer(actions []Action) *MessageFromServer {
	return &MessageFromServer{TransmitTime: time.Now(), Type: FromServerTypeActions, Actions: actions}
}

// MapUpdateFromServer wraps a map snapshot.
func MapUpdateFromServer(update MapUpdate) *MessageFromServer {
	return &MessageFromServer{TransmitTime: time.Now(), Type: FromServerTypeMapUpdate, MapUpdate: &update}
}

// StateSyncFromServer wraps an actor state snapshot.
func StateSyncFromServer(sync StateSync) *MessageFromServer {
	return &MessageFromServer{TransmitTime: time.Now(), Type: FromServerTypeStateSync, State: &sync}
}

// RoomResponseFromServer wraps a room management response.
func RoomResponseFromServer(resp RoomManagementResponse) *MessageFromServer {
	return &MessageFromServer{TransmitTime: time.Now(), Type: FromServerTypeRoomManagement, RoomResponse: &resp}
}

// ObjectivesFromServer wraps the instruction list.
func ObjectivesFromServer(objectives []ObjectiveMessage) *MessageFromServer {
	return &MessageFromServer{TransmitTime: time.Now(), Type: FromServerTypeObjectives, Objectives: objectives}
}

// TurnStateFromServer wraps a turn state snapshot.
func TurnStateFromServer(turn TurnState) *MessageFromServer {
	return &MessageFromServer{TransmitTime: time.Now(), Type: FromServerTypeTurnState, TurnState: &turn}
}

// PropUpdateFromServer wraps a prop snapshot.
func PropUpdateFromServer(update PropUpdate) *MessageFromServer {
	return &MessageFromServer{TransmitTime: time.Now(), Type: FromServerTypePropUpdate, PropUpdate: &update}
}

// ScenarioResponseFromServer wraps a scenario control response.
func ScenarioResponseFromServer(resp ScenarioResponse) *MessageFromServer {
	return &MessageFromServer{TransmitTime: time.Now(), Type: FromServerTypeScenarioResponse, ScenarioResponse: &resp}
}

// LiveFeedbackFromServer forwards a live feedback signal.
func LiveFeedbackFromServer(feedback LiveFeedback) *MessageFromServer {
	return &MessageFromServer{TransmitTime: time.Now(), Type: FromServerTypeLiveFeedback, LiveFeedback: &feedback}
}
