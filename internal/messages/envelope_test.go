package messages

import (
	"errors"
	"testing"
)

func TestToServerEnvelopeRejectsMismatchedPayload(t *testing.T) {
	// Tag says actions, payload carries an objective.
	msg := &MessageToServer{
		Type:      ToServerTypeActions,
		Objective: &ObjectiveMessage{Text: "go left"},
	}

	err := msg.Validate()
	if !errors.Is(err, ErrEnvelopeMismatch) {
		t.Errorf("Expected ErrEnvelopeMismatch for mismatched payload, got %v", err)
	}
}

func TestToServerEnvelopeRejectsMultiplePayloads(t *testing.T) {
	msg := &MessageToServer{
		Type:         ToServerTypeObjective,
		Objective:    &ObjectiveMessage{Text: "go left"},
		TurnComplete: &TurnComplete{},
	}

	err := msg.Validate()
	if !errors.Is(err, ErrEnvelopeMismatch) {
		t.Errorf("Expected ErrEnvelopeMismatch for double payload, got %v", err)
	}
}

func TestToServerEnvelopeRejectsEmptyPayload(t *testing.T) {
	msg := &MessageToServer{Type: ToServerTypeObjective}

	err := msg.Validate()
	if !errors.Is(err, ErrEnvelopeMismatch) {
		t.Errorf("Expected ErrEnvelopeMismatch for missing payload, got %v", err)
	}
}

func TestStateSyncRequestCarriesNoPayload(t *testing.T) {
	bare := &MessageToServer{Type: ToServerTypeStateSyncRequest}
	if err := bare.Validate(); err != nil {
		t.Errorf("Expected bare state sync request to validate, got %v", err)
	}

	loaded := &MessageToServer{
		Type:      ToServerTypeStateSyncRequest,
		Objective: &ObjectiveMessage{Text: "sneaky"},
	}
	if err := loaded.Validate(); !errors.Is(err, ErrEnvelopeMismatch) {
		t.Errorf("Expected ErrEnvelopeMismatch for loaded sync request, got %v", err)
	}
}

func TestToServerConstructorsValidate(t *testing.T) {
	msgs := []*MessageToServer{
		ActionsToServer([]Action{NoopAction(0)}),
		ObjectiveToServer(ObjectiveMessage{Text: "collect the red card"}),
		ObjectiveCompleteToServer("uuid-1"),
		TurnCompleteToServer(),
		RoomRequestToServer(RoomManagementRequest{Type: RoomRequestTypeJoin}),
		ScenarioRequestToServer(ScenarioRequest{Type: ScenarioRequestTypeRegisterTrigger, Trigger: &Trigger{Name: "t"}}),
		LiveFeedbackToServer(FeedbackTypePositive),
	}
	for i, msg := range msgs {
		if err := msg.Validate(); err != nil {
			t.Errorf("Constructor %d produced invalid envelope: %v", i, err)
		}
	}
}

func TestFromServerEnvelopeRejectsMismatchedPayload(t *testing.T) {
	turn := TurnState{Turn: RoleLeader}
	msg := &MessageFromServer{
		Type:      FromServerTypeMapUpdate,
		TurnState: &turn,
	}

	err := msg.Validate()
	if !errors.Is(err, ErrEnvelopeMismatch) {
		t.Errorf("Expected ErrEnvelopeMismatch, got %v", err)
	}
}

func TestFromServerEmptyObjectivesListIsLegal(t *testing.T) {
	msg := ObjectivesFromServer(nil)
	if err := msg.Validate(); err != nil {
		t.Errorf("Expected empty objectives list to validate, got %v", err)
	}
}

func TestStateMachineTickCarriesNoPayload(t *testing.T) {
	turn := TurnState{}
	loaded := &MessageFromServer{
		Type:      FromServerTypeStateMachineTick,
		TurnState: &turn,
	}
	if err := loaded.Validate(); !errors.Is(err, ErrEnvelopeMismatch) {
		t.Errorf("Expected ErrEnvelopeMismatch for loaded tick, got %v", err)
	}
}
