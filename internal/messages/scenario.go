package messages

import "github.com/EvLab-MIT/cb2/internal/hexgrid"

// TriggerType names the condition class a trigger watches for.
type TriggerType int

const (
	TriggerTypeNone TriggerType = iota
	TriggerTypeLocationReached
	TriggerTypeObjectiveCompleted
	TriggerTypeCardSetCompleted
)

// Trigger is a named condition over game state. Once its condition holds
// it fires exactly once, adjusting score and possibly ending the game.
type Trigger struct {
	Type       TriggerType       `json:"type"`
	Name       string            `json:"name"`
	ActorID    int               `json:"actor_id"`
	Location   hexgrid.HecsCoord `json:"location"`
	Objective  string            `json:"objective"`
	ScoreDelta int               `json:"score_delta"`
	EndsGame   bool              `json:"ends_game"`
}

// TriggerReport announces that a trigger fired.
type TriggerReport struct {
	Type      TriggerType       `json:"type"`
	Name      string            `json:"name"`
	ActorID   int               `json:"actor_id"`
	Location  hexgrid.HecsCoord `json:"location"`
	Objective string            `json:"objective"`
	Score     int               `json:"score"`
}

// Scenario is a complete, reloadable snapshot of a game: enough to
// reinitialize a state machine bit-for-bit.
type Scenario struct {
	Map        MapUpdate          `json:"map"`
	PropUpdate PropUpdate         `json:"prop_update"`
	TurnState  TurnState          `json:"turn_state"`
	Objectives []ObjectiveMessage `json:"objectives"`
	ActorState StateSync          `json:"actor_state"`
}

// ScenarioRequestType enumerates scenario control requests.
type ScenarioRequestType int

const (
	ScenarioRequestTypeNone ScenarioRequestType = iota
	ScenarioRequestTypeOpenScenarioWorld
	ScenarioRequestTypeLoadScenario
	ScenarioRequestTypeEndScenario
	ScenarioRequestTypeRegisterTrigger
)

// ScenarioRequest loads, ends or instruments a scenario game.
type ScenarioRequest struct {
	Type         ScenarioRequestType `json:"type"`
	ScenarioData *Scenario           `json:"scenario_data,omitempty"`
	Trigger      *Trigger            `json:"trigger,omitempty"`
}

// ScenarioResponseType enumerates scenario control responses.
type ScenarioResponseType int

const (
	ScenarioResponseTypeNone ScenarioResponseType = iota
	ScenarioResponseTypeLoaded
	ScenarioResponseTypeTriggerReport
)

// ScenarioResponse acknowledges a load or reports a fired trigger.
type ScenarioResponse struct {
	Type          ScenarioResponseType `json:"type"`
	TriggerReport *TriggerReport       `json:"trigger_report,omitempty"`
}
