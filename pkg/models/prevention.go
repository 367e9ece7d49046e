package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActionType identifies a mitigation directive.
type ActionType string

const (
	ActionThrottle      ActionType = "THROTTLE"
	ActionIsolate       ActionType = "ISOLATE"
	ActionScale         ActionType = "SCALE"
	ActionAlert         ActionType = "ALERT"
	ActionRollback      ActionType = "ROLLBACK"
	ActionCircuitBreak  ActionType = "CIRCUIT_BREAK"
	ActionAutoRemediate ActionType = "AUTO_REMEDIATE"
	ActionCustom        ActionType = "CUSTOM"
)

var knownActionTypes = map[ActionType]bool{
	ActionThrottle:      true,
	ActionIsolate:       true,
	ActionScale:         true,
	ActionAlert:         true,
	ActionRollback:      true,
	ActionCircuitBreak:  true,
	ActionAutoRemediate: true,
	ActionCustom:        true,
}

// ParseActionType normalizes s and reports whether it names a known action type.
func ParseActionType(s string) (ActionType, bool) {
	t := ActionType(strings.ToUpper(strings.TrimSpace(s)))
	return t, knownActionTypes[t]
}

// PreventionAction is a declarative mitigation directive. Lower priority executes first.
type PreventionAction struct {
	Type                   ActionType     `json:"type"`
	Config                 map[string]any `json:"config,omitempty"`
	Priority               int            `json:"priority"`
	EstimatedEffectiveness float64        `json:"estimated_effectiveness"`
	Prerequisites          []string       `json:"prerequisites,omitempty"`
	RollbackPlan           map[string]any `json:"rollback_plan,omitempty"`
}

// Execution statuses.
const (
	ExecutionStatusExecuted = "EXECUTED"
	ExecutionStatusFailed   = "FAILED"
)

// ActionExecution records one executed prevention action.
type ActionExecution struct {
	ID            uuid.UUID      `db:"id"            json:"id"`
	PredictionID  string         `db:"prediction_id" json:"prediction_id"`
	ActionType    ActionType     `db:"action_type"   json:"action_type"`
	Config        map[string]any `db:"config"        json:"config,omitempty"`
	Status        string         `db:"status"        json:"status"`
	Effectiveness float64        `db:"effectiveness" json:"effectiveness"`
	ExecutedAt    time.Time      `db:"executed_at"   json:"executed_at"`
}
