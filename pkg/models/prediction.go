package models

import (
	"time"

	"github.com/google/uuid"
)

// Prediction lifecycle. PENDING is initial; the others are terminal.
const (
	PredictionStatusPending       = "PENDING"
	PredictionStatusConfirmed     = "CONFIRMED"
	PredictionStatusPrevented     = "PREVENTED"
	PredictionStatusFalsePositive = "FALSE_POSITIVE"
)

// Prediction sources.
const (
	PredictionSourceEnsemble = "ensemble"
	PredictionSourceAdvisory = "advisory"
)

// Severity is the bucketed impact of a predicted anomaly.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank orders severities LOW < MEDIUM < HIGH < CRITICAL. Unknown values rank below LOW.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// TrendDirection describes where a risk factor is heading.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "INCREASING"
	TrendStable     TrendDirection = "STABLE"
	TrendDecreasing TrendDirection = "DECREASING"
)

// Relationship kinds shared by causal links and knowledge-graph edges.
const (
	RelationshipCauses         = "CAUSES"
	RelationshipPrecedes       = "PRECEDES"
	RelationshipCorrelatesWith = "CORRELATES_WITH"
	RelationshipTriggers       = "TRIGGERS"
	RelationshipAmplifies      = "AMPLIFIES"
)

// EnsembleVote is one predictor's opinion for a single horizon.
type EnsembleVote struct {
	Predictor   string  `json:"predictor"`
	Prediction  bool    `json:"prediction"`
	Probability float64 `json:"probability"`
	Confidence  float64 `json:"confidence"`
	Weight      float64 `json:"weight"`
}

// CausalLink is a directed relationship between two anomaly types.
type CausalLink struct {
	FromType     string   `json:"from_type"`
	ToType       string   `json:"to_type"`
	Relationship string   `json:"relationship"`
	Strength     float64  `json:"strength"`
	DelayHours   *float64 `json:"delay_hours,omitempty"`
	Evidence     []string `json:"evidence,omitempty"`
	Method       string   `json:"method"`
}

// RiskFactor is an action-oriented explanation attached to a prediction.
type RiskFactor struct {
	Factor       string         `json:"factor"`
	Contribution float64        `json:"contribution"`
	Trend        TrendDirection `json:"trend"`
	Actionable   bool           `json:"actionable"`
}

// AnomalyPrediction is a forecast of an anomaly within a fixed horizon.
type AnomalyPrediction struct {
	ID                      string             `db:"id"                       json:"id"`
	UserID                  uuid.UUID          `db:"user_id"                  json:"user_id"`
	AnalysisID              *uuid.UUID         `db:"analysis_id"              json:"analysis_id,omitempty"`
	AnomalyType             string             `db:"anomaly_type"             json:"anomaly_type"`
	Severity                Severity           `db:"severity"                 json:"severity"`
	Probability             float64            `db:"probability"              json:"probability"`
	Confidence              float64            `db:"confidence"               json:"confidence"`
	PredictedAt             time.Time          `db:"predicted_at"             json:"predicted_at"`
	HorizonHours            int                `db:"horizon_hours"            json:"horizon_hours"`
	Source                  string             `db:"source"                   json:"source"`
	PreventionActions       []PreventionAction `db:"prevention_actions"       json:"prevention_actions"`
	CausalChain             []CausalLink       `db:"causal_chain"             json:"causal_chain"`
	EnsembleVotes           []EnsembleVote     `db:"ensemble_votes"           json:"ensemble_votes,omitempty"`
	RiskFactors             []RiskFactor       `db:"risk_factors"             json:"risk_factors"`
	Status                  string             `db:"status"                   json:"status"`
	ActualOccurred          *bool              `db:"actual_occurred"          json:"actual_occurred,omitempty"`
	Prevented               bool               `db:"prevented"                json:"prevented"`
	PreventionEffectiveness *float64           `db:"prevention_effectiveness" json:"prevention_effectiveness,omitempty"`
	CreatedAt               time.Time          `db:"created_at"               json:"created_at"`
	UpdatedAt               time.Time          `db:"updated_at"               json:"updated_at"`
	ValidatedAt             *time.Time         `db:"validated_at"             json:"validated_at,omitempty"`
}
