// Package models contains shared data models used across the Foresight codebase.
package models

import "context"

// Advisor is the capability interface for the optional advisory oracle.
// Never call specific AI providers directly; inject this interface.
type Advisor interface {
	// Suggest sends a natural-language prompt plus a structured context and
	// returns the provider's free-text reply. The reply is untrusted.
	Suggest(ctx context.Context, prompt string, advisoryCtx AdvisoryContext) (string, error)
	// Name returns the provider identifier (e.g., "ollama", "openai").
	Name() string
}

// AdvisoryContext is the structured context sent alongside an advisory prompt.
type AdvisoryContext struct {
	UserID            string              `json:"user_id"`
	RecordCount       int                 `json:"record_count"`
	TrendSlope        float64             `json:"trend_slope"`
	Volatility        float64             `json:"volatility"`
	HourlyCounts      []float64           `json:"hourly_counts"`
	DominantType      string              `json:"dominant_type"`
	NativePredictions []PredictionSummary `json:"native_predictions"`
}

// PredictionSummary is a compact view of a native prediction for the advisor.
type PredictionSummary struct {
	AnomalyType  string  `json:"type"`
	Severity     string  `json:"severity"`
	Confidence   float64 `json:"confidence"`
	HorizonHours int     `json:"hours_ahead"`
}

// AdvisorySuggestion is one validated supplementary prediction parsed from an advisor reply.
type AdvisorySuggestion struct {
	AnomalyType string
	Severity    string
	Confidence  float64
	HoursAhead  int
	Actions     []ActionType
}
