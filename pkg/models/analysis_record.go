package models

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// AnalysisStatusCompleted marks an analysis whose results are final.
const AnalysisStatusCompleted = "COMPLETED"

// AnalysisRecord is one anomaly-analysis run produced by the upstream detection system.
// Records are read-only to this service.
type AnalysisRecord struct {
	ID             uuid.UUID       `db:"id"              json:"id"`
	UserID         uuid.UUID       `db:"user_id"         json:"user_id"`
	Status         string          `db:"status"          json:"status"`
	AnomaliesFound int             `db:"anomalies_found" json:"anomalies_found"`
	Classification *string         `db:"classification"  json:"classification,omitempty"`
	Results        json.RawMessage `db:"results"         json:"results,omitempty"`
	CreatedAt      time.Time       `db:"created_at"      json:"created_at"`
}

type resultPayload struct {
	AnomalyType  string                     `json:"anomalyType"`
	AnomalyType2 string                     `json:"anomaly_type"`
	Metrics      map[string]json.RawMessage `json:"metrics"`
}

func (r *AnalysisRecord) payload() resultPayload {
	var p resultPayload
	if len(r.Results) == 0 {
		return p
	}
	// Malformed payloads are treated as empty.
	_ = json.Unmarshal(r.Results, &p)
	return p
}

// AnomalyType returns the declared anomaly type: the payload's anomalyType,
// then the classification tag, or "" when neither is present.
func (r *AnalysisRecord) AnomalyType() string {
	p := r.payload()
	if p.AnomalyType != "" {
		return p.AnomalyType
	}
	if p.AnomalyType2 != "" {
		return p.AnomalyType2
	}
	if r.Classification != nil {
		return *r.Classification
	}
	return ""
}

// Metrics returns the metrics embedded in the result payload. Numeric strings
// are accepted; any other non-numeric value reads as 0.
func (r *AnalysisRecord) Metrics() map[string]float64 {
	p := r.payload()
	out := make(map[string]float64, len(p.Metrics))
	for k, raw := range p.Metrics {
		out[k] = metricValue(raw)
	}
	return out
}

func metricValue(raw json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return 0
}
