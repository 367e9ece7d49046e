package models

import (
	"time"

	"github.com/google/uuid"
)

// AnomalyRelationship is a knowledge-graph edge between two temporally adjacent analyses.
type AnomalyRelationship struct {
	ID               uuid.UUID `db:"id"                 json:"id"`
	UserID           uuid.UUID `db:"user_id"            json:"user_id"`
	SourceAnalysisID uuid.UUID `db:"source_analysis_id" json:"source_analysis_id"`
	TargetAnalysisID uuid.UUID `db:"target_analysis_id" json:"target_analysis_id"`
	SourceType       string    `db:"-"                  json:"source_type,omitempty"`
	TargetType       string    `db:"-"                  json:"target_type,omitempty"`
	RelationshipType string    `db:"relationship_type"  json:"relationship_type"`
	Strength         float64   `db:"strength"           json:"strength"`
	DelayHours       *float64  `db:"delay_hours"        json:"delay_hours,omitempty"`
	CausalConfidence float64   `db:"causal_confidence"  json:"causal_confidence"`
	EvidenceCount    int       `db:"evidence_count"     json:"evidence_count"`
	CreatedAt        time.Time `db:"created_at"         json:"created_at"`
}
