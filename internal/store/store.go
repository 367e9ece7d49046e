package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/foresight/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")
var ErrInvalidTransition = errors.New("invalid status transition")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error

	ListAnalysisRecords(ctx context.Context, filter RecordFilter) ([]*models.AnalysisRecord, error)
	GetAnalysisRecord(ctx context.Context, id uuid.UUID) (*models.AnalysisRecord, error)

	CreatePrediction(ctx context.Context, p *models.AnomalyPrediction) error
	GetPrediction(ctx context.Context, id string) (*models.AnomalyPrediction, error)
	ListPredictions(ctx context.Context, filter PredictionFilter) ([]*models.AnomalyPrediction, error)
	ListDuePredictions(ctx context.Context, before time.Time, limit int) ([]*models.AnomalyPrediction, error)
	MarkPrevented(ctx context.Context, id string, effectiveness float64) error
	ResolvePrediction(ctx context.Context, id string, status string, occurred bool) error

	CreateActionExecution(ctx context.Context, exec *models.ActionExecution) error

	// InsertRelationship stores an edge unless one already exists for the same
	// (source, target, type); the bool reports whether a row was written.
	InsertRelationship(ctx context.Context, rel *models.AnomalyRelationship) (bool, error)
}

// RecordFilter selects analysis records. Results are ordered by created_at
// ascending; a positive Limit keeps the newest rows.
type RecordFilter struct {
	UserID uuid.UUID
	Status string
	Since  time.Time
	Until  time.Time
	Limit  int
}

// PredictionFilter selects a user's predictions, newest first.
type PredictionFilter struct {
	UserID uuid.UUID
	Status string
	Limit  int
}
