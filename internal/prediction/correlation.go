package prediction

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/foresight/internal/analysis"
	"github.com/kiranshivaraju/foresight/internal/store"
	"github.com/kiranshivaraju/foresight/pkg/models"
)

const (
	defaultCorrelationWindow = 24
	maxCorrelationWindow     = 168
	minCorrelationStrength   = 0.2

	DirectionPrecedes = "PRECEDES"
	DirectionFollows  = "FOLLOWS"
)

// Correlation relates one analysis to a neighbouring one.
type Correlation struct {
	AnalysisID          uuid.UUID `json:"analysis_id"`
	CorrelationStrength float64   `json:"correlation_strength"`
	TimeDifference      float64   `json:"time_difference_hours"`
	AnomalyType         string    `json:"anomaly_type,omitempty"`
	Direction           string    `json:"direction"`
}

// CorrelationService finds analyses related to a given one.
type CorrelationService struct {
	store store.Store
}

func NewCorrelationService(st store.Store) *CorrelationService {
	return &CorrelationService{store: st}
}

// ClampWindow applies the default and bounds to a requested window in hours.
func ClampWindow(hours int) int {
	switch {
	case hours <= 0:
		return defaultCorrelationWindow
	case hours > maxCorrelationWindow:
		return maxCorrelationWindow
	default:
		return hours
	}
}

// Correlate scores every other completed analysis of the same user within
// ±windowHours of analysisID and returns those above 0.2, strongest first.
// When userID is not uuid.Nil the analysis must belong to that user.
func (c *CorrelationService) Correlate(ctx context.Context, userID, analysisID uuid.UUID, windowHours int) ([]Correlation, error) {
	target, err := c.store.GetAnalysisRecord(ctx, analysisID)
	if err != nil {
		return nil, notFound(err, ErrAnalysisNotFound)
	}
	if userID != uuid.Nil && target.UserID != userID {
		return nil, ErrAnalysisNotFound
	}

	window := time.Duration(ClampWindow(windowHours)) * time.Hour
	records, err := c.store.ListAnalysisRecords(ctx, store.RecordFilter{
		UserID: target.UserID,
		Status: models.AnalysisStatusCompleted,
		Since:  target.CreatedAt.Add(-window),
		Until:  target.CreatedAt.Add(window),
	})
	if err != nil {
		return nil, fmt.Errorf("loading neighbouring analyses: %w", err)
	}

	out := make([]Correlation, 0, len(records))
	for _, r := range records {
		if r.ID == target.ID {
			continue
		}
		gap := r.CreatedAt.Sub(target.CreatedAt)
		if gap < 0 {
			gap = -gap
		}
		strength, _ := analysis.CausalConfidence(target, r, gap, window)
		if strength <= minCorrelationStrength {
			continue
		}
		dir := DirectionFollows
		if r.CreatedAt.Before(target.CreatedAt) {
			dir = DirectionPrecedes
		}
		out = append(out, Correlation{
			AnalysisID:          r.ID,
			CorrelationStrength: strength,
			TimeDifference:      gap.Hours(),
			AnomalyType:         r.AnomalyType(),
			Direction:           dir,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CorrelationStrength > out[j].CorrelationStrength })
	return out, nil
}
