package prediction

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/kiranshivaraju/foresight/internal/metrics"
	"github.com/kiranshivaraju/foresight/internal/store"
	"github.com/kiranshivaraju/foresight/pkg/models"
)

// validationWindow is how far either side of PredictedAt an occurrence counts.
const validationWindow = 2 * time.Hour

// ValidationResult summarises one validation pass.
type ValidationResult struct {
	Validated int     `json:"validated"`
	Accuracy  float64 `json:"accuracy"`
}

// Validator resolves due predictions against what actually happened.
type Validator struct {
	store     store.Store
	batchSize int
	now       func() time.Time
}

// NewValidator creates a Validator that resolves at most batchSize predictions per pass.
func NewValidator(st store.Store, batchSize int) *Validator {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Validator{store: st, batchSize: batchSize, now: time.Now}
}

// Validate resolves PENDING predictions whose time has come. A prediction is
// correct when a confident call (>0.5) saw an occurrence or an unconfident
// one saw none. Failures on individual predictions are logged and skipped.
func (v *Validator) Validate(ctx context.Context) (ValidationResult, error) {
	due, err := v.store.ListDuePredictions(ctx, v.now().UTC(), v.batchSize)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("listing due predictions: %w", err)
	}

	var validated, correct int
	for _, p := range due {
		occurred, err := v.occurred(ctx, p)
		if err != nil {
			slog.Warn("failed to load records for validation", "prediction_id", p.ID, "error", err)
			continue
		}

		status := outcome(p, occurred)
		if err := v.store.ResolvePrediction(ctx, p.ID, status, occurred); err != nil {
			slog.Warn("failed to resolve prediction", "prediction_id", p.ID, "status", status, "error", err)
			continue
		}

		ok := isCorrect(p.Confidence, occurred)
		validated++
		if ok {
			correct++
		}
		metrics.ValidationsTotal.WithLabelValues(status, strconv.FormatBool(ok)).Inc()
	}

	result := ValidationResult{Validated: validated}
	if validated > 0 {
		result.Accuracy = float64(correct) / float64(validated)
		metrics.ValidationAccuracy.Set(result.Accuracy)
	}
	slog.Info("validation pass complete", "due", len(due), "validated", validated, "accuracy", result.Accuracy)
	return result, nil
}

func (v *Validator) occurred(ctx context.Context, p *models.AnomalyPrediction) (bool, error) {
	records, err := v.store.ListAnalysisRecords(ctx, store.RecordFilter{
		UserID: p.UserID,
		Status: models.AnalysisStatusCompleted,
		Since:  p.PredictedAt.Add(-validationWindow),
		Until:  p.PredictedAt.Add(validationWindow),
	})
	if err != nil {
		return false, err
	}
	for _, r := range records {
		if r.AnomaliesFound > 0 {
			return true, nil
		}
	}
	return false, nil
}

func outcome(p *models.AnomalyPrediction, occurred bool) string {
	switch {
	case p.Prevented:
		return models.PredictionStatusPrevented
	case occurred:
		return models.PredictionStatusConfirmed
	default:
		return models.PredictionStatusFalsePositive
	}
}

func isCorrect(confidence float64, occurred bool) bool {
	return (confidence > 0.5 && occurred) || (confidence <= 0.5 && !occurred)
}
