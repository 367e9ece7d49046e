package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/kiranshivaraju/foresight/internal/api/middleware"
	"github.com/kiranshivaraju/foresight/internal/api/response"
	"github.com/kiranshivaraju/foresight/internal/prediction"
	"github.com/kiranshivaraju/foresight/pkg/models"
)

const (
	maxLookbackDays  = 365
	maxHorizonHours  = 168
	defaultListLimit = 50
	maxListLimit     = 500
)

// Predictor is the prediction service the handlers depend on.
type Predictor interface {
	Predict(ctx context.Context, req prediction.PredictRequest) ([]*models.AnomalyPrediction, error)
	Get(ctx context.Context, userID uuid.UUID, id string) (*models.AnomalyPrediction, error)
	List(ctx context.Context, userID uuid.UUID, status string, limit int) ([]*models.AnomalyPrediction, error)
}

// NewCreatePredictionsHandler returns an http.HandlerFunc for POST /api/v1/predictions.
func NewCreatePredictionsHandler(svc Predictor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		var req struct {
			AnalysisID      string `json:"analysis_id"`
			LookbackDays    int    `json:"lookback_days"`
			MaxHorizonHours int    `json:"max_horizon_hours"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			response.BadRequest(w, "Invalid JSON body")
			return
		}

		if req.LookbackDays < 0 || req.LookbackDays > maxLookbackDays {
			response.BadRequest(w, "lookback_days must be between 1 and 365")
			return
		}
		if req.MaxHorizonHours < 0 || req.MaxHorizonHours > maxHorizonHours {
			response.BadRequest(w, "max_horizon_hours must be between 1 and 168")
			return
		}

		params := prediction.PredictRequest{
			UserID:          userID,
			LookbackDays:    req.LookbackDays,
			MaxHorizonHours: req.MaxHorizonHours,
		}
		if req.AnalysisID != "" {
			id, err := uuid.Parse(req.AnalysisID)
			if err != nil {
				response.BadRequest(w, "analysis_id must be a UUID")
				return
			}
			params.AnalysisID = &id
		}

		preds, err := svc.Predict(r.Context(), params)
		if errors.Is(err, prediction.ErrAnalysisNotFound) {
			response.NotFound(w, "ANALYSIS_NOT_FOUND", "Analysis not found")
			return
		}
		if err != nil {
			response.Internal(w, "prediction run failed", err)
			return
		}
		response.Created(w, preds)
	}
}

// NewListPredictionsHandler returns an http.HandlerFunc for GET /api/v1/predictions.
func NewListPredictionsHandler(svc Predictor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		status := r.URL.Query().Get("status")
		switch status {
		case "", models.PredictionStatusPending, models.PredictionStatusConfirmed,
			models.PredictionStatusPrevented, models.PredictionStatusFalsePositive:
		default:
			response.BadRequest(w, "status must be one of PENDING, CONFIRMED, PREVENTED, FALSE_POSITIVE")
			return
		}

		limit := defaultListLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				response.BadRequest(w, "limit must be a positive integer")
				return
			}
			limit = min(n, maxListLimit)
		}

		preds, err := svc.List(r.Context(), userID, status, limit)
		if err != nil {
			response.Internal(w, "list predictions failed", err)
			return
		}
		response.List(w, preds, len(preds), limit)
	}
}

// NewGetPredictionHandler returns an http.HandlerFunc for GET /api/v1/predictions/{predictionID}.
func NewGetPredictionHandler(svc Predictor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		p, err := svc.Get(r.Context(), userID, chi.URLParam(r, "predictionID"))
		if err != nil {
			writePredictionError(w, err)
			return
		}
		response.JSON(w, p)
	}
}

func writePredictionError(w http.ResponseWriter, err error) {
	if errors.Is(err, prediction.ErrPredictionNotFound) {
		response.NotFound(w, "PREDICTION_NOT_FOUND", "Prediction not found")
		return
	}
	response.Internal(w, "prediction lookup failed", err)
}
