package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kiranshivaraju/foresight/internal/analysis"
	mw "github.com/kiranshivaraju/foresight/internal/api/middleware"
	"github.com/kiranshivaraju/foresight/internal/api/response"
	"github.com/kiranshivaraju/foresight/internal/prediction"
	"github.com/kiranshivaraju/foresight/pkg/models"
)

// Preventer executes prevention actions for a prediction.
type Preventer interface {
	Execute(ctx context.Context, predictionID string, actions []models.PreventionAction) (*prediction.PreventionResult, error)
}

type actionRequest struct {
	Type     string         `json:"type"`
	Config   map[string]any `json:"config"`
	Priority *int           `json:"priority"`
}

// NewPreventHandler returns an http.HandlerFunc for
// POST /api/v1/predictions/{predictionID}/prevent. Actions given by type only
// take the default template for the prediction; config and priority override it.
func NewPreventHandler(preds Predictor, svc Preventer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		var req struct {
			Actions []actionRequest `json:"actions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			response.BadRequest(w, "Invalid JSON body")
			return
		}

		p, err := preds.Get(r.Context(), userID, chi.URLParam(r, "predictionID"))
		if err != nil {
			writePredictionError(w, err)
			return
		}

		actions := make([]models.PreventionAction, 0, len(req.Actions))
		for _, a := range req.Actions {
			t, ok := models.ParseActionType(a.Type)
			if !ok {
				response.BadRequest(w, "unknown action type: "+a.Type)
				return
			}
			action := analysis.ActionTemplate(t, p.Severity, p.AnomalyType)
			if a.Config != nil {
				action.Config = a.Config
			}
			if a.Priority != nil {
				action.Priority = *a.Priority
			}
			actions = append(actions, action)
		}

		result, err := svc.Execute(r.Context(), p.ID, actions)
		if err != nil {
			writePredictionError(w, err)
			return
		}
		response.JSON(w, result)
	}
}
