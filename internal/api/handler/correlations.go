package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/kiranshivaraju/foresight/internal/api/middleware"
	"github.com/kiranshivaraju/foresight/internal/api/response"
	"github.com/kiranshivaraju/foresight/internal/prediction"
)

// Correlator finds analyses related to a given one.
type Correlator interface {
	Correlate(ctx context.Context, userID, analysisID uuid.UUID, windowHours int) ([]prediction.Correlation, error)
}

// NewCorrelationsHandler returns an http.HandlerFunc for
// GET /api/v1/analyses/{analysisID}/correlations.
func NewCorrelationsHandler(svc Correlator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		analysisID, err := uuid.Parse(chi.URLParam(r, "analysisID"))
		if err != nil {
			response.BadRequest(w, "analysisID must be a UUID")
			return
		}

		var window int
		if raw := r.URL.Query().Get("window_hours"); raw != "" {
			if window, err = strconv.Atoi(raw); err != nil {
				response.BadRequest(w, "window_hours must be an integer")
				return
			}
		}
		window = prediction.ClampWindow(window)

		correlations, err := svc.Correlate(r.Context(), userID, analysisID, window)
		if err != nil {
			if errors.Is(err, prediction.ErrAnalysisNotFound) {
				response.NotFound(w, "ANALYSIS_NOT_FOUND", "Analysis not found")
				return
			}
			response.Internal(w, "correlation lookup failed", err)
			return
		}
		if correlations == nil {
			correlations = []prediction.Correlation{}
		}
		response.List(w, correlations, len(correlations), 0)
	}
}
