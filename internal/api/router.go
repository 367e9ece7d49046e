package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/kiranshivaraju/foresight/internal/api/middleware"
	"github.com/kiranshivaraju/foresight/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler      http.HandlerFunc
	CreatePredictions  http.HandlerFunc
	ListPredictions    http.HandlerFunc
	GetPrediction      http.HandlerFunc
	PreventPrediction  http.HandlerFunc
	ValidatePrediction http.HandlerFunc
	Correlations       http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/predictions", orNotImplemented(deps.CreatePredictions))
		r.Get("/api/v1/predictions", orNotImplemented(deps.ListPredictions))
		r.Get("/api/v1/predictions/{predictionID}", orNotImplemented(deps.GetPrediction))
		r.Post("/api/v1/predictions/{predictionID}/prevent", orNotImplemented(deps.PreventPrediction))

		r.Get("/api/v1/analyses/{analysisID}/correlations", orNotImplemented(deps.Correlations))

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireScope("admin"))

			r.Post("/api/v1/predictions/validate", orNotImplemented(deps.ValidatePrediction))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
