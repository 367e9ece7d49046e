package handler

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/foresight/internal/api/response"
	"github.com/kiranshivaraju/foresight/internal/prediction"
)

// Validator resolves due predictions.
type Validator interface {
	Validate(ctx context.Context) (prediction.ValidationResult, error)
}

// NewValidateHandler returns an http.HandlerFunc for POST /api/v1/predictions/validate.
func NewValidateHandler(svc Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Validate(r.Context())
		if err != nil {
			response.Internal(w, "validation failed", err)
			return
		}
		response.JSON(w, res)
	}
}
