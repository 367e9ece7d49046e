package prediction

import (
	"errors"
	"fmt"

	"github.com/kiranshivaraju/foresight/internal/store"
)

var (
	ErrPredictionNotFound = fmt.Errorf("prediction not found: %w", store.ErrNotFound)
	ErrAnalysisNotFound   = fmt.Errorf("analysis not found: %w", store.ErrNotFound)
)

// notFound maps store.ErrNotFound to sentinel, passing other errors through.
func notFound(err, sentinel error) error {
	if errors.Is(err, store.ErrNotFound) {
		return sentinel
	}
	return err
}
