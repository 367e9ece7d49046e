package ai

import "github.com/kiranshivaraju/foresight/internal/ai/llmhttp"

// Provider errors are defined next to the HTTP client so provider packages
// can return them without importing this package.
var (
	ErrProviderUnavailable = llmhttp.ErrProviderUnavailable
	ErrInferenceTimeout    = llmhttp.ErrInferenceTimeout
	ErrInvalidResponse     = llmhttp.ErrInvalidResponse
)
