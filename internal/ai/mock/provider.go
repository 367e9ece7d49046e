package mock

import (
	"context"

	"github.com/kiranshivaraju/foresight/internal/ai/llmhttp"
	"github.com/kiranshivaraju/foresight/pkg/models"
)

// MockProvider satisfies models.Advisor for tests and local development.
type MockProvider struct {
	Name_       string
	SuggestFunc func(ctx context.Context, prompt string, actx models.AdvisoryContext) (string, error)
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Suggest(ctx context.Context, prompt string, actx models.AdvisoryContext) (string, error) {
	if m.SuggestFunc != nil {
		return m.SuggestFunc(ctx, prompt, actx)
	}
	return "", nil
}

// NewMockProvider returns a MockProvider that echoes one supplementary
// prediction for the context's dominant type, 24 hours ahead.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		SuggestFunc: func(_ context.Context, _ string, actx models.AdvisoryContext) (string, error) {
			return `{"additionalPredictions": [{"type": "` + actx.DominantType + `", "severity": "MEDIUM",` +
				` "confidence": 0.6, "hoursAhead": 24, "actions": ["ALERT"]}]}`, nil
		},
	}
}

// NewStaticProvider returns a MockProvider that always replies with reply.
func NewStaticProvider(reply string) *MockProvider {
	return &MockProvider{
		Name_: "mock-static",
		SuggestFunc: func(_ context.Context, _ string, _ models.AdvisoryContext) (string, error) {
			return reply, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		SuggestFunc: func(_ context.Context, _ string, _ models.AdvisoryContext) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		SuggestFunc: func(ctx context.Context, _ string, _ models.AdvisoryContext) (string, error) {
			<-ctx.Done()
			return "", llmhttp.ErrInferenceTimeout
		},
	}
}

// Compile-time check that MockProvider implements Advisor.
var _ models.Advisor = (*MockProvider)(nil)
