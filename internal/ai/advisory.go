package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/foresight/internal/cache"
	"github.com/kiranshivaraju/foresight/pkg/models"
)

const advisoryPrompt = `Review the anomaly statistics in the context below together with the predictions already made.
Suggest at most three additional predictions the statistics support but the existing predictions miss.
Respond with JSON of the form:
{"additionalPredictions": [{"type": "<anomaly type>", "severity": "LOW|MEDIUM|HIGH|CRITICAL",
"confidence": <0..1>, "hoursAhead": <1|6|24|168>, "actions": ["ALERT", "THROTTLE", ...]}]}
Return {"additionalPredictions": []} when nothing should be added.`

// AdvisoryService asks the configured advisor for supplementary predictions.
// Replies are cached by prompt hash so identical contexts hit the model once.
type AdvisoryService struct {
	advisor models.Advisor
	cache   cache.Cache
	ttl     time.Duration
	timeout time.Duration
}

// NewAdvisoryService creates a new AdvisoryService.
func NewAdvisoryService(advisor models.Advisor, ca cache.Cache, ttl, timeout time.Duration) *AdvisoryService {
	return &AdvisoryService{
		advisor: advisor,
		cache:   ca,
		ttl:     ttl,
		timeout: timeout,
	}
}

// Name returns the underlying provider name.
func (s *AdvisoryService) Name() string { return s.advisor.Name() }

// Advise returns the parsed suggestions for actx. Any failure of the advisor,
// including a reply that is not the expected JSON, is returned as an error.
func (s *AdvisoryService) Advise(ctx context.Context, actx models.AdvisoryContext) ([]models.AdvisorySuggestion, error) {
	key, err := s.cacheKey(actx)
	if err != nil {
		return nil, err
	}

	if raw, found, err := s.cache.Get(ctx, key); err == nil && found {
		if suggestions, err := ParseSuggestions(string(raw)); err == nil {
			return suggestions, nil
		}
	}

	adviseCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.advisor.Suggest(adviseCtx, advisoryPrompt, actx)
	if err != nil {
		if adviseCtx.Err() != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
		}
		return nil, err
	}

	suggestions, err := ParseSuggestions(reply)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, []byte(reply), s.ttl); err != nil {
		slog.Warn("failed to cache advisory reply", "provider", s.advisor.Name(), "error", err)
	}
	return suggestions, nil
}

func (s *AdvisoryService) cacheKey(actx models.AdvisoryContext) (string, error) {
	raw, err := json.Marshal(actx)
	if err != nil {
		return "", fmt.Errorf("marshal advisory context: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(advisoryPrompt))
	h.Write(raw)
	return cache.AdvisoryKey(s.advisor.Name(), hex.EncodeToString(h.Sum(nil))), nil
}
