package ai_test

import (
	"testing"

	"github.com/kiranshivaraju/foresight/internal/ai"
	"github.com/kiranshivaraju/foresight/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSuggestions_Valid(t *testing.T) {
	reply := "Here you go:\n```json\n" + `{"additionalPredictions": [
		{"type": "memory_leak", "severity": "high", "confidence": 0.8, "hoursAhead": 6,
		 "actions": ["ALERT", {"type": "throttle"}, "TELEPORT", 42]}
	]}` + "\n```"

	got, err := ai.ParseSuggestions(reply)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "memory_leak", got[0].AnomalyType)
	assert.Equal(t, "high", got[0].Severity)
	assert.InDelta(t, 0.8, got[0].Confidence, 1e-9)
	assert.Equal(t, 6, got[0].HoursAhead)
	assert.Equal(t, []models.ActionType{models.ActionAlert, models.ActionThrottle}, got[0].Actions)
}

func TestParseSuggestions_LenientNumbers(t *testing.T) {
	got, err := ai.ParseSuggestions(`{"additionalPredictions": [
		{"type": "a", "confidence": "0.7", "hoursAhead": "24"},
		{"type": "b", "confidence": "high", "hoursAhead": 1},
		{"type": "c", "confidence": 0.5, "hoursAhead": 2.5},
		{"type": "d", "confidence": 0.5},
		{"type": "e", "confidence": 0.5, "hoursAhead": "soon"}
	]}`)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].AnomalyType)
	assert.InDelta(t, 0.7, got[0].Confidence, 1e-9)
	assert.Equal(t, 24, got[0].HoursAhead)
	assert.Equal(t, "b", got[1].AnomalyType)
	assert.Zero(t, got[1].Confidence)
}

func TestParseSuggestions_Malformed(t *testing.T) {
	tests := map[string]string{
		"prose":           "I think things look fine.",
		"truncated":       `{"additionalPredictions": [{"type": "a"`,
		"wrong shape":     `{"additionalPredictions": "none"}`,
		"reversed braces": "} nothing {",
	}
	for name, reply := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ai.ParseSuggestions(reply)
			assert.ErrorIs(t, err, ai.ErrInvalidResponse)
		})
	}
}

func TestParseSuggestions_Empty(t *testing.T) {
	got, err := ai.ParseSuggestions(`{"additionalPredictions": []}`)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ai.ParseSuggestions(`{}`)
	require.NoError(t, err)
	assert.Empty(t, got)
}
