package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kiranshivaraju/foresight/pkg/models"
)

type advisoryReply struct {
	AdditionalPredictions []rawSuggestion `json:"additionalPredictions"`
}

type rawSuggestion struct {
	Type       string            `json:"type"`
	Severity   string            `json:"severity"`
	Confidence flexNumber        `json:"confidence"`
	HoursAhead flexNumber        `json:"hoursAhead"`
	Actions    []json.RawMessage `json:"actions"`
}

// flexNumber accepts a JSON number or a numeric string. Anything else decodes as NaN.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = flexNumber(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = flexNumber(v)
			return nil
		}
	}
	*n = flexNumber(math.NaN())
	return nil
}

// ParseSuggestions extracts supplementary predictions from an advisor reply.
// The reply may wrap the JSON object in prose or a code fence. Actions may be
// given as strings or as objects with a "type" field; unknown actions are
// dropped. Suggestions whose hoursAhead is not a whole positive number are
// dropped. Range checks against configured horizons are left to the caller.
func ParseSuggestions(reply string) ([]models.AdvisorySuggestion, error) {
	obj, ok := extractJSONObject(reply)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrInvalidResponse)
	}

	var parsed advisoryReply
	if err := json.Unmarshal(obj, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	out := make([]models.AdvisorySuggestion, 0, len(parsed.AdditionalPredictions))
	for _, raw := range parsed.AdditionalPredictions {
		hours := float64(raw.HoursAhead)
		if math.IsNaN(hours) || hours <= 0 || hours != math.Trunc(hours) {
			continue
		}
		conf := float64(raw.Confidence)
		if math.IsNaN(conf) {
			conf = 0
		}
		out = append(out, models.AdvisorySuggestion{
			AnomalyType: strings.TrimSpace(raw.Type),
			Severity:    strings.TrimSpace(raw.Severity),
			Confidence:  conf,
			HoursAhead:  int(hours),
			Actions:     parseActions(raw.Actions),
		})
	}
	return out, nil
}

func parseActions(raws []json.RawMessage) []models.ActionType {
	var out []models.ActionType
	for _, raw := range raws {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			var obj struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(raw, &obj); err != nil {
				continue
			}
			name = obj.Type
		}
		if t, ok := models.ParseActionType(name); ok {
			out = append(out, t)
		}
	}
	return out
}

// extractJSONObject returns the outermost {...} span of s.
func extractJSONObject(s string) ([]byte, bool) {
	b := []byte(s)
	start := bytes.IndexByte(b, '{')
	end := bytes.LastIndexByte(b, '}')
	if start < 0 || end <= start {
		return nil, false
	}
	return b[start : end+1], true
}
