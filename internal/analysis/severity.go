package analysis

import (
	"sort"
	"strings"

	"github.com/kiranshivaraju/foresight/pkg/models"
)

// SeverityFor buckets a probability. Monotonic in p.
func SeverityFor(p float64) models.Severity {
	switch {
	case p > 0.8:
		return models.SeverityCritical
	case p > 0.6:
		return models.SeverityHigh
	case p > 0.4:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// ParseSeverity accepts any casing of a known severity.
func ParseSeverity(s string) (models.Severity, bool) {
	sev := models.Severity(strings.ToUpper(strings.TrimSpace(s)))
	return sev, sev.Rank() > 0
}

// DominantType returns the most frequent declared type, ties broken
// alphabetically, or "general" when no record declares one.
func DominantType(records []*models.AnalysisRecord) string {
	counts := make(map[string]int)
	for _, r := range records {
		if t := r.AnomalyType(); t != "" {
			counts[t]++
		}
	}
	if len(counts) == 0 {
		return "general"
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)
	best := types[0]
	for _, t := range types[1:] {
		if counts[t] > counts[best] {
			best = t
		}
	}
	return best
}
