package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kiranshivaraju/foresight/pkg/models"
)

const (
	causalWindow = 24 * time.Hour

	MethodTemporalPrecedence = "temporal_precedence"
	MethodCoOccurrence       = "co_occurrence"
	MethodKnowledgeGraph     = "knowledge_graph"
)

// precedence summarizes how often instances of one type precede another.
type precedence struct {
	count      int
	totalDelay time.Duration
}

// InferCausalLinks pairs every two distinct declared anomaly types and
// classifies them by temporal precedence within 24 hours. Records without a
// declared type are ignored. A pair yields at most one link.
func InferCausalLinks(records []*models.AnalysisRecord) []models.CausalLink {
	byType := make(map[string][]time.Time)
	for _, r := range records {
		t := r.AnomalyType()
		if t == "" {
			continue
		}
		byType[t] = append(byType[t], r.CreatedAt)
	}

	types := make([]string, 0, len(byType))
	for t, ts := range byType {
		sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
		types = append(types, t)
	}
	sort.Strings(types)

	var links []models.CausalLink
	for i := 0; i < len(types); i++ {
		for j := i + 1; j < len(types); j++ {
			a, b := types[i], types[j]
			aTimes, bTimes := byType[a], byType[b]
			ab := countPrecedence(aTimes, bTimes)
			ba := countPrecedence(bTimes, aTimes)

			switch {
			case float64(ab.count) > 1.5*float64(ba.count) && ab.count > 2:
				links = append(links, causesLink(a, b, ab, ba))
			case float64(ba.count) > 1.5*float64(ab.count) && ba.count > 2:
				links = append(links, causesLink(b, a, ba, ab))
			case ab.count > 1 || ba.count > 1:
				small := math.Min(float64(len(aTimes)), float64(len(bTimes)))
				large := math.Max(float64(len(aTimes)), float64(len(bTimes)))
				links = append(links, models.CausalLink{
					FromType:     a,
					ToType:       b,
					Relationship: models.RelationshipCorrelatesWith,
					Strength:     small / large,
					Evidence: []string{
						fmt.Sprintf("%s and %s co-occur within 24h (%d/%d ordered pairs)", a, b, ab.count, ba.count),
						fmt.Sprintf("occurrence counts %d and %d", len(aTimes), len(bTimes)),
					},
					Method: MethodCoOccurrence,
				})
			}
		}
	}
	return links
}

func causesLink(from, to string, forward, backward precedence) models.CausalLink {
	delay := forward.totalDelay.Hours() / float64(forward.count)
	return models.CausalLink{
		FromType:     from,
		ToType:       to,
		Relationship: models.RelationshipCauses,
		Strength:     float64(forward.count) / float64(forward.count+backward.count),
		DelayHours:   &delay,
		Evidence: []string{
			fmt.Sprintf("%s preceded %s %d times within 24h", from, to, forward.count),
			fmt.Sprintf("%s preceded %s %d times within 24h", to, from, backward.count),
		},
		Method: MethodTemporalPrecedence,
	}
}

// countPrecedence counts ordered pairs (x, y) with 0 < y-x <= 24h.
// Both slices must be sorted ascending. Equivalent to the nested scan over
// every pair, but each x costs two binary searches over ys.
func countPrecedence(xs, ys []time.Time) precedence {
	var p precedence
	for _, x := range xs {
		lo := sort.Search(len(ys), func(i int) bool { return ys[i].After(x) })
		hi := sort.Search(len(ys), func(i int) bool { return ys[i].Sub(x) > causalWindow })
		for _, y := range ys[lo:hi] {
			p.count++
			p.totalDelay += y.Sub(x)
		}
	}
	return p
}

// TopLinks returns up to n links ordered by strength, strongest first.
func TopLinks(links []models.CausalLink, n int) []models.CausalLink {
	sorted := make([]models.CausalLink, len(links))
	copy(sorted, links)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Strength > sorted[j].Strength })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
