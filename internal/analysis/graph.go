package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kiranshivaraju/foresight/pkg/models"
)

const (
	graphWindow = 48 * time.Hour

	minEdgeConfidence   = 0.25
	causesEdgeThreshold = 0.6
)

// BuildRelationships walks adjacent record pairs in the caller's order and
// returns knowledge-graph edges for pairs within 48 hours whose causal
// confidence exceeds 0.25. Edges carry no IDs; persistence assigns them.
func BuildRelationships(records []*models.AnalysisRecord) []models.AnomalyRelationship {
	var edges []models.AnomalyRelationship
	for i := 1; i < len(records); i++ {
		src, dst := records[i-1], records[i]
		if src.AnomaliesFound <= 0 || dst.AnomaliesFound <= 0 {
			continue
		}
		gap := absDuration(dst.CreatedAt.Sub(src.CreatedAt))
		if gap >= graphWindow {
			continue
		}

		conf, overlap := CausalConfidence(src, dst, gap, graphWindow)
		if conf <= minEdgeConfidence {
			continue
		}

		kind := models.RelationshipCorrelatesWith
		if conf > causesEdgeThreshold {
			kind = models.RelationshipCauses
		}
		delay := gap.Hours()
		edges = append(edges, models.AnomalyRelationship{
			UserID:           src.UserID,
			SourceAnalysisID: src.ID,
			TargetAnalysisID: dst.ID,
			SourceType:       src.AnomalyType(),
			TargetType:       dst.AnomalyType(),
			RelationshipType: kind,
			Strength:         countRatio(src.AnomaliesFound, dst.AnomaliesFound),
			DelayHours:       &delay,
			CausalConfidence: conf,
			EvidenceCount:    1 + overlap,
		})
	}
	return edges
}

// CausalConfidence scores how likely a is causally related to b given the
// gap between them, with linear time decay over window. It returns the score
// and the number of overlapping numeric metrics.
func CausalConfidence(a, b *models.AnalysisRecord, gap, window time.Duration) (float64, int) {
	typeMatch := 0.1
	if ta, tb := a.AnomalyType(), b.AnomalyType(); ta != "" && ta == tb {
		typeMatch = 0.5
	}

	decay := 0.0
	if window > 0 {
		decay = math.Max(0, 1-float64(gap)/float64(window))
	}

	similarity, overlap := patternSimilarity(a.Metrics(), b.Metrics())
	return typeMatch + 0.3*decay + 0.2*similarity, overlap
}

// patternSimilarity is the mean relative closeness of metrics present in both maps.
func patternSimilarity(a, b map[string]float64) (float64, int) {
	var sum float64
	var n int
	for k, va := range a {
		vb, ok := b[k]
		if !ok {
			continue
		}
		n++
		denom := math.Max(math.Abs(va), math.Abs(vb))
		if denom == 0 {
			sum++
			continue
		}
		sum += math.Max(0, 1-math.Abs(va-vb)/denom)
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

// countRatio is min/max of two counts; a size ratio, not a correlation coefficient.
func countRatio(a, b int) float64 {
	lo, hi := math.Min(float64(a), float64(b)), math.Max(float64(a), float64(b))
	if hi == 0 {
		return 0
	}
	return lo / hi
}

// GraphLinks folds knowledge-graph edges between distinct declared types into
// causal links, one per (from, to, relationship) with mean confidence as strength.
func GraphLinks(edges []models.AnomalyRelationship) []models.CausalLink {
	type key struct{ from, to, rel string }
	type agg struct {
		sum   float64
		n     int
		delay float64
	}
	groups := make(map[key]*agg)
	var order []key
	for _, e := range edges {
		if e.SourceType == "" || e.TargetType == "" || e.SourceType == e.TargetType {
			continue
		}
		k := key{e.SourceType, e.TargetType, e.RelationshipType}
		g, ok := groups[k]
		if !ok {
			g = &agg{}
			groups[k] = g
			order = append(order, k)
		}
		g.sum += e.CausalConfidence
		g.n++
		if e.DelayHours != nil {
			g.delay += *e.DelayHours
		}
	}

	links := make([]models.CausalLink, 0, len(order))
	for _, k := range order {
		g := groups[k]
		delay := g.delay / float64(g.n)
		links = append(links, models.CausalLink{
			FromType:     k.from,
			ToType:       k.to,
			Relationship: k.rel,
			Strength:     g.sum / float64(g.n),
			DelayHours:   &delay,
			Evidence:     []string{fmt.Sprintf("%d adjacent occurrence(s) in the knowledge graph", g.n)},
			Method:       MethodKnowledgeGraph,
		})
	}
	sort.SliceStable(links, func(i, j int) bool { return links[i].Strength > links[j].Strength })
	return links
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
