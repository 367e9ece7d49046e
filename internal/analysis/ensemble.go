package analysis

import (
	"math"
	"time"

	"github.com/kiranshivaraju/foresight/pkg/models"
)

// Emission thresholds for an aggregate ensemble result.
const (
	MinProbability = 0.30
	MinConfidence  = 0.40
)

// Horizon is a fixed forecast distance with its own decay factor and
// minimum data requirement.
type Horizon struct {
	Label         string
	Hours         int
	Decay         float64
	MinDataPoints int
}

// Duration returns the horizon as a time.Duration.
func (h Horizon) Duration() time.Duration {
	return time.Duration(h.Hours) * time.Hour
}

// DefaultHorizons are the configured forecast buckets in ascending order.
var DefaultHorizons = []Horizon{
	{Label: "1h", Hours: 1, Decay: 0.95, MinDataPoints: 5},
	{Label: "6h", Hours: 6, Decay: 0.85, MinDataPoints: 10},
	{Label: "24h", Hours: 24, Decay: 0.70, MinDataPoints: 20},
	{Label: "168h", Hours: 168, Decay: 0.50, MinDataPoints: 50},
}

// HorizonForHours returns the default horizon with exactly the given hours.
func HorizonForHours(hours int) (Horizon, bool) {
	for _, h := range DefaultHorizons {
		if h.Hours == hours {
			return h, true
		}
	}
	return Horizon{}, false
}

type scoreFunc func(p TemporalPattern, h Horizon, now time.Time) (probability, confidence float64)

type predictor struct {
	name   string
	weight float64
	score  scoreFunc
}

// panel is the fixed predictor set. Base weights must sum to 1.0.
var panel = []predictor{
	{name: "trend", weight: 0.25, score: trendScore},
	{name: "seasonal", weight: 0.20, score: seasonalScore},
	{name: "hourly", weight: 0.25, score: hourlyScore},
	{name: "autocorrelation", weight: 0.15, score: autocorrelationScore},
	{name: "volatility", weight: 0.15, score: volatilityScore},
}

// BaseWeights returns the base weight of each predictor keyed by name.
func BaseWeights() map[string]float64 {
	out := make(map[string]float64, len(panel))
	for _, pr := range panel {
		out[pr.name] = pr.weight
	}
	return out
}

// EnsembleResult is the aggregate opinion for one horizon.
type EnsembleResult struct {
	Horizon     Horizon
	Probability float64
	Confidence  float64
	Votes       []models.EnsembleVote
}

// Qualifies reports whether the result clears both emission thresholds.
func (r EnsembleResult) Qualifies() bool {
	return r.Probability > MinProbability && r.Confidence > MinConfidence
}

// Ensemble scores the pattern with every predictor and combines the votes
// using base weight × confidence × horizon decay. When every weight is zero
// the result is neutral: probability 0.5, confidence 0.
func Ensemble(p TemporalPattern, h Horizon, now time.Time) EnsembleResult {
	res := EnsembleResult{Horizon: h, Votes: make([]models.EnsembleVote, 0, len(panel))}

	var totalWeight, weightedProb, weightedConf float64
	for _, pr := range panel {
		prob, conf := pr.score(p, h, now)
		w := pr.weight * conf * h.Decay
		res.Votes = append(res.Votes, models.EnsembleVote{
			Predictor:   pr.name,
			Prediction:  prob > 0.5,
			Probability: prob,
			Confidence:  conf,
			Weight:      w,
		})
		totalWeight += w
		weightedProb += w * prob
		weightedConf += w * conf
	}

	if totalWeight <= 0 {
		res.Probability = 0.5
		res.Confidence = 0
		return res
	}
	res.Probability = weightedProb / totalWeight
	res.Confidence = weightedConf / totalWeight
	return res
}

func trendScore(p TemporalPattern, h Horizon, _ time.Time) (float64, float64) {
	return Clamp01(0.5 + p.TrendSlope*float64(h.Hours)*0.1), 1 / (1 + p.Volatility)
}

func seasonalScore(p TemporalPattern, _ Horizon, now time.Time) (float64, float64) {
	m := p.MaxSeasonal()
	if m == 0 {
		return 0, 0.7
	}
	return p.SeasonalFactors[quarterOf(now.UTC())] / m, 0.7
}

func hourlyScore(p TemporalPattern, h Horizon, now time.Time) (float64, float64) {
	m := p.MaxHourly()
	if m == 0 {
		return 0, 0.8
	}
	target := (now.UTC().Hour() + h.Hours) % 24
	return p.HourlyCounts[target] / m, 0.8
}

func autocorrelationScore(p TemporalPattern, _ Horizon, _ time.Time) (float64, float64) {
	mean := p.MeanAutocorrelation()
	return Clamp01(0.5 + mean*0.5), math.Abs(mean)
}

func volatilityScore(p TemporalPattern, _ Horizon, _ time.Time) (float64, float64) {
	return math.Min(1, p.Volatility/10), 0.6
}

// Clamp01 bounds v to [0, 1]; NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
