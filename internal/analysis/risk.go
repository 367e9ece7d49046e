package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kiranshivaraju/foresight/pkg/models"
)

const recentChangeWindow = 7 * 24 * time.Hour

// AnalyzeRiskFactors derives ranked risk factors from a pattern, strongest first.
func AnalyzeRiskFactors(p TemporalPattern, records []*models.AnalysisRecord, now time.Time) []models.RiskFactor {
	if len(records) == 0 {
		return nil
	}

	var factors []models.RiskFactor

	if math.Abs(p.TrendSlope) > 0.1 {
		dir, label := models.TrendIncreasing, "Anomaly frequency increasing"
		if p.TrendSlope < 0 {
			dir, label = models.TrendDecreasing, "Anomaly frequency decreasing"
		}
		factors = append(factors, models.RiskFactor{
			Factor:       label,
			Contribution: math.Abs(p.TrendSlope) * 0.3,
			Trend:        dir,
			Actionable:   true,
		})
	}

	if p.Volatility > 5 {
		factors = append(factors, models.RiskFactor{
			Factor:       "High volatility in anomaly counts",
			Contribution: math.Min(0.3, p.Volatility/20),
			Trend:        models.TrendIncreasing,
			Actionable:   true,
		})
	}

	hour := now.UTC().Hour()
	if m := p.MaxHourly(); m > 0 && p.HourlyCounts[hour] > 0.7*m {
		factors = append(factors, models.RiskFactor{
			Factor:       fmt.Sprintf("High-risk time window (%02d:00 UTC)", hour),
			Contribution: 0.2,
			Trend:        models.TrendStable,
			Actionable:   false,
		})
	}

	recent := 0
	for _, cp := range p.ChangePoints {
		if age := now.Sub(cp); age >= 0 && age <= recentChangeWindow {
			recent++
		}
	}
	if recent > 0 {
		factors = append(factors, models.RiskFactor{
			Factor:       fmt.Sprintf("Recent pattern change (%d change point(s) in 7 days)", recent),
			Contribution: 0.15 * float64(recent),
			Trend:        models.TrendIncreasing,
			Actionable:   true,
		})
	}

	sort.SliceStable(factors, func(i, j int) bool { return factors[i].Contribution > factors[j].Contribution })
	return factors
}

// TopRiskFactors returns at most n factors from an already ranked list.
func TopRiskFactors(factors []models.RiskFactor, n int) []models.RiskFactor {
	if len(factors) > n {
		return factors[:n]
	}
	return factors
}
