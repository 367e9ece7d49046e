// Package analysis holds the pure statistical stages of a prediction run:
// pattern extraction, ensemble scoring, causal inference, knowledge-graph edges
// and risk factors. Nothing in this package performs I/O.
package analysis

import (
	"math"
	"time"

	"github.com/kiranshivaraju/foresight/pkg/models"
	"gonum.org/v1/gonum/stat"
)

const maxAutocorrelationLag = 5

// TemporalPattern is the aggregate statistical view of a record window.
// It is a value type; pass it between stages explicitly.
type TemporalPattern struct {
	HourlyCounts    [24]float64
	DailyCounts     [7]float64
	WeeklyCounts    [4]float64 // ISO week modulo 4
	TrendSlope      float64
	Volatility      float64
	Autocorrelation []float64 // index 0 is lag 1
	ChangePoints    []time.Time
	SeasonalFactors [4]float64 // mean count per calendar quarter
	DataPoints      int
}

// ExtractPattern computes a TemporalPattern from records. The caller's ordering
// defines the time axis for trend, volatility, autocorrelation and change points;
// bucket aggregates are order-insensitive. Degenerate input yields a zero pattern.
func ExtractPattern(records []*models.AnalysisRecord) TemporalPattern {
	p := TemporalPattern{DataPoints: len(records)}
	if len(records) == 0 {
		return p
	}

	counts := make([]float64, len(records))
	var quarterSums, quarterN [4]float64
	for i, r := range records {
		c := float64(max(r.AnomaliesFound, 0))
		counts[i] = c

		ts := r.CreatedAt.UTC()
		p.HourlyCounts[ts.Hour()] += c
		p.DailyCounts[int(ts.Weekday())] += c
		_, week := ts.ISOWeek()
		p.WeeklyCounts[week%4] += c

		q := quarterOf(ts)
		quarterSums[q] += c
		quarterN[q]++
	}
	for q := range quarterSums {
		if quarterN[q] > 0 {
			p.SeasonalFactors[q] = quarterSums[q] / quarterN[q]
		}
	}

	p.TrendSlope = trendSlope(counts)
	p.Volatility = popStdDev(differences(counts))
	p.Autocorrelation = autocorrelation(counts, maxAutocorrelationLag)

	threshold := 2 * popStdDev(counts)
	if threshold > 0 {
		for i := 1; i < len(counts); i++ {
			if math.Abs(counts[i]-counts[i-1]) > threshold {
				p.ChangePoints = append(p.ChangePoints, records[i].CreatedAt)
			}
		}
	}

	return p
}

// MaxHourly returns the largest hourly bucket.
func (p TemporalPattern) MaxHourly() float64 {
	m := 0.0
	for _, v := range p.HourlyCounts {
		m = math.Max(m, v)
	}
	return m
}

// MaxSeasonal returns the largest seasonal factor.
func (p TemporalPattern) MaxSeasonal() float64 {
	m := 0.0
	for _, v := range p.SeasonalFactors {
		m = math.Max(m, v)
	}
	return m
}

// MeanAutocorrelation returns the mean over computed lags, or 0 if none.
func (p TemporalPattern) MeanAutocorrelation() float64 {
	if len(p.Autocorrelation) == 0 {
		return 0
	}
	return stat.Mean(p.Autocorrelation, nil)
}

func quarterOf(t time.Time) int {
	return (int(t.Month()) - 1) / 3
}

// trendSlope is the OLS slope of count against index.
func trendSlope(counts []float64) float64 {
	if len(counts) < 2 {
		return 0
	}
	xs := make([]float64, len(counts))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, counts, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return 0
	}
	return beta
}

func differences(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		out[i-1] = xs[i] - xs[i-1]
	}
	return out
}

func popStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	_, variance := stat.PopMeanVariance(xs, nil)
	if math.IsNaN(variance) || variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}

// autocorrelation returns normalized autocorrelation for lags 1..maxLag,
// skipping lags beyond len-1.
func autocorrelation(xs []float64, maxLag int) []float64 {
	n := len(xs)
	if n < 2 {
		return nil
	}
	mean := stat.Mean(xs, nil)
	var denom float64
	for _, x := range xs {
		denom += (x - mean) * (x - mean)
	}

	lags := min(maxLag, n-1)
	out := make([]float64, 0, lags)
	for k := 1; k <= lags; k++ {
		if denom == 0 {
			out = append(out, 0)
			continue
		}
		var num float64
		for t := 0; t+k < n; t++ {
			num += (xs[t] - mean) * (xs[t+k] - mean)
		}
		out = append(out, num/denom)
	}
	return out
}
