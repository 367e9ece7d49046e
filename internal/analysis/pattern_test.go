package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/kiranshivaraju/foresight/pkg/models"
)

var t0 = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestExtractPattern_Empty(t *testing.T) {
	p := ExtractPattern(nil)
	if p.DataPoints != 0 || p.TrendSlope != 0 || p.Volatility != 0 {
		t.Errorf("expected zero pattern, got %+v", p)
	}
	if len(p.Autocorrelation) != 0 || len(p.ChangePoints) != 0 {
		t.Errorf("expected no autocorrelation or change points, got %+v", p)
	}
}

func TestExtractPattern_AllZeroCounts(t *testing.T) {
	p := ExtractPattern(countsAt(t0, time.Hour, 0, 0, 0, 0, 0, 0))

	if p.TrendSlope != 0 || p.Volatility != 0 {
		t.Errorf("expected flat pattern, got slope=%v volatility=%v", p.TrendSlope, p.Volatility)
	}
	for i, ac := range p.Autocorrelation {
		if ac != 0 {
			t.Errorf("lag %d: expected 0 autocorrelation, got %v", i+1, ac)
		}
	}
	if len(p.ChangePoints) != 0 {
		t.Errorf("expected no change points, got %d", len(p.ChangePoints))
	}
	if p.MaxHourly() != 0 || p.MaxSeasonal() != 0 {
		t.Error("expected empty buckets")
	}
}

func TestExtractPattern_LinearTrend(t *testing.T) {
	p := ExtractPattern(countsAt(t0, time.Hour, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10))

	if !approx(p.TrendSlope, 1) {
		t.Errorf("expected slope 1, got %v", p.TrendSlope)
	}
	// Constant first differences have zero spread.
	if !approx(p.Volatility, 0) {
		t.Errorf("expected volatility 0, got %v", p.Volatility)
	}
	if p.DataPoints != 10 {
		t.Errorf("expected 10 data points, got %d", p.DataPoints)
	}
}

func TestExtractPattern_Volatility(t *testing.T) {
	// differences: +10, -10, +10, -10 -> population std-dev 10
	p := ExtractPattern(countsAt(t0, time.Hour, 0, 10, 0, 10, 0))
	if !approx(p.Volatility, 10) {
		t.Errorf("expected volatility 10, got %v", p.Volatility)
	}
}

func TestExtractPattern_Buckets(t *testing.T) {
	records := []*models.AnalysisRecord{
		record(time.Date(2026, 1, 5, 14, 0, 0, 0, time.UTC), 4, "", nil),  // Monday, Q1
		record(time.Date(2026, 1, 6, 14, 30, 0, 0, time.UTC), 2, "", nil), // Tuesday, Q1
		record(time.Date(2026, 7, 6, 3, 0, 0, 0, time.UTC), 9, "", nil),   // Monday, Q3
	}
	p := ExtractPattern(records)

	if p.HourlyCounts[14] != 6 || p.HourlyCounts[3] != 9 {
		t.Errorf("unexpected hourly buckets: %v", p.HourlyCounts)
	}
	if p.DailyCounts[int(time.Monday)] != 13 || p.DailyCounts[int(time.Tuesday)] != 2 {
		t.Errorf("unexpected daily buckets: %v", p.DailyCounts)
	}
	if p.SeasonalFactors[0] != 3 || p.SeasonalFactors[2] != 9 || p.SeasonalFactors[1] != 0 {
		t.Errorf("unexpected seasonal factors: %v", p.SeasonalFactors)
	}
	var weekly float64
	for _, v := range p.WeeklyCounts {
		weekly += v
	}
	if weekly != 15 {
		t.Errorf("weekly buckets should sum to 15, got %v", weekly)
	}
}

func TestExtractPattern_NegativeCountsClampedToZero(t *testing.T) {
	p := ExtractPattern(countsAt(t0, time.Hour, -5, -5, -5))
	if p.MaxHourly() != 0 {
		t.Errorf("negative counts should be treated as zero, got %v", p.HourlyCounts)
	}
}

func TestExtractPattern_ChangePoint(t *testing.T) {
	records := countsAt(t0, time.Hour, 1, 1, 1, 1, 1, 1, 1, 1, 1, 20)
	p := ExtractPattern(records)

	if len(p.ChangePoints) != 1 {
		t.Fatalf("expected 1 change point, got %d", len(p.ChangePoints))
	}
	if !p.ChangePoints[0].Equal(records[9].CreatedAt) {
		t.Errorf("change point should be stamped at the jump, got %v", p.ChangePoints[0])
	}
}

func TestExtractPattern_AutocorrelationLags(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
		lags   int
	}{
		{name: "single record", counts: []int{3}, lags: 0},
		{name: "three records", counts: []int{1, 2, 3}, lags: 2},
		{name: "six records", counts: []int{1, 2, 3, 4, 5, 6}, lags: 5},
		{name: "many records", counts: []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, lags: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ExtractPattern(countsAt(t0, time.Hour, tt.counts...))
			if len(p.Autocorrelation) != tt.lags {
				t.Errorf("expected %d lags, got %d", tt.lags, len(p.Autocorrelation))
			}
		})
	}
}

func TestExtractPattern_AlternatingSeriesHasNegativeLag1(t *testing.T) {
	p := ExtractPattern(countsAt(t0, time.Hour, 0, 10, 0, 10, 0, 10, 0, 10))
	if p.Autocorrelation[0] >= 0 {
		t.Errorf("expected negative lag-1 autocorrelation, got %v", p.Autocorrelation[0])
	}
	if p.Autocorrelation[1] <= 0 {
		t.Errorf("expected positive lag-2 autocorrelation, got %v", p.Autocorrelation[1])
	}
}
