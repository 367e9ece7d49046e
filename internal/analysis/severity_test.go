package analysis

import (
	"testing"
	"time"

	"github.com/kiranshivaraju/foresight/pkg/models"
)

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		p    float64
		want models.Severity
	}{
		{0, models.SeverityLow},
		{0.4, models.SeverityLow},
		{0.41, models.SeverityMedium},
		{0.6, models.SeverityMedium},
		{0.61, models.SeverityHigh},
		{0.8, models.SeverityHigh},
		{0.81, models.SeverityCritical},
		{1, models.SeverityCritical},
	}
	for _, tt := range tests {
		if got := SeverityFor(tt.p); got != tt.want {
			t.Errorf("SeverityFor(%v) = %s, want %s", tt.p, got, tt.want)
		}
	}
}

func TestSeverityFor_Monotonic(t *testing.T) {
	prev := SeverityFor(0)
	for i := 1; i <= 1000; i++ {
		cur := SeverityFor(float64(i) / 1000)
		if cur.Rank() < prev.Rank() {
			t.Fatalf("severity decreased at p=%v: %s -> %s", float64(i)/1000, prev, cur)
		}
		prev = cur
	}
}

func TestParseSeverity(t *testing.T) {
	if s, ok := ParseSeverity(" high "); !ok || s != models.SeverityHigh {
		t.Errorf("expected HIGH, got %s/%v", s, ok)
	}
	if _, ok := ParseSeverity("catastrophic"); ok {
		t.Error("unknown severity should not parse")
	}
}

func TestDominantType(t *testing.T) {
	records := []*models.AnalysisRecord{
		record(t0, 1, "b", nil),
		record(t0.Add(time.Hour), 1, "a", nil),
		record(t0.Add(2*time.Hour), 1, "b", nil),
		record(t0.Add(3*time.Hour), 1, "", nil),
	}
	if got := DominantType(records); got != "b" {
		t.Errorf("expected b, got %s", got)
	}
	if got := DominantType(records[:2]); got != "a" {
		t.Errorf("ties break alphabetically, got %s", got)
	}
	if got := DominantType(countsAt(t0, time.Hour, 1, 2)); got != "general" {
		t.Errorf("expected general, got %s", got)
	}
}
