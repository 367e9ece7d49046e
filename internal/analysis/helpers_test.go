package analysis

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/foresight/pkg/models"
)

var testUser = uuid.MustParse("6f1c2b0e-3a4d-4e5f-8a9b-0c1d2e3f4a5b")

func record(ts time.Time, count int, anomalyType string, metrics map[string]float64) *models.AnalysisRecord {
	payload := map[string]any{}
	if anomalyType != "" {
		payload["anomalyType"] = anomalyType
	}
	if metrics != nil {
		payload["metrics"] = metrics
	}
	raw, _ := json.Marshal(payload)
	return &models.AnalysisRecord{
		ID:             uuid.New(),
		UserID:         testUser,
		Status:         models.AnalysisStatusCompleted,
		AnomaliesFound: count,
		Results:        raw,
		CreatedAt:      ts,
	}
}

func countsAt(start time.Time, step time.Duration, counts ...int) []*models.AnalysisRecord {
	out := make([]*models.AnalysisRecord, len(counts))
	for i, c := range counts {
		out[i] = record(start.Add(time.Duration(i)*step), c, "", nil)
	}
	return out
}

// trendWithDailySpike builds 30 records over 10 days: three readings per day
// at 02:00, 08:00 and 14:00, day n carrying n anomalies plus a spike at 14:00.
func trendWithDailySpike(start time.Time) []*models.AnalysisRecord {
	var out []*models.AnalysisRecord
	for day := 1; day <= 10; day++ {
		base := start.AddDate(0, 0, day-1)
		out = append(out,
			record(base.Add(2*time.Hour), day, "cpu_spike", nil),
			record(base.Add(8*time.Hour), day, "cpu_spike", nil),
			record(base.Add(14*time.Hour), day+10, "cpu_spike", nil),
		)
	}
	return out
}
