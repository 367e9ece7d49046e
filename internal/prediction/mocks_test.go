package prediction

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/foresight/internal/store"
	"github.com/kiranshivaraju/foresight/pkg/models"
)

var (
	t0       = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	testUser = uuid.MustParse("6f1c2b0e-3a4d-4e5f-8a9b-0c1d2e3f4a5b")
)

// --- in-memory store ---

type memStore struct {
	mu            sync.Mutex
	records       []*models.AnalysisRecord
	preds         map[string]*models.AnomalyPrediction
	executions    []models.ActionExecution
	relationships []models.AnomalyRelationship

	recordsErr    error
	createPredErr error
	createRelErr  error
}

func newMemStore(records ...*models.AnalysisRecord) *memStore {
	return &memStore{records: records, preds: map[string]*models.AnomalyPrediction{}}
}

func (m *memStore) Ping(_ context.Context) error { return nil }
func (m *memStore) GetAPIKeyByPrefix(_ context.Context, _ string) ([]*models.APIKey, error) {
	return nil, nil
}
func (m *memStore) UpdateAPIKeyLastUsed(_ context.Context, _ uuid.UUID) error { return nil }
func (m *memStore) CreateAPIKey(_ context.Context, _ *models.APIKey) error     { return nil }

func (m *memStore) ListAnalysisRecords(_ context.Context, f store.RecordFilter) ([]*models.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordsErr != nil {
		return nil, m.recordsErr
	}
	var out []*models.AnalysisRecord
	for _, r := range m.records {
		if r.UserID != f.UserID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if !f.Since.IsZero() && r.CreatedAt.Before(f.Since) {
			continue
		}
		if !f.Until.IsZero() && r.CreatedAt.After(f.Until) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}

func (m *memStore) GetAnalysisRecord(_ context.Context, id uuid.UUID) (*models.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) CreatePrediction(_ context.Context, p *models.AnomalyPrediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createPredErr != nil {
		return m.createPredErr
	}
	cp := *p
	m.preds[p.ID] = &cp
	return nil
}

func (m *memStore) GetPrediction(_ context.Context, id string) (*models.AnomalyPrediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.preds[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) ListPredictions(_ context.Context, f store.PredictionFilter) ([]*models.AnomalyPrediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AnomalyPrediction
	for _, p := range m.preds {
		if p.UserID == f.UserID && (f.Status == "" || p.Status == f.Status) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memStore) ListDuePredictions(_ context.Context, before time.Time, limit int) ([]*models.AnomalyPrediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AnomalyPrediction
	for _, p := range m.preds {
		if p.Status == models.PredictionStatusPending && p.PredictedAt.Before(before) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PredictedAt.Before(out[j].PredictedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) MarkPrevented(_ context.Context, id string, effectiveness float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.preds[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Prevented = true
	p.PreventionEffectiveness = &effectiveness
	if p.Status == models.PredictionStatusPending {
		p.Status = models.PredictionStatusPrevented
	}
	return nil
}

func (m *memStore) ResolvePrediction(_ context.Context, id string, status string, occurred bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.preds[id]
	if !ok {
		return store.ErrNotFound
	}
	if p.Status != models.PredictionStatusPending {
		return store.ErrInvalidTransition
	}
	p.Status = status
	p.ActualOccurred = &occurred
	return nil
}

func (m *memStore) CreateActionExecution(_ context.Context, exec *models.ActionExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executions = append(m.executions, *exec)
	return nil
}

func (m *memStore) InsertRelationship(_ context.Context, rel *models.AnomalyRelationship) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createRelErr != nil {
		return false, m.createRelErr
	}
	m.relationships = append(m.relationships, *rel)
	return true, nil
}

func (m *memStore) prediction(id string) *models.AnomalyPrediction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preds[id]
}

// --- in-memory cache ---

type published struct {
	channel string
	message any
}

type memCache struct {
	mu         sync.Mutex
	data       map[string][]byte
	published  []published
	publishErr error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Ping(_ context.Context) error { return nil }

func (c *memCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}

func (c *memCache) Publish(_ context.Context, channel string, message any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published = append(c.published, published{channel: channel, message: message})
	return nil
}

// --- fixtures ---

func record(ts time.Time, count int, anomalyType string) *models.AnalysisRecord {
	payload := map[string]any{}
	if anomalyType != "" {
		payload["anomalyType"] = anomalyType
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

// dailySpike builds 30 records over 10 days from t0: readings at 02:00, 08:00
// and 14:00, day n carrying n anomalies plus a spike of 10 at 14:00.
func dailySpike() []*models.AnalysisRecord {
	var out []*models.AnalysisRecord
	for day := 1; day <= 10; day++ {
		base := t0.AddDate(0, 0, day-1)
		out = append(out,
			record(base.Add(2*time.Hour), day, "cpu_spike"),
			record(base.Add(8*time.Hour), day, "cpu_spike"),
			record(base.Add(14*time.Hour), day+10, "cpu_spike"),
		)
	}
	return out
}

// spikeNow is one minute after the last 14:00 reading, so the 24h horizon
// lands on day 11 at 14:00.
var spikeNow = t0.AddDate(0, 0, 9).Add(14*time.Hour + time.Minute)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func pending(id string, predictedAt time.Time, confidence float64) *models.AnomalyPrediction {
	return &models.AnomalyPrediction{
		ID:           id,
		UserID:       testUser,
		AnomalyType:  "cpu_spike",
		Severity:     models.SeverityMedium,
		Probability:  confidence,
		Confidence:   confidence,
		PredictedAt:  predictedAt,
		HorizonHours: 24,
		Source:       models.PredictionSourceEnsemble,
		Status:       models.PredictionStatusPending,
		CreatedAt:    predictedAt.Add(-24 * time.Hour),
	}
}
