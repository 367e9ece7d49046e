// Package prediction drives prediction runs and the actions that follow them:
// prevention, retroactive validation and correlation lookups.
package prediction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kiranshivaraju/foresight/internal/analysis"
	"github.com/kiranshivaraju/foresight/internal/cache"
	"github.com/kiranshivaraju/foresight/internal/metrics"
	"github.com/kiranshivaraju/foresight/internal/store"
	"github.com/kiranshivaraju/foresight/pkg/models"
)

const (
	// minRecords is the smallest history a run will predict from.
	minRecords = 5
	// minAdvisoryRecords gates the advisory oracle.
	minAdvisoryRecords = 20

	topChainLinks  = 5
	topRiskFactors = 5

	advisoryConfidenceScale = 0.9
	latestPredictionsTTL    = 24 * time.Hour
)

// Advisor returns supplementary suggestions for a run. *ai.AdvisoryService implements it.
type Advisor interface {
	Advise(ctx context.Context, actx models.AdvisoryContext) ([]models.AdvisorySuggestion, error)
	Name() string
}

// Options tunes prediction runs. Zero values take the documented defaults.
type Options struct {
	LookbackDays    int
	MaxHorizonHours int
	RecordLimit     int
	Horizons        []analysis.Horizon
	Now             func() time.Time
}

func (o Options) withDefaults() Options {
	if o.LookbackDays <= 0 {
		o.LookbackDays = 30
	}
	if o.MaxHorizonHours <= 0 {
		o.MaxHorizonHours = 168
	}
	if o.RecordLimit <= 0 {
		o.RecordLimit = 1000
	}
	if len(o.Horizons) == 0 {
		o.Horizons = analysis.DefaultHorizons
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// PredictRequest describes one prediction run.
type PredictRequest struct {
	UserID          uuid.UUID
	AnalysisID      *uuid.UUID
	LookbackDays    int
	MaxHorizonHours int
}

// Service orchestrates prediction runs.
type Service struct {
	store   store.Store
	cache   cache.Cache
	advisor Advisor
	opts    Options
}

// NewService creates a new Service. advisor may be nil to disable advisory suggestions.
func NewService(st store.Store, ca cache.Cache, advisor Advisor, opts Options) *Service {
	return &Service{
		store:   st,
		cache:   ca,
		advisor: advisor,
		opts:    opts.withDefaults(),
	}
}

// Predict runs the full pipeline for one user and returns the emitted
// predictions, ascending by horizon with advisory predictions last. Fewer than
// five records yields an empty list. A given AnalysisID must name one of the
// user's analyses. Persistence is best-effort: predictions that fail to save
// are still returned.
func (s *Service) Predict(ctx context.Context, req PredictRequest) ([]*models.AnomalyPrediction, error) {
	start := time.Now()
	defer func() { metrics.PredictionRunDuration.Observe(time.Since(start).Seconds()) }()

	lookback := req.LookbackDays
	if lookback <= 0 {
		lookback = s.opts.LookbackDays
	}
	ceiling := req.MaxHorizonHours
	if ceiling <= 0 {
		ceiling = s.opts.MaxHorizonHours
	}
	now := s.opts.Now().UTC()

	if req.AnalysisID != nil {
		source, err := s.store.GetAnalysisRecord(ctx, *req.AnalysisID)
		if err != nil {
			return nil, notFound(err, ErrAnalysisNotFound)
		}
		if source.UserID != req.UserID {
			return nil, ErrAnalysisNotFound
		}
	}

	records, err := s.store.ListAnalysisRecords(ctx, store.RecordFilter{
		UserID: req.UserID,
		Status: models.AnalysisStatusCompleted,
		Since:  now.AddDate(0, 0, -lookback),
		Until:  now,
		Limit:  s.opts.RecordLimit,
	})
	if err != nil {
		metrics.PredictionRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("loading analysis records: %w", err)
	}
	if len(records) < minRecords {
		metrics.PredictionRunsTotal.WithLabelValues("insufficient_data").Inc()
		slog.Debug("not enough records to predict", "user_id", req.UserID, "records", len(records))
		return []*models.AnomalyPrediction{}, nil
	}

	pattern := analysis.ExtractPattern(records)

	var (
		links []models.CausalLink
		risks []models.RiskFactor
		edges []models.AnomalyRelationship
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		links = analysis.InferCausalLinks(records)
		return nil
	})
	g.Go(func() error {
		risks = analysis.AnalyzeRiskFactors(pattern, records, now)
		return nil
	})
	g.Go(func() error {
		edges = analysis.BuildRelationships(records)
		s.persistRelationships(gctx, edges, now)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	chain := analysis.TopLinks(append(links, analysis.GraphLinks(edges)...), topChainLinks)
	risks = analysis.TopRiskFactors(risks, topRiskFactors)
	anomalyType := analysis.DominantType(records)

	var preds []*models.AnomalyPrediction
	for _, h := range s.opts.Horizons {
		if pattern.DataPoints < h.MinDataPoints || h.Hours > ceiling {
			continue
		}
		res := analysis.Ensemble(pattern, h, now)
		if !res.Qualifies() {
			continue
		}
		p := newPrediction(req, h, now, anomalyType, res.Probability, res.Confidence, models.PredictionSourceEnsemble)
		p.EnsembleVotes = res.Votes
		p.CausalChain = chain
		p.RiskFactors = risks
		preds = append(preds, p)
	}

	if len(preds) > 0 && len(records) >= minAdvisoryRecords && s.advisor != nil {
		preds = append(preds, s.advise(ctx, req, pattern, records, preds, ceiling, now, anomalyType, chain, risks)...)
	}

	for _, p := range preds {
		if err := s.store.CreatePrediction(ctx, p); err != nil {
			metrics.PersistenceFailuresTotal.WithLabelValues("prediction").Inc()
			slog.Warn("failed to persist prediction", "prediction_id", p.ID, "user_id", req.UserID, "error", err)
		}
		metrics.PredictionsTotal.WithLabelValues(horizonLabel(p.HorizonHours), p.Source).Inc()
	}

	s.cacheLatest(ctx, req.UserID, preds)
	metrics.PredictionRunsTotal.WithLabelValues("ok").Inc()
	slog.Info("prediction run complete", "user_id", req.UserID, "records", len(records), "predictions", len(preds))

	if preds == nil {
		preds = []*models.AnomalyPrediction{}
	}
	return preds, nil
}

// advise asks the oracle for supplementary predictions and keeps those that
// name a usable horizon. Every failure is logged and yields nothing.
func (s *Service) advise(ctx context.Context, req PredictRequest, pattern analysis.TemporalPattern,
	records []*models.AnalysisRecord, native []*models.AnomalyPrediction, ceiling int, now time.Time,
	anomalyType string, chain []models.CausalLink, risks []models.RiskFactor) []*models.AnomalyPrediction {

	actx := models.AdvisoryContext{
		UserID:       req.UserID.String(),
		RecordCount:  len(records),
		TrendSlope:   pattern.TrendSlope,
		Volatility:   pattern.Volatility,
		HourlyCounts: pattern.HourlyCounts[:],
		DominantType: anomalyType,
	}
	for _, p := range native {
		actx.NativePredictions = append(actx.NativePredictions, models.PredictionSummary{
			AnomalyType:  p.AnomalyType,
			Severity:     string(p.Severity),
			Confidence:   p.Confidence,
			HorizonHours: p.HorizonHours,
		})
	}

	suggestions, err := s.advisor.Advise(ctx, actx)
	if err != nil {
		metrics.AdvisoryRequestsTotal.WithLabelValues(s.advisor.Name(), "error").Inc()
		slog.Warn("advisory oracle failed", "provider", s.advisor.Name(), "user_id", req.UserID, "error", err)
		return nil
	}
	metrics.AdvisoryRequestsTotal.WithLabelValues(s.advisor.Name(), "ok").Inc()

	var out []*models.AnomalyPrediction
	for _, sg := range suggestions {
		h, ok := s.horizonFor(sg.HoursAhead)
		if !ok || h.Hours > ceiling || pattern.DataPoints < h.MinDataPoints {
			slog.Debug("dropping advisory suggestion", "hours_ahead", sg.HoursAhead, "type", sg.AnomalyType)
			continue
		}

		conf := analysis.Clamp01(sg.Confidence) * advisoryConfidenceScale
		typ := sg.AnomalyType
		if typ == "" {
			typ = anomalyType
		}
		p := newPrediction(req, h, now, typ, conf, conf, models.PredictionSourceAdvisory)
		if sev, ok := analysis.ParseSeverity(sg.Severity); ok {
			p.Severity = sev
		}

		actions := sg.Actions
		if len(actions) == 0 {
			actions = []models.ActionType{models.ActionAlert}
		}
		p.PreventionActions = make([]models.PreventionAction, 0, len(actions))
		for _, a := range actions {
			p.PreventionActions = append(p.PreventionActions, analysis.ActionTemplate(a, p.Severity, typ))
		}
		p.CausalChain = chain
		p.RiskFactors = risks
		out = append(out, p)
	}
	return out
}

func (s *Service) horizonFor(hours int) (analysis.Horizon, bool) {
	for _, h := range s.opts.Horizons {
		if h.Hours == hours {
			return h, true
		}
	}
	return analysis.Horizon{}, false
}

func (s *Service) persistRelationships(ctx context.Context, edges []models.AnomalyRelationship, now time.Time) {
	for i := range edges {
		edges[i].ID = uuid.New()
		edges[i].CreatedAt = now
		if _, err := s.store.InsertRelationship(ctx, &edges[i]); err != nil {
			metrics.PersistenceFailuresTotal.WithLabelValues("relationship").Inc()
			slog.Warn("failed to persist relationship",
				"source_analysis_id", edges[i].SourceAnalysisID,
				"target_analysis_id", edges[i].TargetAnalysisID,
				"error", err)
		}
	}
}

func (s *Service) cacheLatest(ctx context.Context, userID uuid.UUID, preds []*models.AnomalyPrediction) {
	if len(preds) == 0 {
		return
	}
	raw, err := json.Marshal(preds)
	if err != nil {
		slog.Warn("failed to encode latest predictions", "user_id", userID, "error", err)
		return
	}
	if err := s.cache.Set(ctx, cache.LatestPredictionsKey(userID), raw, latestPredictionsTTL); err != nil {
		slog.Warn("failed to cache latest predictions", "user_id", userID, "error", err)
	}
}

// Get returns a prediction owned by userID.
func (s *Service) Get(ctx context.Context, userID uuid.UUID, id string) (*models.AnomalyPrediction, error) {
	p, err := s.store.GetPrediction(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrPredictionNotFound)
	}
	if p.UserID != userID {
		return nil, ErrPredictionNotFound
	}
	return p, nil
}

// List returns a user's predictions, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, status string, limit int) ([]*models.AnomalyPrediction, error) {
	preds, err := s.store.ListPredictions(ctx, store.PredictionFilter{UserID: userID, Status: status, Limit: limit})
	if err != nil {
		return nil, err
	}
	if preds == nil {
		preds = []*models.AnomalyPrediction{}
	}
	return preds, nil
}

func newPrediction(req PredictRequest, h analysis.Horizon, now time.Time, anomalyType string,
	probability, confidence float64, source string) *models.AnomalyPrediction {

	severity := analysis.SeverityFor(probability)
	return &models.AnomalyPrediction{
		ID:                predictionID(now, h.Label),
		UserID:            req.UserID,
		AnalysisID:        req.AnalysisID,
		AnomalyType:       anomalyType,
		Severity:          severity,
		Probability:       probability,
		Confidence:        confidence,
		PredictedAt:       now.Add(h.Duration()),
		HorizonHours:      h.Hours,
		Source:            source,
		PreventionActions: analysis.GenerateActions(probability, h.Hours, severity, anomalyType),
		Status:            models.PredictionStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// predictionID builds pred_<unix-ms>_<horizon>_<8 hex chars>.
func predictionID(now time.Time, label string) string {
	return fmt.Sprintf("pred_%d_%s_%s", now.UnixMilli(), label, uuid.NewString()[:8])
}

func horizonLabel(hours int) string {
	if h, ok := analysis.HorizonForHours(hours); ok {
		return h.Label
	}
	return strconv.Itoa(hours) + "h"
}
