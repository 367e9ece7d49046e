package prediction

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/foresight/internal/cache"
	"github.com/kiranshivaraju/foresight/internal/metrics"
	"github.com/kiranshivaraju/foresight/internal/store"
	"github.com/kiranshivaraju/foresight/pkg/models"
)

// ActionResult is the outcome of one prevention action.
type ActionResult struct {
	Success       bool
	Effectiveness float64
	Detail        string
}

// ActionHandler performs one prevention action for a prediction.
type ActionHandler func(ctx context.Context, p *models.AnomalyPrediction, action models.PreventionAction) ActionResult

// PreventionResult summarises an Execute call.
type PreventionResult struct {
	Success       bool                     `json:"success"`
	Effectiveness float64                  `json:"effectiveness"`
	Executions    []models.ActionExecution `json:"executions"`
}

// Alert is the message published for ALERT actions.
type Alert struct {
	PredictionID string    `json:"prediction_id"`
	UserID       string    `json:"user_id"`
	AnomalyType  string    `json:"anomaly_type"`
	Severity     string    `json:"severity"`
	Probability  float64   `json:"probability"`
	PredictedAt  time.Time `json:"predicted_at"`
	Channels     any       `json:"channels,omitempty"`
	Message      string    `json:"message"`
}

// Executor runs prevention actions through type-keyed handlers.
type Executor struct {
	store        store.Store
	cache        cache.Cache
	handlers     map[models.ActionType]ActionHandler
	capabilities map[string]bool
	now          func() time.Time
}

// NewExecutor creates an Executor with the default handlers. capabilities
// lists the prerequisites this deployment satisfies for AUTO_REMEDIATE.
func NewExecutor(st store.Store, ca cache.Cache, capabilities []string) *Executor {
	e := &Executor{
		store:        st,
		cache:        ca,
		handlers:     make(map[models.ActionType]ActionHandler),
		capabilities: make(map[string]bool, len(capabilities)),
		now:          time.Now,
	}
	for _, c := range capabilities {
		e.capabilities[c] = true
	}

	e.Register(models.ActionAlert, e.alert)
	for _, t := range []models.ActionType{
		models.ActionThrottle,
		models.ActionIsolate,
		models.ActionScale,
		models.ActionRollback,
		models.ActionCircuitBreak,
	} {
		e.Register(t, e.directive)
	}
	e.Register(models.ActionAutoRemediate, e.autoRemediate)
	return e
}

// Register installs or replaces the handler for an action type.
func (e *Executor) Register(t models.ActionType, h ActionHandler) {
	e.handlers[t] = h
}

// Execute runs actions against a prediction in ascending priority. With no
// actions, the prediction's own plan is used. Only an unknown prediction is an
// error; individual action failures are reported in the result.
func (e *Executor) Execute(ctx context.Context, predictionID string, actions []models.PreventionAction) (*PreventionResult, error) {
	p, err := e.store.GetPrediction(ctx, predictionID)
	if err != nil {
		return nil, notFound(err, ErrPredictionNotFound)
	}

	if len(actions) == 0 {
		actions = p.PreventionActions
	}
	ordered := make([]models.PreventionAction, len(actions))
	copy(ordered, actions)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })

	result := &PreventionResult{Executions: make([]models.ActionExecution, 0, len(ordered))}
	var total float64
	for _, action := range ordered {
		res := e.run(ctx, p, action)

		status := models.ExecutionStatusExecuted
		if !res.Success {
			status = models.ExecutionStatusFailed
			slog.Warn("prevention action failed",
				"prediction_id", p.ID, "action", action.Type, "detail", res.Detail)
		} else {
			result.Success = true
		}
		total += res.Effectiveness
		metrics.PreventionActionsTotal.WithLabelValues(string(action.Type), status).Inc()

		exec := models.ActionExecution{
			ID:            uuid.New(),
			PredictionID:  p.ID,
			ActionType:    action.Type,
			Config:        action.Config,
			Status:        status,
			Effectiveness: res.Effectiveness,
			ExecutedAt:    e.now().UTC(),
		}
		if err := e.store.CreateActionExecution(ctx, &exec); err != nil {
			metrics.PersistenceFailuresTotal.WithLabelValues("execution").Inc()
			slog.Warn("failed to persist action execution", "prediction_id", p.ID, "action", action.Type, "error", err)
		}
		result.Executions = append(result.Executions, exec)
	}
	if len(ordered) > 0 {
		result.Effectiveness = total / float64(len(ordered))
	}

	if err := e.store.MarkPrevented(ctx, p.ID, result.Effectiveness); err != nil {
		metrics.PersistenceFailuresTotal.WithLabelValues("prediction").Inc()
		slog.Warn("failed to mark prediction prevented", "prediction_id", p.ID, "error", err)
	}

	slog.Info("prevention executed",
		"prediction_id", p.ID,
		"actions", len(ordered),
		"success", result.Success,
		"effectiveness", result.Effectiveness)
	return result, nil
}

func (e *Executor) run(ctx context.Context, p *models.AnomalyPrediction, action models.PreventionAction) ActionResult {
	h, ok := e.handlers[action.Type]
	if !ok {
		return ActionResult{Detail: fmt.Sprintf("no handler for action type %q", action.Type)}
	}
	return h(ctx, p, action)
}

// alert publishes the prediction on the owner's alert channel.
func (e *Executor) alert(ctx context.Context, p *models.AnomalyPrediction, action models.PreventionAction) ActionResult {
	msg := Alert{
		PredictionID: p.ID,
		UserID:       p.UserID.String(),
		AnomalyType:  p.AnomalyType,
		Severity:     string(p.Severity),
		Probability:  p.Probability,
		PredictedAt:  p.PredictedAt,
		Channels:     action.Config["channels"],
		Message: fmt.Sprintf("%s anomaly %q predicted within %dh (p=%.2f)",
			p.Severity, p.AnomalyType, p.HorizonHours, p.Probability),
	}
	if err := e.cache.Publish(ctx, cache.AlertChannel(p.UserID), msg); err != nil {
		return ActionResult{Detail: fmt.Sprintf("publish alert: %v", err)}
	}
	return ActionResult{Success: true, Effectiveness: action.EstimatedEffectiveness}
}

// directive dispatches a mitigation directive. Enforcement belongs to the
// platform consuming the alert and log stream; the executor records intent.
func (e *Executor) directive(_ context.Context, p *models.AnomalyPrediction, action models.PreventionAction) ActionResult {
	slog.Info("prevention directive",
		"prediction_id", p.ID,
		"user_id", p.UserID,
		"action", action.Type,
		"config", action.Config,
		"rollback_plan", action.RollbackPlan)
	return ActionResult{Success: true, Effectiveness: action.EstimatedEffectiveness}
}

func (e *Executor) autoRemediate(ctx context.Context, p *models.AnomalyPrediction, action models.PreventionAction) ActionResult {
	for _, req := range action.Prerequisites {
		if !e.capabilities[req] {
			return ActionResult{Detail: fmt.Sprintf("prerequisite %q not satisfied", req)}
		}
	}
	return e.directive(ctx, p, action)
}
