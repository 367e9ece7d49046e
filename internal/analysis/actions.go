package analysis

import (
	"github.com/kiranshivaraju/foresight/pkg/models"
)

// PrerequisiteMonitoring gates automatic remediation.
const PrerequisiteMonitoring = "monitoring_enabled"

// GenerateActions returns the deterministic prevention plan for a prediction.
func GenerateActions(probability float64, horizonHours int, severity models.Severity, anomalyType string) []models.PreventionAction {
	actions := []models.PreventionAction{ActionTemplate(models.ActionAlert, severity, anomalyType)}

	if probability > 0.7 && horizonHours <= 6 {
		actions = append(actions, ActionTemplate(models.ActionThrottle, severity, anomalyType))
	}
	if probability > 0.85 && horizonHours <= 1 {
		actions = append(actions, ActionTemplate(models.ActionCircuitBreak, severity, anomalyType))
	}
	if probability > 0.6 {
		actions = append(actions, ActionTemplate(models.ActionAutoRemediate, severity, anomalyType))
	}
	return actions
}

// ActionTemplate builds the default directive for an action type.
func ActionTemplate(t models.ActionType, severity models.Severity, anomalyType string) models.PreventionAction {
	switch t {
	case models.ActionAlert:
		return models.PreventionAction{
			Type:                   t,
			Config:                 map[string]any{"channels": []string{"email", "in_app"}, "severity": string(severity)},
			Priority:               1,
			EstimatedEffectiveness: 0.6,
		}
	case models.ActionThrottle:
		return models.PreventionAction{
			Type:                   t,
			Config:                 map[string]any{"rate_limit_percent": 50, "duration_minutes": 30},
			Priority:               2,
			EstimatedEffectiveness: 0.75,
			RollbackPlan:           map[string]any{"action": "restore_full_load", "rate_limit_percent": 100},
		}
	case models.ActionCircuitBreak:
		return models.PreventionAction{
			Type:                   t,
			Config:                 map[string]any{"failure_threshold": 5, "timeout_seconds": 30},
			Priority:               3,
			EstimatedEffectiveness: 0.9,
		}
	case models.ActionAutoRemediate:
		return models.PreventionAction{
			Type:                   t,
			Config:                 map[string]any{"playbook": "remediate_" + anomalyType},
			Priority:               4,
			EstimatedEffectiveness: 0.8,
			Prerequisites:          []string{PrerequisiteMonitoring},
		}
	case models.ActionScale:
		return models.PreventionAction{
			Type:                   t,
			Config:                 map[string]any{"scale_factor": 1.5},
			Priority:               5,
			EstimatedEffectiveness: 0.7,
			RollbackPlan:           map[string]any{"action": "scale_to_baseline"},
		}
	case models.ActionIsolate:
		return models.PreventionAction{
			Type:                   t,
			Config:                 map[string]any{"scope": anomalyType},
			Priority:               6,
			EstimatedEffectiveness: 0.7,
			RollbackPlan:           map[string]any{"action": "rejoin"},
		}
	case models.ActionRollback:
		return models.PreventionAction{
			Type:                   t,
			Config:                 map[string]any{"target": "last_known_good"},
			Priority:               7,
			EstimatedEffectiveness: 0.65,
		}
	default:
		return models.PreventionAction{Type: t, Priority: 10, EstimatedEffectiveness: 0.5}
	}
}
