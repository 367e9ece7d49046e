package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/foresight/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- API Keys ---

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		key.ID, key.UserID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

// --- Analysis records ---

const recordColumns = `id, user_id, status, anomalies_found, classification, results, created_at`

func scanRecord(row pgx.Row) (*models.AnalysisRecord, error) {
	var r models.AnalysisRecord
	var results []byte
	if err := row.Scan(&r.ID, &r.UserID, &r.Status, &r.AnomaliesFound, &r.Classification,
		&results, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Results = results
	return &r, nil
}

func (s *PostgresStore) ListAnalysisRecords(ctx context.Context, filter RecordFilter) ([]*models.AnalysisRecord, error) {
	conditions := []string{"user_id = $1"}
	args := []any{filter.UserID}
	argIdx := 2

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, filter.Since)
		argIdx++
	}
	if !filter.Until.IsZero() {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, filter.Until)
		argIdx++
	}

	query := "SELECT " + recordColumns + " FROM analyses WHERE " +
		strings.Join(conditions, " AND ") + " ORDER BY created_at ASC"
	if filter.Limit > 0 {
		// Keep the newest rows when limited, still returned oldest first.
		query = fmt.Sprintf("SELECT %s FROM (SELECT %s FROM analyses WHERE %s ORDER BY created_at DESC LIMIT $%d) recent ORDER BY created_at ASC",
			recordColumns, recordColumns, strings.Join(conditions, " AND "), argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list analysis records: %w", err)
	}
	defer rows.Close()

	var records []*models.AnalysisRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PostgresStore) GetAnalysisRecord(ctx context.Context, id uuid.UUID) (*models.AnalysisRecord, error) {
	r, err := scanRecord(s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM analyses WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis record: %w", err)
	}
	return r, nil
}

// --- Predictions ---

const predictionColumns = `id, user_id, analysis_id, anomaly_type, severity, probability, confidence,
	predicted_at, horizon_hours, source, prevention_actions, causal_chain, ensemble_votes, risk_factors,
	status, actual_occurred, prevented, prevention_effectiveness, validated_at, created_at, updated_at`

func scanPrediction(row pgx.Row) (*models.AnomalyPrediction, error) {
	var p models.AnomalyPrediction
	var actions, chain, votes, risks []byte
	if err := row.Scan(&p.ID, &p.UserID, &p.AnalysisID, &p.AnomalyType, &p.Severity, &p.Probability,
		&p.Confidence, &p.PredictedAt, &p.HorizonHours, &p.Source, &actions, &chain, &votes, &risks,
		&p.Status, &p.ActualOccurred, &p.Prevented, &p.PreventionEffectiveness, &p.ValidatedAt,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	for _, col := range []struct {
		raw []byte
		dst any
	}{
		{actions, &p.PreventionActions},
		{chain, &p.CausalChain},
		{votes, &p.EnsembleVotes},
		{risks, &p.RiskFactors},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("decode prediction %s: %w", p.ID, err)
		}
	}
	return &p, nil
}

// jsonList encodes v for a NOT NULL jsonb column, writing [] for nil slices.
func jsonList[T any](v []T) ([]byte, error) {
	if v == nil {
		v = []T{}
	}
	return json.Marshal(v)
}

func (s *PostgresStore) CreatePrediction(ctx context.Context, p *models.AnomalyPrediction) error {
	actions, err := jsonList(p.PreventionActions)
	if err != nil {
		return fmt.Errorf("encode prevention actions: %w", err)
	}
	chain, err := jsonList(p.CausalChain)
	if err != nil {
		return fmt.Errorf("encode causal chain: %w", err)
	}
	votes, err := jsonList(p.EnsembleVotes)
	if err != nil {
		return fmt.Errorf("encode ensemble votes: %w", err)
	}
	risks, err := jsonList(p.RiskFactors)
	if err != nil {
		return fmt.Errorf("encode risk factors: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO anomaly_predictions (id, user_id, analysis_id, anomaly_type, severity, probability,
		   confidence, predicted_at, horizon_hours, source, prevention_actions, causal_chain, ensemble_votes,
		   risk_factors, status, prevented, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		p.ID, p.UserID, p.AnalysisID, p.AnomalyType, string(p.Severity), p.Probability, p.Confidence,
		p.PredictedAt, p.HorizonHours, p.Source, actions, chain, votes, risks, p.Status, p.Prevented,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create prediction: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPrediction(ctx context.Context, id string) (*models.AnomalyPrediction, error) {
	p, err := scanPrediction(s.pool.QueryRow(ctx,
		`SELECT `+predictionColumns+` FROM anomaly_predictions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get prediction: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPredictions(ctx context.Context, filter PredictionFilter) ([]*models.AnomalyPrediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM anomaly_predictions WHERE user_id = $1`
	args := []any{filter.UserID}
	if filter.Status != "" {
		query += ` AND status = $2`
		args = append(args, filter.Status)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	return s.queryPredictions(ctx, "list predictions", query, args...)
}

func (s *PostgresStore) ListDuePredictions(ctx context.Context, before time.Time, limit int) ([]*models.AnomalyPrediction, error) {
	return s.queryPredictions(ctx, "list due predictions",
		`SELECT `+predictionColumns+` FROM anomaly_predictions
		 WHERE status = $1 AND predicted_at <= $2 ORDER BY predicted_at ASC LIMIT $3`,
		models.PredictionStatusPending, before, limit)
}

func (s *PostgresStore) queryPredictions(ctx context.Context, op, query string, args ...any) ([]*models.AnomalyPrediction, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*models.AnomalyPrediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkPrevented flags a prediction as prevented and stamps the effectiveness.
// Only a PENDING prediction moves to PREVENTED; terminal statuses are kept.
func (s *PostgresStore) MarkPrevented(ctx context.Context, id string, effectiveness float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE anomaly_predictions SET
		   prevented = TRUE,
		   prevention_effectiveness = $2,
		   status = CASE WHEN status = $3 THEN $4 ELSE status END,
		   updated_at = NOW()
		 WHERE id = $1`,
		id, effectiveness, models.PredictionStatusPending, models.PredictionStatusPrevented)
	if err != nil {
		return fmt.Errorf("mark prediction prevented: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var validTransitions = map[string][]string{
	models.PredictionStatusPending: {
		models.PredictionStatusConfirmed,
		models.PredictionStatusPrevented,
		models.PredictionStatusFalsePositive,
	},
}

// ResolvePrediction records the validation outcome of a prediction.
func (s *PostgresStore) ResolvePrediction(ctx context.Context, id string, status string, occurred bool) error {
	var currentStatus string
	err := s.pool.QueryRow(ctx, `SELECT status FROM anomaly_predictions WHERE id = $1`, id).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get prediction status: %w", err)
	}

	if !slices.Contains(validTransitions[currentStatus], status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, currentStatus, status)
	}

	// The status guard keeps a concurrent validator run from resolving twice.
	tag, err := s.pool.Exec(ctx,
		`UPDATE anomaly_predictions SET status = $2, actual_occurred = $3, validated_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND status = $4`,
		id, status, occurred, currentStatus)
	if err != nil {
		return fmt.Errorf("resolve prediction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s changed concurrently", ErrInvalidTransition, id)
	}
	return nil
}

// --- Prevention executions ---

func (s *PostgresStore) CreateActionExecution(ctx context.Context, exec *models.ActionExecution) error {
	var config []byte
	if exec.Config != nil {
		var err error
		if config, err = json.Marshal(exec.Config); err != nil {
			return fmt.Errorf("encode action config: %w", err)
		}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO prevention_executions (id, prediction_id, action_type, config, status, effectiveness, executed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		exec.ID, exec.PredictionID, string(exec.ActionType), config, exec.Status, exec.Effectiveness, exec.ExecutedAt)
	if err != nil {
		return fmt.Errorf("create action execution: %w", err)
	}
	return nil
}

// --- Relationships ---

func (s *PostgresStore) InsertRelationship(ctx context.Context, rel *models.AnomalyRelationship) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO anomaly_relationships (id, user_id, source_analysis_id, target_analysis_id, relationship_type,
		   strength, delay_hours, causal_confidence, evidence_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (source_analysis_id, target_analysis_id, relationship_type) DO NOTHING`,
		rel.ID, rel.UserID, rel.SourceAnalysisID, rel.TargetAnalysisID, rel.RelationshipType,
		rel.Strength, rel.DelayHours, rel.CausalConfidence, rel.EvidenceCount, rel.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert relationship: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
