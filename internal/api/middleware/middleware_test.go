package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	mw "github.com/kiranshivaraju/foresight/internal/api/middleware"
	"github.com/kiranshivaraju/foresight/internal/metrics"
	"github.com/kiranshivaraju/foresight/internal/store"
	"github.com/kiranshivaraju/foresight/pkg/models"
)

// --- Mock Store ---

type mockStore struct {
	keys []*models.APIKey
	err  error
}

func (m *mockStore) Ping(_ context.Context) error { return nil }
func (m *mockStore) GetAPIKeyByPrefix(_ context.Context, _ string) ([]*models.APIKey, error) {
	return m.keys, m.err
}
func (m *mockStore) UpdateAPIKeyLastUsed(_ context.Context, _ uuid.UUID) error { return nil }
func (m *mockStore) CreateAPIKey(_ context.Context, _ *models.APIKey) error     { return nil }
func (m *mockStore) ListAnalysisRecords(_ context.Context, _ store.RecordFilter) ([]*models.AnalysisRecord, error) {
	return nil, nil
}
func (m *mockStore) GetAnalysisRecord(_ context.Context, _ uuid.UUID) (*models.AnalysisRecord, error) {
	return nil, store.ErrNotFound
}
func (m *mockStore) CreatePrediction(_ context.Context, _ *models.AnomalyPrediction) error { return nil }
func (m *mockStore) GetPrediction(_ context.Context, _ string) (*models.AnomalyPrediction, error) {
	return nil, store.ErrNotFound
}
func (m *mockStore) ListPredictions(_ context.Context, _ store.PredictionFilter) ([]*models.AnomalyPrediction, error) {
	return nil, nil
}
func (m *mockStore) ListDuePredictions(_ context.Context, _ time.Time, _ int) ([]*models.AnomalyPrediction, error) {
	return nil, nil
}
func (m *mockStore) MarkPrevented(_ context.Context, _ string, _ float64) error { return nil }
func (m *mockStore) ResolvePrediction(_ context.Context, _ string, _ string, _ bool) error {
	return nil
}
func (m *mockStore) CreateActionExecution(_ context.Context, _ *models.ActionExecution) error {
	return nil
}
func (m *mockStore) InsertRelationship(_ context.Context, _ *models.AnomalyRelationship) (bool, error) {
	return true, nil
}

// --- Mock Cache ---

type mockCache struct {
	counter int64
	err     error
}

func (m *mockCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (m *mockCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (m *mockCache) Delete(_ context.Context, _ string) error                          { return nil }
func (m *mockCache) Ping(_ context.Context) error                                      { return nil }
func (m *mockCache) Publish(_ context.Context, _ string, _ any) error                  { return nil }
func (m *mockCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	m.counter++
	return m.counter, m.err
}

// --- helpers ---

func okHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}

func hashKey(t *testing.T, rawKey string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func errBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"].(map[string]any)
}

func keyFor(t *testing.T, rawKey string, userID uuid.UUID, scopes ...string) *models.APIKey {
	return &models.APIKey{
		ID:        uuid.New(),
		UserID:    userID,
		KeyHash:   hashKey(t, rawKey),
		KeyPrefix: rawKey[:8],
		Scopes:    scopes,
	}
}

func withBearer(rawKey string) *http.Request {
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+rawKey)
	return req
}

// ========================================
// Auth Middleware Tests
// ========================================

func TestAuth_MissingAuthHeader(t *testing.T) {
	auth := mw.NewAuth(&mockStore{})
	handler := auth.Authenticate(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", errBody(t, w)["code"])
}

func TestAuth_InvalidBearerFormat(t *testing.T) {
	auth := mw.NewAuth(&mockStore{})
	handler := auth.Authenticate(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Basic abc123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_KeyTooShort(t *testing.T) {
	auth := mw.NewAuth(&mockStore{})
	w := httptest.NewRecorder()
	auth.Authenticate(okHandler()).ServeHTTP(w, withBearer("short"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_KeyNotFound(t *testing.T) {
	auth := mw.NewAuth(&mockStore{keys: []*models.APIKey{}})
	w := httptest.NewRecorder()
	auth.Authenticate(okHandler()).ServeHTTP(w, withBearer("fs_test1234567890"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_StoreError(t *testing.T) {
	auth := mw.NewAuth(&mockStore{err: errors.New("db down")})
	w := httptest.NewRecorder()
	auth.Authenticate(okHandler()).ServeHTTP(w, withBearer("fs_test1234567890"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errBody(t, w)["code"])
}

func TestAuth_WrongPassword(t *testing.T) {
	rawKey := "fs_test1234567890abcdef"
	key := keyFor(t, "different_key_entirely", uuid.New(), "read")
	auth := mw.NewAuth(&mockStore{keys: []*models.APIKey{key}})

	w := httptest.NewRecorder()
	auth.Authenticate(okHandler()).ServeHTTP(w, withBearer(rawKey))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ValidKey(t *testing.T) {
	rawKey := "fs_test1234567890abcdef"
	userID := uuid.New()
	auth := mw.NewAuth(&mockStore{keys: []*models.APIKey{keyFor(t, rawKey, userID, "read", "admin")}})

	var gotUserID uuid.UUID
	var gotOK bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, gotOK = mw.GetUserID(r)
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	auth.Authenticate(inner).ServeHTTP(w, withBearer(rawKey))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gotOK)
	assert.Equal(t, userID, gotUserID)
}

func TestAuth_RequireScope_Allowed(t *testing.T) {
	rawKey := "fs_admin_1234567890abcdef"
	auth := mw.NewAuth(&mockStore{keys: []*models.APIKey{keyFor(t, rawKey, uuid.New(), "read", "admin")}})

	w := httptest.NewRecorder()
	auth.Authenticate(auth.RequireScope("admin")(okHandler())).ServeHTTP(w, withBearer(rawKey))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_RequireScope_Denied(t *testing.T) {
	rawKey := "fs_read__1234567890abcdef"
	auth := mw.NewAuth(&mockStore{keys: []*models.APIKey{keyFor(t, rawKey, uuid.New(), "read")}})

	w := httptest.NewRecorder()
	auth.Authenticate(auth.RequireScope("admin")(okHandler())).ServeHTTP(w, withBearer(rawKey))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errBody(t, w)["code"])
}

// ========================================
// Rate Limit Middleware Tests
// ========================================

func limitedRequest(prefix string) *http.Request {
	req := httptest.NewRequest("GET", "/test", nil)
	return req.WithContext(mw.WithKeyPrefix(req.Context(), prefix))
}

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	rl := mw.NewRateLimit(&mockCache{}, 60)

	w := httptest.NewRecorder()
	rl.Limit(okHandler()).ServeHTTP(w, limitedRequest("fs_test1"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "59", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	rl := mw.NewRateLimit(&mockCache{counter: 60}, 60)

	w := httptest.NewRecorder()
	rl.Limit(okHandler()).ServeHTTP(w, limitedRequest("fs_over1"))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errBody(t, w)["code"])
}

func TestRateLimit_ConfiguredLimit(t *testing.T) {
	rl := mw.NewRateLimit(&mockCache{counter: 5}, 5)

	w := httptest.NewRecorder()
	rl.Limit(okHandler()).ServeHTTP(w, limitedRequest("fs_small"))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimit_CacheErrorFailsOpen(t *testing.T) {
	rl := mw.NewRateLimit(&mockCache{err: errors.New("redis down")}, 60)

	w := httptest.NewRecorder()
	rl.Limit(okHandler()).ServeHTTP(w, limitedRequest("fs_open1"))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_NoKeyPrefix_PassThrough(t *testing.T) {
	rl := mw.NewRateLimit(&mockCache{}, 60)

	w := httptest.NewRecorder()
	rl.Limit(okHandler()).ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

// ========================================
// Recovery Middleware Tests
// ========================================

func TestRecovery_CatchesPanic(t *testing.T) {
	panicking := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("something went wrong")
	})

	w := httptest.NewRecorder()
	mw.Recovery(panicking).ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errBody(t, w)["code"])
}

func TestRecovery_NoPanic(t *testing.T) {
	w := httptest.NewRecorder()
	mw.Recovery(okHandler()).ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

// ========================================
// Logging Middleware Tests
// ========================================

func TestLogger_CountsRequests(t *testing.T) {
	counter := metrics.HTTPRequestsTotal.WithLabelValues("DELETE", "418")
	before := testutil.ToFloat64(counter)

	teapot := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	w := httptest.NewRecorder()
	mw.Logger(teapot).ServeHTTP(w, httptest.NewRequest("DELETE", "/test", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
