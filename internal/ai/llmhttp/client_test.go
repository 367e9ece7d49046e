package llmhttp_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kiranshivaraju/foresight/internal/ai/llmhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Key"))
		w.Write([]byte(`{"reply":"ok"}`))
	}))
	defer srv.Close()

	var out struct {
		Reply string `json:"reply"`
	}
	err := llmhttp.NewClient(time.Second).PostJSON(context.Background(), srv.URL, map[string]string{"X-Key": "secret"}, map[string]string{"q": "hi"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Reply)
}

func TestPostJSON_ClientTimeoutBoundsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	var out map[string]any
	err := llmhttp.NewClient(50*time.Millisecond).PostJSON(context.Background(), srv.URL, nil, map[string]string{}, &out)
	assert.ErrorIs(t, err, llmhttp.ErrInferenceTimeout)
}

func TestPostJSON_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var out map[string]any
	err := llmhttp.NewClient(time.Second).PostJSON(context.Background(), srv.URL, nil, map[string]string{}, &out)
	assert.ErrorIs(t, err, llmhttp.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestPostJSON_InvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var out map[string]any
	err := llmhttp.NewClient(time.Second).PostJSON(context.Background(), srv.URL, nil, map[string]string{}, &out)
	assert.ErrorIs(t, err, llmhttp.ErrInvalidResponse)
}
