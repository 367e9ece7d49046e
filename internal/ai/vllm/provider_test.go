package vllm_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kiranshivaraju/foresight/internal/ai/llmhttp"
	"github.com/kiranshivaraju/foresight/internal/ai/vllm"
	"github.com/kiranshivaraju/foresight/internal/config"
	"github.com/kiranshivaraju/foresight/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest_UsesV1RouteWithoutAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	p := vllm.NewProvider(config.VLLMConfig{BaseURL: srv.URL + "/", Model: "mistral-7b"}, llmhttp.NewClient(5 * time.Second))
	assert.Equal(t, "vllm", p.Name())

	reply, err := p.Suggest(context.Background(), "predict", models.AdvisoryContext{})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
}
