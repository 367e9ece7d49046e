package vllm

import (
	"context"
	"strings"

	"github.com/kiranshivaraju/foresight/internal/ai/llmhttp"
	"github.com/kiranshivaraju/foresight/internal/config"
	"github.com/kiranshivaraju/foresight/pkg/models"
)

// Provider implements models.Advisor using a vLLM server's OpenAI-compatible API.
type Provider struct {
	cfg    config.VLLMConfig
	client *llmhttp.Client
}

func NewProvider(cfg config.VLLMConfig, client *llmhttp.Client) *Provider {
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Name() string { return "vllm" }

func (p *Provider) Suggest(ctx context.Context, prompt string, actx models.AdvisoryContext) (string, error) {
	messages, err := llmhttp.ChatMessages(prompt, actx)
	if err != nil {
		return "", err
	}
	// vLLM serves the OpenAI routes under /v1 and does not support response_format everywhere.
	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/v1"
	return p.client.ChatCompletion(ctx, endpoint, "", p.cfg.Model, messages, false)
}

var _ models.Advisor = (*Provider)(nil)
