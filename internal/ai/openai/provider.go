package openai

import (
	"context"

	"github.com/kiranshivaraju/foresight/internal/ai/llmhttp"
	"github.com/kiranshivaraju/foresight/internal/config"
	"github.com/kiranshivaraju/foresight/pkg/models"
)

// Provider implements models.Advisor against the OpenAI chat completions API.
type Provider struct {
	cfg    config.OpenAIConfig
	client *llmhttp.Client
}

func NewProvider(cfg config.OpenAIConfig, client *llmhttp.Client) *Provider {
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) Suggest(ctx context.Context, prompt string, actx models.AdvisoryContext) (string, error) {
	messages, err := llmhttp.ChatMessages(prompt, actx)
	if err != nil {
		return "", err
	}
	return p.client.ChatCompletion(ctx, p.cfg.BaseURL, p.cfg.APIKey, p.cfg.Model, messages, true)
}

var _ models.Advisor = (*Provider)(nil)
