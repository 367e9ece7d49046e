package ollama

import (
	"context"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/foresight/internal/ai/llmhttp"
	"github.com/kiranshivaraju/foresight/internal/config"
	"github.com/kiranshivaraju/foresight/pkg/models"
)

// Provider implements models.Advisor using Ollama's /api/chat endpoint.
type Provider struct {
	cfg    config.OllamaConfig
	client *llmhttp.Client
}

func NewProvider(cfg config.OllamaConfig, client *llmhttp.Client) *Provider {
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Name() string { return "ollama" }

type chatRequest struct {
	Model    string            `json:"model"`
	Messages []llmhttp.Message `json:"messages"`
	Stream   bool              `json:"stream"`
	Format   string            `json:"format,omitempty"`
}

type chatResponse struct {
	Message llmhttp.Message `json:"message"`
	Done    bool            `json:"done"`
}

func (p *Provider) Suggest(ctx context.Context, prompt string, actx models.AdvisoryContext) (string, error) {
	messages, err := llmhttp.ChatMessages(prompt, actx)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	err = p.client.PostJSON(ctx, strings.TrimRight(p.cfg.BaseURL, "/")+"/api/chat", nil, chatRequest{
		Model:    p.cfg.Model,
		Messages: messages,
		Format:   "json",
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Message.Content == "" {
		return "", fmt.Errorf("%w: empty message", llmhttp.ErrInvalidResponse)
	}
	return resp.Message.Content, nil
}

var _ models.Advisor = (*Provider)(nil)
