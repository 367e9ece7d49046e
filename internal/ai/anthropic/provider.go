package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/foresight/internal/ai/llmhttp"
	"github.com/kiranshivaraju/foresight/internal/config"
	"github.com/kiranshivaraju/foresight/pkg/models"
)

const apiVersion = "2023-06-01"

// Provider implements models.Advisor using the Anthropic Messages API.
type Provider struct {
	cfg    config.AnthropicConfig
	client *llmhttp.Client
}

func NewProvider(cfg config.AnthropicConfig, client *llmhttp.Client) *Provider {
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Name() string { return "anthropic" }

type messagesRequest struct {
	Model     string            `json:"model"`
	MaxTokens int               `json:"max_tokens"`
	System    string            `json:"system"`
	Messages  []llmhttp.Message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (p *Provider) Suggest(ctx context.Context, prompt string, actx models.AdvisoryContext) (string, error) {
	user, err := llmhttp.UserMessage(prompt, actx)
	if err != nil {
		return "", err
	}

	var resp messagesResponse
	err = p.client.PostJSON(ctx, strings.TrimRight(p.cfg.BaseURL, "/")+"/v1/messages",
		map[string]string{
			"x-api-key":         p.cfg.APIKey,
			"anthropic-version": apiVersion,
		},
		messagesRequest{
			Model:     p.cfg.Model,
			MaxTokens: 1024,
			System:    llmhttp.SystemPrompt,
			Messages:  []llmhttp.Message{{Role: "user", Content: user}},
		}, &resp)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: no text content", llmhttp.ErrInvalidResponse)
	}
	return b.String(), nil
}

var _ models.Advisor = (*Provider)(nil)
