package ai

import (
	"fmt"

	"github.com/kiranshivaraju/foresight/internal/ai/anthropic"
	"github.com/kiranshivaraju/foresight/internal/ai/llmhttp"
	"github.com/kiranshivaraju/foresight/internal/ai/mock"
	"github.com/kiranshivaraju/foresight/internal/ai/ollama"
	"github.com/kiranshivaraju/foresight/internal/ai/openai"
	"github.com/kiranshivaraju/foresight/internal/ai/vllm"
	"github.com/kiranshivaraju/foresight/internal/config"
	"github.com/kiranshivaraju/foresight/pkg/models"
)

// NewProvider constructs the advisory provider named in config.
// It returns nil, nil when no provider is configured.
func NewProvider(cfg config.AIConfig) (models.Advisor, error) {
	client := llmhttp.NewClient(cfg.InferenceTimeout)
	switch cfg.Provider {
	case "":
		return nil, nil
	case "ollama":
		return ollama.NewProvider(cfg.Ollama, client), nil
	case "vllm":
		return vllm.NewProvider(cfg.VLLM, client), nil
	case "openai":
		return openai.NewProvider(cfg.OpenAI, client), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic, client), nil
	case "mock":
		return mock.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of ollama, vllm, openai, anthropic, mock", cfg.Provider)
	}
}
