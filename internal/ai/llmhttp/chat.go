package llmhttp

import (
	"context"
	"fmt"
	"strings"
)

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// ChatCompletion calls an OpenAI-compatible /chat/completions endpoint and
// returns the first choice's content. apiKey may be empty for self-hosted servers.
func (c *Client) ChatCompletion(ctx context.Context, endpoint, apiKey, model string, messages []Message, jsonMode bool) (string, error) {
	req := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: 0.2,
		MaxTokens:   1024,
	}
	if jsonMode {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	headers := map[string]string{}
	if apiKey != "" {
		headers["Authorization"] = "Bearer " + apiKey
	}

	var resp chatResponse
	if err := c.PostJSON(ctx, strings.TrimRight(endpoint, "/")+"/chat/completions", headers, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrInvalidResponse)
	}
	return resp.Choices[0].Message.Content, nil
}
