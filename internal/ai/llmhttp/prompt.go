package llmhttp

import (
	"encoding/json"
	"fmt"

	"github.com/kiranshivaraju/foresight/pkg/models"
)

// SystemPrompt frames every advisory request.
const SystemPrompt = "You are a reliability analyst reviewing anomaly statistics for one user. " +
	"Base every statement on the supplied data only. Reply with a single JSON object and no prose."

// Message is a chat message in the OpenAI-compatible shape, also used by Ollama.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserMessage renders the prompt followed by the advisory context as JSON.
func UserMessage(prompt string, actx models.AdvisoryContext) (string, error) {
	raw, err := json.MarshalIndent(actx, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal advisory context: %w", err)
	}
	return prompt + "\n\nContext:\n" + string(raw), nil
}

// ChatMessages builds the system and user messages for a chat endpoint.
func ChatMessages(prompt string, actx models.AdvisoryContext) ([]Message, error) {
	user, err := UserMessage(prompt, actx)
	if err != nil {
		return nil, err
	}
	return []Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: user},
	}, nil
}
