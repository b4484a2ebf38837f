// ABOUTME: DeepSeek Backend: OpenAI-compatible wire format at DeepSeek's base URL
// ABOUTME: Thin constructor over the openai adapter with DeepSeek defaults

package deepseek

import (
	"github.com/corepilot/agentcore/internal/backend"
	"github.com/corepilot/agentcore/internal/backend/openai"
)

const baseURL = "https://api.deepseek.com/v1"

func init() {
	backend.Register("deepseek", func(apiKey, model string) backend.Backend {
		return New(apiKey, model)
	})
}

// New creates a Backend against DeepSeek's OpenAI-compatible API.
func New(apiKey, model string) backend.Backend {
	return openai.New(apiKey, baseURL, model, "DEEPSEEK_API_KEY", nil)
}
