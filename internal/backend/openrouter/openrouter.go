// ABOUTME: OpenRouter Backend: OpenAI-compatible wire format at OpenRouter's base URL
// ABOUTME: Adds the provider's required attribution headers via extraHeaders

package openrouter

import (
	"github.com/corepilot/agentcore/internal/backend"
	"github.com/corepilot/agentcore/internal/backend/openai"
)

const baseURL = "https://openrouter.ai/api/v1"

func init() {
	backend.Register("openrouter", func(apiKey, model string) backend.Backend {
		return New(apiKey, model)
	})
}

// New creates a Backend against OpenRouter's OpenAI-compatible API.
func New(apiKey, model string) backend.Backend {
	headers := map[string]string{
		"HTTP-Referer": "https://github.com/corepilot/agentcore",
		"X-Title":      "agentcore",
	}
	return openai.New(apiKey, baseURL, model, "OPENROUTER_API_KEY", headers)
}
