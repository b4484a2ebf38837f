// ABOUTME: Backend adapter over the Anthropic Messages API, non-streaming
// ABOUTME: Maps cache points onto cache_control blocks; surfaces stop_sequence hits verbatim

package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/corepilot/agentcore/internal/backend"
	"github.com/corepilot/agentcore/internal/conversation"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
	messagesPath     = "/v1/messages"
)

// Backend implements backend.Backend for the Anthropic Messages API.
type Backend struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func init() {
	backend.Register("anthropic", func(apiKey, model string) backend.Backend {
		return New(apiKey, "", model)
	})
}

// New creates an Anthropic Backend. If apiKey is empty, it reads
// ANTHROPIC_API_KEY. model is the Anthropic model id to request.
func New(apiKey, baseURL, model string) *Backend {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Backend{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

type wireMessage struct {
	Role    string      `json:"role"`
	Content []wireBlock `json:"content"`
}

type wireBlock struct {
	Type         string        `json:"type"`
	Text         string        `json:"text"`
	CacheControl *cacheControl `json:"cache_control,omitempty"`
}

type cacheControl struct {
	Type string `json:"type"`
}

type requestBody struct {
	Model         string        `json:"model"`
	System        string        `json:"system,omitempty"`
	Messages      []wireMessage `json:"messages"`
	StopSequences []string      `json:"stop_sequences,omitempty"`
	MaxTokens     int           `json:"max_tokens"`
	Thinking      *thinkingCfg  `json:"thinking,omitempty"`
}

type thinkingCfg struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

type responseBody struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason   string `json:"stop_reason"`
	StopSequence string `json:"stop_sequence"`
	Usage        struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// SendMessage implements backend.Backend.
func (b *Backend) SendMessage(ctx context.Context, req backend.Request) (backend.LlmResponse, error) {
	body := requestBody{
		Model:         b.model,
		System:        req.System,
		Messages:      toWireMessages(req.Messages, req.CachePoints),
		StopSequences: req.StopSequences,
		MaxTokens:     maxTokensOrDefault(req.MaxTokens),
	}
	// Only Anthropic-class models interpret the thinking budget; the other
	// adapters ignore it with a warning.
	if req.ThinkingBudget > 0 {
		body.Thinking = &thinkingCfg{Type: "enabled", BudgetTokens: req.ThinkingBudget}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return backend.LlmResponse{}, fmt.Errorf("anthropic: marshal request: %w", err)
	}

	resp, err := backend.DoWithRetry(ctx, func(attemptCtx context.Context) (*http.Response, error) {
		httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, b.baseURL+messagesPath, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("x-api-key", b.apiKey)
		httpReq.Header.Set("anthropic-version", anthropicVersion)
		httpReq.Header.Set("content-type", "application/json")
		return b.httpClient.Do(httpReq)
	})
	if err != nil {
		return backend.LlmResponse{}, fmt.Errorf("anthropic: %w", err)
	}
	defer resp.Body.Close()

	var parsed responseBody
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return backend.LlmResponse{}, fmt.Errorf("anthropic: decode response: %w", err)
	}

	var text string
	for _, c := range parsed.Content {
		if c.Type == "text" {
			text += c.Text
		}
	}

	return backend.LlmResponse{
		Text:         text,
		Usage:        backend.Usage{InputTokens: parsed.Usage.InputTokens, OutputTokens: parsed.Usage.OutputTokens},
		StopReason:   mapStopReason(parsed.StopReason),
		StopSequence: parsed.StopSequence,
	}, nil
}

// toWireMessages converts messages to the wire shape, marking each message
// whose index is a cache point with an ephemeral cache_control block so the
// provider can reuse the prefix up to that message.
func toWireMessages(msgs []conversation.Message, cachePoints []int) []wireMessage {
	cached := make(map[int]bool, len(cachePoints))
	for _, idx := range cachePoints {
		cached[idx] = true
	}

	out := make([]wireMessage, 0, len(msgs))
	for i, m := range msgs {
		block := wireBlock{Type: "text", Text: m.Content}
		if cached[i] {
			block.CacheControl = &cacheControl{Type: "ephemeral"}
		}
		out = append(out, wireMessage{Role: string(m.Info.WireRole()), Content: []wireBlock{block}})
	}
	return out
}

func mapStopReason(raw string) backend.StopReason {
	switch raw {
	case "stop_sequence":
		return backend.StopSequenceStop
	case "max_tokens":
		return backend.StopMaxTokens
	default:
		return backend.StopEndTurn
	}
}

func maxTokensOrDefault(n int) int {
	if n <= 0 {
		return 4096
	}
	return n
}
