// ABOUTME: Backend adapter over the OpenAI-compatible chat-completions wire format
// ABOUTME: Reused by the DeepSeek and OpenRouter adapters via BaseURL and header overrides

package openai

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
	defaultBaseURL      = "https://api.openai.com/v1"
	chatCompletionsPath = "/chat/completions"
)

// Backend implements backend.Backend for any OpenAI-wire-compatible provider
// (OpenAI itself, DeepSeek, OpenRouter — see deepseek.go/openrouter.go for
// their thin BaseURL/header variants).
type Backend struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	extraHeaders map[string]string
}

func init() {
	backend.Register("openai", func(apiKey, model string) backend.Backend {
		return New(apiKey, "", model, "OPENAI_API_KEY", nil)
	})
}

// New creates an OpenAI Backend. If apiKey is empty, it reads the given env
// var name (so DeepSeek/OpenRouter can point at their own variable).
func New(apiKey, baseURL, model, envVar string, extraHeaders map[string]string) *Backend {
	if apiKey == "" && envVar != "" {
		apiKey = os.Getenv(envVar)
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Backend{
		httpClient:   &http.Client{},
		baseURL:      baseURL,
		apiKey:       apiKey,
		model:        model,
		extraHeaders: extraHeaders,
	}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type requestBody struct {
	Model     string        `json:"model"`
	Messages  []wireMessage `json:"messages"`
	Stop      []string      `json:"stop,omitempty"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type responseBody struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// SendMessage implements backend.Backend.
func (b *Backend) SendMessage(ctx context.Context, req backend.Request) (backend.LlmResponse, error) {
	messages := toWireMessages(req.System, req.Messages)

	if req.ThinkingBudget > 0 {
		// This wire format has no thinking-budget field; warn instead of failing.
		fmt.Fprintf(os.Stderr, "warning: thinking_budget is ignored by the %s backend\n", b.model)
	}

	body := requestBody{
		Model:     b.model,
		Messages:  messages,
		Stop:      req.StopSequences,
		MaxTokens: req.MaxTokens,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return backend.LlmResponse{}, fmt.Errorf("openai: marshal request: %w", err)
	}

	resp, err := backend.DoWithRetry(ctx, func(attemptCtx context.Context) (*http.Response, error) {
		httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, b.baseURL+chatCompletionsPath, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")
		for k, v := range b.extraHeaders {
			httpReq.Header.Set(k, v)
		}
		return b.httpClient.Do(httpReq)
	})
	if err != nil {
		return backend.LlmResponse{}, fmt.Errorf("openai: %w", err)
	}
	defer resp.Body.Close()

	var parsed responseBody
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return backend.LlmResponse{}, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return backend.LlmResponse{}, fmt.Errorf("openai: no choices in response")
	}

	choice := parsed.Choices[0]
	stopReason, stopSequence := classifyStop(choice.FinishReason, choice.Message.Content, req.StopSequences)
	return backend.LlmResponse{
		Text:         choice.Message.Content,
		Usage:        backend.Usage{InputTokens: parsed.Usage.PromptTokens, OutputTokens: parsed.Usage.CompletionTokens},
		StopReason:   stopReason,
		StopSequence: stopSequence,
	}, nil
}

func toWireMessages(system string, msgs []conversation.Message) []wireMessage {
	out := make([]wireMessage, 0, len(msgs)+1)
	if system != "" {
		out = append(out, wireMessage{Role: "system", Content: system})
	}
	for _, m := range msgs {
		out = append(out, wireMessage{Role: string(m.Info.WireRole()), Content: m.Content})
	}
	return out
}

// classifyStop determines whether a "stop" finish_reason was actually a
// caller-supplied stop sequence. The chat-completions wire format doesn't
// echo which stop string matched, so this falls back to a suffix check
// against the text the model produced (the requested stop string is
// stripped from the echoed content by most OpenAI-compatible servers, but
// some include it — checking both a full match and its absence covers
// either behavior).
func classifyStop(finishReason, text string, stopSequences []string) (backend.StopReason, string) {
	switch finishReason {
	case "length":
		return backend.StopMaxTokens, ""
	case "stop":
		for _, seq := range stopSequences {
			if len(text) >= len(seq) && text[len(text)-len(seq):] == seq {
				return backend.StopSequenceStop, seq
			}
		}
		if len(stopSequences) > 0 {
			// The server stripped the matched sequence from the echoed text;
			// since the core only ever supplies the interrupt-probe pair or
			// the tool_result/tool_error pair, report the first as a
			// best-effort label rather than silently claiming end_turn.
			return backend.StopSequenceStop, stopSequences[0]
		}
		return backend.StopEndTurn, ""
	default:
		return backend.StopEndTurn, ""
	}
}
