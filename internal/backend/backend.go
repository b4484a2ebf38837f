// ABOUTME: Opaque request/response façade to an external LLM provider
// ABOUTME: Implementations own their HTTP client, retry policy, and token-limit table

package backend

import (
	"context"
	"errors"

	"github.com/corepilot/agentcore/internal/conversation"
)

// StopReason indicates why the model stopped generating.
type StopReason string

const (
	StopEndTurn      StopReason = "end_turn"
	StopMaxTokens    StopReason = "max_tokens"
	StopSequenceStop StopReason = "stop_sequence"
)

// Usage reports the declared token counts for one Backend call. The agent
// uses InputTokens+OutputTokens to drive the >300-token cache-point trigger.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// LlmResponse is the result of a single Backend call.
type LlmResponse struct {
	Text         string // the model's full textual response
	Usage        Usage
	StopReason   StopReason
	StopSequence string // which stop sequence was hit, when StopReason == StopSequenceStop
}

// Request carries every parameter the core composes for a single call.
type Request struct {
	Messages       []conversation.Message
	System         string
	StopSequences  []string
	ThinkingBudget int
	CachePoints    []int
	MaxTokens      int
}

// Backend is the opaque contract the core relies on. Implementations
// own their HTTP client, retry policy, and token-limit table; the core
// never sees provider wire formats.
type Backend interface {
	// SendMessage issues one call and returns the full response. Calls are
	// order-preserving within a single conversation (the core never issues
	// two concurrent calls against the same Request source).
	SendMessage(ctx context.Context, req Request) (LlmResponse, error)
}

// RateLimitError is returned by a Backend when the provider signals a
// rate limit (HTTP 429) after exhausting retries.
type RateLimitError struct {
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return "backend: rate limited"
}

// ServerError is returned when the provider's 5xx responses persist past
// the retry budget.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "backend: server error"
}

// ClientError is returned for a non-retryable 4xx response.
type ClientError struct {
	StatusCode int
	Body       string
}

func (e *ClientError) Error() string {
	return "backend: client error: " + e.Body
}

// IsRateLimit reports whether err (or a wrapped cause) is a RateLimitError.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
