// ABOUTME: Model ID to provider mapping, alias detection, and model-spec thinking suffixes
// ABOUTME: Provider detection is prefix-based; OpenRouter IDs carry a vendor/ path

package config

import (
	"regexp"
	"strings"
)

// DefaultModel is used when no model is configured anywhere.
const DefaultModel = "claude-sonnet-4-6"

// dateSuffixRe matches model IDs ending with a YYYYMMDD date suffix.
var dateSuffixRe = regexp.MustCompile(`-\d{8}$`)

// DetectProvider maps a model ID to the provider that serves it.
func DetectProvider(modelID string) string {
	switch {
	case strings.Contains(modelID, "/"):
		// Vendor-scoped IDs like anthropic/claude-sonnet-4-6 are OpenRouter's.
		return "openrouter"
	case strings.HasPrefix(modelID, "claude"):
		return "anthropic"
	case strings.HasPrefix(modelID, "deepseek"):
		return "deepseek"
	case strings.HasPrefix(modelID, "gpt"), strings.HasPrefix(modelID, "o1"),
		strings.HasPrefix(modelID, "o3"), strings.HasPrefix(modelID, "o4"):
		return "openai"
	default:
		return "anthropic"
	}
}

// IsAlias reports whether the model ID lacks a pinned YYYYMMDD date suffix.
func IsAlias(id string) bool {
	return !dateSuffixRe.MatchString(id)
}

// validThinkingLevels lists recognized thinking level suffixes.
var validThinkingLevels = map[string]bool{
	"off":    true,
	"low":    true,
	"medium": true,
	"high":   true,
}

// thinkingBudgets maps a thinking level to a token budget.
var thinkingBudgets = map[string]int{
	"off":    0,
	"low":    2048,
	"medium": 8192,
	"high":   32768,
}

// ParseModelSpec splits a model input into model ID and optional thinking
// level. Format: "model-id" or "model-id:thinking". If the part after the
// last colon is a valid thinking level it is extracted; otherwise the full
// string is the model ID.
func ParseModelSpec(input string) (modelID, thinkingLevel string) {
	if input == "" {
		return "", ""
	}

	lastColon := strings.LastIndex(input, ":")
	if lastColon < 0 {
		return input, ""
	}

	suffix := strings.ToLower(input[lastColon+1:])
	if validThinkingLevels[suffix] {
		return input[:lastColon], suffix
	}
	return input, ""
}

// ThinkingBudgetFor maps a thinking level to its token budget (0 if unknown).
func ThinkingBudgetFor(level string) int {
	return thinkingBudgets[level]
}
