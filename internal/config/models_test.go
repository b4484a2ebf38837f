package config

import "testing"

func TestDetectProvider(t *testing.T) {
	cases := map[string]string{
		"claude-sonnet-4-6":            "anthropic",
		"claude-haiku-4-5-20251001":    "anthropic",
		"gpt-4o":                       "openai",
		"o3-mini":                      "openai",
		"deepseek-chat":                "deepseek",
		"anthropic/claude-sonnet-4-6":  "openrouter",
		"meta-llama/llama-3.3-70b":     "openrouter",
		"something-unrecognized":       "anthropic",
	}
	for id, want := range cases {
		if got := DetectProvider(id); got != want {
			t.Errorf("DetectProvider(%q) = %q, want %q", id, got, want)
		}
	}
}

func TestParseModelSpec(t *testing.T) {
	cases := []struct {
		in       string
		id       string
		thinking string
	}{
		{"claude-sonnet-4-6", "claude-sonnet-4-6", ""},
		{"claude-sonnet-4-6:high", "claude-sonnet-4-6", "high"},
		{"claude-sonnet-4-6:OFF", "claude-sonnet-4-6", "off"},
		{"model:with:colons", "model:with:colons", ""},
		{"", "", ""},
	}
	for _, c := range cases {
		id, thinking := ParseModelSpec(c.in)
		if id != c.id || thinking != c.thinking {
			t.Errorf("ParseModelSpec(%q) = (%q, %q), want (%q, %q)", c.in, id, thinking, c.id, c.thinking)
		}
	}
}

func TestIsAlias(t *testing.T) {
	if !IsAlias("claude-sonnet-4-6") {
		t.Error("undated ID should be an alias")
	}
	if IsAlias("claude-haiku-4-5-20251001") {
		t.Error("dated ID should not be an alias")
	}
}
