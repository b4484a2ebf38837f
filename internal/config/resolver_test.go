package config

import "testing"

func TestResolveDefaults(t *testing.T) {
	r := Resolve(Flags{}, &Settings{})

	if r.Model != DefaultModel {
		t.Errorf("model = %q, want default", r.Model)
	}
	if r.Provider != "anthropic" {
		t.Errorf("provider = %q, want anthropic", r.Provider)
	}
	if !r.EnableTools {
		t.Error("tools should default to enabled")
	}
}

func TestResolvePrecedence(t *testing.T) {
	settings := &Settings{Model: "gpt-4o", SystemPrompt: "from settings"}

	r := Resolve(Flags{}, settings)
	if r.Model != "gpt-4o" || r.Provider != "openai" {
		t.Fatalf("settings model: got %q/%q", r.Provider, r.Model)
	}

	t.Setenv("AGENTCORE_MODEL", "deepseek-chat")
	r = Resolve(Flags{}, settings)
	if r.Model != "deepseek-chat" || r.Provider != "deepseek" {
		t.Fatalf("env should win over settings: got %q/%q", r.Provider, r.Model)
	}

	r = Resolve(Flags{Model: "claude-opus-4-6", System: "from flag"}, settings)
	if r.Model != "claude-opus-4-6" || r.Provider != "anthropic" {
		t.Fatalf("flag should win over env: got %q/%q", r.Provider, r.Model)
	}
	if r.SystemPrompt != "from flag" {
		t.Errorf("system prompt = %q, want flag value", r.SystemPrompt)
	}
}

func TestResolveNoToolsFlag(t *testing.T) {
	r := Resolve(Flags{NoTools: true}, &Settings{})
	if r.EnableTools {
		t.Error("--no-tools must disable tools")
	}
}

func TestResolveThinkingSuffix(t *testing.T) {
	r := Resolve(Flags{Model: "claude-sonnet-4-6:high"}, &Settings{})
	if r.Model != "claude-sonnet-4-6" {
		t.Errorf("model = %q, suffix not stripped", r.Model)
	}
	if r.ThinkingBudget != ThinkingBudgetFor("high") {
		t.Errorf("thinking budget = %d", r.ThinkingBudget)
	}
}
