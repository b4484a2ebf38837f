// ABOUTME: Effective-config resolution: CLI flags > env vars > settings files > defaults
// ABOUTME: Produces the provider name, model ID, and per-agent options in one pass

package config

import "os"

// Flags carries the CLI overrides that participate in resolution. Empty
// values mean "not given".
type Flags struct {
	Model   string
	System  string
	NoTools bool
	APIKey  string
}

// Resolved is the effective configuration after merging every source.
type Resolved struct {
	Provider         string
	Model            string
	SystemPrompt     string
	EnableTools      bool
	ThinkingBudget   int
	UseMinimalPrompt bool
}

// Resolve merges flags, environment, and layered settings into the effective
// configuration. Precedence per field: CLI flag > project settings > global
// settings > default; the model alone also reads AGENTCORE_MODEL, between
// the flag and the settings.
func Resolve(flags Flags, settings *Settings) Resolved {
	if settings == nil {
		settings = &Settings{}
	}

	model := firstNonEmpty(flags.Model, os.Getenv("AGENTCORE_MODEL"), settings.Model, DefaultModel)
	modelID, thinking := ParseModelSpec(model)

	budget := settings.ThinkingBudget
	if thinking != "" {
		budget = ThinkingBudgetFor(thinking)
	}

	system := firstNonEmpty(flags.System, settings.SystemPrompt)

	enableTools := settings.ToolsEnabled()
	if flags.NoTools {
		enableTools = false
	}

	return Resolved{
		Provider:         DetectProvider(modelID),
		Model:            modelID,
		SystemPrompt:     system,
		EnableTools:      enableTools,
		ThinkingBudget:   budget,
		UseMinimalPrompt: settings.UseMinimalPrompt,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
