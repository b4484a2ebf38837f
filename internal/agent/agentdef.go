// ABOUTME: Named sub-agent templates for the `task` tool, with custom loading from disk
// ABOUTME: Loads from .agentcore/agents/, ~/.agentcore/agents/, .claude/agents/ directories

package agent

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Definition describes a reusable sub-agent template, the configuration the
// `task` tool hands to Spawn when its first arg names one of these.
type Definition struct {
	Name         string
	Description  string
	Model        string
	SystemPrompt string
	AllowedTools []string
	ReadOnly     bool
	MaxTurns     int
}

// ResolveAgentModel maps shorthand names to full model IDs.
func ResolveAgentModel(shorthand string) string {
	switch shorthand {
	case "fast":
		return "claude-haiku-4-5-20251001"
	case "default", "":
		return "claude-sonnet-4-6"
	case "powerful":
		return "claude-opus-4-6"
	default:
		return shorthand // assume it's already a full model ID
	}
}

// BuiltinDefinitions returns the built-in sub-agent templates.
func BuiltinDefinitions() map[string]Definition {
	return map[string]Definition{
		"explore": {
			Name:         "explore",
			Description:  "Fast agent for exploring codebases: search code, read files.",
			Model:        "fast",
			AllowedTools: []string{"read", "search", "done"},
			ReadOnly:     true,
			MaxTurns:     10,
			SystemPrompt: "You are an exploration agent. Search the codebase to answer questions. " +
				"Use search to locate relevant files, then read them. " +
				"Be thorough but efficient. Call done with your findings when finished.",
		},
		"plan": {
			Name:         "plan",
			Description:  "Software architect agent for designing implementation plans.",
			Model:        "default",
			AllowedTools: []string{"read", "search", "done"},
			ReadOnly:     true,
			MaxTurns:     15,
			SystemPrompt: "You are a planning agent. Analyze the codebase and design implementation plans. " +
				"Read existing code to understand patterns and architecture. " +
				"Call done with a step-by-step plan naming file locations and trade-offs.",
		},
		"bash_agent": {
			Name:         "bash_agent",
			Description:  "Command execution specialist for running shell commands.",
			Model:        "fast",
			AllowedTools: []string{"shell", "read", "done"},
			MaxTurns:     5,
			SystemPrompt: "You are a command execution agent. Run commands as requested. " +
				"Call done with the result. Be cautious with destructive operations.",
		},
	}
}

// LoadDefinitions loads sub-agent templates from all sources, merging with
// builtins. Custom definitions override builtins with the same name.
func LoadDefinitions(projectDir, homeDir string) (map[string]Definition, error) {
	defs := BuiltinDefinitions()

	dirs := []string{
		filepath.Join(homeDir, ".agentcore", "agents"),
		filepath.Join(homeDir, ".claude", "agents"),
		filepath.Join(projectDir, ".agentcore", "agents"),
		filepath.Join(projectDir, ".claude", "agents"),
	}

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}

			data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				continue
			}

			def := parseAgentFile(string(data), entry.Name())
			if def.Name != "" {
				defs[def.Name] = def
			}
		}
	}

	return defs, nil
}

// parseAgentFile parses a markdown sub-agent template with YAML frontmatter.
func parseAgentFile(content, filename string) Definition {
	def := Definition{}

	// Default name from filename
	def.Name = strings.TrimSuffix(filename, filepath.Ext(filename))

	if !strings.HasPrefix(content, "---\n") {
		def.SystemPrompt = content
		return def
	}

	endIdx := strings.Index(content[4:], "\n---")
	if endIdx < 0 {
		def.SystemPrompt = content
		return def
	}

	fm := content[4 : 4+endIdx]
	def.SystemPrompt = strings.TrimSpace(content[4+endIdx+4:])

	for line := range strings.SplitSeq(fm, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "name":
			def.Name = value
		case "description":
			def.Description = value
		case "model":
			def.Model = value
		case "max-turns":
			if n, err := strconv.Atoi(value); err == nil {
				def.MaxTurns = n
			}
		case "read-only":
			def.ReadOnly = value == "true"
		case "allowed-tools":
			def.AllowedTools = splitTrimCSV(value)
		}
	}

	return def
}

// splitTrimCSV splits a comma-separated string and trims whitespace.
func splitTrimCSV(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
