// ABOUTME: Settings model and YAML loading with global-then-project layering
// ABOUTME: Auth-service keys are kept for the external auth service, with ${VAR} references expanded

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings is the on-disk configuration shape. Project-local settings layer
// over the global file; zero values mean "not set here".
type Settings struct {
	Model            string `yaml:"model"`
	SystemPrompt     string `yaml:"system_prompt"`
	EnableTools      *bool  `yaml:"enable_tools"`
	ThinkingBudget   int    `yaml:"thinking_budget"`
	UseMinimalPrompt bool   `yaml:"use_minimal_prompt"`
	LogLevel         string `yaml:"log_level"`

	Env map[string]string `yaml:"env"`

	// AuthService carries jwt_secret/oauth_*/frontend_url/DB DSN options the
	// core never reads; they belong to the external auth service.
	AuthService map[string]string `yaml:"auth_service"`
}

// LoadSettings reads the global settings file, then layers the project-local
// file (if any) over it. A missing file contributes nothing; a malformed one
// is an error.
func LoadSettings(projectRoot string) (*Settings, error) {
	merged := &Settings{}

	for _, path := range []string{ConfigFile(), ProjectConfigFile(projectRoot)} {
		s, err := readSettingsFile(path)
		if err != nil {
			return nil, err
		}
		if s != nil {
			merged.overlay(s)
		}
	}

	ResolveEnvVars(merged)
	return merged, nil
}

func readSettingsFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	return &s, nil
}

// overlay applies every value set in other on top of s.
func (s *Settings) overlay(other *Settings) {
	if other.Model != "" {
		s.Model = other.Model
	}
	if other.SystemPrompt != "" {
		s.SystemPrompt = other.SystemPrompt
	}
	if other.EnableTools != nil {
		s.EnableTools = other.EnableTools
	}
	if other.ThinkingBudget != 0 {
		s.ThinkingBudget = other.ThinkingBudget
	}
	if other.UseMinimalPrompt {
		s.UseMinimalPrompt = true
	}
	if other.LogLevel != "" {
		s.LogLevel = other.LogLevel
	}
	for k, v := range other.Env {
		if s.Env == nil {
			s.Env = make(map[string]string)
		}
		s.Env[k] = v
	}
	for k, v := range other.AuthService {
		if s.AuthService == nil {
			s.AuthService = make(map[string]string)
		}
		s.AuthService[k] = v
	}
}

// ToolsEnabled returns the effective enable_tools value (default true).
func (s *Settings) ToolsEnabled() bool {
	if s.EnableTools == nil {
		return true
	}
	return *s.EnableTools
}
