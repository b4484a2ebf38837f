package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSettingsOverlay(t *testing.T) {
	off := false
	base := &Settings{Model: "claude-sonnet-4-6", LogLevel: "info"}
	project := &Settings{Model: "gpt-4o", EnableTools: &off}

	base.overlay(project)

	if base.Model != "gpt-4o" {
		t.Errorf("model = %q, project should win", base.Model)
	}
	if base.LogLevel != "info" {
		t.Errorf("log level = %q, unset project field must not clobber", base.LogLevel)
	}
	if base.ToolsEnabled() {
		t.Error("project enable_tools=false should take effect")
	}
}

func TestLoadSettingsProjectLayering(t *testing.T) {
	root := t.TempDir()
	if err := EnsureDir(ProjectDir(root)); err != nil {
		t.Fatal(err)
	}
	content := "model: deepseek-chat\nthinking_budget: 1024\nauth_service:\n  jwt_secret: ${TEST_JWT}\n"
	if err := os.WriteFile(ProjectConfigFile(root), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TEST_JWT", "expanded")

	s, err := LoadSettings(root)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.Model != "deepseek-chat" {
		t.Errorf("model = %q", s.Model)
	}
	if s.ThinkingBudget != 1024 {
		t.Errorf("thinking_budget = %d", s.ThinkingBudget)
	}
	if s.AuthService["jwt_secret"] != "expanded" {
		t.Errorf("auth_service passthrough = %q, env not expanded", s.AuthService["jwt_secret"])
	}
}

func TestLoadSettingsMalformed(t *testing.T) {
	root := t.TempDir()
	if err := EnsureDir(ProjectDir(root)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ProjectConfigFile(root), []byte(":\nnot yaml ["), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSettings(root); err == nil {
		t.Fatal("expected error for malformed settings file")
	}
}

func TestPathsUnderGlobalDir(t *testing.T) {
	for _, p := range []string{AuthFile(), TokenFile(), ConfigFile(), SessionsDir()} {
		if filepath.Dir(p) != GlobalDir() {
			t.Errorf("%s not under %s", p, GlobalDir())
		}
	}
}
