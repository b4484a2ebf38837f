// ABOUTME: Standard filesystem paths for agentcore configuration and data
// ABOUTME: Global config under the user config dir; project-local under .agentcore/

package config

import (
	"os"
	"path/filepath"
)

const appName = "agentcore"

// GlobalDir returns the user-global config directory
// (<user config dir>/agentcore, e.g. ~/.config/agentcore on Linux).
func GlobalDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return filepath.Join(".", "."+appName)
		}
		return filepath.Join(home, "."+appName)
	}
	return filepath.Join(base, appName)
}

// ProjectDir returns the project-local config directory (.agentcore/ under root).
func ProjectDir(projectRoot string) string {
	return filepath.Join(projectRoot, ".agentcore")
}

// AuthFile returns the path of the provider API-key store.
func AuthFile() string {
	return filepath.Join(GlobalDir(), "auth.json")
}

// TokenFile returns the path of the persisted bearer token.
func TokenFile() string {
	return filepath.Join(GlobalDir(), "auth.token")
}

// ConfigFile returns the global settings file path.
func ConfigFile() string {
	return filepath.Join(GlobalDir(), "config.yaml")
}

// ProjectConfigFile returns the project-local settings file path.
func ProjectConfigFile(projectRoot string) string {
	return filepath.Join(ProjectDir(projectRoot), "config.yaml")
}

// SessionsDir returns the directory session transcripts are written to.
func SessionsDir() string {
	return filepath.Join(GlobalDir(), "sessions")
}

// EnsureDir creates dir (and parents) if it does not exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
