// ABOUTME: Shared helpers for positional-arg tool handlers
// ABOUTME: Argument accessors, result constructors, and the directory skip list

package tools

import (
	"fmt"
	"strconv"

	"github.com/corepilot/agentcore/internal/types"
)

// requireArg returns args[i], or an error if the slice is too short.
func requireArg(args []string, i int, name string) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	return args[i], nil
}

// optionalIntArg parses args[i] as an int, returning defaultVal if absent or
// unparseable.
func optionalIntArg(args []string, i int, defaultVal int) int {
	if i >= len(args) {
		return defaultVal
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return defaultVal
	}
	return n
}

// errResult builds a failed ToolResult; StateChange defaults to Continue so
// the model can retry or recover on the next turn.
func errResult(err error) types.ToolResult {
	return types.ToolResult{Success: false, AgentOutput: err.Error(), StateChange: types.StateContinue}
}

// okResult builds a successful ToolResult that continues the turn loop.
func okResult(output string) types.ToolResult {
	return types.ToolResult{Success: true, AgentOutput: output, StateChange: types.StateContinue}
}

// skipDirs names directories a recursive code search skips outright.
var skipDirs = map[string]bool{
	".git":         true,
	"vendor":       true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	".tox":         true,
	"dist":         true,
	"build":        true,
}

func shouldSkipDir(name string) bool {
	return skipDirs[name]
}
