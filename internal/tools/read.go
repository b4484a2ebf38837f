// ABOUTME: `read` handler: returns file contents with optional line offset/limit, detects binary files
// ABOUTME: Args are path [offset] [limit]; output is truncated to line and byte caps

package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/corepilot/agentcore/internal/types"
)

const binaryCheckBytes = 512

func (e *Executor) handleRead(_ context.Context, args []string, _ string, _ bool) (types.ToolResult, error) {
	rawPath, err := requireArg(args, 0, "path")
	if err != nil {
		return errResult(err), nil
	}
	path := ResolveReadPath(rawPath, e.cwd)

	if e.validator != nil {
		if err := e.validator.ValidateReadPath(path); err != nil {
			return errResult(err), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errResult(fmt.Errorf("reading file %s: %w", path, err)), nil
	}

	if isBinary(data) {
		return errResult(fmt.Errorf("binary file detected: %s", path)), nil
	}

	content := applyOffsetLimit(string(data), optionalIntArg(args, 1, 0), optionalIntArg(args, 2, 0))
	result := TruncateHead(content, MaxReadLines, MaxReadBytes)
	out := result.Content
	if result.Truncated {
		out += fmt.Sprintf("\n... [%s]", result.Reason)
	}

	return okResult(out), nil
}

func isBinary(data []byte) bool {
	limit := len(data)
	if limit > binaryCheckBytes {
		limit = binaryCheckBytes
	}
	for _, b := range data[:limit] {
		if b == 0 {
			return true
		}
	}
	return false
}

func applyOffsetLimit(content string, offset, limit int) string {
	lines := strings.SplitAfter(content, "\n")
	if content == "" {
		lines = nil
	}

	if offset > len(lines) {
		offset = len(lines)
	}
	lines = lines[offset:]

	if limit > 0 && limit < len(lines) {
		lines = lines[:limit]
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
	}
	return b.String()
}
