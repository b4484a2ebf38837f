// ABOUTME: `write` handler: creates or overwrites a file with the tool body as content
// ABOUTME: Parent directories are created as needed; the path must pass the write validator

package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/corepilot/agentcore/internal/types"
)

func (e *Executor) handleWrite(_ context.Context, args []string, body string, _ bool) (types.ToolResult, error) {
	rawPath, err := requireArg(args, 0, "path")
	if err != nil {
		return errResult(err), nil
	}
	path := ResolveReadPath(rawPath, e.cwd)

	if e.validator != nil {
		if err := e.validator.ValidateWritePath(path); err != nil {
			return errResult(err), nil
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errResult(fmt.Errorf("creating directory %s: %w", dir, err)), nil
	}

	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return errResult(fmt.Errorf("writing file %s: %w", path, err)), nil
	}

	return okResult(fmt.Sprintf("wrote %d bytes to %s", len(body), path)), nil
}
