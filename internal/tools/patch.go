// ABOUTME: `patch` handler: applies a <<<<BEFORE/<<<<AFTER/<<<< body against a file
// ABOUTME: The before-text must match exactly once; zero or multiple matches are reported distinctly

package tools

import (
	"context"
	"fmt"
	"os"

	"github.com/corepilot/agentcore/internal/grammar"
	"github.com/corepilot/agentcore/internal/types"
)

func (e *Executor) handlePatch(_ context.Context, args []string, body string, _ bool) (types.ToolResult, error) {
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

	p, err := grammar.ParsePatch(body)
	if err != nil {
		return errResult(err), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errResult(fmt.Errorf("reading file %s: %w", path, err)), nil
	}

	result, err := grammar.Apply(string(data), p)
	if err != nil {
		// "text not found" / "ambiguous: ..." goes back to the model so it
		// can widen the before-text and retry.
		return errResult(err), nil
	}

	if err := os.WriteFile(path, []byte(result), 0o644); err != nil {
		return errResult(fmt.Errorf("writing file %s: %w", path, err)), nil
	}

	return okResult(fmt.Sprintf("patched %s", path)), nil
}
