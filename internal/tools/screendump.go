// ABOUTME: `screendump` handler: captures the screen to an image file on macOS
// ABOUTME: Degrades to a structured error on platforms without a capture backend

package tools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/corepilot/agentcore/internal/types"
)

func (e *Executor) handleScreendump(ctx context.Context, args []string, _ string, _ bool) (types.ToolResult, error) {
	if runtime.GOOS != "darwin" {
		return errResult(fmt.Errorf("screendump is not available on %s", runtime.GOOS)), nil
	}

	dest := ""
	if len(args) > 0 {
		dest = ResolveReadPath(args[0], e.cwd)
	} else {
		dest = filepath.Join(os.TempDir(), fmt.Sprintf("screendump-%d.png", time.Now().UnixNano()))
	}

	if e.validator != nil {
		if err := e.validator.ValidateWritePath(dest); err != nil {
			return errResult(err), nil
		}
	}

	cmd := exec.CommandContext(ctx, "screencapture", "-x", dest)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errResult(fmt.Errorf("screencapture failed: %v: %s", err, out)), nil
	}

	return okResult(fmt.Sprintf("Screen captured to %s", dest)), nil
}
