// ABOUTME: `done` handler: signals task completion and carries the agent's terminal output
// ABOUTME: Always succeeds; the body (or args when no body is given) becomes the final text

package tools

import (
	"context"
	"strings"

	"github.com/corepilot/agentcore/internal/types"
)

func (e *Executor) handleDone(_ context.Context, args []string, body string, _ bool) (types.ToolResult, error) {
	output := strings.TrimSpace(body)
	if output == "" {
		output = strings.Join(args, " ")
	}
	return types.ToolResult{
		Success:     true,
		AgentOutput: output,
		StateChange: types.StateDone,
	}, nil
}
