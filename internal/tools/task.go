// ABOUTME: `task` handler: spawns a transient sub-agent and returns its final text synchronously
// ABOUTME: Sub-agents get a read-only executor and a template-specific system prompt

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/corepilot/agentcore/internal/agent"
	"github.com/corepilot/agentcore/internal/types"
)

// handleTask spawns a sub-agent named by args[0] (a template from the
// definitions table, default "explore") with the body as its first user
// message, waits for it to finish, and returns its final textual response.
func (e *Executor) handleTask(ctx context.Context, args []string, body string, _ bool) (types.ToolResult, error) {
	templateName := "explore"
	if len(args) > 0 {
		templateName = args[0]
	}

	def, ok := e.defs[templateName]
	if !ok {
		known := make([]string, 0, len(e.defs))
		for name := range e.defs {
			known = append(known, name)
		}
		return errResult(fmt.Errorf("unknown agent template %q (available: %s)", templateName, strings.Join(known, ", "))), nil
	}

	prompt := strings.TrimSpace(body)
	if prompt == "" {
		return errResult(fmt.Errorf("task requires a prompt in the tool body")), nil
	}

	if e.makeBackend == nil {
		return errResult(fmt.Errorf("task is not available: no backend factory configured")), nil
	}

	deps := agent.SpawnDeps{
		Backend:  e.makeBackend(agent.ResolveAgentModel(def.Model)),
		Executor: e.ReadOnlyView(),
		Shell:    e.shell,
		AllTools: e.ToolNames(),
	}

	handle := agent.Spawn(ctx, deps, agent.SubAgentConfig{
		Name:         def.Name,
		Model:        def.Model,
		SystemPrompt: def.SystemPrompt,
		Prompt:       prompt,
		AllowedTools: def.AllowedTools,
		ReadOnly:     true,
		MaxTurns:     def.MaxTurns,
	})

	select {
	case <-ctx.Done():
		return errResult(ctx.Err()), nil
	case <-handle.Done:
	}

	result := handle.Result()
	if result.Err != nil {
		return errResult(fmt.Errorf("sub-agent %q: %w", def.Name, result.Err)), nil
	}
	if result.Output == "" {
		return okResult(fmt.Sprintf("sub-agent %q completed with no output", def.Name)), nil
	}
	return okResult(result.Output), nil
}
