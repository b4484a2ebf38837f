// ABOUTME: `agent` handler: create/send/wait subcommands routed through the supervisor
// ABOUTME: Sender identity rides on the invoking agent's context; send wraps bodies in the agent_message envelope

package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/corepilot/agentcore/internal/agent"
	"github.com/corepilot/agentcore/internal/grammar"
	"github.com/corepilot/agentcore/internal/types"
)

func (e *Executor) handleAgent(ctx context.Context, args []string, body string, _ bool) (types.ToolResult, error) {
	if e.registry == nil {
		return errResult(fmt.Errorf("agent management is not available here")), nil
	}
	if len(args) == 0 {
		return errResult(fmt.Errorf("agent requires a subcommand: create, send, or wait")), nil
	}

	switch args[0] {
	case "create":
		return e.agentCreate(ctx, args[1:], body)
	case "send":
		return e.agentSend(ctx, args[1:], body)
	case "wait":
		return types.ToolResult{
			Success:     true,
			AgentOutput: "Waiting for incoming messages.",
			StateChange: types.StateWait,
		}, nil
	default:
		return errResult(fmt.Errorf("unknown agent subcommand %q", args[0])), nil
	}
}

// agentCreate spawns a sibling agent and delivers the body as its first input.
func (e *Executor) agentCreate(ctx context.Context, args []string, body string) (types.ToolResult, error) {
	if len(args) == 0 {
		return errResult(fmt.Errorf("agent create requires a name")), nil
	}
	name := args[0]

	id, err := e.registry.CreateAgent(ctx, name, e.defaultProvider, e.defaultModel, "", true)
	if err != nil {
		return errResult(fmt.Errorf("creating agent %q: %w", name, err)), nil
	}

	if instructions := strings.TrimSpace(body); instructions != "" {
		if err := e.registry.SendMessage(id, instructions); err != nil {
			return errResult(fmt.Errorf("delivering initial instructions to agent %q: %w", name, err)), nil
		}
	}

	return okResult(fmt.Sprintf("Created agent %q with id %d.", name, id)), nil
}

// agentSend delivers the body to TARGET (a decimal id or a name), wrapped in
// the agent_message envelope carrying the sender's identity.
func (e *Executor) agentSend(ctx context.Context, args []string, body string) (types.ToolResult, error) {
	if len(args) == 0 {
		return errResult(fmt.Errorf("agent send requires a target id or name")), nil
	}
	target := args[0]

	id, err := e.resolveTarget(target)
	if err != nil {
		return errResult(err), nil
	}

	srcName, _ := agent.CallerName(ctx)
	srcID, _ := agent.CallerID(ctx)
	envelope := grammar.FormatAgentMessage(srcName, srcID, body)

	if err := e.registry.SendMessage(id, envelope); err != nil {
		return errResult(fmt.Errorf("sending to agent %q: %w", target, err)), nil
	}

	return okResult(fmt.Sprintf("Message delivered to agent %d.", id)), nil
}

func (e *Executor) resolveTarget(target string) (int64, error) {
	if id, err := strconv.ParseInt(target, 10, 64); err == nil {
		return id, nil
	}
	id, err := e.registry.GetAgentIDByName(target)
	if err != nil {
		return 0, fmt.Errorf("unknown agent %q", target)
	}
	return id, nil
}
