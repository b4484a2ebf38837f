// ABOUTME: Async sub-agent substrate backing the `task` tool
// ABOUTME: Spawn returns a handle immediately; the result lands behind an atomic pointer when Done closes

package agent

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/corepilot/agentcore/internal/backend"
	"github.com/corepilot/agentcore/internal/types"
)

var subAgentIDCounter atomic.Int64

// SubAgentConfig configures a task-spawned sub-agent.
type SubAgentConfig struct {
	Name         string
	Model        string
	SystemPrompt string
	Prompt       string
	AllowedTools []string // empty means "inherit all from SpawnDeps.AllTools"
	ReadOnly     bool
	MaxTurns     int
}

// SubAgentResult is the terminal outcome of a sub-agent run.
type SubAgentResult struct {
	Output string
	Err    error
}

// SubAgentHandle is returned immediately on Spawn; the caller polls Done or
// blocks on it, then reads Result once closed.
type SubAgentHandle struct {
	ID   int64
	Name string
	Done chan struct{}

	result atomic.Pointer[SubAgentResult]
}

// Result returns the terminal result. Only meaningful after Done is closed.
func (h *SubAgentHandle) Result() SubAgentResult {
	if r := h.result.Load(); r != nil {
		return *r
	}
	return SubAgentResult{}
}

// SpawnDeps carries the shared collaborators every sub-agent needs, supplied
// by whichever component owns the parent agent (the AgentManager, or the
// `task` tool handler directly for a same-process spawn).
type SpawnDeps struct {
	Backend  backend.Backend
	Executor ToolExecutor
	Shell    ShellRunner
	AllTools []string
}

// Spawn starts a sub-agent on its own goroutine and returns immediately with
// a handle. The sub-agent runs cfg.Prompt to completion (repeated empty-input
// Processing bursts until the tool loop settles or MaxTurns is hit, since
// sub-agents receive no further mailbox traffic) and then reports LastText as
// Output: the done tool's output if it finished that way, else its last
// Assistant-provenance text.
func Spawn(ctx context.Context, deps SpawnDeps, cfg SubAgentConfig) *SubAgentHandle {
	h := &SubAgentHandle{
		ID:   subAgentIDCounter.Add(1),
		Name: cfg.Name,
		Done: make(chan struct{}),
	}

	go runSubAgent(ctx, deps, cfg, h)

	return h
}

func runSubAgent(ctx context.Context, deps SpawnDeps, cfg SubAgentConfig, h *SubAgentHandle) {
	defer close(h.Done)

	exec := deps.Executor
	if cfg.ReadOnly || len(cfg.AllowedTools) > 0 {
		exec = &filteredExecutor{
			inner:   deps.Executor,
			allowed: toolSet(filterTools(deps.AllTools, cfg.AllowedTools, cfg.ReadOnly)),
		}
	}

	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 20
	}

	sub := New(h.ID, cfg.Name, deps.Backend, exec, deps.Shell, nil, Config{
		Model:        cfg.Model,
		SystemPrompt: cfg.SystemPrompt,
		EnableTools:  true,
		TurnLimit:    maxTurns,
	}, nil)

	// Drive re-enters Processing internally until it settles (Idle/Wait/Done
	// or the turn limit). A sub-agent never receives a second real UserInput,
	// so any resting state is terminal.
	sub.Drive(ctx, cfg.Prompt)

	h.result.Store(&SubAgentResult{Output: sub.LastText()})
}

// filterTools computes the effective allowed-tool set for a sub-agent:
// allowedTools restricts to that explicit list when non-empty; readOnly
// falls back to the caller's full inventory, since ToolExecutor itself
// doesn't expose per-tool read-only metadata to this package — callers that
// care about ReadOnly should pass a pre-filtered AllTools inventory.
func filterTools(all, allowedTools []string, readOnly bool) []string {
	if len(allowedTools) > 0 {
		return allowedTools
	}
	return all
}

func toolSet(names []string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

// filteredExecutor restricts Execute to a fixed allow-list, used to bound a
// sub-agent's tool surface below its parent's.
type filteredExecutor struct {
	inner   ToolExecutor
	allowed map[string]struct{}
}

func (f *filteredExecutor) Execute(ctx context.Context, name string, args []string, body string, silent bool) (types.ToolResult, error) {
	if _, ok := f.allowed[name]; !ok {
		return types.ToolResult{Success: false, AgentOutput: fmt.Sprintf("tool %q is not permitted for this sub-agent", name), StateChange: types.StateContinue}, nil
	}
	return f.inner.Execute(ctx, name, args, body, silent)
}
