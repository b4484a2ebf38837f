// ABOUTME: Shared tool types decoupled from the agent package
// ABOUTME: Breaks the agent <-> tools circular dependency via a common types package

package types

import "context"

// StateChange is the outer-loop transition a tool's completion requests.
type StateChange int

const (
	// StateContinue re-enters Processing with an empty user input.
	StateContinue StateChange = iota
	// StateWait transitions the agent to Wait; it resumes only on the next UserInput.
	StateWait
	// StateDone transitions the agent to Done.
	StateDone
)

// ToolResult is the outcome of a single tool invocation.
// AgentOutput is the text the next turn will see in the tool_result/tool_error
// envelope; Success distinguishes a ToolResult from a ToolError wrapping.
type ToolResult struct {
	Success     bool
	AgentOutput string
	StateChange StateChange
}

// Handler is a tool's execution function. args are the tool call's
// positional first-line tokens; body is everything after the first newline.
// silent suppresses user-visible console emissions; AgentOutput is
// unaffected by silent.
type Handler func(ctx context.Context, args []string, body string, silent bool) (ToolResult, error)

// ToolDef registers one tool's handler and read-only classification.
type ToolDef struct {
	Name     string
	ReadOnly bool
	Handler  Handler
}
