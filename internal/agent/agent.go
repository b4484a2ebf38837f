// ABOUTME: Per-agent turn loop: send -> parse -> (dispatch tool or reply) -> repeat
// ABOUTME: Exactly one Backend call is in flight per agent; tools run one at a time

package agent

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/corepilot/agentcore/internal/backend"
	"github.com/corepilot/agentcore/internal/conversation"
	"github.com/corepilot/agentcore/internal/grammar"
	"github.com/corepilot/agentcore/internal/log"
	"github.com/corepilot/agentcore/internal/types"
)

// ToolExecutor maps a parsed tool invocation to a side-effecting handler.
// Defined here, not imported from internal/tools, so internal/tools
// can depend on internal/agent (for subagent spawning via task/agent) without
// an import cycle; internal/tools.Executor satisfies this interface
// structurally.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args []string, body string, silent bool) (types.ToolResult, error)
}

// ShellRunner executes the streaming shell tool. It is injected
// separately from ToolExecutor because shell alone contributes its own tail
// message to the conversation (partial snapshots) instead of returning a
// single ToolResult synchronously.
type ShellRunner interface {
	Run(ctx context.Context, body string, silent bool, interrupt *InterruptData, conv *conversation.Conversation, cache *conversation.CachePointSet) (types.ToolResult, error)
}

// ProjectContext returns the project-context file's contents, or "" if none
// exists. Injected so the agent package doesn't own filesystem policy.
type ProjectContext func() string

// Config configures a new Agent.
type Config struct {
	Model            string
	SystemPrompt     string
	EnableTools      bool
	ThinkingBudget   int
	UseMinimalPrompt bool

	// TurnLimit bounds consecutive tool turns within one input burst;
	// 0 means unbounded. Sub-agents run with a limit so a confused model
	// cannot spin forever.
	TurnLimit int
}

// Agent is one conversational control loop driving one Backend with one
// ToolExecutor.
type Agent struct {
	ID   int64
	Name string

	backend  backend.Backend
	executor ToolExecutor
	shell    ShellRunner
	projectContext ProjectContext

	mailbox chan Message

	conv  *conversation.Conversation
	cache *conversation.CachePointSet

	systemPrompt   string
	enableTools    bool
	thinkingBudget int

	state    atomic.Int32
	interrupt *InterruptData

	onStateChange func(State)
	pendingInput  []string // queued UserInput text while Processing/RunningTool
	finalOutput   string   // terminal output recorded when the done tool fires
	turnLimit     int
}

// New constructs an Agent. onStateChange, if non-nil, is invoked (from the
// agent's own goroutine) on every state transition — the hook the
// AgentManager's state-watcher pub/sub subscribes through.
func New(id int64, name string, be backend.Backend, exec ToolExecutor, shell ShellRunner, pc ProjectContext, cfg Config, onStateChange func(State)) *Agent {
	a := &Agent{
		ID:             id,
		Name:           name,
		backend:        be,
		executor:       exec,
		shell:          shell,
		projectContext: pc,
		mailbox:        make(chan Message, 32),
		conv:           conversation.New(),
		cache:          conversation.NewCachePointSet(),
		systemPrompt:   cfg.SystemPrompt,
		enableTools:    cfg.EnableTools,
		thinkingBudget: cfg.ThinkingBudget,
		interrupt:      NewInterruptData(),
		onStateChange:  onStateChange,
		turnLimit:      cfg.TurnLimit,
	}
	a.setState(StateIdle)
	return a
}

// Mailbox returns the channel other goroutines (AgentManager, sibling
// agents via `agent send`) use to deliver messages.
func (a *Agent) Mailbox() chan<- Message {
	return a.mailbox
}

// Drive runs the turn loop to completion for a single input without going
// through the mailbox. Used by the synchronous-from-the-caller's-perspective
// subagent substrate, where the owning goroutine already belongs to
// the subagent and there is no sibling traffic to serialize against.
func (a *Agent) Drive(ctx context.Context, text string) State {
	a.acceptUserInput(ctx, text)
	return a.State()
}

// LastText returns the agent's terminal output when it has reached Done,
// otherwise the content of the most recent Assistant-provenance message, or
// "" if neither exists yet.
func (a *Agent) LastText() string {
	if a.finalOutput != "" {
		return a.finalOutput
	}
	msgs := a.conv.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Info.Kind == conversation.InfoAssistant {
			return msgs[i].Content
		}
	}
	return ""
}

// State returns the current lifecycle state.
func (a *Agent) State() State {
	return State(a.state.Load())
}

// Conversation exposes the agent's conversation for observational reads
// (AgentManager's get_agent_buffer).
func (a *Agent) Conversation() *conversation.Conversation {
	return a.conv
}

// Interrupt returns the agent's shared InterruptData, the record the
// AgentManager flips on interrupt_agent while state is RunningTool.
func (a *Agent) Interrupt() *InterruptData {
	return a.interrupt
}

func (a *Agent) setState(s State) {
	a.state.Store(int32(s))
	if a.onStateChange != nil {
		a.onStateChange(s)
	}
}

// Run drives the mailbox loop until Terminated. Intended to be launched in
// its own goroutine by the AgentManager; returns when the loop exits.
func (a *Agent) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			a.setState(StateTerminated)
			return
		case msg := <-a.mailbox:
			if a.handleMailboxMessage(ctx, msg) {
				return
			}
		}
	}
}

// handleMailboxMessage processes one mailbox message and drives the turn
// loop to completion for UserInput. Returns true when the agent should stop
// (Terminate received).
func (a *Agent) handleMailboxMessage(ctx context.Context, msg Message) bool {
	switch msg.Kind {
	case MsgTerminate:
		a.setState(StateTerminated)
		return true

	case MsgInterrupt:
		// During RunningTool this is handled by the shell's poll loop
		// observing a.interrupt directly. During Processing it is advisory:
		// the in-flight Backend call is allowed to complete; reset to
		// Idle afterwards so the next turn does not fire unprompted.
		if a.State() == StateProcessing {
			a.interrupt.Set(msg.InterruptReason)
		}
		return false

	case MsgCommand:
		a.applyCommand(msg.Command)
		return false

	case MsgUserInput:
		return a.acceptUserInput(ctx, msg.Text)
	}
	return false
}

func (a *Agent) applyCommand(cmd Command) {
	switch cmd.Kind {
	case CmdSetModel:
		// Model selection lives on the Backend the caller constructed;
		// recorded here only for observability/config echo.
		_ = cmd.StringValue
	case CmdEnableTools:
		a.enableTools = cmd.BoolValue
	case CmdSetSystemPrompt:
		a.systemPrompt = cmd.StringValue
		a.cache.Reset()
	case CmdResetConversation:
		a.conv.Clear()
		a.cache.Reset()
		a.finalOutput = ""
		if a.State() == StateDone {
			a.setState(StateIdle)
		}
	}
}

// acceptUserInput implements the state table's UserInput edges.
// Returns true if the loop should stop (never true here; only Terminate stops
// the loop).
func (a *Agent) acceptUserInput(ctx context.Context, text string) bool {
	switch a.State() {
	case StateDone:
		// "Done -> UserInput -> Done (ignored)"
		return false
	case StateProcessing, StateRunningTool:
		// Re-entrancy: queue; the active runTurns loop drains pendingInput
		// before it would otherwise go Idle.
		a.pendingInput = append(a.pendingInput, text)
		return false
	}

	// A fresh conversation gets the project-context file spliced in ahead of
	// the first real input. The emptiness check makes this idempotent.
	if a.conv.Empty() && a.projectContext != nil {
		if pc := a.projectContext(); pc != "" {
			a.conv.Append(conversation.NewUserMessage(pc))
		}
	}

	// Idle or Wait -> Processing
	a.conv.Append(conversation.NewUserMessage(text))
	a.runTurns(ctx)
	return false
}

// runTurns executes the turn contract repeatedly: once for the
// initiating input, then again for each StateContinue transition and any
// queued input, until the loop reaches Idle, Wait, Done, or Terminated.
func (a *Agent) runTurns(ctx context.Context) {
	a.setState(StateProcessing)

	turns := 0
	for {
		cont := a.runOneTurn(ctx)
		turns++
		if !cont {
			break
		}
		if a.State() != StateProcessing {
			break
		}
		if a.turnLimit > 0 && turns >= a.turnLimit {
			a.setState(StateIdle)
			break
		}
	}

	// Drain any UserInput queued during this burst of turns.
	if len(a.pendingInput) > 0 && (a.State() == StateIdle || a.State() == StateWait) {
		next := a.pendingInput[0]
		a.pendingInput = a.pendingInput[1:]
		a.conv.Append(conversation.NewUserMessage(next))
		a.runTurns(ctx)
	}
}

// runOneTurn executes steps 1-5 of the turn contract once. Returns true if
// the outer loop should immediately re-enter Processing (StateContinue).
func (a *Agent) runOneTurn(ctx context.Context) bool {
	// Compose the Backend call from the current conversation state.
	req := backend.Request{
		Messages:       a.conv.Messages(),
		System:         a.systemPrompt,
		StopSequences:  []string{"<tool_result>", "<tool_error>"},
		ThinkingBudget: a.thinkingBudget,
		CachePoints:    a.cache.Indices(),
		MaxTokens:      4096,
	}

	resp, err := a.backend.SendMessage(ctx, req)
	if err != nil {
		// Provider-level failure: log and abort the turn without mutating the
		// conversation further, so the next input retries from a clean tail.
		log.Error("agent %d: backend call failed: %v", a.ID, err)
		a.setState(StateIdle)
		return false
	}

	// An interrupt raised while the call was in flight is advisory: the
	// response still lands, but no tool runs and no further turn fires.
	if a.interrupt.Interrupted() {
		a.interrupt.Reset()
		a.conv.Append(conversation.NewAssistantMessage(resp.Text))
		a.setState(StateIdle)
		return false
	}

	parsed := grammar.Parse(resp.Text)

	if parsed.Tool == nil {
		// Plain reply: the turn ends and the task pauses.
		a.conv.Append(conversation.NewAssistantMessage(resp.Text))
		a.setState(StateIdle)
		a.maybeCachePoint(resp)
		return false
	}

	// Tool call.
	a.conv.Append(conversation.NewToolCallMessage(parsed.Tool.Name, resp.Text))
	a.setState(StateRunningTool)

	var result types.ToolResult
	if parsed.Tool.Name == "shell" {
		// The shell contributes its own tail message (partial snapshots plus
		// the final wrapped envelope) directly to the conversation; unlike
		// every other handler, the agent must not wrap/append again.
		result, err = a.runShell(ctx, *parsed.Tool)
		if err != nil {
			result = types.ToolResult{Success: false, AgentOutput: err.Error(), StateChange: types.StateContinue}
			a.appendToolResult(parsed.Tool.Name, result)
		}
	} else {
		result, err = a.runTool(ctx, *parsed.Tool)
		if err != nil {
			result = types.ToolResult{Success: false, AgentOutput: err.Error(), StateChange: types.StateContinue}
		}
		a.appendToolResult(parsed.Tool.Name, result)
	}
	a.maybeCachePoint(resp)

	switch result.StateChange {
	case types.StateDone:
		a.finalOutput = result.AgentOutput
		a.setState(StateDone)
		return false
	case types.StateWait:
		a.setState(StateWait)
		return false
	default:
		a.setState(StateProcessing)
		return true
	}
}

func (a *Agent) runTool(ctx context.Context, tc grammar.ToolCall) (types.ToolResult, error) {
	if a.executor == nil {
		return types.ToolResult{Success: false, AgentOutput: fmt.Sprintf("Unknown tool: %s", tc.Name), StateChange: types.StateContinue}, nil
	}
	if !a.enableTools {
		return types.ToolResult{Success: false, AgentOutput: "tools are disabled for this agent", StateChange: types.StateContinue}, nil
	}
	return a.executor.Execute(WithCaller(ctx, a.ID, a.Name), tc.Name, tc.Args, tc.Body, false)
}

func (a *Agent) runShell(ctx context.Context, tc grammar.ToolCall) (types.ToolResult, error) {
	if a.shell == nil {
		return types.ToolResult{Success: false, AgentOutput: "Unknown tool: shell", StateChange: types.StateContinue}, nil
	}
	a.interrupt.Reset()
	return a.shell.Run(ctx, tc.Body, false, a.interrupt, a.conv, a.cache)
}

// appendToolResult wraps result in the grammar envelope and appends it with
// the matching ToolResult/ToolError provenance.
func (a *Agent) appendToolResult(toolName string, result types.ToolResult) {
	idx := a.conv.Len()
	if result.Success {
		envelope := grammar.FormatToolResult(idx, toolName, result.AgentOutput)
		a.conv.Append(conversation.NewToolResultMessage(toolName, envelope))
	} else {
		envelope := grammar.FormatToolError(idx, toolName, result.AgentOutput)
		a.conv.Append(conversation.NewToolErrorMessage(toolName, envelope))
	}
}

// maybeCachePoint marks the conversation tail as a cache point when the
// response's combined declared token count crosses the caching threshold.
func (a *Agent) maybeCachePoint(resp backend.LlmResponse) {
	total := resp.Usage.InputTokens + resp.Usage.OutputTokens
	if total == 0 {
		total = conversation.EstimateTokens(resp.Text)
	}
	if conversation.ShouldCacheHere(total) && a.conv.Len() > 0 {
		a.cache.Add(a.conv.Len() - 1)
	}
}
