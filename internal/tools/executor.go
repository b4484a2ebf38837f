// ABOUTME: Tool dispatch table: map of lowercased name to handler, with a read-only gate
// ABOUTME: Built-ins cover files, web, search, sub-agents, and host input

package tools

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/corepilot/agentcore/internal/agent"
	"github.com/corepilot/agentcore/internal/backend"
	"github.com/corepilot/agentcore/internal/permission"
	"github.com/corepilot/agentcore/internal/types"
)

// AgentRegistry is the narrow slice of *manager.AgentManager the `agent` tool
// needs. Accepting an interface here (instead of importing internal/manager
// directly) keeps internal/tools free of a dependency on the supervisor.
type AgentRegistry interface {
	CreateAgent(ctx context.Context, name, provider, model, systemPrompt string, enableTools bool) (int64, error)
	SendMessage(id int64, text string) error
	GetAgentIDByName(name string) (int64, error)
}

// ExecutorDeps carries every collaborator the built-in handlers need.
type ExecutorDeps struct {
	CWD         string
	Validator   *permission.SecurePathValidator
	Checker     *permission.Checker // nil skips the allow/deny/ask layer
	HTTPClient  *http.Client
	ReadOnly    bool
	Defs        map[string]agent.Definition        // task tool templates
	MakeBackend func(model string) backend.Backend // backend for task-spawned subagents
	Shell       agent.ShellRunner
	Registry    AgentRegistry // nil disables the `agent` tool

	DefaultProvider string
	DefaultModel    string
}

// Executor implements agent.ToolExecutor: a dispatch table keyed by
// lowercased tool name. The read-only bit lives on the executor, not on
// individual calls, so one view serves a whole sub-agent.
type Executor struct {
	tools    map[string]types.ToolDef
	readOnly bool

	cwd         string
	validator   *permission.SecurePathValidator
	checker     *permission.Checker
	httpClient  *http.Client
	defs        map[string]agent.Definition
	makeBackend func(model string) backend.Backend
	shell       agent.ShellRunner
	registry    AgentRegistry
	inputDriver KeyboardMouseDriver

	defaultProvider string
	defaultModel    string
}

// New constructs an Executor with every built-in handler registered.
func New(deps ExecutorDeps) *Executor {
	e := &Executor{
		tools:           make(map[string]types.ToolDef),
		readOnly:        deps.ReadOnly,
		cwd:             deps.CWD,
		validator:       deps.Validator,
		checker:         deps.Checker,
		httpClient:      deps.HTTPClient,
		defs:            deps.Defs,
		makeBackend:     deps.MakeBackend,
		shell:           deps.Shell,
		registry:        deps.Registry,
		defaultProvider: deps.DefaultProvider,
		defaultModel:    deps.DefaultModel,
	}
	e.registerBuiltins()
	return e
}

// Register adds or replaces a handler. External tool providers use this to
// merge their own tools into the same dispatch table as the built-ins.
func (e *Executor) Register(name string, h types.Handler, readOnly bool) {
	e.tools[name] = types.ToolDef{Name: name, ReadOnly: readOnly, Handler: h}
}

// ReadOnlyView returns a copy of the executor with every mutating handler
// disabled. Sub-agents spawned by the task tool execute against this view.
func (e *Executor) ReadOnlyView() *Executor {
	view := *e
	view.readOnly = true
	return &view
}

// ToolNames returns every registered handler name, sorted, for splicing into
// the system prompt's tool list.
func (e *Executor) ToolNames() []string {
	names := make([]string, 0, len(e.tools)+1)
	names = append(names, "shell") // owned by agent.ShellRunner, not this table
	for name := range e.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute implements agent.ToolExecutor.
func (e *Executor) Execute(ctx context.Context, name string, args []string, body string, silent bool) (types.ToolResult, error) {
	def, ok := e.tools[name]
	if !ok {
		return types.ToolResult{
			Success:     false,
			AgentOutput: fmt.Sprintf("Unknown tool: %s", name),
			StateChange: types.StateContinue,
		}, nil
	}
	if e.readOnly && !def.ReadOnly {
		return errResult(fmt.Errorf("tool %q is disabled in read-only mode", name)), nil
	}
	if e.checker != nil {
		if err := e.checker.Check(name, permission.ExtractSpecifier(name, args, body)); err != nil {
			return errResult(err), nil
		}
	}
	return def.Handler(ctx, args, body, silent)
}

// SetAgentRegistry wires the supervisor in after construction; the registry
// and the executor reference each other, so one side has to be set late.
func (e *Executor) SetAgentRegistry(r AgentRegistry) {
	e.registry = r
}

func (e *Executor) registerBuiltins() {
	e.Register("read", e.handleRead, true)
	e.Register("write", e.handleWrite, false)
	e.Register("patch", e.handlePatch, false)
	e.Register("fetch", e.handleFetch, true)
	e.Register("search", e.handleSearch, true)
	e.Register("done", e.handleDone, true)
	e.Register("task", e.handleTask, true)
	e.Register("agent", e.handleAgent, false)
	e.Register("screendump", e.handleScreendump, true)
	e.Register("input", e.handleInput, false)
}
