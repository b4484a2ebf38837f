// ABOUTME: Multi-agent supervisor: agent registry, spawn, mailbox routing, state observation
// ABOUTME: Registry lock covers map access only, never a mailbox send or Backend call

package manager

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/corepilot/agentcore/internal/agent"
	"github.com/corepilot/agentcore/internal/backend"
	"github.com/corepilot/agentcore/internal/conversation"
	"github.com/corepilot/agentcore/internal/eventbus"
	"github.com/sahilm/fuzzy"
)

// StateEvent is published on the manager's state bus whenever any managed
// agent's lifecycle state changes.
type StateEvent struct {
	AgentID int64
	Name    string
	State   agent.State
}

// AgentInfo is the read-only snapshot returned by GetAgents/ListAgents.
type AgentInfo struct {
	ID    int64
	Name  string
	State agent.State
}

type entry struct {
	agent  *agent.Agent
	cancel context.CancelFunc
}

// AgentManager owns the set of live agents in a run: creation, mailbox
// delivery, interruption, and state observation. The registry mutex is
// never held across a mailbox send or a Backend call — only while reading or
// mutating the map itself.
type AgentManager struct {
	mu      sync.RWMutex
	agents  map[int64]*entry
	byName  map[string]int64
	nextID  atomic.Int64
	stateBus *eventbus.Bus[StateEvent]

	makeBackend func(provider, model string) backend.Backend
	executor    agent.ToolExecutor
	shell       agent.ShellRunner
	projectCtx  agent.ProjectContext
}

// Deps carries the collaborators every spawned agent needs.
type Deps struct {
	MakeBackend func(provider, model string) backend.Backend
	Executor    agent.ToolExecutor
	Shell       agent.ShellRunner
	ProjectCtx  agent.ProjectContext
}

// New constructs an empty AgentManager.
func New(deps Deps) *AgentManager {
	return &AgentManager{
		agents:      make(map[int64]*entry),
		byName:      make(map[string]int64),
		stateBus:    eventbus.New[StateEvent](),
		makeBackend: deps.MakeBackend,
		executor:    deps.Executor,
		shell:       deps.Shell,
		projectCtx:  deps.ProjectCtx,
	}
}

// Subscribe registers a callback for every agent's state transitions. Returns
// an unsubscribe function.
func (m *AgentManager) Subscribe(h eventbus.Handler[StateEvent]) func() {
	return m.stateBus.Subscribe(h)
}

// CreateAgent spawns a new agent with its own goroutine and mailbox, and
// returns its ID. provider/model select the Backend via makeBackend.
func (m *AgentManager) CreateAgent(ctx context.Context, name, provider, model, systemPrompt string, enableTools bool) (int64, error) {
	id := m.nextID.Add(1)
	if name == "" {
		name = fmt.Sprintf("agent-%d", id)
	}

	m.mu.Lock()
	if _, exists := m.byName[name]; exists {
		m.mu.Unlock()
		return 0, fmt.Errorf("manager: agent name %q already in use", name)
	}
	m.mu.Unlock()

	be := m.makeBackend(provider, model)
	runCtx, cancel := context.WithCancel(ctx)

	a := agent.New(id, name, be, m.executor, m.shell, m.projectCtx, agent.Config{
		Model:        model,
		SystemPrompt: systemPrompt,
		EnableTools:  enableTools,
	}, func(s agent.State) {
		m.stateBus.Publish(StateEvent{AgentID: id, Name: name, State: s})
	})

	m.mu.Lock()
	m.agents[id] = &entry{agent: a, cancel: cancel}
	m.byName[name] = id
	m.mu.Unlock()

	go a.Run(runCtx)

	return id, nil
}

// SendMessage delivers text to the identified agent's mailbox as
// UserInput. Never holds the registry lock while sending.
func (m *AgentManager) SendMessage(id int64, text string) error {
	a, err := m.lookup(id)
	if err != nil {
		return err
	}
	a.Mailbox() <- agent.Message{Kind: agent.MsgUserInput, Text: text}
	return nil
}

// InterruptAgent interrupts the identified agent. While a tool is running or
// a Backend call is in flight (Processing), the shared interrupt record is
// flipped directly — the agent's goroutine will not drain its mailbox until
// that work finishes, so a mailbox message alone would arrive too late. The
// mailbox message is still enqueued (best-effort, dropped if the mailbox is
// full).
func (m *AgentManager) InterruptAgent(id int64, reason string) error {
	a, err := m.lookup(id)
	if err != nil {
		return err
	}

	switch a.State() {
	case agent.StateRunningTool, agent.StateProcessing:
		a.Interrupt().Set(reason)
	}

	select {
	case a.Mailbox() <- agent.Message{Kind: agent.MsgInterrupt, InterruptReason: reason}:
	default:
	}
	return nil
}

// SendCommand delivers an AgentCommand to the identified agent.
func (m *AgentManager) SendCommand(id int64, cmd agent.Command) error {
	a, err := m.lookup(id)
	if err != nil {
		return err
	}
	a.Mailbox() <- agent.Message{Kind: agent.MsgCommand, Command: cmd}
	return nil
}

// ResetAgentConversation clears the agent's conversation and cache points;
// a Done agent returns to Idle.
func (m *AgentManager) ResetAgentConversation(id int64) error {
	return m.SendCommand(id, agent.Command{Kind: agent.CmdResetConversation})
}

// TerminateAgent stops the agent's goroutine and cancels its run context.
func (m *AgentManager) TerminateAgent(id int64) error {
	m.mu.Lock()
	e, ok := m.agents[id]
	if ok {
		delete(m.agents, id)
		for name, aid := range m.byName {
			if aid == id {
				delete(m.byName, name)
				break
			}
		}
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("manager: unknown agent id %d", id)
	}
	e.agent.Mailbox() <- agent.Message{Kind: agent.MsgTerminate}
	e.cancel()
	return nil
}

// GetAgentState returns the current lifecycle state of the given agent.
func (m *AgentManager) GetAgentState(id int64) (agent.State, error) {
	a, err := m.lookup(id)
	if err != nil {
		return agent.StateTerminated, err
	}
	return a.State(), nil
}

// GetAgentBuffer returns the full message-content transcript of the given
// agent's conversation (for `agent get_agent_buffer`-style introspection).
func (m *AgentManager) GetAgentBuffer(id int64) ([]string, error) {
	msgs, err := m.GetAgentMessages(id)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(msgs))
	for i, msg := range msgs {
		out[i] = msg.Content
	}
	return out, nil
}

// GetAgentMessages returns a snapshot of the agent's conversation with
// provenance intact, for transcript persistence and display.
func (m *AgentManager) GetAgentMessages(id int64) ([]conversation.Message, error) {
	a, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return a.Conversation().Messages(), nil
}

// GetAgentLastText returns the agent's most recent assistant text (or its
// terminal output once Done).
func (m *AgentManager) GetAgentLastText(id int64) (string, error) {
	a, err := m.lookup(id)
	if err != nil {
		return "", err
	}
	return a.LastText(), nil
}

// ListAgents returns a snapshot of every managed agent, sorted by ID.
func (m *AgentManager) ListAgents() []AgentInfo {
	m.mu.RLock()
	ids := make([]int64, 0, len(m.agents))
	snapshot := make(map[int64]*entry, len(m.agents))
	for id, e := range m.agents {
		ids = append(ids, id)
		snapshot[id] = e
	}
	m.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]AgentInfo, 0, len(ids))
	for _, id := range ids {
		e := snapshot[id]
		out = append(out, AgentInfo{ID: id, Name: e.agent.Name, State: e.agent.State()})
	}
	return out
}

// GetAgentIDByName resolves a name to an ID via exact match, falling back to
// fuzzy matching (for `agent send TARGET`'s forgiving name resolution) when
// no exact match exists. Returns an error if nothing matches closely enough.
func (m *AgentManager) GetAgentIDByName(name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if id, ok := m.byName[name]; ok {
		return id, nil
	}

	names := make([]string, 0, len(m.byName))
	nameToID := make(map[string]int64, len(m.byName))
	for n, id := range m.byName {
		names = append(names, n)
		nameToID[n] = id
	}

	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return 0, fmt.Errorf("manager: no agent matches %q", name)
	}
	return nameToID[names[matches[0].Index]], nil
}

func (m *AgentManager) lookup(id int64) (*agent.Agent, error) {
	m.mu.RLock()
	e, ok := m.agents[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("manager: unknown agent id %d", id)
	}
	return e.agent, nil
}
