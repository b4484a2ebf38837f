package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/corepilot/agentcore/internal/agent"
	"github.com/corepilot/agentcore/internal/backend"
	"github.com/corepilot/agentcore/internal/types"
)

func TestReadWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	e := New(ExecutorDeps{CWD: dir})
	ctx := context.Background()

	result, err := e.Execute(ctx, "write", []string{"notes.txt"}, "first line\nsecond line\n", false)
	if err != nil || !result.Success {
		t.Fatalf("write: %v / %+v", err, result)
	}

	result, err = e.Execute(ctx, "read", []string{"notes.txt"}, "", false)
	if err != nil || !result.Success {
		t.Fatalf("read: %v / %+v", err, result)
	}
	if !strings.Contains(result.AgentOutput, "second line") {
		t.Errorf("read output = %q", result.AgentOutput)
	}
}

func TestReadMissingFile(t *testing.T) {
	e := New(ExecutorDeps{CWD: t.TempDir()})

	result, err := e.Execute(context.Background(), "read", []string{"no-such-file.txt"}, "", false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Success {
		t.Fatal("reading a missing file must fail")
	}
}

func TestReadOffsetAndLimit(t *testing.T) {
	dir := t.TempDir()
	var content strings.Builder
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&content, "line %d\n", i)
	}
	if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte(content.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	e := New(ExecutorDeps{CWD: dir})
	result, err := e.Execute(context.Background(), "read", []string{"f.txt", "3", "2"}, "", false)
	if err != nil || !result.Success {
		t.Fatalf("read: %v / %+v", err, result)
	}
	if !strings.Contains(result.AgentOutput, "line 4") || strings.Contains(result.AgentOutput, "line 6") {
		t.Errorf("offset/limit not applied: %q", result.AgentOutput)
	}
}

func TestPatchAppliesOnce(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "m.go"), []byte("func old() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := New(ExecutorDeps{CWD: dir})
	body := "<<<<BEFORE\nfunc old() {}\n<<<<AFTER\nfunc renamed() {}\n<<<<"
	result, err := e.Execute(context.Background(), "patch", []string{"m.go"}, body, false)
	if err != nil || !result.Success {
		t.Fatalf("patch: %v / %+v", err, result)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "m.go"))
	if !strings.Contains(string(data), "renamed") {
		t.Errorf("patch not applied: %q", data)
	}
}

func TestPatchAmbiguous(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "d.txt"), []byte("foo\nfoo\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := New(ExecutorDeps{CWD: dir})
	body := "<<<<BEFORE\nfoo\n<<<<AFTER\nbar\n<<<<"
	result, err := e.Execute(context.Background(), "patch", []string{"d.txt"}, body, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Success || !strings.Contains(result.AgentOutput, "ambiguous") {
		t.Errorf("expected ambiguous error, got %+v", result)
	}
}

func TestPatchNotFound(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "d.txt"), []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := New(ExecutorDeps{CWD: dir})
	body := "<<<<BEFORE\nabsent\n<<<<AFTER\nbar\n<<<<"
	result, err := e.Execute(context.Background(), "patch", []string{"d.txt"}, body, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Success || !strings.Contains(result.AgentOutput, "not found") {
		t.Errorf("expected not-found error, got %+v", result)
	}
}

func TestDoneCarriesBodyAndStops(t *testing.T) {
	e := New(ExecutorDeps{CWD: t.TempDir()})

	result, err := e.Execute(context.Background(), "done", nil, "all finished", false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Success || result.AgentOutput != "all finished" {
		t.Errorf("done result = %+v", result)
	}
	if result.StateChange != types.StateDone {
		t.Errorf("done must request the Done transition")
	}
}

func TestDoneFallsBackToArgs(t *testing.T) {
	e := New(ExecutorDeps{CWD: t.TempDir()})

	result, _ := e.Execute(context.Background(), "done", []string{"shown"}, "", false)
	if result.AgentOutput != "shown" {
		t.Errorf("done output = %q", result.AgentOutput)
	}
}

func TestInputWithoutDriverSucceeds(t *testing.T) {
	e := New(ExecutorDeps{CWD: t.TempDir()})
	ctx := context.Background()

	result, err := e.Execute(ctx, "input", []string{"key", "ctrl+c"}, "", false)
	if err != nil || !result.Success {
		t.Fatalf("input key: %v / %+v", err, result)
	}

	result, err = e.Execute(ctx, "input", []string{"click", "10", "20"}, "", false)
	if err != nil || !result.Success {
		t.Fatalf("input click: %v / %+v", err, result)
	}

	result, err = e.Execute(ctx, "input", []string{"click", "ten", "20"}, "", false)
	if err != nil || result.Success {
		t.Fatalf("non-integer coordinates must fail: %+v", result)
	}
}

// fakeRegistry records agent-tool calls without a real supervisor.
type fakeRegistry struct {
	created  []string
	sent     map[int64][]string
	nameToID map[string]int64
	nextID   int64
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{sent: make(map[int64][]string), nameToID: make(map[string]int64)}
}

func (f *fakeRegistry) CreateAgent(ctx context.Context, name, provider, model, systemPrompt string, enableTools bool) (int64, error) {
	f.nextID++
	f.created = append(f.created, name)
	f.nameToID[name] = f.nextID
	return f.nextID, nil
}

func (f *fakeRegistry) SendMessage(id int64, text string) error {
	f.sent[id] = append(f.sent[id], text)
	return nil
}

func (f *fakeRegistry) GetAgentIDByName(name string) (int64, error) {
	if id, ok := f.nameToID[name]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("no agent named %q", name)
}

func TestAgentCreateDeliversInstructions(t *testing.T) {
	reg := newFakeRegistry()
	e := New(ExecutorDeps{CWD: t.TempDir(), Registry: reg})

	result, err := e.Execute(context.Background(), "agent", []string{"create", "beta"}, "Solve X", false)
	if err != nil || !result.Success {
		t.Fatalf("agent create: %v / %+v", err, result)
	}

	if len(reg.created) != 1 || reg.created[0] != "beta" {
		t.Fatalf("created = %v", reg.created)
	}
	if got := reg.sent[1]; len(got) != 1 || got[0] != "Solve X" {
		t.Fatalf("initial instructions = %v", got)
	}
}

func TestAgentSendWrapsEnvelope(t *testing.T) {
	reg := newFakeRegistry()
	reg.nameToID["beta"] = 2
	e := New(ExecutorDeps{CWD: t.TempDir(), Registry: reg})

	ctx := agent.WithCaller(context.Background(), 1, "alpha")
	result, err := e.Execute(ctx, "agent", []string{"send", "beta"}, "Helper question", false)
	if err != nil || !result.Success {
		t.Fatalf("agent send: %v / %+v", err, result)
	}

	got := reg.sent[2]
	want := `<agent_message source="alpha" source_id="1">Helper question</agent_message>`
	if len(got) != 1 || got[0] != want {
		t.Fatalf("envelope = %v, want %q", got, want)
	}
}

func TestAgentSendUnknownTarget(t *testing.T) {
	reg := newFakeRegistry()
	e := New(ExecutorDeps{CWD: t.TempDir(), Registry: reg})

	result, err := e.Execute(context.Background(), "agent", []string{"send", "ghost"}, "hi", false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Success {
		t.Fatal("sending to an unknown agent must fail without stopping the loop")
	}
	if result.StateChange != types.StateContinue {
		t.Errorf("state change = %v, want Continue", result.StateChange)
	}
}

func TestAgentWaitRequestsWaitState(t *testing.T) {
	reg := newFakeRegistry()
	e := New(ExecutorDeps{CWD: t.TempDir(), Registry: reg})

	result, err := e.Execute(context.Background(), "agent", []string{"wait"}, "", false)
	if err != nil || !result.Success {
		t.Fatalf("agent wait: %v / %+v", err, result)
	}
	if result.StateChange != types.StateWait {
		t.Errorf("state change = %v, want Wait", result.StateChange)
	}
}

func TestAgentToolUnavailableWithoutRegistry(t *testing.T) {
	e := New(ExecutorDeps{CWD: t.TempDir()})

	result, err := e.Execute(context.Background(), "agent", []string{"create", "x"}, "", false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Success {
		t.Fatal("agent tool must fail cleanly without a registry")
	}
}

// scriptedTaskBackend serves the sub-agent spawned by the task tool.
type scriptedTaskBackend struct{}

func (scriptedTaskBackend) SendMessage(ctx context.Context, req backend.Request) (backend.LlmResponse, error) {
	return backend.LlmResponse{Text: "<tool>done\nfindings: two call sites</tool>"}, nil
}

func TestTaskSpawnsSubAgentAndReturnsOutput(t *testing.T) {
	e := New(ExecutorDeps{
		CWD:         t.TempDir(),
		Defs:        agent.BuiltinDefinitions(),
		MakeBackend: func(model string) backend.Backend { return scriptedTaskBackend{} },
	})

	result, err := e.Execute(context.Background(), "task", []string{"explore"}, "find the call sites", false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("task failed: %+v", result)
	}
	if !strings.Contains(result.AgentOutput, "two call sites") {
		t.Errorf("task output = %q", result.AgentOutput)
	}
	if result.StateChange != types.StateContinue {
		t.Errorf("task must continue the caller's loop, got %v", result.StateChange)
	}
}

func TestTaskUnknownTemplate(t *testing.T) {
	e := New(ExecutorDeps{
		CWD:         t.TempDir(),
		Defs:        agent.BuiltinDefinitions(),
		MakeBackend: func(model string) backend.Backend { return scriptedTaskBackend{} },
	})

	result, err := e.Execute(context.Background(), "task", []string{"nonexistent"}, "do something", false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Success {
		t.Fatal("unknown template must fail")
	}
}
