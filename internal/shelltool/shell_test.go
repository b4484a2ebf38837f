package shelltool

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/corepilot/agentcore/internal/agent"
	"github.com/corepilot/agentcore/internal/backend"
	"github.com/corepilot/agentcore/internal/conversation"
	"github.com/corepilot/agentcore/internal/grammar"
)

type probeBackend struct {
	response backend.LlmResponse
	calls    int
}

func (b *probeBackend) SendMessage(ctx context.Context, req backend.Request) (backend.LlmResponse, error) {
	b.calls++
	return b.response, nil
}

func newTestConv() (*conversation.Conversation, *conversation.CachePointSet) {
	return conversation.New(), conversation.NewCachePointSet()
}

func TestRunCompletesNaturally(t *testing.T) {
	r := New(nil)
	conv, cache := newTestConv()

	result, err := r.Run(context.Background(), "echo hello", true, agent.NewInterruptData(), conv, cache)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if !strings.Contains(result.AgentOutput, "hello") {
		t.Errorf("output missing command output: %q", result.AgentOutput)
	}
	if !strings.Contains(result.AgentOutput, "[COMMAND COMPLETED SUCCESSFULLY]") {
		t.Errorf("output missing completion marker: %q", result.AgentOutput)
	}

	if conv.Len() != 1 {
		t.Fatalf("conversation length = %d, want exactly 1 final message", conv.Len())
	}
	tail, _ := conv.Tail()
	if grammar.IsPartial(tail.Content) {
		t.Error("final message is still a partial snapshot")
	}
}

func TestRunCapturesStderr(t *testing.T) {
	r := New(nil)
	conv, cache := newTestConv()

	result, err := r.Run(context.Background(), "echo oops >&2", true, agent.NewInterruptData(), conv, cache)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(result.AgentOutput, "oops") {
		t.Errorf("stderr line not captured: %q", result.AgentOutput)
	}
}

func TestRunFailureWrapsAsError(t *testing.T) {
	r := New(nil)
	conv, cache := newTestConv()

	result, err := r.Run(context.Background(), "echo partial; exit 3", true, agent.NewInterruptData(), conv, cache)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Success {
		t.Fatal("expected failure for non-zero exit")
	}
	tail, _ := conv.Tail()
	if tail.Info.Kind != conversation.InfoToolError {
		t.Fatalf("tail provenance = %v, want tool error", tail.Info.Kind)
	}
	if !strings.Contains(result.AgentOutput, "partial") {
		t.Errorf("output collected before failure missing: %q", result.AgentOutput)
	}
}

func TestRunModelInterrupt(t *testing.T) {
	be := &probeBackend{response: backend.LlmResponse{
		Text:         "<interrupt>enough data",
		StopReason:   backend.StopSequenceStop,
		StopSequence: "</interrupt>",
	}}
	r := New(be)
	r.checkInterval = 50 * time.Millisecond

	conv, cache := newTestConv()
	interrupt := agent.NewInterruptData()

	start := time.Now()
	result, err := r.Run(context.Background(),
		"i=0; while [ $i -lt 200 ]; do echo line $i; i=$((i+1)); sleep 0.05; done",
		true, interrupt, conv, cache)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if time.Since(start) > 5*time.Second {
		t.Fatal("interrupt did not stop the command promptly")
	}
	if be.calls == 0 {
		t.Fatal("probe never fired")
	}
	if !result.Success {
		t.Fatalf("interruption must not be an error: %+v", result)
	}
	if !strings.Contains(result.AgentOutput, "[COMMAND INTERRUPTED: enough data]") {
		t.Errorf("missing interruption marker: %q", result.AgentOutput)
	}
	if !interrupt.Interrupted() {
		t.Error("shared interrupt record was not flipped")
	}

	// The partial snapshot and the probe message must both be gone.
	if conv.Len() != 1 {
		t.Fatalf("conversation length = %d, want 1", conv.Len())
	}
	tail, _ := conv.Tail()
	if grammar.IsPartial(tail.Content) {
		t.Error("partial snapshot survived completion")
	}
}

func TestRunExternalInterrupt(t *testing.T) {
	r := New(nil)
	conv, cache := newTestConv()
	interrupt := agent.NewInterruptData()

	go func() {
		time.Sleep(200 * time.Millisecond)
		interrupt.Set("stopped by user")
	}()

	start := time.Now()
	result, err := r.Run(context.Background(), "sleep 30", true, interrupt, conv, cache)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if time.Since(start) > 5*time.Second {
		t.Fatal("external interrupt did not kill the command promptly")
	}
	if !result.Success {
		t.Fatalf("interruption must not be an error: %+v", result)
	}
	if !strings.Contains(result.AgentOutput, "stopped by user") {
		t.Errorf("missing interrupt reason: %q", result.AgentOutput)
	}
}

func TestProbeContinueKeepsStreaming(t *testing.T) {
	be := &probeBackend{response: backend.LlmResponse{
		Text:         "",
		StopReason:   backend.StopSequenceStop,
		StopSequence: "<continue/>",
	}}
	r := New(be)
	r.checkInterval = 50 * time.Millisecond

	conv, cache := newTestConv()

	result, err := r.Run(context.Background(),
		"echo one; sleep 0.1; echo two; sleep 0.1; echo three",
		true, agent.NewInterruptData(), conv, cache)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if be.calls == 0 {
		t.Fatal("probe never fired")
	}
	if !result.Success || !strings.Contains(result.AgentOutput, "[COMMAND COMPLETED SUCCESSFULLY]") {
		t.Fatalf("expected natural completion after continue, got %+v", result)
	}
	if !strings.Contains(result.AgentOutput, "three") {
		t.Errorf("later output missing after continue: %q", result.AgentOutput)
	}
}

func TestSanitizeCommandStripsControlBytes(t *testing.T) {
	in := "echo\x00 hi\x07\tthere\n"
	got := sanitizeCommand(in)
	if strings.ContainsAny(got, "\x00\x07") {
		t.Errorf("control bytes survived: %q", got)
	}
	if !strings.Contains(got, "\t") || !strings.Contains(got, "\n") {
		t.Errorf("tab/newline must survive: %q", got)
	}
}
