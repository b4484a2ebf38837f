package agent

import (
	"context"
	"testing"
	"time"

	"github.com/corepilot/agentcore/internal/backend"
	"github.com/corepilot/agentcore/internal/types"
)

func TestSpawnRunsToCompletionAndReportsOutput(t *testing.T) {
	be := &scriptedBackend{responses: []backend.LlmResponse{{Text: "the answer is 42"}}}
	deps := SpawnDeps{Backend: be, Executor: nil, AllTools: nil}

	h := Spawn(context.Background(), deps, SubAgentConfig{
		Name:   "explore",
		Prompt: "what is the answer?",
	})

	select {
	case <-h.Done:
	case <-time.After(2 * time.Second):
		t.Fatal("sub-agent did not finish in time")
	}

	if h.Result().Output != "the answer is 42" {
		t.Fatalf("output = %q, want %q", h.Result().Output, "the answer is 42")
	}
}

func TestSpawnRestrictsToolsWhenReadOnly(t *testing.T) {
	be := &scriptedBackend{responses: []backend.LlmResponse{
		{Text: "<tool>write out.txt\nnope</tool>"},
		{Text: "ok, could not write"},
	}}
	exec := &stubExecutor{result: types.ToolResult{Success: true, AgentOutput: "should not run"}}
	deps := SpawnDeps{Backend: be, Executor: exec, AllTools: []string{"read"}}

	h := Spawn(context.Background(), deps, SubAgentConfig{
		Name:         "readonly-explore",
		Prompt:       "try to write something",
		AllowedTools: []string{"read"},
		ReadOnly:     true,
	})

	select {
	case <-h.Done:
	case <-time.After(2 * time.Second):
		t.Fatal("sub-agent did not finish in time")
	}

	if h.Result().Err != nil {
		t.Fatalf("unexpected error: %v", h.Result().Err)
	}
	if exec.calls != 0 {
		t.Fatalf("executor ran %d time(s); write is not in the sub-agent's allowed tools", exec.calls)
	}
}
