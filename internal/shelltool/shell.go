// ABOUTME: Streaming shell executor: pty-backed subprocess with mid-execution interrupt probing
// ABOUTME: Periodically asks the model whether a long-running command should be stopped

package shelltool

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/corepilot/agentcore/internal/agent"
	"github.com/corepilot/agentcore/internal/backend"
	"github.com/corepilot/agentcore/internal/conversation"
	"github.com/corepilot/agentcore/internal/grammar"
	"github.com/corepilot/agentcore/internal/log"
	"github.com/corepilot/agentcore/internal/tools"
	"github.com/corepilot/agentcore/internal/types"
	"github.com/creack/pty"
	"golang.org/x/sync/errgroup"
)

// defaultCheckInterval is the minimum gap between interrupt probes.
const defaultCheckInterval = 10 * time.Second

// interruptPollTick bounds how long an externally-flipped interrupt can go
// unobserved while the subprocess produces no output.
const interruptPollTick = 500 * time.Millisecond

const probeText = "The command is still running. Respond with exactly one of: " +
	"<continue/> to keep waiting, or <interrupt>ONE SENTENCE REASON</interrupt> to stop it."

// Runner implements agent.ShellRunner.
type Runner struct {
	backend backend.Backend

	// checkInterval defaults to defaultCheckInterval; tests shrink it.
	checkInterval time.Duration
}

// New constructs a Runner. be is used only for the interrupt-probe
// sub-conversation, never for the owning agent's main turn loop.
func New(be backend.Backend) *Runner {
	return &Runner{backend: be, checkInterval: defaultCheckInterval}
}

type lineEvent struct {
	text   string
	stderr bool
}

// Run spawns body as a subprocess, streams its output line by line,
// periodically probes the model about whether to interrupt, and returns the
// final ToolResult once the process completes or is killed. It appends every
// conversation mutation (partial snapshots, the probe message, the final
// envelope) to conv directly; the owning agent must not wrap or append again.
func (r *Runner) Run(ctx context.Context, body string, silent bool, interrupt *agent.InterruptData, conv *conversation.Conversation, cache *conversation.CachePointSet) (types.ToolResult, error) {
	cmd := shellCommand(ctx, body)

	ptmx, tty, err := pty.Open()
	if err != nil {
		return types.ToolResult{}, fmt.Errorf("shell: opening pty: %w", err)
	}
	defer ptmx.Close()

	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		tty.Close()
		return types.ToolResult{}, fmt.Errorf("shell: creating stderr pipe: %w", err)
	}

	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		tty.Close()
		stderrR.Close()
		stderrW.Close()
		return types.ToolResult{}, fmt.Errorf("shell: starting command: %w", err)
	}

	// The child holds its own copies; closing ours lets the readers see EOF
	// when the process exits.
	tty.Close()
	stderrW.Close()

	lines := make(chan lineEvent, 64)
	var readers errgroup.Group
	readers.Go(func() error {
		scanLines(ptmx, false, lines)
		return nil
	})
	readers.Go(func() error {
		scanLines(stderrR, true, lines)
		return nil
	})
	go func() {
		_ = readers.Wait()
		stderrR.Close()
		close(lines)
	}()

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	var (
		partialOutput    strings.Builder
		lastCheckAt      = time.Now()
		hasPartialInConv bool
		killed           bool
	)

	checkInterval := r.checkInterval
	if checkInterval <= 0 {
		checkInterval = defaultCheckInterval
	}

	ticker := time.NewTicker(interruptPollTick)
	defer ticker.Stop()

	for lines != nil {
		select {
		case ev, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			partialOutput.WriteString(ev.text)
			partialOutput.WriteByte('\n')
			if !silent {
				stream := os.Stdout
				if ev.stderr {
					stream = os.Stderr
				}
				fmt.Fprintln(stream, ev.text)
			}

			if ev.stderr || killed || interrupt.Interrupted() {
				continue
			}
			if time.Since(lastCheckAt) <= checkInterval {
				continue
			}
			stop, reason := r.probe(ctx, partialOutput.String(), &hasPartialInConv, conv, cache)
			lastCheckAt = time.Now()
			if stop {
				interrupt.Set(reason)
				killed = true
				killProcess(cmd)
			}

		case <-ticker.C:
			// An external interrupt (user, supervisor) flips the shared record
			// without producing a line; this tick is how we notice it.
			if !killed && interrupt.Interrupted() {
				killed = true
				killProcess(cmd)
			}
		}
	}

	waitErr := <-waitCh

	if hasPartialInConv && conv.TailIsPartialToolResult(grammar.IsPartial) {
		conv.PopTail()
	}

	result := finalize(partialOutput.String(), interrupt.Interrupted(), interrupt.Reason(), waitErr)
	idx := conv.Len()
	if result.Success {
		conv.Append(conversation.NewToolResultMessage("shell", grammar.FormatToolResult(idx, "shell", result.AgentOutput)))
	} else {
		conv.Append(conversation.NewToolErrorMessage("shell", grammar.FormatToolError(idx, "shell", result.AgentOutput)))
	}

	return result, nil
}

// probe runs the interrupt-check sub-conversation: swap in a fresh partial
// snapshot, append the transient probe message, ask the model with the
// interrupt stop sequences, then remove the probe again. Returns whether the
// model requested an interrupt and its one-sentence reason.
func (r *Runner) probe(ctx context.Context, partialOutput string, hasPartialInConv *bool, conv *conversation.Conversation, cache *conversation.CachePointSet) (bool, string) {
	if r.backend == nil {
		return false, ""
	}

	if *hasPartialInConv && conv.TailIsPartialToolResult(grammar.IsPartial) {
		conv.PopTail()
	}

	idx := conv.Len()
	conv.Append(conversation.NewToolResultMessage("shell", grammar.FormatPartialToolResult(idx, "shell", partialOutput)))
	cache.Add(idx)
	*hasPartialInConv = true

	conv.Append(conversation.NewUserMessage(probeText))
	defer conv.PopTail()

	resp, err := r.backend.SendMessage(ctx, backend.Request{
		Messages:      conv.Messages(),
		StopSequences: []string{"</interrupt>", "<continue/>"},
		CachePoints:   cache.Indices(),
		MaxTokens:     100,
	})
	if err != nil {
		log.Warn("shell: interrupt probe failed: %v", err)
		return false, ""
	}

	if resp.StopReason == backend.StopSequenceStop && resp.StopSequence == "</interrupt>" {
		return true, extractInterruptReason(resp.Text)
	}
	return false, ""
}

func extractInterruptReason(text string) string {
	const open = "<interrupt>"
	start := strings.Index(text, open)
	if start == -1 {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[start+len(open):])
}

// finalize synthesizes the final agent output. An interrupt is not an error:
// the model deliberately requested it, so the output is wrapped as a
// successful result carrying the interruption marker. Output keeps its tail
// when over the cap; with a long-running command the recent lines are the
// informative ones.
func finalize(output string, interrupted bool, reason string, waitErr error) types.ToolResult {
	trunc := tools.TruncateTail(output, tools.MaxShellLines, tools.MaxShellBytes)
	output = trunc.Content
	if trunc.Truncated {
		output = fmt.Sprintf("... [%s, %d lines total]\n%s", trunc.Reason, trunc.TotalLines, output)
	}

	switch {
	case interrupted:
		return types.ToolResult{
			Success:     true,
			AgentOutput: fmt.Sprintf("%s\n\n[COMMAND INTERRUPTED: %s]", output, reason),
			StateChange: types.StateContinue,
		}
	case waitErr == nil:
		return types.ToolResult{
			Success:     true,
			AgentOutput: fmt.Sprintf("%s\n\n[COMMAND COMPLETED SUCCESSFULLY]", output),
			StateChange: types.StateContinue,
		}
	default:
		return types.ToolResult{
			Success:     false,
			AgentOutput: output,
			StateChange: types.StateContinue,
		}
	}
}

func scanLines(r io.Reader, stderr bool, out chan<- lineEvent) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		out <- lineEvent{text: scanner.Text(), stderr: stderr}
	}
}

func shellCommand(ctx context.Context, body string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", sanitizeCommand(body))
	// Own process group, so killProcess also reaches children the shell forks.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	return cmd
}

// sanitizeCommand strips null bytes and other control characters (except
// newline and tab) before the command reaches the subprocess. Command
// allow/deny listing is intentionally absent: unrestricted shell access is
// the point of this tool.
func sanitizeCommand(body string) string {
	var b strings.Builder
	for _, r := range body {
		if r >= 32 || r == '\n' || r == '\t' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func killProcess(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		_ = cmd.Process.Kill()
	}
}
