// ABOUTME: System prompt construction: header, tool-name list, project context wiring
// ABOUTME: Minimal mode emits a one-line identity header only

package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SystemOpts configures BuildSystem.
type SystemOpts struct {
	CWD         string
	ToolNames   []string
	EnableTools bool
	Minimal     bool // use_minimal_prompt: skip the tool-list/usage section entirely
}

// BuildSystem composes the system prompt text for a fresh agent. When
// Minimal is set, it returns the identity header only.
func BuildSystem(opts SystemOpts) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are agentcore, an AI coding assistant operating on %s.\n", time.Now().Format("2006-01-02"))
	if opts.CWD != "" {
		fmt.Fprintf(&b, "Working directory: %s\n", opts.CWD)
	}

	if opts.Minimal {
		return strings.TrimRight(b.String(), "\n")
	}

	b.WriteString("\nYou solve tasks by editing files and running shell commands directly; ")
	b.WriteString("narrate what you are doing only when it helps the user follow along.\n")

	if opts.EnableTools && len(opts.ToolNames) > 0 {
		names := append([]string(nil), opts.ToolNames...)
		sort.Strings(names)
		fmt.Fprintf(&b, "\nAvailable tools: %s\n", strings.Join(names, ", "))
		b.WriteString("Invoke a tool with <tool>NAME args\\nBODY</tool>; its result arrives as a <tool_result> or <tool_error> message.\n")
	} else {
		b.WriteString("\nNo tools are enabled for this agent; respond with plain text only.\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// LoadContextFiles reads the project's context file, checking
// .agentcore/CONTEXT.md then AGENTS.md at the project root. Returns "" if
// neither exists.
func LoadContextFiles(projectRoot string) string {
	candidates := []string{
		filepath.Join(projectRoot, ".agentcore", "CONTEXT.md"),
		filepath.Join(projectRoot, "AGENTS.md"),
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data)
		}
	}
	return ""
}
