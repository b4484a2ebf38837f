// ABOUTME: CLI entry point: parses flags, loads config, wires the supervisor
// ABOUTME: A positional QUERY runs one-shot; no QUERY enters the interactive line loop

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/corepilot/agentcore/internal/agent"
	"github.com/corepilot/agentcore/internal/backend"
	"github.com/corepilot/agentcore/internal/config"
	corehttp "github.com/corepilot/agentcore/internal/http"
	"github.com/corepilot/agentcore/internal/log"
	"github.com/corepilot/agentcore/internal/manager"
	"github.com/corepilot/agentcore/internal/permission"
	"github.com/corepilot/agentcore/internal/prompt"
	"github.com/corepilot/agentcore/internal/session"
	"github.com/corepilot/agentcore/internal/shelltool"
	"github.com/corepilot/agentcore/internal/tools"

	// Provider registration.
	_ "github.com/corepilot/agentcore/internal/backend/anthropic"
	_ "github.com/corepilot/agentcore/internal/backend/deepseek"
	_ "github.com/corepilot/agentcore/internal/backend/openai"
	_ "github.com/corepilot/agentcore/internal/backend/openrouter"
)

var version = "dev"

func main() {
	// Intercept the auth subcommand before flag parsing.
	if len(os.Args) > 1 && os.Args[1] == "auth" {
		if err := runAuth(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	args := parseFlags()

	if args.version {
		fmt.Printf("agentcore %s\n", version)
		os.Exit(0)
	}

	if args.verbose {
		log.SetLevel(log.LevelDebug)
	}

	if err := run(args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args cliArgs) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}

	settings, err := config.LoadSettings(cwd)
	if err != nil {
		return err
	}
	if settings.LogLevel != "" && !args.verbose {
		log.SetLevel(log.ParseLevel(settings.LogLevel))
	}

	resolved := config.Resolve(config.Flags{
		Model:   args.model,
		System:  args.system,
		NoTools: args.noTools,
		APIKey:  args.apiKey,
	}, settings)

	if !backend.Registered(resolved.Provider) {
		return fmt.Errorf("unknown provider %q for model %q", resolved.Provider, resolved.Model)
	}

	auth, err := config.LoadAuth()
	if err != nil {
		return err
	}
	if args.apiKey != "" {
		auth.SetRuntimeKey(args.apiKey)
	}

	makeBackend := func(provider, model string) backend.Backend {
		key := auth.GetKey(provider)
		if key == "" {
			key = config.LoadToken()
		}
		be := backend.New(provider, key, model)
		if be == nil {
			return backend.NewUnavailable(provider)
		}
		return be
	}

	validator, err := permission.NewSecurePathValidator(append(
		permission.DefaultAllowedDirectories(), cwd))
	if err != nil {
		return fmt.Errorf("building path validator: %w", err)
	}

	mode := permission.ModeNormal
	if args.yolo {
		mode = permission.ModeYolo
	}
	checker := permission.NewChecker(mode, askOnTerminal)

	defs, err := agent.LoadDefinitions(cwd, homeDir())
	if err != nil {
		return fmt.Errorf("loading agent definitions: %w", err)
	}

	shellRunner := shelltool.New(makeBackend(resolved.Provider, resolved.Model))

	executor := tools.New(tools.ExecutorDeps{
		CWD:        cwd,
		Validator:  validator,
		Checker:    checker,
		HTTPClient: corehttp.SecureClient(60 * time.Second),
		Defs:       defs,
		MakeBackend: func(model string) backend.Backend {
			return makeBackend(config.DetectProvider(model), model)
		},
		Shell:           shellRunner,
		DefaultProvider: resolved.Provider,
		DefaultModel:    resolved.Model,
	})

	mgr := manager.New(manager.Deps{
		MakeBackend: makeBackend,
		Executor:    executor,
		Shell:       shellRunner,
		ProjectCtx:  func() string { return prompt.LoadContextFiles(cwd) },
	})
	executor.SetAgentRegistry(mgr)

	systemPrompt := resolved.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = prompt.BuildSystem(prompt.SystemOpts{
			CWD:         cwd,
			ToolNames:   executor.ToolNames(),
			EnableTools: resolved.EnableTools,
			Minimal:     resolved.UseMinimalPrompt,
		})
	}

	ctx := context.Background()
	id, err := mgr.CreateAgent(ctx, "main", resolved.Provider, resolved.Model, systemPrompt, resolved.EnableTools)
	if err != nil {
		return err
	}

	writer, err := session.NewWriter(time.Now().Format("20060102-150405"))
	if err != nil {
		log.Warn("session transcript disabled: %v", err)
		writer = nil
	} else {
		defer writer.Close()
		_ = writer.WriteRecord(session.RecordSessionStart, session.SessionStartData{
			ID: "main", Model: resolved.Model, CWD: cwd,
		})
	}

	defer persistTranscript(mgr, id, writer)

	if query := strings.TrimSpace(strings.Join(args.remaining(), " ")); query != "" {
		return oneShot(mgr, id, query)
	}
	return interactive(mgr, id)
}

// oneShot sends a single query, waits for the agent to settle, and prints
// its final text.
func oneShot(mgr *manager.AgentManager, id int64, query string) error {
	if err := mgr.SendMessage(id, query); err != nil {
		return err
	}
	waitSettled(mgr, id)

	text, err := mgr.GetAgentLastText(id)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

// interactive reads lines from stdin, one turn per line, until EOF or exit.
func interactive(mgr *manager.AgentManager, id int64) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if err := mgr.SendMessage(id, line); err != nil {
			return err
		}
		waitSettled(mgr, id)

		text, err := mgr.GetAgentLastText(id)
		if err != nil {
			return err
		}
		fmt.Println(text)
	}
}

// waitSettled blocks until the agent leaves Processing/RunningTool and comes
// to rest in Idle, Wait, or Done.
func waitSettled(mgr *manager.AgentManager, id int64) {
	// Give the mailbox delivery a moment to start the turn.
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if st, err := mgr.GetAgentState(id); err != nil || st == agent.StateProcessing || st == agent.StateRunningTool {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	for {
		st, err := mgr.GetAgentState(id)
		if err != nil {
			return
		}
		switch st {
		case agent.StateProcessing, agent.StateRunningTool:
			time.Sleep(25 * time.Millisecond)
		default:
			return
		}
	}
}

// persistTranscript writes the agent's full conversation to the session file.
func persistTranscript(mgr *manager.AgentManager, id int64, writer *session.Writer) {
	if writer == nil {
		return
	}
	msgs, err := mgr.GetAgentMessages(id)
	if err != nil {
		return
	}
	for _, m := range msgs {
		if err := writer.WriteMessage(m); err != nil {
			log.Warn("writing transcript record: %v", err)
			return
		}
	}
}

// askOnTerminal prompts on the controlling terminal for tool approval.
func askOnTerminal(tool, specifier string) (bool, error) {
	if specifier != "" {
		fmt.Fprintf(os.Stderr, "allow %s (%s)? [y/N] ", tool, specifier)
	} else {
		fmt.Fprintf(os.Stderr, "allow %s? [y/N] ", tool)
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// runAuth stores credentials: `agentcore auth token VALUE` persists the
// bearer token; `agentcore auth PROVIDER KEY` stores a provider API key.
func runAuth(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: agentcore auth token VALUE | agentcore auth PROVIDER KEY")
	}

	if args[0] == "token" {
		if err := config.SaveToken(args[1]); err != nil {
			return err
		}
		fmt.Println("token saved")
		return nil
	}

	store, err := config.LoadAuth()
	if err != nil {
		return err
	}
	store.SetKey(args[0], args[1])
	if err := store.Save(); err != nil {
		return err
	}
	fmt.Printf("key saved for provider %s\n", args[0])
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
