// ABOUTME: CLI flag parsing using stdlib flag package
// ABOUTME: Supports --model, --system, --no-tools, --api-key, --yolo, --verbose, --version

package main

import "flag"

type cliArgs struct {
	model   string
	system  string
	noTools bool
	apiKey  string
	yolo    bool
	verbose bool
	version bool
}

func parseFlags() cliArgs {
	var args cliArgs

	flag.StringVar(&args.model, "model", "", "Model to use (e.g., claude-sonnet-4-6, gpt-4o, deepseek-chat)")
	flag.StringVar(&args.system, "system", "", "Override the system prompt")
	flag.BoolVar(&args.noTools, "no-tools", false, "Disable tool use")
	flag.StringVar(&args.apiKey, "api-key", "", "API key override (bypasses the stored key and env vars)")
	flag.BoolVar(&args.yolo, "yolo", false, "Skip all permission prompts")
	flag.BoolVar(&args.verbose, "verbose", false, "Enable debug logging")
	flag.BoolVar(&args.version, "version", false, "Show version and exit")

	flag.Parse()
	return args
}

// remaining returns the non-flag command-line arguments.
func (a cliArgs) remaining() []string {
	return flag.Args()
}
