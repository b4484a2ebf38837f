// ABOUTME: `input` handler: keyboard/mouse synthesis behind a pluggable driver
// ABOUTME: The default driver only logs; a real driver is registered by the embedding host

package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/corepilot/agentcore/internal/log"
	"github.com/corepilot/agentcore/internal/types"
)

// KeyboardMouseDriver performs host input synthesis. Implementations are
// platform-specific and registered by the host process; the core ships only
// the logging no-op below.
type KeyboardMouseDriver interface {
	PressKey(combo string) error
	TypeText(text string) error
	Click(x, y int) error
}

// SetInputDriver replaces the executor's input driver.
func (e *Executor) SetInputDriver(d KeyboardMouseDriver) {
	e.inputDriver = d
}

func (e *Executor) handleInput(_ context.Context, args []string, body string, _ bool) (types.ToolResult, error) {
	if len(args) == 0 {
		return errResult(fmt.Errorf("input requires a subcommand: key, type, or click")), nil
	}

	driver := e.inputDriver
	if driver == nil {
		driver = noopDriver{}
	}

	switch args[0] {
	case "key":
		if len(args) < 2 {
			return errResult(fmt.Errorf("input key requires a key combination")), nil
		}
		combo := strings.Join(args[1:], " ")
		if err := driver.PressKey(combo); err != nil {
			return errResult(err), nil
		}
		return okResult(fmt.Sprintf("pressed %s", combo)), nil

	case "type":
		text := body
		if text == "" {
			text = strings.Join(args[1:], " ")
		}
		if err := driver.TypeText(text); err != nil {
			return errResult(err), nil
		}
		return okResult(fmt.Sprintf("typed %d characters", len(text))), nil

	case "click":
		if len(args) < 3 {
			return errResult(fmt.Errorf("input click requires x and y coordinates")), nil
		}
		x, errX := strconv.Atoi(args[1])
		y, errY := strconv.Atoi(args[2])
		if errX != nil || errY != nil {
			return errResult(fmt.Errorf("input click coordinates must be integers")), nil
		}
		if err := driver.Click(x, y); err != nil {
			return errResult(err), nil
		}
		return okResult(fmt.Sprintf("clicked at (%d, %d)", x, y)), nil

	default:
		return errResult(fmt.Errorf("unknown input subcommand %q", args[0])), nil
	}
}

// noopDriver logs each request instead of synthesizing real events.
type noopDriver struct{}

func (noopDriver) PressKey(combo string) error {
	log.Info("input: no driver registered, ignoring key press %q", combo)
	return nil
}

func (noopDriver) TypeText(text string) error {
	log.Info("input: no driver registered, ignoring request to type %d characters", len(text))
	return nil
}

func (noopDriver) Click(x, y int) error {
	log.Info("input: no driver registered, ignoring click at (%d, %d)", x, y)
	return nil
}
