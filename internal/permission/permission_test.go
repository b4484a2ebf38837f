package permission

import (
	"strings"
	"testing"
)

func TestReadOnlyModeBlocksMutatingTools(t *testing.T) {
	c := NewChecker(ModeReadOnly, nil)

	if err := c.Check("read", ""); err != nil {
		t.Errorf("read should be allowed in read-only mode: %v", err)
	}
	if err := c.Check("search", ""); err != nil {
		t.Errorf("search should be allowed in read-only mode: %v", err)
	}
	if err := c.Check("write", ""); err == nil {
		t.Error("write should be blocked in read-only mode")
	}
	if err := c.Check("shell", "rm -rf /"); err == nil {
		t.Error("shell should be blocked in read-only mode")
	}
}

func TestYoloModeAllowsEverything(t *testing.T) {
	c := NewChecker(ModeYolo, nil)

	if err := c.Check("shell", "anything"); err != nil {
		t.Errorf("yolo mode: %v", err)
	}
	if err := c.Check("write", "/etc/passwd"); err != nil {
		t.Errorf("yolo mode: %v", err)
	}
}

func TestNormalModeAsks(t *testing.T) {
	asked := false
	askFn := func(tool, specifier string) (bool, error) {
		asked = true
		return true, nil
	}
	c := NewChecker(ModeNormal, askFn)

	if err := c.Check("shell", "make test"); err != nil {
		t.Fatalf("approved shell call failed: %v", err)
	}
	if !asked {
		t.Error("ask function was never invoked")
	}
}

func TestNormalModeUserDenies(t *testing.T) {
	askFn := func(tool, specifier string) (bool, error) { return false, nil }
	c := NewChecker(ModeNormal, askFn)

	if err := c.Check("shell", "rm -rf /"); err == nil {
		t.Error("user denial must surface as an error")
	}
}

func TestNormalModeWithoutAskFn(t *testing.T) {
	c := NewChecker(ModeNormal, nil)

	err := c.Check("shell", "ls")
	if err == nil {
		t.Fatal("expected needs-approval error with no ask function")
	}
	if !IsNeedsApproval(err) {
		t.Errorf("error should wrap ErrNeedsApproval: %v", err)
	}
}

func TestAcceptWritesMode(t *testing.T) {
	c := NewChecker(ModeAcceptWrites, nil)

	if err := c.Check("patch", "main.go"); err != nil {
		t.Errorf("patch should be auto-allowed: %v", err)
	}
	if err := c.Check("write", "main.go"); err != nil {
		t.Errorf("write should be auto-allowed: %v", err)
	}
	if err := c.Check("shell", "make"); err == nil || !IsNeedsApproval(err) {
		t.Errorf("shell should still need approval: %v", err)
	}
}

func TestDenyRuleWins(t *testing.T) {
	c := NewChecker(ModeYolo, nil)
	c.AddDenyRule(Rule{Tool: "shell", Message: "no shell here"})

	err := c.Check("shell", "ls")
	if err == nil || !strings.Contains(err.Error(), "no shell here") {
		t.Errorf("deny rule not applied: %v", err)
	}
}

func TestRemoveRule(t *testing.T) {
	c := NewChecker(ModeYolo, nil)
	c.AddDenyRule(Rule{Tool: "shell"})

	if !c.RemoveRule("shell") {
		t.Fatal("RemoveRule returned false for an existing rule")
	}
	if err := c.Check("shell", "ls"); err != nil {
		t.Errorf("rule not actually removed: %v", err)
	}
}

func TestParseModeRoundTrip(t *testing.T) {
	for _, s := range []string{"normal", "acceptWrites", "readOnly", "dontAsk", "bypassPermissions"} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("ParseMode(%q): %v", s, err)
		}
	}
	if _, err := ParseMode("bogus"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
