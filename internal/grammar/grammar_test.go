package grammar

import "testing"

func TestParseNoTool(t *testing.T) {
	res := Parse("just a plain reply")
	if res.Tool != nil {
		t.Fatalf("expected no tool, got %+v", res.Tool)
	}
	if res.Prefix != "just a plain reply" {
		t.Fatalf("prefix = %q", res.Prefix)
	}
}

func TestParseToolCall(t *testing.T) {
	res := Parse("Ok.\n<tool>read /etc/hosts</tool>")
	if res.Tool == nil {
		t.Fatalf("expected a tool call")
	}
	if res.Tool.Name != "read" {
		t.Fatalf("name = %q", res.Tool.Name)
	}
	if len(res.Tool.Args) != 1 || res.Tool.Args[0] != "/etc/hosts" {
		t.Fatalf("args = %+v", res.Tool.Args)
	}
	if res.Tool.Body != "" {
		t.Fatalf("body = %q", res.Tool.Body)
	}
	if res.Prefix != "Ok.\n" {
		t.Fatalf("prefix = %q", res.Prefix)
	}
}

func TestParseToolCallWithBody(t *testing.T) {
	res := Parse("<tool>patch foo.go\nline one\nline two</tool>")
	if res.Tool == nil {
		t.Fatalf("expected a tool call")
	}
	if res.Tool.Name != "patch" {
		t.Fatalf("name = %q", res.Tool.Name)
	}
	if res.Tool.Body != "line one\nline two" {
		t.Fatalf("body = %q", res.Tool.Body)
	}
}

func TestParseNameIsLowercased(t *testing.T) {
	res := Parse("<tool>SHELL echo hi</tool>")
	if res.Tool == nil || res.Tool.Name != "shell" {
		t.Fatalf("expected lowercased name, got %+v", res.Tool)
	}
}

func TestParseMissingClosingTagDegrades(t *testing.T) {
	res := Parse("<tool>shell echo hi")
	if res.Tool != nil {
		t.Fatalf("expected graceful degrade, got tool %+v", res.Tool)
	}
	if res.Prefix != "<tool>shell echo hi" {
		t.Fatalf("prefix = %q", res.Prefix)
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	tc := ToolCall{Name: "done", Args: []string{"now"}, Body: "finished"}
	formatted := FormatToolCall(tc)
	res := Parse(formatted)
	if res.Tool == nil {
		t.Fatalf("round trip lost the tool call")
	}
	if res.Tool.Name != tc.Name || res.Tool.Body != tc.Body {
		t.Fatalf("round trip mismatch: got %+v, want %+v", res.Tool, tc)
	}
	if len(res.Tool.Args) != len(tc.Args) || res.Tool.Args[0] != tc.Args[0] {
		t.Fatalf("round trip args mismatch: got %+v, want %+v", res.Tool.Args, tc.Args)
	}
}

func TestFormatToolResultAndError(t *testing.T) {
	ok := FormatToolResult(2, "read", "127.0.0.1 localhost")
	if ok != `<tool_result index="2" tool="read">127.0.0.1 localhost</tool_result>` {
		t.Fatalf("unexpected envelope: %q", ok)
	}
	bad := FormatToolError(3, "patch", "ambiguous")
	if bad != `<tool_error index="3" tool="patch">ambiguous</tool_error>` {
		t.Fatalf("unexpected envelope: %q", bad)
	}
}

func TestPartialToolResultHasNoClosingTag(t *testing.T) {
	partial := FormatPartialToolResult(0, "shell", "line1\nline2\n")
	if !IsPartial(partial) {
		t.Fatalf("expected partial, got %q", partial)
	}
	final := partial + "</tool_result>"
	if IsPartial(final) {
		t.Fatalf("expected non-partial once closed")
	}
}

func TestFormatAgentMessage(t *testing.T) {
	got := FormatAgentMessage("alpha", 1, "Helper question")
	want := `<agent_message source="alpha" source_id="1">Helper question</agent_message>`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
