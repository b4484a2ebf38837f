// ABOUTME: Textual envelope scheme for tool calls/results layered over free-form model output
// ABOUTME: Parses <tool>NAME args\nBODY</tool> spans and formats tool_result/tool_error envelopes

package grammar

import (
	"strings"
)

// ToolCall is a tool invocation parsed out of an assistant response.
type ToolCall struct {
	Name string
	Args []string
	Body string
}

// ParseResult is the outcome of scanning an assistant response for a tool call.
type ParseResult struct {
	Prefix string
	Tool   *ToolCall // nil when no tool call was found (or was malformed)
}

const (
	openTag  = "<tool>"
	closeTag = "</tool>"
)

// Parse scans response for the first <tool>...</tool> span. If none is present,
// or the opening tag has no matching closing tag, it degrades gracefully:
// the entire response becomes the prefix and no tool is returned.
func Parse(response string) ParseResult {
	start := strings.Index(response, openTag)
	if start == -1 {
		return ParseResult{Prefix: response}
	}

	bodyStart := start + len(openTag)
	end := strings.Index(response[bodyStart:], closeTag)
	if end == -1 {
		return ParseResult{Prefix: response}
	}
	end += bodyStart

	prefix := response[:start]
	inner := response[bodyStart:end]

	firstNL := strings.IndexByte(inner, '\n')
	var firstLine, body string
	if firstNL == -1 {
		firstLine = inner
		body = ""
	} else {
		firstLine = inner[:firstNL]
		body = inner[firstNL+1:]
	}

	tokens := strings.Fields(firstLine)
	if len(tokens) == 0 {
		// No tool name at all; treat as malformed and degrade gracefully.
		return ParseResult{Prefix: response}
	}

	name := strings.ToLower(tokens[0])
	args := tokens[1:]

	return ParseResult{
		Prefix: prefix,
		Tool:   &ToolCall{Name: name, Args: args, Body: body},
	}
}

// FormatToolCall renders a tool call back into its textual form. It is the
// inverse of Parse's tool-extraction: Parse(FormatToolCall(tc)).Tool should
// reproduce an equivalent ToolCall.
func FormatToolCall(tc ToolCall) string {
	var b strings.Builder
	b.WriteString(openTag)
	b.WriteString(tc.Name)
	for _, a := range tc.Args {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	b.WriteByte('\n')
	b.WriteString(tc.Body)
	b.WriteString(closeTag)
	return b.String()
}

// FormatToolResult renders a successful tool result envelope, delivered to
// the model as user-role text. index and tool are included on the opener for
// traceability; the parser in interrupt-probe and patch contexts accepts the
// envelope with or without these attributes.
func FormatToolResult(index int, tool, content string) string {
	return formatEnvelope("tool_result", index, tool, content, true)
}

// FormatToolError renders a failed tool result envelope, same shape as
// FormatToolResult but with the tool_error tag.
func FormatToolError(index int, tool, content string) string {
	return formatEnvelope("tool_error", index, tool, content, true)
}

// FormatPartialToolResult renders an in-progress (not yet terminated)
// <tool_result> envelope: an opener followed by content, with no closing
// tag. Used by the streaming shell for its partial snapshots.
func FormatPartialToolResult(index int, tool, content string) string {
	return formatEnvelope("tool_result", index, tool, content, false)
}

func formatEnvelope(tag string, index int, tool, content string, closed bool) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(tag)
	b.WriteString(` index="`)
	b.WriteString(itoa(index))
	b.WriteString(`" tool="`)
	b.WriteString(tool)
	b.WriteString(`">`)
	b.WriteString(content)
	if closed {
		b.WriteString("</")
		b.WriteString(tag)
		b.WriteByte('>')
	}
	return b.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
