// ABOUTME: Envelope helpers: detection of an unclosed tool_result/tool_error opener
// ABOUTME: and construction of the agent_message envelope used by `agent send`

package grammar

import (
	"fmt"
	"regexp"
	"strings"
)

// resultOpenRe matches a <tool_result ...> or <tool_error ...> opener,
// accepting both the bare form and the index="K" tool="NAME" attributed form.
var resultOpenRe = regexp.MustCompile(`^<(tool_result|tool_error)(?:\s+[^>]*)?>`)

// IsPartial reports whether s is a tool_result envelope opener with no
// matching closing tag yet (the streaming shell's partial snapshot shape).
func IsPartial(s string) bool {
	loc := resultOpenRe.FindStringIndex(s)
	if loc == nil {
		return false
	}
	tag := resultOpenRe.FindStringSubmatch(s)[1]
	return !hasClosing(s, tag)
}

func hasClosing(s, tag string) bool {
	return strings.Contains(s, "</"+tag+">")
}

// FormatAgentMessage wraps body in the <agent_message> envelope delivered as
// a UserInput to the target agent in `agent send`.
func FormatAgentMessage(sourceName string, sourceID int64, body string) string {
	return fmt.Sprintf(`<agent_message source="%s" source_id="%d">%s</agent_message>`, sourceName, sourceID, body)
}
