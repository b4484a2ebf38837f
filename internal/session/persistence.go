// ABOUTME: JSONL session transcript persistence with append-only writes
// ABOUTME: Reads line-by-line with bufio.Scanner; crash-safe via O_APPEND

package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/corepilot/agentcore/internal/config"
	"github.com/corepilot/agentcore/internal/conversation"
)

const (
	scannerInitialBuf = 64 * 1024
	scannerMaxBuf     = 10 * 1024 * 1024
)

// validSessionID validates that a session ID contains only safe characters
// to prevent path traversal through a crafted ID.
var validSessionID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// RecordType identifies the type of JSONL record.
type RecordType string

const (
	RecordSessionStart RecordType = "session_start"
	RecordUser         RecordType = "user"
	RecordAssistant    RecordType = "assistant"
	RecordToolCall     RecordType = "tool_call"
	RecordToolResult   RecordType = "tool_result"
	RecordToolError    RecordType = "tool_error"
	RecordSessionEnd   RecordType = "session_end"
)

// Record is the envelope for all JSONL entries.
type Record struct {
	Version int             `json:"v"`
	Type    RecordType      `json:"type"`
	TS      string          `json:"ts"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Unmarshal unmarshals the record data into v.
func (r *Record) Unmarshal(v any) error {
	if r.Data == nil {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// SessionStartData holds session_start metadata.
type SessionStartData struct {
	ID    string `json:"id"`
	Model string `json:"model"`
	CWD   string `json:"cwd"`
}

// MessageData holds one conversation message's persisted form.
type MessageData struct {
	Content string `json:"content"`
	Tool    string `json:"tool,omitempty"`
}

// CurrentRecordVersion is the version stamped on new records.
const CurrentRecordVersion = 1

// Writer appends records to a session JSONL file.
type Writer struct {
	file *os.File
}

// NewWriter creates a Writer for the given session ID under the sessions dir.
func NewWriter(sessionID string) (*Writer, error) {
	if !validSessionID.MatchString(sessionID) {
		return nil, fmt.Errorf("invalid session ID %q: must match [a-zA-Z0-9_-]+", sessionID)
	}
	dir := config.SessionsDir()
	if err := config.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("creating sessions dir: %w", err)
	}

	path := filepath.Join(dir, sessionID+".jsonl")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening session file: %w", err)
	}
	return &Writer{file: file}, nil
}

// WriteRecord appends one record.
func (w *Writer) WriteRecord(recordType RecordType, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling record data: %w", err)
	}

	rec := Record{
		Version: CurrentRecordVersion,
		Type:    recordType,
		TS:      time.Now().UTC().Format(time.RFC3339),
		Data:    raw,
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	line = append(line, '\n')

	if _, err := w.file.Write(line); err != nil {
		return fmt.Errorf("appending record: %w", err)
	}
	return nil
}

// WriteMessage persists one conversation message with its provenance mapped
// to a record type.
func (w *Writer) WriteMessage(m conversation.Message) error {
	return w.WriteRecord(recordTypeFor(m.Info), MessageData{Content: m.Content, Tool: m.Info.ToolName})
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	return w.file.Close()
}

func recordTypeFor(info conversation.Info) RecordType {
	switch info.Kind {
	case conversation.InfoAssistant:
		return RecordAssistant
	case conversation.InfoToolCall:
		return RecordToolCall
	case conversation.InfoToolResult:
		return RecordToolResult
	case conversation.InfoToolError:
		return RecordToolError
	default:
		return RecordUser
	}
}

// ReadRecords reads every record of a stored session.
func ReadRecords(sessionID string) ([]Record, error) {
	if !validSessionID.MatchString(sessionID) {
		return nil, fmt.Errorf("invalid session ID %q", sessionID)
	}

	path := filepath.Join(config.SessionsDir(), sessionID+".jsonl")
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening session file: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, scannerInitialBuf), scannerMaxBuf)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			// A torn final line after a crash is expected; skip it.
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning session file: %w", err)
	}
	return records, nil
}

// ListSessions returns the IDs of every stored session, newest first.
func ListSessions() ([]string, error) {
	entries, err := os.ReadDir(config.SessionsDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading sessions dir: %w", err)
	}

	type dated struct {
		id  string
		mod time.Time
	}
	var found []dated
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".jsonl" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, dated{id: name[:len(name)-len(".jsonl")], mod: info.ModTime()})
	}

	for i := 0; i < len(found); i++ {
		for j := i + 1; j < len(found); j++ {
			if found[j].mod.After(found[i].mod) {
				found[i], found[j] = found[j], found[i]
			}
		}
	}

	ids := make([]string, len(found))
	for i, f := range found {
		ids[i] = f.id
	}
	return ids, nil
}
