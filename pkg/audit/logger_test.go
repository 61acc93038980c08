package audit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_WritesPrefixedJSONLine(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter(&buf)

	l.Record("decision.record", OutcomeCommitted, "tech-441", "event ev-1", map[string]any{"disposition": "MONITOR"})

	line := buf.String()
	if !strings.HasPrefix(line, "AUDIT: ") {
		t.Fatalf("expected AUDIT: prefix, got %q", line)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "AUDIT: ")), &entry); err != nil {
		t.Fatalf("line is not valid JSON: %v", err)
	}
	if entry.Action != "decision.record" || entry.Outcome != OutcomeCommitted {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.ID == "" || entry.Timestamp.IsZero() {
		t.Error("entry must carry id and timestamp")
	}
}

func TestLogger_NilWriterDefaultsSafely(t *testing.T) {
	l := NewLoggerWithWriter(nil)
	// Must not panic.
	l.Record("ingest.accept", OutcomeAccepted, "", "", nil)
}
