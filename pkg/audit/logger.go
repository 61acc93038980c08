// Package audit writes a JSON-line trail of every gate interaction:
// ingestion accepts and rejects, decision commits and rejections. This is
// operational logging about the gate itself; the authoritative decision
// record lives in the event store.
package audit

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Outcome categorizes a gate interaction.
type Outcome string

const (
	OutcomeAccepted  Outcome = "ACCEPTED"
	OutcomeRejected  Outcome = "REJECTED"
	OutcomeCommitted Outcome = "COMMITTED"
)

// Entry is one structured audit line.
type Entry struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	Outcome   Outcome        `json:"outcome"`
	Actor     string         `json:"actor,omitempty"`
	Detail    string         `json:"detail,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Logger records gate interactions.
type Logger interface {
	Record(action string, outcome Outcome, actor, detail string, metadata map[string]any)
}

type logger struct {
	mu     sync.Mutex
	writer io.Writer
	clock  func() time.Time
}

// NewLogger creates a Logger writing to os.Stdout.
func NewLogger() Logger {
	return NewLoggerWithWriter(os.Stdout)
}

// NewLoggerWithWriter creates a Logger writing to w, for testing and
// custom sinks.
func NewLoggerWithWriter(w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	return &logger{writer: w, clock: time.Now}
}

func (l *logger) Record(action string, outcome Outcome, actor, detail string, metadata map[string]any) {
	entry := Entry{
		ID:        uuid.New().String(),
		Action:    action,
		Outcome:   outcome,
		Actor:     actor,
		Detail:    detail,
		Timestamp: l.clock(),
		Metadata:  metadata,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	line, err := json.Marshal(entry)
	if err != nil {
		return
	}
	// Prefixed for easy filtering alongside application logs.
	_, _ = l.writer.Write(append([]byte("AUDIT: "), append(line, '\n')...))
}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Record(string, Outcome, string, string, map[string]any) {}
