package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mosesonilede-crypto/skymaintain-core/pkg/contracts"

	_ "modernc.org/sqlite"
)

// SQLiteEventLog is the optional persistence adapter for the decision event
// chain. The in-memory EventStore stays the source of truth for reads; the
// log is a write-behind copy used to rehydrate the chain at process start.
type SQLiteEventLog struct {
	db *sql.DB
}

// OpenSQLiteEventLog opens (or creates) the event log at path.
func OpenSQLiteEventLog(path string) (*SQLiteEventLog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite log: %w", err)
	}
	return NewSQLiteEventLog(db)
}

// NewSQLiteEventLog wraps an existing database handle and runs migrations.
func NewSQLiteEventLog(db *sql.DB) (*SQLiteEventLog, error) {
	l := &SQLiteEventLog{db: db}
	if err := l.migrate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *SQLiteEventLog) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS decision_events (
		sequence INTEGER PRIMARY KEY,
		event_id TEXT NOT NULL UNIQUE,
		event JSON NOT NULL,
		event_hash TEXT NOT NULL,
		previous_hash TEXT NOT NULL
	);`
	_, err := l.db.ExecContext(context.Background(), query)
	return err
}

// Persist writes one chained entry. Intended as an EventStore append hook.
func (l *SQLiteEventLog) Persist(ctx context.Context, entry ChainedEvent) error {
	eventJSON, err := json.Marshal(entry.Event)
	if err != nil {
		return fmt.Errorf("store: marshal event for persistence: %w", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO decision_events (sequence, event_id, event, event_hash, previous_hash)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.Sequence, entry.Event.ID, string(eventJSON), entry.EventHash, entry.PreviousHash)
	if err != nil {
		return fmt.Errorf("store: persist event %s: %w", entry.Event.ID, err)
	}
	return nil
}

// LoadInto rehydrates a freshly constructed store from the log, then
// verifies the restored chain. It must run before the store is shared.
func (l *SQLiteEventLog) LoadInto(ctx context.Context, s *EventStore) error {
	rows, err := l.db.QueryContext(ctx,
		`SELECT sequence, event, event_hash, previous_hash
		 FROM decision_events ORDER BY sequence ASC`)
	if err != nil {
		return fmt.Errorf("store: load event log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var entry ChainedEvent
		var eventJSON string
		if err := rows.Scan(&entry.Sequence, &eventJSON, &entry.EventHash, &entry.PreviousHash); err != nil {
			return fmt.Errorf("store: scan event log row: %w", err)
		}
		var event contracts.DecisionEvent
		if err := json.Unmarshal([]byte(eventJSON), &event); err != nil {
			return fmt.Errorf("store: decode persisted event at sequence %d: %w", entry.Sequence, err)
		}
		entry.Event = event
		s.restore(entry)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("store: iterate event log: %w", err)
	}
	return s.VerifyChain()
}

// Close closes the underlying database handle.
func (l *SQLiteEventLog) Close() error {
	return l.db.Close()
}
