// Package store implements the append-only event store for decision events
// and ingestion records. Decision event appends are hash-chained over their
// canonical JSON form so the audit trail can be verified after export.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mosesonilede-crypto/skymaintain-core/pkg/canonicalize"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/contracts"
)

var (
	ErrChainBroken = errors.New("store: hash chain is broken")
)

// genesisHead is the previous-hash value of the first chained entry.
const genesisHead = "genesis"

// ChainedEvent wraps a DecisionEvent with its position in the hash chain.
type ChainedEvent struct {
	Sequence     uint64                  `json:"sequence"`
	Event        contracts.DecisionEvent `json:"event"`
	EventHash    string                  `json:"eventHash"`
	PreviousHash string                  `json:"previousHash"`
}

// AppendHook is invoked after a decision event append commits, outside the
// store lock. Used by the optional persistence adapter.
type AppendHook func(ChainedEvent)

// EventStore holds the process-wide append-only sequences. It is constructed
// explicitly at process start and passed by handle into the recorder and
// validators; there is no package-level instance.
//
// Appends are serialized by the mutex; reads return snapshot copies so a
// concurrent append is never observed partially.
type EventStore struct {
	mu         sync.RWMutex
	decisions  []ChainedEvent
	ingestions []contracts.IngestionRecord
	sequence   uint64
	chainHead  string
	hooks      []AppendHook
}

// NewEventStore creates an empty store.
func NewEventStore() *EventStore {
	return &EventStore{chainHead: genesisHead}
}

// OnAppend registers a hook called for every committed decision event.
func (s *EventStore) OnAppend(h AppendHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, h)
}

// AppendDecision appends a decision event, extending the hash chain.
// The event is stored verbatim; the store never inspects or repairs it.
func (s *EventStore) AppendDecision(event contracts.DecisionEvent) (ChainedEvent, error) {
	s.mu.Lock()
	entry := ChainedEvent{
		Sequence:     s.sequence + 1,
		Event:        event,
		PreviousHash: s.chainHead,
	}
	hash, err := entryHash(entry)
	if err != nil {
		s.mu.Unlock()
		return ChainedEvent{}, err
	}
	entry.EventHash = hash

	s.decisions = append(s.decisions, entry)
	s.sequence = entry.Sequence
	s.chainHead = entry.EventHash
	hooks := make([]AppendHook, len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	for _, h := range hooks {
		h(entry)
	}
	return entry, nil
}

// AppendIngestion appends an accepted ingestion record.
func (s *EventStore) AppendIngestion(record contracts.IngestionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ingestions = append(s.ingestions, record)
}

// Decisions returns a snapshot of all committed decision events, in
// append order.
func (s *EventStore) Decisions() []contracts.DecisionEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]contracts.DecisionEvent, len(s.decisions))
	for i, e := range s.decisions {
		out[i] = e.Event
	}
	return out
}

// ChainedDecisions returns a snapshot of the chained entries.
func (s *EventStore) ChainedDecisions() []ChainedEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChainedEvent, len(s.decisions))
	copy(out, s.decisions)
	return out
}

// Ingestions returns a snapshot of all accepted ingestion records.
func (s *EventStore) Ingestions() []contracts.IngestionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]contracts.IngestionRecord, len(s.ingestions))
	copy(out, s.ingestions)
	return out
}

// ChainHead returns the current head hash of the decision chain.
func (s *EventStore) ChainHead() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chainHead
}

// Sequence returns the number of committed decision events.
func (s *EventStore) Sequence() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sequence
}

// VerifyChain recomputes every entry hash and link. It returns ErrChainBroken
// (wrapped with the offending position) on the first inconsistency.
func (s *EventStore) VerifyChain() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expectedPrev := genesisHead
	for i, entry := range s.decisions {
		if entry.PreviousHash != expectedPrev {
			return fmt.Errorf("%w: entry %d has previous hash %s, expected %s",
				ErrChainBroken, i, entry.PreviousHash, expectedPrev)
		}
		computed, err := entryHash(entry)
		if err != nil {
			return fmt.Errorf("%w: entry %d hash computation failed: %w", ErrChainBroken, i, err)
		}
		if computed != entry.EventHash {
			return fmt.Errorf("%w: entry %d hash mismatch (computed %s, stored %s)",
				ErrChainBroken, i, computed, entry.EventHash)
		}
		expectedPrev = entry.EventHash
	}
	return nil
}

// restore re-adds a previously persisted entry without recomputing its hash.
// Only the persistence adapter calls this, before the store is shared.
func (s *EventStore) restore(entry ChainedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(s.decisions, entry)
	s.sequence = entry.Sequence
	s.chainHead = entry.EventHash
}

// entryHash hashes the canonical form of the entry minus its own hash.
func entryHash(entry ChainedEvent) (string, error) {
	hashable := struct {
		Sequence     uint64                  `json:"sequence"`
		Event        contracts.DecisionEvent `json:"event"`
		PreviousHash string                  `json:"previousHash"`
	}{entry.Sequence, entry.Event, entry.PreviousHash}

	hash, err := canonicalize.Hash(hashable)
	if err != nil {
		return "", fmt.Errorf("store: failed to hash entry: %w", err)
	}
	return hash, nil
}
