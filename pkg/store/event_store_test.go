package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mosesonilede-crypto/skymaintain-core/pkg/contracts"
)

func testEvent(id string) contracts.DecisionEvent {
	score := 0.9
	return contracts.DecisionEvent{
		ID:        id,
		CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Advisory: contracts.PolicyStampedAdvisory{
			Label:                "ADVISORY_ONLY",
			AdvisoryID:           "adv-" + id,
			Title:                "Hydraulic pump trend",
			Summary:              "Pressure decay trend on pump B",
			ConfidenceDescriptor: contracts.ConfidenceHigh,
			ConfidenceScore:      &score,
			SourceDataReferences: []contracts.SourceDataReference{
				{Source: "COMPONENT_HEALTH", ReferenceID: "ch-1", CapturedAt: "2026-03-14T08:00:00Z"},
			},
			NoAutomaticExecutionRights: true,
			AircraftID:                 "AC-102",
			GeneratedAt:                time.Date(2026, 3, 14, 8, 15, 0, 0, time.UTC),
		},
		AuthoritativeSources: []string{"AMM 29-10-00"},
		Acknowledgement: contracts.DecisionAcknowledgement{
			AcknowledgedBy: "tech-441",
			AcknowledgedAt: "2026-03-14T09:29:00Z",
		},
		Disposition:       contracts.DispositionMonitor,
		OverrideRationale: "trend within dispatch limits",
		RuleDecision: contracts.RuleEngineDecision{
			Outcome:     contracts.OutcomeAdvisoryOnly,
			Reason:      "no authoritative rule fired",
			RuleHits:    []string{contracts.NoRuleHit},
			EvaluatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		},
		UserAction: contracts.ActionRecordDecision,
	}
}

func TestEventStore_AppendDecision(t *testing.T) {
	s := NewEventStore()

	entry, err := s.AppendDecision(testEvent("ev-1"))
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if entry.Sequence != 1 {
		t.Errorf("expected sequence 1, got %d", entry.Sequence)
	}
	if entry.PreviousHash != "genesis" {
		t.Errorf("expected genesis previous hash, got %s", entry.PreviousHash)
	}
	if s.ChainHead() != entry.EventHash {
		t.Errorf("expected chain head %s, got %s", entry.EventHash, s.ChainHead())
	}
	if s.Sequence() != 1 {
		t.Errorf("expected store sequence 1, got %d", s.Sequence())
	}
}

func TestEventStore_HashChaining(t *testing.T) {
	s := NewEventStore()

	e1, _ := s.AppendDecision(testEvent("ev-1"))
	e2, _ := s.AppendDecision(testEvent("ev-2"))
	e3, _ := s.AppendDecision(testEvent("ev-3"))

	if e2.PreviousHash != e1.EventHash {
		t.Error("entry 2 should link to entry 1")
	}
	if e3.PreviousHash != e2.EventHash {
		t.Error("entry 3 should link to entry 2")
	}
	if err := s.VerifyChain(); err != nil {
		t.Errorf("expected valid chain, got: %v", err)
	}
}

func TestEventStore_VerifyChainDetectsTampering(t *testing.T) {
	s := NewEventStore()
	_, _ = s.AppendDecision(testEvent("ev-1"))
	_, _ = s.AppendDecision(testEvent("ev-2"))

	// Reach into the slice to simulate tampering with a committed record.
	s.decisions[0].Event.Disposition = contracts.DispositionComply

	err := s.VerifyChain()
	if !errors.Is(err, ErrChainBroken) {
		t.Errorf("expected ErrChainBroken, got %v", err)
	}
}

func TestEventStore_SnapshotIsolation(t *testing.T) {
	s := NewEventStore()
	_, _ = s.AppendDecision(testEvent("ev-1"))

	snapshot := s.Decisions()
	snapshot[0].Disposition = contracts.DispositionWorkOrder

	if s.Decisions()[0].Disposition != contracts.DispositionMonitor {
		t.Error("mutating a snapshot must not affect the store")
	}
}

func TestEventStore_ConcurrentAppends(t *testing.T) {
	s := NewEventStore()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := s.AppendDecision(testEvent("ev")); err != nil {
				t.Errorf("append failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if s.Sequence() != n {
		t.Errorf("expected %d events, got %d", n, s.Sequence())
	}
	if err := s.VerifyChain(); err != nil {
		t.Errorf("chain broken after concurrent appends: %v", err)
	}
}

func TestEventStore_IngestionSequenceIndependent(t *testing.T) {
	s := NewEventStore()
	s.AppendIngestion(contracts.IngestionRecord{
		ID:         "ing-1",
		Source:     "ACARS",
		AircraftID: "AC-102",
		Timestamp:  time.Now().UTC(),
		Payload:    map[string]any{"egtMargin": 12.5},
	})

	if len(s.Ingestions()) != 1 {
		t.Fatalf("expected 1 ingestion record, got %d", len(s.Ingestions()))
	}
	if s.Sequence() != 0 {
		t.Error("ingestion records must not advance the decision chain")
	}
}

func TestEventStore_AppendHookReceivesEntry(t *testing.T) {
	s := NewEventStore()
	var got []ChainedEvent
	s.OnAppend(func(e ChainedEvent) { got = append(got, e) })

	entry, _ := s.AppendDecision(testEvent("ev-1"))

	if len(got) != 1 || got[0].EventHash != entry.EventHash {
		t.Errorf("hook did not receive the committed entry")
	}
}
