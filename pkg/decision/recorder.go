// Package decision implements the decision event recorder: the orchestrator
// that turns one human disposition of one advisory into an immutable audit
// record, or rejects it with a machine-distinguishable reason.
//
// The ordered checks encode the compliance invariants of the gate. Check
// order is part of the contract: a request failing check N always fails with
// the same rejection kind on identical input, and nothing is committed until
// every check has passed.
package decision

import (
	"time"

	"github.com/google/uuid"

	"github.com/mosesonilede-crypto/skymaintain-core/pkg/advisory"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/audit"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/contracts"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/rules"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/store"
)

// Recorder validates and commits decision events.
type Recorder struct {
	store  *store.EventStore
	engine *rules.Engine
	audit  audit.Logger
	clock  func() time.Time
}

// NewRecorder wires a recorder to its store. The store is a handle owned by
// the caller; the recorder never constructs one.
func NewRecorder(s *store.EventStore, engine *rules.Engine, auditLog audit.Logger) *Recorder {
	if auditLog == nil {
		auditLog = audit.Nop()
	}
	return &Recorder{store: s, engine: engine, audit: auditLog, clock: time.Now}
}

// WithClock overrides the clock for deterministic testing.
func (r *Recorder) WithClock(clock func() time.Time) *Recorder {
	r.clock = clock
	return r
}

// RecordDecision runs the ordered invariant checks and, only if every one
// holds, appends an immutable DecisionEvent embedding the validated advisory
// and the rule engine's verdict, both verbatim.
func (r *Recorder) RecordDecision(req contracts.DecisionEventRequest) (*contracts.DecisionEvent, error) {
	event, err := r.validate(req)
	if err != nil {
		detail := err.Error()
		if rej, ok := contracts.AsRejection(err); ok {
			detail = rej.Detail
		}
		r.audit.Record("decision.record", audit.OutcomeRejected,
			req.Acknowledgement.AcknowledgedBy, detail, nil)
		return nil, err
	}

	if _, err := r.store.AppendDecision(*event); err != nil {
		return nil, err
	}
	r.audit.Record("decision.record", audit.OutcomeCommitted,
		event.Acknowledgement.AcknowledgedBy, "event "+event.ID,
		map[string]any{
			"disposition": event.Disposition,
			"outcome":     event.RuleDecision.Outcome,
		})
	return event, nil
}

// validate runs checks 1-6 and constructs (but does not commit) the event.
// Pure: the only state mutation in this package is the append in
// RecordDecision.
func (r *Recorder) validate(req contracts.DecisionEventRequest) (*contracts.DecisionEvent, error) {
	// 1. Structural validation of the request itself.
	if !req.Disposition.Valid() {
		return nil, contracts.Reject(contracts.KindMalformedRequest,
			"unknown disposition %q", req.Disposition)
	}
	if !req.UserAction.Valid() {
		return nil, contracts.Reject(contracts.KindMalformedRequest,
			"unknown user action %q", req.UserAction)
	}
	if len(req.AuthoritativeSources) == 0 {
		return nil, contracts.Reject(contracts.KindMalformedRequest,
			"at least one authoritative source must be cited")
	}
	for i, src := range req.AuthoritativeSources {
		if src == "" {
			return nil, contracts.Reject(contracts.KindMalformedRequest,
				"authoritativeSources[%d] is empty", i)
		}
	}

	// 2. The advisory must be policy-stamped before any decision logic runs.
	adv, err := advisory.AssertPolicyStamped(req.Advisory)
	if err != nil {
		return nil, err
	}

	// 3. A named human must have acknowledged the advisory.
	if req.Acknowledgement.AcknowledgedBy == "" || req.Acknowledgement.AcknowledgedAt == "" {
		return nil, contracts.Reject(contracts.KindAcknowledgementRequired,
			"acknowledgedBy and acknowledgedAt are both required")
	}

	// 4. Any disposition other than complying with the advisory overrides AI
	// guidance and must be justified in writing. COMPLY needs no rationale.
	if req.Disposition != contracts.DispositionComply && req.OverrideRationale == "" {
		return nil, contracts.Reject(contracts.KindOverrideRationaleRequired,
			"disposition %s overrides the advisory and requires a written rationale", req.Disposition)
	}

	// 5. Work orders have real-world side effects, so they are double-gated:
	// the capability flag and the explicit action intent must both hold.
	if req.Disposition == contracts.DispositionWorkOrder {
		if !req.CanCreateWorkorder || req.UserAction != contracts.ActionCreateWorkorder {
			return nil, contracts.Reject(contracts.KindWorkorderNotAuthorized,
				"work order creation requires the canCreateWorkorder capability and the create_workorder action")
		}
	}

	// 6. Rule primacy: once an authoritative threshold is reached, no
	// disposition except compliance is permitted, regardless of rationale.
	ruleDecision := r.engine.Evaluate(req.RuleInputs)
	if ruleDecision.Outcome == contracts.OutcomeAuthoritativeRequired &&
		req.Disposition != contracts.DispositionComply {
		return nil, contracts.Reject(contracts.KindRulePrimacyViolation,
			"authoritative rules fired (%v); only COMPLY is permitted", ruleDecision.RuleHits)
	}

	return &contracts.DecisionEvent{
		ID:                   uuid.New().String(),
		CreatedAt:            r.clock(),
		Advisory:             *adv,
		AuthoritativeSources: req.AuthoritativeSources,
		Acknowledgement:      req.Acknowledgement,
		Disposition:          req.Disposition,
		OverrideRationale:    req.OverrideRationale,
		RuleDecision:         ruleDecision,
		UserAction:           req.UserAction,
		CanCreateWorkorder:   req.CanCreateWorkorder,
	}, nil
}

// ListEvents returns a snapshot of all committed decision events.
func (r *Recorder) ListEvents() []contracts.DecisionEvent {
	return r.store.Decisions()
}
