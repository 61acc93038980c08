package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosesonilede-crypto/skymaintain-core/pkg/audit"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/contracts"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/rules"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/store"
)

func f(v float64) *float64 { return &v }

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
}

func newTestRecorder() (*Recorder, *store.EventStore) {
	s := store.NewEventStore()
	engine := rules.NewEngine().WithClock(fixedClock)
	r := NewRecorder(s, engine, audit.Nop()).WithClock(fixedClock)
	return r, s
}

func stampedAdvisory() map[string]any {
	return map[string]any{
		"label":                "ADVISORY_ONLY",
		"advisoryId":           "adv-7781",
		"title":                "EGT margin trend on engine 2",
		"summary":              "EGT margin declining over last 30 cycles.",
		"confidenceDescriptor": "HIGH",
		"sourceDataReferences": []any{
			map[string]any{
				"source":      "FLIGHT_DATA_LOG",
				"referenceId": "fdl-2231",
				"capturedAt":  "2026-03-14T08:00:00Z",
			},
		},
		"noAutomaticExecutionRights": true,
		"aircraftId":                 "AC-102",
		"generatedAt":                "2026-03-14T08:15:00Z",
	}
}

func validRequest() contracts.DecisionEventRequest {
	return contracts.DecisionEventRequest{
		Advisory:             stampedAdvisory(),
		AuthoritativeSources: []string{"AMM 71-00-00"},
		Acknowledgement: contracts.DecisionAcknowledgement{
			AcknowledgedBy: "tech-441",
			AcknowledgedAt: "2026-03-14T11:58:00Z",
		},
		Disposition:       contracts.DispositionMonitor,
		OverrideRationale: "trend is within dispatch limits, continue monitoring",
		RuleInputs:        contracts.RuleEngineInput{AircraftID: "AC-102"},
		UserAction:        contracts.ActionRecordDecision,
	}
}

func expectKind(t *testing.T, err error, kind contracts.RejectionKind) {
	t.Helper()
	require.Error(t, err)
	rej, ok := contracts.AsRejection(err)
	require.True(t, ok, "expected Rejection, got %T: %v", err, err)
	assert.Equal(t, kind, rej.Kind)
}

func TestRecordDecision_CommitsAdvisoryOnlyMonitor(t *testing.T) {
	r, s := newTestRecorder()

	event, err := r.RecordDecision(validRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, contracts.DispositionMonitor, event.Disposition)
	assert.Equal(t, contracts.OutcomeAdvisoryOnly, event.RuleDecision.Outcome)
	assert.Equal(t, []string{contracts.NoRuleHit}, event.RuleDecision.RuleHits)
	assert.Equal(t, "adv-7781", event.Advisory.AdvisoryID)
	require.Len(t, s.Decisions(), 1)
	assert.NoError(t, s.VerifyChain())
}

func TestRecordDecision_MalformedDisposition(t *testing.T) {
	r, s := newTestRecorder()

	req := validRequest()
	req.Disposition = "ESCALATE"
	_, err := r.RecordDecision(req)

	expectKind(t, err, contracts.KindMalformedRequest)
	assert.Empty(t, s.Decisions())
}

func TestRecordDecision_MalformedUserAction(t *testing.T) {
	r, _ := newTestRecorder()

	req := validRequest()
	req.UserAction = "approve"
	_, err := r.RecordDecision(req)

	expectKind(t, err, contracts.KindMalformedRequest)
}

func TestRecordDecision_EmptyAuthoritativeSources(t *testing.T) {
	r, _ := newTestRecorder()

	req := validRequest()
	req.AuthoritativeSources = nil
	_, err := r.RecordDecision(req)

	expectKind(t, err, contracts.KindMalformedRequest)
}

func TestRecordDecision_InvalidAdvisory(t *testing.T) {
	r, s := newTestRecorder()

	adv := stampedAdvisory()
	adv["label"] = "SUGGESTION"
	req := validRequest()
	req.Advisory = adv
	_, err := r.RecordDecision(req)

	expectKind(t, err, contracts.KindInvalidAdvisory)
	assert.Empty(t, s.Decisions())
}

func TestRecordDecision_AcknowledgementRequired(t *testing.T) {
	r, _ := newTestRecorder()

	req := validRequest()
	req.Acknowledgement.AcknowledgedBy = ""
	_, err := r.RecordDecision(req)
	expectKind(t, err, contracts.KindAcknowledgementRequired)

	req = validRequest()
	req.Acknowledgement.AcknowledgedAt = ""
	_, err = r.RecordDecision(req)
	expectKind(t, err, contracts.KindAcknowledgementRequired)
}

func TestRecordDecision_RationaleRequiredUnlessComply(t *testing.T) {
	r, _ := newTestRecorder()

	for _, d := range []contracts.Disposition{
		contracts.DispositionNoAction,
		contracts.DispositionMonitor,
		contracts.DispositionSchedule,
	} {
		req := validRequest()
		req.Disposition = d
		req.OverrideRationale = ""
		_, err := r.RecordDecision(req)
		expectKind(t, err, contracts.KindOverrideRationaleRequired)
	}
}

func TestRecordDecision_ComplyNeedsNoRationale(t *testing.T) {
	r, _ := newTestRecorder()

	req := validRequest()
	req.Disposition = contracts.DispositionComply
	req.OverrideRationale = ""
	event, err := r.RecordDecision(req)

	require.NoError(t, err)
	assert.Equal(t, contracts.DispositionComply, event.Disposition)
}

func TestRecordDecision_WorkorderDoubleGate(t *testing.T) {
	r, _ := newTestRecorder()

	// Capability missing: rejected regardless of user action.
	for _, action := range []contracts.UserAction{
		contracts.ActionAcknowledge,
		contracts.ActionRecordDecision,
		contracts.ActionCreateWorkorder,
	} {
		req := validRequest()
		req.Disposition = contracts.DispositionWorkOrder
		req.CanCreateWorkorder = false
		req.UserAction = action
		_, err := r.RecordDecision(req)
		expectKind(t, err, contracts.KindWorkorderNotAuthorized)
	}

	// Capability present but intent missing: still rejected.
	req := validRequest()
	req.Disposition = contracts.DispositionWorkOrder
	req.CanCreateWorkorder = true
	req.UserAction = contracts.ActionRecordDecision
	_, err := r.RecordDecision(req)
	expectKind(t, err, contracts.KindWorkorderNotAuthorized)

	// Both gates held: commits.
	req.UserAction = contracts.ActionCreateWorkorder
	event, err := r.RecordDecision(req)
	require.NoError(t, err)
	assert.True(t, event.CanCreateWorkorder)
}

func TestRecordDecision_RulePrimacyViolation(t *testing.T) {
	// Spec scenario: HIGH confidence advisory, remainingHours 40 against a
	// threshold of 50, disposition SCHEDULE with rationale. The hours rule
	// fires and only COMPLY is permitted.
	r, s := newTestRecorder()

	req := validRequest()
	req.Disposition = contracts.DispositionSchedule
	req.RuleInputs = contracts.RuleEngineInput{
		AircraftID:             "AC-102",
		RemainingHours:         f(40),
		HardTimeThresholdHours: f(50),
	}
	_, err := r.RecordDecision(req)

	expectKind(t, err, contracts.KindRulePrimacyViolation)
	assert.Empty(t, s.Decisions())
}

func TestRecordDecision_AuthoritativeComplyCommits(t *testing.T) {
	r, _ := newTestRecorder()

	req := validRequest()
	req.Disposition = contracts.DispositionComply
	req.OverrideRationale = ""
	req.RuleInputs = contracts.RuleEngineInput{
		AircraftID:          "AC-102",
		MandatedIntervalHit: true,
	}
	event, err := r.RecordDecision(req)

	require.NoError(t, err)
	assert.Equal(t, contracts.OutcomeAuthoritativeRequired, event.RuleDecision.Outcome)
	assert.Equal(t, []string{contracts.HitMandatedInterval}, event.RuleDecision.RuleHits)
}

func TestRecordDecision_DeterministicRejection(t *testing.T) {
	// Identical input fails at the same check with the same kind every
	// time, and never partially commits.
	r, s := newTestRecorder()

	req := validRequest()
	req.Disposition = contracts.DispositionSchedule
	req.OverrideRationale = ""
	req.RuleInputs = contracts.RuleEngineInput{
		AircraftID:          "AC-102",
		MandatedIntervalHit: true, // would also violate rule primacy, but rationale check comes first
	}

	for i := 0; i < 3; i++ {
		_, err := r.RecordDecision(req)
		expectKind(t, err, contracts.KindOverrideRationaleRequired)
	}
	assert.Empty(t, s.Decisions())
}

func TestRecordDecision_EmbedsRuleDecisionVerbatim(t *testing.T) {
	r, _ := newTestRecorder()

	req := validRequest()
	req.Disposition = contracts.DispositionComply
	req.OverrideRationale = ""
	req.RuleInputs = contracts.RuleEngineInput{
		AircraftID:              "AC-102",
		MandatedIntervalHit:     true,
		RemainingCycles:         f(10),
		HardTimeThresholdCycles: f(100),
	}
	event, err := r.RecordDecision(req)
	require.NoError(t, err)

	expected := rules.NewEngine().WithClock(fixedClock).Evaluate(req.RuleInputs)
	assert.Equal(t, expected, event.RuleDecision)
}

func TestRecordDecision_ReEvaluationCreatesNewEvent(t *testing.T) {
	r, s := newTestRecorder()

	first, err := r.RecordDecision(validRequest())
	require.NoError(t, err)
	second, err := r.RecordDecision(validRequest())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, s.Decisions(), 2)
}
