package advisory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosesonilede-crypto/skymaintain-core/pkg/contracts"
)

// validPayload returns a minimal conforming advisory as generic JSON,
// the shape the recorder receives from the transport layer.
func validPayload() map[string]any {
	return map[string]any{
		"label":                "ADVISORY_ONLY",
		"advisoryId":           "adv-7781",
		"title":                "EGT margin trend on engine 2",
		"summary":              "Exhaust gas temperature margin declining over last 30 cycles.",
		"confidenceDescriptor": "HIGH",
		"confidenceScore":      0.87,
		"sourceDataReferences": []any{
			map[string]any{
				"source":      "FLIGHT_DATA_LOG",
				"referenceId": "fdl-2231",
				"capturedAt":  "2026-03-14T08:00:00Z",
				"units":       "degC",
			},
		},
		"noAutomaticExecutionRights": true,
		"aircraftId":                 "AC-102",
		"system":                     "powerplant",
		"generatedAt":                "2026-03-14T08:15:00Z",
	}
}

func requireRejection(t *testing.T, err error, kind contracts.RejectionKind) *contracts.Rejection {
	t.Helper()
	require.Error(t, err)
	rej, ok := contracts.AsRejection(err)
	require.True(t, ok, "expected a Rejection, got %T: %v", err, err)
	assert.Equal(t, kind, rej.Kind)
	return rej
}

func TestAssertPolicyStamped_Valid(t *testing.T) {
	adv, err := AssertPolicyStamped(validPayload())
	require.NoError(t, err)

	assert.Equal(t, "adv-7781", adv.AdvisoryID)
	assert.Equal(t, contracts.ConfidenceHigh, adv.ConfidenceDescriptor)
	assert.True(t, adv.NoAutomaticExecutionRights)
	require.NotNil(t, adv.ConfidenceScore)
	assert.InDelta(t, 0.87, *adv.ConfidenceScore, 1e-9)
	assert.Len(t, adv.SourceDataReferences, 1)
}

func TestAssertPolicyStamped_NilPayload(t *testing.T) {
	_, err := AssertPolicyStamped(nil)
	requireRejection(t, err, contracts.KindInvalidAdvisory)
}

func TestAssertPolicyStamped_WrongLabel(t *testing.T) {
	p := validPayload()
	p["label"] = "RECOMMENDATION"
	_, err := AssertPolicyStamped(p)
	requireRejection(t, err, contracts.KindInvalidAdvisory)
}

func TestAssertPolicyStamped_MissingLabel(t *testing.T) {
	p := validPayload()
	delete(p, "label")
	_, err := AssertPolicyStamped(p)
	requireRejection(t, err, contracts.KindInvalidAdvisory)
}

func TestAssertPolicyStamped_ExecutionRightsNotLiteralTrue(t *testing.T) {
	for _, v := range []any{false, "true", 1, nil} {
		p := validPayload()
		p["noAutomaticExecutionRights"] = v
		_, err := AssertPolicyStamped(p)
		requireRejection(t, err, contracts.KindInvalidAdvisory)
	}
}

func TestAssertPolicyStamped_UnknownConfidenceDescriptor(t *testing.T) {
	p := validPayload()
	p["confidenceDescriptor"] = "CERTAIN"
	_, err := AssertPolicyStamped(p)
	requireRejection(t, err, contracts.KindInvalidAdvisory)
}

func TestAssertPolicyStamped_ScoreOutOfRange(t *testing.T) {
	for _, score := range []float64{-0.01, 1.01, 42} {
		p := validPayload()
		p["confidenceScore"] = score
		_, err := AssertPolicyStamped(p)
		requireRejection(t, err, contracts.KindInvalidAdvisory)
	}
}

func TestAssertPolicyStamped_ScoreIsOptional(t *testing.T) {
	p := validPayload()
	delete(p, "confidenceScore")
	adv, err := AssertPolicyStamped(p)
	require.NoError(t, err)
	assert.Nil(t, adv.ConfidenceScore)
}

func TestAssertPolicyStamped_EmptyReferences(t *testing.T) {
	p := validPayload()
	p["sourceDataReferences"] = []any{}
	_, err := AssertPolicyStamped(p)
	requireRejection(t, err, contracts.KindInvalidAdvisory)
}

func TestAssertPolicyStamped_IncompleteReference(t *testing.T) {
	p := validPayload()
	p["sourceDataReferences"] = []any{
		map[string]any{"source": "ACARS", "capturedAt": "2026-03-14T08:00:00Z"},
	}
	_, err := AssertPolicyStamped(p)
	requireRejection(t, err, contracts.KindInvalidAdvisory)
}

func TestAssertPolicyStamped_BadTimestamp(t *testing.T) {
	p := validPayload()
	p["generatedAt"] = "last tuesday"
	_, err := AssertPolicyStamped(p)
	requireRejection(t, err, contracts.KindInvalidAdvisory)
}

func TestAssertPolicyStamped_NeverMutatesInput(t *testing.T) {
	p := validPayload()
	before, err := json.Marshal(p)
	require.NoError(t, err)

	_, err = AssertPolicyStamped(p)
	require.NoError(t, err)

	after, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}
