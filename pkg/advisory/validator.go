// Package advisory enforces the policy-stamp contract: nothing is presented
// to a human as AI output unless it carries the mandatory provenance,
// confidence, and non-authority metadata.
package advisory

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mosesonilede-crypto/skymaintain-core/pkg/contracts"
)

// policyStampSchema is the structural gate. The two const clauses are the
// heart of the contract: label and noAutomaticExecutionRights are literals,
// not preferences, and no other value passes.
const policyStampSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": [
		"label", "advisoryId", "title", "summary", "confidenceDescriptor",
		"sourceDataReferences", "noAutomaticExecutionRights", "aircraftId",
		"generatedAt"
	],
	"properties": {
		"label": {"const": "ADVISORY_ONLY"},
		"advisoryId": {"type": "string", "minLength": 1},
		"title": {"type": "string", "minLength": 1},
		"summary": {"type": "string", "minLength": 1},
		"confidenceDescriptor": {"enum": ["LOW", "MEDIUM", "HIGH", "VERY_HIGH"]},
		"confidenceScore": {"type": "number", "minimum": 0, "maximum": 1},
		"sourceDataReferences": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["source", "referenceId", "capturedAt"],
				"properties": {
					"source": {"type": "string", "minLength": 1},
					"referenceId": {"type": "string", "minLength": 1},
					"capturedAt": {"type": "string", "minLength": 1},
					"units": {"type": "string"}
				}
			}
		},
		"noAutomaticExecutionRights": {"const": true},
		"aircraftId": {"type": "string", "minLength": 1},
		"system": {"type": "string"},
		"component": {"type": "string"},
		"generatedAt": {"type": "string", "minLength": 1}
	}
}`

var compiledSchema = jsonschema.MustCompileString(
	"https://skymaintain.local/schemas/policy-stamped-advisory.schema.json",
	policyStampSchema,
)

// AssertPolicyStamped validates an arbitrary payload against the
// policy-stamped advisory contract and returns the typed value on success.
// The returned struct is the constructive proof that validation passed;
// decision logic only ever accepts this type, never a raw payload.
//
// Pure: no side effects, deterministic for a given payload.
func AssertPolicyStamped(payload any) (*contracts.PolicyStampedAdvisory, error) {
	if payload == nil {
		return nil, contracts.Reject(contracts.KindInvalidAdvisory, "advisory payload is missing")
	}

	// Normalize to generic JSON so the schema validator sees the same shape
	// regardless of how the payload reached us.
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, contracts.Reject(contracts.KindInvalidAdvisory, "advisory payload is not serializable: %v", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, contracts.Reject(contracts.KindInvalidAdvisory, "advisory payload is not valid JSON: %v", err)
	}

	if err := compiledSchema.Validate(generic); err != nil {
		return nil, contracts.Reject(contracts.KindInvalidAdvisory, "advisory failed policy-stamp validation: %v", schemaDetail(err))
	}

	var adv contracts.PolicyStampedAdvisory
	if err := json.Unmarshal(raw, &adv); err != nil {
		return nil, contracts.Reject(contracts.KindInvalidAdvisory, "advisory payload does not decode: %v", err)
	}

	// Re-assert the semantic constraints on the typed value. The schema gate
	// already enforced them on the raw payload; these checks guarantee the
	// typed value cannot drift from the contract if the schema ever does.
	if adv.Label != contracts.AdvisoryLabel {
		return nil, contracts.Reject(contracts.KindInvalidAdvisory, "label must be the literal %q", contracts.AdvisoryLabel)
	}
	if !adv.NoAutomaticExecutionRights {
		return nil, contracts.Reject(contracts.KindInvalidAdvisory, "noAutomaticExecutionRights must be the literal true")
	}
	if !adv.ConfidenceDescriptor.Valid() {
		return nil, contracts.Reject(contracts.KindInvalidAdvisory, "unknown confidence descriptor %q", adv.ConfidenceDescriptor)
	}
	if adv.ConfidenceScore != nil && (*adv.ConfidenceScore < 0 || *adv.ConfidenceScore > 1) {
		return nil, contracts.Reject(contracts.KindInvalidAdvisory, "confidenceScore %v is outside [0,1]", *adv.ConfidenceScore)
	}
	if len(adv.SourceDataReferences) == 0 {
		return nil, contracts.Reject(contracts.KindInvalidAdvisory, "at least one source data reference is required")
	}
	for i, ref := range adv.SourceDataReferences {
		if ref.Source == "" || ref.ReferenceID == "" || ref.CapturedAt == "" {
			return nil, contracts.Reject(contracts.KindInvalidAdvisory, "sourceDataReferences[%d] is incomplete", i)
		}
	}
	if adv.GeneratedAt.IsZero() {
		return nil, contracts.Reject(contracts.KindInvalidAdvisory, "generatedAt must be a valid timestamp")
	}

	return &adv, nil
}

// schemaDetail flattens the validator's error tree into the leaf cause,
// which names the offending field.
func schemaDetail(err error) string {
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		leaf := ve
		for len(leaf.Causes) > 0 {
			leaf = leaf.Causes[0]
		}
		if leaf.InstanceLocation != "" {
			return fmt.Sprintf("%s: %s", leaf.InstanceLocation, leaf.Message)
		}
		return leaf.Message
	}
	return err.Error()
}
