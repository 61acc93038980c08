// Package contracts defines the data shapes exchanged across the advisory
// compliance core: policy-stamped advisories, decision events, ingestion
// records, and the rejection taxonomy.
//
// JSON field names follow the cross-system advisory contract (camelCase);
// external producers and consumers depend on them verbatim.
package contracts

import "time"

// AdvisoryLabel is the mandatory literal every policy-stamped advisory
// must carry. Anything without it is not an advisory.
const AdvisoryLabel = "ADVISORY_ONLY"

// ConfidenceDescriptor is the qualitative confidence band attached to an
// advisory by its generator.
type ConfidenceDescriptor string

const (
	ConfidenceLow      ConfidenceDescriptor = "LOW"
	ConfidenceMedium   ConfidenceDescriptor = "MEDIUM"
	ConfidenceHigh     ConfidenceDescriptor = "HIGH"
	ConfidenceVeryHigh ConfidenceDescriptor = "VERY_HIGH"
)

// Valid reports whether d is a known descriptor.
func (d ConfidenceDescriptor) Valid() bool {
	switch d {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh, ConfidenceVeryHigh:
		return true
	}
	return false
}

// SourceDataReference cites one piece of operational data an advisory was
// derived from. Every advisory must cite at least one.
type SourceDataReference struct {
	Source      string `json:"source"`
	ReferenceID string `json:"referenceId"`
	CapturedAt  string `json:"capturedAt"`
	Units       string `json:"units,omitempty"`
}

// PolicyStampedAdvisory is the mandatory shape of any AI-origin guidance
// surfaced to a human. The two literal fields (Label, the
// NoAutomaticExecutionRights flag) are non-negotiable: an advisory missing
// or contradicting them is rejected before any decision logic runs.
//
// Advisories are produced by an external generator and validated, never
// created, by this core. Once validated they are embedded verbatim into the
// resulting DecisionEvent.
type PolicyStampedAdvisory struct {
	Label                      string                `json:"label"`
	AdvisoryID                 string                `json:"advisoryId"`
	Title                      string                `json:"title"`
	Summary                    string                `json:"summary"`
	ConfidenceDescriptor       ConfidenceDescriptor  `json:"confidenceDescriptor"`
	ConfidenceScore            *float64              `json:"confidenceScore,omitempty"`
	SourceDataReferences       []SourceDataReference `json:"sourceDataReferences"`
	NoAutomaticExecutionRights bool                  `json:"noAutomaticExecutionRights"`
	AircraftID                 string                `json:"aircraftId"`
	System                     string                `json:"system,omitempty"`
	Component                  string                `json:"component,omitempty"`
	GeneratedAt                time.Time             `json:"generatedAt"`
}
