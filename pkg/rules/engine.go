// Package rules implements the authority rule engine: the deterministic
// mapping from operational facts to an ADVISORY_ONLY or
// AUTHORITATIVE_REQUIRED verdict.
//
// Every applicable check is evaluated and every hit is collected; the engine
// never short-circuits on the first hit. The full hit list is what lets an
// auditor reconstruct exactly why authority was triggered.
package rules

import (
	"time"

	"github.com/mosesonilede-crypto/skymaintain-core/pkg/contracts"
)

// Fixed reason texts embedded in every decision.
const (
	ReasonAuthoritative = "An authoritative maintenance rule has been triggered. Compliance is mandatory and AI advisory input has no bearing on the required action."
	ReasonAdvisoryOnly  = "No authoritative rule fired. The advisory remains guidance only and the disposition is at the reviewer's discretion."
)

// Engine evaluates rule inputs. The zero value is not usable; construct
// with NewEngine.
type Engine struct {
	clock func() time.Time
}

// NewEngine creates an engine using the wall clock.
func NewEngine() *Engine {
	return &Engine{clock: time.Now}
}

// WithClock overrides the clock for deterministic testing.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// Evaluate maps operational facts to an authority verdict. Outcome and
// RuleHits are a pure function of the input; only EvaluatedAt varies.
//
// Threshold comparisons are boundary-inclusive (<=): reaching a hard-time
// threshold exactly counts as a hit. Absent optional fields disable their
// rule class entirely; absence is never treated as zero.
func (e *Engine) Evaluate(input contracts.RuleEngineInput) contracts.RuleEngineDecision {
	var hits []string

	if input.MandatedIntervalHit {
		hits = append(hits, contracts.HitMandatedInterval)
	}
	if input.RemainingHours != nil && input.HardTimeThresholdHours != nil &&
		*input.RemainingHours <= *input.HardTimeThresholdHours {
		hits = append(hits, contracts.HitHardTimeHours)
	}
	if input.RemainingCycles != nil && input.HardTimeThresholdCycles != nil &&
		*input.RemainingCycles <= *input.HardTimeThresholdCycles {
		hits = append(hits, contracts.HitHardTimeCycles)
	}

	if len(hits) > 0 {
		return contracts.RuleEngineDecision{
			Outcome:     contracts.OutcomeAuthoritativeRequired,
			Reason:      ReasonAuthoritative,
			RuleHits:    hits,
			EvaluatedAt: e.clock(),
		}
	}
	return contracts.RuleEngineDecision{
		Outcome:     contracts.OutcomeAdvisoryOnly,
		Reason:      ReasonAdvisoryOnly,
		RuleHits:    []string{contracts.NoRuleHit},
		EvaluatedAt: e.clock(),
	}
}
