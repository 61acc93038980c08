package contracts

import "time"

// Disposition is the human's chosen response to an advisory.
type Disposition string

const (
	DispositionNoAction  Disposition = "NO_ACTION"
	DispositionMonitor   Disposition = "MONITOR"
	DispositionSchedule  Disposition = "SCHEDULE"
	DispositionComply    Disposition = "COMPLY"
	DispositionWorkOrder Disposition = "WORK_ORDER"
)

// Valid reports whether d is a known disposition.
func (d Disposition) Valid() bool {
	switch d {
	case DispositionNoAction, DispositionMonitor, DispositionSchedule,
		DispositionComply, DispositionWorkOrder:
		return true
	}
	return false
}

// UserAction is the explicit intent the user expressed when dispositioning.
type UserAction string

const (
	ActionAcknowledge     UserAction = "acknowledge"
	ActionRecordDecision  UserAction = "record_decision"
	ActionCreateWorkorder UserAction = "create_workorder"
)

// Valid reports whether a is a known user action.
func (a UserAction) Valid() bool {
	switch a {
	case ActionAcknowledge, ActionRecordDecision, ActionCreateWorkorder:
		return true
	}
	return false
}

// DecisionAcknowledgement proves a named human reviewed the advisory.
// Both fields are required and non-empty.
type DecisionAcknowledgement struct {
	AcknowledgedBy string `json:"acknowledgedBy"`
	AcknowledgedAt string `json:"acknowledgedAt"`
}

// RuleOutcome is the rule engine's binary verdict on authority.
type RuleOutcome string

const (
	OutcomeAuthoritativeRequired RuleOutcome = "AUTHORITATIVE_REQUIRED"
	OutcomeAdvisoryOnly          RuleOutcome = "ADVISORY_ONLY"
)

// Rule hit identifiers, in evaluation order. NoRuleHit is the sentinel
// emitted when no threshold or mandate fired.
const (
	HitMandatedInterval = "MANDATED_INTERVAL_REACHED"
	HitHardTimeHours    = "HARD_TIME_HOURS_THRESHOLD_REACHED"
	HitHardTimeCycles   = "HARD_TIME_CYCLES_THRESHOLD_REACHED"
	NoRuleHit           = "NO_RULE_HIT"
)

// RuleEngineInput carries the operational facts needed to decide authority.
// Absent numeric fields mean "this rule class is not evaluated", never zero.
type RuleEngineInput struct {
	AircraftID              string   `json:"aircraftId"`
	Component               string   `json:"component,omitempty"`
	System                  string   `json:"system,omitempty"`
	RemainingHours          *float64 `json:"remainingHours,omitempty"`
	RemainingCycles         *float64 `json:"remainingCycles,omitempty"`
	HardTimeThresholdHours  *float64 `json:"hardTimeThresholdHours,omitempty"`
	HardTimeThresholdCycles *float64 `json:"hardTimeThresholdCycles,omitempty"`
	MandatedIntervalHit     bool     `json:"mandatedIntervalHit,omitempty"`
}

// RuleEngineDecision is the engine's verdict. Outcome and RuleHits are a
// deterministic function of the input; EvaluatedAt comes from the clock.
type RuleEngineDecision struct {
	Outcome     RuleOutcome `json:"outcome"`
	Reason      string      `json:"reason"`
	RuleHits    []string    `json:"ruleHits"`
	EvaluatedAt time.Time   `json:"evaluatedAt"`
}

// DecisionEventRequest is one human disposition of one advisory, submitted
// to the recorder for validation and commit. Advisory is left untyped here:
// the recorder must not trust its shape until the advisory validator has
// produced a typed value from it.
type DecisionEventRequest struct {
	Advisory             any                     `json:"advisory"`
	AuthoritativeSources []string                `json:"authoritativeSources"`
	Acknowledgement      DecisionAcknowledgement `json:"acknowledgement"`
	Disposition          Disposition             `json:"disposition"`
	OverrideRationale    string                  `json:"overrideRationale,omitempty"`
	RuleInputs           RuleEngineInput         `json:"ruleInputs"`
	UserAction           UserAction              `json:"userAction"`
	CanCreateWorkorder   bool                    `json:"canCreateWorkorder"`
}

// DecisionEvent is the durable audit record of one disposition. It embeds
// exactly one advisory snapshot and one rule-decision snapshot, frozen at
// creation time. Re-evaluating the same advisory later produces a new,
// independent event, never a mutation of an old one.
type DecisionEvent struct {
	ID                   string                  `json:"id"`
	CreatedAt            time.Time               `json:"createdAt"`
	Advisory             PolicyStampedAdvisory   `json:"advisory"`
	AuthoritativeSources []string                `json:"authoritativeSources"`
	Acknowledgement      DecisionAcknowledgement `json:"acknowledgement"`
	Disposition          Disposition             `json:"disposition"`
	OverrideRationale    string                  `json:"overrideRationale,omitempty"`
	RuleDecision         RuleEngineDecision      `json:"ruleDecision"`
	UserAction           UserAction              `json:"userAction"`
	CanCreateWorkorder   bool                    `json:"canCreateWorkorder"`
}
