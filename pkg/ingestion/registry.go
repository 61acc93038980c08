// Package ingestion validates inbound operational data against per-source
// contracts and enforces the ingestion boundary: raw operational data must
// never carry recommendations or work orders. Those only originate from the
// decision layer.
package ingestion

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// FieldType declares how a contract field must parse.
type FieldType string

const (
	FieldString    FieldType = "string"
	FieldNumber    FieldType = "number"
	FieldBoolean   FieldType = "boolean"
	FieldTimestamp FieldType = "timestamp"
)

// FieldSpec describes one payload field of a source contract. ValidationRule,
// when set, is a CEL expression over the variable `value` that must evaluate
// to true for the field to be accepted.
type FieldSpec struct {
	Field          string    `json:"field" yaml:"field"`
	Type           FieldType `json:"type" yaml:"type"`
	Units          string    `json:"units,omitempty" yaml:"units,omitempty"`
	Required       bool      `json:"required" yaml:"required"`
	ValidationRule string    `json:"validationRule,omitempty" yaml:"validationRule,omitempty"`
}

// Contract is the immutable acceptance contract for one source type.
// Contracts are reference data: fixed at registry construction, never
// created, mutated, or destroyed at runtime.
type Contract struct {
	Source              string      `json:"source" yaml:"source"`
	Description         string      `json:"description" yaml:"description"`
	RequiredIdentifiers []string    `json:"requiredIdentifiers" yaml:"requiredIdentifiers"`
	Fields              []FieldSpec `json:"fields" yaml:"fields"`

	programs map[string]cel.Program
}

// Registry is the static catalog of accepted source contracts.
type Registry struct {
	version   string
	order     []string
	contracts map[string]*Contract
}

// NewRegistry compiles the given contracts into a registry. Every
// ValidationRule is compiled once here; a rule that does not compile is a
// configuration error, not a runtime rejection.
func NewRegistry(version string, contracts []Contract) (*Registry, error) {
	// Cross-type comparisons let integer-typed payload values satisfy rules
	// written with double literals.
	env, err := cel.NewEnv(
		cel.Variable("value", cel.DynType),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("ingestion: create rule environment: %w", err)
	}

	r := &Registry{
		version:   version,
		contracts: make(map[string]*Contract, len(contracts)),
	}
	for i := range contracts {
		c := contracts[i]
		if c.Source == "" {
			return nil, fmt.Errorf("ingestion: contract %d has no source name", i)
		}
		if _, dup := r.contracts[c.Source]; dup {
			return nil, fmt.Errorf("ingestion: duplicate contract for source %q", c.Source)
		}
		c.programs = make(map[string]cel.Program)
		for _, spec := range c.Fields {
			if spec.ValidationRule == "" {
				continue
			}
			ast, issues := env.Compile(spec.ValidationRule)
			if issues != nil && issues.Err() != nil {
				return nil, fmt.Errorf("ingestion: contract %s field %s: rule compile failed: %w",
					c.Source, spec.Field, issues.Err())
			}
			prg, err := env.Program(ast)
			if err != nil {
				return nil, fmt.Errorf("ingestion: contract %s field %s: rule program failed: %w",
					c.Source, spec.Field, err)
			}
			c.programs[spec.Field] = prg
		}
		r.contracts[c.Source] = &c
		r.order = append(r.order, c.Source)
	}
	return r, nil
}

// DefaultRegistry returns the built-in catalog of the six accepted sources.
func DefaultRegistry() *Registry {
	r, err := NewRegistry("1.0.0", defaultContracts())
	if err != nil {
		// Built-in contracts are covered by tests; a compile failure here
		// is a programming error.
		panic(err)
	}
	return r
}

// Version returns the contract bundle version.
func (r *Registry) Version() string { return r.version }

// Sources returns the accepted source names in catalog order.
func (r *Registry) Sources() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Lookup returns the contract for a source, or false if unknown.
// The returned contract is shared reference data and must not be modified.
func (r *Registry) Lookup(source string) (*Contract, bool) {
	c, ok := r.contracts[source]
	return c, ok
}

// checkRule runs the compiled CEL rule for a field against its value.
// Returns nil when no rule is configured.
func (c *Contract) checkRule(field string, value any) error {
	prg, ok := c.programs[field]
	if !ok {
		return nil
	}
	out, _, err := prg.Eval(map[string]any{"value": value})
	if err != nil {
		return fmt.Errorf("rule evaluation failed: %w", err)
	}
	if out != types.True {
		return fmt.Errorf("value %v violates rule %q", value, ruleText(c, field))
	}
	return nil
}

func ruleText(c *Contract, field string) string {
	for _, spec := range c.Fields {
		if spec.Field == field {
			return spec.ValidationRule
		}
	}
	return ""
}

func defaultContracts() []Contract {
	return []Contract{
		{
			Source:              "ACARS",
			Description:         "In-flight ACARS downlink messages and engine condition reports.",
			RequiredIdentifiers: []string{"aircraftId", "timestamp"},
			Fields: []FieldSpec{
				{Field: "messageType", Type: FieldString, Required: true},
				{Field: "flightPhase", Type: FieldString, Required: false},
				{Field: "egtMargin", Type: FieldNumber, Units: "degC", Required: false,
					ValidationRule: "value >= -100.0 && value <= 300.0"},
			},
		},
		{
			Source:              "FLIGHT_DATA_LOG",
			Description:         "Post-flight quick access recorder parameter summaries.",
			RequiredIdentifiers: []string{"aircraftId", "timestamp"},
			Fields: []FieldSpec{
				{Field: "flightHours", Type: FieldNumber, Units: "h", Required: true,
					ValidationRule: "value >= 0.0"},
				{Field: "flightCycles", Type: FieldNumber, Units: "cycles", Required: true,
					ValidationRule: "value >= 0.0"},
				{Field: "exceedances", Type: FieldNumber, Required: false,
					ValidationRule: "value >= 0.0"},
			},
		},
		{
			Source:              "MAINTENANCE_LOG",
			Description:         "Technical log entries recorded by line maintenance.",
			RequiredIdentifiers: []string{"aircraftId", "timestamp"},
			Fields: []FieldSpec{
				{Field: "ataChapter", Type: FieldString, Required: true,
					ValidationRule: `value.matches("^[0-9]{2}(-[0-9]{2})*$")`},
				{Field: "description", Type: FieldString, Required: true},
				{Field: "deferred", Type: FieldBoolean, Required: false},
			},
		},
		{
			Source:              "COMPONENT_HEALTH",
			Description:         "Component health monitoring snapshots from on-wing sensors.",
			RequiredIdentifiers: []string{"aircraftId", "timestamp"},
			Fields: []FieldSpec{
				{Field: "componentId", Type: FieldString, Required: true},
				{Field: "healthIndex", Type: FieldNumber, Required: true,
					ValidationRule: "value >= 0.0 && value <= 1.0"},
				{Field: "sampledAt", Type: FieldTimestamp, Required: false},
			},
		},
		{
			Source:              "RELIABILITY_REPORT",
			Description:         "Fleet reliability statistics aggregated per reporting period.",
			RequiredIdentifiers: []string{"aircraftId", "timestamp"},
			Fields: []FieldSpec{
				{Field: "reportPeriod", Type: FieldString, Required: true},
				{Field: "removalRate", Type: FieldNumber, Units: "per 1000 FH", Required: false,
					ValidationRule: "value >= 0.0"},
				{Field: "pirepRate", Type: FieldNumber, Units: "per 1000 FH", Required: false,
					ValidationRule: "value >= 0.0"},
			},
		},
		{
			Source:              "OEM_BULLETIN",
			Description:         "Manufacturer service bulletin applicability notices.",
			RequiredIdentifiers: []string{"aircraftId", "timestamp"},
			Fields: []FieldSpec{
				{Field: "bulletinId", Type: FieldString, Required: true},
				{Field: "revision", Type: FieldString, Required: false},
				{Field: "effectivity", Type: FieldString, Required: false},
			},
		},
	}
}
