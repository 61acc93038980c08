package ingestion

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mosesonilede-crypto/skymaintain-core/pkg/audit"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/contracts"
)

// InboundRecord is the raw, untrusted shape submitted by an external system.
type InboundRecord struct {
	Source     string         `json:"source"`
	AircraftID string         `json:"aircraftId"`
	TailNumber string         `json:"tailNumber,omitempty"`
	Timestamp  string         `json:"timestamp"`
	Payload    map[string]any `json:"payload"`
}

// Store is the subset of the event store the validator appends to.
type Store interface {
	AppendIngestion(contracts.IngestionRecord)
}

// Validator checks inbound records against their source contract and the
// ingestion boundary, and appends accepted facts to the store.
type Validator struct {
	registry *Registry
	store    Store
	audit    audit.Logger
	clock    func() time.Time
}

// NewValidator creates a validator over the given registry and store.
func NewValidator(registry *Registry, store Store, auditLog audit.Logger) *Validator {
	if auditLog == nil {
		auditLog = audit.Nop()
	}
	return &Validator{registry: registry, store: store, audit: auditLog, clock: time.Now}
}

// WithClock overrides the clock for deterministic testing.
func (v *Validator) WithClock(clock func() time.Time) *Validator {
	v.clock = clock
	return v
}

// Validate checks record and, on acceptance, appends the resulting
// IngestionRecord to the store and returns it. Ingestion is a side-effect
// free recording of fact: no recommendation or advisory is ever derived.
//
// The boundary check runs after schema validation but outranks it in the
// returned rejection: smuggling a recommendation or work order is a policy
// breach, not a data-quality issue, and is reported as such even when the
// record is also malformed.
func (v *Validator) Validate(record InboundRecord) (*contracts.IngestionRecord, error) {
	accepted, err := v.validate(record)
	if err != nil {
		detail := err.Error()
		if rej, ok := contracts.AsRejection(err); ok {
			detail = rej.Detail
		}
		v.audit.Record("ingestion.validate", audit.OutcomeRejected, "", detail,
			map[string]any{"source": record.Source})
		return nil, err
	}

	v.store.AppendIngestion(*accepted)
	v.audit.Record("ingestion.validate", audit.OutcomeAccepted, "", "record "+accepted.ID,
		map[string]any{"source": accepted.Source, "aircraftId": accepted.AircraftID})
	return accepted, nil
}

func (v *Validator) validate(record InboundRecord) (*contracts.IngestionRecord, error) {
	contract, ok := v.registry.Lookup(record.Source)
	if !ok {
		return nil, contracts.Reject(contracts.KindUnknownSource,
			"source %q is not in the ingestion contract registry", record.Source)
	}

	schemaErr := v.checkSchema(contract, record)

	// Boundary check: unconditional, regardless of schema validity.
	for _, key := range []string{contracts.BoundaryKeyRecommendation, contracts.BoundaryKeyWorkOrder} {
		if _, present := record.Payload[key]; present {
			return nil, contracts.Reject(contracts.KindBoundaryViolation,
				"payload key %q crosses the ingestion boundary: operational data must never carry recommendations or work orders", key)
		}
	}
	if schemaErr != nil {
		return nil, schemaErr
	}

	// The timestamp invariant holds for every stored record, whether or not
	// the contract lists it as a required identifier. A record that cannot
	// be placed in time is not a usable fact.
	ts, err := time.Parse(time.RFC3339, record.Timestamp)
	if err != nil {
		return nil, contracts.Reject(contracts.KindSchemaViolation,
			"timestamp %q is not an ISO-8601 timestamp: %v", record.Timestamp, err)
	}
	return &contracts.IngestionRecord{
		ID:         uuid.New().String(),
		Source:     record.Source,
		AircraftID: record.AircraftID,
		TailNumber: record.TailNumber,
		Timestamp:  ts,
		Payload:    record.Payload,
		ReceivedAt: v.clock(),
	}, nil
}

func (v *Validator) checkSchema(contract *Contract, record InboundRecord) error {
	for _, id := range contract.RequiredIdentifiers {
		switch id {
		case "aircraftId":
			if record.AircraftID == "" {
				return contracts.Reject(contracts.KindSchemaViolation,
					"required identifier %q is missing or empty", id)
			}
		case "timestamp":
			if record.Timestamp == "" {
				return contracts.Reject(contracts.KindSchemaViolation,
					"required identifier %q is missing or empty", id)
			}
			if _, err := time.Parse(time.RFC3339, record.Timestamp); err != nil {
				return contracts.Reject(contracts.KindSchemaViolation,
					"identifier %q is not an ISO-8601 timestamp: %v", id, err)
			}
		case "tailNumber":
			if record.TailNumber == "" {
				return contracts.Reject(contracts.KindSchemaViolation,
					"required identifier %q is missing or empty", id)
			}
		default:
			if _, present := record.Payload[id]; !present {
				return contracts.Reject(contracts.KindSchemaViolation,
					"required identifier %q is missing from payload", id)
			}
		}
	}

	for _, spec := range contract.Fields {
		value, present := record.Payload[spec.Field]
		if !present {
			if spec.Required {
				return contracts.Reject(contracts.KindSchemaViolation,
					"required field %q is missing", spec.Field)
			}
			continue
		}
		if err := checkFieldType(spec, value); err != nil {
			return contracts.Reject(contracts.KindSchemaViolation,
				"field %q: %v", spec.Field, err)
		}
		if err := contract.checkRule(spec.Field, value); err != nil {
			return contracts.Reject(contracts.KindSchemaViolation,
				"field %q: %v", spec.Field, err)
		}
	}
	return nil
}

func checkFieldType(spec FieldSpec, value any) error {
	switch spec.Type {
	case FieldString:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		if s == "" {
			return fmt.Errorf("string must be non-empty")
		}
	case FieldNumber:
		switch value.(type) {
		case float64, float32, int, int64:
		default:
			return fmt.Errorf("expected number, got %T", value)
		}
	case FieldBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case FieldTimestamp:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected ISO-8601 timestamp string, got %T", value)
		}
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return fmt.Errorf("not an ISO-8601 timestamp: %v", err)
		}
	default:
		return fmt.Errorf("contract declares unknown field type %q", spec.Type)
	}
	return nil
}
