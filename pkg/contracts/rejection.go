package contracts

import (
	"errors"
	"fmt"
	"net/http"
)

// RejectionKind is the machine-distinguishable category of a validation
// failure. Every rejection carries exactly one kind; the transport layer
// maps kinds to HTTP status codes.
type RejectionKind string

const (
	// Ingestion boundary failures.
	KindUnknownSource     RejectionKind = "UNKNOWN_SOURCE"
	KindSchemaViolation   RejectionKind = "SCHEMA_VIOLATION"
	KindBoundaryViolation RejectionKind = "BOUNDARY_VIOLATION"

	// Advisory shape failures.
	KindInvalidAdvisory RejectionKind = "INVALID_ADVISORY"

	// Decision recording failures.
	KindMalformedRequest          RejectionKind = "MALFORMED_REQUEST"
	KindAcknowledgementRequired   RejectionKind = "ACKNOWLEDGEMENT_REQUIRED"
	KindOverrideRationaleRequired RejectionKind = "OVERRIDE_RATIONALE_REQUIRED"
	KindWorkorderNotAuthorized    RejectionKind = "WORKORDER_NOT_AUTHORIZED"
	KindRulePrimacyViolation      RejectionKind = "RULE_PRIMACY_VIOLATION"
)

// Rejection is a synchronous, deterministic validation failure. Rejections
// are never retried internally and never defaulted away; identical input
// always yields an identical rejection.
type Rejection struct {
	Kind   RejectionKind
	Detail string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Detail)
}

// Reject constructs a Rejection with a formatted detail message.
func Reject(kind RejectionKind, format string, args ...any) *Rejection {
	return &Rejection{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps err into a *Rejection if it carries one.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// HTTPStatus maps the rejection kind to its transport status code:
// 403 for authorization failures, 409 for the rule-primacy conflict
// (a state conflict, not a bad request), 400 for everything else.
func (r *Rejection) HTTPStatus() int {
	switch r.Kind {
	case KindWorkorderNotAuthorized:
		return http.StatusForbidden
	case KindRulePrimacyViolation:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
