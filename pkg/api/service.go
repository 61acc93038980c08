package api

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mosesonilede-crypto/skymaintain-core/pkg/decision"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/ingestion"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/store"
)

// Service owns the HTTP surface of the gate. The store handle is shared
// with the validator and recorder; the service itself holds no state
// beyond its collaborators.
type Service struct {
	ingestion *ingestion.Validator
	recorder  *decision.Recorder
	store     *store.EventStore
	tracer    trace.Tracer
}

// NewService wires the transport to its collaborators.
func NewService(v *ingestion.Validator, r *decision.Recorder, s *store.EventStore) *Service {
	return &Service{
		ingestion: v,
		recorder:  r,
		store:     s,
		tracer:    otel.Tracer("skymaintain-core/api"),
	}
}

// Routes registers the service's handlers on mux.
func (s *Service) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/api/ingestion", s.HandleIngestion)
	mux.HandleFunc("/api/ingestion/export", s.HandleIngestionExport)
	mux.HandleFunc("/api/decisions", s.HandleDecisions)
	mux.HandleFunc("/api/decisions/export", s.HandleExport)
}

// HandleHealth reports liveness.
func (s *Service) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
