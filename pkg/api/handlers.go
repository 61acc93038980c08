package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mosesonilede-crypto/skymaintain-core/pkg/contracts"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/export"
	"github.com/mosesonilede-crypto/skymaintain-core/pkg/ingestion"
)

const maxBodyBytes = 1 << 20 // 1MB

// HandleIngestion handles POST (submit a record) and GET (list accepted
// records) on /api/ingestion.
func (s *Service) HandleIngestion(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleIngest(w, r)
	case http.MethodGet:
		s.handleListIngested(w, r)
	default:
		WriteMethodNotAllowed(w)
	}
}

func (s *Service) handleIngest(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "ingestion.validate")
	defer span.End()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var record ingestion.InboundRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	span.SetAttributes(attribute.String("ingestion.source", record.Source))

	accepted, err := s.ingestion.Validate(record)
	if err != nil {
		if rej, ok := contracts.AsRejection(err); ok {
			WriteRejection(w, rej)
			return
		}
		WriteInternal(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "id": accepted.ID})
}

func (s *Service) handleListIngested(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.store.Ingestions())
}

// HandleDecisions handles POST (record a disposition) and GET (list events)
// on /api/decisions.
func (s *Service) HandleDecisions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleRecordDecision(w, r)
	case http.MethodGet:
		s.handleListDecisions(w, r)
	default:
		WriteMethodNotAllowed(w)
	}
}

func (s *Service) handleRecordDecision(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "decision.record")
	defer span.End()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req contracts.DecisionEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	span.SetAttributes(attribute.String("decision.disposition", string(req.Disposition)))

	event, err := s.recorder.RecordDecision(req)
	if err != nil {
		if rej, ok := contracts.AsRejection(err); ok {
			span.SetAttributes(attribute.String("decision.rejection", string(rej.Kind)))
			WriteRejection(w, rej)
			return
		}
		WriteInternal(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"event": event})
}

func (s *Service) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.store.Decisions())
}

// HandleExport renders the decision event sequence in the requested format
// with content type and attachment filename set. Exporting an empty store
// yields an empty body, not an error.
func (s *Service) HandleExport(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "Decision Event Audit Report", "decision-events", s.store.Decisions())
}

// HandleIngestionExport renders the accepted ingestion sequence in the
// requested format.
func (s *Service) HandleIngestionExport(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "Ingestion Audit Report", "ingestion-records", s.store.Ingestions())
}

func (s *Service) serveExport(w http.ResponseWriter, r *http.Request, title, prefix string, records any) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w)
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	body, err := export.Render(format, title, records)
	if err != nil {
		WriteInternal(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		`attachment; filename="`+format.Filename(prefix, time.Now())+`"`)
	_, _ = w.Write(body)
}
