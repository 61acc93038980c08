package contracts

import "time"

// Payload keys that must never cross the ingestion boundary. Recommendations
// and work orders only originate from the decision layer.
const (
	BoundaryKeyRecommendation = "recommendation"
	BoundaryKeyWorkOrder      = "workOrder"
)

// IngestionRecord is one durable fact accepted from an external system.
// Records are appended on accept and never mutated or deleted.
type IngestionRecord struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	AircraftID string         `json:"aircraftId"`
	TailNumber string         `json:"tailNumber,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Payload    map[string]any `json:"payload"`
	ReceivedAt time.Time      `json:"receivedAt"`
}
