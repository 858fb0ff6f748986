// Package queue defines message payloads exchanged over the message broker.
package queue

// PredictionRecordedEvent is published when a prediction is written to
// the ledger. It contains enough information for downstream consumers
// to log, notify, or trigger analytics without querying the primary
// database.
type PredictionRecordedEvent struct {
	PredictionID uint64  `json:"prediction_id"`
	UserID       *uint64 `json:"user_id"` // nil for anonymous submissions
	Label        string  `json:"label"`
	Confidence   float64 `json:"confidence"`
	CropType     string  `json:"crop_type"`
	RecordedAt   string  `json:"recorded_at"`
}
