// Package kafka carries domain events between the API server and the index
// worker: approach saves, comp changes, and reconciliation results.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/harkencre/appraisal-platform/pkg/errors"
)

const (
	TopicApproachSaved       = "approach.saved"
	TopicCompUpdated         = "comp.updated"
	TopicCompDeleted         = "comp.deleted"
	TopicAppraisalReconciled = "appraisal.reconciled"
)

// Topics lists every topic the worker subscribes to.
func Topics() []string {
	return []string{
		TopicApproachSaved,
		TopicCompUpdated,
		TopicCompDeleted,
		TopicAppraisalReconciled,
	}
}

// EventEnvelope is the wire format shared by all topics. Payload carries the
// event-specific body.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// ApproachSavedPayload announces a persisted approach save.
type ApproachSavedPayload struct {
	EvaluationID string   `json:"evaluation_id"`
	ApproachID   string   `json:"approach_id"`
	ApproachType string   `json:"approach_type"`
	CompIDs      []string `json:"comp_ids,omitempty"`
	SavedAt      time.Time `json:"saved_at"`
}

// CompUpdatedPayload announces a created or updated comp.
type CompUpdatedPayload struct {
	CompID    string    `json:"comp_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompDeletedPayload announces a deleted comp.
type CompDeletedPayload struct {
	CompID    string    `json:"comp_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// AppraisalReconciledPayload announces a recomputed weighted market value.
type AppraisalReconciledPayload struct {
	EvaluationID        string    `json:"evaluation_id"`
	WeightedMarketValue float64   `json:"weighted_market_value"`
	ReconciledAt        time.Time `json:"reconciled_at"`
}

// NewEventEnvelope wraps a payload for publication.
func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeValidation, "event payload is empty")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode event payload")
	}
	return nil
}

// ParseEnvelope decodes a raw message value into an envelope.
func ParseEnvelope(value []byte) (*EventEnvelope, error) {
	if len(value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode event envelope")
	}
	return &env, nil
}
