package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
	"github.com/google/uuid"
)

// Envelope is the wire form of a domain event on the broker. Payload holds
// the event's own JSON encoding.
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	PartitionKey  string          `json:"partition_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps ev for transport.
func NewEnvelope(ev shared.DomainEvent) (*Envelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", ev.EventType(), err)
	}
	return &Envelope{
		EventID:       ev.EventID(),
		EventType:     ev.EventType(),
		AggregateType: ev.AggregateType(),
		AggregateID:   ev.AggregateID(),
		PartitionKey:  ev.PartitionKey(),
		OccurredAt:    ev.OccurredAt().UTC(),
		Payload:       payload,
	}, nil
}

// Marshal encodes the envelope.
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses an envelope produced by Marshal.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}
	if env.EventType == "" {
		return nil, fmt.Errorf("event envelope has no event_type")
	}
	return &env, nil
}
