// Package events publishes domain events to the event log.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced           = "OrderPlaced"
	EventOrderStatusChanged    = "OrderStatusChanged"
	EventCancellationRequested = "CancellationRequested"
	EventCancellationDenied    = "CancellationDenied"
	EventRefundApproved        = "RefundApproved"
	EventReorderRequested      = "ReorderRequested"
	EventMessagePosted         = "MessagePosted"
	EventContactReceived       = "ContactInquiryReceived"
)

const envelopeVersion = 1

// Envelope wraps every event written to the log.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// Publisher writes events to the log. Publish must not block on the broker.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// NewEnvelope builds an envelope around payload. correlationID is usually
// the order id so that all events of one order share a partition.
func NewEnvelope(eventType, producer, correlationID string, payload any, now time.Time) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  envelopeVersion,
		OccurredAt:    now.UTC(),
		Producer:      producer,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

// UnwrapPayload decodes the payload of an envelope.
func UnwrapPayload[T any](env Envelope) (T, error) {
	var t T
	if err := json.Unmarshal(env.Payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}

// ---- Payloads ----

type OrderPlacedPayload struct {
	OrderID     string          `json:"order_id"`
	OrderNumber int64           `json:"order_number"`
	UserID      string          `json:"user_id"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"item_count"`
}

type OrderStatusPayload struct {
	OrderID       string `json:"order_id"`
	From          string `json:"from"`
	To            string `json:"to"`
	PaymentStatus string `json:"payment_status,omitempty"`
	ChangedBy     string `json:"changed_by"`
}

type MessagePayload struct {
	MessageID   string          `json:"message_id"`
	OrderID     string          `json:"order_id,omitempty"`
	MessageType string          `json:"message_type"`
	SenderID    string          `json:"sender_id,omitempty"`
	Urgent      bool            `json:"urgent"`
	Refund      decimal.Decimal `json:"refund"`
}

// ---- No-op ----

type nopPublisher struct{}

// NewNopPublisher returns a publisher that discards every event.
func NewNopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, Envelope) error { return nil }
func (nopPublisher) Close() error                            { return nil }
