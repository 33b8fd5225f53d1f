package service

import (
	"context"

	"kudos-cafe/internal/events"
	"kudos-cafe/internal/model"
	"kudos-cafe/internal/realtime"
	"kudos-cafe/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Notifications groups the outbound channels a committed write reports to.
// Failures on either channel are logged and never undo the write.
type Notifications struct {
	Realtime realtime.Notifier
	Events   events.Publisher
	Producer string
}

// notifier sends change notifications and domain events after a commit.
type notifier struct {
	messages repository.MessageRepository
	out      Notifications
	clock    Clock
	logger   zerolog.Logger
}

func newNotifier(messages repository.MessageRepository, out Notifications, clock Clock, logger zerolog.Logger) *notifier {
	if out.Events == nil {
		out.Events = events.NewNopPublisher()
	}
	return &notifier{messages: messages, out: out, clock: clock, logger: logger}
}

// messageChanged reloads the message with its display data and pushes it to
// realtime subscribers.
func (n *notifier) messageChanged(ctx context.Context, msg *model.OrderMessage) {
	if n.out.Realtime == nil || msg.OrderID == uuid.Nil {
		return
	}
	view, err := n.messages.GetByID(ctx, msg.ID)
	if err != nil || view == nil {
		n.logger.Warn().Err(err).Str("message_id", msg.ID.String()).Msg("failed to load message for notification")
		return
	}
	if err := n.out.Realtime.Notify(ctx, realtime.NewUpsert(*view)); err != nil {
		n.logger.Warn().Err(err).Str("message_id", msg.ID.String()).Msg("failed to send change notification")
	}
}

// messageEvent records a persisted message on the event log.
func (n *notifier) messageEvent(ctx context.Context, eventType string, msg *model.OrderMessage) {
	payload := events.MessagePayload{
		MessageID:   msg.ID.String(),
		MessageType: string(msg.Type),
		Urgent:      msg.IsUrgent,
	}
	correlation := msg.ID.String()
	if msg.OrderID != uuid.Nil {
		payload.OrderID = msg.OrderID.String()
		correlation = payload.OrderID
	}
	if msg.SenderID != uuid.Nil {
		payload.SenderID = msg.SenderID.String()
	}
	if msg.RefundAmount.Valid {
		payload.Refund = msg.RefundAmount.Decimal
	}
	n.publish(ctx, eventType, correlation, payload)
}

func (n *notifier) publish(ctx context.Context, eventType, correlationID string, payload any) {
	env, err := events.NewEnvelope(eventType, n.out.Producer, correlationID, payload, n.clock())
	if err != nil {
		n.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to build event")
		return
	}
	if err := n.out.Events.Publish(ctx, env); err != nil {
		n.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}
