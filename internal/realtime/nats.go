package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSBridge publishes change events to NATS and feeds events from every
// instance into the local hub.
type NATSBridge struct {
	conn    *nats.Conn
	subject string
	hub     *Hub
	sub     *nats.Subscription
	logger  zerolog.Logger
}

// NewNATSBridge connects to NATS. Call Listen to start receiving.
func NewNATSBridge(url, subjectPrefix string, hub *Hub, logger zerolog.Logger) (*NATSBridge, error) {
	logger = logger.With().Str("component", "nats-bridge").Logger()

	conn, err := nats.Connect(url,
		nats.Name("kudos-cafe"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("disconnected from NATS")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("reconnected to NATS")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info().Str("url", url).Msg("connected to NATS")

	return &NATSBridge{
		conn:    conn,
		subject: subjectPrefix + ".messages",
		hub:     hub,
		logger:  logger,
	}, nil
}

// Notify publishes ev. The local hub receives it back through Listen.
func (b *NATSBridge) Notify(_ context.Context, ev ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}
	if err := b.conn.Publish(b.subject, data); err != nil {
		b.logger.Error().Err(err).Str("subject", b.subject).Msg("failed to publish change event")
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// Listen subscribes to the change subject and rebroadcasts locally.
func (b *NATSBridge) Listen() error {
	sub, err := b.conn.Subscribe(b.subject, func(msg *nats.Msg) {
		var ev ChangeEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.logger.Warn().Err(err).Msg("discarding malformed change event")
			return
		}
		b.hub.Broadcast(ev)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.subject, err)
	}
	b.sub = sub
	return b.conn.Flush()
}

// Close drains the subscription and closes the connection.
func (b *NATSBridge) Close() error {
	if b.sub != nil {
		if err := b.sub.Unsubscribe(); err != nil {
			b.logger.Warn().Err(err).Msg("failed to unsubscribe")
		}
	}
	return b.conn.Drain()
}
