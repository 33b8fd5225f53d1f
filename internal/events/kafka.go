package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// ErrPublisherFull is returned when the producer buffer is full.
var ErrPublisherFull = errors.New("event buffer full")

// ErrPublisherClosed is returned after Close.
var ErrPublisherClosed = errors.New("event publisher closed")

// messageWriter is the part of kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer drains an in-memory buffer into Kafka from a single goroutine.
type Producer struct {
	w      messageWriter
	inbox  chan kafka.Message
	done   chan struct{}
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewKafkaProducer creates a producer for topic. buf bounds the number of
// events waiting to be written.
func NewKafkaProducer(brokers []string, topic string, buf int, logger zerolog.Logger) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}, buf, logger)
}

func newProducer(w messageWriter, buf int, logger zerolog.Logger) *Producer {
	return &Producer{
		w:      w,
		inbox:  make(chan kafka.Message, buf),
		done:   make(chan struct{}),
		logger: logger.With().Str("component", "kafka-producer").Logger(),
	}
}

// Start runs the write loop until Close is called.
func (p *Producer) Start() {
	go func() {
		defer close(p.done)
		for m := range p.inbox {
			p.write(m)
		}
		if err := p.w.Close(); err != nil {
			p.logger.Error().Err(err).Msg("failed to close kafka writer")
		}
	}()
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.logger.Error().
			Err(err).
			Str("key", string(m.Key)).
			Msg("failed to write event")
		return
	}
	p.logger.Debug().Str("key", string(m.Key)).Msg("event written")
}

// Publish queues an envelope. It never waits for the broker.
func (p *Producer) Publish(ctx context.Context, env Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	key := env.CorrelationID
	if key == "" {
		key = env.EventID
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.logger.Warn().
			Str("event_type", env.EventType).
			Str("event_id", env.EventID).
			Msg("event buffer full, dropping event")
		return ErrPublisherFull
	}
}

// Close flushes queued events and waits for the writer to shut down.
func (p *Producer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.inbox)
	p.mu.Unlock()

	<-p.done
	return nil
}
