// Package events publishes transport request lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/tournevent/transports/pkg/transport"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Event types.
const (
	TypeRequested = "transport.requested"
	TypeFailed    = "transport.failed"
	TypeCancelled = "transport.cancelled"
)

// Event describes a change in a transport request lifecycle.
type Event struct {
	Type        string    `json:"type"`
	RequestID   string    `json:"request_id"`
	Platform    string    `json:"platform"`
	Protocol    string    `json:"protocol,omitempty"`
	Environment string    `json:"environment"`
	Reference   string    `json:"reference,omitempty"`
	ErrorType   string    `json:"error_type,omitempty"`
	ErrorText   string    `json:"error_text,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewEvent builds an event from the current state of req. err is only used
// for failed events.
func NewEvent(eventType string, req *transport.Request, err error, at time.Time) Event {
	ev := Event{
		Type:        eventType,
		RequestID:   req.ID.String(),
		Platform:    req.Platform,
		Protocol:    string(req.Protocol),
		Environment: req.Environment(),
		Reference:   req.ReferenceValue(),
		OccurredAt:  at.UTC(),
	}
	if err != nil {
		ev.ErrorType = transport.Classify(err)
		ev.ErrorText = err.Error()
	}
	return ev
}

// Publisher publishes lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Writer is the subset of kafka.Writer used by KafkaPublisher.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages keyed by request ID.
type KafkaPublisher struct {
	writer Writer
	logger *otelzap.Logger
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *otelzap.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return NewKafkaPublisherWithWriter(w, logger)
}

// NewKafkaPublisherWithWriter creates a publisher with a custom writer.
func NewKafkaPublisherWithWriter(w Writer, logger *otelzap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, logger: logger}
}

// Publish implements Publisher.
func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", ev.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.RequestID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
		},
		Time: ev.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Ctx(ctx).Error("Failed to publish transport event",
			zap.String("type", ev.Type),
			zap.String("request_id", ev.RequestID),
			zap.Error(err),
		)
		return fmt.Errorf("publishing %s event: %w", ev.Type, err)
	}
	return nil
}

// Close implements Publisher.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards events.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = NopPublisher{}
)
