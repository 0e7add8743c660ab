package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nikolayk812/tourcart/internal/domain"
	"github.com/nikolayk812/tourcart/internal/port"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const EventBookingConfirmed = "booking_confirmed"

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaPublisher(writer messageWriter) (*KafkaPublisher, error) {
	if writer == nil {
		return nil, fmt.Errorf("writer is nil")
	}

	return &KafkaPublisher{writer: writer}, nil
}

// PublishBookingConfirmed keys the message by profile so one visitor's bookings
// stay ordered within a partition.
func (p *KafkaPublisher) PublishBookingConfirmed(ctx context.Context, event domain.BookingConfirmed) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OwnerID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventBookingConfirmed)},
			{Key: "reference", Value: []byte(event.Reference.String())},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writer.WriteMessages: %w", err)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher only logs confirmations. It is used when no broker is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishBookingConfirmed(_ context.Context, event domain.BookingConfirmed) error {
	p.logger.Info().
		Str("reference", event.Reference.String()).
		Str("owner", event.OwnerID).
		Int("items", len(event.Items)).
		Str("total", event.Total.String()).
		Msg("booking confirmed")

	return nil
}

var (
	_ port.BookingPublisher = (*KafkaPublisher)(nil)
	_ port.BookingPublisher = (*LogPublisher)(nil)
)
