// Package events publishes payment lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shivanand-hulikatti/tour-booking/internal/model"
	"github.com/segmentio/kafka-go"
)

// PaymentConfirmed is the event name carried in every confirmation message.
const PaymentConfirmed = "payment.confirmed"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes JSON events keyed by booking id.
type Publisher struct {
	w messageWriter
}

// NewKafkaPublisher returns a publisher for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}}
}

// PublishPaymentConfirmed emits one confirmation event.
func (p *Publisher) PublishPaymentConfirmed(ctx context.Context, evt model.PaymentConfirmedEvent) error {
	evt.Event = PaymentConfirmed
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", evt.Event, err)
	}
	key := evt.BookingID
	if key == "" {
		key = evt.TransactionID
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: body}); err != nil {
		return fmt.Errorf("write %s: %w", evt.Event, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}

// Nop discards events. It is used when no brokers are configured.
type Nop struct{}

func (Nop) PublishPaymentConfirmed(context.Context, model.PaymentConfirmedEvent) error { return nil }
