// Package notify is the notification side-channel: message.sent events go
// through Kafka to the notification worker.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/safecity/backend/internal/models"
)

const EventMessageSent = "message.sent"

type Event struct {
	Type    string          `json:"type"`
	Message *models.Message `json:"message"`
	At      time.Time       `json:"at"`
}

type Producer struct {
	writer *kafkago.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{writer: &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}}
}

// MessageSent publishes the event with a few quick retries. The caller logs
// failures; they never reach the message sender.
func (p *Producer) MessageSent(ctx context.Context, msg *models.Message) error {
	b, err := json.Marshal(Event{Type: EventMessageSent, Message: msg, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	op := func() error {
		return p.writer.WriteMessages(ctx, kafkago.Message{
			Key:   []byte(msg.ReceiverID),
			Value: b,
			Time:  time.Now(),
		})
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(op, bo)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
