package notify

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/safecity/backend/internal/models"
	"github.com/safecity/backend/internal/store"
)

// Consumer persists a Notification row for the recipient of every
// message.sent event. Email/SMS fan-out is handled by the transactional
// outbox downstream.
type Consumer struct {
	reader        *kafkago.Reader
	notifications store.NotificationStore
	log           *zap.SugaredLogger
}

func NewConsumer(brokers []string, topic, groupID string, notifications store.NotificationStore, log *zap.SugaredLogger) *Consumer {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: r, notifications: notifications, log: log}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warnw("kafka read", "err", err)
			time.Sleep(time.Second)
			continue
		}
		var ev Event
		if err := json.Unmarshal(m.Value, &ev); err != nil || ev.Type != EventMessageSent || ev.Message == nil {
			continue
		}
		n := &models.Notification{
			UserID:    ev.Message.ReceiverID,
			Title:     "New message",
			Body:      preview(ev.Message),
			Type:      "chat",
			CreatedAt: ev.At,
		}
		if err := c.notifications.Insert(ctx, n); err != nil {
			c.log.Errorw("persist notification", "user", n.UserID, "err", err)
		}
	}
}

func preview(m *models.Message) string {
	if m.Text == "" {
		return "Sent you a photo"
	}
	const max = 80
	r := []rune(m.Text)
	if len(r) > max {
		return string(r[:max]) + "…"
	}
	return m.Text
}
