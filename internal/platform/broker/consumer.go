package broker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/segmentio/kafka-go"

	"chatWs/internal/modules/chat/application/port"
	"chatWs/internal/modules/chat/domain"
)

// messageReader is the subset of *kafka.Reader the consumer needs.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConsumer reads announcements from a single Kafka topic.
type KafkaConsumer struct {
	topic  string
	reader messageReader
}

func NewKafkaConsumer(brokers []string, groupID string, topic string) *KafkaConsumer {
	return &KafkaConsumer{
		topic: topic,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
		}),
	}
}

// Consume blocks until ctx is cancelled, handing each decoded message to handler.
// Handler errors are logged and do not stop consumption.
func (c *KafkaConsumer) Consume(ctx context.Context, handler func(*domain.Announcement) error) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			slog.Warn("kafka reader close error", slog.String("topic", c.topic), slog.Any("error", err))
		}
	}()
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			slog.Warn("kafka read error", slog.String("topic", c.topic), slog.Any("error", err))
			continue
		}
		msg := decodeAnnouncement(m)
		slog.Debug("kafka message consumed",
			slog.String("topic", m.Topic),
			slog.Int("partition", m.Partition),
			slog.Int64("offset", m.Offset),
			slog.String("chatTopic", msg.Topic),
		)
		if err := handler(msg); err != nil {
			slog.Warn("kafka handler error", slog.String("topic", m.Topic), slog.Int64("offset", m.Offset), slog.Any("error", err))
		}
	}
}

// decodeAnnouncement accepts {topic, content, sender} JSON. Anything else becomes the
// content of an announcement with no explicit destination.
func decodeAnnouncement(m kafka.Message) *domain.Announcement {
	var msg domain.Announcement
	if err := json.Unmarshal(m.Value, &msg); err != nil || strings.TrimSpace(msg.Content) == "" {
		return &domain.Announcement{Content: strings.TrimSpace(string(m.Value)), Sender: headerValue(m, "sender")}
	}
	if msg.Sender == "" {
		msg.Sender = headerValue(m, "sender")
	}
	return &msg
}

func headerValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Key, key) {
			return string(h.Value)
		}
	}
	return ""
}

var _ port.PubSubPort = (*KafkaConsumer)(nil)
