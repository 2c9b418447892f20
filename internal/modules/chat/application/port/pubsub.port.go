package port

import (
	"context"

	"chatWs/internal/modules/chat/domain"
)

// PubSubPort consumes external announcement streams (Kafka).
type PubSubPort interface {
	Consume(ctx context.Context, handler func(*domain.Announcement) error) error
}

// TopicHandler is registered per external topic and handles decoded announcements.
type TopicHandler interface {
	Topic() string
	Handle(ctx context.Context, msg *domain.Announcement) error
}
