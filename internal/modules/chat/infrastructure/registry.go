package infrastructure

import (
	"context"
	"fmt"
	"sort"

	"chatWs/internal/modules/chat/application/port"
	"chatWs/internal/modules/chat/domain"
)

// HandlerRegistry maps external (Kafka) topics to their handlers.
type HandlerRegistry struct {
	handlers map[string]port.TopicHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string]port.TopicHandler)}
}

func (r *HandlerRegistry) Register(h port.TopicHandler) {
	r.handlers[h.Topic()] = h
}

// Topics returns the registered topics in sorted order.
func (r *HandlerRegistry) Topics() []string {
	topics := make([]string, 0, len(r.handlers))
	for topic := range r.handlers {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

func (r *HandlerRegistry) Dispatch(ctx context.Context, source string, msg *domain.Announcement) error {
	handler, ok := r.handlers[source]
	if !ok {
		return fmt.Errorf("no handler for topic %q", source)
	}
	return handler.Handle(ctx, msg)
}
