package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chatWs/internal/modules/chat/application/port"
	"chatWs/internal/modules/chat/domain"
)

var ErrEmptyAnnouncement = errors.New("announcement content is empty")

// AnnounceUseCase publishes server-originated messages coming from REST or Kafka.
type AnnounceUseCase struct {
	publisher    port.Publisher
	clock        port.Clock
	defaultTopic string
}

func NewAnnounceUseCase(p port.Publisher, clock port.Clock, defaultTopic string) *AnnounceUseCase {
	defaultTopic = domain.NormalizeTopic(defaultTopic)
	if defaultTopic == "" {
		defaultTopic = domain.PublicTopic
	}
	return &AnnounceUseCase{publisher: p, clock: clock, defaultTopic: defaultTopic}
}

func (uc *AnnounceUseCase) Execute(ctx context.Context, msg *domain.Announcement) (port.PublishResult, error) {
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return port.PublishResult{}, ErrEmptyAnnouncement
	}
	topic := domain.NormalizeTopic(msg.Topic)
	if topic == "" {
		topic = uc.defaultTopic
	}
	if strings.ContainsAny(topic, " \t\n") {
		return port.PublishResult{}, fmt.Errorf("%w: %q", domain.ErrInvalidTopic, msg.Topic)
	}
	sender := strings.TrimSpace(msg.Sender)
	if sender == "" {
		sender = domain.SystemSender
	}
	event := domain.Event{
		Type:      domain.KindChat,
		Content:   msg.Content,
		Sender:    sender,
		Timestamp: uc.clock.NowMillis(),
	}
	return uc.publisher.Publish(ctx, topic, event), nil
}
