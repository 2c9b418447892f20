package handler

import (
	"context"
	"log/slog"
	"strings"

	"chatWs/internal/modules/chat/application/port"
	"chatWs/internal/modules/chat/application/usecase"
	"chatWs/internal/modules/chat/domain"
)

// AnnouncementHandler relays messages from one Kafka topic into a chat topic.
type AnnouncementHandler struct {
	kafkaTopic string
	chatTopic  string
	useCase    *usecase.AnnounceUseCase
}

// NewAnnouncementHandler binds a Kafka topic to the announce use case. chatTopic is used
// when the message itself does not name a destination.
func NewAnnouncementHandler(kafkaTopic, chatTopic string, uc *usecase.AnnounceUseCase) *AnnouncementHandler {
	return &AnnouncementHandler{
		kafkaTopic: strings.TrimSpace(kafkaTopic),
		chatTopic:  domain.NormalizeTopic(chatTopic),
		useCase:    uc,
	}
}

func (h *AnnouncementHandler) Topic() string { return h.kafkaTopic }

func (h *AnnouncementHandler) Handle(ctx context.Context, msg *domain.Announcement) error {
	if msg.Topic == "" {
		msg.Topic = h.chatTopic
	}
	result, err := h.useCase.Execute(ctx, msg)
	if err != nil {
		return err
	}
	slog.Info("announcement relayed", slog.String("kafkaTopic", h.kafkaTopic), slog.String("topic", result.Topic), slog.Int("delivered", result.Delivered))
	return nil
}

var _ port.TopicHandler = (*AnnouncementHandler)(nil)
