package handler

import (
	"context"
	"errors"
	"testing"

	"chatWs/internal/modules/chat/application/port"
	"chatWs/internal/modules/chat/application/usecase"
	"chatWs/internal/modules/chat/domain"
)

type fixedClock struct{}

func (fixedClock) NowMillis() int64 { return 42 }

type capturePublisher struct {
	topics []string
	events []domain.Event
}

func (p *capturePublisher) Publish(_ context.Context, topic string, event domain.Event) port.PublishResult {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return port.PublishResult{Topic: topic, Members: 1, Delivered: 1}
}

func TestAnnouncementHandler_DefaultsChatTopic(t *testing.T) {
	pub := &capturePublisher{}
	h := NewAnnouncementHandler(" ops.announcements ", "/topic/lobby", usecase.NewAnnounceUseCase(pub, fixedClock{}, ""))

	if h.Topic() != "ops.announcements" {
		t.Fatalf("unexpected kafka topic %q", h.Topic())
	}
	if err := h.Handle(context.Background(), &domain.Announcement{Content: "deploy finished"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.topics) != 1 || pub.topics[0] != "lobby" {
		t.Fatalf("expected publish to lobby, got %v", pub.topics)
	}
	if pub.events[0].Sender != domain.SystemSender || pub.events[0].Timestamp != 42 {
		t.Fatalf("unexpected event %#v", pub.events[0])
	}
}

func TestAnnouncementHandler_MessageTopicWins(t *testing.T) {
	pub := &capturePublisher{}
	h := NewAnnouncementHandler("ops", "lobby", usecase.NewAnnounceUseCase(pub, fixedClock{}, ""))

	if err := h.Handle(context.Background(), &domain.Announcement{Topic: "random", Content: "hi", Sender: "bot"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pub.topics[0] != "random" || pub.events[0].Sender != "bot" {
		t.Fatalf("unexpected publish %v %#v", pub.topics, pub.events)
	}
}

func TestAnnouncementHandler_PropagatesUseCaseError(t *testing.T) {
	pub := &capturePublisher{}
	h := NewAnnouncementHandler("ops", "lobby", usecase.NewAnnounceUseCase(pub, fixedClock{}, ""))

	err := h.Handle(context.Background(), &domain.Announcement{Content: " "})
	if !errors.Is(err, usecase.ErrEmptyAnnouncement) {
		t.Fatalf("expected ErrEmptyAnnouncement, got %v", err)
	}
	if len(pub.topics) != 0 {
		t.Fatal("nothing should be published")
	}
}
