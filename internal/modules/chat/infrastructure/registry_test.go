package infrastructure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatWs/internal/modules/chat/domain"
)

type recordingTopicHandler struct {
	topic    string
	received []*domain.Announcement
}

func (h *recordingTopicHandler) Topic() string { return h.topic }

func (h *recordingTopicHandler) Handle(_ context.Context, msg *domain.Announcement) error {
	h.received = append(h.received, msg)
	return nil
}

func TestHandlerRegistry_DispatchesBySource(t *testing.T) {
	registry := NewHandlerRegistry()
	ops := &recordingTopicHandler{topic: "ops"}
	news := &recordingTopicHandler{topic: "news"}
	registry.Register(ops)
	registry.Register(news)

	require.NoError(t, registry.Dispatch(context.Background(), "news", &domain.Announcement{Content: "hello"}))

	assert.Empty(t, ops.received)
	require.Len(t, news.received, 1)
	assert.Equal(t, "hello", news.received[0].Content)
	assert.Equal(t, []string{"news", "ops"}, registry.Topics())
}

func TestHandlerRegistry_UnknownSource(t *testing.T) {
	registry := NewHandlerRegistry()

	err := registry.Dispatch(context.Background(), "missing", &domain.Announcement{Content: "x"})

	assert.ErrorContains(t, err, `no handler for topic "missing"`)
	assert.Empty(t, registry.Topics())
}
