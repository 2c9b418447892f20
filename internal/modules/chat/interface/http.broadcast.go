package transport

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"chatWs/internal/modules/chat/application/usecase"
	"chatWs/internal/modules/chat/domain"
	"chatWs/internal/shared/httputil"
)

// BroadcastRequest is the body of POST /api/topics/:topic/broadcast.
type BroadcastRequest struct {
	Content string `json:"content"`
	Sender  string `json:"sender,omitempty"`
}

// BroadcastResponse reports how the announcement was fanned out.
type BroadcastResponse struct {
	Success   bool   `json:"success"`
	Topic     string `json:"topic"`
	Members   int    `json:"members"`
	Delivered int    `json:"delivered"`
	Dropped   int    `json:"dropped"`
}

var broadcastErrors = httputil.NewErrorMapper().
	WithMapping(usecase.ErrEmptyAnnouncement, http.StatusBadRequest, "content is required").
	WithMapping(domain.ErrInvalidTopic, http.StatusBadRequest, "invalid topic")

// NewBroadcastHTTPHandler lets operators push a server announcement into a topic.
func NewBroadcastHTTPHandler(announceUC *usecase.AnnounceUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req BroadcastRequest
		if err := c.Bind(&req); err != nil {
			slog.Warn("broadcast http: invalid request body", slog.Any("error", err))
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}

		result, err := announceUC.Execute(c.Request().Context(), &domain.Announcement{
			Topic:   c.Param("topic"),
			Content: req.Content,
			Sender:  req.Sender,
		})
		if err != nil {
			info := broadcastErrors.Map(err)
			slog.Warn("broadcast http: rejected", slog.String("topic", c.Param("topic")), slog.Int("status", info.Status), slog.Any("error", err))
			return echo.NewHTTPError(info.Status, info.Message)
		}

		slog.Info("broadcast http: message sent", slog.String("topic", result.Topic), slog.Int("delivered", result.Delivered), slog.Int("dropped", result.Dropped))
		return c.JSON(http.StatusOK, BroadcastResponse{
			Success:   true,
			Topic:     result.Topic,
			Members:   result.Members,
			Delivered: result.Delivered,
			Dropped:   result.Dropped,
		})
	}
}
