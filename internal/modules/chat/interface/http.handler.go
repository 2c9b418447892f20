package transport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"chatWs/internal/modules/chat/application/port"
	"chatWs/internal/modules/chat/infrastructure"
)

// WebsocketOptions configures the /ws endpoint.
type WebsocketOptions struct {
	QueueCapacity  int
	AllowedOrigins []string
	Client         infrastructure.ClientConfig
}

// NewWebsocketHandler upgrades the request, registers the connection with the broker
// and starts its pumps. baseCtx bounds the pumps' lifetime; the request context ends
// as soon as the handler returns.
func NewWebsocketHandler(baseCtx context.Context, broker *infrastructure.Broker, codec port.Codec, opts WebsocketOptions) echo.HandlerFunc {
	origins := newOriginPolicy(opts.AllowedOrigins)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     origins.allowed,
	}

	return func(c echo.Context) error {
		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		peerIP := c.RealIP()

		if !origins.allowed(c.Request()) {
			slog.Warn("ws handler origin rejected", slog.String("origin", c.Request().Header.Get("Origin")), slog.String("ip", peerIP))
			return echo.NewHTTPError(http.StatusForbidden, "origin not allowed")
		}

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			slog.Error("ws handler upgrade failed", slog.String("ip", peerIP), slog.String("reqID", requestID), slog.Any("error", err))
			return err
		}

		link := infrastructure.NewConnection(opts.QueueCapacity)
		id := broker.Connect(link)
		client := infrastructure.NewClient(broker, conn, link, codec, opts.Client, peerIP)

		go client.WritePump(baseCtx)
		go client.ReadPump(baseCtx)

		slog.Info("ws connected", slog.String("connectionId", id), slog.String("ip", peerIP), slog.String("reqID", requestID))
		return nil
	}
}
