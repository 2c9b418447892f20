package transport

import (
	"context"

	"github.com/labstack/echo/v4"

	"chatWs/internal/modules/chat/application/port"
	"chatWs/internal/modules/chat/application/usecase"
	"chatWs/internal/modules/chat/infrastructure"
)

// Dependencies groups what the HTTP surface needs.
type Dependencies struct {
	Broker    *infrastructure.Broker
	Codec     port.Codec
	Announce  *usecase.AnnounceUseCase
	Presence  *usecase.PresenceUseCase
	Websocket WebsocketOptions
}

// RegisterRoutes wires every chat endpoint onto e.
func RegisterRoutes(ctx context.Context, e *echo.Echo, deps Dependencies) {
	e.GET("/ws", NewWebsocketHandler(ctx, deps.Broker, deps.Codec, deps.Websocket))
	e.GET("/healthz", healthHandler)

	api := e.Group("/api")
	api.GET("/topics", NewTopicsHTTPHandler(deps.Presence, deps.Broker))
	api.GET("/topics/:topic/members", NewMembersHTTPHandler(deps.Presence))
	api.POST("/topics/:topic/broadcast", NewBroadcastHTTPHandler(deps.Announce))
}
