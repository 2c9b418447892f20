package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"chatWs/internal/modules/chat/application/usecase"
	"chatWs/internal/modules/chat/domain"
	"chatWs/internal/modules/chat/infrastructure"
)

type topicsResponse struct {
	Topics []usecase.TopicSummary     `json:"topics"`
	Stats  infrastructure.BrokerStats `json:"stats"`
}

type membersResponse struct {
	Topic   string           `json:"topic"`
	Members []usecase.Member `json:"members"`
}

func NewTopicsHTTPHandler(presence *usecase.PresenceUseCase, broker *infrastructure.Broker) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, topicsResponse{Topics: presence.Topics(), Stats: broker.Stats()})
	}
}

// NewMembersHTTPHandler lists the joined members of a topic, the online user list.
func NewMembersHTTPHandler(presence *usecase.PresenceUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		topic := domain.NormalizeTopic(c.Param("topic"))
		if topic == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "missing topic")
		}
		return c.JSON(http.StatusOK, membersResponse{Topic: topic, Members: presence.Members(topic)})
	}
}

func healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
