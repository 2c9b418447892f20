package usecase

import (
	"slices"
	"strings"
	"time"

	"chatWs/internal/modules/chat/application/port"
	"chatWs/internal/modules/chat/domain"
)

// Member is a joined participant of a topic.
type Member struct {
	ConnectionID string    `json:"connectionId"`
	DisplayName  string    `json:"displayName"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// TopicSummary is the member count of one topic.
type TopicSummary struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

// PresenceUseCase answers who is currently in which topic.
type PresenceUseCase struct {
	registry port.TopicRegistry
	sessions port.SessionStore
}

func NewPresenceUseCase(registry port.TopicRegistry, sessions port.SessionStore) *PresenceUseCase {
	return &PresenceUseCase{registry: registry, sessions: sessions}
}

// Members lists joined members of the topic ordered by join time then name.
// Connections that subscribed without a session are left out.
func (uc *PresenceUseCase) Members(topic string) []Member {
	ids := uc.registry.Members(domain.NormalizeTopic(topic))
	members := make([]Member, 0, len(ids))
	for _, id := range ids {
		session, ok := uc.sessions.Get(id)
		if !ok || !session.Joined() {
			continue
		}
		members = append(members, Member{ConnectionID: id, DisplayName: session.DisplayName, JoinedAt: session.JoinedAt})
	}
	slices.SortFunc(members, func(a, b Member) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return strings.Compare(a.DisplayName, b.DisplayName)
	})
	return members
}

func (uc *PresenceUseCase) Topics() []TopicSummary {
	counts := uc.registry.Topics()
	topics := make([]TopicSummary, 0, len(counts))
	for name, n := range counts {
		topics = append(topics, TopicSummary{Name: name, Members: n})
	}
	slices.SortFunc(topics, func(a, b TopicSummary) int { return strings.Compare(a.Name, b.Name) })
	return topics
}
