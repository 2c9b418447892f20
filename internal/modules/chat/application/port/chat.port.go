package port

import (
	"context"

	"chatWs/internal/modules/chat/domain"
)

// Publisher fans an event out to every current subscriber of a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, event domain.Event) PublishResult
}

// PublishResult summarizes a single fan-out. Per-connection failures are counted, never returned.
type PublishResult struct {
	Topic     string
	Members   int
	Delivered int
	Dropped   int
	Skipped   int
}

// TopicRegistry tracks topic membership by connection id.
type TopicRegistry interface {
	Subscribe(topic, connectionID string)
	Unsubscribe(topic, connectionID string)
	UnsubscribeAll(connectionID string) []string
	Members(topic string) []string
	Topics() map[string]int
}

// SessionStore holds per-connection metadata keyed by connection id.
type SessionStore interface {
	Put(connectionID string, session domain.Session)
	Get(connectionID string) (domain.Session, bool)
	Remove(connectionID string) (domain.Session, bool)
}

// Codec turns raw frames into inbound envelopes and events into outbound frames.
type Codec interface {
	Decode(raw []byte) (domain.Inbound, error)
	Encode(event domain.Event) ([]byte, error)
}

// Clock returns server-side timestamps in unix milliseconds.
type Clock interface {
	NowMillis() int64
}

// Route is the outcome of routing one inbound frame: the event to publish and where.
type Route struct {
	Topic string
	Event domain.Event
}

// EventRouter maps an inbound frame from a connection to a Route.
type EventRouter interface {
	Route(ctx context.Context, connectionID string, in domain.Inbound) (Route, error)
}
