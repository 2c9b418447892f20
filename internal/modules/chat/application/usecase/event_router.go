package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"chatWs/internal/modules/chat/application/port"
	"chatWs/internal/modules/chat/domain"
)

const DefaultMaxNameLength = 32

// RouterConfig controls routing policy.
type RouterConfig struct {
	DefaultTopic string
	// TrustClientSender takes the sender of CHAT and LEAVE frames from the payload
	// instead of the joined session, matching clients that never JOIN first.
	TrustClientSender bool
	MaxNameLength     int
	// Destinations overrides the default chat.* destination table.
	Destinations map[string]domain.EventKind
}

type routeFunc func(ctx context.Context, connectionID string, in domain.Inbound) (port.Route, error)

// EventRouter resolves inbound frames to outbound events through lookup tables built at
// construction and never mutated afterwards.
type EventRouter struct {
	registry     port.TopicRegistry
	sessions     port.SessionStore
	clock        port.Clock
	cfg          RouterConfig
	destinations map[string]domain.EventKind
	handlers     map[domain.EventKind]routeFunc
}

func NewEventRouter(registry port.TopicRegistry, sessions port.SessionStore, clock port.Clock, cfg RouterConfig) *EventRouter {
	cfg.DefaultTopic = domain.NormalizeTopic(cfg.DefaultTopic)
	if cfg.DefaultTopic == "" {
		cfg.DefaultTopic = domain.PublicTopic
	}
	if cfg.MaxNameLength <= 0 {
		cfg.MaxNameLength = DefaultMaxNameLength
	}
	destinations := domain.DefaultDestinations()
	if len(cfg.Destinations) > 0 {
		destinations = make(map[string]domain.EventKind, len(cfg.Destinations))
		for dest, kind := range cfg.Destinations {
			destinations[strings.TrimSpace(dest)] = kind
		}
	}
	r := &EventRouter{
		registry:     registry,
		sessions:     sessions,
		clock:        clock,
		cfg:          cfg,
		destinations: destinations,
	}
	r.handlers = map[domain.EventKind]routeFunc{
		domain.KindChat:  r.routeChat,
		domain.KindJoin:  r.routeJoin,
		domain.KindLeave: r.routeLeave,
	}
	return r
}

// Kind resolves the event kind for a frame: its destination when present, else its type.
func (r *EventRouter) Kind(in domain.Inbound) (domain.EventKind, error) {
	if dest := strings.TrimSpace(in.Destination); dest != "" {
		dest = strings.TrimPrefix(dest, "/app/")
		kind, ok := r.destinations[dest]
		if !ok {
			return "", fmt.Errorf("%w: destination %q", domain.ErrUnrecognizedEventKind, in.Destination)
		}
		return kind, nil
	}
	kind := domain.ParseEventKind(string(in.Type))
	if _, ok := r.handlers[kind]; !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnrecognizedEventKind, in.Type)
	}
	return kind, nil
}

func (r *EventRouter) Route(ctx context.Context, connectionID string, in domain.Inbound) (port.Route, error) {
	kind, err := r.Kind(in)
	if err != nil {
		return port.Route{}, err
	}
	return r.handlers[kind](ctx, connectionID, in)
}

func (r *EventRouter) routeChat(_ context.Context, connectionID string, in domain.Inbound) (port.Route, error) {
	sender, topic, err := r.resolveSender(connectionID, in)
	if err != nil {
		return port.Route{}, fmt.Errorf("chat: %w", err)
	}
	return port.Route{
		Topic: topic,
		Event: domain.Event{
			Type:      domain.KindChat,
			Content:   in.Content,
			Sender:    sender,
			Timestamp: r.clock.NowMillis(),
		},
	}, nil
}

func (r *EventRouter) routeJoin(_ context.Context, connectionID string, in domain.Inbound) (port.Route, error) {
	name, err := r.validateName(in.Sender)
	if err != nil {
		return port.Route{}, fmt.Errorf("join: %w", err)
	}
	topic := domain.NormalizeTopic(in.Topic)
	if topic == "" {
		topic = r.cfg.DefaultTopic
	}

	if previous, ok := r.sessions.Get(connectionID); ok && previous.Topic != "" && previous.Topic != topic {
		r.registry.Unsubscribe(previous.Topic, connectionID)
		slog.Debug("chat session moved topic", slog.String("connectionId", connectionID), slog.String("from", previous.Topic), slog.String("to", topic))
	}
	r.sessions.Put(connectionID, domain.Session{
		ConnectionID: connectionID,
		DisplayName:  name,
		Topic:        topic,
		JoinedAt:     time.Now().UTC(),
	})
	r.registry.Subscribe(topic, connectionID)

	return port.Route{
		Topic: topic,
		Event: domain.Event{
			Type:      domain.KindJoin,
			Content:   domain.JoinedContent(name),
			Sender:    name,
			Timestamp: r.clock.NowMillis(),
		},
	}, nil
}

// routeLeave only announces; membership is released when the connection closes.
func (r *EventRouter) routeLeave(_ context.Context, connectionID string, in domain.Inbound) (port.Route, error) {
	sender, topic, err := r.resolveSender(connectionID, in)
	if err != nil {
		return port.Route{}, fmt.Errorf("leave: %w", err)
	}
	return port.Route{
		Topic: topic,
		Event: domain.Event{
			Type:      domain.KindLeave,
			Content:   domain.LeftContent(sender),
			Sender:    sender,
			Timestamp: r.clock.NowMillis(),
		},
	}, nil
}

func (r *EventRouter) resolveSender(connectionID string, in domain.Inbound) (string, string, error) {
	session, ok := r.sessions.Get(connectionID)
	joined := ok && session.Joined()
	topic := r.cfg.DefaultTopic
	if joined && session.Topic != "" {
		topic = session.Topic
	}

	if !r.cfg.TrustClientSender {
		if !joined {
			return "", "", domain.ErrNotJoined
		}
		return session.DisplayName, topic, nil
	}

	if strings.TrimSpace(in.Sender) == "" && joined {
		return session.DisplayName, topic, nil
	}
	name, err := r.validateName(in.Sender)
	if err != nil {
		return "", "", err
	}
	return name, topic, nil
}

func (r *EventRouter) validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("%w: empty", domain.ErrInvalidDisplayName)
	}
	if utf8.RuneCountInString(name) > r.cfg.MaxNameLength {
		return "", fmt.Errorf("%w: longer than %d characters", domain.ErrInvalidDisplayName, r.cfg.MaxNameLength)
	}
	return name, nil
}

var _ port.EventRouter = (*EventRouter)(nil)
