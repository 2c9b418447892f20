package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"chatWs/internal/modules/chat/application/port"
	"chatWs/internal/modules/chat/domain"
)

// BrokerOptions tunes fan-out policy.
type BrokerOptions struct {
	// SlowConsumerLimit is the number of consecutive drops after which a connection is
	// force-closed. Zero disables forced closes.
	SlowConsumerLimit int
	// AnnounceLeave publishes a LEAVE event for joined connections once they close.
	AnnounceLeave bool
	Logger        *slog.Logger
}

// BrokerStats are cumulative counters since the broker was created.
type BrokerStats struct {
	Connections  int   `json:"connections"`
	Published    int64 `json:"published"`
	Delivered    int64 `json:"delivered"`
	Dropped      int64 `json:"dropped"`
	Skipped      int64 `json:"skipped"`
	Rejected     int64 `json:"rejected"`
	ForcedCloses int64 `json:"forcedCloses"`
}

// Broker is the fan-out engine. It owns topic membership and sessions, routes inbound
// frames and enqueues each published event on every subscriber's connection.
type Broker struct {
	registry port.TopicRegistry
	sessions port.SessionStore
	router   port.EventRouter
	codec    port.Codec
	clock    port.Clock
	opts     BrokerOptions
	logger   *slog.Logger

	conns map[string]*Connection
	mu    sync.RWMutex

	published    atomic.Int64
	delivered    atomic.Int64
	dropped      atomic.Int64
	skipped      atomic.Int64
	rejected     atomic.Int64
	forcedCloses atomic.Int64
}

func NewBroker(registry port.TopicRegistry, sessions port.SessionStore, router port.EventRouter, codec port.Codec, clock port.Clock, opts BrokerOptions) *Broker {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if codec == nil {
		codec = JSONCodec{}
	}
	if clock == nil {
		clock = NewMonotonicClock(nil)
	}
	return &Broker{
		registry: registry,
		sessions: sessions,
		router:   router,
		codec:    codec,
		clock:    clock,
		opts:     opts,
		logger:   logger,
		conns:    make(map[string]*Connection),
	}
}

// Connect registers a live connection and returns its id.
func (b *Broker) Connect(conn *Connection) string {
	b.mu.Lock()
	b.conns[conn.ID()] = conn
	total := len(b.conns)
	b.mu.Unlock()

	conn.AddCloseHook(b.onClosed)
	b.logger.Info("chat connection registered", slog.String("connectionId", conn.ID()), slog.Int("connections", total))
	return conn.ID()
}

// Disconnect starts closing the connection. Cleanup happens once it reaches StateClosed.
func (b *Broker) Disconnect(connectionID string) error {
	conn, ok := b.lookup(connectionID)
	if !ok {
		return fmt.Errorf("disconnect %s: %w", connectionID, domain.ErrConnectionNotFound)
	}
	conn.Close()
	return nil
}

// HandleMessage decodes and routes one inbound frame and publishes the result. Frames
// from a single connection must be handed over sequentially to keep their order.
func (b *Broker) HandleMessage(ctx context.Context, connectionID string, raw []byte) error {
	conn, ok := b.lookup(connectionID)
	if !ok {
		return fmt.Errorf("inbound for %s: %w", connectionID, domain.ErrConnectionNotFound)
	}
	if conn.State() != domain.StateOpen {
		b.logger.Debug("inbound ignored on closing connection", slog.String("connectionId", connectionID))
		return nil
	}

	in, err := b.codec.Decode(raw)
	if err != nil {
		b.rejected.Add(1)
		b.logger.Warn("chat inbound decode failed", slog.String("connectionId", connectionID), slog.Any("error", err))
		return err
	}

	route, err := b.router.Route(ctx, connectionID, in)
	if err != nil {
		b.rejected.Add(1)
		b.logger.Warn("chat inbound dropped", slog.String("connectionId", connectionID), slog.String("type", string(in.Type)), slog.String("destination", in.Destination), slog.Any("error", err))
		return err
	}
	b.reconcileClosed(conn)

	b.Publish(ctx, route.Topic, route.Event)
	return nil
}

// reconcileClosed undoes memberships a late JOIN may have added after the close hook ran.
func (b *Broker) reconcileClosed(conn *Connection) {
	if conn.State() != domain.StateClosed {
		return
	}
	b.registry.UnsubscribeAll(conn.ID())
	b.sessions.Remove(conn.ID())
}

// Publish enqueues the event on every member of topic at the time of the call. Failures
// are contained per connection and only reflected in the result.
func (b *Broker) Publish(_ context.Context, topic string, event domain.Event) port.PublishResult {
	members := b.registry.Members(topic)
	result := port.PublishResult{Topic: topic, Members: len(members)}
	b.published.Add(1)

	for _, id := range members {
		conn, ok := b.lookup(id)
		if !ok {
			result.Skipped++
			b.logger.Debug("fan-out skipped", slog.String("topic", topic), slog.String("connectionId", id), slog.Any("error", domain.ErrConnectionNotFound))
			continue
		}
		if err := conn.Enqueue(event); err != nil {
			if errors.Is(err, domain.ErrConnectionClosed) {
				result.Skipped++
				continue
			}
			result.Dropped++
			b.logger.Warn("fan-out dropped for slow consumer", slog.String("topic", topic), slog.String("connectionId", id), slog.Int("capacity", conn.Capacity()), slog.Any("error", err))
			b.applySlowConsumerPolicy(conn)
			continue
		}
		result.Delivered++
	}

	b.delivered.Add(int64(result.Delivered))
	b.dropped.Add(int64(result.Dropped))
	b.skipped.Add(int64(result.Skipped))
	b.logger.Debug("chat event published", slog.String("topic", topic), slog.String("type", string(event.Type)), slog.Int("members", result.Members), slog.Int("delivered", result.Delivered), slog.Int("dropped", result.Dropped))
	return result
}

func (b *Broker) applySlowConsumerPolicy(conn *Connection) {
	limit := b.opts.SlowConsumerLimit
	if limit <= 0 || conn.ConsecutiveDrops() < limit || conn.State() != domain.StateOpen {
		return
	}
	b.forcedCloses.Add(1)
	b.logger.Warn("closing slow consumer", slog.String("connectionId", conn.ID()), slog.Int("drops", conn.ConsecutiveDrops()))
	go conn.Close()
}

func (b *Broker) onClosed(conn *Connection) {
	id := conn.ID()
	b.mu.Lock()
	delete(b.conns, id)
	total := len(b.conns)
	b.mu.Unlock()

	topics := b.registry.UnsubscribeAll(id)
	session, ok := b.sessions.Remove(id)
	b.logger.Info("chat connection closed", slog.String("connectionId", id), slog.Any("topics", topics), slog.Int("connections", total))

	if !b.opts.AnnounceLeave || !ok || !session.Joined() {
		return
	}
	leave := domain.Event{
		Type:      domain.KindLeave,
		Content:   domain.LeftContent(session.DisplayName),
		Sender:    session.DisplayName,
		Timestamp: b.clock.NowMillis(),
	}
	b.Publish(context.Background(), session.Topic, leave)
}

func (b *Broker) lookup(connectionID string) (*Connection, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	conn, ok := b.conns[connectionID]
	return conn, ok
}

// Connection returns the live connection with the given id.
func (b *Broker) Connection(connectionID string) (*Connection, bool) {
	return b.lookup(connectionID)
}

func (b *Broker) Stats() BrokerStats {
	b.mu.RLock()
	total := len(b.conns)
	b.mu.RUnlock()
	return BrokerStats{
		Connections:  total,
		Published:    b.published.Load(),
		Delivered:    b.delivered.Load(),
		Dropped:      b.dropped.Load(),
		Skipped:      b.skipped.Load(),
		Rejected:     b.rejected.Load(),
		ForcedCloses: b.forcedCloses.Load(),
	}
}

// Shutdown closes every live connection and waits until all of them are closed or ctx ends.
func (b *Broker) Shutdown(ctx context.Context) error {
	b.mu.RLock()
	conns := make([]*Connection, 0, len(b.conns))
	for _, c := range b.conns {
		conns = append(conns, c)
	}
	b.mu.RUnlock()

	b.logger.Info("closing chat connections", slog.Int("connections", len(conns)))
	for _, c := range conns {
		c.Close()
	}
	for _, c := range conns {
		select {
		case <-c.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

var _ port.Publisher = (*Broker)(nil)
