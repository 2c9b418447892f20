package infrastructure

import (
	"context"
	"iter"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"chatWs/internal/modules/chat/domain"
)

// DefaultQueueCapacity is used when a non-positive capacity is requested.
const DefaultQueueCapacity = 256

// Connection is one client's live link as seen by the broker: a bounded FIFO of
// outbound events plus a lifecycle state that only moves forward.
type Connection struct {
	id       string
	capacity int

	mu       sync.Mutex
	state    domain.ConnectionState
	queue    []domain.Event
	draining bool
	drops    int

	wake chan struct{}
	done chan struct{}

	closeHooks []func(*Connection)
	hooksFired bool
	hookMu     sync.Mutex
}

// NewConnection assigns a fresh id and an empty queue bounded by capacity.
func NewConnection(capacity int) *Connection {
	return newConnectionWithID(uuid.NewString(), capacity)
}

func newConnectionWithID(id string, capacity int) *Connection {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Connection{
		id:       id,
		capacity: capacity,
		state:    domain.StateOpen,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) Capacity() int { return c.capacity }

func (c *Connection) State() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Len reports the number of pending outbound events.
func (c *Connection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// ConsecutiveDrops counts enqueue rejections since the last accepted event.
func (c *Connection) ConsecutiveDrops() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drops
}

// Done is closed once the connection reaches StateClosed and its close hooks have run.
func (c *Connection) Done() <-chan struct{} { return c.done }

// Enqueue appends the event without ever blocking. It fails with domain.ErrQueueFull when
// the queue is at capacity and with domain.ErrConnectionClosed (also an ErrQueueFull) once
// the connection is closed.
func (c *Connection) Enqueue(event domain.Event) error {
	c.mu.Lock()
	if c.state == domain.StateClosed {
		c.mu.Unlock()
		return domain.ErrConnectionClosed
	}
	if len(c.queue) >= c.capacity {
		c.drops++
		c.mu.Unlock()
		return domain.ErrQueueFull
	}
	c.queue = append(c.queue, event)
	c.drops = 0
	c.mu.Unlock()
	c.signal()
	return nil
}

// Drain yields queued events in FIFO order, waiting for new ones while the connection is
// open. The sequence ends once the queue is empty after Close, when ctx is cancelled, or
// when the consumer stops iterating. Only one drain may run at a time; a second concurrent
// drain yields nothing.
func (c *Connection) Drain(ctx context.Context) iter.Seq[domain.Event] {
	return func(yield func(domain.Event) bool) {
		if !c.beginDrain() {
			slog.Debug("connection drain rejected", slog.String("connectionId", c.id), slog.Any("error", domain.ErrDrainActive))
			return
		}
		defer c.endDrain()

		for {
			event, ok, finished := c.next()
			if ok {
				if !yield(event) {
					return
				}
				continue
			}
			if finished {
				return
			}
			select {
			case <-c.wake:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Close moves the connection to StateClosing. If a drain is running it flushes what is
// left and then marks the connection closed; otherwise pending events are discarded and
// the connection is closed immediately. Calling Close more than once is a no-op.
func (c *Connection) Close() {
	c.mu.Lock()
	if c.state != domain.StateOpen {
		c.mu.Unlock()
		return
	}
	c.state = domain.StateClosing
	draining := c.draining
	c.mu.Unlock()

	if draining {
		c.signal()
		return
	}
	c.finalize()
}

// AddCloseHook registers a callback executed once when the connection reaches
// StateClosed. Hooks added after that point run immediately.
func (c *Connection) AddCloseHook(fn func(*Connection)) {
	if fn == nil {
		return
	}
	c.hookMu.Lock()
	if c.hooksFired {
		c.hookMu.Unlock()
		runCloseHook(c, fn)
		return
	}
	c.closeHooks = append(c.closeHooks, fn)
	c.hookMu.Unlock()
}

func (c *Connection) beginDrain() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draining || c.state == domain.StateClosed {
		return false
	}
	c.draining = true
	return true
}

func (c *Connection) endDrain() {
	c.mu.Lock()
	c.draining = false
	closing := c.state == domain.StateClosing
	c.mu.Unlock()
	if closing {
		c.finalize()
	}
}

func (c *Connection) next() (domain.Event, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) > 0 {
		event := c.queue[0]
		c.queue[0] = domain.Event{}
		c.queue = c.queue[1:]
		if len(c.queue) == 0 {
			c.queue = nil
		}
		return event, true, false
	}
	return domain.Event{}, false, c.state != domain.StateOpen
}

func (c *Connection) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Connection) finalize() {
	c.mu.Lock()
	if c.state == domain.StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = domain.StateClosed
	discarded := len(c.queue)
	c.queue = nil
	c.mu.Unlock()

	if discarded > 0 {
		slog.Debug("connection closed with pending events", slog.String("connectionId", c.id), slog.Int("discarded", discarded))
	}

	c.hookMu.Lock()
	hooks := c.closeHooks
	c.closeHooks = nil
	c.hooksFired = true
	c.hookMu.Unlock()

	for _, hook := range hooks {
		runCloseHook(c, hook)
	}
	close(c.done)
}

func runCloseHook(c *Connection, hook func(*Connection)) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("connection close hook panic", slog.String("connectionId", c.id), slog.Any("error", r))
		}
	}()
	hook(c)
}
