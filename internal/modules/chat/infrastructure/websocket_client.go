package infrastructure

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"chatWs/internal/modules/chat/application/port"
	"chatWs/internal/modules/chat/domain"
)

// ClientConfig holds websocket timing and size limits.
type ClientConfig struct {
	PingInterval   time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 60 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 4096
	}
	return c
}

// Client binds a gorilla websocket to a broker Connection: ReadPump feeds inbound frames
// to the broker, WritePump drains the connection queue onto the socket.
type Client struct {
	broker *Broker
	conn   *websocket.Conn
	link   *Connection
	codec  port.Codec
	cfg    ClientConfig
	remote string
}

func NewClient(broker *Broker, conn *websocket.Conn, link *Connection, codec port.Codec, cfg ClientConfig, remote string) *Client {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &Client{
		broker: broker,
		conn:   conn,
		link:   link,
		codec:  codec,
		cfg:    cfg.withDefaults(),
		remote: remote,
	}
}

func (c *Client) ID() string { return c.link.ID() }

func (c *Client) WritePump(ctx context.Context) {
	stopPing := make(chan struct{})
	go c.pingLoop(stopPing)
	defer func() {
		close(stopPing)
		deadline := time.Now().Add(c.cfg.WriteTimeout)
		_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = c.conn.Close()
	}()

	for event := range c.link.Drain(ctx) {
		data, err := c.codec.Encode(event)
		if err != nil {
			slog.Error("websocket encode error", slog.String("connectionId", c.ID()), slog.Any("error", err))
			continue
		}
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Warn("websocket write error", slog.String("connectionId", c.ID()), slog.Any("error", err))
			return
		}
	}
}

func (c *Client) pingLoop(stop <-chan struct{}) {
	ping := time.NewTicker(c.cfg.PingInterval)
	defer ping.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.cfg.WriteTimeout)); err != nil {
				slog.Debug("websocket ping error", slog.String("connectionId", c.ID()), slog.Any("error", err))
				return
			}
		}
	}
}

// ReadPump processes frames in arrival order and disconnects the client when the socket
// fails or is closed by the peer.
func (c *Client) ReadPump(ctx context.Context) {
	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	})
	defer func() {
		if err := c.broker.Disconnect(c.ID()); err != nil && !errors.Is(err, domain.ErrConnectionNotFound) {
			slog.Warn("websocket disconnect error", slog.String("connectionId", c.ID()), slog.Any("error", err))
		}
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && c.link.State() == domain.StateOpen {
				slog.Warn("websocket read error", slog.String("connectionId", c.ID()), slog.String("remote", c.remote), slog.Any("error", err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		if err := c.broker.HandleMessage(ctx, c.ID(), data); err != nil {
			slog.Debug("websocket inbound rejected", slog.String("connectionId", c.ID()), slog.Any("error", err))
		}
	}
}
