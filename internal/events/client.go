package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client follows the live updates of one board over the server's websocket
// endpoint. It handles the subscription handshake, reconnection and duplicate
// suppression.
type Client struct {
	url    string
	header http.Header
	dialer *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	// Reconnection configuration
	maxRetries int
	baseDelay  time.Duration
	readWait   time.Duration

	// Event tracking
	lastSequence int64
}

// NewClient creates a client for boardID on the server at serverURL but does not
// connect. token is sent as a bearer token when non-empty.
func NewClient(serverURL string, boardID int, token string) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + fmt.Sprintf("/api/boards/%d/ws", boardID)

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	return &Client{
		url:        u.String(),
		header:     header,
		dialer:     websocket.DefaultDialer,
		maxRetries: 5,
		baseDelay:  1 * time.Second,
		readWait:   90 * time.Second,
	}, nil
}

// SetHeader sets an extra handshake header, e.g. X-User-ID behind a trusted gateway.
func (c *Client) SetHeader(key, value string) {
	c.header.Set(key, value)
}

// Connect dials the board endpoint and waits for the hello that confirms the
// subscription.
func (c *Client) Connect(ctx context.Context) error {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		return ClassifyConnectError(err, resp)
	}

	var hello Message
	if err := conn.ReadJSON(&hello); err != nil || hello.Type != MessageHello {
		if closeErr := conn.Close(); closeErr != nil {
			slog.Debug("error closing connection", "error", closeErr)
		}
		if err == nil {
			err = fmt.Errorf("unexpected first message %q", hello.Type)
		}
		return fmt.Errorf("failed to read subscription: %w", err)
	}

	conn.SetPingHandler(func(appData string) error {
		if err := conn.SetReadDeadline(time.Now().Add(c.readWait)); err != nil {
			return err
		}
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		_ = conn.Close()
		return fmt.Errorf("client closed")
	}
	c.conn = conn
	// Sequence ids are per server process; start fresh on every connection.
	c.lastSequence = 0
	return nil
}

// Listen starts reading events. The channel is closed when ctx is done, the
// client is closed or reconnection fails.
func (c *Client) Listen(ctx context.Context) (<-chan Event, error) {
	if c == nil {
		ch := make(chan Event)
		close(ch)
		return ch, fmt.Errorf("nil client")
	}
	eventChan := make(chan Event, 10)
	go c.listenLoop(ctx, eventChan)
	return eventChan, nil
}

// listenLoop reads events from the server and handles reconnection.
func (c *Client) listenLoop(ctx context.Context, eventChan chan Event) {
	defer close(eventChan)

	for {
		err := c.readEvents(ctx, eventChan)
		if ctx.Err() != nil || c.isClosed() {
			return
		}
		slog.Warn("connection lost, reconnecting", "url", c.url, "error", err)

		if !c.reconnect(ctx) {
			slog.Error("failed to reconnect, giving up", "attempts", c.maxRetries)
			return
		}
	}
}

// readEvents reads messages from the socket and sends them to the event channel.
func (c *Client) readEvents(ctx context.Context, eventChan chan Event) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("connection closed")
	}

	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.readWait)); err != nil {
			return fmt.Errorf("failed to set read deadline: %w", err)
		}

		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("failed to decode message: %w", err)
		}
		if msg.Type != MessageEvent || msg.Event == nil {
			continue
		}

		// Basic duplicate detection
		if msg.Event.SequenceID <= c.lastSequence {
			continue
		}
		c.lastSequence = msg.Event.SequenceID

		select {
		case eventChan <- *msg.Event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// reconnect attempts to reconnect with exponential backoff.
// It tries up to maxRetries times, doubling the delay each time.
func (c *Client) reconnect(ctx context.Context) bool {
	delay := c.baseDelay

	for i := 0; i < c.maxRetries; i++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
			c.mu.Lock()
			if c.conn != nil {
				_ = c.conn.Close()
				c.conn = nil
			}
			c.mu.Unlock()

			err := c.Connect(ctx)
			if err == nil {
				slog.Info("reconnected", "url", c.url, "attempt", i+1)
				return true
			}
			var ce *ConnectError
			if errors.As(err, &ce) && !ce.Retryable() {
				slog.Error("reconnect rejected", "error", ce)
				return false
			}

			slog.Debug("reconnection attempt failed", "attempt", i+1, "max_retries", c.maxRetries, "retry_delay", delay)
			delay *= 2 // Exponential backoff: 1s, 2s, 4s, 8s, 16s
		}
	}

	return false
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close closes the connection and stops Listen.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.conn == nil {
		return nil
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return c.conn.Close()
}
