// Package hub fans board events out to websocket subscribers.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/thenoetrevino/tablero/internal/events"
)

var (
	// ErrBroadcastFull is returned by Publish when the broadcast queue is full.
	ErrBroadcastFull = errors.New("broadcast channel full")

	// ErrClosed is returned once the hub has shut down.
	ErrClosed = fmt.Errorf("hub: %w", events.ErrPublisherClosed)
)

// Config tunes buffer sizes and health checking.
type Config struct {
	BroadcastBuffer int
	ClientBuffer    int
	PingInterval    time.Duration
	PongWait        time.Duration
	WriteWait       time.Duration
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		BroadcastBuffer: 100,
		ClientBuffer:    10,
		PingInterval:    30 * time.Second,
		PongWait:        90 * time.Second,
		WriteWait:       10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BroadcastBuffer <= 0 {
		c.BroadcastBuffer = d.BroadcastBuffer
	}
	if c.ClientBuffer <= 0 {
		c.ClientBuffer = d.ClientBuffer
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.PongWait <= 0 {
		c.PongWait = d.PongWait
	}
	if c.WriteWait <= 0 {
		c.WriteWait = d.WriteWait
	}
	return c
}

// client represents one websocket subscribed to a board
type client struct {
	conn      *websocket.Conn
	boardID   int
	userID    int
	send      chan events.Message
	lastPong  time.Time
	mu        sync.Mutex // Protects lastPong
	closeOnce sync.Once  // Ensures send channel is closed only once
}

// retire stops accepting messages; the writer drains the queue and hangs up.
func (c *client) retire() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// Hub is the live-update fan-out. It implements events.Publisher.
type Hub struct {
	cfg             Config
	logger          *slog.Logger
	upgrader        websocket.Upgrader
	clients         map[*client]bool
	mu              sync.RWMutex
	ctx             context.Context
	cancel          context.CancelFunc
	broadcast       chan events.Event
	metrics         *Metrics
	sequenceCounter atomic.Int64
	closed          atomic.Bool
	shutdownOnce    sync.Once
	done            chan struct{}
}

var _ events.Publisher = (*Hub)(nil)

// New creates a hub. Call Run to start delivering events.
func New(cfg Config, logger *slog.Logger) *Hub {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		cfg:       cfg,
		logger:    logger,
		clients:   make(map[*client]bool),
		ctx:       ctx,
		cancel:    cancel,
		broadcast: make(chan events.Event, cfg.BroadcastBuffer),
		metrics:   NewMetrics(),
		done:      make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// SetCheckOrigin replaces the upgrader's origin check; nil restores same-origin.
func (h *Hub) SetCheckOrigin(fn func(r *http.Request) bool) {
	h.upgrader.CheckOrigin = fn
}

// Run delivers events until ctx is done or Shutdown is called, then shuts down.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	combinedCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-h.ctx.Done():
			cancel()
		case <-combinedCtx.Done():
		}
	}()

	go h.monitorHealth(combinedCtx)
	h.broadcastLoop(combinedCtx)
	h.Shutdown()
}

// Publish queues an event for the board's subscribers without blocking.
func (h *Hub) Publish(event events.Event) error {
	if h.closed.Load() {
		return ErrClosed
	}
	select {
	case h.broadcast <- event:
		h.metrics.IncEventsPublished()
		return nil
	default:
		return ErrBroadcastFull
	}
}

// ServeBoard upgrades the request and subscribes the connection to boardID on
// behalf of userID. Authorization happens before this call.
func (h *Hub) ServeBoard(w http.ResponseWriter, r *http.Request, boardID, userID int) error {
	if h.closed.Load() {
		http.Error(w, ErrClosed.Error(), http.StatusServiceUnavailable)
		return ErrClosed
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade failed: %w", err)
	}

	c := &client{
		conn:     conn,
		boardID:  boardID,
		userID:   userID,
		send:     make(chan events.Message, h.cfg.ClientBuffer),
		lastPong: time.Now(),
	}
	c.send <- events.Message{Type: events.MessageHello, BoardID: boardID}

	// Shutdown may have run during the upgrade.
	h.mu.Lock()
	if h.closed.Load() {
		h.mu.Unlock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ErrClosed.Error()),
			time.Now().Add(h.cfg.WriteWait))
		_ = conn.Close()
		return ErrClosed
	}
	h.clients[c] = true
	h.mu.Unlock()
	h.updateClientCount()

	h.logger.Info("client connected", "board_id", boardID, "user_id", userID, "clients", h.getClientCount())

	go h.clientWriter(c)
	go h.handleClient(c)
	return nil
}

// broadcastLoop distributes events to subscribed clients
func (h *Hub) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event := <-h.broadcast:
			// Add sequence number to event
			event.SequenceID = h.sequenceCounter.Add(1)
			h.metrics.IncBroadcastsTotal()

			msg := events.Message{Type: events.MessageEvent, Event: &event}
			removed := removedUser(event)

			var leaving []*client
			h.mu.RLock()
			for c := range h.clients {
				if c.boardID != event.BoardID {
					continue
				}
				// Non-blocking send - if client is slow, skip
				if !h.sendToClient(c, msg) {
					h.metrics.IncEventsDropped()
					h.logger.Warn("client send queue full, event dropped",
						"board_id", c.boardID, "user_id", c.userID, "sequence_id", event.SequenceID)
				}
				if event.Type == events.BoardDeleted || (removed != 0 && c.userID == removed) {
					leaving = append(leaving, c)
				}
			}
			h.mu.RUnlock()

			h.dropClients(leaving)
		}
	}
}

// removedUser returns the member an event takes off the board, or 0.
func removedUser(event events.Event) int {
	if event.Type != events.MemberKicked && event.Type != events.MemberLeft {
		return 0
	}
	var p events.MemberPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return 0
	}
	return p.UserID
}

// handleClient reads from the connection until it fails. Subscribers do not send
// data; reading is what processes pongs and close frames.
func (h *Hub) handleClient(c *client) {
	defer func() {
		h.removeClient(c)
		h.logger.Info("client disconnected", "board_id", c.boardID, "user_id", c.userID, "clients", h.getClientCount())
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.mu.Lock()
		c.lastPong = time.Now()
		c.mu.Unlock()
		return c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// clientWriter sends queued messages to a client
func (h *Hub) clientWriter(c *client) {
	defer func() {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(h.cfg.WriteWait))
		_ = c.conn.Close()
	}()

	for msg := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait)); err != nil {
			return
		}
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// monitorHealth pings every client and removes those that stopped answering
func (h *Hub) monitorHealth(ctx context.Context) {
	pingTicker := time.NewTicker(h.cfg.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-pingTicker.C:
			// Collect clients first, then process outside of the hub lock
			h.mu.RLock()
			clients := make([]*client, 0, len(h.clients))
			for c := range h.clients {
				clients = append(clients, c)
			}
			h.mu.RUnlock()

			now := time.Now()
			for _, c := range clients {
				c.mu.Lock()
				lastPong := c.lastPong
				c.mu.Unlock()

				if now.Sub(lastPong) > h.cfg.PongWait {
					h.logger.Warn("removing stale client", "board_id", c.boardID, "last_pong", now.Sub(lastPong))
					h.removeClient(c)
					continue
				}
				if err := c.conn.WriteControl(websocket.PingMessage, nil, now.Add(h.cfg.WriteWait)); err != nil {
					h.logger.Debug("failed to ping client", "board_id", c.boardID, "error", err)
				}
			}
		}
	}
}

// Shutdown disconnects every client and stops the hub. It is safe to call more
// than once and from any goroutine.
func (h *Hub) Shutdown() {
	h.shutdownOnce.Do(func() {
		h.logger.Info("shutting down hub")
		h.closed.Store(true)
		h.cancel()

		h.mu.Lock()
		for c := range h.clients {
			c.retire()
		}
		h.clients = make(map[*client]bool)
		h.mu.Unlock()
		h.updateClientCount()
	})
}

// Done is closed when Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Metrics returns a snapshot of the hub counters.
func (h *Hub) Metrics() MetricsSnapshot {
	return h.metrics.Snapshot()
}

// Helper methods

func (h *Hub) getClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) updateClientCount() {
	h.metrics.SetConnectedClients(int32(h.getClientCount()))
}

// removeClient safely removes a client from the hub
func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()

	c.retire()
	if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		h.logger.Debug("error closing client connection", "error", err)
	}

	h.updateClientCount()
}

// dropClients unsubscribes clients whose access ended. Their writers still flush
// what is queued, so the event that removed them is delivered.
func (h *Hub) dropClients(clients []*client) {
	if len(clients) == 0 {
		return
	}
	h.mu.Lock()
	for _, c := range clients {
		delete(h.clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.retire()
	}
	h.updateClientCount()
}

// sendToClient attempts to send a message to a client (non-blocking)
// Returns true if successful, false if the queue is full
func (h *Hub) sendToClient(c *client, msg events.Message) bool {
	select {
	case c.send <- msg:
		h.metrics.IncEventsSent()
		return true
	default:
		return false
	}
}
