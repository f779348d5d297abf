package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/smarthouse-core/internal/device"
	"github.com/nerrad567/smarthouse-core/internal/infrastructure/config"
	"github.com/nerrad567/smarthouse-core/internal/infrastructure/logging"
)

// feedSendBuffer is the per-client outbound queue. A client that falls this
// far behind misses events.
const feedSendBuffer = 256

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS middleware has already vetted the origin.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// Hub tracks feed clients and fans domain events out to them.
type Hub struct {
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[*feedClient]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*feedClient]struct{}),
	}
}

// Run blocks until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		if c.conn != nil {
			c.conn.Close()
		}
		delete(h.clients, c)
	}
}

// Register adds a client.
func (h *Hub) Register(c *feedClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("feed client connected", "clients", n)
}

// Unregister removes a client. Only the call that removes it closes its
// queue, so Unregister racing Run never closes twice.
func (h *Hub) Unregister(c *feedClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		close(c.send)
		h.logger.Debug("feed client disconnected", "clients", n)
	}
}

// Broadcast queues an event for every client subscribed to it.
func (h *Hub) Broadcast(eventType string, payload any) {
	data, err := json.Marshal(FeedMessage{
		Type:      FeedEvent,
		Event:     eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("failed to marshal feed event", "event", eventType, "error", err)
		return
	}

	// Client locks are taken after the hub lock is released.
	h.mu.RLock()
	clients := make([]*feedClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if c.receives(eventType) {
			c.enqueue(data)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handleWebSocket upgrades to the event feed. ?channels=device.*,room.created
// subscribes up front; an unknown channel is rejected before the upgrade.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	var initial []string
	if q := r.URL.Query().Get("channels"); q != "" {
		known, unknown := splitChannels(strings.Split(q, ","))
		if len(unknown) > 0 {
			writeBadRequest(w, "unknown channels: "+strings.Join(unknown, ", "))
			return
		}
		initial = known
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := newFeedClient(s.hub, s, conn)
	c.subscribe(initial)
	s.hub.Register(c)
	if wantsDeviceStates(initial) {
		c.sendSnapshot("")
	}

	t := timingsFor(s.wsCfg)
	go c.writePump(t)
	go c.readPump(t)
}

// feedClient is one feed connection. conn and backend are nil for clients
// that only receive broadcasts.
type feedClient struct {
	hub     *Hub
	backend feedBackend
	conn    *websocket.Conn
	send    chan []byte

	mu   sync.RWMutex
	subs map[string]struct{}
}

func newFeedClient(hub *Hub, backend feedBackend, conn *websocket.Conn) *feedClient {
	return &feedClient{
		hub:     hub,
		backend: backend,
		conn:    conn,
		send:    make(chan []byte, feedSendBuffer),
		subs:    make(map[string]struct{}),
	}
}

func (c *feedClient) subscribe(chs []string) {
	c.mu.Lock()
	for _, ch := range chs {
		c.subs[ch] = struct{}{}
	}
	c.mu.Unlock()
}

func (c *feedClient) unsubscribe(chs []string) {
	c.mu.Lock()
	for _, ch := range chs {
		delete(c.subs, ch)
	}
	c.mu.Unlock()
}

func (c *feedClient) receives(eventType string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for sub := range c.subs {
		if channelMatches(sub, eventType) {
			return true
		}
	}
	return false
}

// enqueue drops data when the queue is full or already closed.
func (c *feedClient) enqueue(data []byte) {
	defer func() {
		recover() //nolint:errcheck // send on a queue closed by Unregister
	}()
	select {
	case c.send <- data:
	default:
	}
}

func (c *feedClient) reply(id, msgType string, payload any) {
	data, err := json.Marshal(FeedMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		return
	}
	c.enqueue(data)
}

func (c *feedClient) sendError(id, message string) {
	c.reply(id, FeedError, map[string]string{"message": message})
}

// sendSnapshot sends every device's current state so a client following
// state changes starts from a known view.
func (c *feedClient) sendSnapshot(id string) {
	if c.backend == nil {
		return
	}
	devices, err := c.backend.deviceSnapshot(context.Background())
	if err != nil {
		c.sendError(id, "device snapshot unavailable: "+err.Error())
		return
	}
	if devices == nil {
		devices = []device.Device{}
	}
	c.reply(id, FeedSnapshot, devices)
}

// handle dispatches one client message.
func (c *feedClient) handle(data []byte) {
	var req FeedRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("", "invalid JSON message")
		return
	}

	switch req.Type {
	case FeedSubscribe:
		known, unknown := splitChannels(req.Channels)
		switch {
		case len(unknown) > 0:
			c.sendError(req.ID, "unknown channels: "+strings.Join(unknown, ", "))
			return
		case len(known) == 0:
			c.sendError(req.ID, "no channels given")
			return
		}
		c.subscribe(known)
		c.reply(req.ID, FeedResponse, map[string]any{"subscribed": known})
		if wantsDeviceStates(known) {
			c.sendSnapshot(req.ID)
		}

	case FeedUnsubscribe:
		known, _ := splitChannels(req.Channels)
		c.unsubscribe(known)
		c.reply(req.ID, FeedResponse, map[string]any{"unsubscribed": known})

	case FeedPing:
		c.reply(req.ID, FeedPong, nil)

	case FeedToggle:
		if c.backend == nil {
			c.sendError(req.ID, "toggle unavailable")
			return
		}
		d, err := c.backend.toggleDevice(context.Background(), req.DeviceID, "websocket")
		if err != nil {
			c.sendError(req.ID, err.Error())
			return
		}
		c.reply(req.ID, FeedResponse, d)

	default:
		c.sendError(req.ID, "unknown message type: "+req.Type)
	}
}

// feedTimings are the connection limits derived from the websocket config.
type feedTimings struct {
	readLimit int64
	ping      time.Duration
	idle      time.Duration // read deadline: one ping interval plus the pong wait
	write     time.Duration
}

func timingsFor(cfg config.WebSocketConfig) feedTimings {
	ping := time.Duration(cfg.PingInterval) * time.Second
	pong := time.Duration(cfg.PongTimeout) * time.Second
	return feedTimings{
		readLimit: int64(cfg.MaxMessageSize),
		ping:      ping,
		idle:      ping + pong,
		write:     pong,
	}
}

func (c *feedClient) readPump(t feedTimings) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(t.idle)) }
	c.conn.SetReadLimit(t.readLimit)
	extend() //nolint:errcheck // a failed deadline surfaces as a read error
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("feed read error", "error", err)
			}
			return
		}
		// Application messages count as liveness too.
		extend() //nolint:errcheck // a failed deadline surfaces as a read error
		c.handle(data)
	}
}

func (c *feedClient) writePump(t feedTimings) {
	ticker := time.NewTicker(t.ping)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	write := func(kind int, data []byte) error {
		c.conn.SetWriteDeadline(time.Now().Add(t.write)) //nolint:errcheck // a failed deadline surfaces as a write error
		return c.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				write(websocket.CloseMessage, nil) //nolint:errcheck // closing anyway
				return
			}
			if err := write(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
