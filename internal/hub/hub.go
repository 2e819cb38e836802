package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"trajview/internal/render"
)

// Message types exchanged over the dashboard socket.
const (
	TypeFrame  = "frame"
	TypeTable  = "table"
	TypeToggle = "toggle"
	TypePing   = "ping"
	TypePong   = "pong"
	TypeError  = "error"
)

// Message is the envelope for every socket message
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Encode marshals a message envelope.
func Encode(msgType string, payload any) ([]byte, error) {
	return json.Marshal(Message{Type: msgType, Payload: payload})
}

type Client struct {
	ID   string
	Send chan []byte

	mu      sync.Mutex
	lastSeq uint64
	closed  bool
}

func NewClient(id string, bufferSize int) *Client {
	return &Client{
		ID:   id,
		Send: make(chan []byte, bufferSize),
	}
}

// markSeq records seq as delivered and reports whether it is newer than
// anything the client has already been sent.
func (c *Client) markSeq(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != 0 && seq <= c.lastSeq {
		return false
	}
	c.lastSeq = seq
	return true
}

// Deliver queues raw data without blocking. It reports false when the
// buffer is full or the client is already gone.
func (c *Client) Deliver(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// LastSeq is the sequence of the newest frame queued for the client.
func (c *Client) LastSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeq
}

// Hub fans every published frame out to all connected dashboards.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	register   chan registration
	unregister chan *Client
	publish    chan render.Frame
	done       chan struct{}

	published atomic.Int64
	dropped   atomic.Int64

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan registration),
		unregister: make(chan *Client, 16),
		publish:    make(chan render.Frame, 256),
		done:       make(chan struct{}),
		logger:     logger.With("component", "hub"),
	}
}

type registration struct {
	client *Client
	added  chan struct{}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case reg := <-h.register:
			h.mu.Lock()
			h.clients[reg.client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			close(reg.added)
			h.logger.Debug("client registered", "client_id", reg.client.ID, "total", total)

		case client := <-h.unregister:
			h.removeClient(client)

		case frame := <-h.publish:
			h.fanoutFrame(frame)
		}
	}
}

// Publish queues a frame for fan-out. It never blocks; when the queue is
// full the frame is dropped.
func (h *Hub) Publish(frame render.Frame) {
	select {
	case h.publish <- frame:
		h.published.Add(1)
	default:
		h.dropped.Add(1)
		h.logger.Warn("publish channel full, dropping frame", "seq", frame.Seq)
	}
}

// Register adds a client and returns once it is part of the fan-out set:
// every frame published after Register returns reaches it. It reports false
// when the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	reg := registration{client: client, added: make(chan struct{})}
	select {
	case h.register <- reg:
	case <-h.done:
		return false
	}
	<-reg.added
	return true
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SendFrame queues a frame for a single client, used for the initial frame
// on connect. Call it after Register: a frame older than one the client
// already got is skipped.
func (h *Hub) SendFrame(client *Client, frame render.Frame) bool {
	if !client.markSeq(frame.Seq) {
		return false
	}
	data, err := Encode(TypeFrame, frame)
	if err != nil {
		h.logger.Error("failed to encode frame", "error", err)
		return false
	}
	return client.Deliver(data)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Published counts frames accepted for fan-out.
func (h *Hub) Published() int64 {
	return h.published.Load()
}

// Dropped counts frames dropped because the publish queue was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

func (h *Hub) fanoutFrame(frame render.Frame) {
	data, err := Encode(TypeFrame, frame)
	if err != nil {
		h.logger.Error("failed to encode frame", "seq", frame.Seq, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if !client.markSeq(frame.Seq) {
			continue
		}
		if !client.Deliver(data) {
			h.logger.Debug("client send buffer full", "client_id", client.ID)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	client.close()
	h.logger.Debug("client unregistered", "client_id", client.ID, "total", len(h.clients))
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.close()
	}
	h.clients = make(map[*Client]struct{})
}
