// Package server coordinates client registration, event dispatch, and
// connection cleanup for the relay via the Hub type.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomrelay/internal/chat"
)

// Hub owns every websocket client and is the only goroutine that touches
// the chat state. Registration, disconnection and inbound frames are
// serialized through its channels and handled one at a time in Run.
type Hub struct {
	clients    map[*Client]bool
	inbound    chan inbound
	register   chan *Client
	unregister chan *Client
	dispatcher *chat.Dispatcher
	config     Config
	upgrader   websocket.Upgrader
	log        *slog.Logger
	slow       []*Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a Hub around dispatcher. The returned Hub does nothing
// until Run is started.
func NewHub(cfg Config, dispatcher *chat.Dispatcher, log *slog.Logger) *Hub {
	cfg.Sanitize()
	ctx, cancel := context.WithCancel(context.Background())
	origins := newOriginPolicy(cfg.Origins(), log)

	return &Hub{
		clients:    make(map[*Client]bool),
		inbound:    make(chan inbound),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		dispatcher: dispatcher,
		config:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.checkOrigin,
		},
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// NewChatHub builds the chat state described by cfg and a Hub serving it.
func NewChatHub(cfg Config, log *slog.Logger) (*Hub, error) {
	policy, err := cfg.CollisionPolicy()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	dispatcher := chat.NewDispatcher(log, chat.Options{
		Policy:       policy,
		DefaultRooms: cfg.DefaultRoomNames(),
	})
	return NewHub(cfg, dispatcher, log), nil
}

// Register hands a new client to the hub. It returns false when the hub is
// shutting down.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// deliver passes an inbound request to the loop unless the hub is stopping.
func (h *Hub) deliver(msg inbound) bool {
	select {
	case h.inbound <- msg:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// leave reports a client whose read side has ended.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

// ClientCount returns the number of registered clients across all channels.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Run starts the hub's main event loop. It returns once Shutdown is called.
func (h *Hub) Run() {
	defer close(h.done)
	h.log.Info("Hub started and ready to manage WebSocket connections")

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client, "disconnected")

		case msg := <-h.inbound:
			h.handleInbound(msg)
		}

		h.dropSlowClients()
	}
}

func (h *Hub) addClient(client *Client) {
	if client == nil {
		h.log.Warn("Received nil client registration; skipping")
		return
	}

	h.mutex.Lock()
	client.closed = false
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mutex.Unlock()
	client.log.Info("Client registered", "clients", clientCount)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()

	if client.room == "" {
		h.dispatcher.Connect(client.id, client)
		return
	}
	if err := h.dispatcher.ConnectRoom(client.room, client.id, client); err != nil {
		client.log.Warn("Rejecting sub-channel connection", "error", err)
		client.Send(chat.Event{Name: chat.EventError, Data: "Invalid namespace"})
		h.removeClient(client, "unknown room")
	}
}

// removeClient unregisters a client, closes its send channel and tears down
// its chat state. Unknown clients are ignored.
func (h *Hub) removeClient(client *Client, reason string) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client)
	client.closed = true
	clientCount := len(h.clients)
	h.mutex.Unlock()

	// Close the channel after releasing the lock
	close(client.send)

	if client.room == "" {
		h.dispatcher.Disconnect(client.id)
	} else {
		h.dispatcher.DisconnectRoom(client.room, client.id)
	}
	client.log.Info("Client unregistered", "reason", reason, "clients", clientCount)
}

func (h *Hub) handleInbound(msg inbound) {
	h.mutex.RLock()
	_, ok := h.clients[msg.client]
	h.mutex.RUnlock()
	if !ok {
		return
	}

	if msg.client.room == "" {
		h.dispatcher.Dispatch(msg.client.id, msg.request)
	} else {
		h.dispatcher.DispatchRoom(msg.client.room, msg.client.id, msg.request)
	}
}

// markSlow queues a client whose send buffer overflowed.
func (h *Hub) markSlow(c *Client) {
	if c.dropping {
		return
	}
	c.dropping = true
	h.slow = append(h.slow, c)
}

// dropSlowClients removes clients marked during the last event. Removing one
// can broadcast presence and overflow another, so it runs until quiet.
func (h *Hub) dropSlowClients() {
	for len(h.slow) > 0 {
		batch := h.slow
		h.slow = nil
		for _, c := range batch {
			h.removeClient(c, "send buffer full")
		}
	}
}

// shutdownClients closes every client connection and send channel.
func (h *Hub) shutdownClients() {
	h.log.Info("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
		client.closed = true
		delete(h.clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		close(client.send)
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				client.log.Warn("Error closing client connection", "error", err)
			}
		}
	}

	h.log.Info("Closed client connections", "count", len(clients))
}

// Shutdown stops the loop and waits for all client goroutines, or until
// timeout elapses.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
