package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"tomotachi/backend/internal/events"
)

// clientBuffer is how many undelivered messages a client may hold before new
// ones are dropped for it.
const clientBuffer = 16

// Client is one open stream for an identity. The SSE handler reads from it
// until it is closed.
type Client chan []byte

// Hub tracks the open streams of every identity.
type Hub struct {
	clients map[string]map[Client]struct{}
	closed  bool
	mu      sync.RWMutex
	logger  *zap.Logger
}

var _ events.Publisher = (*Hub)(nil)

// New creates an empty Hub.
func New(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]map[Client]struct{}),
		logger:  logger,
	}
}

// Subscribe opens a new stream for email. After CloseAll the returned stream
// is already closed.
func (h *Hub) Subscribe(email string) Client {
	client := make(Client, clientBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(client)
		return client
	}
	if _, ok := h.clients[email]; !ok {
		h.clients[email] = make(map[Client]struct{})
	}
	h.clients[email][client] = struct{}{}
	return client
}

// Unsubscribe removes and closes a stream. Calling it twice is harmless.
func (h *Hub) Unsubscribe(email string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[email]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client)
	if len(clients) == 0 {
		delete(h.clients, email)
	}
}

// CloseAll closes every open stream and refuses new ones. Readers drain what
// is already buffered and then see the channel closed.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for email, clients := range h.clients {
		for client := range clients {
			close(client)
			n++
		}
		delete(h.clients, email)
	}
	h.closed = true
	h.logger.Info("closed event streams", zap.Int("streams", n))
}

// Connected returns the number of open streams for email.
func (h *Hub) Connected(email string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[email])
}

// Broadcast sends message to every stream of email without blocking.
// Streams whose buffer is full miss the message.
func (h *Hub) Broadcast(email string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[email] {
		select {
		case client <- message:
		default:
			h.logger.Warn("dropping event for slow client", zap.String("email", email))
		}
	}
}

// Publish delivers ev to the open streams of its audience.
func (h *Hub) Publish(_ context.Context, ev events.Event) error {
	if len(ev.Audience) == 0 {
		return nil
	}
	message, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	for _, email := range ev.Audience {
		h.Broadcast(email, message)
	}
	return nil
}
