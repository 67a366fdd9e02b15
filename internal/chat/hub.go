// Package chat relays chat events to connected WebSocket clients.
package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/justsurfingit/job-portal/internal/services"
	"go.uber.org/zap"
)

// Publisher fans events out to every instance, this one included.
type Publisher interface {
	Publish(ctx context.Context, userIDs []uint, event services.ChatEvent) error
}

// Hub tracks live connections per user. It implements services.ChatNotifier.
type Hub struct {
	mu      sync.Mutex
	clients map[uint]map[*Client]struct{}

	publisher Publisher
	log       *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{clients: make(map[uint]map[*Client]struct{}), log: log}
}

// UsePublisher routes Notify through p instead of delivering locally.
func (h *Hub) UsePublisher(p Publisher) {
	h.mu.Lock()
	h.publisher = p
	h.mu.Unlock()
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

// Connected reports how many sockets the user has open on this instance.
func (h *Hub) Connected(userID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

func (h *Hub) Notify(userIDs []uint, event services.ChatEvent) {
	h.mu.Lock()
	p := h.publisher
	h.mu.Unlock()

	if p != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		err := p.Publish(ctx, userIDs, event)
		if err == nil {
			return
		}
		h.log.Warn("chat publish failed, delivering locally", zap.Error(err))
	}
	h.Deliver(userIDs, event)
}

// Deliver sends the event to this instance's connections for userIDs.
func (h *Hub) Deliver(userIDs []uint, event services.ChatEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal chat event", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	seen := make(map[uint]bool, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		for c := range h.clients[id] {
			h.sendLocked(c, payload)
		}
	}
}

// Close disconnects every client. Used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for c := range set {
			h.removeLocked(c)
		}
	}
}

func (h *Hub) sendTo(c *Client, event services.ChatEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendLocked(c, payload)
}

func (h *Hub) sendLocked(c *Client, payload []byte) {
	if _, ok := h.clients[c.userID][c]; !ok {
		return
	}
	select {
	case c.send <- payload:
	default:
		// drop if slow
		h.log.Warn("dropping slow chat client", zap.Uint("user_id", c.userID))
		h.removeLocked(c)
	}
}

// removeLocked is the only place a client's send channel is closed.
func (h *Hub) removeLocked(c *Client) {
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
}
