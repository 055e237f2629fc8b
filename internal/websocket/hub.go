package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"product-catalog-api/internal/event"
)

// Hub fans catalog events from the bus out to every connected client.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	bus        event.Bus
	done       chan struct{}
}

func NewHub(bus event.Bus) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		bus:        bus,
		done:       make(chan struct{}),
	}
}

// Run blocks until ctx is cancelled or the bus subscription closes.
func (h *Hub) Run(ctx context.Context) {
	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
			slog.Debug("websocket client connected", "user", client.username, "clients", len(h.clients))
		case client := <-h.unregister:
			h.remove(client)
		case e, ok := <-events:
			if !ok {
				return
			}
			h.broadcast(e)
		}
	}
}

func (h *Hub) broadcast(e event.Event) {
	message, err := json.Marshal(e)
	if err != nil {
		slog.Error("failed to marshal event", "type", e.Type, "error", err)
		return
	}

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			slog.Warn("websocket client too slow, disconnecting", "user", client.username)
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
}

func (h *Hub) shutdown() {
	for client := range h.clients {
		h.remove(client)
	}
	close(h.done)
}

func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
