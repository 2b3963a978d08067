// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

/*
hub.go - Overlay Push Hub

The hub fans goal-state messages out to every connected overlay page over
websockets. Delivery is fire and forget: an overlay that misses an update
catches up on the next one, and a freshly connected overlay receives the
latest full snapshot on register. The hub implements store.Publisher, so
the goal store pushes through it without knowing about websockets.

DETERMINISM: select statements prioritize shutdown, then client lifecycle,
then broadcasts, and clients are iterated in ID order, so message delivery
order is reproducible.
*/

package overlay

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/goalpost/internal/logging"
	"github.com/tomtom215/goalpost/internal/metrics"
	"github.com/tomtom215/goalpost/internal/models"
)

// Message types pushed to the overlay.
const (
	MessageTypeUpdate   = "update"
	MessageTypeSnapshot = "snapshot"
	MessageTypePing     = "ping"
	MessageTypePong     = "pong"
)

// Message is one overlay push.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub maintains the set of connected overlay clients and broadcasts
// messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	// lastSnapshot is replayed to clients that connect mid-session so the
	// overlay renders immediately instead of waiting for the next poll.
	lastSnapshot *Message
}

// NewHub creates a hub with no clients.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub until ctx is canceled, then closes every
// client and returns ctx.Err(). Designed for suture supervision: a restart
// starts from an empty client set without orphaned connections.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: shutdown.
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: client lifecycle.
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		// Priority 3: broadcasts, or block until anything is ready.
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	if h.lastSnapshot != nil {
		select {
		case client.send <- *h.lastSnapshot:
		default:
		}
	}
	h.mu.Unlock()
	metrics.OverlayClients.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("overlay client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	metrics.OverlayClients.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("overlay client disconnected")
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()
	metrics.OverlayClients.Set(0)
	// ctx.Err() is expected at shutdown, so it is logged as a field rather
	// than an error.
	logging.Info().
		Str("component", "overlay-hub").
		Str("reason", ctx.Err().Error()).
		Int("clients_closed", len(clients)).
		Msg("overlay hub stopped")
}

// broadcastToClients delivers one message to every client in ID order.
// A client with a full send buffer is dropped; its pumps tear the
// connection down and the overlay page reconnects.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if message.Type == MessageTypeSnapshot {
		snap := message
		h.lastSnapshot = &snap
	}

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}
	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
	if len(toRemove) > 0 {
		metrics.OverlayClients.Set(float64(len(h.clients)))
		logging.Warn().Int("dropped", len(toRemove)).Msg("dropped slow overlay clients")
	}
}

// PushUpdate implements store.Publisher: broadcasts a partial-field goal
// state update.
func (h *Hub) PushUpdate(data map[string]any) {
	h.enqueue(Message{Type: MessageTypeUpdate, Data: data})
}

// PushSnapshot implements store.Publisher: broadcasts the full goal state
// after a session start.
func (h *Hub) PushSnapshot(state *models.GoalState) {
	h.enqueue(Message{Type: MessageTypeSnapshot, Data: state})
}

func (h *Hub) enqueue(message Message) {
	select {
	case h.broadcast <- message:
		metrics.OverlayPushes.WithLabelValues(message.Type).Inc()
	default:
		logging.Warn().Str("message_type", message.Type).Msg("broadcast channel full, dropping overlay message")
	}
}

// Serve satisfies suture's Service interface.
func (h *Hub) Serve(ctx context.Context) error {
	return h.RunWithContext(ctx)
}

// ClientCount returns the number of connected overlay clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
