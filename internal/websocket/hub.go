// Package websocket pushes mailbox update notifications to connected
// clients. The payload is intentionally a bare signal: consumers refetch
// their own counters rather than trusting pushed state.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeMessagingUpdated MessageType = "messaging_updated"
	MessageTypeError            MessageType = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type  MessageType `json:"type"`
	Error string      `json:"error,omitempty"`
}

// Hub maintains the set of active clients, keyed by the user each
// socket belongs to, and broadcasts update signals
type Hub struct {
	// Connected clients per user
	clients map[string]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Broadcast to one user's sockets
	broadcast chan *broadcastMessage

	mu sync.RWMutex

	logger *slog.Logger
}

type broadcastMessage struct {
	userID  string
	message []byte
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 256),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client registered", slog.String("user_id", client.userID))
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if sockets, ok := h.clients[client.userID]; ok {
				if _, ok := sockets[client]; ok {
					delete(sockets, client)
					close(client.send)
					if len(sockets) == 0 {
						delete(h.clients, client.userID)
					}
				}
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client unregistered", slog.String("user_id", client.userID))
			}

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients[msg.userID] {
				select {
				case client.send <- msg.message:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// MessagingUpdated broadcasts the update signal to every socket of the
// given users. Implements the handlers.UpdateNotifier contract.
func (h *Hub) MessagingUpdated(userIDs ...string) {
	data, err := json.Marshal(WSMessage{Type: MessageTypeMessagingUpdated})
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal broadcast message", slog.Any("error", err))
		}
		return
	}

	for _, userID := range userIDs {
		h.broadcast <- &broadcastMessage{
			userID:  userID,
			message: data,
		}
	}
}
