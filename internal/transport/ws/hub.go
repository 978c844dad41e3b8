package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hub manages all active WebSocket clients and routes events.
type Hub struct {
	// clients maps userID → client. Guarded by mu: the run loop mutates
	// it while BroadcastToUser and IsOnline read from other goroutines.
	mu      sync.RWMutex
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMsg

	logger *zap.SugaredLogger
}

type broadcastMsg struct {
	conversationID uuid.UUID
	data           []byte
	excludeID      *uuid.UUID // optional: skip this user (e.g. sender)
}

func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMsg, 256),
		logger:     logger,
	}
}

// Run starts the Hub's main event loop. Call this in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.userID] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Infow("resident connected", "user_id", client.userID, "total", total)

			h.broadcastPresence(client.userID, "online")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.userID]; ok {
				delete(h.clients, client.userID)
				close(client.send)
				close(client.done)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Infow("resident disconnected", "user_id", client.userID, "total", total)

			h.broadcastPresence(client.userID, "offline")

		case msg := <-h.broadcast:
			h.mu.Lock()
			for _, client := range h.clients {
				if msg.excludeID != nil && client.userID == *msg.excludeID {
					continue
				}
				// Only deliver to clients subscribed to this conversation.
				if !client.IsSubscribed(msg.conversationID) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Client buffer full - disconnect
					delete(h.clients, client.userID)
					close(client.send)
					close(client.done)
				}
			}
			h.mu.Unlock()
		}
	}
}

// IsOnline reports whether the resident has a live connection.
func (h *Hub) IsOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// BroadcastToConversation sends an event to all subscribers of a conversation.
func (h *Hub) BroadcastToConversation(conversationID uuid.UUID, event *Event, excludeUserID *uuid.UUID) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Errorw("event marshal failed", "error", err)
		return
	}
	h.broadcast <- &broadcastMsg{
		conversationID: conversationID,
		data:           data,
		excludeID:      excludeUserID,
	}
}

// BroadcastToUser sends an event directly to a specific resident.
func (h *Hub) BroadcastToUser(userID uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()
	if ok {
		select {
		case client.send <- data:
		default:
		}
	}
}

// HandleTyping broadcasts typing events to conversation subscribers (excluding sender).
func (h *Hub) HandleTyping(sender *Client, event *Event) {
	conversationID := *event.ConversationID

	if event.Type != EventTypeTypingStart {
		return // typing.stop doesn't need broadcast, clients use a timeout
	}

	evt, err := NewEvent(EventTypeTyping, &conversationID, TypingPayload{
		UserID: sender.userID,
	})
	if err != nil {
		return
	}

	h.BroadcastToConversation(conversationID, evt, &sender.userID)
}

// broadcastPresence sends online/offline to all connected clients.
func (h *Hub) broadcastPresence(userID uuid.UUID, status string) {
	evt, err := NewEvent(EventTypePresence, nil, PresencePayload{
		UserID: userID,
		Status: status,
	})
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.userID == userID {
			continue
		}
		select {
		case client.send <- data:
		default:
		}
	}
}
