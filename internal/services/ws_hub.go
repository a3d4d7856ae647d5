package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"meditation-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocket message types
const (
	MessageAchievementGranted = "achievement_granted"
	MessageLeaderboardUpdated = "leaderboard_updated"
	MessageFriendRequest      = "friend_request"
	MessageFriendAccepted     = "friend_accepted"
	MessagePing               = "ping"
	MessagePong               = "pong"
	MessageError              = "error"
)

const writeWait = 10 * time.Second

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp,omitempty"`
	UserID    string      `json:"user_id,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// wsClient serializes writes to one connection
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections, one per user
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*wsClient
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{connections: make(map[string]*wsClient)}
}

// Register registers a new WebSocket connection for a user, replacing any
// previous one
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.connections[userID]; ok {
		existing.conn.Close()
	}
	h.connections[userID] = &wsClient{conn: conn}

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes conn for a user if it is still the registered one
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.connections[userID]; ok && client.conn == conn {
		client.conn.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	client, ok := h.connections[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := client.write(data); err != nil {
		h.Unregister(userID, client.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Broadcast sends a message to every connected user
func (h *WSHub) Broadcast(message WSMessage) {
	h.mu.RLock()
	userIDs := make([]string, 0, len(h.connections))
	for id := range h.connections {
		userIDs = append(userIDs, id)
	}
	h.mu.RUnlock()

	for _, id := range userIDs {
		if err := h.SendToUser(id, message); err != nil {
			log.Debug().Err(err).Str("user_id", id).Msg("Failed to broadcast message")
		}
	}
}

// IsOnline checks if a user is online
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[userID]
	return ok
}

// NotifyAchievements tells a user about newly granted achievements
func (h *WSHub) NotifyAchievements(userID string, granted []models.Achievement) {
	if !h.IsOnline(userID) {
		return
	}
	message := WSMessage{
		Type:      MessageAchievementGranted,
		Timestamp: time.Now().UnixMilli(),
		UserID:    userID,
		Data:      granted,
	}
	if err := h.SendToUser(userID, message); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to notify achievements")
	}
}

// NotifyLeaderboardUpdated tells every connected user that ranks changed
func (h *WSHub) NotifyLeaderboardUpdated(userID string) {
	go h.Broadcast(WSMessage{
		Type:      MessageLeaderboardUpdated,
		Timestamp: time.Now().UnixMilli(),
		UserID:    userID,
	})
}

// NotifyFriendRequest tells friendID about an incoming request
func (h *WSHub) NotifyFriendRequest(friendID string, request models.FriendRequest) {
	if !h.IsOnline(friendID) {
		return
	}
	message := WSMessage{
		Type:      MessageFriendRequest,
		Timestamp: time.Now().UnixMilli(),
		Data:      request,
	}
	if err := h.SendToUser(friendID, message); err != nil {
		log.Error().Err(err).Str("user_id", friendID).Msg("Failed to notify friend request")
	}
}

// NotifyFriendAccepted tells the requester that friend accepted
func (h *WSHub) NotifyFriendAccepted(userID string, friend models.User) {
	if !h.IsOnline(userID) {
		return
	}
	message := WSMessage{
		Type:      MessageFriendAccepted,
		Timestamp: time.Now().UnixMilli(),
		Data:      friend,
	}
	if err := h.SendToUser(userID, message); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to notify accepted friend request")
	}
}
