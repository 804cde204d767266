package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event mirrors a row change other sessions care about: streak updates for
// the owning user, leaderboard shuffles for everyone.
type Event struct {
	Type          string `json:"type"` // "streak_updated" | "leaderboard_changed"
	UserID        string `json:"user_id,omitempty"`
	CurrentStreak int    `json:"current_streak,omitempty"`
	Timestamp     int64  `json:"timestamp"`
}

// Client is one connected session.
type Client struct {
	Conn    *websocket.Conn
	UserID  string
	writeMu sync.Mutex
}

// SafeWriteJSON serializes writes to the underlying connection; gorilla
// connections do not allow concurrent writers.
func (c *Client) SafeWriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteJSON(v)
}

// Hub tracks connected sessions and fans events out to them. It is injected
// into the services that mutate streaks rather than living as package state.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		logger:  logger,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
	h.logger.Info("realtime_client_registered",
		zap.String("user_id", client.UserID),
		zap.Int("total_clients", len(h.clients)),
	)
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.Conn.Close()
	h.logger.Info("realtime_client_unregistered",
		zap.String("user_id", client.UserID),
		zap.Int("total_clients", len(h.clients)),
	)
}

// BroadcastStreakUpdate notifies the owning user's sessions of their new
// streak and tells every session the leaderboard changed.
func (h *Hub) BroadcastStreakUpdate(userID string, currentStreak int) {
	now := time.Now().Unix()

	personal := Event{
		Type:          "streak_updated",
		UserID:        userID,
		CurrentStreak: currentStreak,
		Timestamp:     now,
	}
	global := Event{
		Type:      "leaderboard_changed",
		Timestamp: now,
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		event := global
		if client.UserID == userID {
			event = personal
		}
		if err := client.SafeWriteJSON(event); err != nil {
			h.logger.Warn("realtime_write_failed",
				zap.String("user_id", client.UserID),
				zap.Error(err),
			)
			go h.Unregister(client)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
