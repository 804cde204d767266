package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"triadStreakAPI/internal/realtime"
	"triadStreakAPI/utils"
)

var upgrader = websocket.Upgrader{
	// Browsers cannot set Authorization headers on websocket dials, so the
	// token is checked from the query string instead; origin filtering is
	// left to the deployment's proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Subscribe upgrades the connection and registers it for streak and
// leaderboard change events until the peer goes away.
func (h *RealtimeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondWithError(w, http.StatusUnauthorized, "Token query parameter required")
		return
	}

	userID, err := utils.VerifyToken(token)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.Logger.Warn("websocket_upgrade_failed", zap.Error(err))
		return
	}

	client := &realtime.Client{Conn: conn, UserID: userID}
	h.hub.Register(client)

	// The subscription is one-way; reads only serve to detect disconnect.
	go func() {
		defer h.hub.Unregister(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
