package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/furkanYanteri1/squadz-site/internal/hub"
	"github.com/furkanYanteri1/squadz-site/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, replace with proper origin checking
	},
}

// WebSocketHandler serves the live feed stream.
type WebSocketHandler struct {
	hub *hub.Hub
	log *logger.Logger
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(h *hub.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: h,
		log: logger.NewLogger("ws-handler"),
	}
}

// HandleFeed handles GET /ws/feed, upgrading the connection and attaching it
// to the feed hub.
func (h *WebSocketHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}
	h.hub.Register(conn)
}
