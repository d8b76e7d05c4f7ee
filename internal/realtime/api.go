package realtime

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks belong to the reverse proxy in this deployment.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP connections to websocket clients
type Handler struct {
	hub        *Hub
	sendBuffer int
	logger     *zap.Logger
}

// NewHandler creates a websocket handler
func NewHandler(hub *Hub, sendBuffer int, logger *zap.Logger) *Handler {
	return &Handler{hub: hub, sendBuffer: sendBuffer, logger: logger}
}

// ServeWS upgrades the connection and starts the client pumps. The
// client joins rooms by sending {"action":"join","rooms":[...]}.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, h.sendBuffer, h.logger)
	h.hub.Register(client)

	go client.writePump()
	go client.readPump()
}
