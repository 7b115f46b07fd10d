package handlers

import (
	"log/slog"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/openscol/messagerie/internal/api/middleware"
	"github.com/openscol/messagerie/internal/websocket"
)

// WSHandler upgrades connections and attaches them to the update hub
type WSHandler struct {
	hub      *websocket.Hub
	upgrader gorillaws.Upgrader
	logger   *slog.Logger
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *websocket.Hub, upgrader gorillaws.Upgrader, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		hub:      hub,
		upgrader: upgrader,
		logger:   logger,
	}
}

// Serve handles GET /ws
func (h *WSHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the error response
		return nil
	}

	client := websocket.NewClient(h.hub, conn, middleware.UserID(c), h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	return nil
}
