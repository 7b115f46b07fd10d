package websocket

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// NewSecureUpgrader creates a WebSocket upgrader that only accepts
// connections from the given origins. An empty list falls back to the
// local development frontend.
func NewSecureUpgrader(origins []string, logger *slog.Logger) websocket.Upgrader {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")

			// Same-origin requests carry no Origin header
			if origin == "" {
				return true
			}

			for _, allowed := range origins {
				if allowed == origin {
					return true
				}
			}

			if logger != nil {
				logger.Warn("rejected websocket connection",
					slog.String("origin", origin),
					slog.String("remote_ip", r.RemoteAddr))
			}
			return false
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}
