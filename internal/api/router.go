// Package api wires the HTTP surface of the messaging service.
package api

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/openscol/messagerie/internal/api/handlers"
	"github.com/openscol/messagerie/internal/api/middleware"
	"github.com/openscol/messagerie/internal/logger"
	"github.com/openscol/messagerie/internal/repository"
	"github.com/openscol/messagerie/internal/storage"
	"github.com/openscol/messagerie/internal/websocket"
	"gorm.io/gorm"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB          *gorm.DB
	FileStorage storage.FileStorage
	Hub         *websocket.Hub
	Logger      *slog.Logger

	// Security configuration
	AllowedOrigins []string // Allowed CORS origins
	RateLimit      float64  // Requests per second (0 = disabled)
	RateBurst      int      // Burst size for rate limiter
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.SecureHeaders())
	e.Use(middleware.SecureCORS(cfg.AllowedOrigins))

	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.Logger))
	}

	if cfg.Logger != nil {
		e.Use(middleware.RequestLogger(cfg.Logger))
	}

	// Initialize repositories
	messageRepo := repository.NewMessageRepository(cfg.DB)
	imageRepo := repository.NewInlineImageRepository(cfg.DB)

	// Initialize handlers
	var secLog *logger.SecurityLogger
	if cfg.Logger != nil {
		secLog = logger.NewSecurityLoggerWithHandler(cfg.Logger.Handler())
	}
	healthHandler := handlers.NewHealthHandler(cfg.DB)
	messageHandler := handlers.NewMessageHandler(messageRepo, notifierOrNil(cfg.Hub))
	uploadHandler := handlers.NewUploadHandler(imageRepo, cfg.FileStorage, secLog)

	// Health routes (no identity required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	// API routes: identity always, anti-forgery on mutations
	api := e.Group("/api")
	api.Use(middleware.UserIdentity(cfg.Logger))
	api.Use(middleware.AntiForgery(cfg.Logger))

	messages := api.Group("/messages")
	messages.GET("", messageHandler.List)
	messages.GET("/unread-count", messageHandler.UnreadCount)
	messages.GET("/folder-counts", messageHandler.FolderCounts)
	messages.GET("/:id", messageHandler.Get)
	messages.POST("", messageHandler.Create)
	messages.PATCH("/:id/read", messageHandler.MarkRead)
	messages.PATCH("/:id/archive", messageHandler.Archive)
	messages.DELETE("/:id", messageHandler.Delete)

	uploads := api.Group("/uploads")
	uploads.POST("/inline-image", uploadHandler.InlineImage)
	uploads.GET("/inline-images/:id", uploadHandler.ServeInlineImage)

	if cfg.Hub != nil {
		wsHandler := handlers.NewWSHandler(cfg.Hub, websocket.NewSecureUpgrader(cfg.AllowedOrigins, cfg.Logger), cfg.Logger)
		ws := e.Group("/ws")
		ws.Use(middleware.UserIdentity(cfg.Logger))
		ws.GET("", wsHandler.Serve)
	}

	return e
}

// notifierOrNil avoids handing handlers a typed nil notifier
func notifierOrNil(hub *websocket.Hub) handlers.UpdateNotifier {
	if hub == nil {
		return nil
	}
	return hub
}
