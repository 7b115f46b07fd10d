package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/openscol/messagerie/internal/api"
	"github.com/openscol/messagerie/internal/config"
	"github.com/openscol/messagerie/internal/database"
	"github.com/openscol/messagerie/internal/storage"
	"github.com/openscol/messagerie/internal/websocket"
)

func main() {
	// .env is optional; real deployments configure the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadWithValidation()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)
	cfg.LogConfig(logger)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	fileStorage, err := storage.NewLocalStorage(cfg.UploadStoragePath)
	if err != nil {
		logger.Error("failed to initialize storage", slog.Any("error", err))
		os.Exit(1)
	}

	hub := websocket.NewHub(logger)
	go hub.Run()

	router := api.NewRouter(&api.RouterConfig{
		DB:             db,
		FileStorage:    fileStorage,
		Hub:            hub,
		Logger:         logger,
		AllowedOrigins: splitOrigins(cfg.AllowedOrigins),
		RateLimit:      cfg.RateLimitRequests,
		RateBurst:      cfg.RateLimitBurst,
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		logger.Info("starting messaging API", slog.String("addr", addr))
		if err := router.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := router.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}

// parseLogLevel maps the configured level onto slog levels
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// splitOrigins turns the comma-separated config value into a slice
func splitOrigins(origins string) []string {
	if origins == "" {
		return nil
	}
	parts := strings.Split(origins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
