// Package main runs the classroom live-polling HTTP server with WebSocket
// fan-out and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/classpulse/backend/config"
	"github.com/classpulse/backend/internal/chat"
	"github.com/classpulse/backend/internal/common/clock"
	"github.com/classpulse/backend/internal/gateway"
	"github.com/classpulse/backend/internal/middleware"
	"github.com/classpulse/backend/internal/participants"
	"github.com/classpulse/backend/internal/polls"
	"github.com/classpulse/backend/internal/realtime"
	"github.com/classpulse/backend/pkg/redis"
	"github.com/classpulse/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	var mirror realtime.EventMirror
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Warn("event mirror disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			mirror = realtime.NewRedisMirror(rdb.Client, logger)
		}
	}

	clk := clock.New()
	hub := realtime.NewHub(logger, mirror)

	registry := participants.NewRegistry(clk, logger)
	coordinator := polls.NewCoordinator(
		polls.Config{DefaultTimeLimitSec: cfg.Poll.DefaultTimeLimitSec},
		registry, hub, clk, logger,
	)
	relay := chat.NewRelay(cfg.Chat.MaxMessages, hub, clk, logger)

	hub.SetActionHandler(gateway.New(registry, coordinator, relay, hub, logger))

	pollHandler := polls.NewHandler(coordinator)
	participantHandler := participants.NewHandler(registry, hub)
	chatHandler := chat.NewHandler(relay)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			response.OK(c, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
		})

		api.GET("/current-poll", pollHandler.Current)
		api.GET("/poll-history", pollHandler.History)
		api.DELETE("/poll-history", pollHandler.ClearHistory)
		api.POST("/polls", pollHandler.Create)
		api.POST("/polls/:pollId/answer", pollHandler.Answer)

		api.GET("/connected-users", participantHandler.List)
		api.POST("/kick-user", participantHandler.Kick)

		api.GET("/chat/messages", chatHandler.List)
		api.POST("/chat/messages", chatHandler.Send)
	}

	router.GET("/ws", realtime.ServeWs(hub, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	heartbeatCtx, stopHeartbeat := context.WithCancel(context.Background())
	defer stopHeartbeat()
	go heartbeat(heartbeatCtx, logger, registry, coordinator, relay)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopHeartbeat()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// heartbeat logs session stats every 30 seconds.
func heartbeat(ctx context.Context, logger *zap.Logger, registry *participants.Registry, coordinator *polls.Coordinator, relay *chat.Relay) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll, _ := coordinator.CurrentPoll()
			active := poll != nil && poll.IsActive
			logger.Info("heartbeat",
				zap.Int("connected_users", registry.Count()),
				zap.Bool("active_poll", active),
				zap.Int("poll_history", len(coordinator.History())),
				zap.Int("chat_messages", len(relay.Messages())),
			)
		}
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
