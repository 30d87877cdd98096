package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/nextch/chat-engine/internal/api"
	"github.com/nextch/chat-engine/internal/cache/redis"
	"github.com/nextch/chat-engine/internal/config"
	"github.com/nextch/chat-engine/internal/remote"
	"github.com/nextch/chat-engine/internal/service"
	"github.com/nextch/chat-engine/internal/service/chat"
	"github.com/nextch/chat-engine/internal/service/profile"
	"github.com/nextch/chat-engine/internal/store"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	// Load configuration (.env is optional)
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}

	if cfg.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	}

	logger.Info("starting chat engine")

	// Open the local store
	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		logger.WithError(err).Fatal("failed to open local store")
	}
	defer db.Close()

	// Optional Redis cache
	var redisClient *redis.Client
	if cfg.Redis.URI != "" {
		redisClient, err = redis.New(cfg.Redis.URI)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to redis")
		}
		defer redisClient.Close()
	}

	// Initialize repositories
	convRepo := store.NewConversationRepository(db)
	msgRepo := store.NewMessageRepository(db)
	mediaRepo := store.NewMediaRepository(db)

	// Initialize services
	tokenService := service.NewTokenService(cfg.Backend.JWTSecret)
	backendClient := remote.NewClient(cfg.Backend.BaseURL, tokenService)
	chatService := chat.NewService(convRepo, msgRepo, backendClient, tokenService, logger)
	profileService := profile.NewService(backendClient, redisClient, logger)

	// Initialize API server
	server := api.NewServer(chatService, mediaRepo, profileService, tokenService, cfg.Media.MaxUploadBytes, logger)

	// Create Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Add middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			}).Info("request")
			return nil
		},
	}))

	// Health check endpoint (public)
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	// Conversation list
	e.GET("/conversations", server.ListConversations, server.AuthMiddleware)

	// Chat routes (require the backend session token)
	chatGroup := e.Group("/chat", server.AuthMiddleware)
	chatGroup.POST("/open", server.OpenChat)
	chatGroup.POST("/:id/messages", server.SendMessage)
	chatGroup.POST("/:id/send", server.FinalizeConversation)
	chatGroup.POST("/:id/close", server.CloseConversation)
	chatGroup.POST("/:id/read", server.MarkConversationRead)
	chatGroup.DELETE("/:id", server.DeleteConversation)
	chatGroup.DELETE("/:id/messages", server.DeleteMessages)

	// Media blob routes
	mediaGroup := e.Group("/media", server.AuthMiddleware)
	mediaGroup.PUT("/:id", server.PutMedia)
	mediaGroup.GET("/:id", server.GetMedia)
	mediaGroup.DELETE("/:id", server.DeleteMedia)
	mediaGroup.GET("", server.ListMedia)

	// Profile routes
	e.GET("/profile/:id", server.GetProfile, server.AuthMiddleware)

	// Expire stale media at startup and on an interval
	sweepDone := make(chan struct{})
	go func() {
		sweep := func() {
			n, err := mediaRepo.ClearOlderThan(cfg.Media.MaxAge)
			if err != nil {
				logger.WithError(err).Error("media retention sweep failed")
				return
			}
			if n > 0 {
				logger.WithField("deleted", n).Info("expired stale media")
			}
		}
		sweep()
		ticker := time.NewTicker(cfg.Media.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sweep()
			case <-sweepDone:
				return
			}
		}
	}()

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	go func() {
		logger.WithField("addr", addr).Info("gateway listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	close(sweepDone)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server shutdown error")
	}

	logger.Info("engine stopped")
}
