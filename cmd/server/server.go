package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatdesk-server/internal/config"
	"chatdesk-server/internal/db"
	"chatdesk-server/internal/feed"
	"chatdesk-server/internal/glue"
	"chatdesk-server/internal/handlers"
	"chatdesk-server/internal/services"
	"chatdesk-server/pkg/logger"
	"chatdesk-server/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxRequestBody = 1 << 20 // 1 MiB

// SetupServer initializes and returns a configured HTTP server along with a
// cleanup function for the resources it owns.
func SetupServer(cfg *config.Config) (*http.Server, func(), error) {
	if cfg == nil {
		return nil, nil, errors.New("configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	// Initialize database
	database, err := db.NewDatabase(cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize repositories
	conversationRepo := db.NewConversationRepository(database.GetDB())
	messageRepo := db.NewMessageRepository(database.GetDB())

	// Initialize the feed, with the Redis backplane when configured
	hub := feed.NewHub()
	var bus feed.Bus = hub
	var redisBus *feed.RedisBus
	if cfg.Feed.RedisAddr != "" {
		redisBus = feed.NewRedisBus(hub, cfg.Feed.RedisAddr, cfg.Feed.RedisChannel)
		redisBus.Start()
		bus = redisBus
	}

	// Initialize services
	conversationService := services.NewConversationService(conversationRepo, bus)
	messageService := services.NewMessageService(messageRepo, conversationService, bus, cfg.History.MessageLimit)

	// Initialize router
	router := gin.Default()

	// Setup routes
	setupRoutes(router, cfg, bus, conversationService, messageService)

	// No read/write timeouts on the server itself: the feed socket is
	// long-lived and the send process has no deadline of its own.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	cleanup := func() {
		if redisBus != nil {
			if err := redisBus.Close(); err != nil {
				logger.Warn("Failed to close redis feed bus", zap.Error(err))
			}
		}
		if err := database.Close(); err != nil {
			logger.Warn("Failed to close database", zap.Error(err))
		}
	}

	return srv, cleanup, nil
}

// setupRoutes configures all the HTTP routes
func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	bus feed.Bus,
	conversationService *services.ConversationService,
	messageService *services.MessageService,
) {
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestSizeLimitMiddleware(maxRequestBody))
	router.Use(middleware.AuditLogMiddleware())

	// Initialize handlers
	dashboardHandler := handlers.NewDashboardHandler(conversationService, messageService)
	webhookHandler := handlers.NewWebhookHandler(cfg, messageService)
	feedHandler := handlers.NewFeedHandler(bus)
	runner := glue.NewRunner(cfg.Send.Command, cfg.Send.Args...)
	sendHandler := handlers.NewSendHandler(runner, messageService)

	// Basic health check endpoint
	router.GET("/health", handleHealthCheck)

	// Dashboard queries
	api := router.Group("/api")
	{
		api.GET("/conversations", dashboardHandler.ListConversations)
		api.GET("/messages", dashboardHandler.ListMessages)
	}

	// Composer send path, piped through the external send process
	router.POST("/send", sendHandler.Send)

	// Channel webhook
	router.GET("/webhook", webhookHandler.Verify)
	router.POST("/webhook", webhookHandler.Receive)

	// Realtime feed
	router.GET("/ws/feed", feedHandler.Serve)
}

// handleHealthCheck handles the health check endpoint
func handleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"time":    time.Now().UTC(),
		"version": version,
		"service": "chatdesk-server",
	})
}

// StartServer starts the HTTP server and handles graceful shutdown
func StartServer(srv *http.Server) error {
	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a timeout context for shutdown
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
