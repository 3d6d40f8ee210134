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

	"github.com/keyoor1989/united-crm-sub004/internal/config"
	"github.com/keyoor1989/united-crm-sub004/internal/db"
	"github.com/keyoor1989/united-crm-sub004/internal/handlers"
	"github.com/keyoor1989/united-crm-sub004/internal/services"
	"github.com/keyoor1989/united-crm-sub004/internal/telegram"
	"github.com/keyoor1989/united-crm-sub004/pkg/logger"
	"github.com/keyoor1989/united-crm-sub004/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const version = "1.0.0"

// SetupServer initializes and returns a configured HTTP server
func SetupServer(cfg *config.Config) (*http.Server, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}

	if cfg.Server.Port <= 0 {
		return nil, errors.New("invalid server port")
	}

	// Initialize database
	database, err := db.NewDatabase(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize repositories
	chatRepo := db.NewChatRepository(database.GetDB())
	logRepo := db.NewMessageLogRepository(database.GetDB())
	settingsRepo := db.NewSettingsRepository(database.GetDB())
	followUpRepo := db.NewFollowUpRepository(database.GetDB())
	customerRepo := db.NewCustomerRepository(database.GetDB())

	// Telegram client
	tgClient := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.APIURL)

	// Initialize services
	router := services.NewCommandRouter(customerRepo, logRepo, tgClient)
	updateService := services.NewUpdateService(chatRepo, logRepo, settingsRepo, router, tgClient)
	notifier := services.NewNotifierService(chatRepo, logRepo, tgClient)
	adminService := services.NewBotAdminService(settingsRepo, tgClient)
	chatService := services.NewChatService(chatRepo)
	reminderService := services.NewReminderService(followUpRepo, notifier, cfg.Reminders.Hour)

	// Initialize router
	engine := gin.Default()

	// Setup routes
	setupRoutes(engine, cfg, updateService, notifier, adminService, chatService, reminderService, settingsRepo, followUpRepo)

	// Create server with security timeouts
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return srv, nil
}

// setupRoutes configures all the HTTP routes
func setupRoutes(
	engine *gin.Engine,
	cfg *config.Config,
	updateService *services.UpdateService,
	notifier *services.NotifierService,
	adminService *services.BotAdminService,
	chatService *services.ChatService,
	reminderService *services.ReminderService,
	settingsRepo db.SettingsRepository,
	followUpRepo db.FollowUpRepository,
) {
	// Initialize handlers
	webhookHandler := handlers.NewWebhookHandler(updateService, settingsRepo)
	botAdminHandler := handlers.NewBotAdminHandler(adminService, updateService)
	chatHandler := handlers.NewChatHandler(chatService)
	notifyHandler := handlers.NewNotifyHandler(notifier)
	followUpHandler := handlers.NewFollowUpHandler(followUpRepo, reminderService)

	// Basic health check endpoint (public)
	engine.GET("/health", handleHealthCheck)

	// Provider-facing webhook (authenticated by the registered secret token)
	engine.POST("/webhook/telegram", webhookHandler.Handle)

	// Management API (admin key protected)
	api := engine.Group("/api")
	api.Use(middleware.AdminKey(cfg.Admin.Key))

	api.POST("/notify", notifyHandler.Notify)

	api.POST("/bot/webhook", botAdminHandler.SetWebhook)
	api.DELETE("/bot/webhook", botAdminHandler.DeleteWebhook)
	api.POST("/bot/commands", botAdminHandler.SetCommands)
	api.PUT("/bot/mode", botAdminHandler.SetMode)
	api.POST("/bot/poll", botAdminHandler.Poll)

	api.POST("/chats", chatHandler.Authorize)
	api.GET("/chats", chatHandler.List)
	api.PUT("/chats/:id/active", chatHandler.SetActive)
	api.PUT("/chats/:id/preferences", chatHandler.UpdatePreference)

	api.POST("/followups", followUpHandler.Create)
	api.POST("/jobs/followup-reminders", followUpHandler.RunReminders)
}

// handleHealthCheck handles the health check endpoint
func handleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"time":    time.Now().UTC(),
		"version": version,
		"service": "united-crm-bot",
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

// StartServerWithContext starts the HTTP server with a context for shutdown control
func StartServerWithContext(ctx context.Context, srv *http.Server) error {
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
