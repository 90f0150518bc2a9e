package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/haneul-academy/portal-be/internal/api"
	"github.com/haneul-academy/portal-be/internal/auth"
	"github.com/haneul-academy/portal-be/internal/config"
	"github.com/haneul-academy/portal-be/internal/database"
	"github.com/haneul-academy/portal-be/internal/logger"
	"github.com/haneul-academy/portal-be/internal/monitoring"
	"github.com/haneul-academy/portal-be/internal/services"
	"github.com/haneul-academy/portal-be/internal/websocket"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}
	auth.Init(cfg.JWTSecret)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub for live chat
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	activityService := services.NewActivityService(db)
	moderationService := services.NewModerationService(db, activityService)
	userService := services.NewUserService(db, cfg, moderationService, activityService)
	contentService := services.NewContentService(db, cfg, activityService)
	uploadService, err := services.NewUploadService(cfg.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize upload storage")
	}

	// Set up and run the background retention job
	retention, err := monitoring.NewRetention(contentService, activityService, cfg.RetentionCron, cfg.ChatHistoryLimit)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid retention cron expression")
	}
	go retention.Run()

	// Set up router
	router := api.NewRouter(hub, userService, moderationService, contentService, activityService, uploadService)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	retention.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
