package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"npc-chatlab/backend/internal/models"
	"npc-chatlab/backend/pkg/config"
	"npc-chatlab/backend/pkg/di"
	"npc-chatlab/backend/pkg/logger"
	"npc-chatlab/backend/pkg/observability"
	"npc-chatlab/backend/pkg/router"
	"npc-chatlab/backend/pkg/secrets"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file found")
	}

	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"
	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting NPC ChatLab", "env", cfg.Server.Env)

	// Resolve model credentials, preferring Vault over the environment
	secretsManager, err := secrets.NewManager(log)
	if err != nil {
		log.LogError(err, "Failed to initialize secrets manager")
		os.Exit(1)
	}
	if key, err := secretsManager.GetSecret("GOOGLE_API_KEY"); err == nil {
		cfg.Models.GoogleAPIKey = key
	}
	if secret, err := secretsManager.GetSecret("JWT_SECRET"); err == nil {
		cfg.Auth.JWTSecret = secret
	}

	tracingShutdown := observability.SetupTracing("npc-chatlab", log)
	observability.SetupMetrics(log)

	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	if err := db.AutoMigrate(
		&models.Character{},
		&models.Prompt{},
		&models.Session{},
		&models.Message{},
		&models.Feedback{},
	); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_messages_session_created ON messages(session_id, created_at)").Error; err != nil {
		log.LogError(err, "Failed to create message index", "index", "idx_messages_session_created")
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_feedbacks_message ON feedbacks(message_id)").Error; err != nil {
		log.LogError(err, "Failed to create feedback index", "index", "idx_feedbacks_message")
	}

	container, err := di.New(db, cfg, log)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}

	r := router.New(container, cfg)
	if cfg.Validation.Enabled {
		r.AddOpenAPIValidation(cfg.Validation.SchemaPath)
	}
	r.SetupRoutes()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r.Engine,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}
	tracingShutdown(ctx)

	log.Info("Server exited gracefully")
}
