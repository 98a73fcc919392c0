package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/lvthome/lvtbridge/adapters"
	"github.com/lvthome/lvtbridge/adapters/localentity"
	mongoadapter "github.com/lvthome/lvtbridge/adapters/mongo"
	"github.com/lvthome/lvtbridge/adapters/redisbus"
	"github.com/lvthome/lvtbridge/domain/repositories"
	"github.com/lvthome/lvtbridge/internal/api"
	"github.com/lvthome/lvtbridge/internal/auth"
	"github.com/lvthome/lvtbridge/internal/config"
	"github.com/lvthome/lvtbridge/internal/session"
	"github.com/lvthome/lvtbridge/usecase"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()

	// Select the device storage backend
	var devices repositories.DeviceRegistry
	if cfg.MongoURI != "" {
		client, err := mongoadapter.NewClient(cfg.MongoURI, logger)
		if err != nil {
			logger.Fatal("MongoDB connection failed", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			client.Close(ctx)
		}()
		devices = mongoadapter.NewDeviceRegistry(client.Database)
	} else {
		logger.Info("No MONGODB_URI configured, using in-memory device storage")
		devices = adapters.NewMemoryDeviceRegistry()
	}

	factory := localentity.NewFactory(logger)
	registry := session.NewRegistry(devices, factory, logger)

	intents := usecase.NewIntentService(logger)
	sess := session.New(registry, intents, logger)
	sess.SetOnlineEntity(&localentity.OnlineHandle{})

	// Optional intent event bus
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		publisher, err := redisbus.NewPublisher(ctx, cfg.RedisURL, logger)
		cancel()
		if err != nil {
			logger.Fatal("Redis connection failed", zap.Error(err))
		}
		defer publisher.Close()
		sess.SetPublisher(publisher)
	}

	// Intent definitions pushed to the server after every authorization
	if cfg.IntentsFile != "" {
		defs, err := config.LoadIntents(cfg.IntentsFile, logger)
		if err != nil {
			logger.Fatal("Failed to load intents file",
				zap.String("path", cfg.IntentsFile),
				zap.Error(err))
		}
		sess.SetIntents(defs)
	}

	// All entity platforms are process local, mark them ready up front
	for _, platform := range session.RequiredPlatforms {
		sess.PlatformLoaded(platform)
	}

	sess.Configure(cfg.Server, cfg.Port, cfg.Password, cfg.SSLMode)
	defer sess.Stop()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	tokens, err := auth.NewManager(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("JWT secret is not configured", zap.Error(err))
	}

	// Initialize API routes
	api.InitRoutes(e, sess, tokens, cfg.APIUser, cfg.APIPassword, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.HTTPPort); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Bridge started",
		zap.String("http_port", cfg.HTTPPort),
		zap.String("lvt_server", cfg.Server),
		zap.Int("lvt_port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
