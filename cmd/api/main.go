package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/giovanto/overhead/internal/adapters/http"
	natsadapter "github.com/giovanto/overhead/internal/adapters/nats"
	"github.com/giovanto/overhead/internal/adapters/postgres"
	"github.com/giovanto/overhead/internal/adapters/valkey"
	"github.com/giovanto/overhead/internal/core/classify"
	"github.com/giovanto/overhead/internal/core/ports"
	"github.com/giovanto/overhead/internal/core/usecases"
	"github.com/giovanto/overhead/internal/pkg/config"
	"github.com/giovanto/overhead/internal/pkg/logging"
	"github.com/giovanto/overhead/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("overhead-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache. A nil interface (not a typed nil pointer) tells the services
	// to skip caching.
	var cache *valkey.Cache
	var cacheSvc ports.CacheService
	if vk, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vk.Close()
		cache = vk
		cacheSvc = vk
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Classification engine
	engine, err := classify.NewEngine(cfg.ReferencePoints(), cfg.Classifier)
	if err != nil {
		log.Fatalf("classification engine: %v", err)
	}

	// Repos
	obsRepo := postgres.NewObservationRepo(db)
	logRepo := postgres.NewCollectionLogRepo(db)
	statsRepo := postgres.NewStatsRepo(db)

	// Use cases
	obsSvc := usecases.NewObservationService(obsRepo, cacheSvc)
	reportSvc := usecases.NewReportService(obsRepo, engine, cacheSvc)
	statsSvc := usecases.NewStatsService(statsRepo, logRepo, cacheSvc)

	areas := make([]string, 0, len(cfg.Collector.Areas))
	for _, a := range cfg.Collector.Areas {
		areas = append(areas, a.Name)
	}

	deps := &http.Dependencies{
		Observations: obsSvc,
		Reports:      reportSvc,
		Stats:        statsSvc,
		Areas:        areas,
		NATS:         natsConn,
		DB:           db,
		Cache:        cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Overhead API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
