package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/giovanto/overhead/internal/adapters/nats"
	"github.com/giovanto/overhead/internal/adapters/opensky"
	"github.com/giovanto/overhead/internal/adapters/postgres"
	"github.com/giovanto/overhead/internal/core/classify"
	"github.com/giovanto/overhead/internal/core/ports"
	"github.com/giovanto/overhead/internal/core/usecases"
	"github.com/giovanto/overhead/internal/pkg/config"
	"github.com/giovanto/overhead/internal/pkg/logging"
	"github.com/giovanto/overhead/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("overhead-collector")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// A nil interface (not a typed nil pointer) tells the service to skip
	// event publishing.
	var pub ports.EventPublisher
	if publisher, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, events will be skipped", "error", err)
	} else {
		defer publisher.Close()
		pub = publisher
	}

	engine, err := classify.NewEngine(cfg.ReferencePoints(), cfg.Classifier)
	if err != nil {
		log.Fatalf("classification engine: %v", err)
	}

	source := opensky.NewClient(opensky.Config{
		BaseURL:      cfg.OpenSky.BaseURL,
		AuthURL:      cfg.OpenSky.AuthURL,
		ClientID:     cfg.OpenSky.ClientID,
		ClientSecret: cfg.OpenSky.ClientSecret,
		Timeout:      time.Duration(cfg.OpenSky.TimeoutSeconds) * time.Second,
	})

	areas := make([]usecases.Area, 0, len(cfg.Collector.Areas))
	for _, a := range cfg.Collector.Areas {
		areas = append(areas, usecases.Area{Name: a.Name, Bounds: a.Bounds()})
	}

	svc := usecases.NewCollectionService(
		source,
		engine,
		postgres.NewObservationRepo(db),
		postgres.NewCollectionLogRepo(db),
		pub,
		usecases.CollectionOptions{
			Areas:          areas,
			PeakInterval:   time.Duration(cfg.Collector.PeakIntervalMinutes) * time.Minute,
			NightInterval:  time.Duration(cfg.Collector.NightIntervalMinutes) * time.Minute,
			NightStartHour: cfg.Collector.NightStartHour,
			NightEndHour:   cfg.Collector.NightEndHour,
			SnapshotDir:    cfg.Collector.SnapshotDir,
			SnapshotMaxAge: time.Duration(cfg.Collector.SnapshotMaxAgeHours) * time.Hour,
		},
	)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	slog.Info("collector starting",
		"areas", len(areas),
		"peak_interval_min", cfg.Collector.PeakIntervalMinutes,
		"night_interval_min", cfg.Collector.NightIntervalMinutes)

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("collector: %v", err)
	}

	slog.Info("collector stopped")
}
