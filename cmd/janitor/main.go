package main

import (
	"context"
	"log"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/giovanto/overhead/internal/adapters/postgres"
	"github.com/giovanto/overhead/internal/pkg/config"
	"github.com/giovanto/overhead/internal/workflows"
)

func main() {
	cfg, err := config.Load("overhead-janitor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := postgres.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.RetentionWorkflow)
	w.RegisterActivity(&workflows.RetentionActivities{
		Observations:  postgres.NewObservationRepo(db),
		CollectionLog: postgres.NewCollectionLogRepo(db),
		Stats:         postgres.NewStatsRepo(db),
	})

	// Nightly retention run. The fixed workflow ID makes this call a
	// no-op when the cron workflow is already registered.
	_, err = c.ExecuteWorkflow(context.Background(), client.StartWorkflowOptions{
		ID:           "retention-nightly",
		TaskQueue:    cfg.Temporal.TaskQueue,
		CronSchedule: "0 3 * * *",
	}, workflows.RetentionWorkflow, workflows.RetentionInput{
		ObservationDays:     cfg.Retention.ObservationDays,
		CollectionLogDays:   cfg.Retention.CollectionLogDays,
		SnapshotDir:         cfg.Collector.SnapshotDir,
		SnapshotMaxAgeHours: cfg.Collector.SnapshotMaxAgeHours,
	})
	if err != nil {
		log.Printf("schedule retention workflow: %v", err)
	}

	log.Println("janitor worker started")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
