package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// RetentionInput is the input for the retention workflow.
type RetentionInput struct {
	ObservationDays     int
	CollectionLogDays   int
	SnapshotDir         string
	SnapshotMaxAgeHours int
}

// RetentionWorkflow runs the nightly housekeeping pass: roll up yesterday's
// daily stats, prune old observations and collection log entries, and clean
// up aged snapshot files. Rollup runs first so pruning never removes rows
// that still need aggregating.
func RetentionWorkflow(ctx workflow.Context, input RetentionInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting retention workflow",
		"observationDays", input.ObservationDays,
		"collectionLogDays", input.CollectionLogDays)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Roll up yesterday's (and today's partial) daily stats
	if err := workflow.ExecuteActivity(ctx, "RollupRecentDays").Get(ctx, nil); err != nil {
		return err
	}

	// Step 2: Prune observations past retention
	var prunedObservations int64
	if err := workflow.ExecuteActivity(ctx, "PruneObservations", input.ObservationDays).Get(ctx, &prunedObservations); err != nil {
		return err
	}

	// Step 3: Prune collection log past retention
	var prunedLog int64
	if err := workflow.ExecuteActivity(ctx, "PruneCollectionLog", input.CollectionLogDays).Get(ctx, &prunedLog); err != nil {
		return err
	}

	// Step 4: Delete aged snapshot files. Best effort: disk snapshots are
	// a debugging convenience, not primary storage.
	if err := workflow.ExecuteActivity(ctx, "CleanupSnapshots", input.SnapshotDir, input.SnapshotMaxAgeHours).Get(ctx, nil); err != nil {
		logger.Warn("snapshot cleanup failed", "error", err)
	}

	logger.Info("Retention workflow complete",
		"prunedObservations", prunedObservations,
		"prunedLog", prunedLog)
	return nil
}
