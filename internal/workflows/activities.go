package workflows

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/giovanto/overhead/internal/core/ports"
)

// RetentionActivities holds the activity implementations for the retention workflow.
type RetentionActivities struct {
	Observations  ports.ObservationRepository
	CollectionLog ports.CollectionLogRepository
	Stats         ports.StatsRepository
}

// RollupRecentDays recomputes daily aggregates for yesterday and today.
// Today is included so a mid-day run leaves a usable partial rollup.
func (a *RetentionActivities) RollupRecentDays(ctx context.Context) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, day := range []time.Time{today.Add(-24 * time.Hour), today} {
		if err := a.Stats.RollupDay(ctx, day); err != nil {
			return fmt.Errorf("rollup %s: %w", day.Format("2006-01-02"), err)
		}
	}
	return nil
}

// PruneObservations deletes observations older than the retention window
// and returns the number of rows removed.
func (a *RetentionActivities) PruneObservations(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	deleted, err := a.Observations.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune observations: %w", err)
	}
	log.Printf("pruned %d observations older than %s", deleted, cutoff.Format(time.RFC3339))
	return deleted, nil
}

// PruneCollectionLog deletes collection log entries older than the retention
// window and returns the number of rows removed.
func (a *RetentionActivities) PruneCollectionLog(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	deleted, err := a.CollectionLog.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune collection log: %w", err)
	}
	log.Printf("pruned %d collection log entries older than %s", deleted, cutoff.Format(time.RFC3339))
	return deleted, nil
}

// CleanupSnapshots removes snapshot JSON files older than maxAgeHours.
func (a *RetentionActivities) CleanupSnapshots(ctx context.Context, dir string, maxAgeHours int) error {
	if dir == "" || maxAgeHours <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read snapshot dir: %w", err)
	}

	cutoff := time.Now().Add(-time.Duration(maxAgeHours) * time.Hour)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, entry.Name()))
		}
	}
	return nil
}
