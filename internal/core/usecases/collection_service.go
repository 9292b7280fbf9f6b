package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/giovanto/overhead/internal/core/classify"
	"github.com/giovanto/overhead/internal/core/domain"
	"github.com/giovanto/overhead/internal/core/ports"
	"github.com/giovanto/overhead/internal/pkg/metrics"
)

// Area is one named collection region with its bounding box.
type Area struct {
	Name   string
	Bounds domain.Bounds
}

// CollectionOptions drives the polling schedule and snapshot retention.
type CollectionOptions struct {
	Areas          []Area
	PeakInterval   time.Duration
	NightInterval  time.Duration
	NightStartHour int
	NightEndHour   int
	SnapshotDir    string
	SnapshotMaxAge time.Duration
}

// CollectionService polls the flight feed per area, classifies each batch,
// persists it, and publishes observation events.
type CollectionService struct {
	source       ports.FlightSource
	engine       *classify.Engine
	observations ports.ObservationRepository
	log          ports.CollectionLogRepository
	publisher    ports.EventPublisher
	opts         CollectionOptions
}

// NewCollectionService creates a new CollectionService. The publisher may
// be nil when no broker is available; events are then skipped.
func NewCollectionService(
	source ports.FlightSource,
	engine *classify.Engine,
	observations ports.ObservationRepository,
	log ports.CollectionLogRepository,
	publisher ports.EventPublisher,
	opts CollectionOptions,
) *CollectionService {
	return &CollectionService{
		source:       source,
		engine:       engine,
		observations: observations,
		log:          log,
		publisher:    publisher,
		opts:         opts,
	}
}

// Run polls all areas until the context is cancelled. The interval adapts
// to the time of day: night hours poll less often than peak hours.
func (s *CollectionService) Run(ctx context.Context) error {
	for {
		for _, area := range s.opts.Areas {
			if err := ctx.Err(); err != nil {
				return err
			}
			entry := s.CollectOnce(ctx, area)
			if !entry.Success {
				slog.Warn("collection cycle failed",
					"area", area.Name, "error", entry.Error)
			} else {
				slog.Info("collection cycle complete",
					"area", area.Name,
					"aircraft", entry.AircraftCount,
					"duration_ms", entry.DurationMS)
			}
		}

		s.CleanupSnapshots()

		interval := s.Interval(time.Now())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Interval returns the poll interval in effect at t.
func (s *CollectionService) Interval(t time.Time) time.Duration {
	hour := t.Hour()
	start, end := s.opts.NightStartHour, s.opts.NightEndHour
	night := false
	if start <= end {
		night = hour >= start && hour < end
	} else {
		// Window wraps midnight, e.g. 23 to 6.
		night = hour >= start || hour < end
	}
	if night {
		return s.opts.NightInterval
	}
	return s.opts.PeakInterval
}

// CollectOnce runs one fetch-classify-persist cycle for an area and
// records the outcome in the collection log. It never returns an error:
// failures are captured in the returned entry.
func (s *CollectionService) CollectOnce(ctx context.Context, area Area) *domain.CollectionLogEntry {
	start := time.Now()
	entry := &domain.CollectionLogEntry{
		Area: area.Name,
		Time: start.UTC(),
	}

	reports, err := s.source.FetchStates(ctx, area.Bounds)
	metrics.FeedPollDuration.WithLabelValues(area.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FeedPollErrors.WithLabelValues(area.Name).Inc()
		entry.Error = err.Error()
		entry.DurationMS = time.Since(start).Milliseconds()
		s.record(ctx, entry)
		return entry
	}
	metrics.ReportsCollected.WithLabelValues(area.Name).Add(float64(len(reports)))

	classified := s.engine.ClassifyBatch(reports)
	for i := range classified {
		classified[i].Area = area.Name
	}
	s.countTiers(area.Name, classified)

	inserted := 0
	if len(classified) > 0 {
		inserted, err = s.observations.InsertBatch(ctx, classified)
		if err != nil {
			entry.Error = fmt.Sprintf("persist batch: %v", err)
			entry.DurationMS = time.Since(start).Milliseconds()
			s.record(ctx, entry)
			return entry
		}
	}

	s.publish(ctx, area.Name, classified)

	if s.opts.SnapshotDir != "" && len(classified) > 0 {
		if err := s.WriteSnapshot(area.Name, start, classified); err != nil {
			slog.Warn("snapshot write failed", "area", area.Name, "error", err)
		}
	}

	// The batch insert skips reports without coordinates; log what was stored.
	entry.Success = true
	entry.AircraftCount = inserted
	entry.DurationMS = time.Since(start).Milliseconds()
	s.record(ctx, entry)
	return entry
}

func (s *CollectionService) record(ctx context.Context, entry *domain.CollectionLogEntry) {
	if err := s.log.Insert(ctx, entry); err != nil {
		slog.Warn("collection log insert failed", "area", entry.Area, "error", err)
	}
}

func (s *CollectionService) countTiers(area string, reports []domain.ClassifiedReport) {
	for _, r := range reports {
		tier := domain.TierUndefined
		for _, a := range r.Assessments {
			if a.Tier.Rank() > tier.Rank() {
				tier = a.Tier
			}
		}
		metrics.ReportsClassified.WithLabelValues(area, string(tier)).Inc()
	}
}

func (s *CollectionService) publish(ctx context.Context, area string, reports []domain.ClassifiedReport) {
	if s.publisher == nil {
		return
	}
	for i := range reports {
		r := &reports[i]
		if err := s.publisher.PublishObservation(ctx, area, r); err != nil {
			slog.Warn("publish observation failed", "icao24", r.ICAO24, "error", err)
			continue
		}
		for _, a := range r.Assessments {
			if a.Tier == domain.TierHigh {
				if err := s.publisher.PublishNoiseAlert(ctx, area, r); err != nil {
					slog.Warn("publish noise alert failed", "icao24", r.ICAO24, "error", err)
				} else {
					metrics.NoiseAlertsPublished.WithLabelValues(area).Inc()
				}
				break
			}
		}
	}
}

// WriteSnapshot persists one cycle's classified batch as a JSON file for
// ad-hoc analysis and backfill.
func (s *CollectionService) WriteSnapshot(area string, at time.Time, reports []domain.ClassifiedReport) error {
	if err := os.MkdirAll(s.opts.SnapshotDir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", area, at.UTC().Format("20060102T150405Z"))
	path := filepath.Join(s.opts.SnapshotDir, name)

	data, err := json.Marshal(reports)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// CleanupSnapshots removes snapshot files older than the configured
// maximum age.
func (s *CollectionService) CleanupSnapshots() {
	if s.opts.SnapshotDir == "" || s.opts.SnapshotMaxAge <= 0 {
		return
	}

	entries, err := os.ReadDir(s.opts.SnapshotDir)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-s.opts.SnapshotMaxAge)

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.opts.SnapshotDir, e.Name())); err != nil {
				slog.Warn("snapshot cleanup failed", "file", e.Name(), "error", err)
			}
		}
	}
}
