package usecases_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/giovanto/overhead/internal/core/domain"
	"github.com/giovanto/overhead/internal/core/usecases"
)

var testArea = usecases.Area{
	Name:   "schiphol",
	Bounds: domain.Bounds{MinLat: 52.0, MinLon: 4.4, MaxLat: 52.6, MaxLon: 5.2},
}

func TestCollectionService_CollectOnce(t *testing.T) {
	source := &mockFlightSource{
		fetchStatesFn: func(ctx context.Context, bounds domain.Bounds) ([]domain.PositionReport, error) {
			return []domain.PositionReport{
				// At the airport reference, low altitude: high noise tier.
				positionReport("484506", 52.3105, 4.7683, 500),
				positionReport("a1b2c3", 52.55, 5.0, 12000),
			}, nil
		},
	}

	var inserted []domain.ClassifiedReport
	repo := &mockObservationRepo{
		insertBatchFn: func(ctx context.Context, reports []domain.ClassifiedReport) (int, error) {
			inserted = reports
			return len(reports), nil
		},
	}

	var logged *domain.CollectionLogEntry
	logRepo := &mockCollectionLogRepo{
		insertFn: func(ctx context.Context, entry *domain.CollectionLogEntry) error {
			logged = entry
			return nil
		},
	}

	pub := &mockPublisher{}
	svc := usecases.NewCollectionService(source, testEngine(t), repo, logRepo, pub, usecases.CollectionOptions{})

	entry := svc.CollectOnce(context.Background(), testArea)

	if !entry.Success || entry.AircraftCount != 2 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if logged == nil || logged.Area != "schiphol" {
		t.Fatal("cycle was not recorded in the collection log")
	}
	if len(inserted) != 2 {
		t.Fatalf("expected 2 persisted reports, got %d", len(inserted))
	}
	if inserted[0].Area != "schiphol" {
		t.Errorf("area not stamped on classified report: %q", inserted[0].Area)
	}
	if len(pub.observations) != 2 {
		t.Errorf("expected 2 observation events, got %d", len(pub.observations))
	}
	// Only the low, close aircraft crosses the high noise tier.
	if len(pub.alerts) != 1 || pub.alerts[0] != "484506" {
		t.Errorf("expected one alert for 484506, got %v", pub.alerts)
	}
}

func TestCollectionService_CollectOnce_LogsStoredCount(t *testing.T) {
	source := &mockFlightSource{
		fetchStatesFn: func(ctx context.Context, bounds domain.Bounds) ([]domain.PositionReport, error) {
			return []domain.PositionReport{
				positionReport("484506", 52.3105, 4.7683, 500),
				positionReport("a1b2c3", 52.55, 5.0, 12000),
			}, nil
		},
	}

	// The repo may store fewer rows than it was handed.
	repo := &mockObservationRepo{
		insertBatchFn: func(ctx context.Context, reports []domain.ClassifiedReport) (int, error) {
			return len(reports) - 1, nil
		},
	}
	logRepo := &mockCollectionLogRepo{}

	svc := usecases.NewCollectionService(source, testEngine(t), repo, logRepo, nil, usecases.CollectionOptions{})
	entry := svc.CollectOnce(context.Background(), testArea)

	if !entry.Success {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.AircraftCount != 1 {
		t.Errorf("aircraft count = %d, want the stored count 1", entry.AircraftCount)
	}
}

func TestCollectionService_CollectOnce_FetchError(t *testing.T) {
	source := &mockFlightSource{
		fetchStatesFn: func(ctx context.Context, bounds domain.Bounds) ([]domain.PositionReport, error) {
			return nil, errors.New("feed unavailable")
		},
	}

	inserted := false
	repo := &mockObservationRepo{
		insertBatchFn: func(ctx context.Context, reports []domain.ClassifiedReport) (int, error) {
			inserted = true
			return 0, nil
		},
	}

	var logged *domain.CollectionLogEntry
	logRepo := &mockCollectionLogRepo{
		insertFn: func(ctx context.Context, entry *domain.CollectionLogEntry) error {
			logged = entry
			return nil
		},
	}

	svc := usecases.NewCollectionService(source, testEngine(t), repo, logRepo, nil, usecases.CollectionOptions{})
	entry := svc.CollectOnce(context.Background(), testArea)

	if entry.Success {
		t.Error("entry must record failure")
	}
	if entry.Error == "" {
		t.Error("entry must carry the fetch error")
	}
	if inserted {
		t.Error("nothing should be persisted on fetch failure")
	}
	if logged == nil || logged.Success {
		t.Error("failed cycle must still be logged")
	}
}

func TestCollectionService_Interval(t *testing.T) {
	svc := usecases.NewCollectionService(nil, testEngine(t), nil, nil, nil, usecases.CollectionOptions{
		PeakInterval:   3 * time.Minute,
		NightInterval:  10 * time.Minute,
		NightStartHour: 23,
		NightEndHour:   6,
	})

	tests := []struct {
		hour int
		want time.Duration
	}{
		{14, 3 * time.Minute},
		{22, 3 * time.Minute},
		{23, 10 * time.Minute},
		{2, 10 * time.Minute},
		{5, 10 * time.Minute},
		{6, 3 * time.Minute},
	}
	for _, tt := range tests {
		at := time.Date(2026, 8, 1, tt.hour, 30, 0, 0, time.Local)
		if got := svc.Interval(at); got != tt.want {
			t.Errorf("hour %d: interval = %v, want %v", tt.hour, got, tt.want)
		}
	}
}

func TestCollectionService_Snapshots(t *testing.T) {
	dir := t.TempDir()
	svc := usecases.NewCollectionService(nil, testEngine(t), nil, nil, nil, usecases.CollectionOptions{
		SnapshotDir:    dir,
		SnapshotMaxAge: time.Hour,
	})

	reports := []domain.ClassifiedReport{
		{PositionReport: positionReport("484506", 52.31, 4.77, 500), Area: "schiphol"},
	}
	if err := svc.WriteSnapshot("schiphol", time.Now(), reports); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read snapshot dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(entries))
	}

	// Age a stale snapshot past the cutoff.
	stale := filepath.Join(dir, "schiphol_old.json")
	if err := os.WriteFile(stale, []byte("[]"), 0o644); err != nil {
		t.Fatalf("write stale snapshot: %v", err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("age stale snapshot: %v", err)
	}

	svc.CleanupSnapshots()

	entries, err = os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read snapshot dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected stale snapshot removed, %d files remain", len(entries))
	}
	for _, e := range entries {
		if e.Name() == "schiphol_old.json" {
			t.Error("stale snapshot survived cleanup")
		}
	}
}
