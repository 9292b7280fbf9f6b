package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/giovanto/overhead/internal/core/classify"
	"github.com/giovanto/overhead/internal/core/domain"
	"github.com/giovanto/overhead/internal/core/ports"
)

// --- Mock ObservationRepository ---

type mockObservationRepo struct {
	insertBatchFn    func(ctx context.Context, reports []domain.ClassifiedReport) (int, error)
	listFn           func(ctx context.Context, filter ports.ObservationFilter) ([]domain.ClassifiedReport, error)
	countFn          func(ctx context.Context, filter ports.ObservationFilter) (int64, error)
	listByAircraftFn func(ctx context.Context, icao24 string, from, to time.Time, limit int) ([]domain.ClassifiedReport, error)
	impactSummaryFn  func(ctx context.Context, reference string, from, to time.Time) (*domain.ImpactSummary, error)
}

func (m *mockObservationRepo) InsertBatch(ctx context.Context, reports []domain.ClassifiedReport) (int, error) {
	if m.insertBatchFn != nil {
		return m.insertBatchFn(ctx, reports)
	}
	return len(reports), nil
}

func (m *mockObservationRepo) List(ctx context.Context, filter ports.ObservationFilter) ([]domain.ClassifiedReport, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockObservationRepo) Count(ctx context.Context, filter ports.ObservationFilter) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, filter)
	}
	return 0, nil
}

func (m *mockObservationRepo) ListByAircraft(ctx context.Context, icao24 string, from, to time.Time, limit int) ([]domain.ClassifiedReport, error) {
	if m.listByAircraftFn != nil {
		return m.listByAircraftFn(ctx, icao24, from, to, limit)
	}
	return nil, nil
}

func (m *mockObservationRepo) ImpactSummary(ctx context.Context, reference string, from, to time.Time) (*domain.ImpactSummary, error) {
	if m.impactSummaryFn != nil {
		return m.impactSummaryFn(ctx, reference, from, to)
	}
	return &domain.ImpactSummary{Reference: reference}, nil
}

func (m *mockObservationRepo) LatestObservationTime(ctx context.Context, area string) (time.Time, error) {
	return time.Time{}, nil
}

func (m *mockObservationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// --- Mock CollectionLogRepository ---

type mockCollectionLogRepo struct {
	insertFn func(ctx context.Context, entry *domain.CollectionLogEntry) error
	statusFn func(ctx context.Context, area string) (*domain.CollectionStatus, error)
	recentFn func(ctx context.Context, area string, limit int) ([]domain.CollectionLogEntry, error)
}

func (m *mockCollectionLogRepo) Insert(ctx context.Context, entry *domain.CollectionLogEntry) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, entry)
	}
	return nil
}

func (m *mockCollectionLogRepo) Status(ctx context.Context, area string) (*domain.CollectionStatus, error) {
	if m.statusFn != nil {
		return m.statusFn(ctx, area)
	}
	return &domain.CollectionStatus{Area: area}, nil
}

func (m *mockCollectionLogRepo) Recent(ctx context.Context, area string, limit int) ([]domain.CollectionLogEntry, error) {
	if m.recentFn != nil {
		return m.recentFn(ctx, area, limit)
	}
	return nil, nil
}

func (m *mockCollectionLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// --- Mock StatsRepository ---

type mockStatsRepo struct {
	listDailyFn func(ctx context.Context, area string, from, to time.Time) ([]domain.DailyStats, error)
}

func (m *mockStatsRepo) RollupDay(ctx context.Context, day time.Time) error { return nil }

func (m *mockStatsRepo) ListDaily(ctx context.Context, area string, from, to time.Time) ([]domain.DailyStats, error) {
	if m.listDailyFn != nil {
		return m.listDailyFn(ctx, area, from, to)
	}
	return nil, nil
}

// --- Mock FlightSource ---

type mockFlightSource struct {
	fetchStatesFn func(ctx context.Context, bounds domain.Bounds) ([]domain.PositionReport, error)
}

func (m *mockFlightSource) FetchStates(ctx context.Context, bounds domain.Bounds) ([]domain.PositionReport, error) {
	if m.fetchStatesFn != nil {
		return m.fetchStatesFn(ctx, bounds)
	}
	return nil, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	observations []string
	alerts       []string
}

func (m *mockPublisher) PublishObservation(ctx context.Context, area string, report *domain.ClassifiedReport) error {
	m.observations = append(m.observations, report.ICAO24)
	return nil
}

func (m *mockPublisher) PublishNoiseAlert(ctx context.Context, area string, report *domain.ClassifiedReport) error {
	m.alerts = append(m.alerts, report.ICAO24)
	return nil
}

func (m *mockPublisher) PublishBroadcast(ctx context.Context, data []byte) error { return nil }

// --- Helpers ---

func testEngine(t *testing.T) *classify.Engine {
	t.Helper()
	engine, err := classify.NewEngine([]domain.ReferencePoint{
		{Name: "airport", Lat: 52.3105, Lon: 4.7683},
	}, classify.DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func positionReport(icao24 string, lat, lon, altFt float64) domain.PositionReport {
	return domain.PositionReport{
		ICAO24:         icao24,
		Latitude:       &lat,
		Longitude:      &lon,
		BaroAltitudeFt: &altFt,
		Time:           time.Unix(1700000000, 0).UTC(),
	}
}
