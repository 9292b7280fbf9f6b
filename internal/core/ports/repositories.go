package ports

import (
	"context"
	"time"

	"github.com/giovanto/overhead/internal/core/domain"
)

// ObservationFilter narrows observation queries. Zero values mean "no
// constraint" except Limit, which callers must set.
type ObservationFilter struct {
	From      time.Time
	To        time.Time
	Area      string
	ICAO24    string
	Reference string
	Phase     domain.OperationPhase
	Tier      domain.NoiseTier
	Limit     int
	Offset    int
}

// ObservationRepository persists classified position reports.
type ObservationRepository interface {
	InsertBatch(ctx context.Context, reports []domain.ClassifiedReport) (int, error)
	List(ctx context.Context, filter ObservationFilter) ([]domain.ClassifiedReport, error)
	Count(ctx context.Context, filter ObservationFilter) (int64, error)
	ListByAircraft(ctx context.Context, icao24 string, from, to time.Time, limit int) ([]domain.ClassifiedReport, error)
	ImpactSummary(ctx context.Context, reference string, from, to time.Time) (*domain.ImpactSummary, error)
	LatestObservationTime(ctx context.Context, area string) (time.Time, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CollectionLogRepository persists per-cycle collection outcomes.
type CollectionLogRepository interface {
	Insert(ctx context.Context, entry *domain.CollectionLogEntry) error
	Status(ctx context.Context, area string) (*domain.CollectionStatus, error)
	Recent(ctx context.Context, area string, limit int) ([]domain.CollectionLogEntry, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// StatsRepository maintains daily aggregates of observations.
type StatsRepository interface {
	RollupDay(ctx context.Context, day time.Time) error
	ListDaily(ctx context.Context, area string, from, to time.Time) ([]domain.DailyStats, error)
}
