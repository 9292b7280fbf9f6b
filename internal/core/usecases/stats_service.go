package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/giovanto/overhead/internal/core/domain"
	"github.com/giovanto/overhead/internal/core/ports"
)

// StatsService serves daily aggregates and collector health.
type StatsService struct {
	stats ports.StatsRepository
	log   ports.CollectionLogRepository
	cache ports.CacheService
}

// NewStatsService creates a new StatsService.
func NewStatsService(stats ports.StatsRepository, log ports.CollectionLogRepository, cache ports.CacheService) *StatsService {
	return &StatsService{stats: stats, log: log, cache: cache}
}

// Daily returns per-day aggregates for an area. A zero window defaults
// to the last 30 days.
func (s *StatsService) Daily(ctx context.Context, area string, from, to time.Time) ([]domain.DailyStats, error) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-30 * 24 * time.Hour)
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("stats window is empty: from %s, to %s", from, to)
	}

	cacheKey := fmt.Sprintf("stats:daily:%s:%s:%s", area, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var stats []domain.DailyStats
			if err := json.Unmarshal(data, &stats); err == nil {
				return stats, nil
			}
		}
	}

	stats, err := s.stats.ListDaily(ctx, area, from, to)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(stats); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}

	return stats, nil
}

// CollectorStatus returns recent collection health for each area.
func (s *StatsService) CollectorStatus(ctx context.Context, areas []string) ([]domain.CollectionStatus, error) {
	statuses := make([]domain.CollectionStatus, 0, len(areas))
	for _, area := range areas {
		status, err := s.log.Status(ctx, area)
		if err != nil {
			return nil, fmt.Errorf("status for area %q: %w", area, err)
		}
		statuses = append(statuses, *status)
	}
	return statuses, nil
}

// RecentCycles returns the latest collection log entries for one area.
func (s *StatsService) RecentCycles(ctx context.Context, area string, limit int) ([]domain.CollectionLogEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.log.Recent(ctx, area, limit)
}
