package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/giovanto/overhead/internal/core/domain"
	"github.com/giovanto/overhead/internal/core/ports"
)

// ObservationService handles observation queries.
type ObservationService struct {
	observations ports.ObservationRepository
	cache        ports.CacheService
}

// NewObservationService creates a new ObservationService.
func NewObservationService(observations ports.ObservationRepository, cache ports.CacheService) *ObservationService {
	return &ObservationService{observations: observations, cache: cache}
}

// List returns observations matching the filter, newest first. A zero
// time window defaults to the last 24 hours.
func (s *ObservationService) List(ctx context.Context, filter ports.ObservationFilter) ([]domain.ClassifiedReport, error) {
	normalizeWindow(&filter)
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.observations.List(ctx, filter)
}

// Count returns the number of observations matching the filter.
func (s *ObservationService) Count(ctx context.Context, filter ports.ObservationFilter) (int64, error) {
	normalizeWindow(&filter)
	return s.observations.Count(ctx, filter)
}

// ByAircraft returns recent observations for one aircraft.
func (s *ObservationService) ByAircraft(ctx context.Context, icao24 string, from, to time.Time, limit int) ([]domain.ClassifiedReport, error) {
	if icao24 == "" {
		return nil, fmt.Errorf("icao24 must not be empty")
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-24 * time.Hour)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.observations.ListByAircraft(ctx, icao24, from, to, limit)
}

// Airspace returns the most recent observation window for an area, a
// live picture of what is overhead right now. Cached briefly since
// collection cycles run on minute scale.
func (s *ObservationService) Airspace(ctx context.Context, area string) ([]domain.ClassifiedReport, error) {
	cacheKey := "airspace:" + area
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var reports []domain.ClassifiedReport
			if err := json.Unmarshal(data, &reports); err == nil {
				return reports, nil
			}
		}
	}

	now := time.Now().UTC()
	reports, err := s.observations.List(ctx, ports.ObservationFilter{
		Area:  area,
		From:  now.Add(-15 * time.Minute),
		To:    now,
		Limit: 500,
	})
	if err != nil {
		return nil, err
	}

	// Keep only the latest report per aircraft.
	seen := make(map[string]bool, len(reports))
	latest := reports[:0]
	for _, r := range reports {
		if seen[r.ICAO24] {
			continue
		}
		seen[r.ICAO24] = true
		latest = append(latest, r)
	}

	if s.cache != nil {
		if data, err := json.Marshal(latest); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 30)
		}
	}

	return latest, nil
}

func normalizeWindow(filter *ports.ObservationFilter) {
	if filter.To.IsZero() {
		filter.To = time.Now().UTC()
	}
	if filter.From.IsZero() {
		filter.From = filter.To.Add(-24 * time.Hour)
	}
}
