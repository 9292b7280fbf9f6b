package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/giovanto/overhead/internal/core/classify"
	"github.com/giovanto/overhead/internal/core/domain"
	"github.com/giovanto/overhead/internal/core/ports"
)

// ReportService produces noise-impact reports and exposes the
// classification engine for ad-hoc use.
type ReportService struct {
	observations ports.ObservationRepository
	engine       *classify.Engine
	cache        ports.CacheService
}

// NewReportService creates a new ReportService.
func NewReportService(observations ports.ObservationRepository, engine *classify.Engine, cache ports.CacheService) *ReportService {
	return &ReportService{observations: observations, engine: engine, cache: cache}
}

// References returns the configured reference points.
func (s *ReportService) References() []domain.ReferencePoint {
	return s.engine.References()
}

// Impact aggregates noise impact for one reference point over a window.
// A zero window defaults to the last 7 days.
func (s *ReportService) Impact(ctx context.Context, reference string, from, to time.Time) (*domain.ImpactSummary, error) {
	if !s.knownReference(reference) {
		return nil, fmt.Errorf("unknown reference point %q", reference)
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-7 * 24 * time.Hour)
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("report window is empty: from %s, to %s", from, to)
	}

	cacheKey := fmt.Sprintf("impact:%s:%d:%d", reference, from.Unix(), to.Unix())
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var summary domain.ImpactSummary
			if err := json.Unmarshal(data, &summary); err == nil {
				return &summary, nil
			}
		}
	}

	summary, err := s.observations.ImpactSummary(ctx, reference, from, to)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(summary); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return summary, nil
}

// Classify runs the engine over caller-supplied reports. Output is 1:1
// with the input, in order.
func (s *ReportService) Classify(reports []domain.PositionReport) []domain.ClassifiedReport {
	return s.engine.ClassifyBatch(reports)
}

func (s *ReportService) knownReference(name string) bool {
	for _, ref := range s.engine.References() {
		if ref.Name == name {
			return true
		}
	}
	return false
}
