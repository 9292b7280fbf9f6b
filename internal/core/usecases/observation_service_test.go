package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/giovanto/overhead/internal/core/domain"
	"github.com/giovanto/overhead/internal/core/ports"
	"github.com/giovanto/overhead/internal/core/usecases"
)

func TestObservationService_List_DefaultsWindowAndLimit(t *testing.T) {
	var got ports.ObservationFilter
	repo := &mockObservationRepo{
		listFn: func(ctx context.Context, filter ports.ObservationFilter) ([]domain.ClassifiedReport, error) {
			got = filter
			return nil, nil
		},
	}

	svc := usecases.NewObservationService(repo, nil)
	if _, err := svc.List(context.Background(), ports.ObservationFilter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Limit != 100 {
		t.Errorf("limit = %d, want default 100", got.Limit)
	}
	window := got.To.Sub(got.From)
	if window != 24*time.Hour {
		t.Errorf("default window = %v, want 24h", window)
	}
}

func TestObservationService_List_ClampsLimit(t *testing.T) {
	var got ports.ObservationFilter
	repo := &mockObservationRepo{
		listFn: func(ctx context.Context, filter ports.ObservationFilter) ([]domain.ClassifiedReport, error) {
			got = filter
			return nil, nil
		},
	}

	svc := usecases.NewObservationService(repo, nil)
	_, _ = svc.List(context.Background(), ports.ObservationFilter{Limit: 9999})
	if got.Limit != 100 {
		t.Errorf("limit = %d, want clamped to 100", got.Limit)
	}
}

func TestObservationService_ByAircraft_EmptyID(t *testing.T) {
	svc := usecases.NewObservationService(&mockObservationRepo{}, nil)
	if _, err := svc.ByAircraft(context.Background(), "", time.Time{}, time.Time{}, 10); err == nil {
		t.Error("expected error for empty icao24")
	}
}

func TestObservationService_Airspace_DeduplicatesAircraft(t *testing.T) {
	repo := &mockObservationRepo{
		listFn: func(ctx context.Context, filter ports.ObservationFilter) ([]domain.ClassifiedReport, error) {
			if filter.Area != "schiphol" {
				t.Errorf("area = %q", filter.Area)
			}
			return []domain.ClassifiedReport{
				{PositionReport: positionReport("484506", 52.31, 4.77, 2000)},
				{PositionReport: positionReport("484506", 52.32, 4.78, 2200)},
				{PositionReport: positionReport("a1b2c3", 52.40, 4.90, 9000)},
			}, nil
		},
	}

	svc := usecases.NewObservationService(repo, nil)
	reports, err := svc.Airspace(context.Background(), "schiphol")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 aircraft after deduplication, got %d", len(reports))
	}
	if reports[0].ICAO24 != "484506" || reports[1].ICAO24 != "a1b2c3" {
		t.Errorf("unexpected aircraft order: %s, %s", reports[0].ICAO24, reports[1].ICAO24)
	}
}
