package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/giovanto/overhead/internal/core/domain"
	"github.com/giovanto/overhead/internal/core/usecases"
)

func TestStatsService_Daily_DefaultWindow(t *testing.T) {
	repo := &mockStatsRepo{
		listDailyFn: func(ctx context.Context, area string, from, to time.Time) ([]domain.DailyStats, error) {
			if window := to.Sub(from); window != 30*24*time.Hour {
				t.Errorf("default window = %v, want 30 days", window)
			}
			return []domain.DailyStats{{Area: area, Observations: 10}}, nil
		},
	}

	svc := usecases.NewStatsService(repo, &mockCollectionLogRepo{}, nil)
	stats, err := svc.Daily(context.Background(), "schiphol", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats) != 1 || stats[0].Observations != 10 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestStatsService_Daily_EmptyWindow(t *testing.T) {
	svc := usecases.NewStatsService(&mockStatsRepo{}, &mockCollectionLogRepo{}, nil)
	at := time.Now()
	if _, err := svc.Daily(context.Background(), "schiphol", at, at); err == nil {
		t.Error("expected error for empty window")
	}
}

func TestStatsService_CollectorStatus(t *testing.T) {
	logRepo := &mockCollectionLogRepo{
		statusFn: func(ctx context.Context, area string) (*domain.CollectionStatus, error) {
			return &domain.CollectionStatus{Area: area, CyclesTotal: 5}, nil
		},
	}

	svc := usecases.NewStatsService(&mockStatsRepo{}, logRepo, nil)
	statuses, err := svc.CollectorStatus(context.Background(), []string{"schiphol", "bos_en_lommer"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0].Area != "schiphol" || statuses[1].Area != "bos_en_lommer" {
		t.Errorf("unexpected areas: %+v", statuses)
	}
}

func TestStatsService_RecentCycles_ClampsLimit(t *testing.T) {
	var gotLimit int
	logRepo := &mockCollectionLogRepo{
		recentFn: func(ctx context.Context, area string, limit int) ([]domain.CollectionLogEntry, error) {
			gotLimit = limit
			return nil, nil
		},
	}

	svc := usecases.NewStatsService(&mockStatsRepo{}, logRepo, nil)
	_, _ = svc.RecentCycles(context.Background(), "schiphol", 10000)
	if gotLimit != 50 {
		t.Errorf("limit = %d, want clamped to 50", gotLimit)
	}
}
