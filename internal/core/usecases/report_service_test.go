package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/giovanto/overhead/internal/core/domain"
	"github.com/giovanto/overhead/internal/core/usecases"
)

func TestReportService_Impact(t *testing.T) {
	repo := &mockObservationRepo{
		impactSummaryFn: func(ctx context.Context, reference string, from, to time.Time) (*domain.ImpactSummary, error) {
			if reference != "airport" {
				t.Errorf("reference = %q", reference)
			}
			if window := to.Sub(from); window != 7*24*time.Hour {
				t.Errorf("default window = %v, want 7 days", window)
			}
			return &domain.ImpactSummary{Reference: reference, Observations: 42}, nil
		},
	}

	svc := usecases.NewReportService(repo, testEngine(t), nil)
	summary, err := svc.Impact(context.Background(), "airport", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Observations != 42 {
		t.Errorf("observations = %d, want 42", summary.Observations)
	}
}

func TestReportService_Impact_UnknownReference(t *testing.T) {
	svc := usecases.NewReportService(&mockObservationRepo{}, testEngine(t), nil)
	if _, err := svc.Impact(context.Background(), "nowhere", time.Time{}, time.Time{}); err == nil {
		t.Error("expected error for unknown reference")
	}
}

func TestReportService_Impact_EmptyWindow(t *testing.T) {
	svc := usecases.NewReportService(&mockObservationRepo{}, testEngine(t), nil)
	at := time.Now()
	if _, err := svc.Impact(context.Background(), "airport", at, at); err == nil {
		t.Error("expected error for empty window")
	}
}

func TestReportService_Classify(t *testing.T) {
	svc := usecases.NewReportService(&mockObservationRepo{}, testEngine(t), nil)

	out := svc.Classify([]domain.PositionReport{
		positionReport("484506", 52.3105, 4.7783, 800),
	})
	if len(out) != 1 {
		t.Fatalf("expected 1 classified report, got %d", len(out))
	}
	a := out[0].Assessment("airport")
	if a == nil || a.Phase != domain.PhaseLandingTakeoff {
		t.Errorf("unexpected assessment: %+v", a)
	}
}

func TestReportService_References(t *testing.T) {
	svc := usecases.NewReportService(&mockObservationRepo{}, testEngine(t), nil)
	refs := svc.References()
	if len(refs) != 1 || refs[0].Name != "airport" {
		t.Errorf("unexpected references: %+v", refs)
	}
}
