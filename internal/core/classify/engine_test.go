package classify

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/giovanto/overhead/internal/core/domain"
)

var testRefs = []domain.ReferencePoint{
	{Name: "airport", Lat: 52.3105, Lon: 4.7683},
	{Name: "residence", Lat: 52.3676, Lon: 4.9041},
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(testRefs, DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func f64(v float64) *float64 { return &v }

func report(lat, lon float64, altFt *float64) domain.PositionReport {
	return domain.PositionReport{
		ICAO24:         "484506",
		Callsign:       "KLM1234",
		Latitude:       &lat,
		Longitude:      &lon,
		BaroAltitudeFt: altFt,
		Time:           time.Unix(1700000000, 0),
	}
}

func TestNewEngineRejectsEmptyReferences(t *testing.T) {
	if _, err := NewEngine(nil, DefaultConfig()); err == nil {
		t.Fatal("expected error for empty reference set")
	}
}

func TestNewEngineRejectsInvalidReference(t *testing.T) {
	tests := []struct {
		name string
		ref  domain.ReferencePoint
	}{
		{"nan latitude", domain.ReferencePoint{Name: "bad", Lat: math.NaN(), Lon: 4.7}},
		{"inf longitude", domain.ReferencePoint{Name: "bad", Lat: 52.3, Lon: math.Inf(1)}},
		{"latitude out of domain", domain.ReferencePoint{Name: "bad", Lat: 91, Lon: 4.7}},
		{"longitude out of domain", domain.ReferencePoint{Name: "bad", Lat: 52.3, Lon: 181}},
		{"empty name", domain.ReferencePoint{Lat: 52.3, Lon: 4.7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewEngine([]domain.ReferencePoint{tt.ref}, DefaultConfig()); err == nil {
				t.Error("expected configuration error")
			}
		})
	}
}

func TestNewEngineRejectsNonFiniteConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseNoiseDB = math.NaN()
	if _, err := NewEngine(testRefs, cfg); err == nil {
		t.Fatal("expected error for NaN config value")
	}
}

func TestNewEngineRejectsNonIncreasingRanges(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApproachRangeKm = cfg.CloseRangeKm
	if _, err := NewEngine(testRefs, cfg); err == nil {
		t.Fatal("expected error for non-increasing range thresholds")
	}
}

func TestClassifyMissingCoordinatesAllUndefined(t *testing.T) {
	e := newTestEngine(t)

	lat := 52.3
	reports := []domain.PositionReport{
		{ICAO24: "484506"},
		{ICAO24: "484506", Latitude: &lat},
		report(math.NaN(), 4.7683, f64(800)),
		report(52.3, math.Inf(1), f64(800)),
		report(95.0, 4.7683, f64(800)),
	}
	for i, r := range reports {
		out := e.Classify(r)
		if len(out.Assessments) != len(testRefs) {
			t.Fatalf("report %d: got %d assessments, want %d", i, len(out.Assessments), len(testRefs))
		}
		for _, a := range out.Assessments {
			if a.DistanceKM != nil || a.BearingDeg != nil || a.NoiseDB != nil {
				t.Errorf("report %d ref %s: derived numeric fields must be undefined", i, a.Reference)
			}
			if a.Phase != domain.PhaseUndefined || a.Corridor != domain.CorridorUndefined || a.Tier != domain.TierUndefined {
				t.Errorf("report %d ref %s: derived enums must be undefined", i, a.Reference)
			}
		}
	}
}

func TestClassifyValidGeometryBounds(t *testing.T) {
	e := newTestEngine(t)
	out := e.Classify(report(52.45, 4.90, f64(3000)))
	for _, a := range out.Assessments {
		if a.DistanceKM == nil || *a.DistanceKM < 0 {
			t.Errorf("ref %s: distance must be defined and non-negative", a.Reference)
		}
		if a.BearingDeg == nil || *a.BearingDeg < 0 || *a.BearingDeg >= 360 {
			t.Errorf("ref %s: bearing must be in [0, 360)", a.Reference)
		}
	}
}

func TestClassifyAtReferencePoint(t *testing.T) {
	e := newTestEngine(t)
	out := e.Classify(report(52.3105, 4.7683, f64(0)))
	a := out.Assessment("airport")
	if a == nil || a.DistanceKM == nil {
		t.Fatal("expected defined assessment for airport reference")
	}
	if *a.DistanceKM > 1e-6 {
		t.Errorf("distance at reference should be ~0, got %f", *a.DistanceKM)
	}
	if a.NoiseDB == nil || *a.NoiseDB != 80 {
		t.Errorf("noise at distance 0, altitude 0 should be 80, got %v", a.NoiseDB)
	}
}

func TestClassifyLandingTakeoffScenario(t *testing.T) {
	e := newTestEngine(t)
	out := e.Classify(report(52.3105, 4.7783, f64(800)))
	a := out.Assessment("airport")
	if a.DistanceKM == nil || math.Abs(*a.DistanceKM-0.68) > 0.02 {
		t.Fatalf("expected distance ~0.68 km, got %v", a.DistanceKM)
	}
	if a.Phase != domain.PhaseLandingTakeoff {
		t.Errorf("expected landing_takeoff, got %s", a.Phase)
	}
}

func TestClassifyExtendedApproachScenario(t *testing.T) {
	e := newTestEngine(t)
	// ~20 km due north of the airport reference.
	out := e.Classify(report(52.3105+20.0/111.195, 4.7683, f64(8000)))
	a := out.Assessment("airport")
	if a.DistanceKM == nil || math.Abs(*a.DistanceKM-20) > 0.5 {
		t.Fatalf("expected distance ~20 km, got %v", a.DistanceKM)
	}
	if a.Phase != domain.PhaseExtendedApproach {
		t.Errorf("expected extended_approach, got %s", a.Phase)
	}
}

func TestPhaseDecisionTable(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		name   string
		distKm float64
		altFt  *float64
		want   domain.OperationPhase
	}{
		{"close low", 2, f64(500), domain.PhaseLandingTakeoff},
		{"close high", 2, f64(2000), domain.PhaseAirportVicinity},
		{"close missing alt", 2, nil, domain.PhaseAirportVicinity},
		{"approach low", 10, f64(3000), domain.PhaseApproachDeparture},
		{"approach high", 10, f64(7000), domain.PhaseTransitLow},
		{"approach missing alt", 10, nil, domain.PhaseTransitLow},
		{"extended low", 20, f64(8000), domain.PhaseExtendedApproach},
		{"extended high", 20, f64(12000), domain.PhaseTransitMedium},
		{"extended missing alt", 20, nil, domain.PhaseTransitMedium},
		{"far", 50, f64(500), domain.PhaseTransitHigh},
		{"far missing alt", 50, nil, domain.PhaseTransitHigh},
		{"band edge close", 5, f64(500), domain.PhaseApproachDeparture},
		{"band edge approach", 15, f64(500), domain.PhaseExtendedApproach},
		{"band edge extended", 30, f64(500), domain.PhaseTransitHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.phaseFor(tt.distKm, tt.altFt); got != tt.want {
				t.Errorf("phaseFor(%f): got %s, want %s", tt.distKm, got, tt.want)
			}
		})
	}
}

func TestCorridorPartition(t *testing.T) {
	counts := make(map[domain.Corridor]int)
	for b := 0.0; b < 360; b += 0.5 {
		c := corridorFor(b)
		if c == domain.CorridorUndefined {
			t.Fatalf("bearing %f mapped to undefined corridor", b)
		}
		counts[c]++
	}
	if len(counts) != 8 {
		t.Fatalf("expected 8 octants, got %d", len(counts))
	}
	for c, n := range counts {
		if n != 90 {
			t.Errorf("octant %s covers %d samples, want 90", c, n)
		}
	}
}

func TestCorridorBoundaries(t *testing.T) {
	tests := []struct {
		bearing float64
		want    domain.Corridor
	}{
		{0, domain.CorridorNorth},
		{44.9, domain.CorridorNorth},
		{45.0, domain.CorridorNortheast},
		{90.0, domain.CorridorEast},
		{135.0, domain.CorridorSoutheast},
		{180.0, domain.CorridorSouth},
		{225.0, domain.CorridorSouthwest},
		{270.0, domain.CorridorWest},
		{315.0, domain.CorridorNorthwest},
		{359.9, domain.CorridorNorthwest},
	}
	for _, tt := range tests {
		if got := corridorFor(tt.bearing); got != tt.want {
			t.Errorf("corridorFor(%f): got %s, want %s", tt.bearing, got, tt.want)
		}
	}
}

func TestNoiseExactVector(t *testing.T) {
	e := newTestEngine(t)
	// altitude term min(50, 40)=40, distance term min(20, 20)=20,
	// 80-40-20=20 floored to 30.
	if got := e.noiseFor(10, 10000); got != 30 {
		t.Errorf("noiseFor(10 km, 10000 ft): got %f, want 30", got)
	}
}

func TestNoiseMonotonicity(t *testing.T) {
	e := newTestEngine(t)
	for dist := 0.0; dist <= 40; dist += 5 {
		prev := math.Inf(1)
		for alt := 0.0; alt <= 15000; alt += 500 {
			n := e.noiseFor(dist, alt)
			if n > prev {
				t.Fatalf("noise increased with altitude at dist=%f alt=%f", dist, alt)
			}
			if n < e.cfg.FloorNoiseDB {
				t.Fatalf("noise %f below floor", n)
			}
			prev = n
		}
	}
	for alt := 0.0; alt <= 15000; alt += 1000 {
		prev := math.Inf(1)
		for dist := 0.0; dist <= 40; dist += 2 {
			n := e.noiseFor(dist, alt)
			if n > prev {
				t.Fatalf("noise increased with distance at dist=%f alt=%f", dist, alt)
			}
			prev = n
		}
	}
}

func TestNoiseTiers(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		noise float64
		want  domain.NoiseTier
	}{
		{80, domain.TierHigh},
		{65, domain.TierHigh},
		{64.9, domain.TierModerate},
		{55, domain.TierModerate},
		{54.9, domain.TierLow},
		{45, domain.TierLow},
		{44.9, domain.TierMinimal},
		{30, domain.TierMinimal},
	}
	for _, tt := range tests {
		if got := e.tierFor(tt.noise); got != tt.want {
			t.Errorf("tierFor(%f): got %s, want %s", tt.noise, got, tt.want)
		}
	}
}

func TestMissingAltitudeLeavesNoiseUndefined(t *testing.T) {
	e := newTestEngine(t)
	out := e.Classify(report(52.35, 4.80, nil))
	a := out.Assessment("airport")
	if a.DistanceKM == nil || a.BearingDeg == nil {
		t.Fatal("distance and bearing must be defined for valid coordinates")
	}
	if a.NoiseDB != nil || a.Tier != domain.TierUndefined {
		t.Error("noise and tier must be undefined without altitude")
	}
	if a.Phase == domain.PhaseUndefined {
		t.Error("phase must still resolve from the distance band")
	}
}

func TestClassifyIdempotent(t *testing.T) {
	e := newTestEngine(t)
	r := report(52.35, 4.82, f64(2500))
	a := e.Classify(r)
	b := e.Classify(r)
	if !reflect.DeepEqual(a, b) {
		t.Error("classifying the same report twice must yield identical output")
	}
}

func TestClassifyBatchOrder(t *testing.T) {
	e := newTestEngine(t)
	in := []domain.PositionReport{
		report(52.35, 4.82, f64(2500)),
		{ICAO24: "abc123"},
		report(52.50, 4.60, f64(9000)),
	}
	out := e.ClassifyBatch(in)
	if len(out) != len(in) {
		t.Fatalf("batch output length %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].ICAO24 != in[i].ICAO24 {
			t.Errorf("index %d: output order does not match input", i)
		}
	}
}
