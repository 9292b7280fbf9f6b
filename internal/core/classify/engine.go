// Package classify implements the geo-classification engine: per-report
// distance, bearing, operation phase, arrival corridor, and a heuristic
// noise estimate relative to a fixed set of reference points.
package classify

import (
	"fmt"
	"math"

	"github.com/giovanto/overhead/internal/core/domain"
	"github.com/giovanto/overhead/internal/pkg/geospatial"
)

// Config holds the noise model constants and classification thresholds.
// The defaults are heuristic values, not calibrated acoustic data; treat
// them as a starting point to be tuned against measurements.
type Config struct {
	BaseNoiseDB             float64 `mapstructure:"base_noise_db"`
	AltAttenuationPer1000Ft float64 `mapstructure:"alt_attenuation_per_1000ft"`
	AltAttenuationCapDB     float64 `mapstructure:"alt_attenuation_cap_db"`
	DistAttenuationPerKm    float64 `mapstructure:"dist_attenuation_per_km"`
	DistAttenuationCapDB    float64 `mapstructure:"dist_attenuation_cap_db"`
	FloorNoiseDB            float64 `mapstructure:"floor_noise_db"`

	CloseRangeKm    float64 `mapstructure:"close_range_km"`
	ApproachRangeKm float64 `mapstructure:"approach_range_km"`
	ExtendedRangeKm float64 `mapstructure:"extended_range_km"`
	CloseAltFt      float64 `mapstructure:"close_alt_ft"`
	ApproachAltFt   float64 `mapstructure:"approach_alt_ft"`
	ExtendedAltFt   float64 `mapstructure:"extended_alt_ft"`

	HighTierDB     float64 `mapstructure:"high_tier_db"`
	ModerateTierDB float64 `mapstructure:"moderate_tier_db"`
	LowTierDB      float64 `mapstructure:"low_tier_db"`
}

// DefaultConfig returns the validated default thresholds.
func DefaultConfig() Config {
	return Config{
		BaseNoiseDB:             80,
		AltAttenuationPer1000Ft: 5,
		AltAttenuationCapDB:     40,
		DistAttenuationPerKm:    2,
		DistAttenuationCapDB:    20,
		FloorNoiseDB:            30,

		CloseRangeKm:    5,
		ApproachRangeKm: 15,
		ExtendedRangeKm: 30,
		CloseAltFt:      1000,
		ApproachAltFt:   5000,
		ExtendedAltFt:   10000,

		HighTierDB:     65,
		ModerateTierDB: 55,
		LowTierDB:      45,
	}
}

// Engine classifies position reports against a fixed, ordered set of
// reference points. It is stateless after construction and safe for
// concurrent use.
type Engine struct {
	refs []domain.ReferencePoint
	cfg  Config
}

// NewEngine validates the reference set and configuration and returns a
// ready engine. Malformed references and non-finite constants are
// configuration errors and fail here, before any report is processed.
func NewEngine(refs []domain.ReferencePoint, cfg Config) (*Engine, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("classify: at least one reference point is required")
	}
	for _, ref := range refs {
		if ref.Name == "" {
			return nil, fmt.Errorf("classify: reference point with empty name")
		}
		if !ref.Point().Valid() {
			return nil, fmt.Errorf("classify: reference %q has invalid coordinates (%v, %v)", ref.Name, ref.Lat, ref.Lon)
		}
	}
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"base_noise_db", cfg.BaseNoiseDB},
		{"alt_attenuation_per_1000ft", cfg.AltAttenuationPer1000Ft},
		{"alt_attenuation_cap_db", cfg.AltAttenuationCapDB},
		{"dist_attenuation_per_km", cfg.DistAttenuationPerKm},
		{"dist_attenuation_cap_db", cfg.DistAttenuationCapDB},
		{"floor_noise_db", cfg.FloorNoiseDB},
		{"close_range_km", cfg.CloseRangeKm},
		{"approach_range_km", cfg.ApproachRangeKm},
		{"extended_range_km", cfg.ExtendedRangeKm},
		{"close_alt_ft", cfg.CloseAltFt},
		{"approach_alt_ft", cfg.ApproachAltFt},
		{"extended_alt_ft", cfg.ExtendedAltFt},
		{"high_tier_db", cfg.HighTierDB},
		{"moderate_tier_db", cfg.ModerateTierDB},
		{"low_tier_db", cfg.LowTierDB},
	} {
		if math.IsNaN(v.val) || math.IsInf(v.val, 0) {
			return nil, fmt.Errorf("classify: config value %s is not finite", v.name)
		}
	}
	if cfg.CloseRangeKm >= cfg.ApproachRangeKm || cfg.ApproachRangeKm >= cfg.ExtendedRangeKm {
		return nil, fmt.Errorf("classify: range thresholds must be strictly increasing")
	}

	out := &Engine{
		refs: make([]domain.ReferencePoint, len(refs)),
		cfg:  cfg,
	}
	copy(out.refs, refs)
	return out, nil
}

// References returns the configured reference points in declaration order.
func (e *Engine) References() []domain.ReferencePoint {
	refs := make([]domain.ReferencePoint, len(e.refs))
	copy(refs, e.refs)
	return refs
}

// Config returns the engine's active configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Classify produces one ClassifiedReport from one PositionReport. It never
// fails on data: reports without usable coordinates get every derived
// field undefined, for every reference, with no partial derivation.
func (e *Engine) Classify(report domain.PositionReport) domain.ClassifiedReport {
	out := domain.ClassifiedReport{
		PositionReport: report,
		Assessments:    make([]domain.ReferenceAssessment, 0, len(e.refs)),
	}
	out.Category, out.Airline = Categorize(report.ICAO24, report.Callsign)

	pos, ok := report.Position()
	for _, ref := range e.refs {
		a := domain.ReferenceAssessment{
			Reference: ref.Name,
			Phase:     domain.PhaseUndefined,
			Corridor:  domain.CorridorUndefined,
			Tier:      domain.TierUndefined,
		}
		if ok {
			e.assess(&a, ref, pos, report.BaroAltitudeFt)
		}
		out.Assessments = append(out.Assessments, a)
	}
	return out
}

// ClassifyBatch classifies each report in order. Output is 1:1 with the
// input: no filtering, no reordering.
func (e *Engine) ClassifyBatch(reports []domain.PositionReport) []domain.ClassifiedReport {
	out := make([]domain.ClassifiedReport, 0, len(reports))
	for _, r := range reports {
		out = append(out, e.Classify(r))
	}
	return out
}

func (e *Engine) assess(a *domain.ReferenceAssessment, ref domain.ReferencePoint, pos domain.GeoPoint, altFt *float64) {
	dist := geospatial.DistanceKm(ref.Lat, ref.Lon, pos.Lat, pos.Lon)
	bearing := geospatial.Bearing(ref.Lat, ref.Lon, pos.Lat, pos.Lon)
	a.DistanceKM = &dist
	a.BearingDeg = &bearing
	a.Corridor = corridorFor(bearing)

	if altFt != nil && !math.IsNaN(*altFt) && !math.IsInf(*altFt, 0) {
		a.Phase = e.phaseFor(dist, altFt)
		noise := e.noiseFor(dist, *altFt)
		a.NoiseDB = &noise
		a.Tier = e.tierFor(noise)
	} else {
		a.Phase = e.phaseFor(dist, nil)
	}
}

// phaseFor applies the priority-ordered (distance, altitude) decision
// table. A nil altitude is treated as not below any threshold, so it
// falls to the "else" branch of its distance band.
func (e *Engine) phaseFor(distKm float64, altFt *float64) domain.OperationPhase {
	below := func(threshold float64) bool {
		return altFt != nil && *altFt < threshold
	}
	switch {
	case distKm < e.cfg.CloseRangeKm:
		if below(e.cfg.CloseAltFt) {
			return domain.PhaseLandingTakeoff
		}
		return domain.PhaseAirportVicinity
	case distKm < e.cfg.ApproachRangeKm:
		if below(e.cfg.ApproachAltFt) {
			return domain.PhaseApproachDeparture
		}
		return domain.PhaseTransitLow
	case distKm < e.cfg.ExtendedRangeKm:
		if below(e.cfg.ExtendedAltFt) {
			return domain.PhaseExtendedApproach
		}
		return domain.PhaseTransitMedium
	default:
		return domain.PhaseTransitHigh
	}
}

// noiseFor estimates perceived noise in dB from altitude and distance
// attenuation, capped per term and floored at the configured minimum.
func (e *Engine) noiseFor(distKm, altFt float64) float64 {
	altTerm := math.Min(altFt/1000*e.cfg.AltAttenuationPer1000Ft, e.cfg.AltAttenuationCapDB)
	distTerm := math.Min(distKm*e.cfg.DistAttenuationPerKm, e.cfg.DistAttenuationCapDB)
	return math.Max(e.cfg.FloorNoiseDB, e.cfg.BaseNoiseDB-altTerm-distTerm)
}

func (e *Engine) tierFor(noiseDB float64) domain.NoiseTier {
	switch {
	case noiseDB >= e.cfg.HighTierDB:
		return domain.TierHigh
	case noiseDB >= e.cfg.ModerateTierDB:
		return domain.TierModerate
	case noiseDB >= e.cfg.LowTierDB:
		return domain.TierLow
	default:
		return domain.TierMinimal
	}
}

var octants = [8]domain.Corridor{
	domain.CorridorNorth,
	domain.CorridorNortheast,
	domain.CorridorEast,
	domain.CorridorSoutheast,
	domain.CorridorSouth,
	domain.CorridorSouthwest,
	domain.CorridorWest,
	domain.CorridorNorthwest,
}

// corridorFor maps a bearing in [0, 360) to its 45-degree octant. A
// bearing exactly on a sector edge belongs to the clockwise-following
// octant, so 45.0 is northeast while 44.999 is north.
func corridorFor(bearingDeg float64) domain.Corridor {
	idx := int(bearingDeg / 45)
	if idx < 0 || idx > 7 {
		return domain.CorridorUndefined
	}
	return octants[idx]
}
