package domain

// OperationPhase is a coarse classification of a flight's relationship to
// the airport, inferred from distance and altitude only.
type OperationPhase string

const (
	PhaseUndefined         OperationPhase = "undefined"
	PhaseLandingTakeoff    OperationPhase = "landing_takeoff"
	PhaseAirportVicinity   OperationPhase = "airport_vicinity"
	PhaseApproachDeparture OperationPhase = "approach_departure"
	PhaseTransitLow        OperationPhase = "transit_low"
	PhaseExtendedApproach  OperationPhase = "extended_approach"
	PhaseTransitMedium     OperationPhase = "transit_medium"
	PhaseTransitHigh       OperationPhase = "transit_high"
)

// Corridor is one of 8 compass-octant buckets approximating which
// approach/departure path a flight is using.
type Corridor string

const (
	CorridorUndefined Corridor = "undefined"
	CorridorNorth     Corridor = "north"
	CorridorNortheast Corridor = "northeast"
	CorridorEast      Corridor = "east"
	CorridorSoutheast Corridor = "southeast"
	CorridorSouth     Corridor = "south"
	CorridorSouthwest Corridor = "southwest"
	CorridorWest      Corridor = "west"
	CorridorNorthwest Corridor = "northwest"
)

// NoiseTier is an ordered categorical bucketing of an estimated perceived
// noise level.
type NoiseTier string

const (
	TierUndefined NoiseTier = "undefined"
	TierMinimal   NoiseTier = "minimal"
	TierLow       NoiseTier = "low"
	TierModerate  NoiseTier = "moderate"
	TierHigh      NoiseTier = "high"
)

// Rank returns the tier's position in the minimal..high ordering.
// Undefined ranks below every defined tier.
func (t NoiseTier) Rank() int {
	switch t {
	case TierMinimal:
		return 1
	case TierLow:
		return 2
	case TierModerate:
		return 3
	case TierHigh:
		return 4
	default:
		return 0
	}
}

// AircraftCategory is a coarse aircraft classification derived from the
// ICAO24 address prefix and, when available, the callsign.
type AircraftCategory string

const (
	CategoryUnknown    AircraftCategory = "unknown"
	CategoryCommercial AircraftCategory = "commercial"
	CategoryPrivateGA  AircraftCategory = "private_general_aviation"
	CategoryOther      AircraftCategory = "other"
)
