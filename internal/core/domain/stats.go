package domain

import "time"

// CollectionLogEntry records one polling cycle against the tracking feed.
type CollectionLogEntry struct {
	ID            int64     `json:"id"`
	Area          string    `json:"area"`
	Time          time.Time `json:"time"`
	AircraftCount int       `json:"aircraft_count"`
	Success       bool      `json:"success"`
	Error         string    `json:"error,omitempty"`
	DurationMS    int64     `json:"duration_ms"`
}

// CollectionStatus summarizes the recent health of the collector for an
// area: last cycle outcome plus rolling success counters.
type CollectionStatus struct {
	Area            string    `json:"area"`
	LastRun         time.Time `json:"last_run"`
	LastSuccess     time.Time `json:"last_success"`
	LastCount       int       `json:"last_count"`
	LastError       string    `json:"last_error,omitempty"`
	CyclesTotal     int64     `json:"cycles_total"`
	CyclesFailed    int64     `json:"cycles_failed"`
	ObservationsDay int64     `json:"observations_today"`
}

// DailyStats is one day's aggregate of persisted observations for an area.
type DailyStats struct {
	Day             time.Time `json:"day"`
	Area            string    `json:"area"`
	Observations    int64     `json:"observations"`
	UniqueAircraft  int64     `json:"unique_aircraft"`
	AvgNoiseDB      *float64  `json:"avg_noise_db"`
	MaxNoiseDB      *float64  `json:"max_noise_db"`
	HighTierCount   int64     `json:"high_tier_count"`
	NightFlights    int64     `json:"night_flights"`
	CollectionRuns  int64     `json:"collection_runs"`
	FailedRuns      int64     `json:"failed_runs"`
}

// PhaseCount pairs an operation phase with the number of observations in it.
type PhaseCount struct {
	Phase OperationPhase `json:"phase"`
	Count int64          `json:"count"`
}

// CorridorCount pairs an arrival corridor with its observation count.
type CorridorCount struct {
	Corridor Corridor `json:"corridor"`
	Count    int64    `json:"count"`
}

// TierCount pairs a noise tier with its observation count.
type TierCount struct {
	Tier  NoiseTier `json:"tier"`
	Count int64     `json:"count"`
}

// CategoryCount pairs an aircraft category with its observation count.
type CategoryCount struct {
	Category AircraftCategory `json:"category"`
	Count    int64            `json:"count"`
}

// AircraftActivity is one aircraft's contribution to an impact report.
type AircraftActivity struct {
	ICAO24     string   `json:"icao24"`
	Callsign   string   `json:"callsign,omitempty"`
	Count      int64    `json:"count"`
	MaxNoiseDB *float64 `json:"max_noise_db"`
}

// ImpactSummary is the aggregate noise-impact report for one reference
// point over a time window. NightFlights counts observations between
// 23:00 and 06:00 UTC.
type ImpactSummary struct {
	Reference      string             `json:"reference"`
	From           time.Time          `json:"from"`
	To             time.Time          `json:"to"`
	Observations   int64              `json:"observations"`
	UniqueAircraft int64              `json:"unique_aircraft"`
	NightFlights   int64              `json:"night_flights"`
	AvgNoiseDB     *float64           `json:"avg_noise_db"`
	MaxNoiseDB     *float64           `json:"max_noise_db"`
	AvgDistanceKM  *float64           `json:"avg_distance_km"`
	MinDistanceKM  *float64           `json:"min_distance_km"`
	Phases         []PhaseCount       `json:"phases"`
	Corridors      []CorridorCount    `json:"corridors"`
	Tiers          []TierCount        `json:"tiers"`
	Categories     []CategoryCount    `json:"categories"`
	TopAircraft    []AircraftActivity `json:"top_aircraft"`
}
