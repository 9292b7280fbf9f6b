package domain

import (
	"time"
)

// PositionReport is a single raw aircraft state vector as received from the
// tracking feed. Optional fields are nil when the feed did not report them;
// they are never substituted with zero. A PositionReport is immutable once
// created.
type PositionReport struct {
	ICAO24         string    `json:"icao24"`
	Callsign       string    `json:"callsign,omitempty"`
	OriginCountry  string    `json:"origin_country,omitempty"`
	Latitude       *float64  `json:"latitude"`
	Longitude      *float64  `json:"longitude"`
	BaroAltitudeFt *float64  `json:"baro_altitude_ft"`
	GeoAltitudeFt  *float64  `json:"geo_altitude_ft,omitempty"`
	VelocityKt     *float64  `json:"velocity_kt,omitempty"`
	TrackDeg       *float64  `json:"track_deg,omitempty"`
	VerticalRate   *float64  `json:"vertical_rate_fpm,omitempty"`
	OnGround       bool      `json:"on_ground"`
	Squawk         string    `json:"squawk,omitempty"`
	SPI            bool      `json:"spi,omitempty"`
	PositionSource int       `json:"position_source"`
	Time           time.Time `json:"time"`
}

// Position returns the report's coordinates and whether they are present
// and valid. Reports with absent or non-finite coordinates are unusable
// for geometry.
func (r PositionReport) Position() (GeoPoint, bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return GeoPoint{}, false
	}
	p := GeoPoint{Lat: *r.Latitude, Lon: *r.Longitude}
	return p, p.Valid()
}

// ReferenceAssessment holds the derived fields of one report relative to
// one reference point. DistanceKM and BearingDeg are nil exactly when the
// source coordinates are unusable; NoiseDB is additionally nil when the
// barometric altitude is unknown. Phase, Corridor, and Tier carry their
// "undefined" values under the same conditions.
type ReferenceAssessment struct {
	Reference  string         `json:"reference"`
	DistanceKM *float64       `json:"distance_km"`
	BearingDeg *float64       `json:"bearing_deg"`
	Phase      OperationPhase `json:"operation_phase"`
	Corridor   Corridor       `json:"corridor"`
	NoiseDB    *float64       `json:"estimated_noise_db"`
	Tier       NoiseTier      `json:"noise_tier"`
}

// ClassifiedReport is a PositionReport enriched with one assessment per
// configured reference point plus the aircraft category. Created once,
// synchronously, never updated in place.
type ClassifiedReport struct {
	PositionReport

	Area        string                `json:"area,omitempty"`
	Category    AircraftCategory      `json:"aircraft_category"`
	Airline     string                `json:"airline,omitempty"`
	Assessments []ReferenceAssessment `json:"assessments"`
}

// Assessment returns the assessment for the named reference, or nil if the
// engine was not configured with it.
func (c *ClassifiedReport) Assessment(reference string) *ReferenceAssessment {
	for i := range c.Assessments {
		if c.Assessments[i].Reference == reference {
			return &c.Assessments[i]
		}
	}
	return nil
}
