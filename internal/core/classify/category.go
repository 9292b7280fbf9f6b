package classify

import (
	"strings"

	"github.com/giovanto/overhead/internal/core/domain"
)

// airlinePrefixes maps known callsign prefixes to airline names, in
// declaration order. First match wins.
var airlinePrefixes = []struct {
	prefix  string
	airline string
}{
	{"KLM", "KLM Royal Dutch Airlines"},
	{"TRA", "Transavia"},
	{"EZY", "EasyJet"},
	{"RYR", "Ryanair"},
	{"BAW", "British Airways"},
	{"DLH", "Lufthansa"},
	{"AFR", "Air France"},
	{"UAE", "Emirates"},
	{"QTR", "Qatar Airways"},
}

// registrationPrefixes are tail-number style callsign prefixes that mark
// private or general-aviation aircraft when the callsign is short.
var registrationPrefixes = []string{"N", "G-", "PH-", "D-", "F-"}

// Categorize maps an ICAO 24-bit address and optional callsign to a
// coarse aircraft category and, when a known airline prefix matches, the
// airline name. An empty address yields CategoryUnknown.
func Categorize(icao24, callsign string) (domain.AircraftCategory, string) {
	icao24 = strings.ToUpper(strings.TrimSpace(icao24))
	if icao24 == "" {
		return domain.CategoryUnknown, ""
	}

	category := domain.CategoryOther
	switch {
	case strings.HasPrefix(icao24, "4"),
		strings.HasPrefix(icao24, "D"),
		strings.HasPrefix(icao24, "G"),
		strings.HasPrefix(icao24, "F"),
		strings.HasPrefix(icao24, "I"):
		// European allocation blocks lean heavily commercial.
		category = domain.CategoryCommercial
	case strings.HasPrefix(icao24, "A"), strings.HasPrefix(icao24, "C"):
		// North American blocks skew private and corporate.
		category = domain.CategoryPrivateGA
	}

	callsign = strings.ToUpper(strings.TrimSpace(callsign))
	if callsign == "" {
		return category, ""
	}

	for _, p := range airlinePrefixes {
		if strings.HasPrefix(callsign, p.prefix) {
			return domain.CategoryCommercial, p.airline
		}
	}

	// Registration-style callsigns at typical tail-number length.
	if len(callsign) <= 6 {
		for _, p := range registrationPrefixes {
			if strings.HasPrefix(callsign, p) {
				return domain.CategoryPrivateGA, ""
			}
		}
	}

	return category, ""
}
