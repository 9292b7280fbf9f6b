package classify

import (
	"testing"

	"github.com/giovanto/overhead/internal/core/domain"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		icao24   string
		callsign string
		category domain.AircraftCategory
		airline  string
	}{
		{"empty identifier", "", "KLM1234", domain.CategoryUnknown, ""},
		{"european block", "484506", "", domain.CategoryCommercial, ""},
		{"european block lowercase", "d8a123", "", domain.CategoryCommercial, ""},
		{"north american block", "a1b2c3", "", domain.CategoryPrivateGA, ""},
		{"unrecognized block", "780abc", "", domain.CategoryOther, ""},
		{"klm callsign", "484506", "KLM1234", domain.CategoryCommercial, "KLM Royal Dutch Airlines"},
		{"transavia callsign", "484abc", "TRA5612", domain.CategoryCommercial, "Transavia"},
		{"ryanair overrides block", "a1b2c3", "RYR88QT", domain.CategoryCommercial, "Ryanair"},
		{"emirates callsign", "896123", "UAE57", domain.CategoryCommercial, "Emirates"},
		{"registration callsign", "780abc", "PH-ABC", domain.CategoryPrivateGA, ""},
		{"long registration-like callsign keeps block", "780abc", "PH-ABCDE", domain.CategoryOther, ""},
		{"whitespace trimmed", " 484506 ", " klm1234 ", domain.CategoryCommercial, "KLM Royal Dutch Airlines"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, airline := Categorize(tt.icao24, tt.callsign)
			if category != tt.category {
				t.Errorf("category: got %s, want %s", category, tt.category)
			}
			if airline != tt.airline {
				t.Errorf("airline: got %q, want %q", airline, tt.airline)
			}
		})
	}
}
