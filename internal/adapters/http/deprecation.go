package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// flightsSunset is when the legacy /v1/flights alias will be removed.
var flightsSunset = time.Date(2027, time.March, 1, 0, 0, 0, 0, time.UTC)

// Deprecated adds RFC 8594 Deprecation and Sunset headers plus a Link header
// pointing clients at the successor endpoint.
func Deprecated(alternative string, sunset time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Deprecation", "true")
		c.Set("Sunset", sunset.UTC().Format(time.RFC1123))
		if alternative != "" {
			c.Set("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, alternative))
		}
		days := time.Until(sunset).Hours() / 24
		c.Set("Warning", fmt.Sprintf(`299 - "Deprecated API, will sunset in %.0f days"`, days))
		return c.Next()
	}
}
