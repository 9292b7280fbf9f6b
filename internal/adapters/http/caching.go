package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Adds sensible defaults if not already set by the handler.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		// Only set on GET requests
		if c.Method() != "GET" {
			return err
		}

		// Don't override if already set
		if existing := c.Get("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		// Default cache times by endpoint pattern
		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10" // Very short for system checks

		case path == "/metrics":
			ttl = "no-cache" // Metrics are real-time

		case path == "/graphql":
			ttl = "private, max-age=0" // GraphQL varies wildly

		case path == "/v1/references":
			ttl = "public, max-age=3600" // Reference points rarely change

		case path == "/v1/airspace":
			ttl = "public, max-age=15" // Live view, collection runs on minute scale

		case strings.HasPrefix(path, "/v1/collector"):
			ttl = "public, max-age=30" // Collector health is near real-time

		case strings.HasPrefix(path, "/v1/stats"):
			ttl = "public, max-age=600" // Daily aggregates: 10 min

		case strings.HasPrefix(path, "/v1/reports"):
			ttl = "public, max-age=300" // Impact reports: 5 min

		case strings.HasPrefix(path, "/v1/aircraft/"):
			ttl = "public, max-age=60" // Per-aircraft history: 1 min

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=60" // 1 min default for observation data
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
