package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Data freshness
	MetricFeedFreshness     = "feed.data_age_seconds"
	MetricCollectionLatency = "collector.cycle_latency"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricHighNoiseEvents = "business.high_noise_observations"
	MetricNightFlights    = "business.night_flights"
)
