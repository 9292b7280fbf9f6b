package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/giovanto/overhead/internal/core/domain"
	"github.com/giovanto/overhead/internal/core/ports"
)

// ListObservationsHandler returns stored observations, newest first.
// Filters: from/to (RFC 3339), area, icao24, reference, phase, tier.
func ListObservationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter, err := observationFilter(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 500 {
			limit = 100
		}
		filter.Offset = offset
		filter.Limit = limit

		reports, err := deps.Observations.List(c.Context(), filter)
		if err != nil {
			return errInternal(c, err.Error())
		}
		total, err := deps.Observations.Count(c.Context(), filter)
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: int(total)}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: reports, Pagination: pg})
	}
}

// AirspaceHandler returns the latest observation per aircraft for an area,
// a live picture of what is overhead right now.
func AirspaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		area := c.Query("area")
		if area == "" {
			return errBadRequest(c, "area query parameter is required")
		}
		if !knownArea(deps.Areas, area) {
			return errNotFound(c, "unknown area")
		}

		reports, err := deps.Observations.Airspace(c.Context(), area)
		if err != nil {
			return errInternal(c, err.Error())
		}

		return c.JSON(fiber.Map{
			"area":     area,
			"aircraft": reports,
			"count":    len(reports),
		})
	}
}

// AircraftHistoryHandler returns recent observations for one aircraft.
func AircraftHistoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		icao24 := strings.ToLower(strings.TrimSpace(c.Params("icao24")))
		if icao24 == "" {
			return errBadRequest(c, "icao24 is required")
		}

		from, to, err := timeWindow(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		limit := c.QueryInt("limit", 100)

		reports, err := deps.Observations.ByAircraft(c.Context(), icao24, from, to, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(reports)
	}
}

// ListReferencesHandler returns the configured reference points.
func ListReferencesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		refs := deps.Reports.References()
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(fiber.Map{
			"references": refs,
			"count":      len(refs),
		})
	}
}

// ImpactReportHandler aggregates noise impact around a reference point.
func ImpactReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reference := c.Query("reference")
		if reference == "" {
			return errBadRequest(c, "reference query parameter is required")
		}

		from, to, err := timeWindow(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		summary, err := deps.Reports.Impact(c.Context(), reference, from, to)
		if err != nil {
			if strings.Contains(err.Error(), "unknown reference") {
				return errNotFound(c, err.Error())
			}
			return errBadRequest(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(summary)
	}
}

// DailyStatsHandler returns per-day aggregates, optionally for one area.
func DailyStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		area := c.Query("area")
		if area != "" && !knownArea(deps.Areas, area) {
			return errNotFound(c, "unknown area")
		}

		from, to, err := timeWindow(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		stats, err := deps.Stats.Daily(c.Context(), area, from, to)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=600")
		return c.JSON(stats)
	}
}

// CollectorStatusHandler reports collection health for every area.
func CollectorStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		statuses, err := deps.Stats.CollectorStatus(c.Context(), deps.Areas)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{
			"areas": statuses,
			"count": len(statuses),
		})
	}
}

// CollectorCyclesHandler returns the latest collection log entries for one area.
func CollectorCyclesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		area := c.Query("area")
		if area == "" {
			return errBadRequest(c, "area query parameter is required")
		}
		if !knownArea(deps.Areas, area) {
			return errNotFound(c, "unknown area")
		}
		limit := c.QueryInt("limit", 50)

		entries, err := deps.Stats.RecentCycles(c.Context(), area, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(entries)
	}
}

// classifyRequest is the body of POST /v1/classify.
type classifyRequest struct {
	Reports []domain.PositionReport `json:"reports"`
}

// ClassifyHandler runs the classification engine over caller-supplied
// position reports without storing anything.
func ClassifyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req classifyRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}
		if len(req.Reports) == 0 {
			return errBadRequest(c, "reports must not be empty")
		}
		if len(req.Reports) > 500 {
			return errBadRequest(c, "maximum 500 reports per request")
		}

		classified := deps.Reports.Classify(req.Reports)
		return c.JSON(fiber.Map{
			"reports": classified,
			"count":   len(classified),
		})
	}
}

// observationFilter builds a repository filter from query parameters.
func observationFilter(c *fiber.Ctx) (ports.ObservationFilter, error) {
	from, to, err := timeWindow(c)
	if err != nil {
		return ports.ObservationFilter{}, err
	}
	return ports.ObservationFilter{
		From:      from,
		To:        to,
		Area:      c.Query("area"),
		ICAO24:    strings.ToLower(strings.TrimSpace(c.Query("icao24"))),
		Reference: c.Query("reference"),
		Phase:     domain.OperationPhase(c.Query("phase")),
		Tier:      domain.NoiseTier(c.Query("tier")),
	}, nil
}

// timeWindow parses optional from/to query parameters as RFC 3339.
// Zero values are returned when absent; services apply their defaults.
func timeWindow(c *fiber.Ctx) (time.Time, time.Time, error) {
	var from, to time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, fiber.NewError(fiber.StatusBadRequest, "from must be RFC 3339")
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, fiber.NewError(fiber.StatusBadRequest, "to must be RFC 3339")
		}
		to = t
	}
	return from, to, nil
}

func knownArea(areas []string, name string) bool {
	for _, a := range areas {
		if a == name {
			return true
		}
	}
	return false
}
