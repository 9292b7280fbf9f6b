package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/giovanto/overhead/internal/core/domain"
	"github.com/giovanto/overhead/internal/core/ports"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	referenceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ReferencePoint",
		Fields: graphql.Fields{
			"name": &graphql.Field{Type: graphql.String},
			"lat":  &graphql.Field{Type: graphql.Float},
			"lon":  &graphql.Field{Type: graphql.Float},
		},
	})

	assessmentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Assessment",
		Fields: graphql.Fields{
			"reference":          &graphql.Field{Type: graphql.String},
			"distance_km":        &graphql.Field{Type: graphql.Float},
			"bearing_deg":        &graphql.Field{Type: graphql.Float},
			"operation_phase":    &graphql.Field{Type: graphql.String},
			"corridor":           &graphql.Field{Type: graphql.String},
			"estimated_noise_db": &graphql.Field{Type: graphql.Float},
			"noise_tier":         &graphql.Field{Type: graphql.String},
		},
	})

	observationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Observation",
		Fields: graphql.Fields{
			"icao24":            &graphql.Field{Type: graphql.String},
			"callsign":          &graphql.Field{Type: graphql.String},
			"origin_country":    &graphql.Field{Type: graphql.String},
			"latitude":          &graphql.Field{Type: graphql.Float},
			"longitude":         &graphql.Field{Type: graphql.Float},
			"baro_altitude_ft":  &graphql.Field{Type: graphql.Float},
			"velocity_kt":       &graphql.Field{Type: graphql.Float},
			"track_deg":         &graphql.Field{Type: graphql.Float},
			"on_ground":         &graphql.Field{Type: graphql.Boolean},
			"time":              &graphql.Field{Type: graphql.String},
			"area":              &graphql.Field{Type: graphql.String},
			"aircraft_category": &graphql.Field{Type: graphql.String},
			"airline":           &graphql.Field{Type: graphql.String},
			"assessments":       &graphql.Field{Type: graphql.NewList(assessmentType)},
		},
	})

	countType := graphql.NewObject(graphql.ObjectConfig{
		Name: "KeyCount",
		Fields: graphql.Fields{
			"key":   &graphql.Field{Type: graphql.String},
			"count": &graphql.Field{Type: graphql.Int},
		},
	})

	activityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AircraftActivity",
		Fields: graphql.Fields{
			"icao24":       &graphql.Field{Type: graphql.String},
			"callsign":     &graphql.Field{Type: graphql.String},
			"count":        &graphql.Field{Type: graphql.Int},
			"max_noise_db": &graphql.Field{Type: graphql.Float},
		},
	})

	impactType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ImpactSummary",
		Fields: graphql.Fields{
			"reference":       &graphql.Field{Type: graphql.String},
			"from":            &graphql.Field{Type: graphql.String},
			"to":              &graphql.Field{Type: graphql.String},
			"observations":    &graphql.Field{Type: graphql.Int},
			"unique_aircraft": &graphql.Field{Type: graphql.Int},
			"night_flights":   &graphql.Field{Type: graphql.Int},
			"avg_noise_db":    &graphql.Field{Type: graphql.Float},
			"max_noise_db":    &graphql.Field{Type: graphql.Float},
			"avg_distance_km": &graphql.Field{Type: graphql.Float},
			"min_distance_km": &graphql.Field{Type: graphql.Float},
			"phases":          &graphql.Field{Type: graphql.NewList(countType)},
			"corridors":       &graphql.Field{Type: graphql.NewList(countType)},
			"tiers":           &graphql.Field{Type: graphql.NewList(countType)},
			"categories":      &graphql.Field{Type: graphql.NewList(countType)},
			"top_aircraft":    &graphql.Field{Type: graphql.NewList(activityType)},
		},
	})

	dailyStatsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DailyStats",
		Fields: graphql.Fields{
			"day":             &graphql.Field{Type: graphql.String},
			"area":            &graphql.Field{Type: graphql.String},
			"observations":    &graphql.Field{Type: graphql.Int},
			"unique_aircraft": &graphql.Field{Type: graphql.Int},
			"avg_noise_db":    &graphql.Field{Type: graphql.Float},
			"max_noise_db":    &graphql.Field{Type: graphql.Float},
			"high_tier_count": &graphql.Field{Type: graphql.Int},
			"night_flights":   &graphql.Field{Type: graphql.Int},
		},
	})

	statusType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CollectorStatus",
		Fields: graphql.Fields{
			"area":               &graphql.Field{Type: graphql.String},
			"last_run":           &graphql.Field{Type: graphql.String},
			"last_success":       &graphql.Field{Type: graphql.String},
			"last_count":         &graphql.Field{Type: graphql.Int},
			"last_error":         &graphql.Field{Type: graphql.String},
			"cycles_total":       &graphql.Field{Type: graphql.Int},
			"cycles_failed":      &graphql.Field{Type: graphql.Int},
			"observations_today": &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"references": &graphql.Field{
				Type:        graphql.NewList(referenceType),
				Description: "Configured reference points",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var result []map[string]interface{}
					for _, ref := range deps.Reports.References() {
						result = append(result, map[string]interface{}{
							"name": ref.Name,
							"lat":  ref.Lat,
							"lon":  ref.Lon,
						})
					}
					return result, nil
				},
			},
			"airspace": &graphql.Field{
				Type:        graphql.NewList(observationType),
				Description: "Latest observation per aircraft currently over an area",
				Args: graphql.FieldConfigArgument{
					"area": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					area := p.Args["area"].(string)
					reports, err := deps.Observations.Airspace(p.Context, area)
					if err != nil {
						return nil, err
					}
					return observationMaps(reports), nil
				},
			},
			"observations": &graphql.Field{
				Type:        graphql.NewList(observationType),
				Description: "Stored observations, newest first",
				Args: graphql.FieldConfigArgument{
					"area":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"icao24": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					reports, err := deps.Observations.List(p.Context, ports.ObservationFilter{
						Area:   p.Args["area"].(string),
						ICAO24: p.Args["icao24"].(string),
						Limit:  p.Args["limit"].(int),
					})
					if err != nil {
						return nil, err
					}
					return observationMaps(reports), nil
				},
			},
			"impact": &graphql.Field{
				Type:        impactType,
				Description: "Noise impact around a reference point (default: last 7 days)",
				Args: graphql.FieldConfigArgument{
					"reference": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					reference := p.Args["reference"].(string)
					summary, err := deps.Reports.Impact(p.Context, reference, time.Time{}, time.Time{})
					if err != nil {
						return nil, err
					}
					return impactMap(summary), nil
				},
			},
			"dailyStats": &graphql.Field{
				Type:        graphql.NewList(dailyStatsType),
				Description: "Per-day aggregates (default: last 30 days)",
				Args: graphql.FieldConfigArgument{
					"area": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					stats, err := deps.Stats.Daily(p.Context, p.Args["area"].(string), time.Time{}, time.Time{})
					if err != nil {
						return nil, err
					}
					var result []map[string]interface{}
					for _, s := range stats {
						result = append(result, map[string]interface{}{
							"day":             s.Day.Format("2006-01-02"),
							"area":            s.Area,
							"observations":    s.Observations,
							"unique_aircraft": s.UniqueAircraft,
							"avg_noise_db":    s.AvgNoiseDB,
							"max_noise_db":    s.MaxNoiseDB,
							"high_tier_count": s.HighTierCount,
							"night_flights":   s.NightFlights,
						})
					}
					return result, nil
				},
			},
			"collectorStatus": &graphql.Field{
				Type:        graphql.NewList(statusType),
				Description: "Collection health per monitored area",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					statuses, err := deps.Stats.CollectorStatus(p.Context, deps.Areas)
					if err != nil {
						return nil, err
					}
					var result []map[string]interface{}
					for _, s := range statuses {
						result = append(result, map[string]interface{}{
							"area":               s.Area,
							"last_run":           s.LastRun.Format(time.RFC3339),
							"last_success":       s.LastSuccess.Format(time.RFC3339),
							"last_count":         s.LastCount,
							"last_error":         s.LastError,
							"cycles_total":       s.CyclesTotal,
							"cycles_failed":      s.CyclesFailed,
							"observations_today": s.ObservationsDay,
						})
					}
					return result, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// observationMaps converts classified reports into GraphQL-friendly maps.
func observationMaps(reports []domain.ClassifiedReport) []map[string]interface{} {
	var result []map[string]interface{}
	for _, r := range reports {
		var assessments []map[string]interface{}
		for _, a := range r.Assessments {
			assessments = append(assessments, map[string]interface{}{
				"reference":          a.Reference,
				"distance_km":        a.DistanceKM,
				"bearing_deg":        a.BearingDeg,
				"operation_phase":    string(a.Phase),
				"corridor":           string(a.Corridor),
				"estimated_noise_db": a.NoiseDB,
				"noise_tier":         string(a.Tier),
			})
		}
		result = append(result, map[string]interface{}{
			"icao24":            r.ICAO24,
			"callsign":          r.Callsign,
			"origin_country":    r.OriginCountry,
			"latitude":          r.Latitude,
			"longitude":         r.Longitude,
			"baro_altitude_ft":  r.BaroAltitudeFt,
			"velocity_kt":       r.VelocityKt,
			"track_deg":         r.TrackDeg,
			"on_ground":         r.OnGround,
			"time":              r.Time.Format(time.RFC3339),
			"area":              r.Area,
			"aircraft_category": string(r.Category),
			"airline":           r.Airline,
			"assessments":       assessments,
		})
	}
	return result
}

func impactMap(s *domain.ImpactSummary) map[string]interface{} {
	kc := func(key string, count int64) map[string]interface{} {
		return map[string]interface{}{"key": key, "count": count}
	}

	var phases, corridors, tiers, categories []map[string]interface{}
	for _, p := range s.Phases {
		phases = append(phases, kc(string(p.Phase), p.Count))
	}
	for _, c := range s.Corridors {
		corridors = append(corridors, kc(string(c.Corridor), c.Count))
	}
	for _, t := range s.Tiers {
		tiers = append(tiers, kc(string(t.Tier), t.Count))
	}
	for _, c := range s.Categories {
		categories = append(categories, kc(string(c.Category), c.Count))
	}

	var topAircraft []map[string]interface{}
	for _, a := range s.TopAircraft {
		topAircraft = append(topAircraft, map[string]interface{}{
			"icao24":       a.ICAO24,
			"callsign":     a.Callsign,
			"count":        a.Count,
			"max_noise_db": a.MaxNoiseDB,
		})
	}

	return map[string]interface{}{
		"reference":       s.Reference,
		"from":            s.From.Format(time.RFC3339),
		"to":              s.To.Format(time.RFC3339),
		"observations":    s.Observations,
		"unique_aircraft": s.UniqueAircraft,
		"night_flights":   s.NightFlights,
		"avg_noise_db":    s.AvgNoiseDB,
		"max_noise_db":    s.MaxNoiseDB,
		"avg_distance_km": s.AvgDistanceKM,
		"min_distance_km": s.MinDistanceKM,
		"phases":          phases,
		"corridors":       corridors,
		"tiers":           tiers,
		"categories":      categories,
		"top_aircraft":    topAircraft,
	}
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
