package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/giovanto/overhead/internal/core/domain"
	"github.com/giovanto/overhead/internal/core/ports"
)

// ObservationRepo implements ports.ObservationRepository with pgx.
// Per-reference assessments are stored as a JSONB array alongside the
// flat state vector columns.
type ObservationRepo struct {
	db *DB
}

// NewObservationRepo creates a new ObservationRepo.
func NewObservationRepo(db *DB) *ObservationRepo {
	return &ObservationRepo{db: db}
}

const observationColumns = `
	time, area, icao24, COALESCE(callsign, ''), COALESCE(origin_country, ''),
	ST_Y(location::geometry) as lat,
	ST_X(location::geometry) as lon,
	baro_altitude_ft, geo_altitude_ft, velocity_kt, track_deg, vertical_rate_fpm,
	on_ground, COALESCE(squawk, ''), spi, position_source,
	aircraft_category, COALESCE(airline, ''), assessments`

// InsertBatch inserts classified reports using pgx.Batch. Reports without
// usable coordinates are skipped; the returned count is what was queued.
func (r *ObservationRepo) InsertBatch(ctx context.Context, reports []domain.ClassifiedReport) (int, error) {
	batch := &pgx.Batch{}
	queued := 0
	for i := range reports {
		rep := &reports[i]
		pos, ok := rep.Position()
		if !ok {
			continue
		}
		assessments, err := json.Marshal(rep.Assessments)
		if err != nil {
			return queued, fmt.Errorf("marshal assessments: %w", err)
		}
		batch.Queue(`
			INSERT INTO observations (
				time, area, icao24, callsign, origin_country, location,
				baro_altitude_ft, geo_altitude_ft, velocity_kt, track_deg, vertical_rate_fpm,
				on_ground, squawk, spi, position_source,
				aircraft_category, airline, assessments
			)
			VALUES ($1, $2, $3, $4, $5, ST_SetSRID(ST_MakePoint($6, $7), 4326)::geography,
				$8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		`, rep.Time, rep.Area, rep.ICAO24, nilIfEmpty(rep.Callsign), nilIfEmpty(rep.OriginCountry),
			pos.Lon, pos.Lat,
			rep.BaroAltitudeFt, rep.GeoAltitudeFt, rep.VelocityKt, rep.TrackDeg, rep.VerticalRate,
			rep.OnGround, nilIfEmpty(rep.Squawk), rep.SPI, rep.PositionSource,
			string(rep.Category), nilIfEmpty(rep.Airline), assessments)
		queued++
	}
	if queued == 0 {
		return 0, nil
	}

	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < queued; i++ {
		if _, err := br.Exec(); err != nil {
			return queued, fmt.Errorf("batch exec: %w", err)
		}
	}
	return queued, nil
}

// List returns observations matching the filter, newest first.
func (r *ObservationRepo) List(ctx context.Context, filter ports.ObservationFilter) ([]domain.ClassifiedReport, error) {
	where, args := filterClauses(filter)
	query := fmt.Sprintf(`
		SELECT %s FROM observations
		WHERE %s
		ORDER BY time DESC
		LIMIT %d OFFSET %d
	`, observationColumns, where, filter.Limit, filter.Offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanObservations(rows)
}

// Count returns the number of observations matching the filter.
func (r *ObservationRepo) Count(ctx context.Context, filter ports.ObservationFilter) (int64, error) {
	where, args := filterClauses(filter)
	var count int64
	err := r.db.Pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM observations WHERE %s`, where),
		args...).Scan(&count)
	return count, err
}

// ListByAircraft returns observations for one aircraft, newest first.
func (r *ObservationRepo) ListByAircraft(ctx context.Context, icao24 string, from, to time.Time, limit int) ([]domain.ClassifiedReport, error) {
	rows, err := r.db.Pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM observations
		WHERE icao24 = $1 AND time >= $2 AND time < $3
		ORDER BY time DESC
		LIMIT $4
	`, observationColumns), icao24, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanObservations(rows)
}

// ImpactSummary aggregates assessments for one reference over a window.
func (r *ObservationRepo) ImpactSummary(ctx context.Context, reference string, from, to time.Time) (*domain.ImpactSummary, error) {
	summary := &domain.ImpactSummary{Reference: reference, From: from, To: to}

	err := r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT o.icao24),
		       COUNT(*) FILTER (WHERE EXTRACT(HOUR FROM o.time AT TIME ZONE 'UTC') >= 23
		                            OR EXTRACT(HOUR FROM o.time AT TIME ZONE 'UTC') < 6),
		       AVG((a->>'estimated_noise_db')::double precision),
		       MAX((a->>'estimated_noise_db')::double precision),
		       AVG((a->>'distance_km')::double precision),
		       MIN((a->>'distance_km')::double precision)
		FROM observations o, LATERAL jsonb_array_elements(o.assessments) a
		WHERE a->>'reference' = $1 AND o.time >= $2 AND o.time < $3
	`, reference, from, to).Scan(
		&summary.Observations, &summary.UniqueAircraft, &summary.NightFlights,
		&summary.AvgNoiseDB, &summary.MaxNoiseDB,
		&summary.AvgDistanceKM, &summary.MinDistanceKM,
	)
	if err != nil {
		return nil, fmt.Errorf("impact aggregates: %w", err)
	}

	if err := r.countsByKey(ctx, reference, from, to, "operation_phase", func(key string, count int64) {
		summary.Phases = append(summary.Phases, domain.PhaseCount{Phase: domain.OperationPhase(key), Count: count})
	}); err != nil {
		return nil, err
	}
	if err := r.countsByKey(ctx, reference, from, to, "corridor", func(key string, count int64) {
		summary.Corridors = append(summary.Corridors, domain.CorridorCount{Corridor: domain.Corridor(key), Count: count})
	}); err != nil {
		return nil, err
	}
	if err := r.countsByKey(ctx, reference, from, to, "noise_tier", func(key string, count int64) {
		summary.Tiers = append(summary.Tiers, domain.TierCount{Tier: domain.NoiseTier(key), Count: count})
	}); err != nil {
		return nil, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT o.aircraft_category, COUNT(*)
		FROM observations o, LATERAL jsonb_array_elements(o.assessments) a
		WHERE a->>'reference' = $1 AND o.time >= $2 AND o.time < $3
		GROUP BY o.aircraft_category
		ORDER BY COUNT(*) DESC
	`, reference, from, to)
	if err != nil {
		return nil, fmt.Errorf("impact categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		summary.Categories = append(summary.Categories, domain.CategoryCount{Category: domain.AircraftCategory(key), Count: count})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	top, err := r.topAircraft(ctx, reference, from, to, 10)
	if err != nil {
		return nil, err
	}
	summary.TopAircraft = top

	return summary, nil
}

func (r *ObservationRepo) topAircraft(ctx context.Context, reference string, from, to time.Time, limit int) ([]domain.AircraftActivity, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT o.icao24, MAX(COALESCE(o.callsign, '')), COUNT(*),
		       MAX((a->>'estimated_noise_db')::double precision)
		FROM observations o, LATERAL jsonb_array_elements(o.assessments) a
		WHERE a->>'reference' = $1 AND o.time >= $2 AND o.time < $3
		GROUP BY o.icao24
		ORDER BY MAX((a->>'estimated_noise_db')::double precision) DESC NULLS LAST, COUNT(*) DESC
		LIMIT $4
	`, reference, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("impact top aircraft: %w", err)
	}
	defer rows.Close()

	var top []domain.AircraftActivity
	for rows.Next() {
		var a domain.AircraftActivity
		if err := rows.Scan(&a.ICAO24, &a.Callsign, &a.Count, &a.MaxNoiseDB); err != nil {
			return nil, err
		}
		top = append(top, a)
	}
	return top, rows.Err()
}

func (r *ObservationRepo) countsByKey(ctx context.Context, reference string, from, to time.Time, key string, add func(string, int64)) error {
	rows, err := r.db.Pool.Query(ctx, fmt.Sprintf(`
		SELECT a->>'%s', COUNT(*)
		FROM observations o, LATERAL jsonb_array_elements(o.assessments) a
		WHERE a->>'reference' = $1 AND o.time >= $2 AND o.time < $3
		GROUP BY a->>'%s'
		ORDER BY COUNT(*) DESC
	`, key, key), reference, from, to)
	if err != nil {
		return fmt.Errorf("impact %s counts: %w", key, err)
	}
	defer rows.Close()
	for rows.Next() {
		var k string
		var count int64
		if err := rows.Scan(&k, &count); err != nil {
			return err
		}
		add(k, count)
	}
	return rows.Err()
}

// LatestObservationTime returns the newest stored observation time for an
// area, or the zero time when the area has no observations.
func (r *ObservationRepo) LatestObservationTime(ctx context.Context, area string) (time.Time, error) {
	var latest sql.NullTime
	err := r.db.Pool.QueryRow(ctx,
		`SELECT MAX(time) FROM observations WHERE area = $1`, area).Scan(&latest)
	if err != nil {
		return time.Time{}, err
	}
	if !latest.Valid {
		return time.Time{}, nil
	}
	return latest.Time, nil
}

// DeleteOlderThan removes observations before the cutoff and returns the
// number of rows deleted.
func (r *ObservationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM observations WHERE time < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func filterClauses(filter ports.ObservationFilter) (string, []any) {
	where := "time >= $1 AND time < $2"
	args := []any{filter.From, filter.To}

	if filter.Area != "" {
		args = append(args, filter.Area)
		where += fmt.Sprintf(" AND area = $%d", len(args))
	}
	if filter.ICAO24 != "" {
		args = append(args, filter.ICAO24)
		where += fmt.Sprintf(" AND icao24 = $%d", len(args))
	}
	if filter.Reference != "" {
		args = append(args, filter.Reference)
		where += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(assessments) a
			WHERE a->>'reference' = $%d)`, len(args))
	}
	if filter.Phase != "" {
		args = append(args, string(filter.Phase))
		where += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(assessments) a
			WHERE a->>'operation_phase' = $%d)`, len(args))
	}
	if filter.Tier != "" {
		args = append(args, string(filter.Tier))
		where += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(assessments) a
			WHERE a->>'noise_tier' = $%d)`, len(args))
	}

	return where, args
}

func scanObservations(rows pgx.Rows) ([]domain.ClassifiedReport, error) {
	var reports []domain.ClassifiedReport
	for rows.Next() {
		var rep domain.ClassifiedReport
		var lat, lon float64
		var category string
		var assessments []byte
		if err := rows.Scan(
			&rep.Time, &rep.Area, &rep.ICAO24, &rep.Callsign, &rep.OriginCountry,
			&lat, &lon,
			&rep.BaroAltitudeFt, &rep.GeoAltitudeFt, &rep.VelocityKt, &rep.TrackDeg, &rep.VerticalRate,
			&rep.OnGround, &rep.Squawk, &rep.SPI, &rep.PositionSource,
			&category, &rep.Airline, &assessments,
		); err != nil {
			return nil, err
		}
		rep.Latitude = &lat
		rep.Longitude = &lon
		rep.Category = domain.AircraftCategory(category)
		if err := json.Unmarshal(assessments, &rep.Assessments); err != nil {
			return nil, fmt.Errorf("unmarshal assessments: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
