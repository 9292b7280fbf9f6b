package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/giovanto/overhead/internal/core/domain"
)

// StatsRepo implements ports.StatsRepository with pgx.
type StatsRepo struct {
	db *DB
}

// NewStatsRepo creates a new StatsRepo.
func NewStatsRepo(db *DB) *StatsRepo {
	return &StatsRepo{db: db}
}

// RollupDay recomputes the daily_stats rows for one day from the raw
// observations and collection log. Safe to run repeatedly.
func (r *StatsRepo) RollupDay(ctx context.Context, day time.Time) error {
	dayStart := day.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO daily_stats (
			day, area, observations, unique_aircraft,
			avg_noise_db, max_noise_db, high_tier_count, night_flights,
			collection_runs, failed_runs
		)
		SELECT
			$1::date,
			o.area,
			COUNT(*),
			COUNT(DISTINCT o.icao24),
			AVG(n.max_noise),
			MAX(n.max_noise),
			COUNT(*) FILTER (WHERE n.max_tier = 'high'),
			COUNT(*) FILTER (WHERE EXTRACT(HOUR FROM o.time AT TIME ZONE 'UTC') >= 23
			                    OR EXTRACT(HOUR FROM o.time AT TIME ZONE 'UTC') < 6),
			COALESCE((SELECT COUNT(*) FROM collection_log l
			          WHERE l.area = o.area AND l.time >= $2 AND l.time < $3), 0),
			COALESCE((SELECT COUNT(*) FROM collection_log l
			          WHERE l.area = o.area AND l.time >= $2 AND l.time < $3 AND NOT l.success), 0)
		FROM observations o
		LEFT JOIN LATERAL (
			SELECT MAX((a->>'estimated_noise_db')::double precision) AS max_noise,
			       MAX(a->>'noise_tier') FILTER (WHERE a->>'noise_tier' = 'high') AS max_tier
			FROM jsonb_array_elements(o.assessments) a
		) n ON true
		WHERE o.time >= $2 AND o.time < $3
		GROUP BY o.area
		ON CONFLICT (day, area) DO UPDATE SET
			observations = EXCLUDED.observations,
			unique_aircraft = EXCLUDED.unique_aircraft,
			avg_noise_db = EXCLUDED.avg_noise_db,
			max_noise_db = EXCLUDED.max_noise_db,
			high_tier_count = EXCLUDED.high_tier_count,
			night_flights = EXCLUDED.night_flights,
			collection_runs = EXCLUDED.collection_runs,
			failed_runs = EXCLUDED.failed_runs
	`, dayStart, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("rollup day %s: %w", dayStart.Format("2006-01-02"), err)
	}
	return nil
}

// ListDaily returns daily aggregates for one area, oldest first. An
// empty area returns all areas.
func (r *StatsRepo) ListDaily(ctx context.Context, area string, from, to time.Time) ([]domain.DailyStats, error) {
	query := `
		SELECT day, area, observations, unique_aircraft,
		       avg_noise_db, max_noise_db, high_tier_count, night_flights,
		       collection_runs, failed_runs
		FROM daily_stats
		WHERE day >= $1::date AND day <= $2::date`
	args := []any{from, to}
	if area != "" {
		query += ` AND area = $3`
		args = append(args, area)
	}
	query += ` ORDER BY day, area`

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []domain.DailyStats
	for rows.Next() {
		var s domain.DailyStats
		if err := rows.Scan(
			&s.Day, &s.Area, &s.Observations, &s.UniqueAircraft,
			&s.AvgNoiseDB, &s.MaxNoiseDB, &s.HighTierCount, &s.NightFlights,
			&s.CollectionRuns, &s.FailedRuns,
		); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
