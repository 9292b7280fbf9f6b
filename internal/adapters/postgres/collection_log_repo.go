package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/giovanto/overhead/internal/core/domain"
)

// CollectionLogRepo implements ports.CollectionLogRepository with pgx.
type CollectionLogRepo struct {
	db *DB
}

// NewCollectionLogRepo creates a new CollectionLogRepo.
func NewCollectionLogRepo(db *DB) *CollectionLogRepo {
	return &CollectionLogRepo{db: db}
}

// Insert records one collection cycle.
func (r *CollectionLogRepo) Insert(ctx context.Context, entry *domain.CollectionLogEntry) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO collection_log (area, time, aircraft_count, success, error, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, entry.Area, entry.Time, entry.AircraftCount, entry.Success,
		nilIfEmpty(entry.Error), entry.DurationMS).Scan(&entry.ID)
}

// Status summarizes recent collection health for one area.
func (r *CollectionLogRepo) Status(ctx context.Context, area string) (*domain.CollectionStatus, error) {
	status := &domain.CollectionStatus{Area: area}

	var lastRun, lastSuccess sql.NullTime
	var lastCount sql.NullInt64
	var lastError sql.NullString
	err := r.db.Pool.QueryRow(ctx, `
		SELECT
			MAX(time),
			MAX(time) FILTER (WHERE success),
			COUNT(*),
			COUNT(*) FILTER (WHERE NOT success)
		FROM collection_log
		WHERE area = $1
	`, area).Scan(&lastRun, &lastSuccess, &status.CyclesTotal, &status.CyclesFailed)
	if err != nil {
		return nil, err
	}
	if lastRun.Valid {
		status.LastRun = lastRun.Time
	}
	if lastSuccess.Valid {
		status.LastSuccess = lastSuccess.Time
	}

	err = r.db.Pool.QueryRow(ctx, `
		SELECT aircraft_count, COALESCE(error, '')
		FROM collection_log
		WHERE area = $1
		ORDER BY time DESC
		LIMIT 1
	`, area).Scan(&lastCount, &lastError)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if lastCount.Valid {
		status.LastCount = int(lastCount.Int64)
	}
	status.LastError = lastError.String

	err = r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM observations
		WHERE area = $1 AND time >= date_trunc('day', now())
	`, area).Scan(&status.ObservationsDay)
	if err != nil {
		return nil, err
	}

	return status, nil
}

// Recent returns the latest log entries for one area, newest first.
func (r *CollectionLogRepo) Recent(ctx context.Context, area string, limit int) ([]domain.CollectionLogEntry, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, area, time, aircraft_count, success, COALESCE(error, ''), duration_ms
		FROM collection_log
		WHERE area = $1
		ORDER BY time DESC
		LIMIT $2
	`, area, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.CollectionLogEntry
	for rows.Next() {
		var e domain.CollectionLogEntry
		if err := rows.Scan(&e.ID, &e.Area, &e.Time, &e.AircraftCount, &e.Success, &e.Error, &e.DurationMS); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteOlderThan removes log entries before the cutoff.
func (r *CollectionLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM collection_log WHERE time < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
