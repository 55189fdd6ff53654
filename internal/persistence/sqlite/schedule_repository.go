package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/liturgical-scheduler/internal/persistence"
)

// ScheduleRepository implements persistence.ScheduleRepository using SQLite
type ScheduleRepository struct {
	pool *ConnectionPool
}

// NewScheduleRepository creates a new SQLite schedule repository
func NewScheduleRepository(pool *ConnectionPool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

const scheduleColumns = `id, service_id, ministry_id, person_id, notified, notified_at, created_at`

// CreateSchedule inserts a single assignment
func (r *ScheduleRepository) CreateSchedule(ctx context.Context, schedule persistence.Schedule) error {
	return insertSchedule(ctx, r.pool.DB(), schedule)
}

// GetSchedule retrieves a schedule by ID
func (r *ScheduleRepository) GetSchedule(ctx context.Context, id string) (persistence.Schedule, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`, id)
	schedule, err := scanSchedule(row)
	if err != nil {
		return persistence.Schedule{}, mapError(err)
	}
	return schedule, nil
}

// DeleteSchedule removes a schedule by ID
func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// ListSchedulesForService returns the schedules of one service in insertion
// order. Schedules written in one unit share created_at, so rowid breaks ties.
func (r *ScheduleRepository) ListSchedulesForService(ctx context.Context, serviceID string) ([]persistence.Schedule, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM schedules WHERE service_id = ? ORDER BY created_at ASC, rowid ASC`, serviceID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	schedules := make([]persistence.Schedule, 0)
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return schedules, nil
}

// MarkSchedulesNotified flags the listed schedules that still exist in one
// transaction and returns the IDs that were already gone.
func (r *ScheduleRepository) MarkSchedulesNotified(ctx context.Context, ids []string, at time.Time) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, formatTimestamp(at))
	for _, id := range ids {
		args = append(args, id)
	}

	var missing []string
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`UPDATE schedules SET notified = 1, notified_at = ? WHERE id IN (`+placeholders+`) RETURNING id`, args...)
		if err != nil {
			return mapError(err)
		}
		defer rows.Close()

		updated := make(map[string]struct{}, len(ids))
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return fmt.Errorf("failed to scan updated schedule id: %w", err)
			}
			updated[id] = struct{}{}
		}
		if err := rows.Err(); err != nil {
			return mapError(err)
		}

		seen := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if _, ok := updated[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return missing, nil
}

func insertSchedule(ctx context.Context, q queryer, schedule persistence.Schedule) error {
	if schedule.ID == "" {
		return persistence.ErrConstraintViolation
	}

	var notifiedAt sql.NullString
	if schedule.NotifiedAt != nil {
		notifiedAt = sql.NullString{String: formatTimestamp(*schedule.NotifiedAt), Valid: true}
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO schedules (`+scheduleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		schedule.ID,
		schedule.ServiceID,
		schedule.MinistryID,
		schedule.PersonID,
		schedule.Notified,
		notifiedAt,
		formatTimestamp(schedule.CreatedAt),
	)
	return mapError(err)
}

func scanSchedule(row rowScanner) (persistence.Schedule, error) {
	var schedule persistence.Schedule
	var notifiedAt sql.NullString
	var createdAt string

	err := row.Scan(
		&schedule.ID,
		&schedule.ServiceID,
		&schedule.MinistryID,
		&schedule.PersonID,
		&schedule.Notified,
		&notifiedAt,
		&createdAt,
	)
	if err != nil {
		return persistence.Schedule{}, err
	}

	if notifiedAt.Valid {
		at, err := parseTimestamp("notified_at", notifiedAt.String)
		if err != nil {
			return persistence.Schedule{}, err
		}
		schedule.NotifiedAt = &at
	}
	if schedule.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return persistence.Schedule{}, err
	}
	return schedule, nil
}
