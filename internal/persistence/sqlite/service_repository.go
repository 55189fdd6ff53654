package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/example/liturgical-scheduler/internal/persistence"
)

// ServiceRepository implements persistence.ServiceRepository using SQLite
type ServiceRepository struct {
	pool *ConnectionPool
}

// NewServiceRepository creates a new SQLite service repository
func NewServiceRepository(pool *ConnectionPool) *ServiceRepository {
	return &ServiceRepository{pool: pool}
}

const serviceColumns = `id, service_date, service_time, service_type, songs, notices, readings, collect,
	season, week_label, color, lectionary_year, published, status, created_at, updated_at`

// CreateServiceWithSchedules inserts the service and its schedules in one
// transaction. Any failing row rolls back the whole batch.
func (r *ServiceRepository) CreateServiceWithSchedules(ctx context.Context, service persistence.Service, schedules []persistence.Schedule) error {
	if service.ID == "" {
		return persistence.ErrConstraintViolation
	}

	songs, err := encodeList(service.Songs)
	if err != nil {
		return err
	}
	notices, err := encodeList(service.Notices)
	if err != nil {
		return err
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO services (`+serviceColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			service.ID,
			service.Date.Format(dateLayout),
			nullString(service.Time),
			service.ServiceType,
			songs,
			notices,
			nullString(service.Readings),
			nullString(service.Collect),
			service.Season,
			service.WeekLabel,
			service.Color,
			service.LectionaryYear,
			service.Published,
			service.Status,
			formatTimestamp(service.CreatedAt),
			formatTimestamp(service.UpdatedAt),
		)
		if err != nil {
			return mapError(err)
		}

		for _, schedule := range schedules {
			if schedule.ServiceID != service.ID {
				return fmt.Errorf("schedule %s belongs to service %s: %w", schedule.ID, schedule.ServiceID, persistence.ErrForeignKeyViolation)
			}
			if err := insertSchedule(ctx, tx, schedule); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateService replaces every mutable column of an existing service
func (r *ServiceRepository) UpdateService(ctx context.Context, service persistence.Service) error {
	songs, err := encodeList(service.Songs)
	if err != nil {
		return err
	}
	notices, err := encodeList(service.Notices)
	if err != nil {
		return err
	}

	result, err := r.pool.DB().ExecContext(ctx, `
		UPDATE services
		SET service_date = ?, service_time = ?, service_type = ?, songs = ?, notices = ?, readings = ?, collect = ?,
			season = ?, week_label = ?, color = ?, lectionary_year = ?, published = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		service.Date.Format(dateLayout),
		nullString(service.Time),
		service.ServiceType,
		songs,
		notices,
		nullString(service.Readings),
		nullString(service.Collect),
		service.Season,
		service.WeekLabel,
		service.Color,
		service.LectionaryYear,
		service.Published,
		service.Status,
		formatTimestamp(service.UpdatedAt),
		service.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// GetService retrieves a service by ID
func (r *ServiceRepository) GetService(ctx context.Context, id string) (persistence.Service, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = ?`, id)
	service, err := scanService(row)
	if err != nil {
		return persistence.Service{}, mapError(err)
	}
	return service, nil
}

// ListServices lists services filtered by date range and publication
func (r *ServiceRepository) ListServices(ctx context.Context, filter persistence.ServiceFilter) ([]persistence.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services`
	var conditions []string
	var args []any

	if filter.From != nil {
		conditions = append(conditions, "service_date >= ?")
		args = append(args, filter.From.Format(dateLayout))
	}
	if filter.To != nil {
		conditions = append(conditions, "service_date <= ?")
		args = append(args, filter.To.Format(dateLayout))
	}
	if filter.PublishedOnly {
		conditions = append(conditions, "published = 1")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY service_date ASC, COALESCE(service_time, '') ASC, id ASC"

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	services := make([]persistence.Service, 0)
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, service)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return services, nil
}

func scanService(row rowScanner) (persistence.Service, error) {
	var service persistence.Service
	var date, songs, notices, createdAt, updatedAt string
	var serviceTime, readings, collect sql.NullString

	err := row.Scan(
		&service.ID,
		&date,
		&serviceTime,
		&service.ServiceType,
		&songs,
		&notices,
		&readings,
		&collect,
		&service.Season,
		&service.WeekLabel,
		&service.Color,
		&service.LectionaryYear,
		&service.Published,
		&service.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Service{}, err
	}

	service.Time = optionalString(serviceTime)
	service.Readings = optionalString(readings)
	service.Collect = optionalString(collect)

	if service.Date, err = time.Parse(dateLayout, date); err != nil {
		return persistence.Service{}, fmt.Errorf("failed to parse service_date: %w", err)
	}
	if service.Songs, err = decodeList("songs", songs); err != nil {
		return persistence.Service{}, err
	}
	if service.Notices, err = decodeList("notices", notices); err != nil {
		return persistence.Service{}, err
	}
	if service.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return persistence.Service{}, err
	}
	if service.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return persistence.Service{}, err
	}
	return service, nil
}

// encodeList stores a string list as a JSON array column
func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(encoded), nil
}

func decodeList(column, raw string) ([]string, error) {
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", column, err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}
