package sqlite

import (
	"context"

	"github.com/example/liturgical-scheduler/internal/persistence"
)

// MinistryRepository implements persistence.MinistryRepository using SQLite
type MinistryRepository struct {
	pool *ConnectionPool
}

// NewMinistryRepository creates a new SQLite ministry repository
func NewMinistryRepository(pool *ConnectionPool) *MinistryRepository {
	return &MinistryRepository{pool: pool}
}

// CreateMinistry inserts a ministry. A reused slug yields persistence.ErrDuplicate.
func (r *MinistryRepository) CreateMinistry(ctx context.Context, ministry persistence.Ministry) error {
	if ministry.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.DB().ExecContext(ctx,
		`INSERT INTO ministries (id, name, slug, created_at) VALUES (?, ?, ?, ?)`,
		ministry.ID, ministry.Name, ministry.Slug, formatTimestamp(ministry.CreatedAt),
	)
	return mapError(err)
}

// GetMinistry retrieves a ministry by ID
func (r *MinistryRepository) GetMinistry(ctx context.Context, id string) (persistence.Ministry, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT id, name, slug, created_at FROM ministries WHERE id = ?`, id)
	ministry, err := scanMinistry(row)
	if err != nil {
		return persistence.Ministry{}, mapError(err)
	}
	return ministry, nil
}

// ListMinistries returns all ministries ordered by slug
func (r *MinistryRepository) ListMinistries(ctx context.Context) ([]persistence.Ministry, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT id, name, slug, created_at FROM ministries ORDER BY slug ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	ministries := make([]persistence.Ministry, 0)
	for rows.Next() {
		ministry, err := scanMinistry(rows)
		if err != nil {
			return nil, err
		}
		ministries = append(ministries, ministry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return ministries, nil
}

func scanMinistry(row rowScanner) (persistence.Ministry, error) {
	var ministry persistence.Ministry
	var createdAt string
	if err := row.Scan(&ministry.ID, &ministry.Name, &ministry.Slug, &createdAt); err != nil {
		return persistence.Ministry{}, err
	}
	var err error
	if ministry.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return persistence.Ministry{}, err
	}
	return ministry, nil
}
