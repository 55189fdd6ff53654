package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/liturgical-scheduler/internal/persistence"
)

// PersonRepository implements persistence.PersonRepository using SQLite
type PersonRepository struct {
	pool *ConnectionPool
}

// NewPersonRepository creates a new SQLite person repository
func NewPersonRepository(pool *ConnectionPool) *PersonRepository {
	return &PersonRepository{pool: pool}
}

const personColumns = `id, name, contact, ordained, active, created_at, updated_at`

// CreatePerson inserts a new person
func (r *PersonRepository) CreatePerson(ctx context.Context, person persistence.Person) error {
	if person.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO people (`+personColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		person.ID,
		person.Name,
		nullString(person.Contact),
		person.Ordained,
		person.Active,
		formatTimestamp(person.CreatedAt),
		formatTimestamp(person.UpdatedAt),
	)
	return mapError(err)
}

// UpdatePerson replaces the mutable columns of an existing person
func (r *PersonRepository) UpdatePerson(ctx context.Context, person persistence.Person) error {
	result, err := r.pool.DB().ExecContext(ctx, `
		UPDATE people
		SET name = ?, contact = ?, ordained = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		person.Name,
		nullString(person.Contact),
		person.Ordained,
		person.Active,
		formatTimestamp(person.UpdatedAt),
		person.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// GetPerson retrieves a person by ID
func (r *PersonRepository) GetPerson(ctx context.Context, id string) (persistence.Person, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+personColumns+` FROM people WHERE id = ?`, id)
	person, err := scanPerson(row)
	if err != nil {
		return persistence.Person{}, mapError(err)
	}
	return person, nil
}

// ListPeople returns people matching filter ordered by name then ID
func (r *PersonRepository) ListPeople(ctx context.Context, filter persistence.PersonFilter) ([]persistence.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people`
	var conditions []string
	if filter.ActiveOnly {
		conditions = append(conditions, "active = 1")
	}
	if filter.OrdainedOnly {
		conditions = append(conditions, "ordained = 1")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name ASC, id ASC"

	rows, err := r.pool.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	people := make([]persistence.Person, 0)
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, person)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return people, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (persistence.Person, error) {
	var person persistence.Person
	var contact sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&person.ID, &person.Name, &contact, &person.Ordained, &person.Active, &createdAt, &updatedAt); err != nil {
		return persistence.Person{}, err
	}
	person.Contact = optionalString(contact)

	var err error
	if person.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return persistence.Person{}, err
	}
	if person.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return persistence.Person{}, err
	}
	return person, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func optionalString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}
