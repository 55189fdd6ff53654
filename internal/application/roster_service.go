package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/liturgical-scheduler/internal/logging"
	"github.com/example/liturgical-scheduler/internal/persistence"
)

// RosterService orchestrates validation and persistence for people and ministries.
type RosterService struct {
	people      PersonRepository
	ministries  MinistryRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRosterService constructs a roster service with the provided dependencies.
func NewRosterService(people PersonRepository, ministries MinistryRepository, idGenerator func() string, now func() time.Time) *RosterService {
	return NewRosterServiceWithLogger(people, ministries, idGenerator, now, nil)
}

// NewRosterServiceWithLogger constructs a roster service with a specified logger.
func NewRosterServiceWithLogger(people PersonRepository, ministries MinistryRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RosterService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RosterService{people: people, ministries: ministries, idGenerator: idGenerator, now: now, logger: logging.OrDefault(logger)}
}

func (s *RosterService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RosterService", operation, attrs...)
}

// CreatePerson validates input and adds a person to the roster.
func (s *RosterService) CreatePerson(ctx context.Context, input CreatePersonInput) (person Person, err error) {
	if s == nil {
		err = fmt.Errorf("RosterService is nil")
		return
	}
	if s.people == nil {
		err = fmt.Errorf("person repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreatePerson")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create person", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("person_id", person.ID).InfoContext(ctx, "person created")
	}()

	vErr := &ValidationError{}
	name := normalizeText(input.Name)
	if name == "" {
		vErr.add("name", "name is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}

	person = Person{
		ID:        s.idGenerator(),
		Name:      name,
		Contact:   normalizeOptionalString(input.Contact),
		Ordained:  input.Ordained,
		Active:    active,
		CreatedAt: s.now(),
	}
	person.UpdatedAt = person.CreatedAt

	person, err = s.people.CreatePerson(ctx, person)
	if err != nil {
		err = mapRosterRepoError(err)
		return
	}
	return
}

// UpdatePerson applies the non-nil fields of input to an existing person.
func (s *RosterService) UpdatePerson(ctx context.Context, input UpdatePersonInput) (person Person, err error) {
	if s == nil {
		err = fmt.Errorf("RosterService is nil")
		return
	}
	if s.people == nil {
		err = fmt.Errorf("person repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdatePerson", "person_id", input.ID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update person", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "person updated")
	}()

	var existing Person
	existing, err = s.people.GetPerson(ctx, input.ID)
	if err != nil {
		err = mapRosterRepoError(err)
		return
	}

	updated := existing
	if input.Name != nil {
		name := normalizeText(*input.Name)
		if name == "" {
			vErr := &ValidationError{}
			vErr.add("name", "name is required")
			err = vErr
			return
		}
		updated.Name = name
	}
	if input.Contact != nil {
		updated.Contact = normalizeOptionalString(input.Contact)
	}
	if input.Ordained != nil {
		updated.Ordained = *input.Ordained
	}
	if input.Active != nil {
		updated.Active = *input.Active
	}
	updated.UpdatedAt = s.now()

	person, err = s.people.UpdatePerson(ctx, updated)
	if err != nil {
		err = mapRosterRepoError(err)
		return
	}
	return
}

// GetPerson returns a person by ID.
func (s *RosterService) GetPerson(ctx context.Context, id string) (Person, error) {
	if s == nil {
		return Person{}, fmt.Errorf("RosterService is nil")
	}
	if s.people == nil {
		return Person{}, fmt.Errorf("person repository not configured")
	}
	person, err := s.people.GetPerson(ctx, id)
	if err != nil {
		return Person{}, mapRosterRepoError(err)
	}
	return person, nil
}

// ListActivePeople returns every active person ordered by name.
func (s *RosterService) ListActivePeople(ctx context.Context) ([]Person, error) {
	return s.listPeople(ctx, "ListActivePeople", PersonQuery{ActiveOnly: true})
}

// ListOrdainedPeople returns the people who are both ordained and active.
func (s *RosterService) ListOrdainedPeople(ctx context.Context) ([]Person, error) {
	return s.listPeople(ctx, "ListOrdainedPeople", PersonQuery{ActiveOnly: true, OrdainedOnly: true})
}

func (s *RosterService) listPeople(ctx context.Context, operation string, query PersonQuery) (people []Person, err error) {
	if s == nil {
		err = fmt.Errorf("RosterService is nil")
		return
	}
	if s.people == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, operation)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list people", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(people)).DebugContext(ctx, "people listed")
	}()

	var raw []Person
	raw, err = s.people.ListPeople(ctx, query)
	if err != nil {
		return
	}

	// Only people matching query leave this method, whatever the adapter returned.
	people = make([]Person, 0, len(raw))
	for _, p := range raw {
		if query.ActiveOnly && !p.Active {
			continue
		}
		if query.OrdainedOnly && !p.Ordained {
			continue
		}
		people = append(people, p)
	}

	sort.SliceStable(people, func(i, j int) bool {
		if strings.EqualFold(people[i].Name, people[j].Name) {
			return people[i].ID < people[j].ID
		}
		return strings.ToLower(people[i].Name) < strings.ToLower(people[j].Name)
	})
	return
}

// CreateMinistry validates input and stores a new ministry. Ministries cannot
// be changed afterwards.
func (s *RosterService) CreateMinistry(ctx context.Context, input CreateMinistryInput) (ministry Ministry, err error) {
	if s == nil {
		err = fmt.Errorf("RosterService is nil")
		return
	}
	if s.ministries == nil {
		err = fmt.Errorf("ministry repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateMinistry")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create ministry", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("ministry_id", ministry.ID, "slug", ministry.Slug).InfoContext(ctx, "ministry created")
	}()

	name := normalizeText(input.Name)
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = slugify(name)
	}

	vErr := &ValidationError{}
	if name == "" {
		vErr.add("name", "name is required")
	}
	if !slugPattern.MatchString(slug) {
		vErr.add("slug", "slug must be lower-case words separated by hyphens")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	ministry = Ministry{
		ID:        s.idGenerator(),
		Name:      name,
		Slug:      slug,
		CreatedAt: s.now(),
	}

	ministry, err = s.ministries.CreateMinistry(ctx, ministry)
	if err != nil {
		err = mapRosterRepoError(err)
		return
	}
	return
}

// ListMinistries returns every ministry ordered by slug.
func (s *RosterService) ListMinistries(ctx context.Context) ([]Ministry, error) {
	if s == nil {
		return nil, fmt.Errorf("RosterService is nil")
	}
	if s.ministries == nil {
		return nil, nil
	}
	ministries, err := s.ministries.ListMinistries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Ministry, len(ministries))
	copy(out, ministries)
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func mapRosterRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, ErrAlreadyExists) || errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("name", "name is required")
		return vErr
	}
	return err
}
