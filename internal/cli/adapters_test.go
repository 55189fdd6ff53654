package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/liturgical-scheduler/internal/application"
	"github.com/example/liturgical-scheduler/internal/liturgical"
	"github.com/example/liturgical-scheduler/internal/persistence/memory"
)

func TestServiceAdapterKeepsCalendarFields(t *testing.T) {
	ctx := context.Background()
	store := memory.Open()
	services := newServiceRepositoryAdapter(store)

	at := "10:30"
	readings := "Genesis 15:1-12"
	created := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	svc := application.Service{
		ID:             "svc-1",
		Date:           liturgical.Date(2025, time.March, 16),
		Time:           &at,
		ServiceType:    "Holy Communion",
		Songs:          []string{"Be Thou My Vision"},
		Readings:       &readings,
		Season:         liturgical.SeasonLent,
		WeekLabel:      "2nd Sunday in Lent",
		Color:          liturgical.ColorPurple,
		LectionaryYear: "C",
		Status:         application.ServiceStatusDraft,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	require.NoError(t, services.CreateServiceWithSchedules(ctx, svc, nil))

	got, err := services.GetService(ctx, "svc-1")
	require.NoError(t, err)
	assert.Equal(t, liturgical.SeasonLent, got.Season)
	assert.Equal(t, liturgical.ColorPurple, got.Color)
	assert.Equal(t, application.ServiceStatusDraft, got.Status)
	assert.Equal(t, "2nd Sunday in Lent", got.WeekLabel)
	assert.Equal(t, []string{"Be Thou My Vision"}, got.Songs)
	require.NotNil(t, got.Readings)
	assert.Equal(t, readings, *got.Readings)
}

func TestPersonAdapterReturnsStoredRow(t *testing.T) {
	ctx := context.Background()
	people := newPersonRepositoryAdapter(memory.Open())

	contact := "+15550101"
	person, err := people.CreatePerson(ctx, application.Person{ID: "p-1", Name: "Ada", Contact: &contact, Active: true})
	require.NoError(t, err)
	assert.Equal(t, "Ada", person.Name)

	listed, err := people.ListPeople(ctx, application.PersonQuery{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "p-1", listed[0].ID)

	ordained, err := people.ListPeople(ctx, application.PersonQuery{OrdainedOnly: true})
	require.NoError(t, err)
	assert.Empty(t, ordained)
}
