package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/example/liturgical-scheduler/internal/application"
)

type rosterStub struct {
	created  application.CreatePersonInput
	ordained bool
}

func (s *rosterStub) CreatePerson(ctx context.Context, input application.CreatePersonInput) (application.Person, error) {
	s.created = input
	if input.Name == "" {
		return application.Person{}, &application.ValidationError{FieldErrors: map[string]string{"name": "name is required"}}
	}
	return application.Person{ID: "p-1", Name: input.Name, Contact: input.Contact, Active: true}, nil
}

func (s *rosterStub) ListActivePeople(ctx context.Context) ([]application.Person, error) {
	return []application.Person{{ID: "p-1", Name: "Ada", Active: true}, {ID: "p-2", Name: "Ben", Active: true, Ordained: true}}, nil
}

func (s *rosterStub) ListOrdainedPeople(ctx context.Context) ([]application.Person, error) {
	s.ordained = true
	return []application.Person{{ID: "p-2", Name: "Ben", Active: true, Ordained: true}}, nil
}

func (s *rosterStub) CreateMinistry(ctx context.Context, input application.CreateMinistryInput) (application.Ministry, error) {
	if input.Slug == "reading" {
		return application.Ministry{}, application.ErrAlreadyExists
	}
	return application.Ministry{ID: "m-1", Name: input.Name, Slug: input.Slug}, nil
}

func (s *rosterStub) ListMinistries(ctx context.Context) ([]application.Ministry, error) {
	return []application.Ministry{{ID: "m-1", Name: "Reading", Slug: "reading"}}, nil
}

func TestRosterHandlers(t *testing.T) {
	t.Parallel()

	newRouter := func(stub *rosterStub) http.Handler {
		return NewRouter(RouterConfig{Roster: NewRosterHandler(stub, nil)})
	}

	t.Run("create person", func(t *testing.T) {
		t.Parallel()
		stub := &rosterStub{}
		rec := serve(t, newRouter(stub), http.MethodPost, "/people", `{"name":"Ada","contact":"+15550101"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if stub.created.Contact == nil || *stub.created.Contact != "+15550101" {
			t.Fatalf("expected contact to be forwarded, got %+v", stub.created)
		}

		if rec := serve(t, newRouter(stub), http.MethodPost, "/people", `{"name":""}`); rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("list people filters ordained on request", func(t *testing.T) {
		t.Parallel()
		stub := &rosterStub{}
		rec := serve(t, newRouter(stub), http.MethodGet, "/people", "")
		if got := decode[listPeopleResponse](t, rec); len(got.People) != 2 || stub.ordained {
			t.Fatalf("unexpected active list %+v", got)
		}
		rec = serve(t, newRouter(stub), http.MethodGet, "/people?ordained=true", "")
		if got := decode[listPeopleResponse](t, rec); len(got.People) != 1 || !stub.ordained {
			t.Fatalf("unexpected ordained list %+v", got)
		}
	})

	t.Run("ministries", func(t *testing.T) {
		t.Parallel()
		stub := &rosterStub{}
		if rec := serve(t, newRouter(stub), http.MethodPost, "/ministries", `{"name":"Reading","slug":"reading"}`); rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		rec := serve(t, newRouter(stub), http.MethodGet, "/ministries", "")
		if got := decode[listMinistriesResponse](t, rec); len(got.Ministries) != 1 {
			t.Fatalf("unexpected ministries %+v", got)
		}
		if rec := serve(t, newRouter(stub), http.MethodDelete, "/ministries", ""); rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
	})
}
