package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/liturgical-scheduler/internal/application"
)

type rosterService interface {
	CreatePerson(ctx context.Context, input application.CreatePersonInput) (application.Person, error)
	ListActivePeople(ctx context.Context) ([]application.Person, error)
	ListOrdainedPeople(ctx context.Context) ([]application.Person, error)
	CreateMinistry(ctx context.Context, input application.CreateMinistryInput) (application.Ministry, error)
	ListMinistries(ctx context.Context) ([]application.Ministry, error)
}

// RosterHandler manages people and ministries.
type RosterHandler struct {
	service   rosterService
	responder responder
}

func NewRosterHandler(service rosterService, logger *slog.Logger) *RosterHandler {
	return &RosterHandler{service: service, responder: newResponder(logger)}
}

func (h *RosterHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// ListPeople lists active people, or only ordained ones with ?ordained=true.
func (h *RosterHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	list := h.service.ListActivePeople
	if strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("ordained")), "true") {
		list = h.service.ListOrdainedPeople
	}
	people, err := list(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]personDTO, 0, len(people))
	for _, p := range people {
		out = append(out, toPersonDTO(p))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listPeopleResponse{People: out})
}

func (h *RosterHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	person, err := h.service.CreatePerson(r.Context(), application.CreatePersonInput{
		Name:     req.Name,
		Contact:  req.Contact,
		Ordained: req.Ordained,
		Active:   req.Active,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toPersonDTO(person))
}

func (h *RosterHandler) ListMinistries(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	ministries, err := h.service.ListMinistries(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]ministryDTO, 0, len(ministries))
	for _, m := range ministries {
		out = append(out, ministryDTO{ID: m.ID, Name: m.Name, Slug: m.Slug})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listMinistriesResponse{Ministries: out})
}

func (h *RosterHandler) CreateMinistry(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req ministryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	ministry, err := h.service.CreateMinistry(r.Context(), application.CreateMinistryInput{Name: req.Name, Slug: req.Slug})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, ministryDTO{ID: ministry.ID, Name: ministry.Name, Slug: ministry.Slug})
}

type personRequest struct {
	Name     string  `json:"name"`
	Contact  *string `json:"contact"`
	Ordained bool    `json:"ordained"`
	Active   *bool   `json:"active"`
}

type ministryRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type personDTO struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Contact  *string `json:"contact,omitempty"`
	Ordained bool    `json:"ordained"`
	Active   bool    `json:"active"`
}

type ministryDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type listPeopleResponse struct {
	People []personDTO `json:"people"`
}

type listMinistriesResponse struct {
	Ministries []ministryDTO `json:"ministries"`
}

func toPersonDTO(p application.Person) personDTO {
	return personDTO{ID: p.ID, Name: p.Name, Contact: p.Contact, Ordained: p.Ordained, Active: p.Active}
}
