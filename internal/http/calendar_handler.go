package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/liturgical-scheduler/internal/application"
	"github.com/example/liturgical-scheduler/internal/calfeed"
	"github.com/example/liturgical-scheduler/internal/liturgical"
)

type publishedServices interface {
	ListPublishedServices(ctx context.Context) ([]application.Service, error)
}

// CalendarHandler answers calendar questions and serves the ICS feed.
type CalendarHandler struct {
	services  publishedServices
	feed      calfeed.Options
	responder responder
}

func NewCalendarHandler(services publishedServices, feed calfeed.Options, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{services: services, feed: feed, responder: newResponder(logger)}
}

func (h *CalendarHandler) Season(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	date, err := time.Parse(application.DateLayout, raw)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("date must use the YYYY-MM-DD format"))
		return
	}

	info := liturgical.DeriveSeason(date)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, seasonResponse{
		Date:           date.Format(application.DateLayout),
		Season:         string(info.Season),
		Week:           info.Week,
		WeekNumber:     info.WeekNumber,
		Color:          string(info.Color),
		LectionaryYear: info.LectionaryYear,
	})
}

func (h *CalendarHandler) Easter(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("year")))
	if err != nil || year < 1583 || year > 9999 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("year must be a Gregorian year between 1583 and 9999"))
		return
	}

	a := liturgical.AnchorsFor(year)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, easterResponse{
		Year:         year,
		Easter:       a.Easter.Format(application.DateLayout),
		AshWednesday: a.AshWednesday.Format(application.DateLayout),
		PalmSunday:   a.PalmSunday.Format(application.DateLayout),
		Pentecost:    a.Pentecost.Format(application.DateLayout),
		FirstAdvent:  a.FirstAdvent.Format(application.DateLayout),
	})
}

func (h *CalendarHandler) Feed(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.services == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	services, err := h.services.ListPublishedServices(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var buf bytes.Buffer
	if err := calfeed.Write(&buf, services, h.feed); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, err)
		return
	}
	h.responder.writeBody(r.Context(), w, "text/calendar; charset=utf-8", buf.Bytes())
}

type seasonResponse struct {
	Date           string `json:"date"`
	Season         string `json:"season"`
	Week           string `json:"week"`
	WeekNumber     int    `json:"week_number"`
	Color          string `json:"color"`
	LectionaryYear string `json:"lectionary_year"`
}

type easterResponse struct {
	Year         int    `json:"year"`
	Easter       string `json:"easter"`
	AshWednesday string `json:"ash_wednesday"`
	PalmSunday   string `json:"palm_sunday"`
	Pentecost    string `json:"pentecost"`
	FirstAdvent  string `json:"first_advent"`
}
