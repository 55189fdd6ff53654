package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/liturgical-scheduler/internal/application"
	"github.com/example/liturgical-scheduler/internal/logging"
	"github.com/example/liturgical-scheduler/internal/notify"
	"github.com/example/liturgical-scheduler/internal/program"
)

type schedulingService interface {
	CreateService(ctx context.Context, input application.CreateServiceInput) (application.Service, error)
	DuplicateService(ctx context.Context, id, newDate string) (application.Service, error)
	FetchServicesByMonth(ctx context.Context, year int, month time.Month) ([]application.Service, error)
	ListUpcomingServices(ctx context.Context) ([]application.Service, error)
	PublishService(ctx context.Context, id string) (application.Service, error)
	ResolveService(ctx context.Context, id string) (application.ResolvedService, error)
	AssignMinistry(ctx context.Context, input application.AssignMinistryInput) (application.Schedule, error)
	RemoveAssignment(ctx context.Context, scheduleID string) error
}

type pdfExporter interface {
	Export(ctx context.Context, p program.Program) ([]byte, error)
}

type dispatcher interface {
	Dispatch(ctx context.Context, svc application.ResolvedService, gw notify.Gateway) (notify.DispatchResult, error)
}

// ServiceHandler serves services, their assignments, programs and notifications.
type ServiceHandler struct {
	service    schedulingService
	texts      program.Texts
	pdf        pdfExporter
	dispatcher dispatcher
	gateway    notify.Gateway
	logger     *slog.Logger
	responder  responder
}

// ServiceHandlerOptions carries the optional collaborators of a ServiceHandler.
type ServiceHandlerOptions struct {
	Texts      program.Texts
	PDF        pdfExporter
	Dispatcher dispatcher
	Gateway    notify.Gateway
}

func NewServiceHandler(service schedulingService, opts ServiceHandlerOptions, logger *slog.Logger) *ServiceHandler {
	texts := opts.Texts
	if texts == nil {
		texts = program.DefaultTexts()
	}
	return &ServiceHandler{
		service:    service,
		texts:      texts,
		pdf:        opts.PDF,
		dispatcher: opts.Dispatcher,
		gateway:    opts.Gateway,
		logger:     logging.OrDefault(logger),
		responder:  newResponder(logger),
	}
}

func (h *ServiceHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *ServiceHandler) serviceID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := ServiceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidServiceID)
		return "", false
	}
	return id, true
}

func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req createServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	service, err := h.service.CreateService(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, serviceResponse{Service: toServiceDTO(service)})
}

func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	query := r.URL.Query()
	year, yearErr := strconv.Atoi(strings.TrimSpace(query.Get("year")))
	month, monthErr := strconv.Atoi(strings.TrimSpace(query.Get("month")))
	if yearErr != nil || monthErr != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("year and month query parameters are required"))
		return
	}

	services, err := h.service.FetchServicesByMonth(r.Context(), year, time.Month(month))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listServicesResponse{Services: toServiceDTOs(services)})
}

func (h *ServiceHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	services, err := h.service.ListUpcomingServices(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listServicesResponse{Services: toServiceDTOs(services)})
}

func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.serviceID(w, r)
	if !ok {
		return
	}

	resolved, err := h.service.ResolveService(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toResolvedServiceResponse(resolved))
}

func (h *ServiceHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.serviceID(w, r)
	if !ok {
		return
	}

	var req duplicateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	service, err := h.service.DuplicateService(r.Context(), id, req.ServiceDate)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, serviceResponse{Service: toServiceDTO(service)})
}

func (h *ServiceHandler) Publish(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.serviceID(w, r)
	if !ok {
		return
	}

	service, err := h.service.PublishService(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, serviceResponse{Service: toServiceDTO(service)})
}

func (h *ServiceHandler) Assign(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.serviceID(w, r)
	if !ok {
		return
	}

	var req assignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	schedule, err := h.service.AssignMinistry(r.Context(), application.AssignMinistryInput{
		ServiceID:  id,
		MinistryID: strings.TrimSpace(req.MinistryID),
		PersonID:   strings.TrimSpace(req.PersonID),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toAssignmentDTO(schedule))
}

func (h *ServiceHandler) RemoveAssignment(w http.ResponseWriter, r *http.Request, scheduleID string) {
	if !h.ready(w) {
		return
	}
	if strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	if err := h.service.RemoveAssignment(r.Context(), scheduleID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Program renders the order of service as text (default), html or pdf.
func (h *ServiceHandler) Program(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.serviceID(w, r)
	if !ok {
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "text"
	}
	if format != "text" && format != "html" && format != "pdf" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errUnknownFormat)
		return
	}

	resolved, err := h.service.ResolveService(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	doc := program.Render(resolved, h.texts)

	var buf bytes.Buffer
	switch format {
	case "text":
		if err := program.EncodeText(&buf, doc); err != nil {
			h.responder.writeError(r.Context(), w, http.StatusInternalServerError, err)
			return
		}
		if digest, err := program.Digest(doc); err == nil {
			w.Header().Set("ETag", strconv.Quote(digest))
		}
		h.responder.writeBody(r.Context(), w, "text/plain; charset=utf-8", buf.Bytes())
	case "html":
		if err := program.EncodeHTML(&buf, doc); err != nil {
			h.responder.writeError(r.Context(), w, http.StatusInternalServerError, err)
			return
		}
		h.responder.writeBody(r.Context(), w, "text/html; charset=utf-8", buf.Bytes())
	case "pdf":
		if h.pdf == nil {
			h.responder.writeError(r.Context(), w, http.StatusNotImplemented, errExportUnavailable)
			return
		}
		pdf, err := h.pdf.Export(r.Context(), doc)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusInternalServerError, err)
			return
		}
		h.responder.writeBody(r.Context(), w, "application/pdf", pdf)
	}
}

// Notify dispatches notifications to every reachable assignee not yet
// notified. Send failures are reported in the body; only a failure to record
// the notified flags turns the response into a 500.
func (h *ServiceHandler) Notify(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := h.serviceID(w, r)
	if !ok {
		return
	}
	if h.dispatcher == nil || h.gateway == nil {
		h.responder.writeError(r.Context(), w, http.StatusNotImplemented, errors.New("notifications are not configured"))
		return
	}

	resolved, err := h.service.ResolveService(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := logging.Scoped(r.Context(), h.logger, "handler", "ServiceHandler", "Notify", "service_id", id)
	result, err := h.dispatcher.Dispatch(r.Context(), resolved, h.gateway)
	response := toNotificationResponse(result)
	status := http.StatusOK
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to record notifications", "error", err)
		response.Error = "notifications were sent but could not be recorded"
		status = http.StatusInternalServerError
	}
	h.responder.writeJSON(r.Context(), w, status, response)
}

type createServiceRequest struct {
	ServiceDate string               `json:"service_date"`
	ServiceTime *string              `json:"service_time"`
	ServiceType string               `json:"service_type"`
	Songs       []string             `json:"songs"`
	Notices     []string             `json:"notices"`
	Readings    *string              `json:"readings"`
	Collect     *string              `json:"collect"`
	Overrides   calendarOverridesDTO `json:"overrides"`
	Schedules   []assignmentRequest  `json:"schedules"`
}

type calendarOverridesDTO struct {
	Season         *string `json:"season"`
	WeekLabel      *string `json:"week_label"`
	Color          *string `json:"color"`
	LectionaryYear *string `json:"lectionary_year"`
}

func (r createServiceRequest) toInput() application.CreateServiceInput {
	input := application.CreateServiceInput{
		ServiceDate: strings.TrimSpace(r.ServiceDate),
		ServiceTime: r.ServiceTime,
		ServiceType: r.ServiceType,
		Songs:       append([]string(nil), r.Songs...),
		Notices:     append([]string(nil), r.Notices...),
		Readings:    r.Readings,
		Collect:     r.Collect,
		Overrides: application.CalendarOverrides{
			Season:         r.Overrides.Season,
			WeekLabel:      r.Overrides.WeekLabel,
			Color:          r.Overrides.Color,
			LectionaryYear: r.Overrides.LectionaryYear,
		},
	}
	for _, s := range r.Schedules {
		input.Schedules = append(input.Schedules, application.ScheduleInput{
			MinistryID: strings.TrimSpace(s.MinistryID),
			PersonID:   strings.TrimSpace(s.PersonID),
		})
	}
	return input
}

type duplicateServiceRequest struct {
	ServiceDate string `json:"service_date"`
}

type assignmentRequest struct {
	MinistryID string `json:"ministry_id"`
	PersonID   string `json:"person_id"`
}

type serviceResponse struct {
	Service serviceDTO `json:"service"`
}

type listServicesResponse struct {
	Services []serviceDTO `json:"services"`
}

type resolvedServiceResponse struct {
	Service     serviceDTO      `json:"service"`
	Assignments []assignmentDTO `json:"assignments"`
}

type serviceDTO struct {
	ID             string   `json:"id"`
	Date           string   `json:"date"`
	Time           *string  `json:"time,omitempty"`
	ServiceType    string   `json:"service_type"`
	Songs          []string `json:"songs"`
	Notices        []string `json:"notices"`
	Readings       *string  `json:"readings,omitempty"`
	Collect        *string  `json:"collect,omitempty"`
	Season         string   `json:"season"`
	WeekLabel      string   `json:"week_label"`
	Color          string   `json:"color"`
	LectionaryYear string   `json:"lectionary_year"`
	Published      bool     `json:"published"`
	Status         string   `json:"status"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

type assignmentDTO struct {
	ID           string  `json:"id"`
	ServiceID    string  `json:"service_id"`
	MinistryID   string  `json:"ministry_id"`
	MinistrySlug string  `json:"ministry_slug,omitempty"`
	MinistryName string  `json:"ministry_name,omitempty"`
	PersonID     string  `json:"person_id"`
	PersonName   string  `json:"person_name,omitempty"`
	Notified     bool    `json:"notified"`
	NotifiedAt   *string `json:"notified_at,omitempty"`
}

type recipientDTO struct {
	ScheduleID string `json:"schedule_id"`
	PersonName string `json:"person_name"`
	Address    string `json:"address"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

type notificationResponse struct {
	SentCount   int            `json:"sent_count"`
	FailedCount int            `json:"failed_count"`
	Recipients  []recipientDTO `json:"recipients"`
	Unmarked    []string       `json:"unmarked,omitempty"`
	Error       string         `json:"error,omitempty"`
}

func toServiceDTO(s application.Service) serviceDTO {
	return serviceDTO{
		ID:             s.ID,
		Date:           s.Date.Format(application.DateLayout),
		Time:           s.Time,
		ServiceType:    s.ServiceType,
		Songs:          nonNil(s.Songs),
		Notices:        nonNil(s.Notices),
		Readings:       s.Readings,
		Collect:        s.Collect,
		Season:         string(s.Season),
		WeekLabel:      s.WeekLabel,
		Color:          string(s.Color),
		LectionaryYear: s.LectionaryYear,
		Published:      s.Published,
		Status:         string(s.Status),
		CreatedAt:      formatTimestamp(s.CreatedAt),
		UpdatedAt:      formatTimestamp(s.UpdatedAt),
	}
}

func toServiceDTOs(services []application.Service) []serviceDTO {
	out := make([]serviceDTO, 0, len(services))
	for _, s := range services {
		out = append(out, toServiceDTO(s))
	}
	return out
}

func toAssignmentDTO(s application.Schedule) assignmentDTO {
	dto := assignmentDTO{
		ID:         s.ID,
		ServiceID:  s.ServiceID,
		MinistryID: s.MinistryID,
		PersonID:   s.PersonID,
		Notified:   s.Notified,
	}
	if s.NotifiedAt != nil {
		at := formatTimestamp(*s.NotifiedAt)
		dto.NotifiedAt = &at
	}
	return dto
}

func toResolvedServiceResponse(r application.ResolvedService) resolvedServiceResponse {
	resp := resolvedServiceResponse{
		Service:     toServiceDTO(r.Service),
		Assignments: make([]assignmentDTO, 0, len(r.Schedules)),
	}
	for _, rs := range r.Schedules {
		dto := toAssignmentDTO(rs.Schedule)
		dto.MinistrySlug = rs.Ministry.Slug
		dto.MinistryName = rs.Ministry.Name
		dto.PersonName = rs.Person.Name
		resp.Assignments = append(resp.Assignments, dto)
	}
	return resp
}

func toNotificationResponse(result notify.DispatchResult) notificationResponse {
	resp := notificationResponse{
		SentCount:   result.SentCount,
		FailedCount: result.FailedCount,
		Recipients:  make([]recipientDTO, 0, len(result.Recipients)),
		Unmarked:    result.Unmarked,
	}
	for _, r := range result.Recipients {
		resp.Recipients = append(resp.Recipients, recipientDTO{
			ScheduleID: r.ScheduleID,
			PersonName: r.PersonName,
			Address:    r.Address,
			Success:    r.Success,
			Error:      r.Error,
		})
	}
	return resp
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
