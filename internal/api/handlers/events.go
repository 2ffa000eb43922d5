package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/campus-events/server/internal/api/middleware"
	"github.com/campus-events/server/internal/api/problem"
	"github.com/campus-events/server/internal/auth"
	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/domain/ids"
	"github.com/campus-events/server/internal/metrics"
)

type EventsHandler struct {
	Service *events.Service
	Env     string
}

func NewEventsHandler(service *events.Service, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env}
}

type proposeRequest struct {
	Title           string   `json:"title" validate:"required"`
	Description     string   `json:"description" validate:"required"`
	Date            string   `json:"date" validate:"required"`
	Time            string   `json:"time" validate:"required"`
	Venue           string   `json:"venue" validate:"required"`
	TargetAudience  []string `json:"targetAudience" validate:"required,min=1"`
	Department      string   `json:"department"`
	MaxParticipants *int     `json:"maxParticipants"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type snapshotResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type registrantResponse struct {
	snapshotResponse
	RegisteredAt time.Time `json:"registeredAt"`
}

type eventResponse struct {
	ID              string               `json:"id"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Date            string               `json:"date"`
	Time            string               `json:"time"`
	Venue           string               `json:"venue"`
	TargetAudience  []string             `json:"targetAudience"`
	Department      string               `json:"department,omitempty"`
	MaxParticipants *int                 `json:"maxParticipants,omitempty"`
	Organizer       snapshotResponse     `json:"organizer"`
	Status          string               `json:"status"`
	RejectionReason string               `json:"rejectionReason,omitempty"`
	ReviewedBy      *snapshotResponse    `json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time           `json:"reviewedAt,omitempty"`
	RegistrantCount int                  `json:"registrantCount"`
	Registrants     []registrantResponse `json:"registrants,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

type eventListResponse struct {
	Items []eventResponse `json:"items"`
	Total int             `json:"total"`
}

// List returns the approved events visible to any authenticated user.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListApproved(r.Context())
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toEventListResponse(items))
}

// Mine returns the caller's own proposals regardless of status.
func (h *EventsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	items, err := h.Service.ListByOrganizer(r.Context(), actor)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toEventListResponse(items))
}

// Pending returns the admin review queue.
func (h *EventsHandler) Pending(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	items, err := h.Service.ListPending(r.Context(), actor)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toEventListResponse(items))
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventULID, ok := h.eventULID(w, r)
	if !ok {
		return
	}

	event, err := h.Service.Get(r.Context(), eventULID)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(event, true))
}

func (h *EventsHandler) Propose(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req proposeRequest
	if !decodeJSON(w, r, h.Env, &req) {
		return
	}

	event, err := h.Service.Propose(r.Context(), actor, events.ProposeParams{
		Title:           req.Title,
		Description:     req.Description,
		Date:            req.Date,
		Time:            req.Time,
		Venue:           req.Venue,
		TargetAudience:  req.TargetAudience,
		Department:      req.Department,
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusCreated, toEventResponse(event, false))
}

func (h *EventsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	eventULID, ok := h.eventULID(w, r)
	if !ok {
		return
	}

	event, err := h.Service.Approve(r.Context(), actor, eventULID)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(event, false))
}

func (h *EventsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	eventULID, ok := h.eventULID(w, r)
	if !ok {
		return
	}

	var req rejectRequest
	if !decodeJSON(w, r, h.Env, &req) {
		return
	}

	event, err := h.Service.Reject(r.Context(), actor, eventULID, req.Reason)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(event, false))
}

func (h *EventsHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	eventULID, ok := h.eventULID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Register(r.Context(), actor, eventULID); err != nil {
		metrics.EventRegistrationsTotal.WithLabelValues(registrationOutcome(err)).Inc()
		writeDomainError(w, r, err, h.Env)
		return
	}

	metrics.EventRegistrationsTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}

func registrationOutcome(err error) string {
	switch {
	case errors.Is(err, events.ErrCapacityReached):
		return "full"
	case errors.Is(err, events.ErrAlreadyRegistered):
		return "duplicate"
	default:
		return "rejected"
	}
}

func (h *EventsHandler) actor(w http.ResponseWriter, r *http.Request) (events.Actor, bool) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", auth.ErrMissingToken, h.Env)
	}
	return actor, ok
}

func (h *EventsHandler) eventULID(w http.ResponseWriter, r *http.Request) (string, bool) {
	value := pathParam(r, "id")
	if err := ids.ValidateULID(value); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
			problem.WithErrors(map[string]any{"id": "must be a ULID"}))
		return "", false
	}
	return value, true
}

func toEventListResponse(items []events.Event) eventListResponse {
	responses := make([]eventResponse, 0, len(items))
	for i := range items {
		responses = append(responses, toEventResponse(&items[i], false))
	}
	return eventListResponse{Items: responses, Total: len(responses)}
}

func toEventResponse(event *events.Event, includeRegistrants bool) eventResponse {
	response := eventResponse{
		ID:              event.ULID,
		Title:           event.Title,
		Description:     event.Description,
		Date:            event.Date.Format("2006-01-02"),
		Time:            event.Time,
		Venue:           event.Venue,
		TargetAudience:  event.TargetAudience,
		Department:      event.Department,
		MaxParticipants: event.MaxParticipants,
		Organizer:       toSnapshotResponse(event.Organizer),
		Status:          event.Status,
		RejectionReason: event.RejectionReason,
		ReviewedAt:      event.ReviewedAt,
		RegistrantCount: event.RegistrantCount,
		CreatedAt:       event.CreatedAt,
		UpdatedAt:       event.UpdatedAt,
	}
	if event.ReviewedBy != nil {
		reviewer := toSnapshotResponse(*event.ReviewedBy)
		response.ReviewedBy = &reviewer
	}
	if includeRegistrants {
		response.Registrants = make([]registrantResponse, 0, len(event.Registrants))
		for _, registrant := range event.Registrants {
			response.Registrants = append(response.Registrants, registrantResponse{
				snapshotResponse: toSnapshotResponse(registrant.UserSnapshot),
				RegisteredAt:     registrant.RegisteredAt,
			})
		}
	}
	return response
}

func toSnapshotResponse(snapshot events.UserSnapshot) snapshotResponse {
	return snapshotResponse{
		ID:    snapshot.ULID,
		Name:  snapshot.Name,
		Email: snapshot.Email,
		Role:  snapshot.Role,
	}
}
