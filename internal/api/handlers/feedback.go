package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/campus-events/server/internal/api/middleware"
	"github.com/campus-events/server/internal/api/problem"
	"github.com/campus-events/server/internal/auth"
	"github.com/campus-events/server/internal/domain/feedback"
	"github.com/campus-events/server/internal/domain/ids"
	"github.com/campus-events/server/internal/metrics"
)

type FeedbackHandler struct {
	Service *feedback.Service
	Env     string
}

func NewFeedbackHandler(service *feedback.Service, env string) *FeedbackHandler {
	return &FeedbackHandler{Service: service, Env: env}
}

type submitFeedbackRequest struct {
	Rating  int    `json:"rating" validate:"required"`
	Comment string `json:"comment" validate:"required"`
}

type feedbackResponse struct {
	ID        string           `json:"id"`
	EventID   string           `json:"eventId"`
	User      snapshotResponse `json:"user"`
	Rating    int              `json:"rating"`
	Comment   string           `json:"comment"`
	CreatedAt time.Time        `json:"createdAt"`
}

type feedbackListResponse struct {
	Items         []feedbackResponse `json:"items"`
	AverageRating float64            `json:"averageRating"`
	Total         int                `json:"total"`
}

func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", auth.ErrMissingToken, h.Env)
		return
	}

	eventULID := pathParam(r, "id")
	if err := ids.ValidateULID(eventULID); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
			problem.WithErrors(map[string]any{"id": "must be a ULID"}))
		return
	}

	var req submitFeedbackRequest
	if !decodeJSON(w, r, h.Env, &req) {
		return
	}

	item, err := h.Service.Submit(r.Context(), actor, eventULID, req.Rating, req.Comment)
	if err != nil {
		metrics.FeedbackSubmissionsTotal.WithLabelValues(feedbackOutcome(err)).Inc()
		writeDomainError(w, r, err, h.Env)
		return
	}

	metrics.FeedbackSubmissionsTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusCreated, toFeedbackResponse(item))
}

func (h *FeedbackHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	eventULID := pathParam(r, "id")
	if err := ids.ValidateULID(eventULID); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
			problem.WithErrors(map[string]any{"id": "must be a ULID"}))
		return
	}

	summary, err := h.Service.ForEvent(r.Context(), eventULID)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}

	items := make([]feedbackResponse, 0, len(summary.Items))
	for i := range summary.Items {
		items = append(items, toFeedbackResponse(&summary.Items[i]))
	}
	writeJSON(w, http.StatusOK, feedbackListResponse{
		Items:         items,
		AverageRating: summary.AverageRating,
		Total:         summary.Total,
	})
}

func feedbackOutcome(err error) string {
	if errors.Is(err, feedback.ErrAlreadySubmitted) {
		return "duplicate"
	}
	return "rejected"
}

func toFeedbackResponse(item *feedback.Feedback) feedbackResponse {
	return feedbackResponse{
		ID:        item.ULID,
		EventID:   item.EventULID,
		User:      toSnapshotResponse(item.User),
		Rating:    item.Rating,
		Comment:   item.Comment,
		CreatedAt: item.CreatedAt,
	}
}
