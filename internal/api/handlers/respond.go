package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/campus-events/server/internal/api/problem"
	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/domain/feedback"
	"github.com/campus-events/server/internal/domain/users"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathParam(r *http.Request, name string) string {
	return strings.TrimSpace(r.PathValue(name))
}

// decodeJSON decodes and validates a request body. A false return means the
// error response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, env string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			details := make(map[string]any, len(fieldErrs))
			for _, fieldErr := range fieldErrs {
				details[strings.ToLower(fieldErr.Field())] = "failed on " + fieldErr.Tag()
			}
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env,
				problem.WithErrors(details))
			return false
		}
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env)
		return false
	}
	return true
}

// writeDomainError maps domain errors onto problem responses. Validation
// failures get 400 with a field map, state conflicts get 409, everything
// unrecognized falls through to 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var validation events.ValidationError
	if errors.As(err, &validation) {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env,
			problem.WithErrors(map[string]any{validation.Field: validation.Message}))
		return
	}

	switch {
	case errors.Is(err, events.ErrNotFound), errors.Is(err, users.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, env)
	case errors.Is(err, events.ErrForbidden), errors.Is(err, users.ErrForbidden),
		errors.Is(err, users.ErrAccountDeactivated):
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Forbidden", err, env)
	case errors.Is(err, users.ErrInvalidCredentials):
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", err, env)
	case errors.Is(err, events.ErrNotPending),
		errors.Is(err, events.ErrNotApproved),
		errors.Is(err, events.ErrEventPassed),
		errors.Is(err, events.ErrEventNotOver),
		errors.Is(err, events.ErrAlreadyRegistered),
		errors.Is(err, events.ErrCapacityReached),
		errors.Is(err, events.ErrNotRegistrant),
		errors.Is(err, users.ErrEmailTaken),
		errors.Is(err, feedback.ErrAlreadySubmitted):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Conflict", err, env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, env)
	}
}
