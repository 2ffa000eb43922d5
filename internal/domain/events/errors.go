package events

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("event not found")

	// ErrForbidden indicates the caller's role does not permit the operation.
	ErrForbidden = errors.New("operation not permitted for caller")

	// State errors: the event lifecycle does not allow the operation.
	ErrNotPending   = errors.New("event is not pending review")
	ErrNotApproved  = errors.New("event is not approved")
	ErrEventPassed  = errors.New("event date has already passed")
	ErrEventNotOver = errors.New("event has not taken place yet")

	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrCapacityReached   = errors.New("event has reached maximum capacity")
	ErrNotRegistrant     = errors.New("caller is not a registrant of this event")
)

// ValidationError reports a malformed or missing input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var verr ValidationError
	return errors.As(err, &verr)
}
