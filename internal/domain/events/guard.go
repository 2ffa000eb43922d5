package events

import "time"

// DateOnly truncates t to its date component in UTC. Event dates and "today"
// comparisons are done on whole days: an event dated today is still upcoming.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// IsRegistrant reports whether the user appears in the event's registrant list.
func (e *Event) IsRegistrant(userULID string) bool {
	for _, registrant := range e.Registrants {
		if registrant.ULID == userULID {
			return true
		}
	}
	return false
}

// CheckReview validates the pending → approved/rejected transition. Approved
// and rejected are terminal: no further transition is defined from either.
func CheckReview(e *Event) error {
	if e.Status != StatusPending {
		return ErrNotPending
	}
	return nil
}

// CheckRegistration validates the registration guard for userULID at the given
// instant. The storage layer re-runs this under a row lock before appending, so
// the rules live here only.
func CheckRegistration(e *Event, userULID string, now time.Time) error {
	if e.Status != StatusApproved {
		return ErrNotApproved
	}
	if DateOnly(e.Date).Before(DateOnly(now)) {
		return ErrEventPassed
	}
	if e.IsRegistrant(userULID) {
		return ErrAlreadyRegistered
	}
	if e.MaxParticipants != nil && len(e.Registrants) >= *e.MaxParticipants {
		return ErrCapacityReached
	}
	return nil
}

// CheckFeedback validates feedback eligibility: the event must be over and the
// caller must have been registered. Duplicate submissions are caught by the
// feedback store's uniqueness constraint.
func CheckFeedback(e *Event, userULID string, now time.Time) error {
	if !DateOnly(e.Date).Before(DateOnly(now)) {
		return ErrEventNotOver
	}
	if !e.IsRegistrant(userULID) {
		return ErrNotRegistrant
	}
	return nil
}
