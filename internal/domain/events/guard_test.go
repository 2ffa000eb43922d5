package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var guardNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func approvedEvent(date time.Time, max *int, registrants ...Registrant) *Event {
	return &Event{
		ULID:            "01HYX3KQW7ERTV9XNBM2P8QJZF",
		Status:          StatusApproved,
		Date:            DateOnly(date),
		MaxParticipants: max,
		Registrants:     registrants,
	}
}

func intPtr(v int) *int { return &v }

func TestDateOnly(t *testing.T) {
	require.Equal(t,
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		DateOnly(time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC)))
}

func TestCheckReview(t *testing.T) {
	require.NoError(t, CheckReview(&Event{Status: StatusPending}))
	require.ErrorIs(t, CheckReview(&Event{Status: StatusApproved}), ErrNotPending)
	require.ErrorIs(t, CheckReview(&Event{Status: StatusRejected}), ErrNotPending)
}

func TestCheckRegistrationStatus(t *testing.T) {
	event := approvedEvent(guardNow.AddDate(0, 0, 1), nil)
	event.Status = StatusPending
	require.ErrorIs(t, CheckRegistration(event, "u1", guardNow), ErrNotApproved)

	event.Status = StatusRejected
	require.ErrorIs(t, CheckRegistration(event, "u1", guardNow), ErrNotApproved)
}

func TestCheckRegistrationDate(t *testing.T) {
	past := approvedEvent(guardNow.AddDate(0, 0, -1), nil)
	require.ErrorIs(t, CheckRegistration(past, "u1", guardNow), ErrEventPassed)

	// An event dated today is still open for registration.
	today := approvedEvent(guardNow, nil)
	require.NoError(t, CheckRegistration(today, "u1", guardNow))
}

func TestCheckRegistrationDuplicate(t *testing.T) {
	event := approvedEvent(guardNow.AddDate(0, 0, 1), nil, Registrant{UserSnapshot: UserSnapshot{ULID: "u1"}})
	require.ErrorIs(t, CheckRegistration(event, "u1", guardNow), ErrAlreadyRegistered)
	require.NoError(t, CheckRegistration(event, "u2", guardNow))
}

func TestCheckRegistrationCapacity(t *testing.T) {
	event := approvedEvent(guardNow.AddDate(0, 0, 1), intPtr(1), Registrant{UserSnapshot: UserSnapshot{ULID: "u1"}})
	require.ErrorIs(t, CheckRegistration(event, "u2", guardNow), ErrCapacityReached)

	// Unbounded events never fill up.
	unbounded := approvedEvent(guardNow.AddDate(0, 0, 1), nil, Registrant{UserSnapshot: UserSnapshot{ULID: "u1"}})
	require.NoError(t, CheckRegistration(unbounded, "u2", guardNow))
}

func TestCheckFeedback(t *testing.T) {
	registrant := Registrant{UserSnapshot: UserSnapshot{ULID: "u1"}}

	upcoming := approvedEvent(guardNow.AddDate(0, 0, 1), nil, registrant)
	require.ErrorIs(t, CheckFeedback(upcoming, "u1", guardNow), ErrEventNotOver)

	// Dated today still counts as not over.
	today := approvedEvent(guardNow, nil, registrant)
	require.ErrorIs(t, CheckFeedback(today, "u1", guardNow), ErrEventNotOver)

	past := approvedEvent(guardNow.AddDate(0, 0, -1), nil, registrant)
	require.NoError(t, CheckFeedback(past, "u1", guardNow))
	require.ErrorIs(t, CheckFeedback(past, "u2", guardNow), ErrNotRegistrant)
}
