package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/domain/feedback"
	"github.com/campus-events/server/internal/domain/users"
)

// fakeEventRepo implements events.Repository in memory for handler tests. It
// mirrors the storage layer's behavior of running the guards under a lock.
type fakeEventRepo struct {
	mu     sync.Mutex
	events map[string]*events.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]*events.Event)}
}

func (r *fakeEventRepo) Create(_ context.Context, params events.CreateParams) (*events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event := &events.Event{
		ID:              params.ULID,
		ULID:            params.ULID,
		Title:           params.Title,
		Description:     params.Description,
		Date:            params.Date,
		Time:            params.Time,
		Venue:           params.Venue,
		TargetAudience:  params.TargetAudience,
		Department:      params.Department,
		MaxParticipants: params.MaxParticipants,
		Organizer:       params.Organizer,
		Status:          events.StatusPending,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	r.events[event.ULID] = event
	return copyEvent(event), nil
}

func (r *fakeEventRepo) GetByULID(_ context.Context, ulid string) (*events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[ulid]
	if !ok {
		return nil, events.ErrNotFound
	}
	return copyEvent(event), nil
}

func (r *fakeEventRepo) ListApproved(_ context.Context) ([]events.Event, error) {
	return r.listByStatus(events.StatusApproved), nil
}

func (r *fakeEventRepo) ListPending(_ context.Context) ([]events.Event, error) {
	return r.listByStatus(events.StatusPending), nil
}

func (r *fakeEventRepo) ListByOrganizer(_ context.Context, organizerULID string) ([]events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []events.Event
	for _, event := range r.events {
		if event.Organizer.ULID == organizerULID {
			items = append(items, *copyEvent(event))
		}
	}
	return items, nil
}

func (r *fakeEventRepo) Review(_ context.Context, params events.ReviewParams) (*events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[params.EventULID]
	if !ok {
		return nil, events.ErrNotFound
	}
	if err := events.CheckReview(event); err != nil {
		return nil, err
	}
	now := time.Now()
	reviewer := params.Reviewer
	event.Status = params.Status
	event.RejectionReason = params.RejectionReason
	event.ReviewedBy = &reviewer
	event.ReviewedAt = &now
	event.UpdatedAt = now
	return copyEvent(event), nil
}

func (r *fakeEventRepo) AddRegistrant(_ context.Context, eventULID string, registrant events.Registrant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[eventULID]
	if !ok {
		return events.ErrNotFound
	}
	if err := events.CheckRegistration(event, registrant.ULID, registrant.RegisteredAt); err != nil {
		return err
	}
	event.Registrants = append(event.Registrants, registrant)
	event.RegistrantCount = len(event.Registrants)
	event.UpdatedAt = time.Now()
	return nil
}

func (r *fakeEventRepo) listByStatus(status string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []events.Event
	for _, event := range r.events {
		if event.Status == status {
			items = append(items, *copyEvent(event))
		}
	}
	return items
}

func copyEvent(event *events.Event) *events.Event {
	copied := *event
	copied.Registrants = append([]events.Registrant(nil), event.Registrants...)
	copied.RegistrantCount = len(copied.Registrants)
	return &copied
}

type fakeFeedbackRepo struct {
	mu    sync.Mutex
	items []feedback.Feedback
}

func (r *fakeFeedbackRepo) Create(_ context.Context, params feedback.CreateParams) (*feedback.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range r.items {
		if item.EventULID == params.EventULID && item.User.ULID == params.User.ULID {
			return nil, feedback.ErrAlreadySubmitted
		}
	}
	item := feedback.Feedback{
		ID:        params.ULID,
		ULID:      params.ULID,
		EventULID: params.EventULID,
		User:      params.User,
		Rating:    params.Rating,
		Comment:   params.Comment,
		CreatedAt: time.Now(),
	}
	r.items = append(r.items, item)
	return &item, nil
}

func (r *fakeFeedbackRepo) ListByEvent(_ context.Context, eventULID string) ([]feedback.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []feedback.Feedback
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].EventULID == eventULID {
			items = append(items, r.items[i])
		}
	}
	return items, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*users.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*users.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, params users.CreateParams) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == params.Email {
			return nil, users.ErrEmailTaken
		}
	}
	user := &users.User{
		ID:           params.ULID,
		ULID:         params.ULID,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Name:         params.Name,
		Role:         params.Role,
		Department:   params.Department,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	r.users[user.ULID] = user
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, users.ErrNotFound
}

func (r *fakeUserRepo) GetByULID(_ context.Context, ulid string) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, ok := r.users[ulid]; ok {
		return user, nil
	}
	return nil, users.ErrNotFound
}

func (r *fakeUserRepo) ListActive(_ context.Context) ([]users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []users.User
	for _, user := range r.users {
		if user.IsActive {
			items = append(items, *user)
		}
	}
	return items, nil
}

func (r *fakeUserRepo) SetActive(_ context.Context, ulid string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[ulid]
	if !ok {
		return users.ErrNotFound
	}
	user.IsActive = active
	return nil
}
