package feedback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/campus-events/server/internal/domain/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeEventRepo struct {
	events map[string]*events.Event
}

func (r *fakeEventRepo) GetByULID(_ context.Context, ulid string) (*events.Event, error) {
	event, ok := r.events[ulid]
	if !ok {
		return nil, events.ErrNotFound
	}
	return event, nil
}

func (r *fakeEventRepo) Create(context.Context, events.CreateParams) (*events.Event, error) {
	panic("not used")
}
func (r *fakeEventRepo) ListApproved(context.Context) ([]events.Event, error)  { panic("not used") }
func (r *fakeEventRepo) ListPending(context.Context) ([]events.Event, error)   { panic("not used") }
func (r *fakeEventRepo) ListByOrganizer(context.Context, string) ([]events.Event, error) {
	panic("not used")
}
func (r *fakeEventRepo) Review(context.Context, events.ReviewParams) (*events.Event, error) {
	panic("not used")
}
func (r *fakeEventRepo) AddRegistrant(context.Context, string, events.Registrant) error {
	panic("not used")
}

type fakeFeedbackRepo struct {
	mu    sync.Mutex
	items []Feedback
}

func (r *fakeFeedbackRepo) Create(_ context.Context, params CreateParams) (*Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range r.items {
		if item.EventULID == params.EventULID && item.User.ULID == params.User.ULID {
			return nil, ErrAlreadySubmitted
		}
	}
	created := Feedback{
		ID:        params.ULID,
		ULID:      params.ULID,
		EventULID: params.EventULID,
		User:      params.User,
		Rating:    params.Rating,
		Comment:   params.Comment,
		CreatedAt: time.Now(),
	}
	r.items = append(r.items, created)
	return &created, nil
}

func (r *fakeFeedbackRepo) ListByEvent(_ context.Context, eventULID string) ([]Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []Feedback
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].EventULID == eventULID {
			items = append(items, r.items[i])
		}
	}
	return items, nil
}

const eventULID = "01HYX3KQW7ERTV9XNBM2P8QJZF"

var attendee = events.Actor{ULID: "01HYX3KQW7ERTV9XNBM2P8QJZ2", Name: "Ayesha Khan", Email: "ayesha@pucit.edu.pk", Role: "student"}

func pastEvent(registrants ...string) *events.Event {
	event := &events.Event{
		ULID:   eventULID,
		Status: events.StatusApproved,
		Date:   events.DateOnly(time.Now().AddDate(0, 0, -1)),
	}
	for _, ulid := range registrants {
		event.Registrants = append(event.Registrants, events.Registrant{
			UserSnapshot: events.UserSnapshot{ULID: ulid},
			RegisteredAt: time.Now().AddDate(0, 0, -7),
		})
	}
	return event
}

func newTestService(event *events.Event) (*Service, *fakeFeedbackRepo) {
	eventRepo := &fakeEventRepo{events: map[string]*events.Event{}}
	if event != nil {
		eventRepo.events[event.ULID] = event
	}
	repo := &fakeFeedbackRepo{}
	return NewService(repo, eventRepo, zerolog.Nop()), repo
}

func TestSubmitHappyPath(t *testing.T) {
	service, _ := newTestService(pastEvent(attendee.ULID))

	created, err := service.Submit(context.Background(), attendee, eventULID, 4, " great talk ")

	require.NoError(t, err)
	require.Equal(t, 4, created.Rating)
	require.Equal(t, "great talk", created.Comment)
	require.Equal(t, attendee.ULID, created.User.ULID)
}

func TestSubmitValidatesRatingAndComment(t *testing.T) {
	service, _ := newTestService(pastEvent(attendee.ULID))
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1} {
		_, err := service.Submit(ctx, attendee, eventULID, rating, "fine")
		require.True(t, events.IsValidation(err))
	}

	_, err := service.Submit(ctx, attendee, eventULID, 3, "   ")
	require.True(t, events.IsValidation(err))
}

func TestSubmitBeforeEventDateFails(t *testing.T) {
	upcoming := pastEvent(attendee.ULID)
	upcoming.Date = events.DateOnly(time.Now().AddDate(0, 0, 2))
	service, _ := newTestService(upcoming)

	_, err := service.Submit(context.Background(), attendee, eventULID, 5, "early bird")
	require.ErrorIs(t, err, events.ErrEventNotOver)
}

func TestSubmitByNonRegistrantFails(t *testing.T) {
	service, _ := newTestService(pastEvent("someone-else"))

	_, err := service.Submit(context.Background(), attendee, eventULID, 5, "sneaky")
	require.ErrorIs(t, err, events.ErrNotRegistrant)
}

func TestSubmitTwiceFails(t *testing.T) {
	service, _ := newTestService(pastEvent(attendee.ULID))
	ctx := context.Background()

	_, err := service.Submit(ctx, attendee, eventULID, 4, "great")
	require.NoError(t, err)

	_, err = service.Submit(ctx, attendee, eventULID, 5, "even better")
	require.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestSubmitMissingEvent(t *testing.T) {
	service, _ := newTestService(nil)

	_, err := service.Submit(context.Background(), attendee, eventULID, 4, "ghost event")
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestFutureThenBadRatingScenario(t *testing.T) {
	// Feedback for a future event fails with a state error; after the date
	// passes, a rating of 6 fails validation.
	event := pastEvent(attendee.ULID)
	event.Date = events.DateOnly(time.Now().AddDate(0, 0, 2))
	service, _ := newTestService(event)
	ctx := context.Background()

	_, err := service.Submit(ctx, attendee, eventULID, 4, "too soon")
	require.ErrorIs(t, err, events.ErrEventNotOver)

	event.Date = events.DateOnly(time.Now().AddDate(0, 0, -1))
	_, err = service.Submit(ctx, attendee, eventULID, 6, "over the top")
	require.True(t, events.IsValidation(err))
}

func TestForEventComputesAverage(t *testing.T) {
	service, repo := newTestService(pastEvent(attendee.ULID, "01HYX3KQW7ERTV9XNBM2P8QJZ3"))
	ctx := context.Background()

	_, err := service.Submit(ctx, attendee, eventULID, 4, "great")
	require.NoError(t, err)
	other := events.Actor{ULID: "01HYX3KQW7ERTV9XNBM2P8QJZ3", Name: "Hamza Tariq", Email: "hamza@pucit.edu.pk", Role: "student"}
	_, err = service.Submit(ctx, other, eventULID, 5, "superb")
	require.NoError(t, err)

	summary, err := service.ForEvent(ctx, eventULID)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Total)
	require.Len(t, summary.Items, 2)
	require.InDelta(t, 4.5, summary.AverageRating, 0.001)
	require.Len(t, repo.items, 2)
}

func TestForEventEmpty(t *testing.T) {
	service, _ := newTestService(pastEvent())

	summary, err := service.ForEvent(context.Background(), eventULID)
	require.NoError(t, err)
	require.Zero(t, summary.Total)
	require.Zero(t, summary.AverageRating)
}

func TestConcurrentDuplicateFeedback(t *testing.T) {
	service, repo := newTestService(pastEvent(attendee.ULID))
	ctx := context.Background()

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Submit(ctx, attendee, eventULID, 4, "once only")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var failures int
	for err := range results {
		if err != nil {
			require.ErrorIs(t, err, ErrAlreadySubmitted)
			failures++
		}
	}
	require.Equal(t, 1, failures)
	require.Len(t, repo.items, 1)
}
