package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventlifecycle/internal/domain"
)

const (
	testMinDuration   = 30 * time.Minute
	testTimeout       = 5 * time.Second
	testNotifyTimeout = time.Second
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeEventRepo is an in-memory EventRepository. Reads return copies and
// Update writes a copy back, mirroring how rows behave across a real driver.
type fakeEventRepo struct {
	byID      map[string]*domain.Event
	nextID    int
	createErr error
	getErr    error
	updateErr error
	listErr   error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byID: make(map[string]*domain.Event), nextID: 1}
}

func (f *fakeEventRepo) add(e *domain.Event) *domain.Event {
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	cp := *e
	f.byID[e.ID] = &cp
	return e
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.add(e)
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEventRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeEventRepo) Update(ctx context.Context, e *domain.Event) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[e.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *e
	f.byID[e.ID] = &cp
	return nil
}

func (f *fakeEventRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	if f.getErr != nil {
		return false, f.getErr
	}
	_, ok := f.byID[id]
	return ok, nil
}

func (f *fakeEventRepo) List(ctx context.Context, p domain.PaginationParams) ([]*domain.Event, int, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	out := make([]*domain.Event, 0, len(f.byID))
	for _, e := range f.byID {
		cp := *e
		out = append(out, &cp)
	}
	return out, len(f.byID), nil
}

func (f *fakeEventRepo) ListUpcoming(ctx context.Context, now time.Time, p domain.PaginationParams) ([]*domain.Event, int, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	out := make([]*domain.Event, 0)
	for _, e := range f.byID {
		if e.StartTime.After(now) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (f *fakeEventRepo) ListActiveEndedBefore(ctx context.Context, now time.Time) ([]*domain.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*domain.Event, 0)
	for _, e := range f.byID {
		if e.Status == domain.StatusActive && e.EndTime.Before(now) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakeSubscriptionRepo is an in-memory SubscriptionRepository.
type fakeSubscriptionRepo struct {
	subs      []*domain.Subscription
	nextID    int
	createErr error
	listErr   error
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{nextID: 1}
}

func (f *fakeSubscriptionRepo) Create(ctx context.Context, s *domain.Subscription) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.subs {
		if existing.EventID == s.EventID && existing.ParticipantEmail == s.ParticipantEmail {
			return domain.ErrAlreadySubscribed
		}
	}
	s.ID = fmt.Sprintf("sub-%d", f.nextID)
	f.nextID++
	cp := *s
	f.subs = append(f.subs, &cp)
	return nil
}

func (f *fakeSubscriptionRepo) GetByEventAndEmail(ctx context.Context, eventID, email string) (*domain.Subscription, error) {
	for _, s := range f.subs {
		if s.EventID == eventID && s.ParticipantEmail == email {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSubscriptionRepo) ListByEvent(ctx context.Context, eventID string) ([]*domain.Subscription, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*domain.Subscription, 0)
	for _, s := range f.subs {
		if s.EventID == eventID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionRepo) ListByEventPaged(ctx context.Context, eventID string, p domain.PaginationParams) ([]*domain.Subscription, int, error) {
	subs, err := f.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, 0, err
	}
	return subs, len(subs), nil
}

// fakeUnitOfWork snapshots the fakes before the function runs and restores
// them when it fails, so tests observe transactional behavior.
type fakeUnitOfWork struct {
	events *fakeEventRepo
	subs   *fakeSubscriptionRepo
}

func (u *fakeUnitOfWork) Execute(ctx context.Context, fn func(domain.TxRepositories) error) error {
	eventSnap := make(map[string]*domain.Event, len(u.events.byID))
	for id, e := range u.events.byID {
		cp := *e
		eventSnap[id] = &cp
	}
	subSnap := make([]*domain.Subscription, len(u.subs.subs))
	for i, s := range u.subs.subs {
		cp := *s
		subSnap[i] = &cp
	}

	if err := fn(&fakeTxRepositories{u: u}); err != nil {
		u.events.byID = eventSnap
		u.subs.subs = subSnap
		return err
	}
	return nil
}

type fakeTxRepositories struct {
	u *fakeUnitOfWork
}

func (r *fakeTxRepositories) Events() domain.EventRepository                { return r.u.events }
func (r *fakeTxRepositories) Subscriptions() domain.SubscriptionRepository { return r.u.subs }

// fakeNotifier records notification calls and can be made to fail.
type fakeNotifier struct {
	cancellations []string
	confirmations []string
	err           error
}

func (f *fakeNotifier) NotifyCancellation(ctx context.Context, event *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	f.cancellations = append(f.cancellations, event.ID)
	return nil
}

func (f *fakeNotifier) SendRegistrationConfirmation(ctx context.Context, event *domain.Event, email string) error {
	if f.err != nil {
		return f.err
	}
	f.confirmations = append(f.confirmations, email)
	return nil
}

type serviceFixture struct {
	svc      domain.EventService
	events   *fakeEventRepo
	subs     *fakeSubscriptionRepo
	notifier *fakeNotifier
}

func newServiceFixture() *serviceFixture {
	events := newFakeEventRepo()
	subs := newFakeSubscriptionRepo()
	notifier := &fakeNotifier{}
	uow := &fakeUnitOfWork{events: events, subs: subs}
	svc := NewEventService(uow, events, subs, notifier, testLogger(),
		testMinDuration, testTimeout, testNotifyTimeout)
	return &serviceFixture{svc: svc, events: events, subs: subs, notifier: notifier}
}

func validEventData() domain.NewEventData {
	start := time.Now().Add(48 * time.Hour)
	return domain.NewEventData{
		Title:           "Go Meetup",
		Description:     "An evening of talks about Go.",
		StartTime:       start,
		EndTime:         start.Add(2 * time.Hour),
		MaxParticipants: 50,
		EventURL:        "https://meet.example.com/go",
		Remote:          true,
	}
}

// seedEvent stores an active remote event and returns the persisted copy.
func seedEvent(t *testing.T, f *serviceFixture) *domain.Event {
	t.Helper()
	event, err := f.svc.CreateEvent(context.Background(), validEventData())
	require.NoError(t, err)
	return event
}

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newServiceFixture()
		event, err := f.svc.CreateEvent(ctx, validEventData())
		require.NoError(t, err)
		require.NotEmpty(t, event.ID)
		assert.Equal(t, domain.StatusActive, event.Status)
		_, ok := f.events.byID[event.ID]
		assert.True(t, ok)
	})

	t.Run("validation failure does not persist", func(t *testing.T) {
		f := newServiceFixture()
		data := validEventData()
		data.Title = "x"
		_, err := f.svc.CreateEvent(ctx, data)
		require.ErrorIs(t, err, domain.ErrInvalidArgument)
		assert.Empty(t, f.events.byID)
	})

	t.Run("repo error", func(t *testing.T) {
		f := newServiceFixture()
		f.events.createErr = errors.New("db error")
		_, err := f.svc.CreateEvent(ctx, validEventData())
		require.Error(t, err)
	})
}

func TestEventService_GetEventDetails(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newServiceFixture()
		seeded := seedEvent(t, f)
		got, err := f.svc.GetEventDetails(ctx, seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, got.ID)
	})

	t.Run("not found", func(t *testing.T) {
		f := newServiceFixture()
		_, err := f.svc.GetEventDetails(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEventService_ListUpcomingEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("includes cancelled events with a future start", func(t *testing.T) {
		f := newServiceFixture()
		seeded := seedEvent(t, f)
		cancelled := seedEvent(t, f)
		require.NoError(t, f.svc.CancelEvent(ctx, cancelled.ID))

		events, total, err := f.svc.ListUpcomingEvents(ctx, domain.PaginationParams{Page: 1, PageSize: 20})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		ids := make([]string, 0, len(events))
		for _, e := range events {
			ids = append(ids, e.ID)
		}
		assert.ElementsMatch(t, []string{seeded.ID, cancelled.ID}, ids)
	})

	t.Run("excludes events that already started", func(t *testing.T) {
		f := newServiceFixture()
		seeded := seedEvent(t, f)
		started := f.events.byID[seeded.ID]
		started.StartTime = time.Now().Add(-time.Hour)

		events, total, err := f.svc.ListUpcomingEvents(ctx, domain.PaginationParams{Page: 1, PageSize: 20})
		require.NoError(t, err)
		assert.Equal(t, 0, total)
		assert.Empty(t, events)
	})
}

func TestEventService_CancelEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels and notifies", func(t *testing.T) {
		f := newServiceFixture()
		seeded := seedEvent(t, f)

		require.NoError(t, f.svc.CancelEvent(ctx, seeded.ID))
		assert.Equal(t, domain.StatusCancelled, f.events.byID[seeded.ID].Status)
		assert.Equal(t, []string{seeded.ID}, f.notifier.cancellations)
	})

	t.Run("already ended event stays untouched", func(t *testing.T) {
		f := newServiceFixture()
		seeded := seedEvent(t, f)
		stored := f.events.byID[seeded.ID]
		stored.StartTime = time.Now().Add(-3 * time.Hour)
		stored.EndTime = time.Now().Add(-2 * time.Hour)

		err := f.svc.CancelEvent(ctx, seeded.ID)
		require.ErrorIs(t, err, domain.ErrIllegalState)
		assert.Equal(t, domain.StatusActive, f.events.byID[seeded.ID].Status)
		assert.Empty(t, f.notifier.cancellations)
	})

	t.Run("not found", func(t *testing.T) {
		f := newServiceFixture()
		require.ErrorIs(t, f.svc.CancelEvent(ctx, "missing"), domain.ErrNotFound)
	})

	t.Run("notification failure does not fail the cancellation", func(t *testing.T) {
		f := newServiceFixture()
		seeded := seedEvent(t, f)
		f.notifier.err = errors.New("smtp down")

		require.NoError(t, f.svc.CancelEvent(ctx, seeded.ID))
		assert.Equal(t, domain.StatusCancelled, f.events.byID[seeded.ID].Status)
	})
}

func TestEventService_UpdateEvent(t *testing.T) {
	ctx := context.Background()
	strPtr := func(s string) *string { return &s }
	intPtr := func(i int) *int { return &i }

	t.Run("success", func(t *testing.T) {
		f := newServiceFixture()
		seeded := seedEvent(t, f)

		updated, err := f.svc.UpdateEvent(ctx, seeded.ID, domain.EventUpdateData{
			Title: strPtr("GopherCon Warmup"),
		})
		require.NoError(t, err)
		assert.Equal(t, "GopherCon Warmup", updated.Title)
		assert.Equal(t, "GopherCon Warmup", f.events.byID[seeded.ID].Title)
	})

	t.Run("validation failure leaves store unchanged", func(t *testing.T) {
		f := newServiceFixture()
		seeded := seedEvent(t, f)

		_, err := f.svc.UpdateEvent(ctx, seeded.ID, domain.EventUpdateData{
			MaxParticipants: intPtr(-5),
		})
		require.ErrorIs(t, err, domain.ErrInvalidArgument)
		assert.Equal(t, 50, f.events.byID[seeded.ID].MaxParticipants)
	})

	t.Run("not found", func(t *testing.T) {
		f := newServiceFixture()
		_, err := f.svc.UpdateEvent(ctx, "missing", domain.EventUpdateData{})
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEventService_RegisterParticipant(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newServiceFixture()
		seeded := seedEvent(t, f)

		sub, err := f.svc.RegisterParticipant(ctx, seeded.ID, "gopher@example.com")
		require.NoError(t, err)
		require.NotEmpty(t, sub.ID)
		assert.Equal(t, seeded.ID, sub.EventID)
		assert.Equal(t, 1, f.events.byID[seeded.ID].RegisteredParticipants)
		assert.Len(t, f.subs.subs, 1)
		assert.Equal(t, []string{"gopher@example.com"}, f.notifier.confirmations)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		f := newServiceFixture()
		seeded := seedEvent(t, f)

		_, err := f.svc.RegisterParticipant(ctx, seeded.ID, "gopher@example.com")
		require.NoError(t, err)
		_, err = f.svc.RegisterParticipant(ctx, seeded.ID, "gopher@example.com")
		require.ErrorIs(t, err, domain.ErrAlreadySubscribed)
		assert.Equal(t, 1, f.events.byID[seeded.ID].RegisteredParticipants)
		assert.Len(t, f.subs.subs, 1)
	})

	t.Run("event full", func(t *testing.T) {
		f := newServiceFixture()
		seeded := seedEvent(t, f)
		f.events.byID[seeded.ID].MaxParticipants = 1

		_, err := f.svc.RegisterParticipant(ctx, seeded.ID, "first@example.com")
		require.NoError(t, err)
		_, err = f.svc.RegisterParticipant(ctx, seeded.ID, "second@example.com")
		require.ErrorIs(t, err, domain.ErrEventFull)
		assert.Equal(t, 1, f.events.byID[seeded.ID].RegisteredParticipants)
		assert.Len(t, f.subs.subs, 1)
	})

	t.Run("cancelled event", func(t *testing.T) {
		f := newServiceFixture()
		seeded := seedEvent(t, f)
		require.NoError(t, f.svc.CancelEvent(ctx, seeded.ID))

		_, err := f.svc.RegisterParticipant(ctx, seeded.ID, "gopher@example.com")
		require.ErrorIs(t, err, domain.ErrIllegalState)
	})

	t.Run("not found", func(t *testing.T) {
		f := newServiceFixture()
		_, err := f.svc.RegisterParticipant(ctx, "missing", "gopher@example.com")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("subscription create failure rolls back the counter", func(t *testing.T) {
		f := newServiceFixture()
		seeded := seedEvent(t, f)
		f.subs.createErr = errors.New("db error")

		_, err := f.svc.RegisterParticipant(ctx, seeded.ID, "gopher@example.com")
		require.Error(t, err)
		assert.Equal(t, 0, f.events.byID[seeded.ID].RegisteredParticipants)
	})

	t.Run("notification failure does not fail the registration", func(t *testing.T) {
		f := newServiceFixture()
		seeded := seedEvent(t, f)
		f.notifier.err = errors.New("smtp down")

		_, err := f.svc.RegisterParticipant(ctx, seeded.ID, "gopher@example.com")
		require.NoError(t, err)
		assert.Equal(t, 1, f.events.byID[seeded.ID].RegisteredParticipants)
	})
}

func TestEventService_ListRegisteredParticipants(t *testing.T) {
	ctx := context.Background()
	p := domain.PaginationParams{Page: 1, PageSize: 20}

	t.Run("success", func(t *testing.T) {
		f := newServiceFixture()
		seeded := seedEvent(t, f)
		_, err := f.svc.RegisterParticipant(ctx, seeded.ID, "a@example.com")
		require.NoError(t, err)
		_, err = f.svc.RegisterParticipant(ctx, seeded.ID, "b@example.com")
		require.NoError(t, err)

		subs, total, err := f.svc.ListRegisteredParticipants(ctx, seeded.ID, p)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, subs, 2)
	})

	t.Run("event not found", func(t *testing.T) {
		f := newServiceFixture()
		_, _, err := f.svc.ListRegisteredParticipants(ctx, "missing", p)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}
