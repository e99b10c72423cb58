package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventlifecycle/internal/domain"
)

var schedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeEventRepo struct {
	byID      map[string]*domain.Event
	listErr   error
	updateErr map[string]error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byID: make(map[string]*domain.Event), updateErr: make(map[string]error)}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error { return nil }

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
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
	if err := f.updateErr[e.ID]; err != nil {
		return err
	}
	cp := *e
	f.byID[e.ID] = &cp
	return nil
}

func (f *fakeEventRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, ok := f.byID[id]
	return ok, nil
}

func (f *fakeEventRepo) List(ctx context.Context, p domain.PaginationParams) ([]*domain.Event, int, error) {
	return nil, 0, nil
}

func (f *fakeEventRepo) ListUpcoming(ctx context.Context, now time.Time, p domain.PaginationParams) ([]*domain.Event, int, error) {
	return nil, 0, nil
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

type fakeUnitOfWork struct {
	repo *fakeEventRepo
}

func (u *fakeUnitOfWork) Execute(ctx context.Context, fn func(domain.TxRepositories) error) error {
	return fn(&fakeTxRepositories{repo: u.repo})
}

type fakeTxRepositories struct {
	repo *fakeEventRepo
}

func (r *fakeTxRepositories) Events() domain.EventRepository                { return r.repo }
func (r *fakeTxRepositories) Subscriptions() domain.SubscriptionRepository { return nil }

func seedEvent(repo *fakeEventRepo, id string, status domain.EventStatus, end time.Time) {
	repo.byID[id] = &domain.Event{
		ID:              id,
		Title:           "Go Meetup",
		Description:     "An evening of talks about Go.",
		StartTime:       end.Add(-2 * time.Hour),
		EndTime:         end,
		MaxParticipants: 50,
		Status:          status,
	}
}

func newUpdater(repo *fakeEventRepo) *StatusUpdater {
	s := NewStatusUpdater(&fakeUnitOfWork{repo: repo}, repo, slog.New(slog.DiscardHandler), time.Hour)
	s.now = func() time.Time { return schedNow }
	return s
}

func TestStatusUpdater_RunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("finishes ended active events only", func(t *testing.T) {
		repo := newFakeEventRepo()
		seedEvent(repo, "ended-1", domain.StatusActive, schedNow.Add(-time.Hour))
		seedEvent(repo, "ended-2", domain.StatusActive, schedNow.Add(-time.Minute))
		seedEvent(repo, "running", domain.StatusActive, schedNow.Add(time.Hour))
		seedEvent(repo, "cancelled", domain.StatusCancelled, schedNow.Add(-time.Hour))

		newUpdater(repo).runOnce(ctx)

		assert.Equal(t, domain.StatusFinished, repo.byID["ended-1"].Status)
		assert.Equal(t, domain.StatusFinished, repo.byID["ended-2"].Status)
		assert.Equal(t, domain.StatusActive, repo.byID["running"].Status)
		assert.Equal(t, domain.StatusCancelled, repo.byID["cancelled"].Status)
	})

	t.Run("one failing event does not block the rest", func(t *testing.T) {
		repo := newFakeEventRepo()
		seedEvent(repo, "bad", domain.StatusActive, schedNow.Add(-time.Hour))
		seedEvent(repo, "good", domain.StatusActive, schedNow.Add(-time.Hour))
		repo.updateErr["bad"] = errors.New("db error")

		newUpdater(repo).runOnce(ctx)

		assert.Equal(t, domain.StatusActive, repo.byID["bad"].Status)
		assert.Equal(t, domain.StatusFinished, repo.byID["good"].Status)
	})

	t.Run("event cancelled between listing and locking is skipped and logged", func(t *testing.T) {
		// The reload under lock sees the cancellation that landed after the
		// listing pass, so the transition is a no-op rather than an error.
		repo := newFakeEventRepo()
		seedEvent(repo, "ev-1", domain.StatusCancelled, schedNow.Add(-time.Hour))

		var buf bytes.Buffer
		s := NewStatusUpdater(&fakeUnitOfWork{repo: repo}, repo,
			slog.New(slog.NewTextHandler(&buf, nil)), time.Hour)
		s.now = func() time.Time { return schedNow }

		require.NoError(t, s.finishEvent(ctx, "ev-1"))
		assert.Equal(t, domain.StatusCancelled, repo.byID["ev-1"].Status)
		assert.Contains(t, buf.String(), "skipping event no longer active")
		assert.Contains(t, buf.String(), "ev-1")
	})

	t.Run("event deleted between listing and locking is skipped", func(t *testing.T) {
		repo := newFakeEventRepo()
		seedEvent(repo, "gone", domain.StatusActive, schedNow.Add(-time.Hour))
		seedEvent(repo, "good", domain.StatusActive, schedNow.Add(-time.Hour))

		s := newUpdater(repo)
		require.NoError(t, s.finishEvent(ctx, "missing"))
		s.runOnce(ctx)
		assert.Equal(t, domain.StatusFinished, repo.byID["good"].Status)
	})

	t.Run("list failure aborts the pass quietly", func(t *testing.T) {
		repo := newFakeEventRepo()
		seedEvent(repo, "ended", domain.StatusActive, schedNow.Add(-time.Hour))
		repo.listErr = errors.New("db error")

		newUpdater(repo).runOnce(ctx)
		assert.Equal(t, domain.StatusActive, repo.byID["ended"].Status)
	})
}

func TestStatusUpdater_RunStopsOnCancel(t *testing.T) {
	repo := newFakeEventRepo()
	s := newUpdater(repo)
	s.interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("status updater did not stop after context cancellation")
	}
}
