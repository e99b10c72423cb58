package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"eventlifecycle/internal/domain"
)

var subRows = []string{"id", "event_id", "participant_email", "created_at"}

func TestSubscriptionRepository_Create(t *testing.T) {
	ctx := context.Background()

	newSub := func() *domain.Subscription {
		return &domain.Subscription{
			EventID:          "ev-1",
			ParticipantEmail: "gopher@example.com",
			CreatedAt:        repoNow,
		}
	}

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`INSERT INTO subscriptions`).
			WithArgs(sqlmock.AnyArg(), "ev-1", "gopher@example.com", repoNow).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("sub-uuid-1"))

		repo := NewSubscriptionRepository(db)
		sub := newSub()
		require.NoError(t, repo.Create(ctx, sub))
		require.Equal(t, "sub-uuid-1", sub.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to ErrAlreadySubscribed", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`INSERT INTO subscriptions`).
			WillReturnError(&pq.Error{Code: "23505"})

		repo := NewSubscriptionRepository(db)
		require.ErrorIs(t, repo.Create(ctx, newSub()), domain.ErrAlreadySubscribed)
	})

	t.Run("other db error passes through", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`INSERT INTO subscriptions`).
			WillReturnError(sql.ErrConnDone)

		repo := NewSubscriptionRepository(db)
		err = repo.Create(ctx, newSub())
		require.Error(t, err)
		require.NotErrorIs(t, err, domain.ErrAlreadySubscribed)
	})
}

func TestSubscriptionRepository_GetByEventAndEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT(.|\n)*FROM subscriptions(.|\n)*event_id = \$1 AND participant_email = \$2`).
			WithArgs("ev-1", "gopher@example.com").
			WillReturnRows(sqlmock.NewRows(subRows).
				AddRow("sub-1", "ev-1", "gopher@example.com", repoNow))

		repo := NewSubscriptionRepository(db)
		sub, err := repo.GetByEventAndEmail(ctx, "ev-1", "gopher@example.com")
		require.NoError(t, err)
		require.Equal(t, "sub-1", sub.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT(.|\n)*FROM subscriptions`).
			WillReturnError(sql.ErrNoRows)

		repo := NewSubscriptionRepository(db)
		_, err = repo.GetByEventAndEmail(ctx, "ev-1", "missing@example.com")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestSubscriptionRepository_ListByEventPaged(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM subscriptions`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT(.|\n)*ORDER BY created_at ASC, id ASC(.|\n)*LIMIT \$2 OFFSET \$3`).
		WithArgs("ev-1", 20, 0).
		WillReturnRows(sqlmock.NewRows(subRows).
			AddRow("sub-1", "ev-1", "a@example.com", repoNow).
			AddRow("sub-2", "ev-1", "b@example.com", repoNow.Add(time.Minute)))

	repo := NewSubscriptionRepository(db)
	subs, total, err := repo.ListByEventPaged(ctx, "ev-1", domain.PaginationParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, subs, 2)
	require.Equal(t, "a@example.com", subs[0].ParticipantEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}
