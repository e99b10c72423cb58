package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"eventlifecycle/internal/domain"
)

type subscriptionRepository struct {
	db dbtx
}

func NewSubscriptionRepository(db *sql.DB) domain.SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, s *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, event_id, participant_email, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	id := uuid.NewString()
	err := r.db.QueryRowContext(ctx, query, id, s.EventID, s.ParticipantEmail, s.CreatedAt).Scan(&s.ID)
	if err != nil {
		var pqErr *pq.Error
		// unique_violation on (event_id, participant_email)
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrAlreadySubscribed
		}
		return err
	}
	return nil
}

func (r *subscriptionRepository) GetByEventAndEmail(ctx context.Context, eventID, participantEmail string) (*domain.Subscription, error) {
	query := `
		SELECT id, event_id, participant_email, created_at
		FROM subscriptions
		WHERE event_id = $1 AND participant_email = $2
	`
	s := &domain.Subscription{}
	err := r.db.QueryRowContext(ctx, query, eventID, participantEmail).Scan(
		&s.ID, &s.EventID, &s.ParticipantEmail, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *subscriptionRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.Subscription, error) {
	query := `
		SELECT id, event_id, participant_email, created_at
		FROM subscriptions
		WHERE event_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

func (r *subscriptionRepository) ListByEventPaged(ctx context.Context, eventID string, p domain.PaginationParams) ([]*domain.Subscription, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*) FROM subscriptions WHERE event_id = $1
	`
	if err := r.db.QueryRowContext(ctx, countQuery, eventID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT id, event_id, participant_email, created_at
		FROM subscriptions
		WHERE event_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, eventID, p.PageSize, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	subs, err := r.scanAll(rows)
	if err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

func (r *subscriptionRepository) scanAll(rows *sql.Rows) ([]*domain.Subscription, error) {
	defer rows.Close()
	subs := make([]*domain.Subscription, 0)
	for rows.Next() {
		s := &domain.Subscription{}
		if err := rows.Scan(&s.ID, &s.EventID, &s.ParticipantEmail, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return subs, nil
}
