package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"eventlifecycle/internal/domain"
)

// dbtx is the subset of *sql.DB and *sql.Tx the repositories need, so the
// same repository code runs standalone and inside a unit of work.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type eventRepository struct {
	db dbtx
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `
	id, title, description, start_time, end_time,
	max_participants, registered_participants,
	image_url, event_url, location, remote, status,
	created_at, updated_at
`

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (
			id, title, description, start_time, end_time,
			max_participants, registered_participants,
			image_url, event_url, location, remote, status,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	id := uuid.NewString()
	return r.db.QueryRowContext(ctx, query,
		id, e.Title, e.Description, e.StartTime, e.EndTime,
		e.MaxParticipants, e.RegisteredParticipants,
		nullString(e.ImageURL), nullString(e.EventURL), nullString(e.Location),
		e.Remote, e.Status, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *eventRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
		FOR UPDATE
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET title = $2,
			description = $3,
			start_time = $4,
			end_time = $5,
			max_participants = $6,
			registered_participants = $7,
			image_url = $8,
			event_url = $9,
			location = $10,
			remote = $11,
			status = $12,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		e.ID, e.Title, e.Description, e.StartTime, e.EndTime,
		e.MaxParticipants, e.RegisteredParticipants,
		nullString(e.ImageURL), nullString(e.EventURL), nullString(e.Location),
		e.Remote, e.Status,
	).Scan(&e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func (r *eventRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *eventRepository) List(ctx context.Context, p domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + eventColumns + `
		FROM events
		ORDER BY start_time ASC, id ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, p.PageSize, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	events, err := r.scanAll(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) ListUpcoming(ctx context.Context, now time.Time, p domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM events
		WHERE start_time > $1
	`
	if err := r.db.QueryRowContext(ctx, countQuery, now).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE start_time > $1
		ORDER BY start_time ASC, id ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, now, p.PageSize, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	events, err := r.scanAll(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) ListActiveEndedBefore(ctx context.Context, now time.Time) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE status = $1 AND end_time < $2
		ORDER BY end_time ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, domain.StatusActive, now)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

func (r *eventRepository) scanOne(row *sql.Row) (*domain.Event, error) {
	e := &domain.Event{}
	var imageURL, eventURL, location sql.NullString
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.StartTime, &e.EndTime,
		&e.MaxParticipants, &e.RegisteredParticipants,
		&imageURL, &eventURL, &location, &e.Remote, &e.Status,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	e.ImageURL = imageURL.String
	e.EventURL = eventURL.String
	e.Location = location.String
	return e, nil
}

func (r *eventRepository) scanAll(rows *sql.Rows) ([]*domain.Event, error) {
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e := &domain.Event{}
		var imageURL, eventURL, location sql.NullString
		if err := rows.Scan(
			&e.ID, &e.Title, &e.Description, &e.StartTime, &e.EndTime,
			&e.MaxParticipants, &e.RegisteredParticipants,
			&imageURL, &eventURL, &location, &e.Remote, &e.Status,
			&e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		e.ImageURL = imageURL.String
		e.EventURL = eventURL.String
		e.Location = location.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
