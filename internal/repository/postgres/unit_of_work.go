package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"eventlifecycle/internal/domain"
)

type unitOfWork struct {
	db *sql.DB
}

// NewUnitOfWork runs a function against transactional repositories. The
// transaction commits when the function returns nil and rolls back otherwise.
func NewUnitOfWork(db *sql.DB) domain.UnitOfWork {
	return &unitOfWork{db: db}
}

func (u *unitOfWork) Execute(ctx context.Context, fn func(domain.TxRepositories) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&txRepositories{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback tx: %v (original: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type txRepositories struct {
	tx *sql.Tx
}

func (r *txRepositories) Events() domain.EventRepository {
	return &eventRepository{db: r.tx}
}

func (r *txRepositories) Subscriptions() domain.SubscriptionRepository {
	return &subscriptionRepository{db: r.tx}
}
