package domain

import "context"

// TxRepositories exposes the repositories bound to one transaction.
type TxRepositories interface {
	Events() EventRepository
	Subscriptions() SubscriptionRepository
}

// UnitOfWork runs a function atomically against the backing store: either all
// repository calls made through the supplied TxRepositories are applied, or
// none are. Implementations must roll back when fn returns an error.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(repos TxRepositories) error) error
}
