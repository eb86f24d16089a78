package domain

import (
	"context"

	"github.com/google/uuid"
)

// Store groups the repositories behind one transactional boundary.
type Store interface {
	Account() AccountRepository
	Transaction() TransactionRepository
	// WithTransaction runs fn against a Store bound to a single storage
	// transaction. All writes made through that Store commit together when
	// fn returns nil and are discarded otherwise.
	WithTransaction(ctx context.Context, fn func(Store) error) error
}

// SequenceGenerator issues strictly increasing numbers. Every call is a
// single increment-and-fetch against durable state.
type SequenceGenerator interface {
	Next(ctx context.Context) (int64, error)
}

// UserDirectory is the view this subsystem has of the external user service.
type UserDirectory interface {
	Exists(ctx context.Context, userID uuid.UUID) (bool, error)
	IsActive(ctx context.Context, userID uuid.UUID) (bool, error)
}

const (
	AccountNumberSequence = "accNumber"
	// AccountNumberStart is the counter value before the first issued number.
	AccountNumberStart int64 = 1000000
)
