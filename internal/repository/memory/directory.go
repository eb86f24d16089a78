package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"banking-ledger/internal/domain"
	"banking-ledger/internal/errors"
)

// Sequence is an in-process SequenceGenerator.
type Sequence struct {
	value int64
}

var _ domain.SequenceGenerator = (*Sequence)(nil)

// NewSequence returns a generator whose first issued number is start+1.
func NewSequence(start int64) *Sequence {
	return &Sequence{value: start}
}

func (s *Sequence) Next(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.ErrSequenceUnavailable.Wrap(err)
	}
	return atomic.AddInt64(&s.value, 1), nil
}

// Users is an in-process UserDirectory.
type Users struct {
	mu    sync.RWMutex
	users map[uuid.UUID]bool
}

var _ domain.UserDirectory = (*Users)(nil)

func NewUsers() *Users {
	return &Users{users: make(map[uuid.UUID]bool)}
}

// Set registers userID with the given active flag, replacing any previous state.
func (u *Users) Set(userID uuid.UUID, active bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.users[userID] = active
}

func (u *Users) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	_, ok := u.users[userID]
	return ok, nil
}

func (u *Users) IsActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	active, ok := u.users[userID]
	if !ok {
		return false, errors.ErrOwnerNotFound.WithField("owner_id", userID)
	}
	return active, nil
}
