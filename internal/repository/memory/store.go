// Package memory is an in-process implementation of the domain storage
// interfaces. A single mutex serializes every transaction; writes made by a
// failed transaction are rolled back from a snapshot taken at its start.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"banking-ledger/internal/domain"
)

type state struct {
	accounts map[uuid.UUID]domain.Account
	ledger   []domain.Transaction
	seq      int64
}

func (st *state) snapshot() *state {
	accounts := make(map[uuid.UUID]domain.Account, len(st.accounts))
	for id, a := range st.accounts {
		accounts[id] = a
	}
	return &state{
		accounts: accounts,
		ledger:   st.ledger[:len(st.ledger):len(st.ledger)],
		seq:      st.seq,
	}
}

func (st *state) restore(from *state) {
	st.accounts = from.accounts
	st.ledger = from.ledger
	st.seq = from.seq
}

// Op names a storage write that can be made to fail once via InjectFault.
type Op string

const (
	OpCredit            Op = "credit"
	OpDebit             Op = "debit"
	OpCreateAccount     Op = "create_account"
	OpCreateTransaction Op = "create_transaction"
	// OpCommit fails the commit of the outermost transaction, after fn ran.
	OpCommit            Op = "commit"
)

type Store struct {
	mu     *sync.Mutex
	st     *state
	faults *faults
	inTx   bool
}

var _ domain.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		mu:     &sync.Mutex{},
		st:     &state{accounts: make(map[uuid.UUID]domain.Account)},
		faults: &faults{pending: make(map[Op][]error)},
	}
}

func (s *Store) Account() domain.AccountRepository {
	return &accountRepository{store: s}
}

func (s *Store) Transaction() domain.TransactionRepository {
	return &transactionRepository{store: s}
}

func (s *Store) WithTransaction(ctx context.Context, fn func(domain.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.st.snapshot()
	txStore := &Store{mu: s.mu, st: s.st, faults: s.faults, inTx: true}

	committed := false
	defer func() {
		if !committed {
			s.st.restore(before)
		}
	}()

	if err := fn(txStore); err != nil {
		return err
	}
	// A cancelled caller gets a rollback, never a partial commit.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.faults.take(OpCommit); err != nil {
		return err
	}
	committed = true
	return nil
}

// InjectFault makes the next call to op fail with err. Faults queue per op.
func (s *Store) InjectFault(op Op, err error) {
	s.faults.mu.Lock()
	defer s.faults.mu.Unlock()
	s.faults.pending[op] = append(s.faults.pending[op], err)
}

// LedgerLen returns the number of committed ledger entries.
func (s *Store) LedgerLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.ledger)
}

func (s *Store) read(fn func(st *state)) {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	fn(s.st)
}

// write runs fn in its own transaction unless already inside one, so a
// failing fn never leaves a partial write behind.
func (s *Store) write(fn func(st *state) error) error {
	if s.inTx {
		return fn(s.st)
	}
	return s.WithTransaction(context.Background(), func(tx domain.Store) error {
		return fn(tx.(*Store).st)
	})
}

type faults struct {
	mu      sync.Mutex
	pending map[Op][]error
}

func (f *faults) take(op Op) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	queue := f.pending[op]
	if len(queue) == 0 {
		return nil
	}
	f.pending[op] = queue[1:]
	return queue[0]
}
