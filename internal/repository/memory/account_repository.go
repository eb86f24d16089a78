package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"banking-ledger/internal/domain"
	"banking-ledger/internal/errors"
)

type accountRepository struct {
	store *Store
}

func (r *accountRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	return r.store.write(func(st *state) error {
		if err := r.store.faults.take(OpCreateAccount); err != nil {
			return err
		}
		if _, exists := st.accounts[account.ID]; exists {
			return errors.ErrDuplicateAccount.WithField("account_id", account.ID)
		}
		for _, a := range st.accounts {
			if a.AccountNumber == account.AccountNumber {
				return errors.ErrDuplicateAccount.WithField("account_number", account.AccountNumber)
			}
		}
		now := time.Now().UTC()
		account.CreatedAt = now
		account.UpdatedAt = now
		st.accounts[account.ID] = *account
		return nil
	})
}

func (r *accountRepository) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var out *domain.Account
	var err error
	r.store.read(func(st *state) {
		out, err = lookup(st, id)
	})
	return out, err
}

// GetAccountForUpdate is GetAccount: the store mutex already serializes
// every transaction.
func (r *accountRepository) GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.GetAccount(ctx, id)
}

func (r *accountRepository) ListAccountsByOwner(ctx context.Context, ownerID uuid.UUID, includeInactive bool) ([]*domain.Account, error) {
	var out []*domain.Account
	r.store.read(func(st *state) {
		for _, a := range st.accounts {
			if a.OwnerID != ownerID || (!a.IsActive && !includeInactive) {
				continue
			}
			cp := a
			out = append(out, &cp)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].AccountNumber < out[j].AccountNumber })
	return out, nil
}

func (r *accountRepository) Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.BalanceChange, error) {
	var change *domain.BalanceChange
	err := r.store.write(func(st *state) error {
		if err := r.store.faults.take(OpCredit); err != nil {
			return err
		}
		a, ok := st.accounts[id]
		if !ok {
			return errors.ErrAccountNotFound.WithField("account_id", id)
		}
		if !a.IsActive {
			return errors.ErrAccountInactive.WithField("account_id", id)
		}
		if a.Balance.Add(amount).GreaterThan(domain.MaxBalance) {
			return errors.ErrBalanceLimitExceeded.
				WithField("account_id", id).
				WithField("current_balance", a.Balance.StringFixed(2)).
				WithField("requested_amount", amount.StringFixed(2))
		}
		before := a.Balance
		a.Balance = a.Balance.Add(amount)
		a.UpdatedAt = time.Now().UTC()
		st.accounts[id] = a
		cp := a
		change = &domain.BalanceChange{Account: &cp, BalanceBefore: before, BalanceAfter: a.Balance}
		return nil
	})
	return change, err
}

func (r *accountRepository) Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.BalanceChange, error) {
	var change *domain.BalanceChange
	err := r.store.write(func(st *state) error {
		if err := r.store.faults.take(OpDebit); err != nil {
			return err
		}
		a, ok := st.accounts[id]
		if !ok {
			return errors.ErrAccountNotFound.WithField("account_id", id)
		}
		if !a.IsActive {
			return errors.ErrAccountInactive.WithField("account_id", id)
		}
		if a.Balance.LessThan(amount) {
			return errors.ErrInsufficientFunds.
				WithField("account_id", id).
				WithField("current_balance", a.Balance.StringFixed(2)).
				WithField("requested_amount", amount.StringFixed(2))
		}
		before := a.Balance
		a.Balance = a.Balance.Sub(amount)
		a.UpdatedAt = time.Now().UTC()
		st.accounts[id] = a
		cp := a
		change = &domain.BalanceChange{Account: &cp, BalanceBefore: before, BalanceAfter: a.Balance}
		return nil
	})
	return change, err
}

func (r *accountRepository) Deactivate(ctx context.Context, id uuid.UUID, requireZeroBalance bool) (*domain.Account, error) {
	var out *domain.Account
	err := r.store.write(func(st *state) error {
		a, ok := st.accounts[id]
		if !ok {
			return errors.ErrAccountNotFound.WithField("account_id", id)
		}
		if !a.IsActive {
			return errors.ErrAccountAlreadyInactive.WithField("account_id", id)
		}
		if requireZeroBalance && !a.Balance.IsZero() {
			return errors.ErrAccountHasBalance.
				WithField("account_id", id).
				WithField("balance", a.Balance.StringFixed(2))
		}
		a.IsActive = false
		a.UpdatedAt = time.Now().UTC()
		st.accounts[id] = a
		cp := a
		out = &cp
		return nil
	})
	return out, err
}

func (r *accountRepository) Reactivate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var out *domain.Account
	err := r.store.write(func(st *state) error {
		a, ok := st.accounts[id]
		if !ok {
			return errors.ErrAccountNotFound.WithField("account_id", id)
		}
		if a.IsActive {
			return errors.ErrAccountAlreadyActive.WithField("account_id", id)
		}
		a.IsActive = true
		a.UpdatedAt = time.Now().UTC()
		st.accounts[id] = a
		cp := a
		out = &cp
		return nil
	})
	return out, err
}

func (r *accountRepository) DeactivateByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var n int64
	err := r.store.write(func(st *state) error {
		now := time.Now().UTC()
		for id, a := range st.accounts {
			if a.OwnerID == ownerID && a.IsActive {
				a.IsActive = false
				a.UpdatedAt = now
				st.accounts[id] = a
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *accountRepository) UpdateAccountType(ctx context.Context, id uuid.UUID, accountType domain.AccountType) (*domain.Account, error) {
	var out *domain.Account
	err := r.store.write(func(st *state) error {
		a, ok := st.accounts[id]
		if !ok {
			return errors.ErrAccountNotFound.WithField("account_id", id)
		}
		a.Type = accountType
		a.UpdatedAt = time.Now().UTC()
		st.accounts[id] = a
		cp := a
		out = &cp
		return nil
	})
	return out, err
}

func lookup(st *state, id uuid.UUID) (*domain.Account, error) {
	a, ok := st.accounts[id]
	if !ok {
		return nil, errors.ErrAccountNotFound.WithField("account_id", id)
	}
	cp := a
	return &cp, nil
}
