package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeSavings  AccountType = "savings"
	AccountTypeChecking AccountType = "checking"
)

func (t AccountType) Valid() bool {
	return t == AccountTypeSavings || t == AccountTypeChecking
}

// MaxBalance is the largest value a NUMERIC(20,2) balance or amount column
// holds. No single amount and no resulting balance may exceed it.
var MaxBalance = decimal.New(1, 18).Sub(decimal.New(1, -2))

type Account struct {
	ID            uuid.UUID       `json:"id"`
	AccountNumber int64           `json:"account_number"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	Type          AccountType     `json:"type"`
	Balance       decimal.Decimal `json:"balance"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// BalanceChange is the result of one atomic balance mutation. Before and
// After are read in the same statement that applied the change.
type BalanceChange struct {
	Account       *Account
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
}

// AccountRepository mutates balances only through conditional, single
// statement updates. None of its methods do a read followed by an
// unconditional write.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)
	// GetAccountForUpdate locks the row until the surrounding transaction ends.
	GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*Account, error)
	ListAccountsByOwner(ctx context.Context, ownerID uuid.UUID, includeInactive bool) ([]*Account, error)

	// Credit adds amount to an active account.
	Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*BalanceChange, error)
	// Debit subtracts amount from an active account whose balance covers it.
	Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*BalanceChange, error)

	// Deactivate flips an active account to inactive. With requireZeroBalance
	// the flip only happens when the balance is exactly zero.
	Deactivate(ctx context.Context, id uuid.UUID, requireZeroBalance bool) (*Account, error)
	Reactivate(ctx context.Context, id uuid.UUID) (*Account, error)
	DeactivateByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
	UpdateAccountType(ctx context.Context, id uuid.UUID, accountType AccountType) (*Account, error)
}
