package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType values are persisted verbatim and read by downstream consumers.
type TransactionType string

const (
	TransactionTypeDeposit        TransactionType = "deposit"
	TransactionTypeWithdraw       TransactionType = "withdraw"
	TransactionTypeTransferOut    TransactionType = "transfer_out"
	TransactionTypeTransferIn     TransactionType = "transfer_in"
	TransactionTypeInitialBalance TransactionType = "initial_balance"
)

var TransactionTypes = []TransactionType{
	TransactionTypeDeposit,
	TransactionTypeWithdraw,
	TransactionTypeTransferOut,
	TransactionTypeTransferIn,
	TransactionTypeInitialBalance,
}

func (t TransactionType) Valid() bool {
	for _, v := range TransactionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsCredit reports whether the entry increases the account balance.
func (t TransactionType) IsCredit() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeTransferIn || t == TransactionTypeInitialBalance
}

func (t TransactionType) IsTransfer() bool {
	return t == TransactionTypeTransferOut || t == TransactionTypeTransferIn
}

const (
	MaxDescriptionLength = 200
)

// BalanceTolerance is the largest accepted drift between a ledger entry's
// snapshot arithmetic and its recorded balance_after.
var BalanceTolerance = decimal.New(1, -2)

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID                   uuid.UUID       `json:"id"`
	AccountID            uuid.UUID       `json:"account_id"`
	Type                 TransactionType `json:"type"`
	Amount               decimal.Decimal `json:"amount"`
	Description          string          `json:"description,omitempty"`
	BalanceBefore        decimal.Decimal `json:"balance_before"`
	BalanceAfter         decimal.Decimal `json:"balance_after"`
	RelatedAccountID     *uuid.UUID      `json:"related_account_id,omitempty"`
	RelatedTransactionID *uuid.UUID      `json:"related_transaction_id,omitempty"`
	Seq                  int64           `json:"-"`
	CreatedAt            time.Time       `json:"created_at"`
}

// Consistent reports whether the entry satisfies the ledger invariants:
// positive amount, before/after arithmetic within BalanceTolerance, and
// counterpart references present exactly on transfer legs.
func (t *Transaction) Consistent() bool {
	if !t.Type.Valid() || !t.Amount.IsPositive() {
		return false
	}
	if len([]rune(t.Description)) > MaxDescriptionLength {
		return false
	}
	expected := t.BalanceBefore.Sub(t.Amount)
	if t.Type.IsCredit() {
		expected = t.BalanceBefore.Add(t.Amount)
	}
	if expected.Sub(t.BalanceAfter).Abs().GreaterThan(BalanceTolerance) {
		return false
	}
	hasRefs := t.RelatedAccountID != nil && t.RelatedTransactionID != nil
	if t.Type.IsTransfer() {
		return hasRefs
	}
	return t.RelatedAccountID == nil && t.RelatedTransactionID == nil
}

type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

type TransactionPage struct {
	Items       []*Transaction `json:"items"`
	Total       int64          `json:"total"`
	Page        int            `json:"page"`
	Limit       int            `json:"limit"`
	TotalPages  int            `json:"total_pages"`
	HasNextPage bool           `json:"has_next_page"`
	HasPrevPage bool           `json:"has_prev_page"`
}

func NewTransactionPage(items []*Transaction, total int64, p Page) *TransactionPage {
	totalPages := 0
	if p.Limit > 0 {
		totalPages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	if items == nil {
		items = []*Transaction{}
	}
	return &TransactionPage{
		Items:       items,
		Total:       total,
		Page:        p.Page,
		Limit:       p.Limit,
		TotalPages:  totalPages,
		HasNextPage: p.Page < totalPages,
		HasPrevPage: p.Page > 1,
	}
}

type AccountStats struct {
	TotalDeposits       decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals    decimal.Decimal `json:"total_withdrawals"`
	TotalTransfersOut   decimal.Decimal `json:"total_transfers_out"`
	TotalTransfersIn    decimal.Decimal `json:"total_transfers_in"`
	TotalInitialBalance decimal.Decimal `json:"total_initial_balance"`
	TransactionCount    int64           `json:"transaction_count"`
}

// TransactionRepository is append-only: there is no update or delete.
type TransactionRepository interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransactionByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	// ListByAccount returns entries newest first.
	ListByAccount(ctx context.Context, accountID uuid.UUID, page Page) ([]*Transaction, int64, error)
	ListByAccountAndType(ctx context.Context, accountID uuid.UUID, txType TransactionType) ([]*Transaction, error)
	ListBetweenAccounts(ctx context.Context, accountID1, accountID2 uuid.UUID) ([]*Transaction, error)
	// ListAllByAccount returns every entry oldest first.
	ListAllByAccount(ctx context.Context, accountID uuid.UUID) ([]*Transaction, error)
	LatestByAccount(ctx context.Context, accountID uuid.UUID) (*Transaction, error)
	SumByType(ctx context.Context, accountID uuid.UUID) (map[TransactionType]decimal.Decimal, int64, error)
}
