package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"banking-ledger/internal/domain"
	"banking-ledger/internal/validation"
)

const DefaultPageLimit = 20

// TransactionService answers read-only questions about the ledger. Reads are
// not linearized with in-flight mutations.
type TransactionService struct {
	accountRepo     domain.AccountRepository
	transactionRepo domain.TransactionRepository
	logger          *slog.Logger
}

func NewTransactionService(
	accountRepo domain.AccountRepository,
	transactionRepo domain.TransactionRepository,
	logger *slog.Logger,
) *TransactionService {
	return &TransactionService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

func (s *TransactionService) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	if err := validation.Collect(validation.ID("transaction_id", id)); err != nil {
		return nil, err
	}
	return s.transactionRepo.GetTransactionByID(ctx, id)
}

// FindByAccount returns one page of the account's history, newest first.
// Zero page or limit fall back to the defaults.
func (s *TransactionService) FindByAccount(ctx context.Context, accountID uuid.UUID, page domain.Page) (*domain.TransactionPage, error) {
	if page.Page == 0 {
		page.Page = 1
	}
	if page.Limit == 0 {
		page.Limit = DefaultPageLimit
	}
	if err := validation.Collect(
		validation.ID("account_id", accountID),
		validation.Pagination(page),
	); err != nil {
		return nil, err
	}
	if err := s.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}

	items, total, err := s.transactionRepo.ListByAccount(ctx, accountID, page)
	if err != nil {
		return nil, err
	}
	return domain.NewTransactionPage(items, total, page), nil
}

func (s *TransactionService) FindByAccountAndType(ctx context.Context, accountID uuid.UUID, txType domain.TransactionType) ([]*domain.Transaction, error) {
	if err := validation.Collect(
		validation.ID("account_id", accountID),
		validation.TransactionType("type", txType),
	); err != nil {
		return nil, err
	}
	if err := s.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return nonNil(s.transactionRepo.ListByAccountAndType(ctx, accountID, txType))
}

// FindBetween returns both legs of every transfer between the two accounts.
func (s *TransactionService) FindBetween(ctx context.Context, accountID1, accountID2 uuid.UUID) ([]*domain.Transaction, error) {
	if err := validation.Collect(
		validation.ID("account_id", accountID1),
		validation.ID("other_account_id", accountID2),
	); err != nil {
		return nil, err
	}
	if err := s.requireAccount(ctx, accountID1); err != nil {
		return nil, err
	}
	if err := s.requireAccount(ctx, accountID2); err != nil {
		return nil, err
	}
	return nonNil(s.transactionRepo.ListBetweenAccounts(ctx, accountID1, accountID2))
}

func (s *TransactionService) GetAccountStats(ctx context.Context, accountID uuid.UUID) (*domain.AccountStats, error) {
	if err := validation.Collect(validation.ID("account_id", accountID)); err != nil {
		return nil, err
	}
	if err := s.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}

	sums, count, err := s.transactionRepo.SumByType(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &domain.AccountStats{
		TotalDeposits:       sumOf(sums, domain.TransactionTypeDeposit),
		TotalWithdrawals:    sumOf(sums, domain.TransactionTypeWithdraw),
		TotalTransfersOut:   sumOf(sums, domain.TransactionTypeTransferOut),
		TotalTransfersIn:    sumOf(sums, domain.TransactionTypeTransferIn),
		TotalInitialBalance: sumOf(sums, domain.TransactionTypeInitialBalance),
		TransactionCount:    count,
	}, nil
}

func (s *TransactionService) TotalByType(ctx context.Context, accountID uuid.UUID, txType domain.TransactionType) (decimal.Decimal, error) {
	if err := validation.Collect(
		validation.ID("account_id", accountID),
		validation.TransactionType("type", txType),
	); err != nil {
		return decimal.Zero, err
	}
	if err := s.requireAccount(ctx, accountID); err != nil {
		return decimal.Zero, err
	}
	sums, _, err := s.transactionRepo.SumByType(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return sumOf(sums, txType), nil
}

type Verification struct {
	AccountID     uuid.UUID       `json:"account_id"`
	Balance       decimal.Decimal `json:"balance"`
	LedgerBalance decimal.Decimal `json:"ledger_balance"`
	EntryCount    int             `json:"entry_count"`
	Consistent    bool            `json:"consistent"`
	Problems      []string        `json:"problems,omitempty"`
}

// VerifyAccount replays the account's ledger oldest first and checks that
// every entry is well formed, that each entry starts where the previous one
// ended, and that the last entry ends at the current balance.
func (s *TransactionService) VerifyAccount(ctx context.Context, accountID uuid.UUID) (*Verification, error) {
	if err := validation.Collect(validation.ID("account_id", accountID)); err != nil {
		return nil, err
	}
	account, err := s.accountRepo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	entries, err := s.transactionRepo.ListAllByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	v := &Verification{
		AccountID:     accountID,
		Balance:       account.Balance,
		LedgerBalance: decimal.Zero,
		EntryCount:    len(entries),
	}
	for _, e := range entries {
		if !e.Consistent() {
			v.Problems = append(v.Problems, fmt.Sprintf("entry %s is malformed", e.ID))
		}
		if !withinTolerance(e.BalanceBefore, v.LedgerBalance) {
			v.Problems = append(v.Problems, fmt.Sprintf("entry %s starts at %s, expected %s",
				e.ID, e.BalanceBefore.StringFixed(2), v.LedgerBalance.StringFixed(2)))
		}
		v.LedgerBalance = e.BalanceAfter
	}
	if !withinTolerance(v.LedgerBalance, account.Balance) {
		v.Problems = append(v.Problems, fmt.Sprintf("ledger ends at %s, account balance is %s",
			v.LedgerBalance.StringFixed(2), account.Balance.StringFixed(2)))
	}
	v.Consistent = len(v.Problems) == 0

	if !v.Consistent {
		s.logger.Error("Ledger verification failed", "account_id", accountID, "problems", v.Problems)
	}
	return v, nil
}

// CheckLatest compares only the newest ledger entry with the account balance.
// It does not replay the chain, so EntryCount is 0 or 1.
func (s *TransactionService) CheckLatest(ctx context.Context, accountID uuid.UUID) (*Verification, error) {
	if err := validation.Collect(validation.ID("account_id", accountID)); err != nil {
		return nil, err
	}
	account, err := s.accountRepo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	latest, err := s.transactionRepo.LatestByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	v := &Verification{
		AccountID:     accountID,
		Balance:       account.Balance,
		LedgerBalance: decimal.Zero,
	}
	if latest != nil {
		v.LedgerBalance = latest.BalanceAfter
		v.EntryCount = 1
		if !latest.Consistent() {
			v.Problems = append(v.Problems, fmt.Sprintf("entry %s is malformed", latest.ID))
		}
	}
	if !withinTolerance(v.LedgerBalance, account.Balance) {
		v.Problems = append(v.Problems, fmt.Sprintf("ledger ends at %s, account balance is %s",
			v.LedgerBalance.StringFixed(2), account.Balance.StringFixed(2)))
	}
	v.Consistent = len(v.Problems) == 0

	if !v.Consistent {
		s.logger.Error("Ledger balance check failed", "account_id", accountID, "problems", v.Problems)
	}
	return v, nil
}

func (s *TransactionService) requireAccount(ctx context.Context, accountID uuid.UUID) error {
	_, err := s.accountRepo.GetAccount(ctx, accountID)
	return err
}

func sumOf(sums map[domain.TransactionType]decimal.Decimal, t domain.TransactionType) decimal.Decimal {
	if v, ok := sums[t]; ok {
		return v
	}
	return decimal.Zero
}

func withinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(domain.BalanceTolerance)
}

func nonNil(items []*domain.Transaction, err error) ([]*domain.Transaction, error) {
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.Transaction{}
	}
	return items, nil
}
