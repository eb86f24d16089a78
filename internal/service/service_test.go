package service

import (
	"context"
	"database/sql/driver"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"banking-ledger/internal/domain"
	"banking-ledger/internal/errors"
	"banking-ledger/internal/repository"
	"banking-ledger/internal/repository/memory"
)

type ServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	store     *memory.Store
	users     *memory.Users
	accounts  *AccountService
	transfers *TransferService
	ledger    *TransactionService
	owner     uuid.UUID
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	policy := RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.users = memory.NewUsers()
	s.owner = uuid.New()
	s.users.Set(s.owner, true)

	s.accounts = NewAccountService(s.store, s.users, memory.NewSequence(1000000), policy, logger)
	s.transfers = NewTransferService(s.store, policy, logger)
	s.ledger = NewTransactionService(s.store.Account(), s.store.Transaction(), logger)
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func (s *ServiceTestSuite) newAccount(balance string) *domain.Account {
	account, err := s.accounts.CreateAccount(s.ctx, CreateAccountRequest{
		OwnerID:        s.owner,
		Type:           domain.AccountTypeChecking,
		InitialBalance: dec(balance),
	})
	s.Require().NoError(err)
	return account
}

func (s *ServiceTestSuite) assertBalance(id uuid.UUID, expected string) {
	account, err := s.accounts.GetAccount(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(expected, account.Balance.StringFixed(2), "balance of %s", id)
}

func (s *ServiceTestSuite) assertVerified(id uuid.UUID) {
	v, err := s.ledger.VerifyAccount(s.ctx, id)
	s.Require().NoError(err)
	s.True(v.Consistent, "ledger problems: %v", v.Problems)
}

func (s *ServiceTestSuite) TestCreateAccount() {
	account := s.newAccount("250.00")

	s.Equal(int64(1000001), account.AccountNumber)
	s.True(account.IsActive)
	s.Equal("250.00", account.Balance.StringFixed(2))

	entries, err := s.ledger.FindByAccountAndType(s.ctx, account.ID, domain.TransactionTypeInitialBalance)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.True(entries[0].BalanceBefore.IsZero())
	s.Equal("250.00", entries[0].BalanceAfter.StringFixed(2))
	s.Equal("Initial deposit", entries[0].Description)

	second := s.newAccount("0")
	s.Equal(int64(1000002), second.AccountNumber)
	s.Equal(1, s.store.LedgerLen())
}

func (s *ServiceTestSuite) TestCreateAccount_OwnerChecks() {
	_, err := s.accounts.CreateAccount(s.ctx, CreateAccountRequest{
		OwnerID: uuid.New(), Type: domain.AccountTypeSavings, InitialBalance: decimal.Zero,
	})
	s.True(errors.Is(err, errors.ErrOwnerNotFound))
	s.Equal(errors.KindNotFound, errors.KindOf(err))

	inactive := uuid.New()
	s.users.Set(inactive, false)
	_, err = s.accounts.CreateAccount(s.ctx, CreateAccountRequest{
		OwnerID: inactive, Type: domain.AccountTypeSavings, InitialBalance: decimal.Zero,
	})
	s.True(errors.Is(err, errors.ErrOwnerInactive))
	s.Equal(errors.KindBadRequest, errors.KindOf(err))
}

func (s *ServiceTestSuite) TestCreateAccount_InvalidInput() {
	_, err := s.accounts.CreateAccount(s.ctx, CreateAccountRequest{
		OwnerID: s.owner, Type: "brokerage", InitialBalance: dec("-1"),
	})
	s.Require().Error(err)
	s.Equal(errors.KindBadRequest, errors.KindOf(err))
	s.Equal(0, s.store.LedgerLen())
}

// Scenario A
func (s *ServiceTestSuite) TestDeposit() {
	account := s.newAccount("1000.00")

	result, err := s.accounts.Deposit(s.ctx, account.ID, dec("500.00"), "")
	s.Require().NoError(err)

	s.Equal("1500.00", result.Account.Balance.StringFixed(2))
	s.Equal(domain.TransactionTypeDeposit, result.Transaction.Type)
	s.Equal("1000.00", result.Transaction.BalanceBefore.StringFixed(2))
	s.Equal("1500.00", result.Transaction.BalanceAfter.StringFixed(2))
	s.Equal("Deposit", result.Transaction.Description)
	s.assertBalance(account.ID, "1500.00")
	s.assertVerified(account.ID)
}

// Scenario B
func (s *ServiceTestSuite) TestWithdraw_InsufficientFunds() {
	account := s.newAccount("50.00")
	before := s.store.LedgerLen()

	_, err := s.accounts.Withdraw(s.ctx, account.ID, dec("100.00"), "")
	s.Require().Error(err)
	s.True(errors.Is(err, errors.ErrInsufficientFunds))
	s.Equal(errors.KindBadRequest, errors.KindOf(err))

	appErr := errors.From(err)
	s.Equal("50.00", appErr.Fields["current_balance"])
	s.Equal("100.00", appErr.Fields["requested_amount"])

	s.assertBalance(account.ID, "50.00")
	s.Equal(before, s.store.LedgerLen())
}

func (s *ServiceTestSuite) TestWithdraw() {
	account := s.newAccount("80.00")

	result, err := s.accounts.Withdraw(s.ctx, account.ID, dec("30.50"), "rent")
	s.Require().NoError(err)
	s.Equal("49.50", result.Account.Balance.StringFixed(2))
	s.Equal(domain.TransactionTypeWithdraw, result.Transaction.Type)
	s.Equal("rent", result.Transaction.Description)
	s.assertVerified(account.ID)
}

func (s *ServiceTestSuite) TestMovement_InvalidAmounts() {
	account := s.newAccount("10.00")

	for _, amount := range []string{"0", "-5", "1.001"} {
		_, err := s.accounts.Deposit(s.ctx, account.ID, dec(amount), "")
		s.True(errors.Is(err, errors.ErrInvalidAmount), "amount %s", amount)
	}
	s.assertBalance(account.ID, "10.00")
}

func (s *ServiceTestSuite) TestMovement_AmountAboveColumnLimit() {
	account := s.newAccount("10.00")

	_, err := s.accounts.Deposit(s.ctx, account.ID, dec("1e30"), "")
	s.True(errors.Is(err, errors.ErrInvalidAmount))

	_, err = s.accounts.CreateAccount(s.ctx, CreateAccountRequest{
		OwnerID:        s.owner,
		Type:           domain.AccountTypeSavings,
		InitialBalance: dec("1e30"),
	})
	s.Equal(errors.KindBadRequest, errors.KindOf(err))

	s.assertBalance(account.ID, "10.00")
}

func (s *ServiceTestSuite) TestMovement_ResultingBalanceAboveLimit() {
	full := s.newAccount("999999999999999999.00")
	source := s.newAccount("5.00")
	before := s.store.LedgerLen()

	_, err := s.accounts.Deposit(s.ctx, full.ID, dec("1.00"), "")
	s.Require().Error(err)
	s.True(errors.Is(err, errors.ErrBalanceLimitExceeded))
	s.Equal(errors.KindBadRequest, errors.KindOf(err))

	_, err = s.transfers.Transfer(s.ctx, TransferRequest{FromAccountID: source.ID, ToAccountID: full.ID, Amount: dec("1.00")})
	s.True(errors.Is(err, errors.ErrBalanceLimitExceeded))

	s.assertBalance(full.ID, "999999999999999999.00")
	s.assertBalance(source.ID, "5.00")
	s.Equal(before, s.store.LedgerLen())

	_, err = s.accounts.Deposit(s.ctx, full.ID, dec("0.99"), "")
	s.Require().NoError(err)
	s.assertVerified(full.ID)
}

func (s *ServiceTestSuite) TestMovement_InactiveAccount() {
	account := s.newAccount("0")
	_, err := s.accounts.Deactivate(s.ctx, account.ID, false)
	s.Require().NoError(err)

	_, err = s.accounts.Deposit(s.ctx, account.ID, dec("5.00"), "")
	s.True(errors.Is(err, errors.ErrAccountInactive))

	_, err = s.accounts.Withdraw(s.ctx, account.ID, dec("5.00"), "")
	s.True(errors.Is(err, errors.ErrAccountInactive))
}

// Scenario C
func (s *ServiceTestSuite) TestTransfer() {
	x := s.newAccount("500.00")
	y := s.newAccount("300.00")
	before := s.store.LedgerLen()

	result, err := s.transfers.Transfer(s.ctx, TransferRequest{
		FromAccountID: x.ID, ToAccountID: y.ID, Amount: dec("200.00"),
	})
	s.Require().NoError(err)

	s.Equal("300.00", result.FromAccount.Balance.StringFixed(2))
	s.Equal("500.00", result.ToAccount.Balance.StringFixed(2))
	s.Equal(before+2, s.store.LedgerLen())

	out, in := result.TransferOut, result.TransferIn
	s.Equal(domain.TransactionTypeTransferOut, out.Type)
	s.Equal(domain.TransactionTypeTransferIn, in.Type)
	s.Equal(in.ID, *out.RelatedTransactionID)
	s.Equal(out.ID, *in.RelatedTransactionID)
	s.Equal(y.ID, *out.RelatedAccountID)
	s.Equal(x.ID, *in.RelatedAccountID)
	s.Equal("Transfer to account 1000002", out.Description)
	s.Equal("Transfer from account 1000001", in.Description)

	stored, err := s.ledger.FindByID(s.ctx, out.ID)
	s.Require().NoError(err)
	s.Equal(out.BalanceAfter.StringFixed(2), stored.BalanceAfter.StringFixed(2))

	s.assertBalance(x.ID, "300.00")
	s.assertBalance(y.ID, "500.00")
	s.assertVerified(x.ID)
	s.assertVerified(y.ID)
}

func (s *ServiceTestSuite) TestTransfer_LongDescriptionIsTruncated() {
	x := s.newAccount("10.00")
	y := s.newAccount("0")
	description := strings.Repeat("a", domain.MaxDescriptionLength)

	result, err := s.transfers.Transfer(s.ctx, TransferRequest{
		FromAccountID: x.ID, ToAccountID: y.ID, Amount: dec("1.00"), Description: description,
	})
	s.Require().NoError(err)
	s.Len([]rune(result.TransferOut.Description), domain.MaxDescriptionLength)
	s.True(result.TransferOut.Consistent())
}

func (s *ServiceTestSuite) TestTransfer_Rejections() {
	x := s.newAccount("100.00")
	y := s.newAccount("100.00")
	closed := s.newAccount("0")
	_, err := s.accounts.Deactivate(s.ctx, closed.ID, false)
	s.Require().NoError(err)
	before := s.store.LedgerLen()

	tests := []struct {
		name string
		req  TransferRequest
		want *errors.AppError
		side string
	}{
		{"same account", TransferRequest{FromAccountID: x.ID, ToAccountID: x.ID, Amount: dec("1")}, errors.ErrSameAccountTransfer, ""},
		{"missing source", TransferRequest{FromAccountID: uuid.New(), ToAccountID: y.ID, Amount: dec("1")}, errors.ErrAccountNotFound, "from"},
		{"missing destination", TransferRequest{FromAccountID: x.ID, ToAccountID: uuid.New(), Amount: dec("1")}, errors.ErrAccountNotFound, "to"},
		{"inactive destination", TransferRequest{FromAccountID: x.ID, ToAccountID: closed.ID, Amount: dec("1")}, errors.ErrAccountInactive, "to"},
		{"inactive source", TransferRequest{FromAccountID: closed.ID, ToAccountID: x.ID, Amount: dec("1")}, errors.ErrAccountInactive, "from"},
		{"insufficient funds", TransferRequest{FromAccountID: x.ID, ToAccountID: y.ID, Amount: dec("100.01")}, errors.ErrInsufficientFunds, ""},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.transfers.Transfer(s.ctx, tt.req)
			s.Require().Error(err)
			s.True(errors.Is(err, tt.want), "got %v", err)
			if tt.side != "" {
				s.Equal(tt.side, errors.From(err).Fields["side"])
			}
		})
	}

	s.assertBalance(x.ID, "100.00")
	s.assertBalance(y.ID, "100.00")
	s.Equal(before, s.store.LedgerLen())
}

// Scenario D
func (s *ServiceTestSuite) TestDeactivate() {
	account := s.newAccount("100.00")

	_, err := s.accounts.Deactivate(s.ctx, account.ID, false)
	s.True(errors.Is(err, errors.ErrAccountHasBalance))
	s.Equal(errors.KindBadRequest, errors.KindOf(err))

	deactivated, err := s.accounts.Deactivate(s.ctx, account.ID, true)
	s.Require().NoError(err)
	s.False(deactivated.IsActive)
	s.Equal("100.00", deactivated.Balance.StringFixed(2))

	_, err = s.accounts.Deactivate(s.ctx, account.ID, true)
	s.True(errors.Is(err, errors.ErrAccountAlreadyInactive))
}

// Scenario E
func (s *ServiceTestSuite) TestReactivate() {
	account := s.newAccount("0")

	_, err := s.accounts.Reactivate(s.ctx, account.ID)
	s.True(errors.Is(err, errors.ErrAccountAlreadyActive))

	_, err = s.accounts.Deactivate(s.ctx, account.ID, false)
	s.Require().NoError(err)

	s.users.Set(s.owner, false)
	_, err = s.accounts.Reactivate(s.ctx, account.ID)
	s.True(errors.Is(err, errors.ErrOwnerInactive))
	s.Equal(errors.KindBadRequest, errors.KindOf(err))

	s.users.Set(s.owner, true)
	reactivated, err := s.accounts.Reactivate(s.ctx, account.ID)
	s.Require().NoError(err)
	s.True(reactivated.IsActive)
}

func (s *ServiceTestSuite) TestOwnerOperations() {
	a := s.newAccount("10.00")
	s.newAccount("15.50")

	has, err := s.accounts.OwnerHasBalance(s.ctx, s.owner)
	s.Require().NoError(err)
	s.True(has)

	total, err := s.accounts.OwnerTotalBalance(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Equal("25.50", total.StringFixed(2))

	_, err = s.accounts.OwnerTotalBalance(s.ctx, uuid.New())
	s.True(errors.Is(err, errors.ErrOwnerNotFound))

	updated, err := s.accounts.ChangeType(s.ctx, a.ID, domain.AccountTypeSavings)
	s.Require().NoError(err)
	s.Equal(domain.AccountTypeSavings, updated.Type)

	count, err := s.accounts.DeactivateAllByOwner(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Equal(int64(2), count)

	active, err := s.accounts.ListByOwner(s.ctx, s.owner, false)
	s.Require().NoError(err)
	s.Empty(active)

	all, err := s.accounts.ListByOwner(s.ctx, s.owner, true)
	s.Require().NoError(err)
	s.Len(all, 2)
	s.Less(all[0].AccountNumber, all[1].AccountNumber)

	has, err = s.accounts.OwnerHasBalance(s.ctx, s.owner)
	s.Require().NoError(err)
	s.False(has)
}

func (s *ServiceTestSuite) TestConcurrentDeposits_NoLostUpdates() {
	account := s.newAccount("100.00")

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.accounts.Deposit(s.ctx, account.ID, dec("10.00"), "")
			s.NoError(err)
		}()
	}
	wg.Wait()

	s.assertBalance(account.ID, "600.00")
	s.assertVerified(account.ID)
}

func (s *ServiceTestSuite) TestConcurrentWithdrawals_NeverNegative() {
	account := s.newAccount("100.00")

	const n = 30
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.accounts.Withdraw(s.ctx, account.ID, dec("10.00"), "")
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			s.True(errors.Is(err, errors.ErrInsufficientFunds))
		}()
	}
	wg.Wait()

	s.Equal(10, succeeded)
	s.assertBalance(account.ID, "0.00")
	s.assertVerified(account.ID)
}

func (s *ServiceTestSuite) TestConcurrentOppositeTransfers_Conserve() {
	a := s.newAccount("100.00")
	b := s.newAccount("100.00")

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.transfers.Transfer(s.ctx, TransferRequest{FromAccountID: a.ID, ToAccountID: b.ID, Amount: dec("1.00")})
			s.NoError(err)
		}()
		go func() {
			defer wg.Done()
			_, err := s.transfers.Transfer(s.ctx, TransferRequest{FromAccountID: b.ID, ToAccountID: a.ID, Amount: dec("2.00")})
			s.NoError(err)
		}()
	}
	wg.Wait()

	s.assertBalance(a.ID, "120.00")
	s.assertBalance(b.ID, "80.00")
	s.assertVerified(a.ID)
	s.assertVerified(b.ID)

	between, err := s.ledger.FindBetween(s.ctx, a.ID, b.ID)
	s.Require().NoError(err)
	s.Len(between, 4*n)
}

func (s *ServiceTestSuite) TestTransfer_RollsBackOnLedgerFailure() {
	x := s.newAccount("500.00")
	y := s.newAccount("300.00")
	before := s.store.LedgerLen()

	// First ledger write succeeds, second fails.
	s.store.InjectFault(memory.OpCreateTransaction, nil)
	s.store.InjectFault(memory.OpCreateTransaction, errors.New("disk full"))

	_, err := s.transfers.Transfer(s.ctx, TransferRequest{FromAccountID: x.ID, ToAccountID: y.ID, Amount: dec("200.00")})
	s.Require().Error(err)
	s.Equal(errors.KindInternal, errors.KindOf(err))

	s.assertBalance(x.ID, "500.00")
	s.assertBalance(y.ID, "300.00")
	s.Equal(before, s.store.LedgerLen())
	s.assertVerified(x.ID)
	s.assertVerified(y.ID)
}

func (s *ServiceTestSuite) TestTransfer_RollsBackOnCreditFailure() {
	x := s.newAccount("500.00")
	y := s.newAccount("300.00")
	before := s.store.LedgerLen()

	s.store.InjectFault(memory.OpCredit, errors.New("connection lost mid-write"))

	_, err := s.transfers.Transfer(s.ctx, TransferRequest{FromAccountID: x.ID, ToAccountID: y.ID, Amount: dec("200.00")})
	s.Require().Error(err)

	s.assertBalance(x.ID, "500.00")
	s.assertBalance(y.ID, "300.00")
	s.Equal(before, s.store.LedgerLen())
}

func (s *ServiceTestSuite) TestTransfer_RetriesWriteConflict() {
	x := s.newAccount("500.00")
	y := s.newAccount("300.00")
	before := s.store.LedgerLen()

	s.store.InjectFault(memory.OpDebit, repository.ErrSerialization)

	_, err := s.transfers.Transfer(s.ctx, TransferRequest{FromAccountID: x.ID, ToAccountID: y.ID, Amount: dec("200.00")})
	s.Require().NoError(err)

	s.assertBalance(x.ID, "300.00")
	s.assertBalance(y.ID, "500.00")
	s.Equal(before+2, s.store.LedgerLen())
}

func (s *ServiceTestSuite) TestTransfer_RetryBudgetExhausted() {
	x := s.newAccount("500.00")
	y := s.newAccount("300.00")
	before := s.store.LedgerLen()

	for i := 0; i < 3; i++ {
		s.store.InjectFault(memory.OpCredit, repository.ErrSerialization)
	}

	_, err := s.transfers.Transfer(s.ctx, TransferRequest{FromAccountID: x.ID, ToAccountID: y.ID, Amount: dec("200.00")})
	s.Require().Error(err)
	s.True(errors.Is(err, errors.ErrWriteConflict))
	s.Equal(errors.KindConflict, errors.KindOf(err))

	s.assertBalance(x.ID, "500.00")
	s.assertBalance(y.ID, "300.00")
	s.Equal(before, s.store.LedgerLen())
}

func (s *ServiceTestSuite) TestDeposit_CommitOutcomeUnknownIsNotRetried() {
	account := s.newAccount("100.00")
	before := s.store.LedgerLen()

	s.store.InjectFault(memory.OpCommit, repository.CommitFailed(driver.ErrBadConn))

	_, err := s.accounts.Deposit(s.ctx, account.ID, dec("25.00"), "")
	s.Require().Error(err)
	s.True(errors.Is(err, repository.ErrCommitOutcomeUnknown))
	s.Equal(errors.KindInternal, errors.KindOf(err))

	// A retry would have hit no fault and applied the deposit.
	s.assertBalance(account.ID, "100.00")
	s.Equal(before, s.store.LedgerLen())
}

func (s *ServiceTestSuite) TestDeposit_CommitConflictIsRetried() {
	account := s.newAccount("100.00")

	s.store.InjectFault(memory.OpCommit, repository.CommitFailed(repository.ErrSerialization))

	_, err := s.accounts.Deposit(s.ctx, account.ID, dec("25.00"), "")
	s.Require().NoError(err)
	s.assertBalance(account.ID, "125.00")
	s.assertVerified(account.ID)
}

func (s *ServiceTestSuite) TestTransfer_CancelledContext() {
	x := s.newAccount("500.00")
	y := s.newAccount("300.00")
	before := s.store.LedgerLen()

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.transfers.Transfer(ctx, TransferRequest{FromAccountID: x.ID, ToAccountID: y.ID, Amount: dec("200.00")})
	s.Require().Error(err)
	s.True(errors.Is(err, context.Canceled))

	s.assertBalance(x.ID, "500.00")
	s.Equal(before, s.store.LedgerLen())
}

func (s *ServiceTestSuite) TestHistoryQueries() {
	a := s.newAccount("100.00")
	b := s.newAccount("0")

	for i := 0; i < 24; i++ {
		_, err := s.accounts.Deposit(s.ctx, a.ID, dec("1.00"), "")
		s.Require().NoError(err)
	}
	_, err := s.transfers.Transfer(s.ctx, TransferRequest{FromAccountID: a.ID, ToAccountID: b.ID, Amount: dec("20.00")})
	s.Require().NoError(err)
	_, err = s.accounts.Withdraw(s.ctx, a.ID, dec("4.00"), "")
	s.Require().NoError(err)

	// 1 initial + 24 deposits + 1 transfer_out + 1 withdraw
	page, err := s.ledger.FindByAccount(s.ctx, a.ID, domain.Page{Page: 2, Limit: 10})
	s.Require().NoError(err)
	s.Equal(int64(27), page.Total)
	s.Equal(3, page.TotalPages)
	s.True(page.HasNextPage)
	s.True(page.HasPrevPage)
	s.Len(page.Items, 10)

	first, err := s.ledger.FindByAccount(s.ctx, a.ID, domain.Page{})
	s.Require().NoError(err)
	s.Equal(DefaultPageLimit, first.Limit)
	s.Equal(domain.TransactionTypeWithdraw, first.Items[0].Type)
	for i := 1; i < len(first.Items); i++ {
		s.Greater(first.Items[i-1].Seq, first.Items[i].Seq)
	}

	_, err = s.ledger.FindByAccount(s.ctx, a.ID, domain.Page{Page: 1, Limit: 500})
	s.Equal(errors.KindBadRequest, errors.KindOf(err))

	deposits, err := s.ledger.FindByAccountAndType(s.ctx, a.ID, domain.TransactionTypeDeposit)
	s.Require().NoError(err)
	s.Len(deposits, 24)

	stats, err := s.ledger.GetAccountStats(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("24.00", stats.TotalDeposits.StringFixed(2))
	s.Equal("4.00", stats.TotalWithdrawals.StringFixed(2))
	s.Equal("20.00", stats.TotalTransfersOut.StringFixed(2))
	s.Equal("0.00", stats.TotalTransfersIn.StringFixed(2))
	s.Equal("100.00", stats.TotalInitialBalance.StringFixed(2))
	s.Equal(int64(27), stats.TransactionCount)

	total, err := s.ledger.TotalByType(s.ctx, b.ID, domain.TransactionTypeTransferIn)
	s.Require().NoError(err)
	s.Equal("20.00", total.StringFixed(2))

	_, err = s.ledger.FindByID(s.ctx, uuid.New())
	s.True(errors.Is(err, errors.ErrTransactionNotFound))

	_, err = s.ledger.FindByAccount(s.ctx, uuid.New(), domain.Page{})
	s.True(errors.Is(err, errors.ErrAccountNotFound))

	_, err = s.ledger.FindByAccount(s.ctx, a.ID, domain.Page{Page: math.MaxInt/100 + 2, Limit: 100})
	s.True(errors.Is(err, errors.NewAppError(errors.InvalidInput, "")))

	_, err = s.ledger.TotalByType(s.ctx, uuid.New(), domain.TransactionTypeDeposit)
	s.True(errors.Is(err, errors.ErrAccountNotFound))

	quick, err := s.ledger.CheckLatest(s.ctx, a.ID)
	s.Require().NoError(err)
	s.True(quick.Consistent, "problems: %v", quick.Problems)
	s.Equal(1, quick.EntryCount)
	s.Equal("100.00", quick.LedgerBalance.StringFixed(2))

	s.assertBalance(a.ID, "100.00")
	s.assertVerified(a.ID)
	s.assertVerified(b.ID)
}
