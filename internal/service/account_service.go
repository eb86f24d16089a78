package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"banking-ledger/internal/domain"
	"banking-ledger/internal/errors"
	"banking-ledger/internal/validation"
)

const (
	defaultDepositDescription    = "Deposit"
	defaultWithdrawalDescription = "Withdrawal"
	initialBalanceDescription    = "Initial deposit"
)

type AccountService struct {
	store    domain.Store
	users    domain.UserDirectory
	sequence domain.SequenceGenerator
	runner   *txRunner
	logger   *slog.Logger
}

func NewAccountService(
	store domain.Store,
	users domain.UserDirectory,
	sequence domain.SequenceGenerator,
	policy RetryPolicy,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		store:    store,
		users:    users,
		sequence: sequence,
		runner:   &txRunner{store: store, policy: policy, logger: logger},
		logger:   logger,
	}
}

type CreateAccountRequest struct {
	OwnerID        uuid.UUID
	Type           domain.AccountType
	InitialBalance decimal.Decimal
}

// BalanceResult pairs an account with the ledger entry that moved it.
type BalanceResult struct {
	Account     *domain.Account     `json:"account"`
	Transaction *domain.Transaction `json:"transaction"`
}

func (s *AccountService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*domain.Account, error) {
	s.logger.Info("Creating account",
		"owner_id", req.OwnerID, "type", req.Type, "initial_balance", req.InitialBalance)

	if err := validation.Collect(
		validation.ID("owner_id", req.OwnerID),
		validation.AccountType("type", req.Type),
		validation.InitialBalance("initial_balance", req.InitialBalance),
	); err != nil {
		return nil, err
	}

	if err := s.requireActiveOwner(ctx, req.OwnerID); err != nil {
		return nil, err
	}

	number, err := s.sequence.Next(ctx)
	if err != nil {
		s.logger.Error("Failed to allocate account number", "owner_id", req.OwnerID, "error", err)
		if !errors.Is(err, errors.ErrSequenceUnavailable) {
			err = errors.ErrSequenceUnavailable.Wrap(err)
		}
		return nil, err
	}

	var created *domain.Account
	err = s.runner.run(ctx, "create_account", func(tx domain.Store) error {
		account := &domain.Account{
			ID:            uuid.New(),
			AccountNumber: number,
			OwnerID:       req.OwnerID,
			Type:          req.Type,
			Balance:       decimal.Zero,
			IsActive:      true,
		}
		if err := tx.Account().CreateAccount(ctx, account); err != nil {
			return err
		}
		created = account

		if !req.InitialBalance.IsPositive() {
			return nil
		}
		change, err := tx.Account().Credit(ctx, account.ID, req.InitialBalance)
		if err != nil {
			return err
		}
		entry := &domain.Transaction{
			ID:            uuid.New(),
			AccountID:     account.ID,
			Type:          domain.TransactionTypeInitialBalance,
			Amount:        req.InitialBalance,
			Description:   initialBalanceDescription,
			BalanceBefore: change.BalanceBefore,
			BalanceAfter:  change.BalanceAfter,
		}
		if err := tx.Transaction().CreateTransaction(ctx, entry); err != nil {
			return err
		}
		created = change.Account
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account created successfully",
		"account_id", created.ID, "account_number", created.AccountNumber, "balance", created.Balance)
	return created, nil
}

func (s *AccountService) GetAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	if err := validation.Collect(validation.ID("account_id", accountID)); err != nil {
		return nil, err
	}
	return s.store.Account().GetAccount(ctx, accountID)
}

func (s *AccountService) ListByOwner(ctx context.Context, ownerID uuid.UUID, includeInactive bool) ([]*domain.Account, error) {
	if err := validation.Collect(validation.ID("owner_id", ownerID)); err != nil {
		return nil, err
	}
	accounts, err := s.store.Account().ListAccountsByOwner(ctx, ownerID, includeInactive)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []*domain.Account{}
	}
	return accounts, nil
}

func (s *AccountService) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// Deposit credits an active account and records the matching ledger entry
// in the same transaction.
func (s *AccountService) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*BalanceResult, error) {
	s.logger.Info("Processing deposit", "account_id", accountID, "amount", amount)

	if err := validation.Collect(
		validation.ID("account_id", accountID),
		validation.Amount("amount", amount),
		validation.Description("description", description),
	); err != nil {
		return nil, err
	}
	if description == "" {
		description = defaultDepositDescription
	}

	result, err := s.applyMovement(ctx, "deposit", accountID, amount, description, domain.TransactionTypeDeposit)
	if err != nil {
		s.logger.Warn("Deposit failed", "account_id", accountID, "amount", amount, "error", err)
		return nil, err
	}

	s.logger.Info("Deposit completed successfully",
		"account_id", accountID, "transaction_id", result.Transaction.ID, "balance", result.Account.Balance)
	return result, nil
}

// Withdraw debits an active account whose balance covers amount.
func (s *AccountService) Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*BalanceResult, error) {
	s.logger.Info("Processing withdrawal", "account_id", accountID, "amount", amount)

	if err := validation.Collect(
		validation.ID("account_id", accountID),
		validation.Amount("amount", amount),
		validation.Description("description", description),
	); err != nil {
		return nil, err
	}
	if description == "" {
		description = defaultWithdrawalDescription
	}

	result, err := s.applyMovement(ctx, "withdraw", accountID, amount, description, domain.TransactionTypeWithdraw)
	if err != nil {
		s.logger.Warn("Withdrawal failed", "account_id", accountID, "amount", amount, "error", err)
		return nil, err
	}

	s.logger.Info("Withdrawal completed successfully",
		"account_id", accountID, "transaction_id", result.Transaction.ID, "balance", result.Account.Balance)
	return result, nil
}

func (s *AccountService) applyMovement(
	ctx context.Context,
	op string,
	accountID uuid.UUID,
	amount decimal.Decimal,
	description string,
	txType domain.TransactionType,
) (*BalanceResult, error) {
	var result *BalanceResult
	err := s.runner.run(ctx, op, func(tx domain.Store) error {
		var change *domain.BalanceChange
		var err error
		if txType.IsCredit() {
			change, err = tx.Account().Credit(ctx, accountID, amount)
		} else {
			change, err = tx.Account().Debit(ctx, accountID, amount)
		}
		if err != nil {
			return err
		}

		entry := &domain.Transaction{
			ID:            uuid.New(),
			AccountID:     accountID,
			Type:          txType,
			Amount:        amount,
			Description:   description,
			BalanceBefore: change.BalanceBefore,
			BalanceAfter:  change.BalanceAfter,
		}
		if err := tx.Transaction().CreateTransaction(ctx, entry); err != nil {
			return err
		}

		result = &BalanceResult{Account: change.Account, Transaction: entry}
		return nil
	})
	return result, err
}

// Deactivate closes an account. Without force the account must be empty;
// the check and the flip happen in one conditional update.
func (s *AccountService) Deactivate(ctx context.Context, accountID uuid.UUID, force bool) (*domain.Account, error) {
	s.logger.Info("Deactivating account", "account_id", accountID, "force", force)

	if err := validation.Collect(validation.ID("account_id", accountID)); err != nil {
		return nil, err
	}

	var account *domain.Account
	err := s.runner.run(ctx, "deactivate", func(tx domain.Store) error {
		var err error
		account, err = tx.Account().Deactivate(ctx, accountID, !force)
		return err
	})
	if err != nil {
		return nil, err
	}

	if force && account.Balance.IsPositive() {
		s.logger.Warn("Account deactivated with remaining balance",
			"account_id", accountID, "balance", account.Balance)
	}
	s.logger.Info("Account deactivated successfully", "account_id", accountID)
	return account, nil
}

// Reactivate reopens an inactive account whose owner is still active. The
// owner check reads the user directory and is not atomic with it.
func (s *AccountService) Reactivate(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	s.logger.Info("Reactivating account", "account_id", accountID)

	if err := validation.Collect(validation.ID("account_id", accountID)); err != nil {
		return nil, err
	}

	current, err := s.store.Account().GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if current.IsActive {
		return nil, errors.ErrAccountAlreadyActive.WithField("account_id", accountID)
	}

	active, err := s.users.IsActive(ctx, current.OwnerID)
	if err != nil {
		return nil, err
	}
	if !active {
		s.logger.Warn("Reactivation refused, owner inactive", "account_id", accountID, "owner_id", current.OwnerID)
		return nil, errors.ErrOwnerInactive.
			WithField("account_id", accountID).
			WithField("owner_id", current.OwnerID)
	}

	var account *domain.Account
	err = s.runner.run(ctx, "reactivate", func(tx domain.Store) error {
		var err error
		account, err = tx.Account().Reactivate(ctx, accountID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account reactivated successfully", "account_id", accountID)
	return account, nil
}

// DeactivateAllByOwner is called by the user service when a user is
// deactivated. Balances are left untouched.
func (s *AccountService) DeactivateAllByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	s.logger.Info("Deactivating all owner accounts", "owner_id", ownerID)

	if err := validation.Collect(validation.ID("owner_id", ownerID)); err != nil {
		return 0, err
	}

	var count int64
	err := s.runner.run(ctx, "deactivate_owner", func(tx domain.Store) error {
		var err error
		count, err = tx.Account().DeactivateByOwner(ctx, ownerID)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Owner accounts deactivated", "owner_id", ownerID, "count", count)
	return count, nil
}

// OwnerHasBalance reports whether any active account of the owner holds funds.
func (s *AccountService) OwnerHasBalance(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	accounts, err := s.ListByOwner(ctx, ownerID, false)
	if err != nil {
		return false, err
	}
	for _, a := range accounts {
		if a.Balance.IsPositive() {
			return true, nil
		}
	}
	return false, nil
}

func (s *AccountService) OwnerTotalBalance(ctx context.Context, ownerID uuid.UUID) (decimal.Decimal, error) {
	if err := validation.Collect(validation.ID("owner_id", ownerID)); err != nil {
		return decimal.Zero, err
	}
	exists, err := s.users.Exists(ctx, ownerID)
	if err != nil {
		return decimal.Zero, err
	}
	if !exists {
		return decimal.Zero, errors.ErrOwnerNotFound.WithField("owner_id", ownerID)
	}

	accounts, err := s.ListByOwner(ctx, ownerID, false)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total, nil
}

// ChangeType is the only direct account update; balances move solely
// through ledger operations.
func (s *AccountService) ChangeType(ctx context.Context, accountID uuid.UUID, accountType domain.AccountType) (*domain.Account, error) {
	if err := validation.Collect(
		validation.ID("account_id", accountID),
		validation.AccountType("type", accountType),
	); err != nil {
		return nil, err
	}

	var account *domain.Account
	err := s.runner.run(ctx, "change_type", func(tx domain.Store) error {
		var err error
		account, err = tx.Account().UpdateAccountType(ctx, accountID, accountType)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account type changed", "account_id", accountID, "type", accountType)
	return account, nil
}

func (s *AccountService) requireActiveOwner(ctx context.Context, ownerID uuid.UUID) error {
	exists, err := s.users.Exists(ctx, ownerID)
	if err != nil {
		return err
	}
	if !exists {
		s.logger.Warn("Owner not found", "owner_id", ownerID)
		return errors.ErrOwnerNotFound.WithField("owner_id", ownerID)
	}
	active, err := s.users.IsActive(ctx, ownerID)
	if err != nil {
		return err
	}
	if !active {
		s.logger.Warn("Owner inactive", "owner_id", ownerID)
		return errors.ErrOwnerInactive.WithField("owner_id", ownerID)
	}
	return nil
}
