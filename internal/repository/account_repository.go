package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"banking-ledger/internal/domain"
	"banking-ledger/internal/errors"
)

const accountColumns = `id, account_number, owner_id, type, balance, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type accountRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewAccountRepository(db SQLExecutor, logger *slog.Logger) domain.AccountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *accountRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, account_number, owner_id, type, balance, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		account.ID,
		account.AccountNumber,
		account.OwnerID,
		string(account.Type),
		account.Balance.String(),
		account.IsActive,
	).Scan(&account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			r.logger.Warn("Duplicate account creation attempt",
				"account_id", account.ID, "account_number", account.AccountNumber)
			return errors.ErrDuplicateAccount.Wrap(err)
		}
		r.logger.Error("Failed to create account", "account_id", account.ID, "error", err)
		return errors.Internal("failed to create account", err)
	}

	r.logger.Info("Account created successfully",
		"account_id", account.ID, "account_number", account.AccountNumber)
	return nil
}

func (r *accountRepository) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *accountRepository) GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *accountRepository) getOne(ctx context.Context, query string, id uuid.UUID) (*domain.Account, error) {
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Warn("Account not found", "account_id", id)
			return nil, errors.ErrAccountNotFound.WithField("account_id", id)
		}
		r.logger.Error("Failed to get account", "account_id", id, "error", err)
		return nil, errors.Internal("failed to get account", err)
	}
	return account, nil
}

func (r *accountRepository) ListAccountsByOwner(ctx context.Context, ownerID uuid.UUID, includeInactive bool) ([]*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE owner_id = $1 AND ($2 OR is_active)
		ORDER BY account_number
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID, includeInactive)
	if err != nil {
		r.logger.Error("Failed to list accounts", "owner_id", ownerID, "error", err)
		return nil, errors.Internal("failed to list accounts", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, errors.Internal("failed to scan account", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("failed to list accounts", err)
	}
	return accounts, nil
}

// Credit applies balance = balance + amount in one statement; the row lock
// taken by the UPDATE serializes concurrent credits on the same account.
func (r *accountRepository) Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.BalanceChange, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $2, updated_at = now()
		WHERE id = $1 AND is_active
		RETURNING ` + accountColumns

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id, amount.String()))
	if err == sql.ErrNoRows {
		return nil, r.diagnose(ctx, id, amount)
	}
	if pqCode(err) == pqNumericOverflow {
		r.logger.Warn("Credit exceeds balance limit", "account_id", id, "amount", amount)
		return nil, errors.ErrBalanceLimitExceeded.Wrap(err).
			WithField("account_id", id).
			WithField("requested_amount", amount.StringFixed(2))
	}
	if err != nil {
		r.logger.Error("Failed to credit account", "account_id", id, "amount", amount, "error", err)
		return nil, errors.Internal("failed to update account balance", err)
	}

	r.logger.Info("Account credited", "account_id", id, "amount", amount, "new_balance", account.Balance)
	return &domain.BalanceChange{
		Account:       account,
		BalanceBefore: account.Balance.Sub(amount),
		BalanceAfter:  account.Balance,
	}, nil
}

// Debit only matches when the balance covers amount, so the balance can
// never be driven below zero regardless of interleaving.
func (r *accountRepository) Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.BalanceChange, error) {
	query := `
		UPDATE accounts
		SET balance = balance - $2, updated_at = now()
		WHERE id = $1 AND is_active AND balance >= $2
		RETURNING ` + accountColumns

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id, amount.String()))
	if err == sql.ErrNoRows {
		return nil, r.diagnose(ctx, id, amount)
	}
	if err != nil {
		r.logger.Error("Failed to debit account", "account_id", id, "amount", amount, "error", err)
		return nil, errors.Internal("failed to update account balance", err)
	}

	r.logger.Info("Account debited", "account_id", id, "amount", amount, "new_balance", account.Balance)
	return &domain.BalanceChange{
		Account:       account,
		BalanceBefore: account.Balance.Add(amount),
		BalanceAfter:  account.Balance,
	}, nil
}

// diagnose explains why a conditional balance update matched no row.
func (r *accountRepository) diagnose(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	account, err := r.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	if !account.IsActive {
		r.logger.Warn("Balance change on inactive account", "account_id", id)
		return errors.ErrAccountInactive.WithField("account_id", id)
	}
	r.logger.Warn("Insufficient funds",
		"account_id", id, "current_balance", account.Balance, "requested_amount", amount)
	return errors.ErrInsufficientFunds.
		WithField("account_id", id).
		WithField("current_balance", account.Balance.StringFixed(2)).
		WithField("requested_amount", amount.StringFixed(2))
}

func (r *accountRepository) Deactivate(ctx context.Context, id uuid.UUID, requireZeroBalance bool) (*domain.Account, error) {
	query := `
		UPDATE accounts
		SET is_active = FALSE, updated_at = now()
		WHERE id = $1 AND is_active AND (NOT $2 OR balance = 0)
		RETURNING ` + accountColumns

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id, requireZeroBalance))
	if err == sql.ErrNoRows {
		current, getErr := r.GetAccount(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if !current.IsActive {
			return nil, errors.ErrAccountAlreadyInactive.WithField("account_id", id)
		}
		return nil, errors.ErrAccountHasBalance.
			WithField("account_id", id).
			WithField("balance", current.Balance.StringFixed(2))
	}
	if err != nil {
		r.logger.Error("Failed to deactivate account", "account_id", id, "error", err)
		return nil, errors.Internal("failed to deactivate account", err)
	}

	r.logger.Info("Account deactivated", "account_id", id, "balance", account.Balance)
	return account, nil
}

func (r *accountRepository) Reactivate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `
		UPDATE accounts
		SET is_active = TRUE, updated_at = now()
		WHERE id = $1 AND NOT is_active
		RETURNING ` + accountColumns

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		if _, getErr := r.GetAccount(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, errors.ErrAccountAlreadyActive.WithField("account_id", id)
	}
	if err != nil {
		r.logger.Error("Failed to reactivate account", "account_id", id, "error", err)
		return nil, errors.Internal("failed to reactivate account", err)
	}

	r.logger.Info("Account reactivated", "account_id", id)
	return account, nil
}

func (r *accountRepository) DeactivateByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	query := `UPDATE accounts SET is_active = FALSE, updated_at = now() WHERE owner_id = $1 AND is_active`

	result, err := r.db.ExecContext(ctx, query, ownerID)
	if err != nil {
		r.logger.Error("Failed to deactivate owner accounts", "owner_id", ownerID, "error", err)
		return 0, errors.Internal("failed to deactivate accounts", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Internal("failed to get rows affected", err)
	}

	r.logger.Info("Owner accounts deactivated", "owner_id", ownerID, "count", rowsAffected)
	return rowsAffected, nil
}

func (r *accountRepository) UpdateAccountType(ctx context.Context, id uuid.UUID, accountType domain.AccountType) (*domain.Account, error) {
	query := `
		UPDATE accounts
		SET type = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + accountColumns

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id, string(accountType)))
	if err == sql.ErrNoRows {
		r.logger.Warn("No account found to update", "account_id", id)
		return nil, errors.ErrAccountNotFound.WithField("account_id", id)
	}
	if err != nil {
		r.logger.Error("Failed to update account type", "account_id", id, "error", err)
		return nil, errors.Internal("failed to update account type", err)
	}
	return account, nil
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var account domain.Account
	var accountType string

	err := row.Scan(
		&account.ID,
		&account.AccountNumber,
		&account.OwnerID,
		&accountType,
		&account.Balance,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Type = domain.AccountType(accountType)
	return &account, nil
}
