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

const transactionColumns = `id, seq, account_id, type, amount, description, balance_before, balance_after,
	related_account_id, related_transaction_id, created_at`

type transactionRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewTransactionRepository(db SQLExecutor, logger *slog.Logger) domain.TransactionRepository {
	return &transactionRepository{
		db:     db,
		logger: logger,
	}
}

// CreateTransaction appends a ledger entry. clock_timestamp() and the seq
// default are evaluated after the caller's balance update has locked the
// account row, so per-account ordering follows the order of mutations.
func (r *transactionRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions
		(id, account_id, type, amount, description, balance_before, balance_after,
		 related_account_id, related_transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, clock_timestamp())
		RETURNING seq, created_at
	`

	var description sql.NullString
	if tx.Description != "" {
		description = sql.NullString{String: tx.Description, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		tx.ID,
		tx.AccountID,
		string(tx.Type),
		tx.Amount.String(),
		description,
		tx.BalanceBefore.String(),
		tx.BalanceAfter.String(),
		nullableUUID(tx.RelatedAccountID),
		nullableUUID(tx.RelatedTransactionID),
	).Scan(&tx.Seq, &tx.CreatedAt)

	if err != nil {
		r.logger.Error("Failed to create transaction",
			"account_id", tx.AccountID,
			"type", tx.Type,
			"amount", tx.Amount,
			"error", err)
		return errors.Internal("failed to create transaction", err)
	}

	r.logger.Info("Transaction created successfully",
		"transaction_id", tx.ID, "account_id", tx.AccountID, "type", tx.Type)
	return nil
}

func (r *transactionRepository) GetTransactionByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	transaction, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrTransactionNotFound.WithField("transaction_id", id)
		}
		r.logger.Error("Failed to get transaction", "transaction_id", id, "error", err)
		return nil, errors.Internal("failed to get transaction", err)
	}
	return transaction, nil
}

func (r *transactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, page domain.Page) ([]*domain.Transaction, int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM transactions WHERE account_id = $1`, accountID,
	).Scan(&total)
	if err != nil {
		r.logger.Error("Failed to count transactions", "account_id", accountID, "error", err)
		return nil, 0, errors.Internal("failed to count transactions", err)
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY seq DESC
		LIMIT $2 OFFSET $3
	`
	items, err := r.list(ctx, query, accountID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *transactionRepository) ListByAccountAndType(ctx context.Context, accountID uuid.UUID, txType domain.TransactionType) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1 AND type = $2
		ORDER BY seq DESC
	`
	return r.list(ctx, query, accountID, string(txType))
}

func (r *transactionRepository) ListBetweenAccounts(ctx context.Context, accountID1, accountID2 uuid.UUID) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE type IN ('transfer_out', 'transfer_in')
		  AND ((account_id = $1 AND related_account_id = $2)
		    OR (account_id = $2 AND related_account_id = $1))
		ORDER BY seq DESC
	`
	return r.list(ctx, query, accountID1, accountID2)
}

func (r *transactionRepository) ListAllByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY seq ASC
	`
	return r.list(ctx, query, accountID)
}

func (r *transactionRepository) LatestByAccount(ctx context.Context, accountID uuid.UUID) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY seq DESC
		LIMIT 1
	`
	transaction, err := scanTransaction(r.db.QueryRowContext(ctx, query, accountID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get latest transaction", "account_id", accountID, "error", err)
		return nil, errors.Internal("failed to get latest transaction", err)
	}
	return transaction, nil
}

func (r *transactionRepository) SumByType(ctx context.Context, accountID uuid.UUID) (map[domain.TransactionType]decimal.Decimal, int64, error) {
	query := `
		SELECT type, COALESCE(SUM(amount), 0), count(*)
		FROM transactions
		WHERE account_id = $1
		GROUP BY type
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		r.logger.Error("Failed to aggregate transactions", "account_id", accountID, "error", err)
		return nil, 0, errors.Internal("failed to aggregate transactions", err)
	}
	defer rows.Close()

	sums := make(map[domain.TransactionType]decimal.Decimal, len(domain.TransactionTypes))
	var total int64
	for rows.Next() {
		var txType string
		var sum decimal.Decimal
		var count int64
		if err := rows.Scan(&txType, &sum, &count); err != nil {
			return nil, 0, errors.Internal("failed to scan aggregate", err)
		}
		sums[domain.TransactionType(txType)] = sum
		total += count
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Internal("failed to aggregate transactions", err)
	}
	return sums, total, nil
}

func (r *transactionRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list transactions", "error", err)
		return nil, errors.Internal("failed to list transactions", err)
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, errors.Internal("failed to scan transaction", err)
		}
		transactions = append(transactions, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("failed to list transactions", err)
	}
	return transactions, nil
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var transaction domain.Transaction
	var txType string
	var description sql.NullString
	var relatedAccountID, relatedTransactionID uuid.NullUUID

	err := row.Scan(
		&transaction.ID,
		&transaction.Seq,
		&transaction.AccountID,
		&txType,
		&transaction.Amount,
		&description,
		&transaction.BalanceBefore,
		&transaction.BalanceAfter,
		&relatedAccountID,
		&relatedTransactionID,
		&transaction.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	transaction.Type = domain.TransactionType(txType)
	transaction.Description = description.String
	if relatedAccountID.Valid {
		id := relatedAccountID.UUID
		transaction.RelatedAccountID = &id
	}
	if relatedTransactionID.Valid {
		id := relatedTransactionID.UUID
		transaction.RelatedTransactionID = &id
	}
	return &transaction, nil
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
