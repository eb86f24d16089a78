package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"banking-ledger/internal/domain"
	"banking-ledger/internal/errors"
	"banking-ledger/internal/validation"
)

const defaultTransferDescription = "Transfer"

type TransferService struct {
	runner *txRunner
	logger *slog.Logger
}

func NewTransferService(store domain.Store, policy RetryPolicy, logger *slog.Logger) *TransferService {
	return &TransferService{
		runner: &txRunner{store: store, policy: policy, logger: logger},
		logger: logger,
	}
}

type TransferRequest struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal
	Description   string
}

type TransferResult struct {
	FromAccount *domain.Account     `json:"from_account"`
	ToAccount   *domain.Account     `json:"to_account"`
	TransferOut *domain.Transaction `json:"transfer_out"`
	TransferIn  *domain.Transaction `json:"transfer_in"`
}

// Transfer moves amount between two accounts. Both balance updates and
// both ledger entries commit together or not at all.
func (s *TransferService) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	s.logger.Info("Processing transfer",
		"from_account_id", req.FromAccountID,
		"to_account_id", req.ToAccountID,
		"amount", req.Amount)

	if err := validation.Collect(
		validation.ID("from_account_id", req.FromAccountID),
		validation.ID("to_account_id", req.ToAccountID),
		validation.Amount("amount", req.Amount),
		validation.Description("description", req.Description),
	); err != nil {
		return nil, err
	}
	if req.FromAccountID == req.ToAccountID {
		return nil, errors.ErrSameAccountTransfer.WithField("account_id", req.FromAccountID)
	}

	description := req.Description
	if description == "" {
		description = defaultTransferDescription
	}

	var result *TransferResult
	err := s.runner.run(ctx, "transfer", func(tx domain.Store) error {
		var err error
		result, err = s.execute(ctx, tx, req, description)
		return err
	})
	if err != nil {
		s.logger.Warn("Transfer failed",
			"from_account_id", req.FromAccountID,
			"to_account_id", req.ToAccountID,
			"amount", req.Amount,
			"error", err)
		return nil, err
	}

	s.logger.Info("Transfer completed successfully",
		"transfer_out_id", result.TransferOut.ID,
		"transfer_in_id", result.TransferIn.ID,
		"from_balance", result.FromAccount.Balance,
		"to_balance", result.ToAccount.Balance)
	return result, nil
}

func (s *TransferService) execute(ctx context.Context, tx domain.Store, req TransferRequest, description string) (*TransferResult, error) {
	from, to, err := lockPair(ctx, tx.Account(), req.FromAccountID, req.ToAccountID)
	if err != nil {
		return nil, err
	}

	if !from.IsActive {
		return nil, errors.ErrAccountInactive.WithField("account_id", from.ID).WithField("side", "from")
	}
	if !to.IsActive {
		return nil, errors.ErrAccountInactive.WithField("account_id", to.ID).WithField("side", "to")
	}
	if from.Balance.LessThan(req.Amount) {
		return nil, errors.ErrInsufficientFunds.
			WithField("account_id", from.ID).
			WithField("current_balance", from.Balance.StringFixed(2)).
			WithField("requested_amount", req.Amount.StringFixed(2))
	}

	debit, err := tx.Account().Debit(ctx, from.ID, req.Amount)
	if err != nil {
		return nil, err
	}
	credit, err := tx.Account().Credit(ctx, to.ID, req.Amount)
	if err != nil {
		return nil, err
	}

	outID, inID := uuid.New(), uuid.New()
	out := &domain.Transaction{
		ID:                   outID,
		AccountID:            from.ID,
		Type:                 domain.TransactionTypeTransferOut,
		Amount:               req.Amount,
		Description:          truncate(fmt.Sprintf("%s to account %d", description, to.AccountNumber)),
		BalanceBefore:        debit.BalanceBefore,
		BalanceAfter:         debit.BalanceAfter,
		RelatedAccountID:     &to.ID,
		RelatedTransactionID: &inID,
	}
	in := &domain.Transaction{
		ID:                   inID,
		AccountID:            to.ID,
		Type:                 domain.TransactionTypeTransferIn,
		Amount:               req.Amount,
		Description:          truncate(fmt.Sprintf("%s from account %d", description, from.AccountNumber)),
		BalanceBefore:        credit.BalanceBefore,
		BalanceAfter:         credit.BalanceAfter,
		RelatedAccountID:     &from.ID,
		RelatedTransactionID: &outID,
	}
	if err := tx.Transaction().CreateTransaction(ctx, out); err != nil {
		return nil, err
	}
	if err := tx.Transaction().CreateTransaction(ctx, in); err != nil {
		return nil, err
	}

	return &TransferResult{
		FromAccount: debit.Account,
		ToAccount:   credit.Account,
		TransferOut: out,
		TransferIn:  in,
	}, nil
}

// lockPair locks both rows in ascending id order regardless of direction,
// so opposite transfers between the same pair cannot deadlock.
func lockPair(ctx context.Context, accounts domain.AccountRepository, fromID, toID uuid.UUID) (from, to *domain.Account, err error) {
	first, second := fromID, toID
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}

	locked := make(map[uuid.UUID]*domain.Account, 2)
	for _, id := range []uuid.UUID{first, second} {
		account, err := accounts.GetAccountForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, errors.ErrAccountNotFound) {
				side := "to"
				if id == fromID {
					side = "from"
				}
				return nil, nil, errors.ErrAccountNotFound.
					WithDetails(side+" account does not exist").
					WithField("account_id", id).
					WithField("side", side)
			}
			return nil, nil, err
		}
		locked[id] = account
	}
	return locked[fromID], locked[toID], nil
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= domain.MaxDescriptionLength {
		return s
	}
	return string(r[:domain.MaxDescriptionLength])
}
