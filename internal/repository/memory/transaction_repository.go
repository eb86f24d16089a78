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

type transactionRepository struct {
	store *Store
}

func (r *transactionRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	return r.store.write(func(st *state) error {
		if err := r.store.faults.take(OpCreateTransaction); err != nil {
			return err
		}
		for i := range st.ledger {
			if st.ledger[i].ID == tx.ID {
				return errors.Internal("failed to create transaction", errors.New("duplicate transaction id"))
			}
		}
		st.seq++
		tx.Seq = st.seq
		tx.CreatedAt = time.Now().UTC()
		st.ledger = append(st.ledger, *tx)
		return nil
	})
}

func (r *transactionRepository) GetTransactionByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var out *domain.Transaction
	r.store.read(func(st *state) {
		for i := range st.ledger {
			if st.ledger[i].ID == id {
				cp := st.ledger[i]
				out = &cp
				return
			}
		}
	})
	if out == nil {
		return nil, errors.ErrTransactionNotFound.WithField("transaction_id", id)
	}
	return out, nil
}

func (r *transactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, page domain.Page) ([]*domain.Transaction, int64, error) {
	all := r.filter(func(t *domain.Transaction) bool { return t.AccountID == accountID }, true)
	total := int64(len(all))

	start := page.Offset()
	if start < 0 {
		start = 0
	}
	if start >= len(all) {
		return []*domain.Transaction{}, total, nil
	}
	end := start + page.Limit
	if page.Limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *transactionRepository) ListByAccountAndType(ctx context.Context, accountID uuid.UUID, txType domain.TransactionType) ([]*domain.Transaction, error) {
	return r.filter(func(t *domain.Transaction) bool {
		return t.AccountID == accountID && t.Type == txType
	}, true), nil
}

func (r *transactionRepository) ListBetweenAccounts(ctx context.Context, accountID1, accountID2 uuid.UUID) ([]*domain.Transaction, error) {
	return r.filter(func(t *domain.Transaction) bool {
		if !t.Type.IsTransfer() || t.RelatedAccountID == nil {
			return false
		}
		return (t.AccountID == accountID1 && *t.RelatedAccountID == accountID2) ||
			(t.AccountID == accountID2 && *t.RelatedAccountID == accountID1)
	}, true), nil
}

func (r *transactionRepository) ListAllByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error) {
	return r.filter(func(t *domain.Transaction) bool { return t.AccountID == accountID }, false), nil
}

func (r *transactionRepository) LatestByAccount(ctx context.Context, accountID uuid.UUID) (*domain.Transaction, error) {
	all := r.filter(func(t *domain.Transaction) bool { return t.AccountID == accountID }, true)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *transactionRepository) SumByType(ctx context.Context, accountID uuid.UUID) (map[domain.TransactionType]decimal.Decimal, int64, error) {
	sums := make(map[domain.TransactionType]decimal.Decimal, len(domain.TransactionTypes))
	var count int64
	r.store.read(func(st *state) {
		for i := range st.ledger {
			t := &st.ledger[i]
			if t.AccountID != accountID {
				continue
			}
			sums[t.Type] = sums[t.Type].Add(t.Amount)
			count++
		}
	})
	return sums, count, nil
}

// filter returns copies of matching entries ordered by seq.
func (r *transactionRepository) filter(match func(*domain.Transaction) bool, newestFirst bool) []*domain.Transaction {
	var out []*domain.Transaction
	r.store.read(func(st *state) {
		for i := range st.ledger {
			if match(&st.ledger[i]) {
				cp := st.ledger[i]
				out = append(out, &cp)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].Seq > out[j].Seq
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}
