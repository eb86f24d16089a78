package repository

import (
	"context"
	"log/slog"

	"banking-ledger/internal/domain"
	"banking-ledger/internal/errors"
)

type sequenceRepository struct {
	db     SQLExecutor
	name   string
	logger *slog.Logger
}

// NewSequence returns a SequenceGenerator backed by one row of the counters
// table, advanced with a single upsert so concurrent callers in any process
// never observe the same value.
func NewSequence(db SQLExecutor, name string, logger *slog.Logger) domain.SequenceGenerator {
	return &sequenceRepository{
		db:     db,
		name:   name,
		logger: logger,
	}
}

func (r *sequenceRepository) Next(ctx context.Context) (int64, error) {
	query := `
		INSERT INTO counters (name, value, updated_at)
		VALUES ($1, $2::bigint + 1, now())
		ON CONFLICT (name) DO UPDATE
		SET value = counters.value + 1, updated_at = now()
		RETURNING value
	`

	var value int64
	if err := r.db.QueryRowContext(ctx, query, r.name, domain.AccountNumberStart).Scan(&value); err != nil {
		r.logger.Error("Failed to advance sequence", "sequence", r.name, "error", err)
		return 0, errors.ErrSequenceUnavailable.Wrap(err)
	}
	return value, nil
}
