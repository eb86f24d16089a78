package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"banking-ledger/internal/domain"
	"banking-ledger/internal/errors"
	"banking-ledger/internal/repository"
)

// RetryPolicy bounds how often a storage transaction is re-run after a
// transient failure. Business-rule failures are never retried.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 20 * time.Millisecond,
		MaxInterval:     250 * time.Millisecond,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOffContext {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// txRunner runs a unit of work inside a storage transaction, re-running it
// from the start when the store reports a retryable failure.
type txRunner struct {
	store  domain.Store
	policy RetryPolicy
	logger *slog.Logger
}

func (r *txRunner) run(ctx context.Context, op string, fn func(tx domain.Store) error) error {
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := r.store.WithTransaction(ctx, fn)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !repository.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		r.logger.Warn("Transaction failed, retrying",
			"operation", op, "attempt", attempt, "error", err)
		return err
	}, r.policy.backOff(ctx))
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		r.logger.Warn("Transaction abandoned", "operation", op, "error", err)
		return errors.Internal("operation cancelled before commit", err)
	}
	if errors.Is(err, repository.ErrCommitOutcomeUnknown) {
		r.logger.Error("Commit outcome unknown, not retrying", "operation", op, "attempts", attempt, "error", err)
		return errors.From(err)
	}
	if repository.IsConflict(err) {
		r.logger.Error("Retry budget exhausted", "operation", op, "attempts", attempt, "error", err)
		return errors.ErrWriteConflict.Wrap(err).WithField("attempts", attempt)
	}
	if repository.IsRetryable(err) {
		r.logger.Error("Storage unavailable", "operation", op, "attempts", attempt, "error", err)
		return errors.Internal("storage unavailable", err).WithField("attempts", attempt)
	}
	return errors.From(err)
}
