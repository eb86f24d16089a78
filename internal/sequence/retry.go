package sequence

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"banking-ledger/internal/domain"
)

// Retrying retries a generator on transient failures. Numbers stay unique
// across retries; an attempt that failed after incrementing leaves a gap.
type Retrying struct {
	next        domain.SequenceGenerator
	maxAttempts uint64
	retryable   func(error) bool
	logger      *slog.Logger
}

var _ domain.SequenceGenerator = (*Retrying)(nil)

func NewRetrying(next domain.SequenceGenerator, maxAttempts int, retryable func(error) bool, logger *slog.Logger) *Retrying {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retrying{
		next:        next,
		maxAttempts: uint64(maxAttempts),
		retryable:   retryable,
		logger:      logger,
	}
}

func (r *Retrying) Next(ctx context.Context) (int64, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 200 * time.Millisecond

	attempt := 0
	return backoff.RetryWithData(func() (int64, error) {
		attempt++
		value, err := r.next.Next(ctx)
		if err == nil {
			return value, nil
		}
		if ctx.Err() != nil || !r.retryable(err) {
			return 0, backoff.Permanent(err)
		}
		r.logger.Warn("Sequence increment failed, retrying", "attempt", attempt, "error", err)
		return 0, err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, r.maxAttempts-1), ctx))
}
