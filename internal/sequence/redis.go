// Package sequence provides SequenceGenerator backends that live outside
// the accounts database, plus a retrying decorator usable with any backend.
package sequence

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"banking-ledger/internal/domain"
	"banking-ledger/internal/errors"
)

const keyPrefix = "seq:"

// RedisGenerator advances a counter key with INCR. The key is seeded with
// start on first use, so the first issued number is start+1.
type RedisGenerator struct {
	redis  *redis.Client
	name   string
	start  int64
	logger *slog.Logger
}

var _ domain.SequenceGenerator = (*RedisGenerator)(nil)

func NewRedisGenerator(client *redis.Client, name string, start int64, logger *slog.Logger) *RedisGenerator {
	return &RedisGenerator{
		redis:  client,
		name:   name,
		start:  start,
		logger: logger,
	}
}

func (g *RedisGenerator) key() string {
	return keyPrefix + g.name
}

// Next seeds and increments inside one MULTI/EXEC so concurrent first
// callers cannot both observe the unseeded key.
func (g *RedisGenerator) Next(ctx context.Context) (int64, error) {
	var incr *redis.IntCmd
	_, err := g.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, g.key(), g.start, 0)
		incr = pipe.Incr(ctx, g.key())
		return nil
	})
	if err != nil {
		g.logger.Error("Failed to advance sequence", "sequence", g.name, "error", err)
		return 0, errors.ErrSequenceUnavailable.Wrap(err)
	}
	return incr.Val(), nil
}

// Current returns the last issued value without advancing it, or start when
// nothing has been issued yet.
func (g *RedisGenerator) Current(ctx context.Context) (int64, error) {
	value, err := g.redis.Get(ctx, g.key()).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return g.start, nil
		}
		return 0, errors.ErrSequenceUnavailable.Wrap(err)
	}
	return value, nil
}

// IsTransient reports whether a Redis failure is worth retrying.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
