package assignment

import (
	"context"
	"time"

	apperrors "consultant-workflow/internal/common/errors"
	"consultant-workflow/internal/common/logger"
	"consultant-workflow/internal/common/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CapacityGuard serializes automatic assignment within a sector so that two
// concurrent selections cannot both take a consultant's last free slot.
type CapacityGuard interface {
	// Acquire blocks until the sector is held. release must always be called.
	Acquire(ctx context.Context, sectorID string) (release func(), err error)
}

// NoopGuard never blocks. Concurrent auto-assignments may overshoot a consultant's
// capacity by one.
type NoopGuard struct{}

func (NoopGuard) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

// releaseScript deletes the lock only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const (
	lockKeyPrefix    = "assignment:sector-lock:"
	lockPollInterval = 25 * time.Millisecond
)

// RedisCapacityGuard holds a per-sector lock in Redis (SET NX PX). When Redis itself
// is unreachable the guard degrades to NoopGuard behaviour and logs a warning.
type RedisCapacityGuard struct {
	client   redis.Cmdable
	ttl      time.Duration
	wait     time.Duration
	logger   logger.Logger
	newToken func() string
}

func NewRedisCapacityGuard(client redis.Cmdable, ttl, wait time.Duration, log logger.Logger) *RedisCapacityGuard {
	return &RedisCapacityGuard{
		client:   client,
		ttl:      ttl,
		wait:     wait,
		logger:   logger.ForComponent(log, "capacity-guard"),
		newToken: uuid.NewString,
	}
}

func (g *RedisCapacityGuard) Acquire(ctx context.Context, sectorID string) (func(), error) {
	key := lockKeyPrefix + sectorID
	token := g.newToken()
	start := time.Now()
	deadline := start.Add(g.wait)

	for {
		ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.logger.Warn("capacity lock unavailable, continuing unguarded", map[string]interface{}{
				"sectorId": sectorID,
				"error":    err.Error(),
			})
			return func() {}, nil
		}
		if ok {
			metrics.CapacityLockWait.Observe(time.Since(start).Seconds())
			return g.releaser(key, token, sectorID), nil
		}

		if time.Now().After(deadline) {
			metrics.CapacityLockWait.Observe(time.Since(start).Seconds())
			return nil, apperrors.NewCapacityLockTimeoutError(sectorID)
		}

		timer := time.NewTimer(lockPollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (g *RedisCapacityGuard) releaser(key, token, sectorID string) func() {
	return func() {
		// the caller's context may already be cancelled; the lock must still go
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, g.client, []string{key}, token).Err(); err != nil {
			g.logger.Warn("failed to release capacity lock", map[string]interface{}{
				"sectorId": sectorID,
				"error":    err.Error(),
			})
		}
	}
}
