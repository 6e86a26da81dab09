package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	appinvoicing "github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/application/invoicing"
	"go.uber.org/zap"
)

// releaseScript deletes the lock only if this holder still owns it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard serializes mutations per key across instances.
// Each hold is a SET NX PX entry whose value is a random token.
type RedisGuard struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	wait      time.Duration
	retry     time.Duration
	logger    *zap.Logger
}

// RedisGuardOption configures a RedisGuard
type RedisGuardOption func(*RedisGuard)

// WithKeyPrefix sets the namespace of lock keys
func WithKeyPrefix(prefix string) RedisGuardOption {
	return func(g *RedisGuard) { g.keyPrefix = prefix }
}

// WithRetryInterval sets the polling interval while a key is held
func WithRetryInterval(d time.Duration) RedisGuardOption {
	return func(g *RedisGuard) { g.retry = d }
}

// WithLogger sets the logger used for release failures
func WithLogger(l *zap.Logger) RedisGuardOption {
	return func(g *RedisGuard) { g.logger = l }
}

// NewRedisGuard creates a distributed guard. ttl bounds how long a crashed
// holder keeps a key, wait bounds how long Acquire polls.
func NewRedisGuard(client redis.UniversalClient, ttl, wait time.Duration, opts ...RedisGuardOption) *RedisGuard {
	g := &RedisGuard{
		client:    client,
		keyPrefix: "sa:lock:",
		ttl:       ttl,
		wait:      wait,
		retry:     25 * time.Millisecond,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Acquire polls until key is set for this holder or the wait expires
func (g *RedisGuard) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := g.keyPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(g.wait)

	for {
		ok, err := g.client.SetNX(ctx, lockKey, token, g.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return g.releaser(lockKey, token), nil
		}
		if !time.Now().Before(deadline) {
			return nil, appinvoicing.ErrInvoiceBusy
		}

		timer := time.NewTimer(g.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (g *RedisGuard) releaser(lockKey, token string) func() {
	return func() {
		// release must run even if the request context was cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, g.client, []string{lockKey}, token).Err(); err != nil {
			g.logger.Warn("Failed to release lock",
				zap.String("key", lockKey),
				zap.Error(err))
		}
	}
}

var _ appinvoicing.MutationGuard = (*RedisGuard)(nil)
