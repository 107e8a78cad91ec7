// Package lock provides a Redis-backed ordering.Locker so that several server
// instances sharing one database serialize moves within a group.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL bounds how long a crashed holder can block a group.
	DefaultTTL = 10 * time.Second

	defaultPrefix   = "tablero:lock:"
	minPollInterval = 5 * time.Millisecond
	maxPollInterval = 200 * time.Millisecond
	releaseTimeout  = 2 * time.Second
)

// ErrLockLost is logged when a release finds the key owned by someone else,
// which means the TTL expired while the holder was still working.
var ErrLockLost = errors.New("lock expired before release")

// release deletes the key only while it still holds our token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements ordering.Locker with SET NX PX and a token-checked release.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// NewRedisLocker creates a locker. A non-positive ttl uses DefaultTTL.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{client: client, ttl: ttl, prefix: defaultPrefix, logger: logger}
}

// Lock polls until the key is acquired or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()
	wait := minPollInterval

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		wait *= 2
		if wait > maxPollInterval {
			wait = maxPollInterval
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.unlock(redisKey, token) })
	}, nil
}

func (l *RedisLocker) unlock(redisKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	n, err := release.Run(ctx, l.client, []string{redisKey}, token).Int()
	if err != nil {
		l.logger.Error("failed to release lock", "key", redisKey, "error", err)
		return
	}
	if n == 0 {
		l.logger.Warn("lock released after expiry", "key", redisKey, "error", ErrLockLost)
	}
}
