// Package synclock keeps two catalog syncs from running at the same time.
package synclock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/duecard/internal/catalog"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a crashed sync can hold the lock.
const DefaultTTL = 10 * time.Minute

// ErrLocked indicates another holder owns the lock.
var ErrLocked = errors.New("sync lock is held by another process")

var (
	_ catalog.Locker = (*RedisLocker)(nil)
	_ catalog.Locker = NoopLocker{}
)

// releaseScript deletes the key only while it still holds our token, so an expired
// lock re-acquired by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements catalog.Locker with SET NX and a TTL.
type RedisLocker struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisLocker connects to the redis server at addr and checks it is reachable.
func NewRedisLocker(ctx context.Context, addr string, logger *slog.Logger) (*RedisLocker, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &RedisLocker{client: client, logger: logger}, nil
}

// Acquire takes the lock for ttl, or fails with ErrLocked.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrLocked)
	}

	l.logger.Debug("Acquired sync lock", "key", key, "ttl", ttl)

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be cancelled.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
				l.logger.Warn("Failed to release sync lock", "key", key, "error", err)
				return
			}
			l.logger.Debug("Released sync lock", "key", key)
		})
	}, nil
}

// Close closes the redis connection.
func (l *RedisLocker) Close() error {
	return l.client.Close()
}

// NoopLocker always succeeds. It is used when no redis address is configured.
type NoopLocker struct{}

// Acquire implements catalog.Locker.
func (NoopLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}
