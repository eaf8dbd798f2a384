package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig tunes the distributed lock.
type RedisConfig struct {
	// TTL bounds how long a crashed holder can keep an owner locked.
	TTL time.Duration
	// WaitTimeout bounds how long Lock polls before ErrLockTimeout.
	WaitTimeout time.Duration
	// RetryInterval is the pause between acquisition attempts.
	RetryInterval time.Duration
	// Prefix namespaces the keys.
	Prefix string
}

// DefaultRedisConfig returns the server-mode defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		TTL:           30 * time.Second,
		WaitTimeout:   10 * time.Second,
		RetryInterval: 25 * time.Millisecond,
		Prefix:        "taskgraph:lock",
	}
}

// RedisLocker is an owner lock shared by every process using the same
// Redis. Keys look like taskgraph:lock:owner:{owner_id}.
type RedisLocker struct {
	client redis.UniversalClient
	config RedisConfig
	logger *slog.Logger
}

// NewRedisLocker creates a locker on client.
func NewRedisLocker(client redis.UniversalClient, config RedisConfig, logger *slog.Logger) *RedisLocker {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultRedisConfig()
	if config.TTL <= 0 {
		config.TTL = defaults.TTL
	}
	if config.WaitTimeout <= 0 {
		config.WaitTimeout = defaults.WaitTimeout
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = defaults.RetryInterval
	}
	if config.Prefix == "" {
		config.Prefix = defaults.Prefix
	}
	return &RedisLocker{client: client, config: config, logger: logger}
}

func (l *RedisLocker) key(owner uuid.UUID) string {
	return fmt.Sprintf("%s:owner:%s", l.config.Prefix, owner)
}

func (l *RedisLocker) Lock(ctx context.Context, owner uuid.UUID) (Unlock, error) {
	key := l.key(owner)
	token := uuid.NewString()
	deadline := time.Now().Add(l.config.WaitTimeout)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.config.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire owner lock: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.config.RetryInterval):
		}
	}

	return func() {
		// Release must run even when the caller's ctx was cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("failed to release owner lock", "owner_id", owner, "error", err)
		}
	}, nil
}

// Ping checks the Redis connection.
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
