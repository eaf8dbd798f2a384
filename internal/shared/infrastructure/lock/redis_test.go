package lock_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/lock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestRedisLocker_LockAndRelease(t *testing.T) {
	cfg := lock.DefaultRedisConfig()
	cfg.WaitTimeout = 100 * time.Millisecond
	cfg.Prefix = "taskgraph:test:" + uuid.NewString()
	locker := lock.NewRedisLocker(newRedisClient(t), cfg, nil)
	owner := uuid.New()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, owner)
	require.NoError(t, err)

	_, err = locker.Lock(ctx, owner)
	assert.ErrorIs(t, err, lock.ErrLockTimeout)

	other, err := locker.Lock(ctx, uuid.New())
	require.NoError(t, err)
	other()

	unlock()
	again, err := locker.Lock(ctx, owner)
	require.NoError(t, err)
	again()
}

func TestRedisLocker_ExpiredLockIsNotReleasedByOldHolder(t *testing.T) {
	cfg := lock.DefaultRedisConfig()
	cfg.TTL = 50 * time.Millisecond
	cfg.WaitTimeout = 200 * time.Millisecond
	cfg.Prefix = "taskgraph:test:" + uuid.NewString()
	client := newRedisClient(t)
	locker := lock.NewRedisLocker(client, cfg, nil)
	owner := uuid.New()
	ctx := context.Background()

	stale, err := locker.Lock(ctx, owner)
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	cfg.TTL = 5 * time.Second
	fresh, err := lock.NewRedisLocker(client, cfg, nil).Lock(ctx, owner)
	require.NoError(t, err)
	stale()

	cfg.WaitTimeout = 10 * time.Millisecond
	impatient := lock.NewRedisLocker(client, cfg, nil)
	_, err = impatient.Lock(ctx, owner)
	assert.ErrorIs(t, err, lock.ErrLockTimeout, "stale release must not drop the fresh lock")
	fresh()
}
