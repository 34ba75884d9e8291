package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisLockSingleHolder(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	a := NewRedisLock(client, "campaign-scheduler", time.Minute)
	b := NewRedisLock(client, "campaign-scheduler", time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must not acquire")

	require.NoError(t, a.Release(ctx))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "lock acquirable after release")
}

func TestRedisLockReleaseRequiresOwnership(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	a := NewRedisLock(client, "campaign-scheduler", 50*time.Millisecond)
	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// TTL expires and another instance takes over.
	mr.FastForward(100 * time.Millisecond)
	b := NewRedisLock(client, "campaign-scheduler", time.Minute)
	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// The stale holder's release must not evict the new owner.
	require.NoError(t, a.Release(ctx))
	ok, err = NewRedisLock(client, "campaign-scheduler", time.Minute).Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
