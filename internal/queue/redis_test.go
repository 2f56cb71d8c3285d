package queue

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/contacts/internal/queue/redisclient"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func setupRedisQueue(t *testing.T) *Redis {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	rc := redisclient.New(redisclient.Config{Addr: addr, KeyPrefix: "contacts-test-" + uuid.NewString()})
	t.Cleanup(func() { _ = rc.Close() })

	ctx := context.Background()
	require.NoError(t, rc.Ping(ctx))

	q := NewRedis(rc)
	q.wait = 100 * time.Millisecond
	t.Cleanup(func() { _ = q.client.Del(ctx, q.readyKey, q.delayedKey).Err() })

	return q
}

func TestRedis_DelayedJobPromotedWhenDue(t *testing.T) {
	q := setupRedisQueue(t)
	ctx := context.Background()

	base := time.Now()
	q.now = func() time.Time { return base }

	j := newJob(t, "a@x.com")
	j.RunAt = base.Add(time.Minute)
	require.NoError(t, q.Enqueue(ctx, j))

	_, err := q.Dequeue(ctx)
	require.ErrorIs(t, err, ErrEmpty)

	q.now = func() time.Time { return base.Add(2 * time.Minute) }

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, j.ID, got.ID)

	delayed, err := q.client.ZCard(ctx, q.delayedKey).Result()
	require.NoError(t, err)
	require.Zero(t, delayed)
}

func TestRedis_ReadyJobsInOrder(t *testing.T) {
	q := setupRedisQueue(t)
	ctx := context.Background()

	a := newJob(t, "a@x.com")
	b := newJob(t, "b@x.com")
	require.NoError(t, q.Enqueue(ctx, a))
	require.NoError(t, q.Enqueue(ctx, b))

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)

	got, err = q.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, b.ID, got.ID)
}
