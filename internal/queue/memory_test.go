package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/contacts/internal/jobs"
	"github.com/stretchr/testify/require"
)

func newJob(t *testing.T, email string) jobs.Job {
	t.Helper()
	j, err := jobs.New(jobs.JobSendVerificationEmail, jobs.SendVerificationEmailPayload{
		Email:             email,
		VerificationToken: "tok",
	})
	require.NoError(t, err)
	return j
}

func TestMemory_FIFO(t *testing.T) {
	q := NewMemory()
	ctx := context.Background()

	a := newJob(t, "a@x.com")
	b := newJob(t, "b@x.com")
	require.NoError(t, q.Enqueue(ctx, a))
	require.NoError(t, q.Enqueue(ctx, b))
	require.Len(t, q.Pending(), 2)

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)

	got, err = q.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, b.ID, got.ID)
}

func TestMemory_EmptyTimesOut(t *testing.T) {
	q := NewMemory()
	q.wait = 20 * time.Millisecond

	_, err := q.Dequeue(context.Background())
	require.True(t, errors.Is(err, ErrEmpty), "got %v", err)
}

func TestMemory_DelayedJobHeldUntilDue(t *testing.T) {
	q := NewMemory()
	q.wait = 20 * time.Millisecond

	now := time.Now()
	q.now = func() time.Time { return now }

	j := newJob(t, "a@x.com")
	j.RunAt = now.Add(time.Minute)
	require.NoError(t, q.Enqueue(context.Background(), j))

	_, err := q.Dequeue(context.Background())
	require.ErrorIs(t, err, ErrEmpty)

	now = now.Add(2 * time.Minute)

	got, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, j.ID, got.ID)
}

func TestMemory_DequeueHonoursCancel(t *testing.T) {
	q := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Dequeue(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
