package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-advisor/internal/idgen"
	"github.com/dvloznov/finance-advisor/internal/jobs"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.AnalyzeUserJob {
	t.Helper()
	var got *jobs.AnalyzeUserJob
	require.Eventually(t, func() bool {
		job, err := store.GetJob(context.Background(), jobID)
		if err != nil {
			return false
		}
		got = job
		return job.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

func TestQueue_PublishAndConsume(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store, WithWorkers(2), WithIDGenerator(idgen.NewSequence("job")))
	defer q.Close()

	seen := make(chan string, 1)
	require.NoError(t, q.Start(context.Background(), func(_ context.Context, job jobs.Job) error {
		seen <- job.(*jobs.AnalyzeUserJob).UserID
		return nil
	}))

	job := &jobs.AnalyzeUserJob{UserID: "u1"}
	require.NoError(t, q.PublishAnalyzeUser(context.Background(), job))
	assert.Equal(t, "job-1", job.JobID)
	assert.Equal(t, jobs.JobStatusPending, job.Status)
	assert.Equal(t, jobs.DefaultMaxRetries, job.MaxRetries)
	assert.False(t, job.CreatedAt.IsZero())

	select {
	case userID := <-seen:
		assert.Equal(t, "u1", userID)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}

	done := waitForStatus(t, store, "job-1", jobs.JobStatusCompleted)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
	assert.Empty(t, done.Error)
}

func TestQueue_RetriesThenFails(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store, WithBackoff(time.Millisecond), WithIDGenerator(idgen.NewSequence("job")))
	defer q.Close()

	var calls atomic.Int32
	require.NoError(t, q.Start(context.Background(), func(context.Context, jobs.Job) error {
		calls.Add(1)
		return errors.New("boom")
	}))

	require.NoError(t, q.PublishAnalyzeUser(context.Background(), &jobs.AnalyzeUserJob{UserID: "u1", MaxRetries: 2}))

	failed := waitForStatus(t, store, "job-1", jobs.JobStatusFailed)
	assert.Equal(t, 2, failed.RetryCount)
	assert.Equal(t, "boom", failed.Error)
	assert.Equal(t, int32(3), calls.Load())
}

func TestQueue_RetrySucceeds(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store, WithBackoff(time.Millisecond), WithIDGenerator(idgen.NewSequence("job")))
	defer q.Close()

	var calls atomic.Int32
	require.NoError(t, q.Start(context.Background(), func(context.Context, jobs.Job) error {
		if calls.Add(1) == 1 {
			return errors.New("transient")
		}
		return nil
	}))

	require.NoError(t, q.PublishAnalyzeUser(context.Background(), &jobs.AnalyzeUserJob{UserID: "u1"}))

	done := waitForStatus(t, store, "job-1", jobs.JobStatusCompleted)
	assert.Equal(t, 1, done.RetryCount)
	assert.Empty(t, done.Error)
}

func TestQueue_PublishAfterStop(t *testing.T) {
	q := NewQueue(1, nil)
	require.NoError(t, q.Stop(context.Background()))
	require.NoError(t, q.Stop(context.Background()))

	err := q.PublishAnalyzeUser(context.Background(), &jobs.AnalyzeUserJob{UserID: "u1"})
	assert.ErrorIs(t, err, jobs.ErrQueueClosed)
	assert.ErrorIs(t, q.Start(context.Background(), func(context.Context, jobs.Job) error { return nil }), jobs.ErrQueueClosed)
}

func TestQueue_PublishRespectsContext(t *testing.T) {
	q := NewQueue(1, nil)
	defer q.Close()

	require.NoError(t, q.PublishAnalyzeUser(context.Background(), &jobs.AnalyzeUserJob{UserID: "u1"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := q.PublishAnalyzeUser(ctx, &jobs.AnalyzeUserJob{UserID: "u2"})
	assert.ErrorIs(t, err, context.Canceled)
}
