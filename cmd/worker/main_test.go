package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-advisor/internal/jobs"
	"github.com/dvloznov/finance-advisor/internal/jobs/inmemory"
)

func TestSplitUsers(t *testing.T) {
	assert.Equal(t, []string{"u1", "u2"}, splitUsers(" u1, ,u2,"))
	assert.Empty(t, splitUsers(""))
}

func TestRunBatch(t *testing.T) {
	store := inmemory.NewStore()
	q := inmemory.NewQueue(10, store, inmemory.WithBackoff(time.Millisecond))
	defer q.Close()

	require.NoError(t, q.Start(context.Background(), func(_ context.Context, job jobs.Job) error {
		if job.(*jobs.AnalyzeUserJob).UserID == "bad" {
			return errors.New("boom")
		}
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	completed, failed, err := runBatch(ctx, q, store, []string{"u1", "u2", "bad"})
	require.NoError(t, err)
	assert.Equal(t, 2, completed)
	assert.Equal(t, 1, failed)
}
