package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-scrapers/internal/adapter/logging"
)

type countingJob struct {
	runs atomic.Int32
	err  error
	ran  chan struct{}
}

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	select {
	case j.ran <- struct{}{}:
	default:
	}
	return j.err
}

func TestRunExecutesImmediatelyAndStops(t *testing.T) {
	job := &countingJob{err: errors.New("hn down"), ran: make(chan struct{}, 1)}
	a := New(job, logging.New(nil), "0 7 * * *")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	select {
	case <-job.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run at startup")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(7 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestRunRejectsBadSchedule(t *testing.T) {
	job := &countingJob{ran: make(chan struct{}, 1)}
	err := New(job, logging.New(nil), "every morning").Run(context.Background())
	require.ErrorContains(t, err, `invalid schedule "every morning"`)
	assert.Equal(t, int32(0), job.runs.Load())
}
