package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niyax/cvm/backend/internal/scheduler/jobs"
	"github.com/niyax/cvm/backend/pkg/logger"
)

type countingJob struct {
	name     string
	failures int32
	calls    atomic.Int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return "0 0 0 1 1 *" }

func (j *countingJob) Run(context.Context) error {
	if j.calls.Add(1) <= j.failures {
		return errors.New("boom")
	}
	return nil
}

type counterStub struct {
	n   int
	err error
}

func (c counterStub) Count(context.Context) (int, error) { return c.n, c.err }

func TestScheduler_AddRemove(t *testing.T) {
	s := New(logger.Nop())

	require.NoError(t, s.AddJob(&countingJob{name: "b"}))
	require.NoError(t, s.AddJob(&countingJob{name: "a"}))
	assert.Error(t, s.AddJob(&countingJob{name: "a"}))
	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetAllJobs())
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := New(logger.Nop())
	err := s.AddJob(jobs.NewSessionSnapshotJob(counterStub{}, "every minute", logger.Nop()))
	assert.Error(t, err)
}

func TestScheduler_RunJobRetries(t *testing.T) {
	s := New(logger.Nop(), WithRetry(2, time.Millisecond))
	job := &countingJob{name: "flaky", failures: 2}
	require.NoError(t, s.AddJob(job))

	res, err := s.RunJob("flaky")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int32(3), job.calls.Load())

	_, err = s.RunJob("missing")
	assert.Error(t, err)
}

func TestScheduler_RunJobExhaustsRetries(t *testing.T) {
	s := New(logger.Nop(), WithRetry(1, time.Millisecond))
	job := &countingJob{name: "broken", failures: 100}
	require.NoError(t, s.AddJob(job))

	res, err := s.RunJob("broken")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "boom", res.Error)
	assert.Equal(t, int32(2), job.calls.Load())

	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestScheduler_StopCancelsRetries(t *testing.T) {
	s := New(logger.Nop(), WithRetry(5, time.Hour))
	job := &countingJob{name: "slow", failures: 100}
	require.NoError(t, s.AddJob(job))
	s.Start()
	s.Stop()

	done := make(chan JobResult, 1)
	go func() {
		res, _ := s.RunJob("slow")
		done <- res
	}()

	select {
	case res := <-done:
		assert.False(t, res.Success)
	case <-time.After(5 * time.Second):
		t.Fatal("retry loop ignored stop")
	}
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.GetSuccessRate())
	assert.Empty(t, h.GetLatestResults(5))

	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}
	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(3), 3)
	assert.Len(t, h.GetFailedResults(), maxHistory/2)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
}

func TestSessionSnapshotJob(t *testing.T) {
	job := jobs.NewSessionSnapshotJob(counterStub{n: 4}, "", logger.Nop())
	assert.Equal(t, "session_snapshot", job.Name())
	assert.Equal(t, "0 */5 * * * *", job.Schedule())
	assert.NoError(t, job.Run(context.Background()))

	failing := jobs.NewSessionSnapshotJob(counterStub{err: errors.New("redis down")}, "", logger.Nop())
	assert.ErrorContains(t, failing.Run(context.Background()), "redis down")
}
