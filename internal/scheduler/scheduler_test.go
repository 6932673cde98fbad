package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/optiondesk/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	failures int32 // 처음 N번 실패
	calls    atomic.Int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	if j.calls.Add(1) <= j.failures {
		return errors.New("upstream unavailable")
	}
	return nil
}

func newTestScheduler(opts ...Option) *Scheduler {
	return New(logger.Nop(), append([]Option{WithRetry(2, time.Millisecond)}, opts...)...)
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&countingJob{name: "b", schedule: "@hourly"}))
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "0 */15 9-16 * * MON-FRI"}))

	assert.Error(t, s.AddJob(&countingJob{name: "a", schedule: "@hourly"}))
	assert.Error(t, s.AddJob(&countingJob{name: "bad", schedule: "every now and then"}))
	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestGetJobStats_NextRun(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&countingJob{name: "warm", schedule: "@hourly"}))
	assert.Nil(t, s.GetJobStats()["warm"].NextRun)

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		next := s.GetJobStats()["warm"].NextRun
		return next != nil && next.After(time.Now())
	}, time.Second, 10*time.Millisecond)
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&countingJob{name: "warm", schedule: "@hourly"}))

	require.NoError(t, s.RemoveJob("warm"))
	assert.Empty(t, s.GetAllJobs())
	assert.Empty(t, s.cron.Entries())
	assert.Error(t, s.RemoveJob("warm"))

	_, err := s.GetJobHistory("warm")
	assert.Error(t, err)
}

func TestRunJobSync_Success(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "warm", schedule: "@hourly"}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync("warm")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Equal(t, int32(1), job.calls.Load())

	history, err := s.GetJobHistory("warm")
	require.NoError(t, err)
	assert.Len(t, history.Results, 1)
}

func TestRunJobSync_Retries(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "flaky", schedule: "@hourly", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync("flaky")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, int32(3), job.calls.Load())
}

func TestRunJobSync_ExhaustsRetries(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "broken", schedule: "@hourly", failures: 100}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync("broken")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "upstream unavailable", result.Error)
	assert.Equal(t, int32(3), job.calls.Load())

	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	require.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestRunJobSync_UnknownJob(t *testing.T) {
	_, err := newTestScheduler().RunJobSync("missing")
	assert.Error(t, err)
	assert.Error(t, newTestScheduler().RunJob("missing"))
}

func TestStop_CancelsRetryWait(t *testing.T) {
	s := New(logger.Nop(), WithRetry(5, time.Hour))
	job := &countingJob{name: "broken", schedule: "@hourly", failures: 100}
	require.NoError(t, s.AddJob(job))

	done := make(chan JobResult, 1)
	go func() {
		result, _ := s.RunJobSync("broken")
		done <- result
	}()

	require.Eventually(t, func() bool { return job.calls.Load() == 1 }, time.Second, time.Millisecond)
	s.Stop()

	select {
	case result := <-done:
		assert.False(t, result.Success)
		assert.Equal(t, context.Canceled.Error(), result.Error)
	case <-time.After(time.Second):
		t.Fatal("retry wait was not cancelled by Stop")
	}
}

func TestJobHistory(t *testing.T) {
	var h JobHistory
	for i := 0; i < 120; i++ {
		h.AddResult(JobResult{JobName: "warm", Success: i%4 != 0})
	}

	assert.Len(t, h.Results, 100)
	assert.Len(t, h.Latest(10), 10)
	assert.Len(t, h.Latest(500), 100)
	assert.Len(t, h.Failed(), 25)
	assert.InDelta(t, 0.75, h.SuccessRate(), 1e-9)

	stats := h.Stats("warm", "@hourly")
	assert.Equal(t, 75, stats.SuccessCount)
	require.NotNil(t, stats.LastSuccess)
	require.NotNil(t, stats.LastFailure)
	assert.Equal(t, 0, (&JobHistory{}).Stats("warm", "@hourly").TotalRuns)
}
