package scheduler

import (
	"context"
	"time"
)

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job; ctx is cancelled when the scheduler stops
	Run(ctx context.Context) error

	// Schedule returns the cron expression with a leading seconds field,
	// e.g. "0 */15 9-16 * * MON-FRI" or "@hourly"
	Schedule() string
}

// JobResult is one execution of a job, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// maxHistory is how many results each job keeps
const maxHistory = 100

// JobHistory keeps the most recent results of one job, oldest first
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result, dropping the oldest past maxHistory
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if over := len(h.Results) - maxHistory; over > 0 {
		h.Results = append(h.Results[:0:0], h.Results[over:]...)
	}
}

// Latest returns up to n most recent results (copy)
func (h *JobHistory) Latest(n int) []JobResult {
	n = min(n, len(h.Results))
	return append([]JobResult(nil), h.Results[len(h.Results)-n:]...)
}

// Failed returns the failed results (copy)
func (h *JobHistory) Failed() []JobResult {
	failed := make([]JobResult, 0)
	for _, r := range h.Results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}

// SuccessRate returns successes / runs, 0 with no runs
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	return float64(len(h.Results)-len(h.Failed())) / float64(len(h.Results))
}

// Stats summarizes the history of one job
func (h *JobHistory) Stats(jobName, schedule string) JobStats {
	stats := JobStats{
		JobName:      jobName,
		Schedule:     schedule,
		TotalRuns:    len(h.Results),
		FailureCount: len(h.Failed()),
		SuccessRate:  h.SuccessRate(),
	}
	stats.SuccessCount = stats.TotalRuns - stats.FailureCount

	// 최신 → 과거 순으로 마지막 성공/실패 시각 탐색
	for i := len(h.Results) - 1; i >= 0; i-- {
		r := h.Results[i]
		start := r.StartTime
		if stats.LastRun == nil {
			stats.LastRun = &start
		}
		if r.Success && stats.LastSuccess == nil {
			stats.LastSuccess = &start
		}
		if !r.Success && stats.LastFailure == nil {
			stats.LastFailure = &start
		}
	}
	return stats
}

// JobStats represents statistics for a job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
	NextRun      *time.Time `json:"next_run,omitempty"`
}
