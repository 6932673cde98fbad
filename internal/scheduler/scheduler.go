package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/optiondesk/pkg/logger"
)

// entry is a registered job and its execution history
type entry struct {
	job     Job
	id      cron.EntryID
	history JobHistory
}

// Scheduler runs registered jobs on their cron schedules with retries
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	entries map[string]*entry
	mu      sync.RWMutex

	// Stop 시 실행 중인 작업/재시도 대기 취소
	ctx    context.Context
	cancel context.CancelFunc

	maxRetries int
	retryDelay time.Duration
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithRetry sets how often and how long apart failed jobs are retried
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(s *Scheduler) {
		s.maxRetries = maxRetries
		s.retryDelay = delay
	}
}

// New creates a scheduler (3 retries, 1 minute apart by default)
func New(log *logger.Logger, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		logger:     log,
		entries:    make(map[string]*entry),
		ctx:        ctx,
		cancel:     cancel,
		maxRetries: 3,
		retryDelay: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob registers a job under its name
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() { s.runJob(job) })
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}
	s.entries[name] = &entry{job: job, id: id}

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")
	return nil
}

// RemoveJob unschedules a job and drops its history
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}
	s.cron.Remove(e.id)
	delete(s.entries, name)

	s.logger.WithField("job", name).Info("Job removed from scheduler")
	return nil
}

// Start starts the cron loop
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// RunJob starts a job immediately in the background
func (s *Scheduler) RunJob(name string) error {
	job, err := s.lookup(name)
	if err != nil {
		return err
	}
	go s.runJob(job)
	return nil
}

// RunJobSync runs a job immediately and waits for its result
func (s *Scheduler) RunJobSync(name string) (JobResult, error) {
	job, err := s.lookup(name)
	if err != nil {
		return JobResult{}, err
	}
	return s.runJob(job), nil
}

func (s *Scheduler) lookup(name string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[name]
	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}
	return e.job, nil
}

// runJob executes a job with retries and records the result
func (s *Scheduler) runJob(job Job) JobResult {
	name := job.Name()
	log := s.logger.WithField("job", name)
	log.Info("Job started")

	start := time.Now()
	attempts, err := s.attempt(job, log)
	end := time.Now()

	result := JobResult{
		JobName:   name,
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
		Attempts:  attempts,
		Success:   err == nil,
	}
	if err != nil {
		result.Error = err.Error()
	}

	s.mu.Lock()
	if e, exists := s.entries[name]; exists {
		e.history.AddResult(result)
	}
	s.mu.Unlock()

	log = log.WithFields(map[string]interface{}{
		"duration": result.Duration,
		"attempts": attempts,
	})
	if err != nil {
		log.WithError(err).Error("Job failed after all retries")
	} else {
		log.Info("Job completed successfully")
	}
	return result
}

// attempt runs the job up to maxRetries+1 times; the wait between tries ends on Stop
func (s *Scheduler) attempt(job Job, log *logger.Logger) (int, error) {
	var err error
	for n := 1; ; n++ {
		if err = job.Run(s.ctx); err == nil {
			return n, nil
		}
		if n > s.maxRetries {
			return n, err
		}

		log.WithFields(map[string]interface{}{
			"attempt": n,
			"error":   err.Error(),
		}).Warn("Job execution failed, retrying")

		select {
		case <-s.ctx.Done():
			return n, s.ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}
}

// GetJobHistory returns a copy of a job's history
func (s *Scheduler) GetJobHistory(name string) (*JobHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[name]
	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}
	return &JobHistory{Results: e.history.Latest(maxHistory)}, nil
}

// GetAllJobs returns registered job names, sorted
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetJobStats returns statistics for all jobs
func (s *Scheduler) GetJobStats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats, len(s.entries))
	for name, e := range s.entries {
		stat := e.history.Stats(name, e.job.Schedule())
		// Start 전에는 Next가 zero
		if next := s.cron.Entry(e.id).Next; !next.IsZero() {
			stat.NextRun = &next
		}
		stats[name] = stat
	}
	return stats
}
