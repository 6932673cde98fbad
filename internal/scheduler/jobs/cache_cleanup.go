package jobs

import (
	"context"

	"github.com/wonny/optiondesk/pkg/logger"
)

// StaleCleaner is the in-process snapshot cache seen by the cleanup job
type StaleCleaner interface {
	CleanStale() int
	Len() int
}

// CacheCleanupJob evicts snapshots older than SNAPSHOT_TTL.
// Redis는 키 TTL로 만료되므로 메모리 캐시일 때만 등록
type CacheCleanupJob struct {
	cache    StaleCleaner
	schedule string
	logger   *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job (every 5 minutes when schedule is empty)
func NewCacheCleanupJob(cache StaleCleaner, schedule string, log *logger.Logger) *CacheCleanupJob {
	if schedule == "" {
		schedule = "0 */5 * * * *"
	}
	return &CacheCleanupJob{
		cache:    cache,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule
func (j *CacheCleanupJob) Schedule() string {
	return j.schedule
}

// Run executes the cache cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	removed := j.cache.CleanStale()

	j.logger.WithFields(map[string]interface{}{
		"removed":   removed,
		"remaining": j.cache.Len(),
	}).Debug("Snapshot cache cleanup completed")

	return ctx.Err()
}
