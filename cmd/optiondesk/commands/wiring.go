package commands

import (
	"context"
	"fmt"

	"github.com/wonny/optiondesk/internal/analytics"
	"github.com/wonny/optiondesk/internal/analyticsconfig"
	"github.com/wonny/optiondesk/internal/cache"
	"github.com/wonny/optiondesk/internal/contracts"
	"github.com/wonny/optiondesk/internal/external/cboe"
	"github.com/wonny/optiondesk/internal/scheduler"
	"github.com/wonny/optiondesk/internal/scheduler/jobs"
	"github.com/wonny/optiondesk/pkg/config"
	"github.com/wonny/optiondesk/pkg/httputil"
	"github.com/wonny/optiondesk/pkg/logger"
	"github.com/wonny/optiondesk/pkg/redis"
)

// keyPrefix namespaces cache and rate limit keys shared by api and scheduler
const keyPrefix = "optiondesk"

// app holds the dependencies shared by commands
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	redis   *redis.Client
	service *analytics.Service

	// memCache is set only when Redis is disabled
	memCache *cache.SnapshotCache
}

// loadConfig reads env config and applies global flags.
// quiet=true: 표 출력 명령은 --verbose 없으면 warn 이상만 로깅
func loadConfig(quiet bool) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if analyticsConfig != "" {
		cfg.Analytics.ConfigPath = analyticsConfig
	}
	switch {
	case verbose:
		cfg.LogLevel = "debug"
	case quiet:
		cfg.LogLevel = "warn"
	}
	return cfg, nil
}

// newApp wires logger → analytics config → redis → http client → CBOE reference/provider → analytics service
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	// 1. Initialize logger
	log := logger.New(cfg)

	// 2. Load analytics parameters (네트워크 호출 전에 검증)
	acfg, err := analyticsconfig.LoadOrDefault(cfg.Analytics.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load analytics config: %w", err)
	}
	for _, w := range analyticsconfig.Warn(acfg) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	// 3. Connect to Redis (disabled client when REDIS_ENABLED=false)
	rdb, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	refCache := redis.NewCache(rdb, keyPrefix)

	// 4. Create HTTP client (local token bucket + shared Redis limit)
	httpClient := httputil.New(cfg, log).
		WithRateLimiter(redis.NewRateLimiter(rdb, keyPrefix), redis.CBOERateLimit(cfg.CBOE.RatePerSec))

	// 5. Build reference lookup (exceptions, index list, symbol directory)
	endpoints := cboe.EndpointsFromConfig(cfg)
	lookup := cboe.NewDirectory(httpClient, endpoints, log).
		WithCache(refCache).
		WithListingFile(cfg.CBOE.DirectoryCSV).
		Lookup(ctx, cfg.Analytics.TickerExceptions)

	// 6. Create quote provider
	provider := cboe.NewClient(httpClient, lookup, endpoints, log)

	// 7. Create builder and service
	builder, err := analytics.NewBuilder(acfg, lookup, log)
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("create builder: %w", err)
	}

	// 8. Snapshot cache: Redis 공유 캐시, 없으면 프로세스 메모리
	var (
		snapshots contracts.SnapshotCache
		memCache  *cache.SnapshotCache
	)
	if rdb.Enabled() {
		snapshots = redis.NewSnapshotStore(refCache, cfg.Analytics.SnapshotTTL)
	} else {
		memCache = cache.NewSnapshotCache(cfg.Analytics.SnapshotTTL, log)
		snapshots = memCache
	}
	service := analytics.NewService(provider, snapshots, builder, log)

	return &app{
		cfg:      cfg,
		log:      log,
		redis:    rdb,
		service:  service,
		memCache: memCache,
	}, nil
}

// newScheduler registers snapshot_warm (+ cache_cleanup for the memory cache)
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	warm := jobs.NewSnapshotWarmJob(a.service, a.cfg.Analytics.Watchlist, a.cfg.Analytics.WarmSchedule, a.log)
	if err := sched.AddJob(warm); err != nil {
		return nil, err
	}

	if a.memCache != nil {
		if err := sched.AddJob(jobs.NewCacheCleanupJob(a.memCache, "", a.log)); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

// Close releases the Redis connection
func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
}
