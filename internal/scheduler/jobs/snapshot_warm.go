package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wonny/optiondesk/internal/contracts"
	"github.com/wonny/optiondesk/pkg/logger"
)

// Refresher rebuilds and caches the snapshot for one ticker
type Refresher interface {
	Refresh(ctx context.Context, symbol string) (*contracts.TickerSnapshot, error)
}

// SnapshotWarmJob refreshes cached snapshots for the watchlist
type SnapshotWarmJob struct {
	refresher Refresher
	watchlist []string
	schedule  string
	logger    *logger.Logger
}

// NewSnapshotWarmJob creates a new snapshot warm job
func NewSnapshotWarmJob(refresher Refresher, watchlist []string, schedule string, log *logger.Logger) *SnapshotWarmJob {
	symbols := make([]string, 0, len(watchlist))
	seen := make(map[string]bool, len(watchlist))
	for _, s := range watchlist {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		symbols = append(symbols, s)
	}

	return &SnapshotWarmJob{
		refresher: refresher,
		watchlist: symbols,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *SnapshotWarmJob) Name() string {
	return "snapshot_warm"
}

// Schedule returns the cron schedule (WARM_SCHEDULE)
func (j *SnapshotWarmJob) Schedule() string {
	return j.schedule
}

// Watchlist returns the normalized symbols the job refreshes
func (j *SnapshotWarmJob) Watchlist() []string {
	return append([]string(nil), j.watchlist...)
}

// Run refreshes every watchlist symbol.
// 심볼 하나가 실패해도 나머지는 계속 진행. ErrNoData 심볼은 실패로 보지 않음
func (j *SnapshotWarmJob) Run(ctx context.Context) error {
	j.logger.WithField("symbols", len(j.watchlist)).Debug("Starting snapshot warm")

	var errs []error
	warmed := 0
	for _, symbol := range j.watchlist {
		if err := ctx.Err(); err != nil {
			return err
		}

		snapshot, err := j.refresher.Refresh(ctx, symbol)
		switch {
		case err == nil:
			warmed++
			j.logger.WithTicker(symbol).WithFields(map[string]interface{}{
				"contracts":   len(snapshot.Chain),
				"expirations": len(snapshot.ByExpiration),
			}).Debug("Snapshot warmed")
		case errors.Is(err, contracts.ErrNoData):
			j.logger.WithTicker(symbol).Warn("No data for watchlist symbol, skipped")
		default:
			errs = append(errs, fmt.Errorf("%s: %w", symbol, err))
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"warmed": warmed,
		"failed": len(errs),
	}).Info("Snapshot warm completed")

	return errors.Join(errs...)
}
