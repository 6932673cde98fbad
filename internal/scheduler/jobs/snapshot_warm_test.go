package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/optiondesk/internal/contracts"
	"github.com/wonny/optiondesk/pkg/logger"
)

type fakeRefresher struct {
	errs    map[string]error
	symbols []string
}

func (f *fakeRefresher) Refresh(ctx context.Context, symbol string) (*contracts.TickerSnapshot, error) {
	f.symbols = append(f.symbols, symbol)
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	return &contracts.TickerSnapshot{Symbol: symbol}, nil
}

func TestNewSnapshotWarmJob(t *testing.T) {
	job := NewSnapshotWarmJob(&fakeRefresher{}, []string{"spx", " NDX ", "", "SPX"}, "0 */15 * * * *", logger.Nop())

	assert.Equal(t, "snapshot_warm", job.Name())
	assert.Equal(t, "0 */15 * * * *", job.Schedule())
	assert.Equal(t, []string{"SPX", "NDX"}, job.Watchlist())
}

func TestSnapshotWarmJob_Run(t *testing.T) {
	refresher := &fakeRefresher{}
	job := NewSnapshotWarmJob(refresher, []string{"SPX", "QQQ"}, "@hourly", logger.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"SPX", "QQQ"}, refresher.symbols)
}

func TestSnapshotWarmJob_NoDataIsSkipped(t *testing.T) {
	refresher := &fakeRefresher{errs: map[string]error{
		"ZZZ": fmt.Errorf("ZZZ: %w", contracts.ErrNoData),
	}}
	job := NewSnapshotWarmJob(refresher, []string{"ZZZ", "SPX"}, "@hourly", logger.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"ZZZ", "SPX"}, refresher.symbols)
}

func TestSnapshotWarmJob_FailuresContinue(t *testing.T) {
	upstream := errors.New("connection reset")
	refresher := &fakeRefresher{errs: map[string]error{
		"SPX": upstream,
		"NDX": contracts.ErrNoParseableContracts,
	}}
	job := NewSnapshotWarmJob(refresher, []string{"SPX", "NDX", "QQQ"}, "@hourly", logger.Nop())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, upstream)
	assert.ErrorIs(t, err, contracts.ErrNoParseableContracts)
	assert.Contains(t, err.Error(), "SPX")
	assert.Equal(t, []string{"SPX", "NDX", "QQQ"}, refresher.symbols)
}

func TestSnapshotWarmJob_Cancelled(t *testing.T) {
	refresher := &fakeRefresher{}
	job := NewSnapshotWarmJob(refresher, []string{"SPX"}, "@hourly", logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, job.Run(ctx), context.Canceled)
	assert.Empty(t, refresher.symbols)
}

type fakeCleaner struct{ calls int }

func (f *fakeCleaner) CleanStale() int {
	f.calls++
	return 2
}

func (f *fakeCleaner) Len() int { return 1 }

func TestCacheCleanupJob(t *testing.T) {
	cleaner := &fakeCleaner{}
	job := NewCacheCleanupJob(cleaner, "", logger.Nop())

	assert.Equal(t, "cache_cleanup", job.Name())
	assert.Equal(t, "0 */5 * * * *", job.Schedule())
	assert.Equal(t, "@hourly", NewCacheCleanupJob(cleaner, "@hourly", logger.Nop()).Schedule())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, cleaner.calls)
}
