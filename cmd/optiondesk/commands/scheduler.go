package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/optiondesk/internal/scheduler"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스냅샷 캐시 워밍 스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행 (완료까지 대기)

Example:
  go run ./cmd/optiondesk scheduler start
  go run ./cmd/optiondesk scheduler list
  go run ./cmd/optiondesk scheduler run snapshot_warm`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- snapshot_warm: WARM_SCHEDULE (기본 평일 9-16시 15분마다), WATCHLIST 스냅샷 갱신
- cache_cleanup: 5분마다 (REDIS_ENABLED=false 메모리 캐시일 때만)

Redis가 꺼져 있으면 캐시가 프로세스 안에만 있으므로
api --with-scheduler 로 API 서버와 같은 프로세스에서 실행하세요.

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	warmOnStart bool
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerStartCmd.Flags().BoolVar(&warmOnStart, "warm-now", false, "시작 직후 snapshot_warm 1회 실행")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler(cmd, false)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start()
	if warmOnStart {
		if err := sched.RunJob("snapshot_warm"); err != nil {
			return err
		}
	}

	PrintDoubleSeparator()
	PrintSuccess(fmt.Sprintf("Scheduler started (%d jobs), Ctrl+C to stop", len(sched.GetAllJobs())))
	PrintDoubleSeparator()
	printJobs(sched)

	<-ctx.Done()

	fmt.Println()
	sched.Stop()
	printStats(sched)
	PrintSuccess("Scheduler stopped")
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler(cmd, true)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	name := args[0]

	a, sched, err := initScheduler(cmd, false)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	result, err := sched.RunJobSync(name)
	if err != nil {
		return err
	}

	took := result.Duration.Round(time.Millisecond)
	if !result.Success {
		PrintError(fmt.Sprintf("%s failed after %s (%d attempts): %s", name, took, result.Attempts, result.Error))
		return fmt.Errorf("job %s failed", name)
	}
	PrintSuccess(fmt.Sprintf("%s completed in %s", name, took))
	return nil
}

const statsTimeLayout = "2006-01-02 15:04:05"

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(statsTimeLayout)
}

// printJobs prints one row per registered job
func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()

	table := [][]string{{"Job", "Schedule", "Next Run"}}
	for _, name := range sched.GetAllJobs() {
		stat := stats[name]
		table = append(table, []string{name, stat.Schedule, formatTime(stat.NextRun)})
	}
	PrintTable(table)
}

// printStats prints run counts collected since start
func printStats(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()

	table := [][]string{{"Job", "Runs", "Success", "Failures", "Rate %", "Last Run", "Last Failure"}}
	for _, name := range sched.GetAllJobs() {
		stat := stats[name]
		table = append(table, []string{
			name,
			fmt.Sprint(stat.TotalRuns),
			fmt.Sprint(stat.SuccessCount),
			fmt.Sprint(stat.FailureCount),
			fmt.Sprintf("%.1f", stat.SuccessRate*100),
			formatTime(stat.LastRun),
			formatTime(stat.LastFailure),
		})
	}
	PrintTable(table)
}

// initScheduler loads config, wires the app and registers its jobs
func initScheduler(cmd *cobra.Command, quiet bool) (*app, *scheduler.Scheduler, error) {
	cfg, err := loadConfig(quiet)
	if err != nil {
		return nil, nil, err
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}

	sched, err := a.newScheduler()
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return a, sched, nil
}
