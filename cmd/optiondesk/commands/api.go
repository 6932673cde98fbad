package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/optiondesk/internal/api"
	"github.com/wonny/optiondesk/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

스냅샷은 Redis에 SNAPSHOT_TTL 동안 캐시되며,
캐시 미스 시 CBOE에서 다시 받아 파이프라인을 실행합니다.

Endpoints:
  GET  /health                              - Health check
  GET  /api/tickers/{symbol}                - 전체 스냅샷
  GET  /api/tickers/{symbol}/details        - 기초자산 요약 + IV 히스토리
  GET  /api/tickers/{symbol}/chain          - 옵션 체인 (?type=call|put&expiration=YYYY-MM-DD)
  GET  /api/tickers/{symbol}/expirations    - 만기별 노출
  GET  /api/tickers/{symbol}/strikes        - 행사가별 노출
  GET  /api/tickers/{symbol}/skew           - IV 스큐
  GET  /api/symbols/{identifier}/decode     - 계약 식별자 디코드

Example:
  go run ./cmd/optiondesk api
  go run ./cmd/optiondesk api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort       string
	withScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default is PORT)")
	apiCmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "같은 프로세스에서 캐시 워밍 스케줄러 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== optiondesk API Server ===")

	// 1. Load config
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Wire dependencies
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	a.log.WithFields(map[string]interface{}{
		"port":  cfg.Port,
		"env":   cfg.Env,
		"redis": a.redis.Enabled(),
	}).Info("Initializing API server")

	// 3. Create handler, router, server
	tickerHandler := handlers.NewTickerHandler(a.service, a.log)
	router := api.NewRouter(tickerHandler, a.log)
	server := api.New(cfg, a.log, router)

	// 4. Optional in-process scheduler
	if withScheduler {
		sched, err := a.newScheduler()
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// 5. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	a.log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
