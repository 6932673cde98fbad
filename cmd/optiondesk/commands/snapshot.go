package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/optiondesk/internal/contracts"
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot <ticker>",
	Short: "티커 스냅샷 조회",
	Long: `티커의 옵션 체인을 받아 파이프라인(S0~S4)을 실행하고 결과 표를 출력합니다.
Redis 캐시가 켜져 있으면 SNAPSHOT_TTL 안의 스냅샷을 재사용합니다.

Tables:
  chain        - 정규화된 옵션 체인
  expirations  - 만기별 노출 (기본)
  strikes      - 행사가별 노출
  skew         - IV 스큐

Example:
  go run ./cmd/optiondesk snapshot SPX
  go run ./cmd/optiondesk snapshot AAPL --table skew
  go run ./cmd/optiondesk snapshot NDX --table chain --csv ndx_chain.csv
  go run ./cmd/optiondesk snapshot SPY --json --refresh`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshot,
}

var (
	snapshotTable   string
	snapshotCSV     string
	snapshotJSON    bool
	snapshotRefresh bool
)

func init() {
	rootCmd.AddCommand(snapshotCmd)

	// Flags
	snapshotCmd.Flags().StringVar(&snapshotTable, "table", "expirations", "출력할 표 (chain|expirations|strikes|skew)")
	snapshotCmd.Flags().StringVar(&snapshotCSV, "csv", "", "표를 CSV 파일로 저장")
	snapshotCmd.Flags().BoolVar(&snapshotJSON, "json", false, "전체 스냅샷을 JSON으로 출력")
	snapshotCmd.Flags().BoolVar(&snapshotRefresh, "refresh", false, "캐시 무시하고 다시 계산")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	symbol := strings.ToUpper(strings.TrimSpace(args[0]))
	table := strings.ToLower(snapshotTable)

	// 표 이름은 네트워크 호출 전에 검증
	if _, err := tableRows(&contracts.TickerSnapshot{}, table); err != nil {
		return err
	}

	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var snapshot *contracts.TickerSnapshot
	if snapshotRefresh {
		snapshot, err = a.service.Refresh(cmd.Context(), symbol)
	} else {
		snapshot, err = a.service.Snapshot(cmd.Context(), symbol)
	}
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", symbol, err)
	}

	if snapshotJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(snapshot)
	}

	printSnapshotHeader(snapshot)

	rows, err := tableRows(snapshot, table)
	if err != nil {
		return err
	}

	if snapshotCSV != "" {
		if err := writeCSV(snapshotCSV, rows); err != nil {
			return err
		}
		PrintSuccess(fmt.Sprintf("%s table written to %s", table, snapshotCSV))
		return nil
	}

	rendered, err := renderTable(rows)
	if err != nil {
		return err
	}
	fmt.Println()
	PrintTable(rendered)
	return nil
}

func printSnapshotHeader(s *contracts.TickerSnapshot) {
	d := s.Details

	fmt.Println()
	PrintDoubleSeparator()
	name := s.Symbol
	if d.Name != "" {
		name = fmt.Sprintf("%s (%s)", s.Symbol, d.Name)
	}
	fmt.Printf("  %s\n", name)
	PrintSeparator()
	PrintKeyValue("Type", string(d.Type), 14)
	PrintKeyValue("Current Price", fmt.Sprintf("%.2f", s.Spot), 14)
	PrintKeyValue("Change", fmt.Sprintf("%+.2f (%+.2f%%)", d.Change, d.ChangePercent), 14)
	PrintKeyValue("IV30", fmt.Sprintf("%.2f", d.IV30), 14)
	PrintKeyValue("Put-Call Ratio", d.PutCallRatio.String(), 14)
	PrintKeyValue("Contracts", fmt.Sprintf("%d calls / %d puts", len(s.Calls), len(s.Puts)), 14)
	PrintKeyValue("Expirations", fmt.Sprint(len(s.ByExpiration)), 14)
	PrintKeyValue("Generated", s.GeneratedAt.Format("2006-01-02 15:04:05 MST"), 14)
	PrintKeyValue("Run ID", s.RunID, 14)
	PrintDoubleSeparator()

	if s.IsEmpty() {
		PrintWarning("체인에 계약이 없음 (빈 표 출력)")
	} else if s.Omitted > 0 {
		PrintWarning(fmt.Sprintf("%d contracts omitted (unparseable identifier or invalid fields)", s.Omitted))
	}
}
