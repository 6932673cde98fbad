package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/optiondesk/internal/s0_symbol"
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode <identifier>...",
	Short: "계약 식별자 디코드",
	Long: `OCC 스타일 계약 식별자를 만기/행사가/타입으로 디코드합니다.
네트워크 호출 없음.

Example:
  go run ./cmd/optiondesk decode SPXW240119C04750000
  go run ./cmd/optiondesk decode AAPL240119P00190000 SPX240216C05000000`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	table := [][]string{{"Identifier", "Root", "Expiration", "Strike", "Type"}}
	failed := 0

	for _, identifier := range args {
		decoded, err := s0_symbol.Decode(identifier)
		if err != nil {
			PrintError(err.Error())
			failed++
			continue
		}
		table = append(table, []string{
			identifier,
			s0_symbol.Root(identifier),
			decoded.Expiration.Format(dateLayout),
			decoded.Strike.String(),
			string(decoded.Type),
		})
	}

	if len(table) > 1 {
		PrintTable(table)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d identifiers failed to decode", failed, len(args))
	}
	return nil
}
