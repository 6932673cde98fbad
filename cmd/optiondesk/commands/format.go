package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ═══════════════════════════════════════════════════════════
// 콘솔 출력 헬퍼 (모든 커맨드 공통)
// ═══════════════════════════════════════════════════════════

const (
	thinRule   = "─"
	doubleRule = "═"
	ruleWidth  = 59
)

// PrintSeparator prints a thin rule
func PrintSeparator() {
	fmt.Println(strings.Repeat(thinRule, ruleWidth))
}

// PrintDoubleSeparator prints a double rule
func PrintDoubleSeparator() {
	fmt.Println(strings.Repeat(doubleRule, ruleWidth))
}

// PrintWarning prints a warning surrounded by blank lines
func PrintWarning(message string) {
	fmt.Printf("\n⚠️  %s\n\n", message)
}

// PrintSuccess prints a success line
func PrintSuccess(message string) {
	fmt.Println("✅ " + message)
}

// PrintError prints a failure line
func PrintError(message string) {
	fmt.Println("❌ " + message)
}

// PrintKeyValue prints "key : value" with the key padded to keyWidth
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintTable prints table[0] as the header and the rest as rows
func PrintTable(table [][]string) {
	writeTable(os.Stdout, table)
}

// writeTable aligns columns to their widest cell. Columns whose cells are
// all numeric (NaN/±Inf included) are right-aligned.
func writeTable(w io.Writer, table [][]string) {
	if len(table) == 0 {
		return
	}

	widths := columnWidths(table)
	numeric := numericColumns(table)

	line := func(row []string) {
		cells := make([]string, len(widths))
		for i := range widths {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			pad := strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell))
			if numeric[i] {
				cells[i] = pad + cell
			} else {
				cells[i] = cell + pad
			}
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}

	line(table[0])
	total := 2 * (len(widths) - 1)
	for _, width := range widths {
		total += width
	}
	fmt.Fprintln(w, strings.Repeat(thinRule, total))
	for _, row := range table[1:] {
		line(row)
	}
}

func columnWidths(table [][]string) []int {
	widths := make([]int, len(table[0]))
	for _, row := range table {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}
	return widths
}

// 헤더 제외, 빈 칸은 무시. 데이터 행이 없으면 좌측 정렬
func numericColumns(table [][]string) []bool {
	numeric := make([]bool, len(table[0]))
	for i := range numeric {
		seen := false
		numeric[i] = true
		for _, row := range table[1:] {
			if i >= len(row) || row[i] == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseFloat(row[i], 64); err != nil {
				numeric[i] = false
				break
			}
		}
		numeric[i] = numeric[i] && seen
	}
	return numeric
}
