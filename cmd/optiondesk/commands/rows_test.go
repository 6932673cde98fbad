package commands

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/optiondesk/internal/contracts"
)

var jan19 = time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC)

func testSnapshot() *contracts.TickerSnapshot {
	skew := 0.05
	return &contracts.TickerSnapshot{
		Symbol: "SPX",
		Chain: contracts.Chain{{
			DecodedSymbol: contracts.DecodedSymbol{Expiration: jan19, Strike: decimal.RequireFromString("4750.5"), Type: contracts.Call},
			ExpectedMove:  contracts.Float(math.NaN()),
			PercentToSpot: 0.5,
		}},
		ByExpiration: []contracts.ExpirationSummary{
			{Expiration: jan19, CallOI: 10, PutOI: 0, OIRatio: 0, VolumeRatio: contracts.Float(math.Inf(1)), IVSkew: &skew},
			{Expiration: jan19.AddDate(0, 0, 7), OIRatio: contracts.Float(math.NaN())},
		},
		ByStrike: []contracts.StrikeSummary{{Strike: decimal.NewFromInt(95)}},
		Skew:     []contracts.SkewRecord{{Expiration: jan19, CallStrike: decimal.NewFromInt(100), PutStrike: decimal.NewFromInt(95)}},
	}
}

func TestTableRows(t *testing.T) {
	snapshot := testSnapshot()

	for table, count := range map[string]int{"chain": 1, "expirations": 2, "strikes": 1, "skew": 1} {
		rows, err := tableRows(snapshot, table)
		require.NoError(t, err, table)

		rendered, err := renderTable(rows)
		require.NoError(t, err, table)
		assert.Len(t, rendered, count+1, table)
	}

	_, err := tableRows(snapshot, "greeks")
	assert.Error(t, err)
}

func TestRenderTable_Expirations(t *testing.T) {
	rendered, err := renderTable(expirationRows(testSnapshot().ByExpiration))
	require.NoError(t, err)

	header := rendered[0]
	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("missing column %q", name)
		return -1
	}

	assert.Equal(t, "2024-01-19", rendered[1][col("Expiration")])
	assert.Equal(t, "0", rendered[1][col("OI Ratio")])
	assert.Equal(t, "+Inf", rendered[1][col("Volume Ratio")])
	assert.Equal(t, "0.05", rendered[1][col("IV Skew")])
	assert.Equal(t, "NaN", rendered[2][col("OI Ratio")])
	assert.Equal(t, "", rendered[2][col("IV Skew")])
}

func TestRenderTable_Chain(t *testing.T) {
	rendered, err := renderTable(chainRows(testSnapshot().Chain))
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01-19", "4750.5", "Call"}, rendered[1][:3])
	assert.Contains(t, rendered[1], "NaN")
}

func TestRenderTable_Empty(t *testing.T) {
	rendered, err := renderTable(skewRows(nil))
	require.NoError(t, err)
	require.Len(t, rendered, 1)
	assert.Equal(t, "Expiration", rendered[0][0])
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skew.csv")
	require.NoError(t, writeCSV(path, skewRows(testSnapshot().Skew)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var rows []skewRow
	require.NoError(t, gocsv.UnmarshalFile(f, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "100", rows[0].CallStrike)
	assert.Equal(t, "95", rows[0].PutStrike)
}

func TestColumnWidths(t *testing.T) {
	widths := columnWidths([][]string{
		{"Strike", "Type"},
		{"4750.5", "Call"},
		{"95", "Put-Call"},
	})
	assert.Equal(t, []int{6, 8}, widths)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	writeTable(&buf, [][]string{
		{"Strike", "Type", "Ratio"},
		{"4750.5", "Call", "NaN"},
		{"95", "Put", "+Inf"},
	})

	want := "Strike  Type  Ratio\n" +
		strings.Repeat("─", 19) + "\n" +
		"4750.5  Call    NaN\n" +
		"    95  Put    +Inf\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteTable_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	writeTable(&buf, [][]string{{"Expiration", "Skew"}})
	assert.Equal(t, "Expiration  Skew\n"+strings.Repeat("─", 16)+"\n", buf.String())
}
