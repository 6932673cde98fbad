package commands

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/wonny/optiondesk/internal/contracts"
)

const dateLayout = "2006-01-02"

// Export rows: gocsv 헤더/값 하나로 텍스트 표와 CSV 파일을 모두 만듦.
// Ratio 컬럼은 NaN/±Inf 표기를 위해 문자열

type chainRow struct {
	Expiration   string  `csv:"Expiration"`
	Strike       string  `csv:"Strike"`
	Type         string  `csv:"Type"`
	DTE          int     `csv:"DTE"`
	Last         float64 `csv:"Last Price"`
	Bid          float64 `csv:"Bid"`
	Ask          float64 `csv:"Ask"`
	IV           float64 `csv:"IV"`
	Delta        float64 `csv:"Delta"`
	Gamma        float64 `csv:"Gamma"`
	Volume       int64   `csv:"Volume"`
	OpenInterest int64   `csv:"Open Interest"`
	ExpectedMove string  `csv:"Expected Move"`
	ToSpot       string  `csv:"% To Spot"`
	Breakeven    float64 `csv:"Breakeven"`
	DollarDelta  float64 `csv:"Delta $"`
	GEX          float64 `csv:"GEX"`
}

type expirationRow struct {
	Expiration      string  `csv:"Expiration"`
	CallOI          int64   `csv:"Call OI"`
	PutOI           int64   `csv:"Put OI"`
	NetOI           int64   `csv:"Net OI"`
	OIRatio         string  `csv:"OI Ratio"`
	CallVolume      int64   `csv:"Call Volume"`
	PutVolume       int64   `csv:"Put Volume"`
	NetVolume       int64   `csv:"Net Volume"`
	VolumeRatio     string  `csv:"Volume Ratio"`
	VolumeOIRatio   string  `csv:"Volume/OI Ratio"`
	CallDollarDelta float64 `csv:"Call Delta $"`
	PutDollarDelta  float64 `csv:"Put Delta $"`
	NetDollarDelta  float64 `csv:"Net Delta $"`
	CallGEX         float64 `csv:"Call GEX"`
	PutGEX          float64 `csv:"Put GEX"`
	NetGEX          float64 `csv:"Net GEX"`
	IVSkew          string  `csv:"IV Skew"`
}

type strikeRow struct {
	Strike          string  `csv:"Strike"`
	CallOI          int64   `csv:"Call OI"`
	PutOI           int64   `csv:"Put OI"`
	NetOI           int64   `csv:"Net OI"`
	CallVolume      int64   `csv:"Call Volume"`
	PutVolume       int64   `csv:"Put Volume"`
	NetVolume       int64   `csv:"Net Volume"`
	CallDollarDelta float64 `csv:"Call Delta $"`
	PutDollarDelta  float64 `csv:"Put Delta $"`
	NetDollarDelta  float64 `csv:"Net Delta $"`
	CallGEX         float64 `csv:"Call GEX"`
	PutGEX          float64 `csv:"Put GEX"`
	NetGEX          float64 `csv:"Net GEX"`
}

type skewRow struct {
	Expiration string  `csv:"Expiration"`
	CallStrike string  `csv:"Call Strike"`
	CallIV     float64 `csv:"Call IV"`
	PutStrike  string  `csv:"Put Strike"`
	PutIV      float64 `csv:"Put IV"`
	Skew       float64 `csv:"Skew"`
}

// tableRows converts one snapshot table to export rows
func tableRows(snapshot *contracts.TickerSnapshot, table string) (interface{}, error) {
	switch table {
	case "chain":
		return chainRows(snapshot.Chain), nil
	case "expirations":
		return expirationRows(snapshot.ByExpiration), nil
	case "strikes":
		return strikeRows(snapshot.ByStrike), nil
	case "skew":
		return skewRows(snapshot.Skew), nil
	default:
		return nil, fmt.Errorf("unknown table %q (chain|expirations|strikes|skew)", table)
	}
}

func chainRows(chain contracts.Chain) []chainRow {
	rows := make([]chainRow, len(chain))
	for i, c := range chain {
		rows[i] = chainRow{
			Expiration:   c.Expiration.Format(dateLayout),
			Strike:       c.Strike.String(),
			Type:         string(c.Type),
			DTE:          c.DTE,
			Last:         c.LastPrice,
			Bid:          c.Bid,
			Ask:          c.Ask,
			IV:           c.IV,
			Delta:        c.Delta,
			Gamma:        c.Gamma,
			Volume:       c.Volume,
			OpenInterest: c.OpenInterest,
			ExpectedMove: c.ExpectedMove.String(),
			ToSpot:       c.PercentToSpot.String(),
			Breakeven:    c.Breakeven,
			DollarDelta:  c.DollarDelta,
			GEX:          c.GEX,
		}
	}
	return rows
}

func expirationRows(summaries []contracts.ExpirationSummary) []expirationRow {
	rows := make([]expirationRow, len(summaries))
	for i, s := range summaries {
		skew := ""
		if s.IVSkew != nil {
			skew = contracts.Float(*s.IVSkew).String()
		}
		rows[i] = expirationRow{
			Expiration:      s.Expiration.Format(dateLayout),
			CallOI:          s.CallOI,
			PutOI:           s.PutOI,
			NetOI:           s.NetOI,
			OIRatio:         s.OIRatio.String(),
			CallVolume:      s.CallVolume,
			PutVolume:       s.PutVolume,
			NetVolume:       s.NetVolume,
			VolumeRatio:     s.VolumeRatio.String(),
			VolumeOIRatio:   s.VolumeOIRatio.String(),
			CallDollarDelta: s.CallDollarDelta,
			PutDollarDelta:  s.PutDollarDelta,
			NetDollarDelta:  s.NetDollarDelta,
			CallGEX:         s.CallGEX,
			PutGEX:          s.PutGEX,
			NetGEX:          s.NetGEX,
			IVSkew:          skew,
		}
	}
	return rows
}

func strikeRows(summaries []contracts.StrikeSummary) []strikeRow {
	rows := make([]strikeRow, len(summaries))
	for i, s := range summaries {
		rows[i] = strikeRow{
			Strike:          s.Strike.String(),
			CallOI:          s.CallOI,
			PutOI:           s.PutOI,
			NetOI:           s.NetOI,
			CallVolume:      s.CallVolume,
			PutVolume:       s.PutVolume,
			NetVolume:       s.NetVolume,
			CallDollarDelta: s.CallDollarDelta,
			PutDollarDelta:  s.PutDollarDelta,
			NetDollarDelta:  s.NetDollarDelta,
			CallGEX:         s.CallGEX,
			PutGEX:          s.PutGEX,
			NetGEX:          s.NetGEX,
		}
	}
	return rows
}

func skewRows(records []contracts.SkewRecord) []skewRow {
	rows := make([]skewRow, len(records))
	for i, r := range records {
		rows[i] = skewRow{
			Expiration: r.Expiration.Format(dateLayout),
			CallStrike: r.CallStrike.String(),
			CallIV:     r.CallIV,
			PutStrike:  r.PutStrike.String(),
			PutIV:      r.PutIV,
			Skew:       r.Skew,
		}
	}
	return rows
}

// renderTable returns header + rows as strings
func renderTable(rows interface{}) ([][]string, error) {
	out, err := gocsv.MarshalString(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal rows: %w", err)
	}
	return csv.NewReader(strings.NewReader(out)).ReadAll()
}

// writeCSV writes rows to path (overwrites)
func writeCSV(path string, rows interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(rows, f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
