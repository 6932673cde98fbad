package s3_skew

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/optiondesk/internal/contracts"
)

// Band is a strike window expressed as spot multipliers, bounds inclusive
type Band struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// Config holds the call/put selection bands
type Config struct {
	CallBand Band `yaml:"call_band"` // near-the-money call
	PutBand  Band `yaml:"put_band"`  // out-of-the-money put
}

// DefaultConfig returns [0.995, 1.05] for calls and [0.94, 1.0] for puts
func DefaultConfig() Config {
	return Config{
		CallBand: Band{Low: 0.995, High: 1.05},
		PutBand:  Band{Low: 0.94, High: 1.0},
	}
}

// Calculator derives the per-expiration IV skew
type Calculator struct {
	config Config
}

// NewCalculator creates a new skew Calculator
func NewCalculator(config Config) *Calculator {
	return &Calculator{config: config}
}

// selection is the contract picked for one expiration on one side
type selection struct {
	strike decimal.Decimal
	iv     float64
}

// Calculate selects the minimum-strike call and put inside their bands per expiration
// and returns skew = put IV - call IV, sorted by expiration.
// ⭐ SSOT: S3 스큐. 밴드 내 "최저 행사가" 선택 (ATM 최근접 아님), 양측 모두 있는 만기만 포함
func (c *Calculator) Calculate(p contracts.Partition, spot float64) []contracts.SkewRecord {
	calls := pickMinStrike(p.Calls, spot, c.config.CallBand)
	puts := pickMinStrike(p.Puts, spot, c.config.PutBand)

	records := make([]contracts.SkewRecord, 0, len(calls))
	for exp, call := range calls {
		put, ok := puts[exp]
		if !ok {
			continue
		}
		records = append(records, contracts.SkewRecord{
			Expiration: exp,
			CallStrike: call.strike,
			CallIV:     call.iv,
			PutStrike:  put.strike,
			PutIV:      put.iv,
			Skew:       put.iv - call.iv,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Expiration.Before(records[j].Expiration)
	})
	return records
}

// pickMinStrike keeps, per expiration, the lowest strike within [low·spot, high·spot]
func pickMinStrike(chain contracts.Chain, spot float64, band Band) map[time.Time]selection {
	s := decimal.NewFromFloat(spot)
	low := s.Mul(decimal.NewFromFloat(band.Low))
	high := s.Mul(decimal.NewFromFloat(band.High))

	picked := make(map[time.Time]selection)
	for _, contract := range chain {
		if contract.Strike.LessThan(low) || contract.Strike.GreaterThan(high) {
			continue
		}
		current, ok := picked[contract.Expiration]
		if !ok || contract.Strike.LessThan(current.strike) {
			picked[contract.Expiration] = selection{strike: contract.Strike, iv: contract.IV}
		}
	}
	return picked
}
