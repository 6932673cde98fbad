package s1_chain

import (
	"math"
	"strings"
	"time"

	"github.com/wonny/optiondesk/internal/contracts"
	"github.com/wonny/optiondesk/internal/s0_symbol"
	"github.com/wonny/optiondesk/pkg/logger"
)

// Config holds per-contract metric parameters
type Config struct {
	Multiplier  float64   `yaml:"multiplier"`   // 계약 승수 (100)
	GEXScale    float64   `yaml:"gex_scale"`    // GEX 스케일 (0.01 = 1% 가격 변동)
	TradingDays float64   `yaml:"trading_days"` // Expected Move 연환산 (252)
	Precision   Precision `yaml:"precision"`
}

// Precision holds rounding decimals for normalized fields
type Precision struct {
	Price         int `yaml:"price"`          // Theoretical, Prev Close
	PercentChange int `yaml:"percent_change"` // % Change
	DollarsToSpot int `yaml:"dollars_to_spot"`
	PercentToSpot int `yaml:"percent_to_spot"`
	ExpectedMove  int `yaml:"expected_move"`
}

// DefaultConfig returns the standard CBOE equity/index option parameters
func DefaultConfig() Config {
	return Config{
		Multiplier:  100,
		GEXScale:    0.01,
		TradingDays: 252,
		Precision: Precision{
			Price:         2,
			PercentChange: 4,
			DollarsToSpot: 2,
			PercentToSpot: 4,
			ExpectedMove:  2,
		},
	}
}

// Normalizer turns raw provider records into the normalized chain
type Normalizer struct {
	config Config
	logger *logger.Logger
	now    func() time.Time
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithClock overrides the clock used for DTE
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		n.now = now
	}
}

// NewNormalizer creates a new chain Normalizer
func NewNormalizer(config Config, log *logger.Logger, opts ...Option) *Normalizer {
	n := &Normalizer{
		config: config,
		logger: log.WithStage(contracts.StageChain),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize decodes, casts and derives metrics for every record.
// ⭐ SSOT: S0/S1 → 정규화 체인. 개별 계약 실패는 Omission, 전체 파싱 실패만 에러
func (n *Normalizer) Normalize(records []contracts.RawContractRecord, spot float64) contracts.NormalizeResult {
	result := contracts.NormalizeResult{
		Chain:     make(contracts.Chain, 0, len(records)),
		Omissions: make([]contracts.Omission, 0),
	}
	if len(records) == 0 {
		return result
	}

	now := n.now()
	decoded := 0
	seen := make(map[contracts.ContractKey]bool, len(records))

	for i := range records {
		record := &records[i]

		symbol, err := s0_symbol.Decode(record.Option)
		if err != nil {
			n.omit(&result, record.Option, contracts.StageSymbol, err)
			continue
		}
		decoded++

		contract, err := n.normalizeOne(record, symbol, spot, now)
		if err != nil {
			n.omit(&result, record.Option, contracts.StageChain, err)
			continue
		}

		key := symbol.Key()
		if seen[key] {
			n.omit(&result, record.Option, contracts.StageChain, &contracts.SchemaError{
				Identifier: record.Option,
				Field:      "unique key (duplicate contract)",
			})
			continue
		}
		seen[key] = true

		result.Chain = append(result.Chain, contract)
	}

	if decoded == 0 {
		result.Err = contracts.ErrNoParseableContracts
		return result
	}

	result.Chain.Sort()
	return result
}

func (n *Normalizer) omit(result *contracts.NormalizeResult, identifier string, stage contracts.Stage, err error) {
	n.logger.WithFields(map[string]interface{}{
		"option": identifier,
		"error":  err.Error(),
	}).Warn("Contract omitted from chain")

	result.Omissions = append(result.Omissions, contracts.NewOmission(identifier, stage, err))
}

// normalizeOne applies the fixed transform order to a single record
func (n *Normalizer) normalizeOne(r *contracts.RawContractRecord, symbol contracts.DecodedSymbol, spot float64, now time.Time) (contracts.NormalizedContract, error) {
	f, err := requireFields(r)
	if err != nil {
		return contracts.NormalizedContract{}, err
	}

	p := n.config.Precision
	strike := symbol.Strike.InexactFloat64()

	c := contracts.NormalizedContract{
		DecodedSymbol: symbol,

		// 1. Tick 라벨
		Tick: normalizeTick(r.Tick),

		// 2. 고정 소수점 반올림
		Theoretical:   contracts.Round(f.theo, p.Price),
		PrevClose:     contracts.Round(f.prevClose, p.Price),
		PercentChange: contracts.Round(f.percentChange, p.PercentChange),

		// 3. 정수 변환 (소수부 버림)
		OpenInterest: int64(f.openInterest),
		Volume:       int64(f.volume),
		BidSize:      int64(f.bidSize),
		AskSize:      int64(f.askSize),

		LastPrice: f.lastPrice,
		IV:        f.iv,
		Theta:     f.theta,
		Delta:     f.delta,
		Gamma:     f.gamma,
		Vega:      f.vega,
		Rho:       f.rho,
		Open:      f.open,
		High:      f.high,
		Low:       f.low,
		Bid:       f.bid,
		Ask:       f.ask,
		Timestamp: r.LastTradeTime,
	}

	// 4. DTE
	c.DTE = DaysToExpiration(symbol.Expiration, now)

	// 5. Expected Move = Last × IV × √(DTE/252)
	c.ExpectedMove = contracts.Float(n.expectedMove(c.LastPrice, c.IV, c.DTE))

	// 6. Call/Put 부호 규약
	oi := float64(c.OpenInterest)
	switch symbol.Type {
	case contracts.Call:
		c.DollarsToSpot = contracts.Round(strike+c.Ask-spot, p.DollarsToSpot)
		c.Breakeven = strike + c.Ask
		c.DollarDelta = c.Delta * n.config.Multiplier * oi * spot
	case contracts.Put:
		c.DollarsToSpot = contracts.Round(strike-c.Ask-spot, p.DollarsToSpot)
		c.Breakeven = strike - c.Ask
		c.DollarDelta = -c.Delta * n.config.Multiplier * oi * spot
	}

	// 공통: GEX는 Call/Put 동일 (Net 부호는 S2 집계 시 적용)
	c.PercentToSpot = contracts.Float(contracts.Round(c.DollarsToSpot/spot*100, p.PercentToSpot))
	c.GEX = c.Gamma * n.config.Multiplier * oi * spot * spot * n.config.GEXScale

	return c, nil
}

func (n *Normalizer) expectedMove(last, iv float64, dte int) float64 {
	if dte < 0 {
		return math.NaN()
	}
	move := last * iv * math.Sqrt(float64(dte)/n.config.TradingDays)
	return contracts.Round(move, n.config.Precision.ExpectedMove)
}

// DaysToExpiration returns floor(days(expiration - now)) + 1.
// Zero expiration or a past expiration falls back to -1 before the +1, i.e. 0.
func DaysToExpiration(expiration, now time.Time) int {
	days := -1
	if !expiration.IsZero() {
		if diff := expiration.Sub(now); diff >= 0 {
			days = int(diff / (24 * time.Hour))
		}
	}
	return days + 1
}

// normalizeTick capitalizes the tick label ("up" → "Up", "no_change" → "No Change")
func normalizeTick(tick string) string {
	if tick == "" {
		return ""
	}
	lower := strings.ToLower(tick)
	capitalized := strings.ToUpper(lower[:1]) + lower[1:]
	return strings.ReplaceAll(capitalized, "No_change", "No Change")
}
