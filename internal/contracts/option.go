package contracts

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// OptionType is the side of a contract
type OptionType string

const (
	Call OptionType = "Call"
	Put  OptionType = "Put"
)

// String returns the side label
func (t OptionType) String() string {
	return string(t)
}

// IsValid reports whether t is Call or Put
func (t OptionType) IsValid() bool {
	return t == Call || t == Put
}

// RawContractRecord is one per-contract quote as delivered by the quote provider.
// ⭐ SSOT: provider → S0/S1 원본 레코드. 수치 필드가 nil이면 누락(SchemaError) 처리
type RawContractRecord struct {
	Option         string   `json:"option"` // e.g. SPXW240119C04000000
	Bid            *float64 `json:"bid"`
	BidSize        *float64 `json:"bid_size"`
	Ask            *float64 `json:"ask"`
	AskSize        *float64 `json:"ask_size"`
	IV             *float64 `json:"iv"`
	OpenInterest   *float64 `json:"open_interest"`
	Volume         *float64 `json:"volume"`
	Delta          *float64 `json:"delta"`
	Gamma          *float64 `json:"gamma"`
	Theta          *float64 `json:"theta"`
	Rho            *float64 `json:"rho"`
	Vega           *float64 `json:"vega"`
	Theo           *float64 `json:"theo"`
	Change         *float64 `json:"change"`
	Open           *float64 `json:"open"`
	High           *float64 `json:"high"`
	Low            *float64 `json:"low"`
	Tick           string   `json:"tick"`
	LastTradePrice *float64 `json:"last_trade_price"`
	LastTradeTime  string   `json:"last_trade_time"`
	PercentChange  *float64 `json:"percent_change"`
	PrevDayClose   *float64 `json:"prev_day_close"`
}

// DecodedSymbol is the structured form of a contract identifier
type DecodedSymbol struct {
	Expiration time.Time       `json:"expiration"`
	Strike     decimal.Decimal `json:"strike"`
	Type       OptionType      `json:"type"`
}

// ContractKey uniquely identifies a contract within one chain snapshot
type ContractKey struct {
	Expiration time.Time
	Strike     string // canonical decimal string
	Type       OptionType
}

// Key returns the (expiration, strike, type) key
func (d DecodedSymbol) Key() ContractKey {
	return ContractKey{
		Expiration: d.Expiration,
		Strike:     d.Strike.String(),
		Type:       d.Type,
	}
}

// NormalizedContract is one row of the normalized chain.
// ⭐ SSOT: S1 → S2/S3 정규화된 계약 (DecodedSymbol + 원본 필드 + 파생 지표)
type NormalizedContract struct {
	DecodedSymbol

	DTE           int     `json:"dte"`
	Tick          string  `json:"tick"`
	LastPrice     float64 `json:"last_price"`
	ExpectedMove  Float   `json:"expected_move"`
	PercentChange float64 `json:"percent_change"`
	Theoretical   float64 `json:"theoretical"`
	DollarsToSpot float64 `json:"dollars_to_spot"`
	PercentToSpot Float   `json:"percent_to_spot"`
	Breakeven     float64 `json:"breakeven"`
	Volume        int64   `json:"volume"`
	OpenInterest  int64   `json:"open_interest"`
	DollarDelta   float64 `json:"dollar_delta"`
	GEX           float64 `json:"gex"`

	// Greeks는 provider가 계산한 값을 그대로 사용
	IV    float64 `json:"iv"`
	Theta float64 `json:"theta"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`

	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	PrevClose float64 `json:"prev_close"`
	BidSize   int64   `json:"bid_size"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	AskSize   int64   `json:"ask_size"`
	Timestamp string  `json:"timestamp"`
}

// Chain is an ordered collection of contracts sorted by (expiration, strike, type)
type Chain []NormalizedContract

// Less orders contracts by expiration, then strike, then type (Call before Put)
func Less(a, b NormalizedContract) bool {
	if !a.Expiration.Equal(b.Expiration) {
		return a.Expiration.Before(b.Expiration)
	}
	if c := a.Strike.Cmp(b.Strike); c != 0 {
		return c < 0
	}
	return a.Type < b.Type
}

// Sort sorts the chain in place
func (c Chain) Sort() {
	sort.SliceStable(c, func(i, j int) bool { return Less(c[i], c[j]) })
}

// Filter returns a new chain with contracts matching fn
func (c Chain) Filter(fn func(NormalizedContract) bool) Chain {
	out := make(Chain, 0, len(c))
	for _, contract := range c {
		if fn(contract) {
			out = append(out, contract)
		}
	}
	return out
}

// Expirations returns the distinct expirations in chain order
func (c Chain) Expirations() []time.Time {
	seen := make(map[time.Time]bool)
	out := make([]time.Time, 0)
	for _, contract := range c {
		if !seen[contract.Expiration] {
			seen[contract.Expiration] = true
			out = append(out, contract.Expiration)
		}
	}
	return out
}

// Partition holds the call-only and put-only views of a chain
type Partition struct {
	Calls Chain `json:"calls"`
	Puts  Chain `json:"puts"`
}

// Empty reports whether both sides are empty
func (p Partition) Empty() bool {
	return len(p.Calls) == 0 && len(p.Puts) == 0
}
