package contracts

import (
	"time"

	"github.com/fatih/structs"
)

// SecurityType distinguishes stock and index underlyings
type SecurityType string

const (
	SecurityStock SecurityType = "stock"
	SecurityIndex SecurityType = "index"
)

// TickerDetails holds the underlying quote fields.
// Index underlyings have no bid/ask/size/volume; those stay zero and are omitted.
type TickerDetails struct {
	Symbol            string       `json:"symbol" structs:"Symbol"`
	Name              string       `json:"name,omitempty" structs:"Name,omitempty"`
	Type              SecurityType `json:"type" structs:"Type"`
	Tick              string       `json:"tick" structs:"Tick"`
	Bid               float64      `json:"bid,omitempty" structs:"Bid,omitempty"`
	BidSize           float64      `json:"bid_size,omitempty" structs:"Bid Size,omitempty"`
	AskSize           float64      `json:"ask_size,omitempty" structs:"Ask Size,omitempty"`
	Ask               float64      `json:"ask,omitempty" structs:"Ask,omitempty"`
	CurrentPrice      float64      `json:"current_price" structs:"Current Price"`
	Open              float64      `json:"open" structs:"Open"`
	High              float64      `json:"high" structs:"High"`
	Low               float64      `json:"low" structs:"Low"`
	Close             float64      `json:"close" structs:"Close"`
	Volume            float64      `json:"volume,omitempty" structs:"Volume,omitempty"`
	PreviousClose     float64      `json:"previous_close" structs:"Previous Close"`
	Change            float64      `json:"change" structs:"Change"`
	ChangePercent     float64      `json:"change_percent" structs:"Change %"`
	IV30              float64      `json:"iv30" structs:"IV30"`
	IV30Change        float64      `json:"iv30_change" structs:"IV30 Change"`
	IV30ChangePercent float64      `json:"iv30_change_percent" structs:"IV30 Change %"`
	LastTradeTime     string       `json:"last_trade_time" structs:"Last Trade Time"`
	PutCallRatio      Float        `json:"put_call_ratio" structs:"-"`
}

// Map returns the details as a mapping of named scalar fields
func (d TickerDetails) Map() map[string]interface{} {
	m := structs.Map(d)
	m["Put-Call Ratio"] = d.PutCallRatio.String()
	return m
}

// IVHistory holds annualized 1Y high/low historical and implied volatility
type IVHistory struct {
	AnnualHigh float64 `json:"annual_high" structs:"1Y High"`
	AnnualLow  float64 `json:"annual_low" structs:"1Y Low"`
	IV30High   float64 `json:"iv30_annual_high" structs:"IV30 1Y High"`
	HV30High   float64 `json:"hv30_annual_high" structs:"HV30 1Y High"`
	IV30Low    float64 `json:"iv30_annual_low" structs:"IV30 1Y Low"`
	HV30Low    float64 `json:"hv30_annual_low" structs:"HV30 1Y Low"`
	IV60High   float64 `json:"iv60_annual_high" structs:"IV60 1Y High"`
	HV60High   float64 `json:"hv60_annual_high" structs:"HV60 1Y High"`
	IV60Low    float64 `json:"iv60_annual_low" structs:"IV60 1Y Low"`
	HV60Low    float64 `json:"hv60_annual_low" structs:"HV60 1Y Low"`
	IV90High   float64 `json:"iv90_annual_high" structs:"IV90 1Y High"`
	HV90High   float64 `json:"hv90_annual_high" structs:"HV90 1Y High"`
	IV90Low    float64 `json:"iv90_annual_low" structs:"IV90 1Y Low"`
	HV90Low    float64 `json:"hv90_annual_low" structs:"HV90 1Y Low"`
}

// Map returns the IV history as a mapping of named scalar fields
func (h IVHistory) Map() map[string]interface{} {
	return structs.Map(h)
}

// TickerInfo is what the provider returns for the underlying itself
type TickerInfo struct {
	Details     TickerDetails `json:"details"`
	Expirations []time.Time   `json:"expirations"`
}

// TickerSnapshot is the published read-only bundle for one ticker request.
// ⭐ SSOT: 프레젠테이션 계층이 읽을 수 있는 유일한 객체. 생성 후 변경 금지
type TickerSnapshot struct {
	RunID       string    `json:"run_id"`
	Symbol      string    `json:"symbol"`
	GeneratedAt time.Time `json:"generated_at"`
	Spot        float64   `json:"spot"`
	ConfigHash  string    `json:"config_hash,omitempty"` // analytics 파라미터 해시

	Details     TickerDetails `json:"details"`
	Expirations []time.Time   `json:"expirations"`
	IV          IVHistory     `json:"iv"`

	Chain        Chain               `json:"chain"`
	Calls        Chain               `json:"calls"`
	Puts         Chain               `json:"puts"`
	ByExpiration []ExpirationSummary `json:"by_expiration"`
	ByStrike     []StrikeSummary     `json:"by_strike"`
	Skew         []SkewRecord        `json:"skew"`

	Omitted int              `json:"omitted"` // 제외된 계약 수
	Stages  []PipelineResult `json:"stages,omitempty"`
}

// IsEmpty reports whether the snapshot carries no contracts
func (s *TickerSnapshot) IsEmpty() bool {
	return len(s.Chain) == 0
}
