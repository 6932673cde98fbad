package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpirationSummary is one row of the by-expiration exposure table.
// ⭐ SSOT: S2 만기별 집계. Put 측 Delta $ / GEX는 합산 전에 부호 반전됨
type ExpirationSummary struct {
	Expiration time.Time `json:"expiration"`

	CallOI  int64 `json:"call_oi"`
	PutOI   int64 `json:"put_oi"`
	NetOI   int64 `json:"net_oi"`
	OIRatio Float `json:"oi_ratio"` // Put OI / Call OI

	CallVolume    int64 `json:"call_volume"`
	PutVolume     int64 `json:"put_volume"`
	NetVolume     int64 `json:"net_volume"`
	VolumeRatio   Float `json:"volume_ratio"`    // Put Vol / Call Vol
	VolumeOIRatio Float `json:"volume_oi_ratio"` // Net Vol / Net OI

	CallDollarDelta float64 `json:"call_dollar_delta"`
	PutDollarDelta  float64 `json:"put_dollar_delta"`
	NetDollarDelta  float64 `json:"net_dollar_delta"`

	CallGEX float64 `json:"call_gex"`
	PutGEX  float64 `json:"put_gex"`
	NetGEX  float64 `json:"net_gex"`

	// IVSkew is nil when no skew record exists for the expiration
	IVSkew *float64 `json:"iv_skew,omitempty"`
}

// StrikeSummary is one row of the by-strike exposure table (no ratio columns)
type StrikeSummary struct {
	Strike decimal.Decimal `json:"strike"`

	CallOI int64 `json:"call_oi"`
	PutOI  int64 `json:"put_oi"`
	NetOI  int64 `json:"net_oi"`

	CallVolume int64 `json:"call_volume"`
	PutVolume  int64 `json:"put_volume"`
	NetVolume  int64 `json:"net_volume"`

	CallDollarDelta float64 `json:"call_dollar_delta"`
	PutDollarDelta  float64 `json:"put_dollar_delta"`
	NetDollarDelta  float64 `json:"net_dollar_delta"`

	CallGEX float64 `json:"call_gex"`
	PutGEX  float64 `json:"put_gex"`
	NetGEX  float64 `json:"net_gex"`
}

// SkewRecord is the per-expiration implied volatility skew.
// ⭐ SSOT: S3 스큐. Skew = PutIV - CallIV
type SkewRecord struct {
	Expiration time.Time       `json:"expiration"`
	CallStrike decimal.Decimal `json:"call_strike"`
	CallIV     float64         `json:"call_iv"`
	PutStrike  decimal.Decimal `json:"put_strike"`
	PutIV      float64         `json:"put_iv"`
	Skew       float64         `json:"skew"`
}
