package analyticsconfig

import (
	"github.com/wonny/optiondesk/internal/s1_chain"
	"github.com/wonny/optiondesk/internal/s2_exposure"
	"github.com/wonny/optiondesk/internal/s3_skew"
)

// Config는 옵션 체인 분석 파이프라인의 전체 파라미터
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Chain     Chain     `yaml:"chain" json:"chain"`
	Exposure  Exposure  `yaml:"exposure" json:"exposure"`
	Skew      Skew      `yaml:"skew" json:"skew"`
	Reference Reference `yaml:"reference" json:"reference"`
}

// Meta 메타 정보
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id"`
	Version  string `yaml:"version" json:"version"`
}

// Chain S1: 계약별 파생 지표
type Chain struct {
	ContractMultiplier float64   `yaml:"contract_multiplier" json:"contract_multiplier"` // 100
	GEXScale           float64   `yaml:"gex_scale" json:"gex_scale"`                     // 0.01
	TradingDays        float64   `yaml:"trading_days" json:"trading_days"`               // 252
	Precision          Precision `yaml:"precision" json:"precision"`
}

// Precision 반올림 자릿수
type Precision struct {
	Price         int `yaml:"price" json:"price"`
	PercentChange int `yaml:"percent_change" json:"percent_change"`
	DollarsToSpot int `yaml:"dollars_to_spot" json:"dollars_to_spot"`
	PercentToSpot int `yaml:"percent_to_spot" json:"percent_to_spot"`
	ExpectedMove  int `yaml:"expected_move" json:"expected_move"`
}

// Exposure S2: 만기별/행사가별 집계
type Exposure struct {
	RatioDecimals int `yaml:"ratio_decimals" json:"ratio_decimals"`
}

// Skew S3: 선택 밴드 (spot 배수)
type Skew struct {
	CallBand Band `yaml:"call_band" json:"call_band"`
	PutBand  Band `yaml:"put_band" json:"put_band"`
}

type Band struct {
	Low  float64 `yaml:"low" json:"low"`
	High float64 `yaml:"high" json:"high"`
}

// Reference 참조 데이터
type Reference struct {
	TickerExceptions []string `yaml:"ticker_exceptions" json:"ticker_exceptions"` // "_" 접두 URL 심볼
}

// Default returns the parameters the CBOE dashboard model uses
func Default() *Config {
	chain := s1_chain.DefaultConfig()
	skew := s3_skew.DefaultConfig()

	return &Config{
		Meta: Meta{ConfigID: "cboe_default", Version: "1"},
		Chain: Chain{
			ContractMultiplier: chain.Multiplier,
			GEXScale:           chain.GEXScale,
			TradingDays:        chain.TradingDays,
			Precision: Precision{
				Price:         chain.Precision.Price,
				PercentChange: chain.Precision.PercentChange,
				DollarsToSpot: chain.Precision.DollarsToSpot,
				PercentToSpot: chain.Precision.PercentToSpot,
				ExpectedMove:  chain.Precision.ExpectedMove,
			},
		},
		Exposure: Exposure{RatioDecimals: s2_exposure.DefaultConfig().RatioDecimals},
		Skew: Skew{
			CallBand: Band{Low: skew.CallBand.Low, High: skew.CallBand.High},
			PutBand:  Band{Low: skew.PutBand.Low, High: skew.PutBand.High},
		},
		Reference: Reference{TickerExceptions: []string{"NDX", "RUT"}},
	}
}

// ChainConfig maps to the S1 normalizer parameters
func (c *Config) ChainConfig() s1_chain.Config {
	return s1_chain.Config{
		Multiplier:  c.Chain.ContractMultiplier,
		GEXScale:    c.Chain.GEXScale,
		TradingDays: c.Chain.TradingDays,
		Precision: s1_chain.Precision{
			Price:         c.Chain.Precision.Price,
			PercentChange: c.Chain.Precision.PercentChange,
			DollarsToSpot: c.Chain.Precision.DollarsToSpot,
			PercentToSpot: c.Chain.Precision.PercentToSpot,
			ExpectedMove:  c.Chain.Precision.ExpectedMove,
		},
	}
}

// ExposureConfig maps to the S2 aggregator parameters
func (c *Config) ExposureConfig() s2_exposure.Config {
	return s2_exposure.Config{RatioDecimals: c.Exposure.RatioDecimals}
}

// SkewConfig maps to the S3 calculator parameters
func (c *Config) SkewConfig() s3_skew.Config {
	return s3_skew.Config{
		CallBand: s3_skew.Band{Low: c.Skew.CallBand.Low, High: c.Skew.CallBand.High},
		PutBand:  s3_skew.Band{Low: c.Skew.PutBand.Low, High: c.Skew.PutBand.High},
	}
}
