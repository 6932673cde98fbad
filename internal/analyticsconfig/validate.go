package analyticsconfig

import (
	"fmt"
	"regexp"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

var tickerPattern = regexp.MustCompile(`^[A-Z][A-Z0-9.]*$`)

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ConfigID == "" {
		return ValidationError{"meta.config_id", "required"}
	}

	// === Chain ===
	if cfg.Chain.ContractMultiplier <= 0 {
		return ValidationError{"chain.contract_multiplier", "must be > 0"}
	}
	if cfg.Chain.GEXScale <= 0 {
		return ValidationError{"chain.gex_scale", "must be > 0"}
	}
	if cfg.Chain.TradingDays <= 0 || cfg.Chain.TradingDays > 366 {
		return ValidationError{"chain.trading_days", "must be in (0, 366]"}
	}
	precisions := []struct {
		field string
		value int
	}{
		{"chain.precision.price", cfg.Chain.Precision.Price},
		{"chain.precision.percent_change", cfg.Chain.Precision.PercentChange},
		{"chain.precision.dollars_to_spot", cfg.Chain.Precision.DollarsToSpot},
		{"chain.precision.percent_to_spot", cfg.Chain.Precision.PercentToSpot},
		{"chain.precision.expected_move", cfg.Chain.Precision.ExpectedMove},
		{"exposure.ratio_decimals", cfg.Exposure.RatioDecimals},
	}
	for _, p := range precisions {
		if err := validateDecimals(p.value, p.field); err != nil {
			return err
		}
	}

	// === Skew ===
	if err := validateBand(cfg.Skew.CallBand, "skew.call_band"); err != nil {
		return err
	}
	if err := validateBand(cfg.Skew.PutBand, "skew.put_band"); err != nil {
		return err
	}

	// === Reference ===
	for _, ticker := range cfg.Reference.TickerExceptions {
		if !tickerPattern.MatchString(ticker) {
			return ValidationError{"reference.ticker_exceptions", fmt.Sprintf("invalid ticker %q (uppercase expected)", ticker)}
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 표준 옵션 승수(100)가 아니면 Delta $ / GEX 비교 불가
	if cfg.Chain.ContractMultiplier != 100 {
		warnings = append(warnings, Warning{
			Code:    "NON_STANDARD_MULTIPLIER",
			Message: "contract_multiplier != 100: Delta $ / GEX가 CBOE 기준과 다름",
		})
	}

	// Call 밴드가 spot 아래로 크게 내려가면 ITM Call이 선택됨
	if cfg.Skew.CallBand.Low < 0.99 {
		warnings = append(warnings, Warning{
			Code:    "ITM_CALL_BAND",
			Message: "call_band.low < 0.99: 최저 행사가 선택 시 ITM Call이 뽑힐 수 있음",
		})
	}

	// Put 밴드 상한이 spot 초과 → ITM Put 포함
	if cfg.Skew.PutBand.High > 1.0 {
		warnings = append(warnings, Warning{
			Code:    "ITM_PUT_BAND",
			Message: "put_band.high > 1.0: OTM Put 밴드에 ITM Put 포함",
		})
	}

	return warnings
}

// === Helper Functions ===

func validateDecimals(decimals int, field string) error {
	if decimals < 0 || decimals > 10 {
		return ValidationError{field, "must be in range [0, 10]"}
	}
	return nil
}

func validateBand(band Band, field string) error {
	if band.Low <= 0 {
		return ValidationError{field + ".low", "must be > 0"}
	}
	if band.Low > band.High {
		return ValidationError{field, "low must be <= high"}
	}
	return nil
}
