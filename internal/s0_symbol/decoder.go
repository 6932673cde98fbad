package s0_symbol

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/optiondesk/internal/contracts"
)

// 식별자 형식: <root 비숫자><YYMMDD><C|P><행사가 x1000, 8자리>
// e.g. SPXW240119C04750000 → 2024-01-19, 4750, Call
var symbolPattern = regexp.MustCompile(`^(\D*)(\d{6})([CP])(\d{8})$`)

const (
	dateLayout   = "060102"
	strikeDigits = 8
	strikeScale  = 3 // 행사가는 1000배로 인코딩됨
)

var maxScaledStrike = decimal.New(1, strikeDigits) // 10^8

// Decode parses a contract identifier into expiration, strike and side.
// ⭐ SSOT: 식별자 파싱은 이 함수에서만
func Decode(identifier string) (contracts.DecodedSymbol, error) {
	match := symbolPattern.FindStringSubmatch(identifier)
	if match == nil {
		return contracts.DecodedSymbol{}, &contracts.ParseError{
			Identifier: identifier,
			Reason:     describeMismatch(identifier),
		}
	}

	expiration, err := time.Parse(dateLayout, match[2])
	if err != nil {
		return contracts.DecodedSymbol{}, &contracts.ParseError{
			Identifier: identifier,
			Reason:     fmt.Sprintf("invalid expiration date %s", match[2]),
		}
	}

	strike, err := parseStrike(match[4])
	if err != nil {
		return contracts.DecodedSymbol{}, &contracts.ParseError{
			Identifier: identifier,
			Reason:     err.Error(),
		}
	}

	return contracts.DecodedSymbol{
		Expiration: expiration,
		Strike:     strike,
		Type:       sideFromFlag(match[3]),
	}, nil
}

// Root returns the ticker root of an identifier (the leading non-digit run)
func Root(identifier string) string {
	idx := strings.IndexFunc(identifier, isDigit)
	if idx < 0 {
		return identifier
	}
	return identifier[:idx]
}

// ScaledStrike returns the 8-digit integer encoding of a strike (strike x 1000)
func ScaledStrike(strike decimal.Decimal) (int64, error) {
	scaled := strike.Shift(strikeScale)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("strike %s has more than %d decimals", strike, strikeScale)
	}
	if !scaled.IsPositive() || scaled.GreaterThanOrEqual(maxScaledStrike) {
		return 0, fmt.Errorf("strike %s out of encodable range", strike)
	}
	return scaled.IntPart(), nil
}

// Encode builds an identifier from a root and a decoded symbol
func Encode(root string, symbol contracts.DecodedSymbol) (string, error) {
	scaled, err := ScaledStrike(symbol.Strike)
	if err != nil {
		return "", err
	}

	flag := "C"
	if symbol.Type == contracts.Put {
		flag = "P"
	}

	return fmt.Sprintf("%s%s%s%0*d", root, symbol.Expiration.Format(dateLayout), flag, strikeDigits, scaled), nil
}

// parseStrike strips leading zeros, converts and rescales the strike digits
func parseStrike(digits string) (decimal.Decimal, error) {
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("strike must be positive")
	}

	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid strike %s", digits)
	}

	return value.Shift(-strikeScale), nil
}

func sideFromFlag(flag string) contracts.OptionType {
	if flag == "P" {
		return contracts.Put
	}
	return contracts.Call
}

// describeMismatch explains which field broke the expected shape
func describeMismatch(identifier string) string {
	if identifier == "" {
		return "empty identifier"
	}

	idx := strings.IndexFunc(identifier, isDigit)
	if idx < 0 {
		return "no expiration digits"
	}
	rest := identifier[idx:]

	if len(rest) < 6 || !allDigits(rest[:6]) {
		return "expiration must be 6 digits (YYMMDD)"
	}
	if len(rest) < 7 || (rest[6] != 'C' && rest[6] != 'P') {
		return "missing side flag (C/P)"
	}
	if len(rest[7:]) != strikeDigits || !allDigits(rest[7:]) {
		return fmt.Sprintf("strike must be %d digits", strikeDigits)
	}
	return "unexpected identifier shape"
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func allDigits(s string) bool {
	for _, r := range s {
		if !isDigit(r) {
			return false
		}
	}
	return true
}
