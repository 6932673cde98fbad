package s1_chain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/optiondesk/internal/contracts"
	"github.com/wonny/optiondesk/pkg/logger"
)

var fixedNow = time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

// rawRecord builds a complete record; tests override fields as needed
func rawRecord(option string, ask, oi, gamma, delta float64) contracts.RawContractRecord {
	return contracts.RawContractRecord{
		Option:         option,
		Bid:            ptr(ask - 0.1),
		BidSize:        ptr(12),
		Ask:            ptr(ask),
		AskSize:        ptr(15.9),
		IV:             ptr(0.2),
		OpenInterest:   ptr(oi),
		Volume:         ptr(40.7),
		Delta:          ptr(delta),
		Gamma:          ptr(gamma),
		Theta:          ptr(-0.05),
		Rho:            ptr(0.01),
		Vega:           ptr(0.12),
		Theo:           ptr(1.987),
		Open:           ptr(1.5),
		High:           ptr(2.5),
		Low:            ptr(1.25),
		Tick:           "no_change",
		LastTradePrice: ptr(3),
		LastTradeTime:  "2024-01-10T14:59:58",
		PercentChange:  ptr(1.234567),
		PrevDayClose:   ptr(2.0049),
	}
}

func newTestNormalizer() *Normalizer {
	return NewNormalizer(DefaultConfig(), logger.Nop(), WithClock(func() time.Time { return fixedNow }))
}

func TestNormalize_CallScenario(t *testing.T) {
	n := newTestNormalizer()

	result := n.Normalize([]contracts.RawContractRecord{
		rawRecord("SPX240119C00100000", 2.0, 10, 0.05, 0.5),
	}, 100.0)
	require.NoError(t, result.Err)
	require.Len(t, result.Chain, 1)
	assert.Empty(t, result.Omissions)

	c := result.Chain[0]
	assert.Equal(t, contracts.Call, c.Type)
	assert.InDelta(t, 0.05*100*10*100*100*0.01, c.GEX, 1e-9)
	assert.InDelta(t, 50000.0, c.DollarDelta, 1e-9)
	assert.InDelta(t, 2.0, c.DollarsToSpot, 1e-9)
	assert.InDelta(t, 2.0, float64(c.PercentToSpot), 1e-9)
	assert.InDelta(t, 102.0, c.Breakeven, 1e-9)
}

func TestNormalize_PutScenario(t *testing.T) {
	n := newTestNormalizer()

	result := n.Normalize([]contracts.RawContractRecord{
		rawRecord("SPX240119P00100000", 2.0, 10, 0.05, 0.5),
	}, 100.0)
	require.NoError(t, result.Err)
	require.Len(t, result.Chain, 1)

	c := result.Chain[0]
	assert.Equal(t, contracts.Put, c.Type)
	// GEX는 부호 없이 Call과 동일
	assert.InDelta(t, 0.05*100*10*100*100*0.01, c.GEX, 1e-9)
	assert.InDelta(t, -50000.0, c.DollarDelta, 1e-9)
	assert.InDelta(t, -2.0, c.DollarsToSpot, 1e-9)
	assert.InDelta(t, -2.0, float64(c.PercentToSpot), 1e-9)
	assert.InDelta(t, 98.0, c.Breakeven, 1e-9)
}

func TestNormalize_CastsAndRounding(t *testing.T) {
	n := newTestNormalizer()

	result := n.Normalize([]contracts.RawContractRecord{
		rawRecord("SPX240119C00100000", 2.0, 10.9, 0.05, 0.5),
	}, 100.0)
	require.Len(t, result.Chain, 1)

	c := result.Chain[0]
	assert.Equal(t, "No Change", c.Tick)
	assert.Equal(t, 1.99, c.Theoretical)
	assert.Equal(t, 2.0, c.PrevClose)
	assert.Equal(t, 1.2346, c.PercentChange)
	assert.Equal(t, int64(10), c.OpenInterest)
	assert.Equal(t, int64(40), c.Volume)
	assert.Equal(t, int64(12), c.BidSize)
	assert.Equal(t, int64(15), c.AskSize)
	assert.Equal(t, "2024-01-10T14:59:58", c.Timestamp)
}

func TestNormalize_DTEAndExpectedMove(t *testing.T) {
	n := newTestNormalizer()

	result := n.Normalize([]contracts.RawContractRecord{
		rawRecord("SPX240119C00100000", 2.0, 10, 0.05, 0.5), // 8d 9h ahead
		rawRecord("SPX240105C00100000", 2.0, 10, 0.05, 0.5), // already expired
	}, 100.0)
	require.Len(t, result.Chain, 2)

	expired, weekly := result.Chain[0], result.Chain[1]

	assert.Equal(t, 9, weekly.DTE)
	assert.Equal(t, contracts.Round(3*0.2*math.Sqrt(9.0/252), 2), float64(weekly.ExpectedMove))

	assert.Equal(t, 0, expired.DTE)
	assert.Equal(t, 0.0, float64(expired.ExpectedMove))
}

func TestDaysToExpiration(t *testing.T) {
	tests := []struct {
		name       string
		expiration time.Time
		want       int
	}{
		{"next day midnight", time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), 1},
		{"exactly one day", time.Date(2024, 1, 11, 15, 0, 0, 0, time.UTC), 2},
		{"today already passed", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), 0},
		{"zero expiration", time.Time{}, 0},
		{"one year", time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC), 367},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysToExpiration(tt.expiration, fixedNow))
		})
	}
}

func TestNormalize_Omissions(t *testing.T) {
	n := newTestNormalizer()

	missingGamma := rawRecord("SPX240119C00105000", 2.0, 10, 0.05, 0.5)
	missingGamma.Gamma = nil

	result := n.Normalize([]contracts.RawContractRecord{
		rawRecord("SPX240119C00100000", 2.0, 10, 0.05, 0.5),
		rawRecord("SPX24X119C00100000", 2.0, 10, 0.05, 0.5), // ParseError
		missingGamma,                                        // SchemaError
		rawRecord("SPX240119C00100000", 9.0, 99, 0.05, 0.5), // duplicate key
	}, 100.0)

	require.NoError(t, result.Err)
	require.Len(t, result.Chain, 1)
	assert.Equal(t, int64(10), result.Chain[0].OpenInterest, "first record wins on duplicate key")

	require.Len(t, result.Omissions, 3)
	assert.Equal(t, contracts.StageSymbol, result.Omissions[0].Stage)
	assert.True(t, contracts.IsParseError(result.Omissions[0].Err))

	assert.True(t, contracts.IsSchemaError(result.Omissions[1].Err))
	var se *contracts.SchemaError
	require.True(t, errors.As(result.Omissions[1].Err, &se))
	assert.Equal(t, "gamma", se.Field)

	assert.True(t, contracts.IsSchemaError(result.Omissions[2].Err))
}

func TestNormalize_TotalParseFailure(t *testing.T) {
	n := newTestNormalizer()

	result := n.Normalize([]contracts.RawContractRecord{
		rawRecord("garbage", 2.0, 10, 0.05, 0.5),
		rawRecord("SPX2401C1", 2.0, 10, 0.05, 0.5),
	}, 100.0)

	assert.ErrorIs(t, result.Err, contracts.ErrNoParseableContracts)
	assert.Empty(t, result.Chain)
	assert.Len(t, result.Omissions, 2)
}

func TestNormalize_SchemaOnlyFailureIsNotParseFailure(t *testing.T) {
	n := newTestNormalizer()

	rec := rawRecord("SPX240119C00100000", 2.0, 10, 0.05, 0.5)
	rec.Ask = nil

	result := n.Normalize([]contracts.RawContractRecord{rec}, 100.0)
	assert.NoError(t, result.Err)
	assert.Empty(t, result.Chain)
	assert.Len(t, result.Omissions, 1)
}

func TestNormalize_EmptyInput(t *testing.T) {
	result := newTestNormalizer().Normalize(nil, 100.0)
	assert.NoError(t, result.Err)
	assert.NotNil(t, result.Chain)
	assert.Empty(t, result.Chain)
}

func TestNormalize_SortedByExpirationStrikeType(t *testing.T) {
	n := newTestNormalizer()

	result := n.Normalize([]contracts.RawContractRecord{
		rawRecord("SPX240216P00095000", 1, 1, 0.01, -0.3),
		rawRecord("SPX240119P00100000", 1, 1, 0.01, -0.5),
		rawRecord("SPX240119C00100000", 1, 1, 0.01, 0.5),
		rawRecord("SPX240119C00095500", 1, 1, 0.01, 0.6),
	}, 100.0)
	require.Len(t, result.Chain, 4)

	got := make([]string, 0, 4)
	for _, c := range result.Chain {
		got = append(got, c.Expiration.Format("060102")+" "+c.Strike.String()+" "+c.Type.String())
	}
	assert.Equal(t, []string{
		"240119 95.5 Call",
		"240119 100 Call",
		"240119 100 Put",
		"240216 95 Put",
	}, got)
}

func TestNormalizeTick(t *testing.T) {
	assert.Equal(t, "Up", normalizeTick("up"))
	assert.Equal(t, "Down", normalizeTick("DOWN"))
	assert.Equal(t, "No Change", normalizeTick("no_change"))
	assert.Equal(t, "", normalizeTick(""))
}
