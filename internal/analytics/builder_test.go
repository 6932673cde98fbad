package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/optiondesk/internal/analyticsconfig"
	"github.com/wonny/optiondesk/internal/contracts"
	"github.com/wonny/optiondesk/internal/reference"
	"github.com/wonny/optiondesk/pkg/logger"
)

var fixedNow = time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)

var jan19 = time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

func record(option string, oi, gamma, delta, iv float64) contracts.RawContractRecord {
	return contracts.RawContractRecord{
		Option:         option,
		Bid:            ptr(1.9),
		BidSize:        ptr(10),
		Ask:            ptr(2.0),
		AskSize:        ptr(10),
		IV:             ptr(iv),
		OpenInterest:   ptr(oi),
		Volume:         ptr(5),
		Delta:          ptr(delta),
		Gamma:          ptr(gamma),
		Theta:          ptr(-0.05),
		Rho:            ptr(0.01),
		Vega:           ptr(0.12),
		Theo:           ptr(2.0),
		Open:           ptr(1.5),
		High:           ptr(2.5),
		Low:            ptr(1.25),
		Tick:           "up",
		LastTradePrice: ptr(2.0),
		LastTradeTime:  "2024-01-10T14:59:58",
		PercentChange:  ptr(0.5),
		PrevDayClose:   ptr(1.99),
	}
}

func stockInfo(price float64) *contracts.TickerInfo {
	return &contracts.TickerInfo{
		Details: contracts.TickerDetails{
			Symbol:       "TEST",
			Type:         contracts.SecurityStock,
			CurrentPrice: price,
		},
		Expirations: []time.Time{jan19},
	}
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	lookup := reference.NewLookup(nil, nil, []reference.DirectoryEntry{{Symbol: "TEST", CompanyName: "TEST CORP"}})
	b, err := NewBuilder(analyticsconfig.Default(), lookup, logger.Nop(),
		WithClock(func() time.Time { return fixedNow }),
		WithRunIDs(func() string { return "run-1" }),
	)
	require.NoError(t, err)
	return b
}

func TestBuild_FullChain(t *testing.T) {
	b := newTestBuilder(t)

	snapshot, err := b.Build(Inputs{
		Symbol: "test",
		Info:   stockInfo(100),
		IV:     &contracts.IVHistory{IV30High: 0.4},
		Records: []contracts.RawContractRecord{
			record("TEST240119P00100000", 30, 0.04, -0.45, 0.22),
			record("TEST240119C00105000", 20, 0.03, 0.30, 0.18),
			record("TEST240119C00100000", 10, 0.05, 0.50, 0.20),
			record("TEST240119P00095000", 40, 0.02, -0.20, 0.25),
			record("garbage", 1, 1, 1, 1),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "run-1", snapshot.RunID)
	assert.Equal(t, "TEST", snapshot.Symbol)
	assert.Equal(t, fixedNow, snapshot.GeneratedAt)
	assert.Equal(t, 100.0, snapshot.Spot)
	assert.NotEmpty(t, snapshot.ConfigHash)
	assert.Equal(t, 0.4, snapshot.IV.IV30High)
	assert.Equal(t, "TEST CORP", snapshot.Details.Name)
	assert.Equal(t, 1, snapshot.Omitted)

	// (exp, strike, type) 정렬
	require.Len(t, snapshot.Chain, 4)
	assert.True(t, snapshot.Chain[0].Strike.Equal(decimal.NewFromInt(95)))
	assert.Equal(t, contracts.Call, snapshot.Chain[1].Type)
	assert.Equal(t, contracts.Put, snapshot.Chain[2].Type)
	assert.Len(t, snapshot.Calls, 2)
	assert.Len(t, snapshot.Puts, 2)

	require.Len(t, snapshot.ByExpiration, 1)
	row := snapshot.ByExpiration[0]
	assert.Equal(t, int64(30), row.CallOI)
	assert.Equal(t, int64(70), row.PutOI)
	assert.InDelta(t, 2.3333, float64(row.OIRatio), 1e-9)

	// Skew: call 최소 행사가 100 (IV 0.20), put 최소 행사가 95 (IV 0.25)
	require.Len(t, snapshot.Skew, 1)
	assert.True(t, snapshot.Skew[0].CallStrike.Equal(decimal.NewFromInt(100)))
	assert.True(t, snapshot.Skew[0].PutStrike.Equal(decimal.NewFromInt(95)))
	assert.InDelta(t, 0.05, snapshot.Skew[0].Skew, 1e-9)
	require.NotNil(t, row.IVSkew)
	assert.InDelta(t, 0.05, *row.IVSkew, 1e-9)

	assert.InDelta(t, 70.0/30.0, float64(snapshot.Details.PutCallRatio), 1e-9)
	assert.Len(t, snapshot.ByStrike, 3)

	require.Len(t, snapshot.Stages, 5)
	for i, stage := range contracts.AllStages() {
		assert.Equal(t, stage, snapshot.Stages[i].Stage)
		assert.True(t, snapshot.Stages[i].Success)
	}
	assert.Equal(t, 5, snapshot.Stages[0].InputCount)
	assert.Equal(t, 4, snapshot.Stages[0].OutputCount)
}

func TestBuild_PutOnly(t *testing.T) {
	b := newTestBuilder(t)

	snapshot, err := b.Build(Inputs{
		Symbol:  "TEST",
		Info:    stockInfo(100),
		Records: []contracts.RawContractRecord{record("TEST240119P00100000", 10, 0.05, -0.5, 0.2)},
	})
	require.NoError(t, err)

	require.Len(t, snapshot.ByExpiration, 1)
	row := snapshot.ByExpiration[0]
	gex := 0.05 * 100 * 10 * 100 * 100 * 0.01
	assert.InDelta(t, -gex, row.NetGEX, 1e-9)
	assert.Equal(t, int64(0), row.CallOI)
	assert.True(t, math.IsInf(float64(row.OIRatio), 1))

	assert.True(t, math.IsInf(float64(snapshot.Details.PutCallRatio), 1))
	assert.Empty(t, snapshot.Calls)
	assert.Empty(t, snapshot.Skew)
	assert.Nil(t, row.IVSkew)
}

func TestBuild_EmptyInput(t *testing.T) {
	b := newTestBuilder(t)

	snapshot, err := b.Build(Inputs{Symbol: "TEST", Info: stockInfo(100)})
	require.NoError(t, err)

	assert.True(t, snapshot.IsEmpty())
	assert.NotNil(t, snapshot.Calls)
	assert.NotNil(t, snapshot.Puts)
	assert.Empty(t, snapshot.ByExpiration)
	assert.Empty(t, snapshot.ByStrike)
	assert.Empty(t, snapshot.Skew)
	assert.True(t, math.IsNaN(float64(snapshot.Details.PutCallRatio)))
	assert.Len(t, snapshot.Stages, 5)
}

func TestBuild_NoInfo(t *testing.T) {
	b := newTestBuilder(t)

	snapshot, err := b.Build(Inputs{Symbol: "test"})
	require.NoError(t, err)
	assert.Equal(t, "TEST", snapshot.Details.Symbol)
	assert.Zero(t, snapshot.Spot)
	assert.NotNil(t, snapshot.Expirations)
}

func TestBuild_TotalParseFailure(t *testing.T) {
	b := newTestBuilder(t)

	snapshot, err := b.Build(Inputs{
		Symbol: "TEST",
		Info:   stockInfo(100),
		Records: []contracts.RawContractRecord{
			record("nope", 1, 1, 1, 1),
			record("TEST2401C00100000", 1, 1, 1, 1),
		},
	})
	assert.ErrorIs(t, err, contracts.ErrNoParseableContracts)
	assert.Nil(t, snapshot)
}

func TestBuild_DoesNotAliasInputs(t *testing.T) {
	b := newTestBuilder(t)
	info := stockInfo(100)

	snapshot, err := b.Build(Inputs{Symbol: "TEST", Info: info})
	require.NoError(t, err)

	info.Expirations[0] = time.Time{}
	info.Details.CurrentPrice = 1
	assert.Equal(t, jan19, snapshot.Expirations[0])
	assert.Equal(t, 100.0, snapshot.Details.CurrentPrice)
}

func TestPutCallRatio(t *testing.T) {
	tests := []struct {
		name  string
		rows  []contracts.ExpirationSummary
		check func(float64) bool
	}{
		{"ratio", []contracts.ExpirationSummary{{CallOI: 10, PutOI: 5}, {CallOI: 10, PutOI: 15}}, func(v float64) bool { return v == 1 }},
		{"no calls", []contracts.ExpirationSummary{{PutOI: 5}}, func(v float64) bool { return math.IsInf(v, 1) }},
		{"empty", nil, math.IsNaN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(float64(PutCallRatio(tt.rows))))
		})
	}
}
