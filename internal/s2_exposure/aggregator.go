package s2_exposure

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/optiondesk/internal/contracts"
)

// Config holds aggregation parameters
type Config struct {
	RatioDecimals int `yaml:"ratio_decimals"` // OI/Vol 비율 반올림 (4)
}

// DefaultConfig returns the default aggregation parameters
func DefaultConfig() Config {
	return Config{RatioDecimals: 4}
}

// Aggregator group-reduces partitions into exposure tables
type Aggregator struct {
	config Config
}

// NewAggregator creates a new exposure Aggregator
func NewAggregator(config Config) *Aggregator {
	return &Aggregator{config: config}
}

// totals is the running sum for one group key on one side
type totals struct {
	oi          int64
	volume      int64
	dollarDelta float64
	gex         float64
}

// reduce sums a chain by key. Put 측은 Delta $ / GEX 부호 반전 후 합산
func reduce[K comparable](chain contracts.Chain, key func(contracts.NormalizedContract) K) map[K]*totals {
	groups := make(map[K]*totals)
	for _, c := range chain {
		k := key(c)
		t, ok := groups[k]
		if !ok {
			t = &totals{}
			groups[k] = t
		}

		dollarDelta, gex := c.DollarDelta, c.GEX
		if c.Type == contracts.Put {
			dollarDelta, gex = -dollarDelta, -gex
		}

		t.oi += c.OpenInterest
		t.volume += c.Volume
		t.dollarDelta += dollarDelta
		t.gex += gex
	}
	return groups
}

// lookup returns the group totals or zeros when the side has no contracts for key
func lookup[K comparable](groups map[K]*totals, k K) totals {
	if t, ok := groups[k]; ok {
		return *t
	}
	return totals{}
}

// ByExpiration joins call and put sums per expiration.
// ⭐ SSOT: S2 만기별 집계. 비율의 분모가 0이면 NaN/±Inf (패닉 없음)
func (a *Aggregator) ByExpiration(p contracts.Partition) []contracts.ExpirationSummary {
	byExpiration := func(c contracts.NormalizedContract) time.Time { return c.Expiration }
	calls := reduce(p.Calls, byExpiration)
	puts := reduce(p.Puts, byExpiration)

	keys := make([]time.Time, 0, len(calls)+len(puts))
	for k := range calls {
		keys = append(keys, k)
	}
	for k := range puts {
		if _, ok := calls[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	rows := make([]contracts.ExpirationSummary, 0, len(keys))
	for _, k := range keys {
		call, put := lookup(calls, k), lookup(puts, k)

		row := contracts.ExpirationSummary{
			Expiration: k,

			CallOI: call.oi,
			PutOI:  put.oi,
			NetOI:  call.oi + put.oi,

			CallVolume: call.volume,
			PutVolume:  put.volume,
			NetVolume:  call.volume + put.volume,

			CallDollarDelta: call.dollarDelta,
			PutDollarDelta:  put.dollarDelta,
			NetDollarDelta:  call.dollarDelta + put.dollarDelta,

			CallGEX: call.gex,
			PutGEX:  put.gex,
			NetGEX:  call.gex + put.gex,
		}
		row.OIRatio = a.ratio(float64(row.PutOI), float64(row.CallOI))
		row.VolumeRatio = a.ratio(float64(row.PutVolume), float64(row.CallVolume))
		row.VolumeOIRatio = a.ratio(float64(row.NetVolume), float64(row.NetOI))

		rows = append(rows, row)
	}
	return rows
}

// ByStrike joins call and put sums per strike (no ratio columns)
func (a *Aggregator) ByStrike(p contracts.Partition) []contracts.StrikeSummary {
	// decimal.Decimal은 비교 가능 키가 아니므로 정규화된 문자열로 그룹핑
	strikes := make(map[string]decimal.Decimal)
	byStrike := func(c contracts.NormalizedContract) string {
		k := c.Strike.String()
		if _, ok := strikes[k]; !ok {
			strikes[k] = c.Strike
		}
		return k
	}
	calls := reduce(p.Calls, byStrike)
	puts := reduce(p.Puts, byStrike)

	keys := make([]string, 0, len(strikes))
	for k := range strikes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return strikes[keys[i]].LessThan(strikes[keys[j]]) })

	rows := make([]contracts.StrikeSummary, 0, len(keys))
	for _, k := range keys {
		call, put := lookup(calls, k), lookup(puts, k)

		rows = append(rows, contracts.StrikeSummary{
			Strike: strikes[k],

			CallOI: call.oi,
			PutOI:  put.oi,
			NetOI:  call.oi + put.oi,

			CallVolume: call.volume,
			PutVolume:  put.volume,
			NetVolume:  call.volume + put.volume,

			CallDollarDelta: call.dollarDelta,
			PutDollarDelta:  put.dollarDelta,
			NetDollarDelta:  call.dollarDelta + put.dollarDelta,

			CallGEX: call.gex,
			PutGEX:  put.gex,
			NetGEX:  call.gex + put.gex,
		})
	}
	return rows
}

// ratio divides with IEEE semantics: x/0 → ±Inf, 0/0 → NaN
func (a *Aggregator) ratio(num, den float64) contracts.Float {
	return contracts.Float(contracts.Round(num/den, a.config.RatioDecimals))
}

// JoinSkew returns a copy of rows with the IV Skew column filled from skew records.
// Expirations without a skew record keep a nil IVSkew.
func JoinSkew(rows []contracts.ExpirationSummary, skew []contracts.SkewRecord) []contracts.ExpirationSummary {
	byExpiration := make(map[int64]float64, len(skew))
	for _, s := range skew {
		byExpiration[s.Expiration.Unix()] = s.Skew
	}

	out := make([]contracts.ExpirationSummary, len(rows))
	for i, row := range rows {
		if v, ok := byExpiration[row.Expiration.Unix()]; ok {
			row.IVSkew = &v
		}
		out[i] = row
	}
	return out
}
