package analyticsconfig

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/optiondesk/internal/s1_chain"
	"github.com/wonny/optiondesk/internal/s2_exposure"
	"github.com/wonny/optiondesk/internal/s3_skew"
)

func TestLoad(t *testing.T) {
	path := "../../config/analytics/cboe_default.yaml"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, yamlData, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, yamlData)

	assert.Equal(t, "cboe_default", cfg.Meta.ConfigID)
	assert.Equal(t, 100.0, cfg.Chain.ContractMultiplier)
	assert.Equal(t, []string{"NDX", "RUT"}, cfg.Reference.TickerExceptions)

	// 저장소의 YAML은 Default()와 동일해야 함
	fileHash, err := Hash(cfg)
	require.NoError(t, err)
	defaultHash, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, defaultHash, fileHash)
	assert.Len(t, fileHash, 64)
}

func TestDefault_MatchesStageDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, s1_chain.DefaultConfig(), cfg.ChainConfig())
	assert.Equal(t, s2_exposure.DefaultConfig(), cfg.ExposureConfig())
	assert.Equal(t, s3_skew.DefaultConfig(), cfg.SkewConfig())
	assert.Empty(t, Warn(cfg))
}

func TestParse_PartialOverride(t *testing.T) {
	cfg, err := Parse([]byte(`
skew:
  call_band:
    low: 1.0
    high: 1.1
`))
	require.NoError(t, err)

	assert.Equal(t, 1.0, cfg.Skew.CallBand.Low)
	assert.Equal(t, 0.94, cfg.Skew.PutBand.Low, "omitted sections keep defaults")
	assert.Equal(t, 252.0, cfg.Chain.TradingDays)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("chain:\n  gex_scal: 0.02\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing id", func(c *Config) { c.Meta.ConfigID = "" }, "meta.config_id"},
		{"zero multiplier", func(c *Config) { c.Chain.ContractMultiplier = 0 }, "chain.contract_multiplier"},
		{"negative gex scale", func(c *Config) { c.Chain.GEXScale = -0.01 }, "chain.gex_scale"},
		{"trading days", func(c *Config) { c.Chain.TradingDays = 400 }, "chain.trading_days"},
		{"precision", func(c *Config) { c.Chain.Precision.Price = -1 }, "chain.precision.price"},
		{"ratio decimals", func(c *Config) { c.Exposure.RatioDecimals = 11 }, "exposure.ratio_decimals"},
		{"inverted call band", func(c *Config) { c.Skew.CallBand = Band{Low: 1.1, High: 1.0} }, "skew.call_band"},
		{"zero put band", func(c *Config) { c.Skew.PutBand.Low = 0 }, "skew.put_band.low"},
		{"lowercase ticker", func(c *Config) { c.Reference.TickerExceptions = []string{"ndx"} }, "reference.ticker_exceptions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var ve ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestWarn(t *testing.T) {
	cfg := Default()
	cfg.Chain.ContractMultiplier = 10
	cfg.Skew.CallBand.Low = 0.95
	cfg.Skew.PutBand.High = 1.02

	codes := make([]string, 0)
	for _, w := range Warn(cfg) {
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []string{"NON_STANDARD_MULTIPLIER", "ITM_CALL_BAND", "ITM_PUT_BAND"}, codes)
}

func TestHash_Deterministic(t *testing.T) {
	a, err := Hash(Default())
	require.NoError(t, err)
	b, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	changed := Default()
	changed.Skew.PutBand.Low = 0.95
	c, err := Hash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "cboe_default", cfg.Meta.ConfigID)

	_, err = LoadOrDefault("does/not/exist.yaml")
	assert.Error(t, err)
}
