package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/optiondesk/internal/analyticsconfig"
	"github.com/wonny/optiondesk/internal/contracts"
	"github.com/wonny/optiondesk/internal/reference"
	"github.com/wonny/optiondesk/internal/s1_chain"
	"github.com/wonny/optiondesk/internal/s2_exposure"
	"github.com/wonny/optiondesk/internal/s3_skew"
	"github.com/wonny/optiondesk/pkg/logger"
)

// Inputs is the materialized provider data for one ticker request
type Inputs struct {
	Symbol  string
	Info    *contracts.TickerInfo // nil → no details, empty snapshot
	IV      *contracts.IVHistory  // nil → zero IV history
	Records []contracts.RawContractRecord
}

// Builder runs the S0→S4 stages over materialized inputs.
// ⭐ SSOT: TickerSnapshot 조립은 여기서만. I/O 없음
type Builder struct {
	normalizer *s1_chain.Normalizer
	aggregator *s2_exposure.Aggregator
	calculator *s3_skew.Calculator
	lookup     *reference.Lookup
	configHash string
	logger     *logger.Logger
	now        func() time.Time
	newRunID   func() string
}

// Option configures a Builder
type Option func(*Builder)

// WithClock fixes "now" for DTE and GeneratedAt
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// WithRunIDs overrides run ID generation
func WithRunIDs(fn func() string) Option {
	return func(b *Builder) {
		b.newRunID = fn
	}
}

// NewBuilder wires the stage components from an analytics config
func NewBuilder(cfg *analyticsconfig.Config, lookup *reference.Lookup, log *logger.Logger, opts ...Option) (*Builder, error) {
	hash, err := analyticsconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash analytics config: %w", err)
	}

	b := &Builder{
		aggregator: s2_exposure.NewAggregator(cfg.ExposureConfig()),
		calculator: s3_skew.NewCalculator(cfg.SkewConfig()),
		lookup:     lookup,
		configHash: hash,
		logger:     log,
		now:        time.Now,
		newRunID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.normalizer = s1_chain.NewNormalizer(cfg.ChainConfig(), log, s1_chain.WithClock(b.now))
	return b, nil
}

// Build assembles one immutable snapshot.
// Total parse failure returns an error and no snapshot; partial snapshots are never published.
func (b *Builder) Build(in Inputs) (*contracts.TickerSnapshot, error) {
	start := b.now()
	symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
	runID := b.newRunID()
	log := b.logger.WithTicker(symbol).WithRun(runID)

	snapshot := &contracts.TickerSnapshot{
		RunID:        runID,
		Symbol:       symbol,
		GeneratedAt:  start.UTC(),
		ConfigHash:   b.configHash,
		Expirations:  []time.Time{},
		Chain:        contracts.Chain{},
		Calls:        contracts.Chain{},
		Puts:         contracts.Chain{},
		ByExpiration: []contracts.ExpirationSummary{},
		ByStrike:     []contracts.StrikeSummary{},
		Skew:         []contracts.SkewRecord{},
		Stages:       make([]contracts.PipelineResult, 0, len(contracts.AllStages())),
	}
	if in.Info != nil {
		snapshot.Details = in.Info.Details
		snapshot.Expirations = append(snapshot.Expirations, in.Info.Expirations...)
		snapshot.Spot = in.Info.Details.CurrentPrice
	}
	if in.IV != nil {
		snapshot.IV = *in.IV
	}
	snapshot.Details.Symbol = symbol

	// S0 + S1: Decode and normalize
	if err := b.runChain(snapshot, in.Records); err != nil {
		log.WithError(err).Error("Snapshot build failed")
		return nil, err
	}

	// S1: Partition
	partition, err := s1_chain.Split(snapshot.Chain)
	if err != nil && !errors.Is(err, contracts.ErrEmptyInput) {
		return nil, fmt.Errorf("split chain: %w", err)
	}
	snapshot.Calls = partition.Calls
	snapshot.Puts = partition.Puts

	// S2: Exposure
	b.runExposure(snapshot, partition)

	// S3: Skew
	b.runSkew(snapshot, partition)

	// S4: Snapshot details
	b.runSnapshot(snapshot)

	log.WithFields(map[string]interface{}{
		"contracts":   len(snapshot.Chain),
		"omitted":     snapshot.Omitted,
		"expirations": len(snapshot.ByExpiration),
		"duration_ms": b.now().Sub(start).Milliseconds(),
	}).Info("Snapshot built")

	return snapshot, nil
}

// runChain executes S0/S1 and records both stage results
func (b *Builder) runChain(snapshot *contracts.TickerSnapshot, records []contracts.RawContractRecord) error {
	start := time.Now()
	result := b.normalizer.Normalize(records, snapshot.Spot)
	elapsed := time.Since(start).Microseconds()

	symbolOmitted := 0
	for _, o := range result.Omissions {
		if o.Stage == contracts.StageSymbol {
			symbolOmitted++
		}
	}
	decoded := len(records) - symbolOmitted

	s0 := contracts.PipelineResult{
		Stage:       contracts.StageSymbol,
		Success:     result.Err == nil,
		InputCount:  len(records),
		OutputCount: decoded,
		Duration:    elapsed,
	}
	if result.Err != nil {
		s0.Error = result.Err.Error()
		snapshot.Stages = append(snapshot.Stages, s0)
		return fmt.Errorf("%s: %w", snapshot.Symbol, result.Err)
	}

	snapshot.Chain = result.Chain
	snapshot.Omitted = len(result.Omissions)
	snapshot.Stages = append(snapshot.Stages, s0, contracts.PipelineResult{
		Stage:       contracts.StageChain,
		Success:     true,
		InputCount:  decoded,
		OutputCount: len(result.Chain),
		Duration:    elapsed,
		Metadata: map[string]interface{}{
			"omitted": len(result.Omissions) - symbolOmitted,
		},
	})
	return nil
}

func (b *Builder) runExposure(snapshot *contracts.TickerSnapshot, p contracts.Partition) {
	start := time.Now()
	snapshot.ByExpiration = b.aggregator.ByExpiration(p)
	snapshot.ByStrike = b.aggregator.ByStrike(p)

	snapshot.Stages = append(snapshot.Stages, contracts.PipelineResult{
		Stage:       contracts.StageExposure,
		Success:     true,
		InputCount:  len(snapshot.Chain),
		OutputCount: len(snapshot.ByExpiration),
		Duration:    time.Since(start).Microseconds(),
		Metadata: map[string]interface{}{
			"strikes": len(snapshot.ByStrike),
		},
	})
}

func (b *Builder) runSkew(snapshot *contracts.TickerSnapshot, p contracts.Partition) {
	start := time.Now()
	snapshot.Skew = b.calculator.Calculate(p, snapshot.Spot)
	snapshot.ByExpiration = s2_exposure.JoinSkew(snapshot.ByExpiration, snapshot.Skew)

	snapshot.Stages = append(snapshot.Stages, contracts.PipelineResult{
		Stage:       contracts.StageSkew,
		Success:     true,
		InputCount:  len(snapshot.Chain),
		OutputCount: len(snapshot.Skew),
		Duration:    time.Since(start).Microseconds(),
	})
}

// runSnapshot fills the details derived from the aggregates
func (b *Builder) runSnapshot(snapshot *contracts.TickerSnapshot) {
	start := time.Now()
	snapshot.Details.PutCallRatio = PutCallRatio(snapshot.ByExpiration)
	if snapshot.Details.Name == "" && b.lookup != nil {
		snapshot.Details.Name = b.lookup.CompanyName(snapshot.Symbol)
	}

	snapshot.Stages = append(snapshot.Stages, contracts.PipelineResult{
		Stage:       contracts.StageSnapshot,
		Success:     true,
		InputCount:  len(snapshot.ByExpiration),
		OutputCount: 1,
		Duration:    time.Since(start).Microseconds(),
	})
}

// PutCallRatio is total put OI over total call OI across expirations.
// Zero call OI yields +Inf (or NaN when put OI is zero too).
func PutCallRatio(rows []contracts.ExpirationSummary) contracts.Float {
	var callOI, putOI int64
	for _, r := range rows {
		callOI += r.CallOI
		putOI += r.PutOI
	}
	return contracts.Float(float64(putOI) / float64(callOI))
}
