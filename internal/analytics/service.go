package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wonny/optiondesk/internal/contracts"
	"github.com/wonny/optiondesk/pkg/logger"
)

// Service fetches provider data, builds snapshots and caches them
type Service struct {
	provider contracts.QuoteProvider
	cache    contracts.SnapshotCache
	builder  *Builder
	logger   *logger.Logger
}

// NewService creates a snapshot service. cache may be nil.
func NewService(provider contracts.QuoteProvider, cache contracts.SnapshotCache, builder *Builder, log *logger.Logger) *Service {
	return &Service{
		provider: provider,
		cache:    cache,
		builder:  builder,
		logger:   log,
	}
}

// Snapshot returns the cached snapshot for symbol or builds a fresh one
func (s *Service) Snapshot(ctx context.Context, symbol string) (*contracts.TickerSnapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol: %w", contracts.ErrNoData)
	}

	if s.cache != nil {
		cached, found, err := s.cache.GetSnapshot(ctx, symbol)
		if err != nil {
			// 캐시 장애는 무시하고 새로 생성
			s.logger.WithTicker(symbol).WithError(err).Warn("Snapshot cache read failed")
		} else if found {
			s.logger.WithTicker(symbol).WithField("run_id", cached.RunID).Debug("Snapshot cache hit")
			return cached, nil
		}
	}

	return s.Refresh(ctx, symbol)
}

// Refresh builds a new snapshot from the provider and replaces the cached one
func (s *Service) Refresh(ctx context.Context, symbol string) (*contracts.TickerSnapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	log := s.logger.WithTicker(symbol)

	inputs, err := s.fetch(ctx, symbol)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.builder.Build(inputs)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetSnapshot(ctx, snapshot); err != nil {
			log.WithError(err).Warn("Snapshot cache write failed")
		}
	}
	return snapshot, nil
}

// fetch gathers provider data. Missing IV history or quotes degrade to empty values.
func (s *Service) fetch(ctx context.Context, symbol string) (Inputs, error) {
	log := s.logger.WithTicker(symbol)
	in := Inputs{Symbol: symbol}

	info, err := s.provider.TickerInfo(ctx, symbol)
	if err != nil {
		return in, fmt.Errorf("ticker info: %w", err)
	}
	in.Info = info

	iv, err := s.provider.IVHistory(ctx, symbol)
	switch {
	case err == nil:
		in.IV = iv
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return in, err
	default:
		log.WithError(err).Warn("IV history unavailable")
	}

	records, err := s.provider.Quotes(ctx, symbol)
	switch {
	case err == nil:
		in.Records = records
	case errors.Is(err, contracts.ErrNoData):
		log.Warn("No option quotes for symbol")
	default:
		return in, fmt.Errorf("option quotes: %w", err)
	}

	return in, nil
}
