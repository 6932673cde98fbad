package contracts

import "context"

// QuoteProvider retrieves raw quotes and reference metadata for one ticker.
// ⭐ SSOT: 외부 데이터 경계. 코어는 이 인터페이스 뒤의 I/O를 모름
type QuoteProvider interface {
	// TickerInfo returns the underlying details and listed expirations
	TickerInfo(ctx context.Context, symbol string) (*TickerInfo, error)

	// IVHistory returns 1Y high/low volatility statistics
	IVHistory(ctx context.Context, symbol string) (*IVHistory, error)

	// Quotes returns the raw per-contract records of the full chain
	Quotes(ctx context.Context, symbol string) ([]RawContractRecord, error)
}

// SnapshotCache stores published snapshots between requests
type SnapshotCache interface {
	GetSnapshot(ctx context.Context, symbol string) (*TickerSnapshot, bool, error)
	SetSnapshot(ctx context.Context, snapshot *TickerSnapshot) error
}
