package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/optiondesk/internal/contracts"
	"github.com/wonny/optiondesk/pkg/logger"
)

// SnapshotSource returns the current snapshot for a ticker
type SnapshotSource interface {
	Snapshot(ctx context.Context, symbol string) (*contracts.TickerSnapshot, error)
}

// TickerHandler serves snapshot views for one ticker
// ⭐ SSOT: 티커 분석 API 핸들러는 이 구조체에서만. 집계를 다시 계산하지 않음
type TickerHandler struct {
	source SnapshotSource
	logger *logger.Logger
}

// NewTickerHandler creates a new ticker handler
func NewTickerHandler(source SnapshotSource, log *logger.Logger) *TickerHandler {
	return &TickerHandler{
		source: source,
		logger: log,
	}
}

// snapshot loads the snapshot for {symbol} and writes the error response on failure
func (h *TickerHandler) snapshot(w http.ResponseWriter, r *http.Request) (*contracts.TickerSnapshot, bool) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return nil, false
	}

	snapshot, err := h.source.Snapshot(r.Context(), symbol)
	if err != nil {
		status, message := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.WithTicker(symbol).WithError(err).Error("Failed to build snapshot")
		}
		respondError(w, status, message)
		return nil, false
	}
	return snapshot, true
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, contracts.ErrNoData):
		return http.StatusNotFound, "no data found for symbol"
	case errors.Is(err, contracts.ErrNoParseableContracts):
		return http.StatusUnprocessableEntity, "no parseable contract identifiers in chain"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream timeout"
	default:
		return http.StatusBadGateway, "failed to load ticker data"
	}
}

// GetSnapshot returns the full snapshot
// GET /api/tickers/{symbol}
func (h *TickerHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	respondData(w, snapshot)
}

// DetailsResponse is the underlying summary view
type DetailsResponse struct {
	Symbol      string                 `json:"symbol"`
	Details     map[string]interface{} `json:"details"`
	Expirations []string               `json:"expirations"`
	IV          map[string]interface{} `json:"iv"`
}

// GetDetails returns details, expirations and IV history as named fields
// GET /api/tickers/{symbol}/details
func (h *TickerHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	expirations := make([]string, len(snapshot.Expirations))
	for i, exp := range snapshot.Expirations {
		expirations[i] = exp.Format("2006-01-02")
	}

	respondData(w, DetailsResponse{
		Symbol:      snapshot.Symbol,
		Details:     snapshot.Details.Map(),
		Expirations: expirations,
		IV:          snapshot.IV.Map(),
	})
}

// GetChain returns the chain, optionally filtered
// GET /api/tickers/{symbol}/chain?type=call|put&expiration=2024-01-19
func (h *TickerHandler) GetChain(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var side contracts.OptionType
	switch strings.ToLower(query.Get("type")) {
	case "":
	case "call", "c":
		side = contracts.Call
	case "put", "p":
		side = contracts.Put
	default:
		respondError(w, http.StatusBadRequest, "type must be call or put")
		return
	}

	var expiration time.Time
	if s := query.Get("expiration"); s != "" {
		exp, err := time.Parse("2006-01-02", s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "expiration must be YYYY-MM-DD")
			return
		}
		expiration = exp
	}

	snapshot, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	chain := snapshot.Chain
	switch side {
	case contracts.Call:
		chain = snapshot.Calls
	case contracts.Put:
		chain = snapshot.Puts
	}
	if !expiration.IsZero() {
		chain = chain.Filter(func(c contracts.NormalizedContract) bool {
			return c.Expiration.Equal(expiration)
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(chain),
		"data":    chain,
	})
}

// GetExpirations returns the by-expiration exposure table
// GET /api/tickers/{symbol}/expirations
func (h *TickerHandler) GetExpirations(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	respondData(w, snapshot.ByExpiration)
}

// GetStrikes returns the by-strike exposure table
// GET /api/tickers/{symbol}/strikes
func (h *TickerHandler) GetStrikes(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	respondData(w, snapshot.ByStrike)
}

// GetSkew returns the IV skew table
// GET /api/tickers/{symbol}/skew
func (h *TickerHandler) GetSkew(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	respondData(w, snapshot.Skew)
}
