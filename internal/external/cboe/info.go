package cboe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/optiondesk/internal/contracts"
)

// expirationLayouts are the date formats seen on the symbol-info endpoint
var expirationLayouts = []string{"2006-01-02", "01/02/2006"}

type symbolInfoResponse struct {
	Success     bool          `json:"success"`
	Details     symbolDetails `json:"details"`
	Expirations []string      `json:"expirations"`
}

// symbolDetails는 stock/index 공통 상위 집합. index에는 bid/ask/size/volume 없음
type symbolDetails struct {
	Symbol             string   `json:"symbol"`
	SecurityType       string   `json:"security_type"`
	Tick               string   `json:"tick"`
	CurrentPrice       *float64 `json:"current_price"`
	Bid                *float64 `json:"bid"`
	Ask                *float64 `json:"ask"`
	BidSize            *float64 `json:"bid_size"`
	AskSize            *float64 `json:"ask_size"`
	Open               *float64 `json:"open"`
	High               *float64 `json:"high"`
	Low                *float64 `json:"low"`
	Close              *float64 `json:"close"`
	Volume             *float64 `json:"volume"`
	PrevDayClose       *float64 `json:"prev_day_close"`
	PriceChange        *float64 `json:"price_change"`
	PriceChangePercent *float64 `json:"price_change_percent"`
	IV30               *float64 `json:"iv30"`
	IV30Change         *float64 `json:"iv30_change"`
	IV30PercentChange  *float64 `json:"iv30_percent_change"` // stock
	IV30ChangePercent  *float64 `json:"iv30_change_percent"` // index
	LastTradeTime      string   `json:"last_trade_time"`
}

type historicalResponse struct {
	Data struct {
		Symbol string `json:"symbol"`
		contracts.IVHistory
	} `json:"data"`
}

func val(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func firstOf(ps ...*float64) float64 {
	for _, p := range ps {
		if p != nil {
			return *p
		}
	}
	return 0
}

// TickerInfo fetches underlying details and listed expirations
func (c *Client) TickerInfo(ctx context.Context, symbol string) (*contracts.TickerInfo, error) {
	symbol = strings.ToUpper(symbol)

	var resp symbolInfoResponse
	if err := c.getJSON(ctx, symbol, c.endpoints.symbolInfoURL(c.lookup.InfoSymbol(symbol)), &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		c.logger.WithTicker(symbol).Warn("No data found for symbol")
		return nil, fmt.Errorf("%s: %w", symbol, contracts.ErrNoData)
	}

	info := &contracts.TickerInfo{
		Details:     toDetails(symbol, resp.Details),
		Expirations: c.parseExpirations(symbol, resp.Expirations),
	}

	c.logger.WithTicker(symbol).WithFields(map[string]interface{}{
		"type":        info.Details.Type,
		"price":       info.Details.CurrentPrice,
		"expirations": len(info.Expirations),
	}).Debug("Fetched ticker info")
	return info, nil
}

// toDetails maps the raw payload to TickerDetails; index underlyings drop quote-size fields
func toDetails(symbol string, d symbolDetails) contracts.TickerDetails {
	details := contracts.TickerDetails{
		Symbol:            symbol,
		Type:              contracts.SecurityStock,
		Tick:              d.Tick,
		CurrentPrice:      val(d.CurrentPrice),
		Open:              val(d.Open),
		High:              val(d.High),
		Low:               val(d.Low),
		Close:             val(d.Close),
		PreviousClose:     val(d.PrevDayClose),
		Change:            val(d.PriceChange),
		ChangePercent:     val(d.PriceChangePercent),
		IV30:              val(d.IV30),
		IV30Change:        val(d.IV30Change),
		IV30ChangePercent: firstOf(d.IV30PercentChange, d.IV30ChangePercent),
		LastTradeTime:     d.LastTradeTime,
	}

	if strings.EqualFold(d.SecurityType, string(contracts.SecurityIndex)) {
		details.Type = contracts.SecurityIndex
		return details
	}

	details.Bid = val(d.Bid)
	details.Ask = val(d.Ask)
	details.BidSize = val(d.BidSize)
	details.AskSize = val(d.AskSize)
	details.Volume = val(d.Volume)
	return details
}

func (c *Client) parseExpirations(symbol string, raw []string) []time.Time {
	out := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		exp, ok := parseDate(s)
		if !ok {
			c.logger.WithTicker(symbol).WithField("expiration", s).Warn("Skipping unparseable expiration")
			continue
		}
		out = append(out, exp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range expirationLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IVHistory fetches 1Y high/low historical and implied volatility
func (c *Client) IVHistory(ctx context.Context, symbol string) (*contracts.IVHistory, error) {
	symbol = strings.ToUpper(symbol)

	var resp historicalResponse
	if err := c.getJSON(ctx, symbol, c.endpoints.historyURL(c.lookup.URLSymbol(symbol)), &resp); err != nil {
		return nil, err
	}

	history := resp.Data.IVHistory
	return &history, nil
}
