package cboe

import (
	"context"
	"strings"

	"github.com/wonny/optiondesk/internal/contracts"
)

type quotesResponse struct {
	Timestamp string `json:"timestamp"`
	Data      struct {
		Symbol       string                        `json:"symbol"`
		CurrentPrice *float64                      `json:"current_price"`
		Options      []contracts.RawContractRecord `json:"options"`
	} `json:"data"`
}

// Quotes fetches the full delayed options chain for symbol
func (c *Client) Quotes(ctx context.Context, symbol string) ([]contracts.RawContractRecord, error) {
	symbol = strings.ToUpper(symbol)

	var resp quotesResponse
	if err := c.getJSON(ctx, symbol, c.endpoints.quotesURL(c.lookup.URLSymbol(symbol)), &resp); err != nil {
		return nil, err
	}

	c.logger.WithTicker(symbol).WithFields(map[string]interface{}{
		"contracts": len(resp.Data.Options),
		"timestamp": resp.Timestamp,
	}).Debug("Fetched option quotes")
	return resp.Data.Options, nil
}
