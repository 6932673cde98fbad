package cboe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/wonny/optiondesk/internal/contracts"
	"github.com/wonny/optiondesk/internal/reference"
	"github.com/wonny/optiondesk/pkg/config"
	"github.com/wonny/optiondesk/pkg/httputil"
	"github.com/wonny/optiondesk/pkg/logger"
)

// Endpoints holds the CBOE base URLs
type Endpoints struct {
	CDN  string // https://cdn.cboe.com
	Site string // https://www.cboe.com
}

// EndpointsFromConfig reads base URLs from the app config
func EndpointsFromConfig(cfg *config.Config) Endpoints {
	return Endpoints{
		CDN:  strings.TrimRight(cfg.CBOE.CDNURL, "/"),
		Site: strings.TrimRight(cfg.CBOE.SiteURL, "/"),
	}
}

func (e Endpoints) quotesURL(urlSymbol string) string {
	return fmt.Sprintf("%s/api/global/delayed_quotes/options/%s.json", e.CDN, urlSymbol)
}

func (e Endpoints) historyURL(urlSymbol string) string {
	return fmt.Sprintf("%s/api/global/delayed_quotes/historical_data/%s.json", e.CDN, urlSymbol)
}

func (e Endpoints) symbolInfoURL(infoSymbol string) string {
	return fmt.Sprintf("%s/education/tools/trade-optimizer/symbol-info/?symbol=%s", e.Site, url.QueryEscape(infoSymbol))
}

func (e Endpoints) indexDirectoryURL() string {
	return e.CDN + "/api/global/us_indices/definitions/all_indices.json"
}

func (e Endpoints) listingDirectoryURL() string {
	return e.Site + "/us/options/symboldir/equity_index_options/?download=csv"
}

// Client fetches delayed quotes and ticker metadata from CBOE.
// Implements contracts.QuoteProvider.
// ⭐ SSOT: CBOE API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	lookup     *reference.Lookup
	endpoints  Endpoints
	logger     *logger.Logger
}

// NewClient creates a CBOE client. lookup decides the URL form of each symbol.
func NewClient(httpClient *httputil.Client, lookup *reference.Lookup, endpoints Endpoints, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		lookup:     lookup,
		endpoints:  endpoints,
		logger:     log,
	}
}

var _ contracts.QuoteProvider = (*Client)(nil)

// getJSON fetches url into dest. 403/404 from the CDN mean the symbol has no data.
func (c *Client) getJSON(ctx context.Context, symbol, target string, dest interface{}) error {
	err := c.httpClient.GetJSON(ctx, target, dest)
	if err == nil {
		return nil
	}

	var statusErr *httputil.StatusError
	if errors.As(err, &statusErr) &&
		(statusErr.StatusCode == http.StatusNotFound || statusErr.StatusCode == http.StatusForbidden) {
		c.logger.WithTicker(symbol).WithField("status_code", statusErr.StatusCode).Warn("No data found for symbol")
		return fmt.Errorf("%s: %w", symbol, contracts.ErrNoData)
	}
	return fmt.Errorf("cboe %s: %w", symbol, err)
}
