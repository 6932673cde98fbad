package cboe

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/wonny/optiondesk/internal/reference"
	"github.com/wonny/optiondesk/pkg/httputil"
	"github.com/wonny/optiondesk/pkg/logger"
	"github.com/wonny/optiondesk/pkg/redis"
)

// listingRow is one line of the symbol directory CSV.
// 헤더는 " Stock Symbol" 처럼 앞 공백이 붙어 있어 파싱 전에 정리함
type listingRow struct {
	CompanyName string `csv:"Company Name"`
	Symbol      string `csv:"Stock Symbol"`
	DPMName     string `csv:"DPM Name"`
	PostStation string `csv:"Post/Station"`
}

type indexRow struct {
	Symbol        string     `json:"index_symbol"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Currency      string     `json:"currency"`
	TickDays      flexString `json:"tick_days"`
	TickFrequency flexString `json:"tick_frequency"`
	TickPeriod    flexString `json:"tick_period"`
	TimeZone      string     `json:"time_zone"`
}

// flexString accepts a JSON string, number or null
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

// Directory loads the CBOE index and listings directories
type Directory struct {
	httpClient  *httputil.Client
	endpoints   Endpoints
	cache       *redis.Cache
	listingFile string
	logger      *logger.Logger
}

// NewDirectory creates a directory loader
func NewDirectory(httpClient *httputil.Client, endpoints Endpoints, log *logger.Logger) *Directory {
	return &Directory{
		httpClient: httpClient,
		endpoints:  endpoints,
		cache:      redis.NewCache(redis.Disabled(), "optiondesk"),
		logger:     log,
	}
}

// WithCache keeps fetched directories in Redis for TTLReference
func (d *Directory) WithCache(cache *redis.Cache) *Directory {
	d.cache = cache
	return d
}

// WithListingFile reads the listings CSV from a local file instead of the site
func (d *Directory) WithListingFile(path string) *Directory {
	d.listingFile = path
	return d
}

func (d *Directory) cached(ctx context.Context, name string, dest interface{}, fn func() (interface{}, error)) error {
	return d.cache.GetOrSet(ctx, redis.ReferenceKey(name), dest, redis.TTLReference, fn)
}

// Indexes returns the CBOE index directory
func (d *Directory) Indexes(ctx context.Context) ([]reference.IndexEntry, error) {
	var entries []reference.IndexEntry
	err := d.cached(ctx, "index_directory", &entries, func() (interface{}, error) {
		var rows []indexRow
		if err := d.httpClient.GetJSON(ctx, d.endpoints.indexDirectoryURL(), &rows); err != nil {
			return nil, fmt.Errorf("index directory: %w", err)
		}
		return toIndexEntries(rows), nil
	})
	return entries, err
}

func toIndexEntries(rows []indexRow) []reference.IndexEntry {
	out := make([]reference.IndexEntry, 0, len(rows))
	for _, r := range rows {
		if strings.TrimSpace(r.Symbol) == "" {
			continue
		}
		out = append(out, reference.IndexEntry{
			Symbol:      strings.TrimSpace(r.Symbol),
			Name:        r.Name,
			Description: r.Description,
			Currency:    r.Currency,
			TickDays:    string(r.TickDays),
			Frequency:   string(r.TickFrequency),
			Period:      string(r.TickPeriod),
			TimeZone:    r.TimeZone,
		})
	}
	return out
}

// Listings returns the CBOE equity/index options listings directory
func (d *Directory) Listings(ctx context.Context) ([]reference.DirectoryEntry, error) {
	if d.listingFile != "" {
		data, err := os.ReadFile(d.listingFile)
		if err != nil {
			return nil, fmt.Errorf("read listing file: %w", err)
		}
		return ParseListingCSV(data)
	}

	var entries []reference.DirectoryEntry
	err := d.cached(ctx, "listing_directory", &entries, func() (interface{}, error) {
		data, err := d.download(ctx, d.endpoints.listingDirectoryURL())
		if err != nil {
			return nil, fmt.Errorf("listing directory: %w", err)
		}
		return ParseListingCSV(data)
	})
	return entries, err
}

func (d *Directory) download(ctx context.Context, target string) ([]byte, error) {
	resp, err := d.httpClient.Get(ctx, target)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// ParseListingCSV parses the listings directory CSV
func ParseListingCSV(data []byte) ([]reference.DirectoryEntry, error) {
	reader := csv.NewReader(bytes.NewReader(normalizeHeader(data)))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows []listingRow
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, fmt.Errorf("parse listing csv: %w", err)
	}

	out := make([]reference.DirectoryEntry, 0, len(rows))
	for _, r := range rows {
		sym := strings.TrimSpace(r.Symbol)
		if sym == "" {
			continue
		}
		out = append(out, reference.DirectoryEntry{
			Symbol:      sym,
			CompanyName: strings.TrimSpace(r.CompanyName),
			DPMName:     strings.TrimSpace(r.DPMName),
			PostStation: strings.TrimSpace(r.PostStation),
		})
	}
	return out, nil
}

// normalizeHeader trims whitespace and a UTF-8 BOM around header names
func normalizeHeader(data []byte) []byte {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	end := bytes.IndexByte(data, '\n')
	if end < 0 {
		end = len(data)
	}
	header := strings.Split(strings.TrimRight(string(data[:end]), "\r"), ",")
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	var buf bytes.Buffer
	buf.WriteString(strings.Join(header, ","))
	buf.Write(data[end:])
	return buf.Bytes()
}

// Lookup builds the reference lookup. A failed directory is logged and left empty.
func (d *Directory) Lookup(ctx context.Context, exceptions []string) *reference.Lookup {
	indexes, err := d.Indexes(ctx)
	if err != nil {
		d.logger.WithError(err).Warn("Index directory unavailable, continuing without it")
	}

	listings, err := d.Listings(ctx)
	if err != nil {
		d.logger.WithError(err).Warn("Listing directory unavailable, continuing without it")
	}

	lookup := reference.NewLookup(exceptions, indexes, listings)
	ex, idx, lst := lookup.Stats()
	d.logger.WithFields(map[string]interface{}{
		"exceptions": ex,
		"indexes":    idx,
		"listings":   lst,
	}).Info("Reference lookup loaded")
	return lookup
}
