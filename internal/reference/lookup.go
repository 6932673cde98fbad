// Package reference holds read-only symbol reference data: ticker exceptions,
// the CBOE index directory and the CBOE listings directory.
//
// A Lookup is built once at startup and shared by the provider and the
// analytics builder. Nothing mutates it after construction.
package reference

import (
	"sort"
	"strings"
)

// URLPrefix marks index-style symbols in CBOE CDN paths (e.g. _SPX)
const URLPrefix = "_"

// InfoPrefix marks index-style symbols on the symbol-info endpoint (e.g. ^SPX)
const InfoPrefix = "^"

// IndexEntry is one row of the CBOE index directory
type IndexEntry struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
	TickDays    string `json:"tick_days"`
	Frequency   string `json:"frequency"`
	Period      string `json:"period"`
	TimeZone    string `json:"time_zone"`
}

// DirectoryEntry is one row of the CBOE listings directory
type DirectoryEntry struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name"`
	DPMName     string `json:"dpm_name"`
	PostStation string `json:"post_station"`
}

// Lookup answers symbol questions from immutable reference lists
// ⭐ SSOT: 티커 예외/인덱스/디렉토리 판정은 여기서만
type Lookup struct {
	exceptions map[string]struct{}
	indexes    map[string]IndexEntry
	directory  map[string]DirectoryEntry
}

// NewLookup builds a Lookup. Inputs are copied; symbols are matched case-insensitively.
func NewLookup(exceptions []string, indexes []IndexEntry, directory []DirectoryEntry) *Lookup {
	l := &Lookup{
		exceptions: make(map[string]struct{}, len(exceptions)),
		indexes:    make(map[string]IndexEntry, len(indexes)),
		directory:  make(map[string]DirectoryEntry, len(directory)),
	}
	for _, sym := range exceptions {
		if s := normalize(sym); s != "" {
			l.exceptions[s] = struct{}{}
		}
	}
	for _, e := range indexes {
		if s := normalize(e.Symbol); s != "" {
			e.Symbol = s
			l.indexes[s] = e
		}
	}
	for _, e := range directory {
		s := normalize(e.Symbol)
		if s == "" {
			continue
		}
		// 중복 심볼은 첫 행 유지
		if _, ok := l.directory[s]; ok {
			continue
		}
		e.Symbol = s
		e.CompanyName = strings.TrimSpace(e.CompanyName)
		l.directory[s] = e
	}
	return l
}

// Empty returns a Lookup that only knows the given exceptions
func Empty(exceptions ...string) *Lookup {
	return NewLookup(exceptions, nil, nil)
}

func normalize(sym string) string {
	return strings.ToUpper(strings.TrimSpace(sym))
}

// IsException reports whether sym is on the ticker exception list
func (l *Lookup) IsException(sym string) bool {
	_, ok := l.exceptions[normalize(sym)]
	return ok
}

// IsIndex reports whether sym is in the index directory
func (l *Lookup) IsIndex(sym string) bool {
	_, ok := l.indexes[normalize(sym)]
	return ok
}

// indexStyle reports whether the CBOE endpoints address sym with an index prefix
func (l *Lookup) indexStyle(sym string) bool {
	return l.IsException(sym) || l.IsIndex(sym)
}

// URLSymbol returns the symbol as used in CDN paths: _SYM for exceptions and indexes
func (l *Lookup) URLSymbol(sym string) string {
	s := normalize(sym)
	if l.indexStyle(s) {
		return URLPrefix + s
	}
	return s
}

// InfoSymbol returns the symbol as used on the symbol-info endpoint: ^SYM for exceptions and indexes
func (l *Lookup) InfoSymbol(sym string) string {
	s := normalize(sym)
	if l.indexStyle(s) {
		return InfoPrefix + s
	}
	return s
}

// CompanyName returns the listing name for sym.
// Directory names win over index names; unknown symbols return "".
func (l *Lookup) CompanyName(sym string) string {
	s := normalize(sym)
	if e, ok := l.directory[s]; ok && e.CompanyName != "" {
		return e.CompanyName
	}
	if e, ok := l.indexes[s]; ok {
		return e.Name
	}
	return ""
}

// Index returns the index directory entry for sym
func (l *Lookup) Index(sym string) (IndexEntry, bool) {
	e, ok := l.indexes[normalize(sym)]
	return e, ok
}

// Listing returns the listings directory entry for sym
func (l *Lookup) Listing(sym string) (DirectoryEntry, bool) {
	e, ok := l.directory[normalize(sym)]
	return e, ok
}

// Exceptions returns the exception symbols, sorted
func (l *Lookup) Exceptions() []string {
	out := make([]string, 0, len(l.exceptions))
	for s := range l.exceptions {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Stats returns the sizes of the reference lists
func (l *Lookup) Stats() (exceptions, indexes, listings int) {
	return len(l.exceptions), len(l.indexes), len(l.directory)
}
