package loader

import (
	"fmt"
	"log"
	"strings"
	"time"

	"dispersion/internal/collector"
	"dispersion/internal/model"
)

// DefaultInterval is the sampling granularity used when a query leaves the
// interval empty.
const DefaultInterval = "1d"

// Query identifies one historical fetch. Two queries with equal normalized
// keys are interchangeable and share a cache artifact.
type Query struct {
	Symbols  []string
	Start    time.Time
	End      time.Time
	Interval string
}

// normalize converts both dates to UTC, deduplicates symbols preserving
// first occurrence, and applies the default interval.
func (q Query) normalize() Query {
	n := Query{
		Start:    q.Start.UTC(),
		End:      q.End.UTC(),
		Interval: q.Interval,
	}
	if n.Interval == "" {
		n.Interval = DefaultInterval
	}
	seen := make(map[string]bool, len(q.Symbols))
	for _, s := range q.Symbols {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		n.Symbols = append(n.Symbols, s)
	}
	return n
}

// key is the deterministic cache identity of the normalized query.
func (q Query) key() string {
	return fmt.Sprintf("%s_%s_%s_%s",
		strings.Join(q.Symbols, "-"),
		q.Start.Format("2006-01-02"),
		q.End.Format("2006-01-02"),
		q.Interval)
}

// Loader fetches aligned closing-price tables from a market-data provider,
// optionally short-circuiting through a flat-file cache.
type Loader struct {
	Fetcher  collector.Fetcher
	Prober   collector.Prober
	CacheDir string // empty disables caching
}

// NewLoader creates a loader. cacheDir may be empty to disable caching.
func NewLoader(fetcher collector.Fetcher, prober collector.Prober, cacheDir string) *Loader {
	return &Loader{Fetcher: fetcher, Prober: prober, CacheDir: cacheDir}
}

// FetchData retrieves closing prices for the queried symbols over the date
// range and assembles them into one outer-aligned table.
//
// A cache hit returns the stored table without touching the network. On a
// miss the connectivity probe runs first (ErrConnectivity on failure); then
// each symbol is fetched in turn. A symbol with no data is logged and
// omitted from the result; any hard provider failure aborts the whole fetch
// with a SymbolFetchError. If no symbol yields data the call fails with
// ErrEmptyResult. The assembled table is written back to the cache before
// returning.
func (l *Loader) FetchData(q Query) (*model.PriceTable, error) {
	q = q.normalize()
	if len(q.Symbols) == 0 {
		return nil, fmt.Errorf("%w: empty symbol set", ErrEmptyResult)
	}

	var path string
	if l.CacheDir != "" {
		path = cachePath(l.CacheDir, q)
		table, err := readCacheFile(path)
		if err == nil {
			log.Printf("[INFO] cache hit: %s", path)
			return table, nil
		}
		if !isCacheMiss(err) {
			return nil, fmt.Errorf("read cache %s: %w", path, err)
		}
	}

	if l.Prober != nil && !l.Prober.Reachable() {
		return nil, fmt.Errorf("%w: check network and DNS settings", ErrConnectivity)
	}

	series := make(map[string]*model.Series)
	for _, sym := range q.Symbols {
		bars, err := l.Fetcher.FetchHistory(sym, q.Start, q.End, q.Interval)
		if err != nil {
			return nil, &SymbolFetchError{Symbol: sym, Err: err}
		}
		if len(bars) == 0 {
			log.Printf("[WARN] no data received for %s", sym)
			continue
		}
		series[sym] = model.CloseSeries(bars)
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyResult, strings.Join(q.Symbols, ","))
	}

	table := model.AlignSeries(q.Symbols, series)

	if path != "" {
		if err := writeCacheFile(path, table); err != nil {
			return nil, fmt.Errorf("write cache %s: %w", path, err)
		}
		log.Printf("[INFO] cached %d rows to %s", table.Len(), path)
	}

	return table, nil
}
