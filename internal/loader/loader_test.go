package loader

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispersion/internal/collector"
	"dispersion/internal/model"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func bars(closes ...float64) []model.Bar {
	out := make([]model.Bar, len(closes))
	for i, c := range closes {
		out[i] = model.Bar{Time: day(i), Close: c}
	}
	return out
}

func testQuery(symbols ...string) Query {
	return Query{Symbols: symbols, Start: day(0), End: day(10), Interval: "1d"}
}

func TestFetchData_SkipsEmptySymbol(t *testing.T) {
	fetcher := &collector.MockFetcher{Bars: map[string][]model.Bar{
		"AAA": bars(10, 11, 12),
		// BBB intentionally absent: provider answers with an empty series.
	}}
	l := NewLoader(fetcher, collector.StaticProber(true), "")

	table, err := l.FetchData(testQuery("AAA", "BBB"))
	require.NoError(t, err)
	require.Equal(t, []string{"AAA"}, table.Symbols())
	require.Equal(t, 3, table.Len())
	assert.Equal(t, []float64{10, 11, 12}, table.Column("AAA"))
}

func TestFetchData_HardErrorAbortsBatch(t *testing.T) {
	boom := errors.New("boom")
	fetcher := &collector.MockFetcher{
		Bars:        map[string][]model.Bar{"AAA": bars(10), "CCC": bars(30)},
		Err:         boom,
		FailSymbols: map[string]bool{"BBB": true},
	}
	dir := t.TempDir()
	l := NewLoader(fetcher, collector.StaticProber(true), dir)

	table, err := l.FetchData(testQuery("AAA", "BBB", "CCC"))
	require.Error(t, err)
	assert.Nil(t, table)

	var sfe *SymbolFetchError
	require.ErrorAs(t, err, &sfe)
	assert.Equal(t, "BBB", sfe.Symbol)
	assert.ErrorIs(t, err, boom)

	// No partial table may be cached.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetchData_AllEmptyIsError(t *testing.T) {
	fetcher := &collector.MockFetcher{}
	l := NewLoader(fetcher, collector.StaticProber(true), "")

	_, err := l.FetchData(testQuery("AAA", "BBB"))
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestFetchData_ConnectivityFailsFast(t *testing.T) {
	fetcher := &collector.MockFetcher{Bars: map[string][]model.Bar{"AAA": bars(10)}}
	l := NewLoader(fetcher, collector.StaticProber(false), "")

	_, err := l.FetchData(testQuery("AAA"))
	assert.ErrorIs(t, err, ErrConnectivity)
	assert.Empty(t, fetcher.Calls, "no per-symbol request may be attempted")
}

func TestFetchData_CacheRoundTrip(t *testing.T) {
	fetcher := &collector.MockFetcher{Bars: map[string][]model.Bar{
		"AAA": bars(10.5, 11.25, 12.125),
		"BBB": bars(20, 21, 22),
	}}
	l := NewLoader(fetcher, collector.StaticProber(true), t.TempDir())
	q := testQuery("AAA", "BBB")

	first, err := l.FetchData(q)
	require.NoError(t, err)
	callsAfterFirst := len(fetcher.Calls)

	second, err := l.FetchData(q)
	require.NoError(t, err)

	assert.Equal(t, callsAfterFirst, len(fetcher.Calls), "cache hit must not contact the provider")
	assert.True(t, first.Equal(second), "cached table must be identical")
}

func TestFetchData_CachePreservesMissingCells(t *testing.T) {
	fetcher := &collector.MockFetcher{Bars: map[string][]model.Bar{
		"AAA": {{Time: day(0), Close: 10}, {Time: day(2), Close: 12}},
		"BBB": {{Time: day(1), Close: 20}},
	}}
	l := NewLoader(fetcher, collector.StaticProber(true), t.TempDir())
	q := testQuery("AAA", "BBB")

	first, err := l.FetchData(q)
	require.NoError(t, err)
	require.True(t, math.IsNaN(first.At(1, 0)))

	second, err := l.FetchData(q)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
	assert.True(t, math.IsNaN(second.At(1, 0)))
}

func TestFetchData_CorruptCachePropagates(t *testing.T) {
	dir := t.TempDir()
	fetcher := &collector.MockFetcher{Bars: map[string][]model.Bar{"AAA": bars(10)}}
	l := NewLoader(fetcher, collector.StaticProber(true), dir)
	q := testQuery("AAA")

	path := cachePath(dir, q.normalize())
	require.NoError(t, os.WriteFile(path, []byte("not,a,cache\n1,2,3\n"), 0o644))

	_, err := l.FetchData(q)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyResult)
}

func TestQuery_NormalizeDeduplicates(t *testing.T) {
	q := Query{Symbols: []string{"AAA", "BBB", "AAA", ""}, Start: day(0), End: day(1)}
	n := q.normalize()
	assert.Equal(t, []string{"AAA", "BBB"}, n.Symbols)
	assert.Equal(t, "1d", n.Interval)
}

func TestQuery_KeyDeterministic(t *testing.T) {
	q := testQuery("AAA", "BBB").normalize()
	assert.Equal(t, "AAA-BBB_2024-01-01_2024-01-11_1d", q.key())
	assert.Equal(t, filepath.Join("cache", q.key()+".csv"), cachePath("cache", q))
}
