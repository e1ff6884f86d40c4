package strategy

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispersion/internal/model"
)

func priceTable(t *testing.T, closes map[string][]float64) *model.PriceTable {
	t.Helper()
	var symbols []string
	n := 0
	for sym, vals := range closes {
		symbols = append(symbols, sym)
		n = len(vals)
	}
	sort.Strings(symbols)
	times := make([]time.Time, n)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := range times {
		times[i] = base.AddDate(0, 0, i)
	}
	table := model.NewPriceTable(times, symbols)
	for j, sym := range symbols {
		for i, v := range closes[sym] {
			table.Set(i, j, v)
		}
	}
	return table
}

func TestDispersion_IdenticalColumnsIsZero(t *testing.T) {
	vals := []float64{100, 102, 101, 103, 105}
	table := priceTable(t, map[string][]float64{"AAA": vals, "BBB": vals, "CCC": vals})

	d := Dispersion(table)
	require.Len(t, d.Values, 5)
	assert.True(t, math.IsNaN(d.Values[0]), "first row has no returns")
	for i := 1; i < 5; i++ {
		assert.InDelta(t, 0, d.Values[i], 1e-15, "row %d", i)
	}
}

func TestDispersion_SingleColumnIsMissing(t *testing.T) {
	table := priceTable(t, map[string][]float64{"AAA": {100, 101, 102}})
	d := Dispersion(table)
	for _, v := range d.Values {
		assert.True(t, math.IsNaN(v), "cross-sectional std needs at least two symbols")
	}
}

func TestFindCorrelatedPairs(t *testing.T) {
	n := 40
	a := make([]float64, n)
	b := make([]float64, n)
	c := make([]float64, n)
	a[0], b[0], c[0] = 100, 200, 50
	for i := 1; i < n; i++ {
		r := 0.01 * float64(1+i%5)
		a[i] = a[i-1] * (1 + r)
		b[i] = b[i-1] * (1 + r*1.5) // perfectly correlated with a
		c[i] = c[i-1] * (1 + 0.02*float64(i%2) - 0.01*float64((i+1)%2))
	}
	table := priceTable(t, map[string][]float64{"AAA": a, "BBB": b, "CCC": c})

	s := New()
	pairs := s.FindCorrelatedPairs(table)
	require.NotEmpty(t, pairs)

	top := pairs[0]
	got := map[string]bool{top.A: true, top.B: true}
	assert.True(t, got["AAA"] && got["BBB"], "strongest pair must be AAA/BBB, got %s/%s", top.A, top.B)
	assert.InDelta(t, 1.0, top.Correlation, 1e-9)

	for i := 1; i < len(pairs); i++ {
		assert.LessOrEqual(t, math.Abs(pairs[i].Correlation), math.Abs(pairs[i-1].Correlation),
			"pairs must be sorted by absolute correlation")
	}
}

func TestGenerateSignals_DivergedPair(t *testing.T) {
	// Two series moving in lockstep until the final bar, where AAA jumps.
	n := 30
	a := make([]float64, n)
	b := make([]float64, n)
	a[0], b[0] = 100, 100
	for i := 1; i < n; i++ {
		r := 0.005 * float64(1+i%3)
		a[i] = a[i-1] * (1 + r)
		b[i] = b[i-1] * (1 + r)
	}
	// Divergence large enough for |z| > 2 but small enough to keep the
	// full-sample correlation above the pairing threshold.
	a[n-1] = a[n-2] * 1.03
	table := priceTable(t, map[string][]float64{"AAA": a, "BBB": b})

	s := New()
	signals := s.GenerateSignals(table)
	require.Len(t, signals, 2)

	require.Contains(t, signals, "AAA")
	require.Contains(t, signals, "BBB")
	assert.Equal(t, model.SideShort, signals["AAA"].Side, "outperforming leg is shorted")
	assert.Equal(t, model.SideLong, signals["BBB"].Side)
	assert.Greater(t, signals["AAA"].ZScore, 2.0)
}

func TestGenerateSignals_NoDivergenceNoSignals(t *testing.T) {
	n := 30
	a := make([]float64, n)
	b := make([]float64, n)
	a[0], b[0] = 100, 100
	for i := 1; i < n; i++ {
		r := 0.005 * float64(1+i%3)
		a[i] = a[i-1] * (1 + r)
		b[i] = b[i-1] * (1 + r)
	}
	table := priceTable(t, map[string][]float64{"AAA": a, "BBB": b})

	signals := New().GenerateSignals(table)
	assert.Empty(t, signals)
}

func TestGenerateSignals_UncorrelatedUniverse(t *testing.T) {
	n := 30
	a := make([]float64, n)
	b := make([]float64, n)
	a[0], b[0] = 100, 100
	for i := 1; i < n; i++ {
		// Return patterns with different periods; their correlation is
		// close to zero.
		a[i] = a[i-1] * (1 + 0.01*float64(i%2))
		b[i] = b[i-1] * (1 + 0.01*float64((i/2)%2))
	}
	table := priceTable(t, map[string][]float64{"AAA": a, "BBB": b})

	s := New()
	for _, p := range s.FindCorrelatedPairs(table) {
		assert.GreaterOrEqual(t, math.Abs(p.Correlation), s.MinCorrelation)
	}
}
