package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispersion/internal/model"
	"dispersion/internal/strategy"
)

func priceTable(t *testing.T, closes map[string][]float64) *model.PriceTable {
	t.Helper()
	var symbols []string
	n := 0
	for sym, vals := range closes {
		symbols = append(symbols, sym)
		n = len(vals)
	}
	times := make([]time.Time, n)
	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
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

func TestRun_EmptyTableIsError(t *testing.T) {
	e := NewEngine(strategy.New())
	_, err := e.Run(nil)
	assert.Error(t, err)
}

func TestRun_NoSignalsLeavesCapitalUntouched(t *testing.T) {
	n := 25
	a := make([]float64, n)
	b := make([]float64, n)
	a[0], b[0] = 100, 100
	for i := 1; i < n; i++ {
		r := 0.004 * float64(1+i%3)
		a[i] = a[i-1] * (1 + r)
		b[i] = b[i-1] * (1 + r)
	}
	table := priceTable(t, map[string][]float64{"AAA": a, "BBB": b})

	e := NewEngine(strategy.New())
	res, err := e.Run(table)
	require.NoError(t, err)

	// Lockstep series never diverge, so no pair ever trades.
	assert.Empty(t, res.Trades)
	assert.Equal(t, e.InitialCapital, res.FinalEquity)
	assert.Equal(t, 0.0, res.TotalReturn)
	require.Len(t, res.Equity, n)
}

func TestRun_DivergenceOpensPositions(t *testing.T) {
	n := 30
	a := make([]float64, n)
	b := make([]float64, n)
	a[0], b[0] = 100, 100
	for i := 1; i < n; i++ {
		r := 0.005 * float64(1+i%3)
		a[i] = a[i-1] * (1 + r)
		b[i] = b[i-1] * (1 + r)
	}
	a[n-1] = a[n-2] * 1.03
	table := priceTable(t, map[string][]float64{"AAA": a, "BBB": b})

	e := NewEngine(strategy.New())
	res, err := e.Run(table)
	require.NoError(t, err)

	require.NotEmpty(t, res.Trades)
	opens := 0
	for _, tr := range res.Trades {
		if tr.Action == "OPEN" {
			opens++
			assert.Positive(t, tr.Quantity)
			assert.Positive(t, tr.Fee)
		}
	}
	assert.Equal(t, 2, opens, "both legs of the diverged pair open")

	// Fees were charged on both opens.
	assert.Less(t, res.FinalEquity, e.InitialCapital)
	for _, v := range res.Equity {
		assert.False(t, math.IsNaN(v))
	}
}

func TestRun_CloseRealizesPnL(t *testing.T) {
	// Diverge mid-series, then reconverge so the signal disappears and the
	// positions close.
	n := 40
	a := make([]float64, n)
	b := make([]float64, n)
	a[0], b[0] = 100, 100
	for i := 1; i < n; i++ {
		r := 0.005 * float64(1+i%3)
		a[i] = a[i-1] * (1 + r)
		b[i] = b[i-1] * (1 + r)
	}
	// One-bar level shift: AAA jumps 2% at bar 20 and tracks BBB again
	// afterwards, so the signal fires once and vanishes the next bar.
	for i := 20; i < n; i++ {
		a[i] *= 1.02
	}
	table := priceTable(t, map[string][]float64{"AAA": a, "BBB": b})

	e := &Engine{
		Strategy:        &strategy.Strategy{Lookback: 20, MinCorrelation: 0.7, EntryZ: 1.0},
		InitialCapital:  50000,
		TransactionCost: 0.001,
		Slippage:        0.0005,
	}
	res, err := e.Run(table)
	require.NoError(t, err)

	var opens, closes int
	for _, tr := range res.Trades {
		switch tr.Action {
		case "OPEN":
			opens++
		case "CLOSE":
			closes++
			assert.NotZero(t, tr.Fee)
		}
	}
	assert.Equal(t, 2, opens)
	assert.Equal(t, 2, closes, "positions close once the spread normalizes")
	require.Len(t, res.Equity, n)
	assert.Equal(t, res.Equity[n-1], res.FinalEquity)
}

func TestResultFinalize_Metrics(t *testing.T) {
	r := &Result{
		InitialCapital: 100,
		Equity:         []float64{100, 110, 99, 108.9},
	}
	r.finalize()

	assert.InDelta(t, 0.089, r.TotalReturn, 1e-9)
	assert.InDelta(t, 0.10, (r.MaxDrawdown), 1e-9) // 110 -> 99
	assert.Equal(t, 108.9, r.FinalEquity)
	assert.NotZero(t, r.SharpeRatio)
}
