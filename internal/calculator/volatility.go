package calculator

import (
	"math"

	"dispersion/internal/model"
)

// TradingDaysPerYear is the annualization base for daily statistics.
const TradingDaysPerYear = 252

// DefaultWindow is the rolling window used when none is given.
const DefaultWindow = 20

// Volatility computes the rolling annualized volatility of a price table:
// the sample standard deviation of log returns over a trailing window,
// scaled by sqrt(252). A window containing any missing return yields a
// missing cell, so the first `window` rows of each column are missing (the
// first return itself is). The input is not modified.
func Volatility(t *model.PriceTable, window int) *model.PriceTable {
	if window <= 0 {
		window = DefaultWindow
	}
	returns := Returns(t, ReturnLog)
	out := model.NewPriceTable(t.Times(), t.Symbols())
	for j := range t.Symbols() {
		for i := window - 1; i < returns.Len(); i++ {
			std := windowStd(returns, j, i, window)
			if !math.IsNaN(std) {
				out.Set(i, j, std*math.Sqrt(TradingDaysPerYear))
			}
		}
	}
	return out
}

// windowStd returns the sample std of the window ending at row i, or NaN if
// the window contains any missing value.
func windowStd(t *model.PriceTable, j, i, window int) float64 {
	vals := make([]float64, window)
	for k := 0; k < window; k++ {
		v := t.At(i-window+1+k, j)
		if math.IsNaN(v) {
			return math.NaN()
		}
		vals[k] = v
	}
	return SampleStd(vals)
}
