package backtest

import (
	"math"
	"time"

	"dispersion/internal/calculator"
)

// Result holds the equity curve, trade log, and summary statistics of one
// backtest run.
type Result struct {
	InitialCapital float64
	FinalEquity    float64
	TotalReturn    float64
	AnnualReturn   float64
	SharpeRatio    float64
	MaxDrawdown    float64
	WinRate        float64
	Times          []time.Time
	Equity         []float64
	Trades         []Trade
}

// finalize derives the summary statistics from the equity curve and trades.
func (r *Result) finalize() {
	if len(r.Equity) == 0 {
		return
	}
	r.FinalEquity = r.Equity[len(r.Equity)-1]
	r.TotalReturn = r.FinalEquity/r.InitialCapital - 1

	rets := make([]float64, 0, len(r.Equity)-1)
	for i := 1; i < len(r.Equity); i++ {
		if r.Equity[i-1] != 0 {
			rets = append(rets, r.Equity[i]/r.Equity[i-1]-1)
		}
	}
	if n := len(rets); n > 0 {
		r.AnnualReturn = math.Pow(1+r.TotalReturn, calculator.TradingDaysPerYear/float64(n)) - 1
		std := calculator.SampleStd(rets)
		if !math.IsNaN(std) && std > 0 {
			r.SharpeRatio = math.Sqrt(calculator.TradingDaysPerYear) * calculator.Mean(rets) / std
		}
	}

	peak := math.Inf(-1)
	for _, v := range r.Equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > r.MaxDrawdown {
				r.MaxDrawdown = dd
			}
		}
	}

	var closed, won int
	for _, t := range r.Trades {
		if t.Action != "CLOSE" {
			continue
		}
		closed++
		if t.PnL > 0 {
			won++
		}
	}
	if closed > 0 {
		r.WinRate = float64(won) / float64(closed)
	}
}
