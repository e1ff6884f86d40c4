package strategy

import (
	"math"
	"sort"

	"dispersion/internal/calculator"
	"dispersion/internal/model"
)

// Strategy holds the dispersion-trading parameters.
type Strategy struct {
	// Lookback bounds pair selection and spread statistics to the trailing
	// Lookback returns. Zero means the full sample.
	Lookback int
	// MinCorrelation is the absolute correlation threshold for pair
	// selection.
	MinCorrelation float64
	// EntryZ is the spread z-score beyond which a pair diverged enough to
	// trade.
	EntryZ float64
}

// New returns a strategy with the standard defaults.
func New() *Strategy {
	return &Strategy{
		Lookback:       20,
		MinCorrelation: 0.7,
		EntryZ:         2.0,
	}
}

// Dispersion computes the cross-sectional dispersion of returns: the sample
// standard deviation across symbols of each row's simple returns. Rows with
// fewer than two valid returns are missing.
func Dispersion(prices *model.PriceTable) *model.Series {
	returns := calculator.Returns(prices, calculator.ReturnSimple)
	nsym := len(returns.Symbols())
	s := &model.Series{
		Times:  returns.Times(),
		Values: make([]float64, returns.Len()),
	}
	row := make([]float64, nsym)
	for i := 0; i < returns.Len(); i++ {
		for j := 0; j < nsym; j++ {
			row[j] = returns.At(i, j)
		}
		s.Values[i] = calculator.SampleStd(row)
	}
	return s
}

// FindCorrelatedPairs returns all symbol pairs whose return correlation over
// the lookback window meets the threshold, strongest first. Rows with any
// missing return are excluded from the correlation sample.
func (s *Strategy) FindCorrelatedPairs(prices *model.PriceTable) []model.Pair {
	returns := completeRows(s.tail(calculator.Returns(prices, calculator.ReturnSimple)))
	symbols := returns.Symbols()

	var pairs []model.Pair
	for i := 0; i < len(symbols); i++ {
		a := returns.Column(symbols[i])
		for j := i + 1; j < len(symbols); j++ {
			b := returns.Column(symbols[j])
			corr := calculator.Pearson(a, b)
			if !math.IsNaN(corr) && math.Abs(corr) >= s.MinCorrelation {
				pairs = append(pairs, model.Pair{A: symbols[i], B: symbols[j], Correlation: corr})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].Correlation) > math.Abs(pairs[j].Correlation)
	})
	return pairs
}

// GenerateSignals produces directional signals for each correlated pair
// whose return spread has diverged: when the latest spread z-score exceeds
// EntryZ the first leg is shorted and the second bought, and inversely
// below -EntryZ. When pairs overlap on a symbol the last qualifying pair
// wins.
func (s *Strategy) GenerateSignals(prices *model.PriceTable) map[string]model.Signal {
	pairs := s.FindCorrelatedPairs(prices)
	returns := s.tail(calculator.Returns(prices, calculator.ReturnSimple))

	signals := make(map[string]model.Signal)
	for _, p := range pairs {
		z := spreadZScore(returns, p.A, p.B)
		if math.IsNaN(z) {
			continue
		}
		switch {
		case z > s.EntryZ:
			signals[p.A] = model.Signal{Symbol: p.A, Side: model.SideShort, Pair: p, ZScore: z}
			signals[p.B] = model.Signal{Symbol: p.B, Side: model.SideLong, Pair: p, ZScore: z}
		case z < -s.EntryZ:
			signals[p.A] = model.Signal{Symbol: p.A, Side: model.SideLong, Pair: p, ZScore: z}
			signals[p.B] = model.Signal{Symbol: p.B, Side: model.SideShort, Pair: p, ZScore: z}
		}
	}
	return signals
}

// spreadZScore standardizes the latest value of the return spread between
// two symbols against the spread's own history.
func spreadZScore(returns *model.PriceTable, a, b string) float64 {
	ca, cb := returns.Column(a), returns.Column(b)
	if ca == nil || cb == nil {
		return math.NaN()
	}
	spread := make([]float64, len(ca))
	for i := range ca {
		spread[i] = ca[i] - cb[i] // NaN propagates
	}
	last := math.NaN()
	for i := len(spread) - 1; i >= 0; i-- {
		if !math.IsNaN(spread[i]) {
			last = spread[i]
			break
		}
	}
	mean := calculator.Mean(spread)
	std := calculator.SampleStd(spread)
	if math.IsNaN(last) || math.IsNaN(std) || std == 0 {
		return math.NaN()
	}
	return (last - mean) / std
}

// tail restricts a return table to the trailing Lookback rows.
func (s *Strategy) tail(t *model.PriceTable) *model.PriceTable {
	if s.Lookback <= 0 || t.Len() <= s.Lookback {
		return t
	}
	rows := make([]int, s.Lookback)
	for i := range rows {
		rows[i] = t.Len() - s.Lookback + i
	}
	return t.SelectRows(rows)
}

// completeRows drops every row containing a missing value.
func completeRows(t *model.PriceTable) *model.PriceTable {
	nsym := len(t.Symbols())
	keep := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if t.RowValid(i) == nsym {
			keep = append(keep, i)
		}
	}
	return t.SelectRows(keep)
}
