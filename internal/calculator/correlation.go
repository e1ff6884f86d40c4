package calculator

import (
	"math"
	"time"

	"dispersion/internal/model"
)

// CorrelationMatrices holds one symbol-by-symbol correlation matrix per
// rolling-window end timestamp.
type CorrelationMatrices struct {
	Times    []time.Time
	Symbols  []string
	Matrices [][][]float64 // Matrices[k][i][j] = corr(Symbols[i], Symbols[j]) at Times[k]
}

// At returns the matrix for window-end timestamp k.
func (c *CorrelationMatrices) At(k int) [][]float64 { return c.Matrices[k] }

// Correlation computes rolling pairwise correlations of log returns over a
// trailing window, one matrix per window-end timestamp. An entry is missing
// when either column's window is incomplete or has zero variance. The input
// is not modified.
func Correlation(t *model.PriceTable, window int) *CorrelationMatrices {
	if window <= 0 {
		window = DefaultWindow
	}
	returns := Returns(t, ReturnLog)
	symbols := t.Symbols()
	nsym := len(symbols)

	out := &CorrelationMatrices{Symbols: symbols}
	for end := window - 1; end < returns.Len(); end++ {
		m := make([][]float64, nsym)
		for i := range m {
			m[i] = make([]float64, nsym)
			for j := range m[i] {
				m[i][j] = math.NaN()
			}
		}
		for i := 0; i < nsym; i++ {
			a := windowValues(returns, i, end, window)
			for j := i; j < nsym; j++ {
				b := windowValues(returns, j, end, window)
				corr := Pearson(a, b)
				m[i][j] = corr
				m[j][i] = corr
			}
		}
		out.Times = append(out.Times, returns.Time(end))
		out.Matrices = append(out.Matrices, m)
	}
	return out
}

func windowValues(t *model.PriceTable, j, end, window int) []float64 {
	vals := make([]float64, window)
	for k := 0; k < window; k++ {
		vals[k] = t.At(end-window+1+k, j)
	}
	return vals
}
