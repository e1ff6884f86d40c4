package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolatility_ConstantPriceIsZero(t *testing.T) {
	vals := make([]float64, 30)
	for i := range vals {
		vals[i] = 250
	}
	table := priceTable(t, map[string][]float64{"AAA": vals})

	vol := Volatility(table, 5)
	// First 5 rows lack a full window of returns.
	for i := 0; i < 5; i++ {
		assert.True(t, math.IsNaN(vol.At(i, 0)), "row %d", i)
	}
	for i := 5; i < vol.Len(); i++ {
		assert.Equal(t, 0.0, vol.At(i, 0), "row %d", i)
	}
}

func TestVolatility_MatchesManualComputation(t *testing.T) {
	prices := []float64{100, 101, 103, 102, 105, 104}
	table := priceTable(t, map[string][]float64{"AAA": prices})

	window := 3
	vol := Volatility(table, window)

	// Window of log returns ending at the last row.
	rets := make([]float64, 0, window)
	for i := 3; i < len(prices); i++ {
		rets = append(rets, math.Log(prices[i]/prices[i-1]))
	}
	want := SampleStd(rets) * math.Sqrt(252)

	require.InDelta(t, want, vol.At(5, 0), 1e-12)
}

func TestVolatility_DefaultWindow(t *testing.T) {
	vals := make([]float64, 25)
	for i := range vals {
		vals[i] = 100 + float64(i%3)
	}
	table := priceTable(t, map[string][]float64{"AAA": vals})

	vol := Volatility(table, 0) // falls back to DefaultWindow (20)
	for i := 0; i < 20; i++ {
		assert.True(t, math.IsNaN(vol.At(i, 0)), "row %d", i)
	}
	assert.False(t, math.IsNaN(vol.At(20, 0)))
}
