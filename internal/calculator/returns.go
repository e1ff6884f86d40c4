package calculator

import (
	"math"

	"dispersion/internal/model"
)

// ReturnMethod selects how per-period returns are derived from prices.
type ReturnMethod string

const (
	// ReturnLog computes ln(p_t / p_{t-1}).
	ReturnLog ReturnMethod = "log"
	// ReturnSimple computes p_t / p_{t-1} - 1.
	ReturnSimple ReturnMethod = "simple"
)

// Returns derives per-period returns from a price table. The first row is
// always missing; a return is missing whenever either of its prices is.
// Any method other than ReturnLog computes simple percentage change. The
// input is not modified.
func Returns(t *model.PriceTable, method ReturnMethod) *model.PriceTable {
	out := model.NewPriceTable(t.Times(), t.Symbols())
	for j := range t.Symbols() {
		for i := 1; i < t.Len(); i++ {
			prev, cur := t.At(i-1, j), t.At(i, j)
			if math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
				continue
			}
			if method == ReturnLog {
				out.Set(i, j, math.Log(cur/prev))
			} else {
				out.Set(i, j, cur/prev-1)
			}
		}
	}
	return out
}
