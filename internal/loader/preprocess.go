package loader

import (
	"math"

	"dispersion/internal/model"
)

// FillMethod selects how missing values are repaired.
type FillMethod string

const (
	// FillForward propagates the last valid observation forward in time.
	FillForward FillMethod = "ffill"
	// FillBackward propagates the next valid observation backward.
	FillBackward FillMethod = "bfill"
	// FillInterpolate linearly estimates gaps from neighboring valid values.
	FillInterpolate FillMethod = "interpolate"
)

// DefaultMinPeriods is the minimum count of non-missing values a row must
// carry to survive preprocessing.
const DefaultMinPeriods = 5

// outlierZ is the standardized-deviation threshold beyond which a value is
// nulled out.
const outlierZ = 3.0

// Preprocess cleans a price table: fill missing values, drop rows with
// fewer than minPeriods valid observations, null out per-column outliers
// (|z| > 3), then fill once more to close the gaps the outlier pass opened.
// The input table is not modified.
func Preprocess(t *model.PriceTable, method FillMethod, minPeriods int) *model.PriceTable {
	if minPeriods <= 0 {
		minPeriods = DefaultMinPeriods
	}
	out := t.Clone()
	fillTable(out, method)
	out = dropSparseRows(out, minPeriods)
	suppressOutliers(out)
	fillTable(out, method)
	return out
}

func fillTable(t *model.PriceTable, method FillMethod) {
	for j := range t.Symbols() {
		switch method {
		case FillBackward:
			backwardFill(t, j)
		case FillInterpolate:
			interpolateFill(t, j)
		default:
			forwardFill(t, j)
		}
	}
}

func forwardFill(t *model.PriceTable, j int) {
	last := math.NaN()
	for i := 0; i < t.Len(); i++ {
		v := t.At(i, j)
		if math.IsNaN(v) {
			if !math.IsNaN(last) {
				t.Set(i, j, last)
			}
		} else {
			last = v
		}
	}
}

func backwardFill(t *model.PriceTable, j int) {
	next := math.NaN()
	for i := t.Len() - 1; i >= 0; i-- {
		v := t.At(i, j)
		if math.IsNaN(v) {
			if !math.IsNaN(next) {
				t.Set(i, j, next)
			}
		} else {
			next = v
		}
	}
}

// interpolateFill estimates interior gaps linearly between the valid values
// surrounding them. Gaps after the last valid value hold that value; gaps
// before the first valid value stay missing.
func interpolateFill(t *model.PriceTable, j int) {
	n := t.Len()
	prev := -1 // index of last valid value seen
	for i := 0; i < n; i++ {
		if math.IsNaN(t.At(i, j)) {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			lo, hi := t.At(prev, j), t.At(i, j)
			step := (hi - lo) / float64(i-prev)
			for k := prev + 1; k < i; k++ {
				t.Set(k, j, lo+step*float64(k-prev))
			}
		}
		prev = i
	}
	if prev >= 0 {
		for k := prev + 1; k < n; k++ {
			t.Set(k, j, t.At(prev, j))
		}
	}
}

func dropSparseRows(t *model.PriceTable, minPeriods int) *model.PriceTable {
	keep := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if t.RowValid(i) >= minPeriods {
			keep = append(keep, i)
		}
	}
	if len(keep) == t.Len() {
		return t
	}
	return t.SelectRows(keep)
}

// suppressOutliers nulls any value more than outlierZ sample standard
// deviations from its column mean. A zero-variance column has no outliers.
func suppressOutliers(t *model.PriceTable) {
	for j := range t.Symbols() {
		mean, std := columnMeanStd(t, j)
		if std == 0 || math.IsNaN(std) {
			continue
		}
		for i := 0; i < t.Len(); i++ {
			v := t.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			if math.Abs((v-mean)/std) > outlierZ {
				t.Set(i, j, math.NaN())
			}
		}
	}
}

// columnMeanStd computes the mean and sample standard deviation of a
// column's non-missing values. std is NaN with fewer than two observations.
func columnMeanStd(t *model.PriceTable, j int) (mean, std float64) {
	n := 0
	sum := 0.0
	for i := 0; i < t.Len(); i++ {
		if v := t.At(i, j); !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN(), math.NaN()
	}
	mean = sum / float64(n)
	if n < 2 {
		return mean, math.NaN()
	}
	var ss float64
	for i := 0; i < t.Len(); i++ {
		if v := t.At(i, j); !math.IsNaN(v) {
			d := v - mean
			ss += d * d
		}
	}
	return mean, math.Sqrt(ss / float64(n-1))
}
