package model

import (
	"math"
	"sort"
	"time"
)

// PriceTable is a time-indexed table of closing prices with one column per
// symbol. Rows are ordered by ascending timestamp (UTC); a missing cell is
// NaN. The column set is exactly the symbols that yielded data, in request
// order.
type PriceTable struct {
	times   []time.Time
	symbols []string
	cols    [][]float64 // cols[j][i] = price of symbols[j] at times[i]
}

// NewPriceTable creates a table over the given row index and symbols with
// every cell missing.
func NewPriceTable(times []time.Time, symbols []string) *PriceTable {
	t := &PriceTable{
		times:   append([]time.Time(nil), times...),
		symbols: append([]string(nil), symbols...),
		cols:    make([][]float64, len(symbols)),
	}
	for j := range t.cols {
		col := make([]float64, len(times))
		for i := range col {
			col[i] = math.NaN()
		}
		t.cols[j] = col
	}
	return t
}

// AlignSeries assembles per-symbol series into one table using an outer
// alignment: the row index is the sorted union of all series' timestamps,
// and a timestamp absent for a symbol leaves that cell missing. Symbols
// without a series entry are omitted from the column set.
func AlignSeries(order []string, series map[string]*Series) *PriceTable {
	seen := make(map[int64]bool)
	var union []time.Time
	for _, s := range series {
		for _, ts := range s.Times {
			u := ts.UTC()
			if !seen[u.UnixNano()] {
				seen[u.UnixNano()] = true
				union = append(union, u)
			}
		}
	}
	sort.Slice(union, func(i, j int) bool { return union[i].Before(union[j]) })

	rowOf := make(map[int64]int, len(union))
	for i, ts := range union {
		rowOf[ts.UnixNano()] = i
	}

	var symbols []string
	for _, sym := range order {
		if _, ok := series[sym]; ok {
			symbols = append(symbols, sym)
		}
	}

	t := NewPriceTable(union, symbols)
	for j, sym := range symbols {
		s := series[sym]
		for k, ts := range s.Times {
			t.cols[j][rowOf[ts.UTC().UnixNano()]] = s.Values[k]
		}
	}
	return t
}

// Len returns the number of rows.
func (t *PriceTable) Len() int { return len(t.times) }

// Symbols returns the column labels in order.
func (t *PriceTable) Symbols() []string { return append([]string(nil), t.symbols...) }

// Times returns the row index.
func (t *PriceTable) Times() []time.Time { return append([]time.Time(nil), t.times...) }

// Time returns the timestamp of row i.
func (t *PriceTable) Time(i int) time.Time { return t.times[i] }

// At returns the cell at row i, column j. Missing values are NaN.
func (t *PriceTable) At(i, j int) float64 { return t.cols[j][i] }

// Set assigns the cell at row i, column j.
func (t *PriceTable) Set(i, j int, v float64) { t.cols[j][i] = v }

// ColumnIndex returns the position of a symbol's column, or -1 if absent.
func (t *PriceTable) ColumnIndex(symbol string) int {
	for j, s := range t.symbols {
		if s == symbol {
			return j
		}
	}
	return -1
}

// Column returns a copy of one symbol's values, or nil if the symbol is
// not in the table.
func (t *PriceTable) Column(symbol string) []float64 {
	j := t.ColumnIndex(symbol)
	if j < 0 {
		return nil
	}
	return append([]float64(nil), t.cols[j]...)
}

// Clone returns a deep copy of the table.
func (t *PriceTable) Clone() *PriceTable {
	c := &PriceTable{
		times:   append([]time.Time(nil), t.times...),
		symbols: append([]string(nil), t.symbols...),
		cols:    make([][]float64, len(t.cols)),
	}
	for j, col := range t.cols {
		c.cols[j] = append([]float64(nil), col...)
	}
	return c
}

// SelectRows returns a new table containing only the rows whose indices are
// listed, in the given order.
func (t *PriceTable) SelectRows(rows []int) *PriceTable {
	c := &PriceTable{
		times:   make([]time.Time, len(rows)),
		symbols: append([]string(nil), t.symbols...),
		cols:    make([][]float64, len(t.cols)),
	}
	for j := range t.cols {
		c.cols[j] = make([]float64, len(rows))
	}
	for k, i := range rows {
		c.times[k] = t.times[i]
		for j := range t.cols {
			c.cols[j][k] = t.cols[j][i]
		}
	}
	return c
}

// Truncate returns a new table containing the first n rows. Used by
// consumers that walk the table forward in time.
func (t *PriceTable) Truncate(n int) *PriceTable {
	if n > t.Len() {
		n = t.Len()
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return t.SelectRows(rows)
}

// RowValid returns the count of non-missing values in row i.
func (t *PriceTable) RowValid(i int) int {
	n := 0
	for j := range t.cols {
		if !math.IsNaN(t.cols[j][i]) {
			n++
		}
	}
	return n
}

// Equal reports whether two tables have identical shape, index, and cell
// values (NaN cells compare equal).
func (t *PriceTable) Equal(o *PriceTable) bool {
	if t.Len() != o.Len() || len(t.symbols) != len(o.symbols) {
		return false
	}
	for i, ts := range t.times {
		if !ts.Equal(o.times[i]) {
			return false
		}
	}
	for j, s := range t.symbols {
		if s != o.symbols[j] {
			return false
		}
	}
	for j := range t.cols {
		for i := range t.cols[j] {
			a, b := t.cols[j][i], o.cols[j][i]
			if math.IsNaN(a) && math.IsNaN(b) {
				continue
			}
			if a != b {
				return false
			}
		}
	}
	return true
}
