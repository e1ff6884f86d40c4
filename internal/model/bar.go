package model

import "time"

// Bar represents a single candlestick bar as returned by a data provider.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series holds one symbol's closing prices keyed by timestamp.
// Times are ascending and unique; Values[i] belongs to Times[i].
type Series struct {
	Times  []time.Time
	Values []float64
}

// Len returns the number of observations in the series.
func (s *Series) Len() int { return len(s.Times) }

// CloseSeries extracts the closing-price series from provider bars.
func CloseSeries(bars []Bar) *Series {
	s := &Series{
		Times:  make([]time.Time, len(bars)),
		Values: make([]float64, len(bars)),
	}
	for i, b := range bars {
		s.Times[i] = b.Time.UTC()
		s.Values[i] = b.Close
	}
	return s
}
