package collector

import (
	"time"

	"dispersion/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Bars maps symbol to the history returned for it; Err, if set, is returned
// for every symbol in FailSymbols (or all symbols when FailSymbols is nil).
type MockFetcher struct {
	Bars        map[string][]model.Bar
	Err         error
	FailSymbols map[string]bool
	Calls       []string // symbols requested, in order
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(symbol string, _, _ time.Time, _ string) ([]model.Bar, error) {
	m.Calls = append(m.Calls, symbol)
	if m.Err != nil && (m.FailSymbols == nil || m.FailSymbols[symbol]) {
		return nil, m.Err
	}
	return m.Bars[symbol], nil
}

// GenerateBars builds count daily bars ending today with a mild linear
// drift around basePrice, for development use.
func GenerateBars(basePrice float64, count int) []model.Bar {
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Time:   time.Now().UTC().AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
