package collector

import (
	"time"

	"dispersion/internal/model"
)

// Fetcher retrieves historical bars for one symbol from a market-data
// provider. An empty (nil or zero-length) result with a nil error means the
// provider answered but has no data for the symbol over the range; any
// transport or API failure is returned as an error.
type Fetcher interface {
	FetchHistory(symbol string, start, end time.Time, interval string) ([]model.Bar, error)
	Name() string
}
