package recorder

import (
	"time"

	"dispersion/internal/backtest"
)

// BacktestRun summarizes one completed backtest for persistence.
type BacktestRun struct {
	Symbols  string // comma-joined request order
	Start    time.Time
	End      time.Time
	Interval string
	Result   *backtest.Result
}

// SignalEvent records one watch-mode signal observation.
type SignalEvent struct {
	Symbol      string
	Side        string
	PairA       string
	PairB       string
	Correlation float64
	ZScore      float64
	Dispersion  float64 // latest cross-sectional dispersion at evaluation time
}

// Recorder persists backtest runs and watch-mode signals for later
// analysis.
type Recorder interface {
	RecordBacktest(run *BacktestRun) error
	RecordSignal(evt *SignalEvent) error
	Close() error
}
