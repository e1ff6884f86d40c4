package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispersion/internal/backtest"
)

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "dispersion.db")
	rec, err := NewSQLiteRecorder(dbPath)
	require.NoError(t, err)
	defer rec.Close()

	run := &BacktestRun{
		Symbols:  "AAA,BBB",
		Start:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Interval: "1d",
		Result: &backtest.Result{
			InitialCapital: 100000,
			FinalEquity:    104500,
			TotalReturn:    0.045,
			SharpeRatio:    1.2,
			MaxDrawdown:    0.08,
		},
	}
	require.NoError(t, rec.RecordBacktest(run))

	require.NoError(t, rec.RecordSignal(&SignalEvent{
		Symbol: "AAA", Side: "SHORT", PairA: "AAA", PairB: "BBB",
		Correlation: 0.92, ZScore: 2.4, Dispersion: 0.013,
	}))

	var runs, signals int
	require.NoError(t, rec.db.QueryRow("SELECT COUNT(*) FROM backtest_runs").Scan(&runs))
	require.NoError(t, rec.db.QueryRow("SELECT COUNT(*) FROM signal_events").Scan(&signals))
	assert.Equal(t, 1, runs)
	assert.Equal(t, 1, signals)

	var totalReturn float64
	require.NoError(t, rec.db.QueryRow("SELECT total_return FROM backtest_runs").Scan(&totalReturn))
	assert.InDelta(t, 0.045, totalReturn, 1e-12)
}

func TestSQLiteRecorder_MigrateIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "dispersion.db")

	rec, err := NewSQLiteRecorder(dbPath)
	require.NoError(t, err)
	require.NoError(t, rec.Close())

	// Reopening runs migrations again against existing tables.
	rec, err = NewSQLiteRecorder(dbPath)
	require.NoError(t, err)
	assert.NoError(t, rec.Close())
}

func TestNoopRecorder(t *testing.T) {
	n := NewNoopRecorder()
	assert.NoError(t, n.RecordBacktest(&BacktestRun{Result: &backtest.Result{}}))
	assert.NoError(t, n.RecordSignal(&SignalEvent{}))
	assert.NoError(t, n.Close())
}
