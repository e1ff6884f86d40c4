package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists runs and signals to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs
// migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			symbols         TEXT,
			start_date      TEXT,
			end_date        TEXT,
			interval        TEXT,
			initial_capital REAL,
			final_equity    REAL,
			total_return    REAL,
			annual_return   REAL,
			sharpe_ratio    REAL,
			max_drawdown    REAL,
			win_rate        REAL,
			num_trades      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON backtest_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS signal_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT,
			side        TEXT,
			pair_a      TEXT,
			pair_b      TEXT,
			correlation REAL,
			z_score     REAL,
			dispersion  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ts ON signal_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordBacktest(run *BacktestRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := run.Result
	_, err := r.db.Exec(`INSERT INTO backtest_runs
		(timestamp, symbols, start_date, end_date, interval,
		 initial_capital, final_equity, total_return, annual_return,
		 sharpe_ratio, max_drawdown, win_rate, num_trades)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), run.Symbols,
		run.Start.Format("2006-01-02"), run.End.Format("2006-01-02"), run.Interval,
		res.InitialCapital, res.FinalEquity, res.TotalReturn, res.AnnualReturn,
		res.SharpeRatio, res.MaxDrawdown, res.WinRate, len(res.Trades),
	)
	return err
}

func (r *SQLiteRecorder) RecordSignal(evt *SignalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO signal_events
		(timestamp, symbol, side, pair_a, pair_b, correlation, z_score, dispersion)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Symbol, evt.Side, evt.PairA, evt.PairB,
		evt.Correlation, evt.ZScore, evt.Dispersion,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
