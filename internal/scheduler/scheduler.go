package scheduler

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"dispersion/internal/loader"
	"dispersion/internal/notifier"
	"dispersion/internal/recorder"
	"dispersion/internal/strategy"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the watch-mode loop: on a cron schedule it re-fetches a
// trailing window of prices, preprocesses them, evaluates the strategy, and
// records and notifies any signals.
type Scheduler struct {
	Cron     *cron.Cron
	Loader   *loader.Loader
	Strategy *strategy.Strategy
	Notifier *notifier.TelegramNotifier // nil disables alerts
	Recorder recorder.Recorder
	Ctx      context.Context

	Symbols      []string
	Interval     string
	LookbackDays int
	FillMethod   loader.FillMethod
	MinPeriods   int
}

// NewScheduler creates a watch-mode scheduler. The loader should have
// caching disabled: each run wants a fresh trailing window, and the cache
// never expires on its own.
func NewScheduler(ctx context.Context, l *loader.Loader, s *strategy.Strategy, tn *notifier.TelegramNotifier, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Loader:   l,
		Strategy: s,
		Notifier: tn,
		Recorder: rec,
		Ctx:      ctx,
	}
}

// Register installs the watch task under the given cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.watchTask); err != nil {
		return fmt.Errorf("register watch task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the watch task immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.watchTask()
}

func (s *Scheduler) watchTask() {
	log.Println("[INFO] running watch task")

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -s.LookbackDays)
	table, err := s.Loader.FetchData(loader.Query{
		Symbols:  s.Symbols,
		Start:    start,
		End:      end,
		Interval: s.Interval,
	})
	if err != nil {
		log.Printf("[ERROR] watch fetch: %v", err)
		return
	}

	clean := loader.Preprocess(table, s.FillMethod, s.MinPeriods)
	signals := s.Strategy.GenerateSignals(clean)

	disp := math.NaN()
	dispSeries := strategy.Dispersion(clean)
	for i := len(dispSeries.Values) - 1; i >= 0; i-- {
		if !math.IsNaN(dispSeries.Values[i]) {
			disp = dispSeries.Values[i]
			break
		}
	}

	log.Printf("[INFO] watch: %d rows, dispersion %.4f, %d signals", clean.Len(), disp, len(signals))

	if len(signals) == 0 {
		return
	}

	for _, sig := range signals {
		if err := s.Recorder.RecordSignal(&recorder.SignalEvent{
			Symbol:      sig.Symbol,
			Side:        string(sig.Side),
			PairA:       sig.Pair.A,
			PairB:       sig.Pair.B,
			Correlation: sig.Pair.Correlation,
			ZScore:      sig.ZScore,
			Dispersion:  disp,
		}); err != nil {
			log.Printf("[ERROR] record signal: %v", err)
		}
	}

	if s.Notifier != nil {
		msg := notifier.FormatSignalAlert(signals, disp)
		if err := s.Notifier.SendWithRetry(s.Ctx, msg, 3); err != nil {
			log.Printf("[ERROR] send notification: %v", err)
		}
	}
}
