package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"dispersion/internal/backtest"
	"dispersion/internal/collector"
	"dispersion/internal/config"
	"dispersion/internal/loader"
	"dispersion/internal/notifier"
	"dispersion/internal/recorder"
	"dispersion/internal/scheduler"
	"dispersion/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	mode := flag.String("mode", "backtest", "run mode: backtest or watch")
	cfgPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	if v := os.Getenv("CONFIG_PATH"); v != "" {
		*cfgPath = v
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	fetcher := collector.NewYahooFetcher(cfg.Proxy)
	prober := collector.NewHostProber(cfg.Data.ProbeHosts)
	log.Printf("[INFO] data source: %s", fetcher.Name())

	strat := &strategy.Strategy{
		Lookback:       cfg.Strategy.Lookback,
		MinCorrelation: cfg.Strategy.MinCorrelation,
		EntryZ:         cfg.Strategy.EntryZScore,
	}

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	switch *mode {
	case "backtest":
		if err := runBacktest(cfg, fetcher, prober, strat, rec); err != nil {
			log.Fatalf("[FATAL] backtest: %v", err)
		}
	case "watch":
		runWatch(cfg, fetcher, prober, strat, rec)
	default:
		log.Fatalf("[FATAL] unknown mode %q", *mode)
	}
}

func runBacktest(cfg *config.Config, fetcher collector.Fetcher, prober collector.Prober, strat *strategy.Strategy, rec recorder.Recorder) error {
	start, end, err := cfg.DateRange()
	if err != nil {
		return err
	}

	l := loader.NewLoader(fetcher, prober, cfg.Data.CacheDir)
	table, err := l.FetchData(loader.Query{
		Symbols:  cfg.Data.Symbols,
		Start:    start,
		End:      end,
		Interval: cfg.Data.Interval,
	})
	if err != nil {
		return err
	}
	log.Printf("[INFO] fetched %d rows for %d symbols", table.Len(), len(table.Symbols()))

	clean := loader.Preprocess(table, loader.FillMethod(cfg.Preprocess.FillMethod), cfg.Preprocess.MinPeriods)

	engine := &backtest.Engine{
		Strategy:        strat,
		InitialCapital:  cfg.Backtest.InitialCapital,
		TransactionCost: cfg.Backtest.TransactionCost,
		Slippage:        cfg.Backtest.Slippage,
	}
	res, err := engine.Run(clean)
	if err != nil {
		return err
	}

	symbols := strings.Join(cfg.Data.Symbols, ",")
	fmt.Printf("Symbols:       %s\n", symbols)
	fmt.Printf("Period:        %s - %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Printf("Final equity:  %.2f (from %.2f)\n", res.FinalEquity, res.InitialCapital)
	fmt.Printf("Total return:  %+.2f%%\n", res.TotalReturn*100)
	fmt.Printf("Annualized:    %+.2f%%\n", res.AnnualReturn*100)
	fmt.Printf("Sharpe ratio:  %.2f\n", res.SharpeRatio)
	fmt.Printf("Max drawdown:  %.2f%%\n", res.MaxDrawdown*100)
	fmt.Printf("Trades:        %d (win rate %.0f%%)\n", len(res.Trades), res.WinRate*100)

	if err := rec.RecordBacktest(&recorder.BacktestRun{
		Symbols:  symbols,
		Start:    start,
		End:      end,
		Interval: cfg.Data.Interval,
		Result:   res,
	}); err != nil {
		log.Printf("[ERROR] record backtest: %v", err)
	}

	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		if err := tn.SendWithRetry(context.Background(), notifier.FormatBacktestReport(symbols, res), 3); err != nil {
			log.Printf("[ERROR] send backtest report: %v", err)
		}
	}
	return nil
}

func runWatch(cfg *config.Config, fetcher collector.Fetcher, prober collector.Prober, strat *strategy.Strategy, rec recorder.Recorder) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	}

	// Watch mode always re-fetches: the cache is keyed by date range and
	// never expires, so a cached trailing window would go stale.
	l := loader.NewLoader(fetcher, prober, "")

	sched := scheduler.NewScheduler(ctx, l, strat, tn, rec)
	sched.Symbols = cfg.Data.Symbols
	sched.Interval = cfg.Data.Interval
	sched.LookbackDays = cfg.Watch.LookbackDays
	sched.FillMethod = loader.FillMethod(cfg.Preprocess.FillMethod)
	sched.MinPeriods = cfg.Preprocess.MinPeriods

	if err := sched.Register(cfg.Watch.Cron); err != nil {
		log.Fatalf("[FATAL] register watch task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing watch task now")
		go sched.RunNow()
	}

	log.Println("[INFO] dispersion watch is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
}
