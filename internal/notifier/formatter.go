package notifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"dispersion/internal/backtest"
	"dispersion/internal/model"
)

// FormatSignalAlert formats watch-mode signals into a Telegram message.
func FormatSignalAlert(signals map[string]model.Signal, dispersion float64) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Dispersion signals</b> | %s\n\n", time.Now().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Cross-sectional dispersion: %.4f\n\n", dispersion))

	symbols := make([]string, 0, len(signals))
	for sym := range signals {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		s := signals[sym]
		arrow := "🟢"
		if s.Side == model.SideShort {
			arrow = "🔴"
		}
		b.WriteString(fmt.Sprintf("%s <b>%s %s</b> — pair %s/%s (ρ=%.2f, z=%+.2f)\n",
			arrow, s.Side, sym, s.Pair.A, s.Pair.B, s.Pair.Correlation, s.ZScore))
	}
	return b.String()
}

// FormatBacktestReport formats a backtest result into a Telegram message.
func FormatBacktestReport(symbols string, res *backtest.Result) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🧪 <b>Backtest complete</b> | %s\n\n", symbols))
	b.WriteString(fmt.Sprintf("Final equity: %.2f (from %.2f)\n", res.FinalEquity, res.InitialCapital))
	b.WriteString(fmt.Sprintf("Total return: %+.2f%%\n", res.TotalReturn*100))
	b.WriteString(fmt.Sprintf("Annualized: %+.2f%%\n", res.AnnualReturn*100))
	b.WriteString(fmt.Sprintf("Sharpe: %.2f\n", res.SharpeRatio))
	b.WriteString(fmt.Sprintf("Max drawdown: %.2f%%\n", res.MaxDrawdown*100))
	b.WriteString(fmt.Sprintf("Trades: %d (win rate %.0f%%)\n", len(res.Trades), res.WinRate*100))
	return b.String()
}
