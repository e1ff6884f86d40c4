package backtest

import (
	"errors"
	"log"
	"math"
	"time"

	"dispersion/internal/model"
	"dispersion/internal/strategy"
)

// Engine replays a price table through the strategy, accounting for
// transaction costs and slippage on every fill.
type Engine struct {
	Strategy        *strategy.Strategy
	InitialCapital  float64
	TransactionCost float64 // fraction of notional per trade
	Slippage        float64 // fraction of notional per trade
}

// NewEngine returns an engine with the standard cost assumptions.
func NewEngine(s *strategy.Strategy) *Engine {
	return &Engine{
		Strategy:        s,
		InitialCapital:  100000,
		TransactionCost: 0.001,
		Slippage:        0.0005,
	}
}

// Trade records one fill.
type Trade struct {
	Time     time.Time
	Symbol   string
	Side     model.Side
	Action   string // "OPEN" or "CLOSE"
	Quantity float64
	Price    float64
	Fee      float64
	// PnL is the realized net profit of a CLOSE, zero for OPEN.
	PnL float64
}

type position struct {
	Side       model.Side
	Quantity   float64
	EntryPrice float64
	LastPrice  float64
	EntryTime  time.Time
	EntryFee   float64
}

// Run walks the table in time order. At each step it marks open positions
// to market, generates signals on the history seen so far, closes positions
// whose symbol lost its signal (or flipped side), and opens new ones with
// the current equity split equally across signalled symbols.
func (e *Engine) Run(prices *model.PriceTable) (*Result, error) {
	if prices == nil || prices.Len() == 0 {
		return nil, errors.New("backtest: empty price table")
	}
	if e.Strategy == nil {
		return nil, errors.New("backtest: no strategy configured")
	}

	equity := e.InitialCapital
	positions := make(map[string]*position)
	res := &Result{InitialCapital: e.InitialCapital}

	for i := 0; i < prices.Len(); i++ {
		now := prices.Time(i)

		// Mark to market.
		for sym, pos := range positions {
			p := priceAt(prices, i, sym)
			if math.IsNaN(p) {
				continue
			}
			delta := pos.Quantity * (p - pos.LastPrice)
			if pos.Side == model.SideShort {
				delta = -delta
			}
			equity += delta
			pos.LastPrice = p
		}

		signals := e.Strategy.GenerateSignals(prices.Truncate(i + 1))

		// Close positions whose signal disappeared or reversed.
		for sym, pos := range positions {
			sig, ok := signals[sym]
			if ok && sig.Side == pos.Side {
				continue
			}
			p := priceAt(prices, i, sym)
			if math.IsNaN(p) {
				continue // hold until a valid price arrives
			}
			fee := pos.Quantity * p * (e.TransactionCost + e.Slippage)
			equity -= fee
			pnl := pos.Quantity * (p - pos.EntryPrice)
			if pos.Side == model.SideShort {
				pnl = -pnl
			}
			pnl -= fee + pos.EntryFee
			res.Trades = append(res.Trades, Trade{
				Time: now, Symbol: sym, Side: pos.Side, Action: "CLOSE",
				Quantity: pos.Quantity, Price: p, Fee: fee, PnL: pnl,
			})
			delete(positions, sym)
		}

		// Open new positions, equal notional per signalled symbol.
		if len(signals) > 0 {
			alloc := equity / float64(len(signals))
			for sym, sig := range signals {
				if _, held := positions[sym]; held {
					continue
				}
				p := priceAt(prices, i, sym)
				if math.IsNaN(p) || p <= 0 {
					continue
				}
				qty := alloc / p
				fee := alloc * (e.TransactionCost + e.Slippage)
				equity -= fee
				positions[sym] = &position{
					Side: sig.Side, Quantity: qty, EntryPrice: p,
					LastPrice: p, EntryTime: now, EntryFee: fee,
				}
				res.Trades = append(res.Trades, Trade{
					Time: now, Symbol: sym, Side: sig.Side, Action: "OPEN",
					Quantity: qty, Price: p, Fee: fee,
				})
			}
		}

		res.Times = append(res.Times, now)
		res.Equity = append(res.Equity, equity)

		if (i+1)%50 == 0 {
			log.Printf("[INFO] backtest progress: %d/%d rows, equity %.2f", i+1, prices.Len(), equity)
		}
	}

	res.finalize()
	log.Printf("[INFO] backtest complete: %d rows, final equity %.2f, %d trades",
		prices.Len(), res.FinalEquity, len(res.Trades))
	return res, nil
}

func priceAt(t *model.PriceTable, i int, symbol string) float64 {
	j := t.ColumnIndex(symbol)
	if j < 0 {
		return math.NaN()
	}
	return t.At(i, j)
}
