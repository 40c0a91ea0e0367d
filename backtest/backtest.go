// Package backtest replays the decision cycle bar by bar over a historical
// series against a simulated wallet.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/evdnx/gospot/config"
	"github.com/evdnx/gospot/executor"
	"github.com/evdnx/gospot/logger"
	"github.com/evdnx/gospot/metrics"
	"github.com/evdnx/gospot/position"
	"github.com/evdnx/gospot/strategy"
	"github.com/evdnx/gospot/types"
	"github.com/google/uuid"
)

// ErrNotEnoughBars is returned when the series has no eligible index.
var ErrNotEnoughBars = errors.New("backtest: not enough bars")

// LogEntry records one buy or sell transition.
type LogEntry struct {
	Index        int     `json:"index"`
	Action       string  `json:"action"`
	Price        float64 `json:"price"`
	Time         int64   `json:"time"`
	Stable       float64 `json:"stable"`
	Asset        float64 `json:"asset"`
	TrailingStop float64 `json:"trailing_stop"`
	Reason       string  `json:"reason,omitempty"`
}

// Summary aggregates the trade ledger and equity curve.
type Summary struct {
	Trades         int     `json:"trades"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinRate        float64 `json:"win_rate"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	StopLosses     int     `json:"stop_losses"`
	TakeProfits    int     `json:"take_profits"`
}

// Result is the only externally visible output of a run. Nothing is exposed
// before the run finishes.
type Result struct {
	RunID          string              `json:"run_id"`
	Symbol         string              `json:"symbol"`
	Family         config.Family       `json:"family"`
	InitialBalance float64             `json:"initial_balance"`
	FinalBalance   float64             `json:"final_balance"`
	Profit         float64             `json:"profit"`
	ProfitPct      float64             `json:"profit_pct"`
	Log            []LogEntry          `json:"log"`
	Trades         []types.TradeRecord `json:"trades"`
	Summary        Summary             `json:"summary"`
	Evaluated      int                 `json:"evaluated"`
	Skipped        int                 `json:"skipped"`
	OpenAtEnd      bool                `json:"open_at_end"`
}

type options struct {
	log      logger.Logger
	decider  strategy.Decider
	observer func(index int, pos position.Position, out strategy.Outcome)
}

// Option customises a run.
type Option func(*options)

// WithLogger sets the logger for per-window failures and fills.
func WithLogger(l logger.Logger) Option { return func(o *options) { o.log = l } }

// WithDecider replaces the indicator-driven evaluator.
func WithDecider(d strategy.Decider) Option { return func(o *options) { o.decider = d } }

// WithObserver is called after every evaluated index with the resulting
// position.
func WithObserver(f func(index int, pos position.Position, out strategy.Outcome)) Option {
	return func(o *options) { o.observer = f }
}

// Run replays bars from the family warm-up offset up to the trailing buffer.
// Each index sees only the bars up to and including itself. A failing window
// is logged and skipped. The final balance values any held asset at the
// close of the last bar.
func Run(bars []types.Bar, settings config.StrategySettings, bt config.BacktestSettings, opts ...Option) (Result, error) {
	o := options{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := bt.Validate(); err != nil {
		return Result{}, err
	}

	fam := settings.Family
	window, longWindow := fam.WindowSize(), fam.LongWindowSize()
	start := max(fam.WarmupOffset(), window-1, longWindow-1)
	end := len(bars) - bt.TrailingBuffer
	if end <= start {
		return Result{}, fmt.Errorf("%w: have %d, need more than %d", ErrNotEnoughBars, len(bars), start+bt.TrailingBuffer)
	}

	exec := executor.NewPaperExecutor(bt.InitialBalance, o.log)
	inst, err := strategy.NewInstance("backtest:"+settings.Name, settings, exec, o.log)
	if err != nil {
		return Result{}, err
	}
	if o.decider != nil {
		inst.Decider = o.decider
	}

	began := time.Now()
	ctx := context.Background()
	res := Result{
		RunID:          uuid.NewString(),
		Symbol:         settings.Symbol,
		Family:         fam,
		InitialBalance: bt.InitialBalance,
	}
	curve := make([]float64, 0, end-start)
	pos := position.Flat(settings.Symbol)

	for i := start; i < end; i++ {
		var long []types.Bar
		if longWindow > 0 {
			long = bars[i-longWindow+1 : i+1]
		}
		next, out, err := step(ctx, inst, pos, bars[i-window+1:i+1], long)
		if err != nil {
			o.log.Warn("window_failed", logger.Int("index", i), logger.Err(err))
			res.Skipped++
			continue
		}
		if !out.Decision.Ready {
			o.log.Warn("window_not_ready", logger.Int("index", i), logger.String("reason", out.Decision.Reason))
			res.Skipped++
			continue
		}
		res.Evaluated++
		pos = next

		stable, asset := exec.Balances(settings.Symbol)
		switch out.Transition.Action {
		case position.Opened:
			res.Log = append(res.Log, LogEntry{
				Index: i, Action: "buy", Price: out.Decision.Price, Time: out.Decision.Time,
				Stable: stable, Asset: asset, TrailingStop: pos.TrailingStop,
			})
		case position.Closed:
			tr := *out.Transition.Trade
			res.Trades = append(res.Trades, tr)
			res.Log = append(res.Log, LogEntry{
				Index: i, Action: "sell", Price: out.Decision.Price, Time: out.Decision.Time,
				Stable: stable, Asset: asset, Reason: string(tr.Reason),
			})
		}
		curve = append(curve, stable+asset*bars[i].Close)
		if o.observer != nil {
			o.observer(i, pos, out)
		}
	}

	last := bars[len(bars)-1].Close
	res.FinalBalance = exec.Equity(settings.Symbol, last)
	res.Profit = res.FinalBalance - res.InitialBalance
	res.ProfitPct, _ = position.PctChange(res.InitialBalance, res.FinalBalance)
	res.OpenAtEnd = pos.Active
	res.Summary = summarize(res.Trades, curve)

	metrics.BacktestRuns.WithLabelValues(string(fam)).Inc()
	metrics.BacktestDuration.Observe(time.Since(began).Seconds())
	metrics.EquityGauge.WithLabelValues(inst.Name).Set(res.FinalBalance)
	o.log.Info("backtest_finished",
		logger.String("run_id", res.RunID),
		logger.String("symbol", res.Symbol),
		logger.Float64("final_balance", res.FinalBalance),
		logger.Int("trades", len(res.Trades)),
		logger.Int("skipped", res.Skipped),
	)
	return res, nil
}

// step runs one cycle and turns a panic inside it into an error so a
// malformed window cannot abort the replay.
func step(ctx context.Context, inst *strategy.Instance, pos position.Position, bars, long []types.Bar) (next position.Position, out strategy.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			next, err = pos, fmt.Errorf("panic: %v", r)
		}
	}()
	return inst.Step(ctx, pos, bars, long)
}

func summarize(trades []types.TradeRecord, curve []float64) Summary {
	var s Summary
	s.Trades = len(trades)
	for _, t := range trades {
		if t.Won() {
			s.Wins++
		} else {
			s.Losses++
		}
		switch t.Reason {
		case types.ExitStopLoss:
			s.StopLosses++
		case types.ExitTakeProfit:
			s.TakeProfits++
		}
	}
	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades)
	}
	peak := 0.0
	for _, eq := range curve {
		if eq > peak {
			peak = eq
		}
		if peak > 0 {
			if dd := (peak - eq) / peak * 100; dd > s.MaxDrawdownPct {
				s.MaxDrawdownPct = dd
			}
		}
	}
	return s
}
