package strategy

import (
	"context"
	"fmt"

	"github.com/evdnx/gospot/config"
	"github.com/evdnx/gospot/executor"
	"github.com/evdnx/gospot/logger"
	"github.com/evdnx/gospot/metrics"
	"github.com/evdnx/gospot/position"
	"github.com/evdnx/gospot/risk"
	"github.com/evdnx/gospot/types"
)

// Instance bundles one symbol/strategy configuration with its decider and
// executor. An Instance holds no position state; callers pass it in and get
// the next state back.
type Instance struct {
	Name     string
	Settings config.StrategySettings
	Decider  Decider
	Exec     executor.Executor
	Log      logger.Logger
}

// Outcome describes what one Step did.
type Outcome struct {
	Decision   Decision
	Transition position.Transition
	Fill       *types.Fill
}

// NewInstance wires an Evaluator for settings.
func NewInstance(name string, settings config.StrategySettings, exec executor.Executor, log logger.Logger) (*Instance, error) {
	ev, err := NewEvaluator(settings)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Instance{Name: name, Settings: settings, Decider: ev, Exec: exec, Log: log}, nil
}

// Step evaluates one window and applies the position transition, placing
// the buy or sell order it implies. A window that is not ready leaves pos
// untouched. When the order fails pos is returned unchanged with the error.
func (in *Instance) Step(ctx context.Context, pos position.Position, bars, longBars []types.Bar) (position.Position, Outcome, error) {
	d := in.Decider.Decide(bars, longBars)
	out := Outcome{Decision: d}
	if !d.Ready {
		metrics.CyclesEvaluated.WithLabelValues(in.Name, "not_ready").Inc()
		return pos, out, nil
	}
	metrics.CyclesEvaluated.WithLabelValues(in.Name, "ready").Inc()
	if d.Buy {
		metrics.SignalsFired.WithLabelValues(in.Name, "buy").Inc()
	}
	if d.Sell {
		metrics.SignalsFired.WithLabelValues(in.Name, "sell").Inc()
	}

	if pos.Symbol == "" {
		pos.Symbol = in.Settings.Symbol
	}
	tr := position.Apply(pos, position.Input{
		Buy:   d.Buy,
		Sell:  d.Sell,
		Price: d.Price,
		ATR:   d.ATR,
		Time:  d.Time,
	}, in.Settings.Risk)

	switch tr.Action {
	case position.Opened:
		stable, _ := in.Exec.Balances(pos.Symbol)
		quote := risk.QuoteAmount(stable, in.Settings.Sizing)
		if quote == 0 {
			in.Log.Warn("buy_skipped",
				logger.String("instance", in.Name),
				logger.Float64("stable", stable),
			)
			out.Transition = position.Transition{Position: pos, Action: position.Hold}
			return pos, out, nil
		}
		fill, err := in.submitOrder(ctx, types.Order{
			Symbol:   pos.Symbol,
			Side:     types.Buy,
			QuoteQty: quote,
			Price:    d.Price,
			Comment:  "entry",
		})
		if err != nil {
			return pos, out, err
		}
		tr.Position.Amount = fill.Qty
		out.Fill = &fill
		metrics.PositionsOpen.WithLabelValues(in.Name).Set(1)
		in.Log.Info("position_opened",
			logger.String("instance", in.Name),
			logger.Float64("entry", tr.Position.EntryPrice),
			logger.Float64("trailing_stop", tr.Position.TrailingStop),
			logger.Float64("risk_at_stop", risk.RiskAtStop(fill.Qty, fill.Price, tr.Position.TrailingStop)),
		)
	case position.Closed:
		fill, err := in.submitOrder(ctx, types.Order{
			Symbol:  pos.Symbol,
			Side:    types.Sell,
			Qty:     pos.Amount,
			Price:   d.Price,
			Comment: string(tr.Trade.Reason),
		})
		if err != nil {
			return pos, out, err
		}
		out.Fill = &fill
		metrics.PositionsOpen.WithLabelValues(in.Name).Set(0)
		metrics.TradesClosed.WithLabelValues(in.Name, string(tr.Trade.Reason)).Inc()
		in.Log.Info("position_closed",
			logger.String("instance", in.Name),
			logger.String("reason", string(tr.Trade.Reason)),
			logger.Float64("exit", tr.Trade.ExitPrice),
			logger.Float64("pnl_pct", tr.Trade.PnLPct),
		)
	}
	out.Transition = tr
	return tr.Position, out, nil
}

// submitOrder is a thin wrapper that records metrics and logs.
func (in *Instance) submitOrder(ctx context.Context, o types.Order) (types.Fill, error) {
	fill, err := in.Exec.Submit(ctx, o)
	if err != nil {
		in.Log.Error("order_submit_failed",
			logger.String("instance", in.Name),
			logger.String("symbol", o.Symbol),
			logger.String("side", string(o.Side)),
			logger.Err(err),
		)
		return fill, fmt.Errorf("submit %s %s: %w", o.Side, o.Symbol, err)
	}
	metrics.OrdersSubmitted.WithLabelValues(in.Name).Inc()
	return fill, nil
}
