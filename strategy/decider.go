// Package strategy turns a bar window into a trading decision and applies it
// to an instance's position and wallet.
package strategy

import (
	"fmt"

	"github.com/evdnx/gospot/config"
	"github.com/evdnx/gospot/indicator"
	"github.com/evdnx/gospot/signal"
	"github.com/evdnx/gospot/trend"
	"github.com/evdnx/gospot/types"
)

// Decision is the outcome of evaluating one bar window. Price, ATR and Time
// describe the latest bar. When Ready is false only Reason is meaningful.
type Decision struct {
	Ready  bool
	Reason string
	Buy    bool
	Sell   bool
	Trend  trend.Trend
	Price  float64
	ATR    float64
	Time   int64
	// Failed lists the rejecting micro-signals per side.
	BuyFailed  []string
	SellFailed []string
}

// Decider evaluates a bar window. longBars may be nil.
type Decider interface {
	Decide(bars, longBars []types.Bar) Decision
}

// DeciderFunc adapts a function to Decider.
type DeciderFunc func(bars, longBars []types.Bar) Decision

func (f DeciderFunc) Decide(bars, longBars []types.Bar) Decision { return f(bars, longBars) }

// Evaluator is the production Decider: indicator engine, trend classifier
// and signal gate in sequence.
type Evaluator struct {
	settings config.StrategySettings
	engine   *indicator.Engine
}

// NewEvaluator validates settings and builds the indicator catalog once.
// Settings whose combined warm-up leaves fewer than two rows in the family
// window are rejected, since every window would be not ready.
func NewEvaluator(settings config.StrategySettings) (*Evaluator, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("strategy %s: %w", settings.Name, err)
	}
	engine := indicator.NewEngine(settings)
	if w := settings.Family.WindowSize(); w-engine.Warmup() < 2 {
		err := &config.ValidationError{Problems: []string{fmt.Sprintf(
			"indicator warm-up of %d bars leaves %d rows in the %s window of %d bars, need 2",
			engine.Warmup(), max(w-engine.Warmup(), 0), settings.Family, w)}}
		return nil, fmt.Errorf("strategy %s: %w", settings.Name, err)
	}
	return &Evaluator{settings: settings, engine: engine}, nil
}

// Settings returns the settings the evaluator was built with.
func (e *Evaluator) Settings() config.StrategySettings { return e.settings }

// Engine exposes the indicator engine.
func (e *Evaluator) Engine() *indicator.Engine { return e.engine }

func (e *Evaluator) Decide(bars, longBars []types.Bar) Decision {
	res := e.engine.Compute(bars, longBars)
	if !res.IsReady() {
		return Decision{Reason: res.Reason()}
	}
	s := res.Series()
	in := signal.NewInput(s, e.settings)
	if !signal.Valid(s) {
		return Decision{Reason: "invalid window"}
	}
	d := Decision{
		Ready:      true,
		Trend:      in.Trend,
		Price:      in.Latest.Close,
		ATR:        in.Latest.ATR,
		Time:       stamp(in.Latest.Bar),
		BuyFailed:  signal.Explain(in, types.Buy),
		SellFailed: signal.Explain(in, types.Sell),
	}
	d.Buy = len(d.BuyFailed) == 0
	d.Sell = len(d.SellFailed) == 0
	return d
}

// stamp is the bar close time, or its open time when the close is unset.
func stamp(b types.Bar) int64 {
	if b.CloseTime != 0 {
		return b.CloseTime
	}
	return b.OpenTime
}
