// Package position holds the single-position lifecycle of one trading
// instance: flat, open with a ratcheting trailing stop, and closed back to
// flat with a trade record.
package position

import (
	"math"

	"github.com/evdnx/gospot/config"
	"github.com/evdnx/gospot/types"
)

// Position is the current trade of an instance. When Active is false every
// price field is zero.
type Position struct {
	Symbol        string  `json:"symbol"`
	Active        bool    `json:"active"`
	EntryPrice    float64 `json:"entry_price"`
	EntryTime     int64   `json:"entry_time"`
	CurrentPrice  float64 `json:"current_price"`
	PreviousPrice float64 `json:"previous_price"`
	TrailingStop  float64 `json:"trailing_stop"`
	TakeProfit    float64 `json:"take_profit"`
	Amount        float64 `json:"amount"`
}

// Flat returns an inactive position for symbol.
func Flat(symbol string) Position { return Position{Symbol: symbol} }

// Action is what a transition did.
type Action int

const (
	Hold Action = iota
	Opened
	Closed
	Ratcheted
)

func (a Action) String() string {
	switch a {
	case Opened:
		return "opened"
	case Closed:
		return "closed"
	case Ratcheted:
		return "ratcheted"
	default:
		return "hold"
	}
}

// Input is one cycle's view of the market and the gate.
type Input struct {
	Buy   bool
	Sell  bool
	Price float64
	ATR   float64
	Time  int64
}

// Transition is the result of Apply. Trade is set only when Action is
// Closed.
type Transition struct {
	Position Position
	Action   Action
	Trade    *types.TradeRecord
}

// Apply advances pos by one cycle. Exit checks run stop first, then take
// profit, then the sell signal. Exits fill at the current price, so a gap
// through the stop is realised at the gapped price.
func Apply(pos Position, in Input, r config.Risk) Transition {
	if !pos.Active {
		if !in.Buy || in.Price <= 0 {
			return Transition{Position: pos, Action: Hold}
		}
		return Transition{Position: open(pos.Symbol, in, r), Action: Opened}
	}

	pos.PreviousPrice = pos.CurrentPrice
	pos.CurrentPrice = in.Price

	switch {
	case in.Price <= pos.TrailingStop:
		return closeAt(pos, in, types.ExitStopLoss)
	case r.TakeProfitEnabled && pos.TakeProfit > 0 && in.Price >= pos.TakeProfit:
		return closeAt(pos, in, types.ExitTakeProfit)
	case in.Sell:
		return closeAt(pos, in, types.ExitSignal)
	}

	if in.Price > pos.PreviousPrice {
		if stop := trailingStop(in.Price, in.ATR, r); stop > pos.TrailingStop {
			pos.TrailingStop = stop
			return Transition{Position: pos, Action: Ratcheted}
		}
	}
	return Transition{Position: pos, Action: Hold}
}

func open(symbol string, in Input, r config.Risk) Position {
	p := Position{
		Symbol:        symbol,
		Active:        true,
		EntryPrice:    in.Price,
		EntryTime:     in.Time,
		CurrentPrice:  in.Price,
		PreviousPrice: in.Price,
		TrailingStop:  in.Price * (1 - r.TrailingStopPct),
	}
	if r.TakeProfitEnabled {
		p.TakeProfit = takeProfit(in.Price, in.ATR, r)
	}
	return p
}

func closeAt(pos Position, in Input, reason types.ExitReason) Transition {
	pnl, _ := PctChange(pos.EntryPrice, in.Price)
	rec := &types.TradeRecord{
		Symbol:     pos.Symbol,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  in.Price,
		Amount:     pos.Amount,
		EntryTime:  pos.EntryTime,
		ExitTime:   in.Time,
		Reason:     reason,
		PnLPct:     pnl,
	}
	return Transition{Position: Flat(pos.Symbol), Action: Closed, Trade: rec}
}

// trailingStop is the candidate stop for price. The ATR rule is floored by
// the stop-loss percentage; a missing ATR falls back to that floor.
func trailingStop(price, atr float64, r config.Risk) float64 {
	if r.TrailingMode != config.ModeATR {
		return price * (1 - r.TrailingStopPct)
	}
	floor := price * (1 - r.StopLossPct)
	if !finite(atr) || atr <= 0 {
		return floor
	}
	return math.Max(price*(1-r.TrailingATRMultiplier*atr/price), floor)
}

func takeProfit(entry, atr float64, r config.Risk) float64 {
	if r.TakeProfitMode == config.ModeATR && finite(atr) && atr > 0 {
		return entry + r.TakeProfitATRMultiplier*atr
	}
	return entry * (1 + r.TakeProfitPct)
}

// PctChange is the change from base to v in percent. A zero or non-finite
// base reports ok=false and a zero change.
func PctChange(base, v float64) (pct float64, ok bool) {
	if base == 0 || !finite(base) || !finite(v) {
		return 0, false
	}
	return (v - base) / base * 100, true
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
