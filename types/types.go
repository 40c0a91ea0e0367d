package types

import "time"

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Order is a spot order against a quote (stable) asset. A buy may be sized
// either by base quantity (Qty) or by quote amount to spend (QuoteQty).
type Order struct {
	Symbol   string
	Side     Side
	Qty      float64
	QuoteQty float64
	Price    float64 // fill price; 0 = market
	// meta
	Comment string
}

// Fill is the executed result of an Order.
type Fill struct {
	Symbol   string
	Side     Side
	Qty      float64
	QuoteQty float64
	Price    float64
}

// Bar is one OHLCV sample. Times are Unix milliseconds.
type Bar struct {
	OpenTime  int64   `json:"open_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	CloseTime int64   `json:"close_time"`
}

// Time returns the bar close time as a UTC time.Time.
func (b Bar) Time() time.Time {
	return time.UnixMilli(b.CloseTime).UTC()
}

// ExitReason tags why a position was closed.
type ExitReason string

const (
	ExitSignal     ExitReason = "signal"
	ExitStopLoss   ExitReason = "stop-loss"
	ExitTakeProfit ExitReason = "take-profit"
)

// TradeRecord is an immutable completed round trip.
type TradeRecord struct {
	Symbol     string     `json:"symbol"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	Amount     float64    `json:"amount"`
	EntryTime  int64      `json:"entry_time"`
	ExitTime   int64      `json:"exit_time"`
	Reason     ExitReason `json:"reason"`
	PnLPct     float64    `json:"pnl_pct"`
}

// Won reports whether the trade closed above its entry.
func (t TradeRecord) Won() bool { return t.ExitPrice > t.EntryPrice }
