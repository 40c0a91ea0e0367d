package risk

import (
	"math"

	"github.com/evdnx/gospot/config"
)

// QuoteAmount is the stable-asset amount to commit to a new position. The
// same fraction is used by the backtest and the live trader. An amount below
// the minimum notional is reported as zero.
func QuoteAmount(stable float64, s config.Sizing) float64 {
	amt := stable * s.CapitalFraction
	if amt <= 0 || math.IsNaN(amt) || amt < s.MinNotional {
		return 0
	}
	// Round down to cents so the fill never exceeds the balance.
	return math.Floor(amt*100) / 100
}

// RiskAtStop is the quote amount lost if qty bought at entry exits at stop.
func RiskAtStop(qty, entry, stop float64) float64 {
	if qty <= 0 || stop >= entry {
		return 0
	}
	return qty * (entry - stop)
}
