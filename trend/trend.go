// Package trend derives a coarse market regime from ADX and the
// directional indicators.
package trend

import (
	"math"

	"github.com/evdnx/gospot/config"
	"github.com/evdnx/gospot/indicator"
)

// Trend is the market regime of the latest bar.
type Trend int

const (
	// None means there was not enough evidence for any regime.
	None Trend = iota
	Uptrend
	Downtrend
	Horizontal
)

func (t Trend) String() string {
	switch t {
	case Uptrend:
		return "uptrend"
	case Downtrend:
		return "downtrend"
	case Horizontal:
		return "horizontal"
	default:
		return "none"
	}
}

// Classify labels latest against the recent window. Directional regimes are
// checked before Horizontal; anything else is None. A row holding NaN in
// any input yields None.
func Classify(latest indicator.Row, window []indicator.Row, th config.Thresholds) Trend {
	if len(window) == 0 || !finite(latest.ADX, latest.PlusDI, latest.MinusDI, latest.ATR, latest.RSI) {
		return None
	}
	var adxSum, spreadSum, plusSum, minusSum float64
	for _, r := range window {
		if !finite(r.ADX, r.PlusDI, r.MinusDI) {
			return None
		}
		adxSum += r.ADX
		spreadSum += r.PlusDI - r.MinusDI
		plusSum += r.PlusDI
		minusSum += r.MinusDI
	}
	n := float64(len(window))
	avgADX, avgSpread := adxSum/n, spreadSum/n
	avgPlus, avgMinus := plusSum/n, minusSum/n

	spread := latest.PlusDI - latest.MinusDI
	adxTrend := latest.ADX > th.ADXStrong || latest.ADX > avgADX
	diDivergence := math.Abs(spread) > math.Abs(avgSpread)
	significantMove := latest.High-latest.Low > latest.ATR

	directional := adxTrend && diDivergence && significantMove
	switch {
	case directional && latest.RSI < th.RSISell && latest.PlusDI > th.ADXWeak && latest.PlusDI > avgMinus:
		return Uptrend
	case directional && latest.RSI > th.RSIBuy && latest.MinusDI > th.ADXWeak && latest.MinusDI > avgPlus:
		return Downtrend
	case latest.ADX < avgADX || avgADX < th.ADXWeak || math.Abs(spread) < th.DINoTrend:
		return Horizontal
	}
	return None
}

// ClassifySeries classifies the latest row of s using the configured trend
// window. Series with fewer than two rows are None.
func ClassifySeries(s *indicator.Series, settings config.StrategySettings) Trend {
	if s == nil || s.Len() < 2 {
		return None
	}
	rows := s.Tail(settings.Averages.Trend).Rows()
	return Classify(s.Latest(), rows, settings.Thresholds)
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
