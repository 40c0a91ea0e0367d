// Package signal implements the consensus gate that turns an enriched
// indicator series into buy and sell decisions.
//
// The gate is a fixed, ordered battery of micro-signals. A disabled
// micro-signal passes through; the decision is the logical AND of the rest.
// A downtrend or an unclassified regime vetoes every buy, and an uptrend
// vetoes every sell, before the battery runs.
package signal

import (
	"math"

	"github.com/evdnx/gospot/config"
	"github.com/evdnx/gospot/indicator"
	"github.com/evdnx/gospot/trend"
	"github.com/evdnx/gospot/types"
)

// Input is everything a single gate evaluation looks at.
type Input struct {
	Series   *indicator.Series
	Settings config.StrategySettings
	Trend    trend.Trend
	Averages Averages
	Latest   indicator.Row
	Previous indicator.Row
}

// NewInput classifies the trend and computes the averages for s. A series
// that fails Valid still yields an Input; Buy and Sell reject it.
func NewInput(s *indicator.Series, settings config.StrategySettings) Input {
	in := Input{Series: s, Settings: settings}
	if !Valid(s) {
		return in
	}
	in.Trend = trend.ClassifySeries(s, settings)
	in.Averages = ComputeAverages(s, settings.Averages)
	in.Latest = s.Latest()
	in.Previous = s.Previous()
	return in
}

// Valid reports whether s can be evaluated: at least two rows and every
// window column finite on the last two rows.
func Valid(s *indicator.Series) bool {
	if s == nil || s.Len() < 2 {
		return false
	}
	return rowFinite(s.Latest()) && rowFinite(s.Previous())
}

func rowFinite(r indicator.Row) bool {
	for _, v := range []float64{
		r.Close, r.High, r.Low, r.Volume,
		r.RSI, r.CCI, r.MFI, r.StochK, r.StochD, r.StochRSIK, r.StochRSID,
		r.EMAFast, r.EMASlow, r.MACD, r.MACDSignal, r.MACDHist,
		r.ADX, r.PlusDI, r.MinusDI, r.PSAR, r.ATR,
		r.BBUpper, r.BBMiddle, r.BBLower, r.VWAP,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Buy reports whether every enabled buy micro-signal agrees.
func Buy(in Input) bool { return len(Explain(in, types.Buy)) == 0 }

// Sell reports whether every enabled sell micro-signal agrees.
func Sell(in Input) bool { return len(Explain(in, types.Sell)) == 0 }

// Explain lists the reasons the gate rejects side, in battery order. An
// empty result means the signal fires.
func Explain(in Input, side types.Side) []string {
	if !Valid(in.Series) {
		return []string{"invalid"}
	}
	if side == types.Buy {
		switch in.Trend {
		case trend.Downtrend:
			return []string{"veto:downtrend"}
		case trend.None:
			// No regime evidence is not enough to open a position.
			return []string{"veto:none"}
		}
	}
	if side == types.Sell && in.Trend == trend.Uptrend {
		return []string{"veto:uptrend"}
	}
	var failed []string
	for _, p := range battery {
		if !p.enabled(in.Settings.Signals) {
			continue
		}
		ok := p.buy
		if side == types.Sell {
			ok = p.sell
		}
		if !ok(in) {
			failed = append(failed, p.name)
		}
	}
	return failed
}
