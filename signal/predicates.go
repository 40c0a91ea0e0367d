package signal

import (
	"github.com/evdnx/gospot/config"
	"github.com/evdnx/gospot/trend"
)

type predicate struct {
	name    string
	enabled func(config.Signals) bool
	buy     func(Input) bool
	sell    func(Input) bool
}

// battery is evaluated in this order.
var battery = []predicate{
	{"trend", func(s config.Signals) bool { return s.Trend },
		func(in Input) bool { return in.Trend == trend.Uptrend },
		func(in Input) bool { return in.Trend == trend.Downtrend }},
	{"rsi", func(s config.Signals) bool { return s.RSI },
		func(in Input) bool { return in.Latest.RSI < in.Settings.Thresholds.RSIBuy },
		func(in Input) bool { return in.Latest.RSI > in.Settings.Thresholds.RSISell }},
	{"rsi_divergence", func(s config.Signals) bool { return s.RSIDivergence },
		func(in Input) bool { return in.Latest.RSI > in.Averages.RSI && in.Latest.Close < in.Averages.Close },
		func(in Input) bool { return in.Latest.RSI < in.Averages.RSI && in.Latest.Close > in.Averages.Close }},
	{"volume", func(s config.Signals) bool { return s.Volume },
		volumeRising, volumeRising},
	{"macd_cross", func(s config.Signals) bool { return s.MACDCross },
		func(in Input) bool {
			return crossUp(in.Previous.MACD, in.Previous.MACDSignal, in.Latest.MACD, in.Latest.MACDSignal)
		},
		func(in Input) bool {
			return crossUp(in.Previous.MACDSignal, in.Previous.MACD, in.Latest.MACDSignal, in.Latest.MACD)
		}},
	{"macd_histogram", func(s config.Signals) bool { return s.MACDHistogram },
		func(in Input) bool { return in.Previous.MACDHist < 0 && in.Latest.MACDHist >= 0 },
		func(in Input) bool { return in.Previous.MACDHist > 0 && in.Latest.MACDHist <= 0 }},
	{"bollinger", func(s config.Signals) bool { return s.Bollinger },
		func(in Input) bool { return in.Latest.Close <= in.Latest.BBLower },
		func(in Input) bool { return in.Latest.Close >= in.Latest.BBUpper }},
	{"stoch", func(s config.Signals) bool { return s.Stoch },
		func(in Input) bool {
			return crossUp(in.Previous.StochK, in.Previous.StochD, in.Latest.StochK, in.Latest.StochD) &&
				in.Latest.StochK < in.Settings.Thresholds.StochBuy
		},
		func(in Input) bool {
			return crossUp(in.Previous.StochD, in.Previous.StochK, in.Latest.StochD, in.Latest.StochK) &&
				in.Latest.StochK > in.Settings.Thresholds.StochSell
		}},
	{"stoch_divergence", func(s config.Signals) bool { return s.StochDivergence },
		func(in Input) bool { return in.Latest.StochK > in.Averages.Stoch && in.Latest.Close < in.Averages.Close },
		func(in Input) bool { return in.Latest.StochK < in.Averages.Stoch && in.Latest.Close > in.Averages.Close }},
	{"stoch_rsi", func(s config.Signals) bool { return s.StochRSI },
		func(in Input) bool { return in.Latest.StochRSIK < in.Settings.Thresholds.StochRSIBuy },
		func(in Input) bool { return in.Latest.StochRSIK > in.Settings.Thresholds.StochRSISell }},
	{"ema_cross", func(s config.Signals) bool { return s.EMACross },
		func(in Input) bool {
			return crossUp(in.Previous.EMAFast, in.Previous.EMASlow, in.Latest.EMAFast, in.Latest.EMASlow)
		},
		func(in Input) bool {
			return crossUp(in.Previous.EMASlow, in.Previous.EMAFast, in.Latest.EMASlow, in.Latest.EMAFast)
		}},
	{"ema_level", func(s config.Signals) bool { return s.EMALevel },
		func(in Input) bool { return in.Latest.EMAFast > in.Latest.EMASlow },
		func(in Input) bool { return in.Latest.EMAFast < in.Latest.EMASlow }},
	{"di_cross", func(s config.Signals) bool { return s.DICross },
		func(in Input) bool {
			return crossUp(in.Previous.PlusDI, in.Previous.MinusDI, in.Latest.PlusDI, in.Latest.MinusDI)
		},
		func(in Input) bool {
			return crossUp(in.Previous.MinusDI, in.Previous.PlusDI, in.Latest.MinusDI, in.Latest.PlusDI)
		}},
	{"cci", func(s config.Signals) bool { return s.CCI },
		func(in Input) bool { return in.Latest.CCI < in.Settings.Thresholds.CCIBuy },
		func(in Input) bool { return in.Latest.CCI > in.Settings.Thresholds.CCISell }},
	{"cci_divergence", func(s config.Signals) bool { return s.CCIDivergence },
		func(in Input) bool { return in.Latest.CCI > in.Averages.CCI && in.Latest.Close < in.Averages.Close },
		func(in Input) bool { return in.Latest.CCI < in.Averages.CCI && in.Latest.Close > in.Averages.Close }},
	{"mfi", func(s config.Signals) bool { return s.MFI },
		func(in Input) bool { return in.Latest.MFI < in.Settings.Thresholds.MFIBuy },
		func(in Input) bool { return in.Latest.MFI > in.Settings.Thresholds.MFISell }},
	{"mfi_divergence", func(s config.Signals) bool { return s.MFIDivergence },
		func(in Input) bool { return in.Latest.MFI > in.Averages.MFI && in.Latest.Close < in.Averages.Close },
		func(in Input) bool { return in.Latest.MFI < in.Averages.MFI && in.Latest.Close > in.Averages.Close }},
	{"atr", func(s config.Signals) bool { return s.ATR },
		volatilityExpanding, volatilityExpanding},
	{"vwap", func(s config.Signals) bool { return s.VWAP },
		func(in Input) bool { return in.Latest.Close < in.Latest.VWAP },
		func(in Input) bool { return in.Latest.Close > in.Latest.VWAP }},
	{"psar", func(s config.Signals) bool { return s.PSAR },
		func(in Input) bool {
			return in.Previous.PSAR > in.Previous.Close && in.Latest.PSAR < in.Latest.Close
		},
		func(in Input) bool {
			return in.Previous.PSAR < in.Previous.Close && in.Latest.PSAR > in.Latest.Close
		}},
	{"ma50", func(s config.Signals) bool { return s.MA50 },
		longContext(func(in Input) bool { return in.Latest.Close > in.Latest.SMA50 }),
		longContext(func(in Input) bool { return in.Latest.Close < in.Latest.SMA50 })},
	{"ma200", func(s config.Signals) bool { return s.MA200 },
		longContext(func(in Input) bool { return in.Latest.Close > in.Latest.SMA200 }),
		longContext(func(in Input) bool { return in.Latest.Close < in.Latest.SMA200 })},
	{"ma_cross", func(s config.Signals) bool { return s.MACross },
		longContext(func(in Input) bool {
			return crossUp(in.Previous.SMA50, in.Previous.SMA200, in.Latest.SMA50, in.Latest.SMA200)
		}),
		longContext(func(in Input) bool {
			return crossUp(in.Previous.SMA200, in.Previous.SMA50, in.Latest.SMA200, in.Latest.SMA50)
		})},
}

// crossUp reports a moving from at-or-below b to above b. Any NaN input is
// not a cross.
func crossUp(prevA, prevB, a, b float64) bool {
	return prevA <= prevB && a > b
}

func volumeRising(in Input) bool {
	return in.Latest.Volume > in.Averages.Volume
}

// volatilityExpanding requires ATR above its average and above a minimum
// percentage of price. A zero close is no signal.
func volatilityExpanding(in Input) bool {
	if in.Latest.Close == 0 {
		return false
	}
	pct := in.Latest.ATR / in.Latest.Close * 100
	return in.Latest.ATR > in.Averages.ATR && pct > in.Settings.Thresholds.ATRPct
}

// longContext passes through when the series carries no long SMAs.
func longContext(f func(Input) bool) func(Input) bool {
	return func(in Input) bool {
		if !in.Series.HasLongContext() {
			return true
		}
		return f(in)
	}
}
