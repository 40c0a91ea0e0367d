package indicator

import (
	"math"

	"github.com/evdnx/goti"
)

// RSI is Wilder's relative strength index from goti's RSI calculator. The
// first value is at index p; a NaN close restarts the warm-up.
func RSI(closes []float64, p int) []float64 {
	out := nanSlice(len(closes))
	calc, err := goti.NewRelativeStrengthIndexWithParams(p, goti.DefaultConfig())
	if err != nil {
		return out
	}
	for i, c := range closes {
		if err := calc.Add(c); err != nil {
			calc.Reset()
			continue
		}
		if v, err := calc.Calculate(); err == nil {
			out[i] = v
		}
	}
	return out
}

// CCI is the commodity channel index on the typical price.
func CCI(highs, lows, closes []float64, p int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	tp := typicalPrice(highs, lows, closes)
	mean := sma(tp, p)
	for i := p - 1; i < n; i++ {
		if math.IsNaN(mean[i]) {
			continue
		}
		dev := 0.0
		for j := i - p + 1; j <= i; j++ {
			dev += math.Abs(tp[j] - mean[i])
		}
		dev /= float64(p)
		out[i] = safeDiv(tp[i]-mean[i], 0.015*dev, 0)
	}
	return out
}

// MFI is the money flow index from goti's MFI calculator. Flow direction
// follows the close. The first value is at index p.
func MFI(highs, lows, closes, volumes []float64, p int) []float64 {
	out := nanSlice(len(closes))
	calc, err := goti.NewMoneyFlowIndexWithParams(p, goti.DefaultConfig())
	if err != nil {
		return out
	}
	for i := range closes {
		if err := calc.Add(highs[i], lows[i], closes[i], volumes[i]); err != nil {
			calc.Reset()
			continue
		}
		if v, err := calc.Calculate(); err == nil {
			out[i] = v
		}
	}
	return out
}

// Stochastic returns %K over k bars and %D as the d-bar SMA of %K.
func Stochastic(highs, lows, closes []float64, k, d int) (pctK, pctD []float64) {
	n := len(closes)
	pctK = nanSlice(n)
	for i := k - 1; i < n; i++ {
		hh := rollingMax(highs, k, i)
		ll := rollingMin(lows, k, i)
		pctK[i] = safeDiv(closes[i]-ll, hh-ll, 0.5) * 100
	}
	return pctK, sma(pctK, d)
}

// StochasticRSI applies the stochastic formula to an RSI series and
// smooths it into %K and %D.
func StochasticRSI(closes []float64, rsiPeriod, stochPeriod, k, d int) (pctK, pctD []float64) {
	return stochOfRSI(RSI(closes, rsiPeriod), stochPeriod, k, d)
}

func stochOfRSI(r []float64, stochPeriod, k, d int) (pctK, pctD []float64) {
	n := len(r)
	raw := nanSlice(n)
	start := firstValid(r)
	for i := start + stochPeriod - 1; i < n; i++ {
		hi := rollingMax(r, stochPeriod, i)
		lo := rollingMin(r, stochPeriod, i)
		raw[i] = safeDiv(r[i]-lo, hi-lo, 0.5) * 100
	}
	pctK = sma(raw, k)
	return pctK, sma(pctK, d)
}

func typicalPrice(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		out[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	return out
}
