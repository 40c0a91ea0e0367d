package indicator

import "math"

func trueRange(highs, lows, closes []float64) []float64 {
	tr := make([]float64, len(closes))
	for i := range closes {
		hl := highs[i] - lows[i]
		if i == 0 {
			tr[i] = math.Max(hl, 0)
			continue
		}
		tr[i] = math.Max(hl, math.Max(
			math.Abs(highs[i]-closes[i-1]),
			math.Abs(lows[i]-closes[i-1]),
		))
	}
	return tr
}

// ATR is Wilder's average true range, seeded with the mean of TR[1..p]
// at index p.
func ATR(highs, lows, closes []float64, p int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if p <= 0 || n <= p {
		return out
	}
	tr := trueRange(highs, lows, closes)
	sum := 0.0
	for i := 1; i <= p; i++ {
		sum += tr[i]
	}
	out[p] = sum / float64(p)
	for i := p + 1; i < n; i++ {
		out[i] = (out[i-1]*float64(p-1) + tr[i]) / float64(p)
	}
	return out
}

// Bollinger returns the upper, middle and lower bands.
func Bollinger(closes []float64, p int, k float64) (upper, middle, lower []float64) {
	n := len(closes)
	middle = sma(closes, p)
	sd := stddev(closes, p)
	upper, lower = nanSlice(n), nanSlice(n)
	for i := range closes {
		if math.IsNaN(middle[i]) || math.IsNaN(sd[i]) {
			continue
		}
		upper[i] = middle[i] + k*sd[i]
		lower[i] = middle[i] - k*sd[i]
	}
	return upper, middle, lower
}

// VWAP is the volume-weighted typical price accumulated from the start of
// the supplied window. It is never reset inside the window.
func VWAP(highs, lows, closes, volumes []float64) []float64 {
	out := make([]float64, len(closes))
	tp := typicalPrice(highs, lows, closes)
	var pv, vol float64
	for i := range closes {
		pv += tp[i] * volumes[i]
		vol += volumes[i]
		out[i] = safeDiv(pv, vol, tp[i])
	}
	return out
}
