package indicator

import "math"

// MACD returns the MACD line, its signal line and the histogram.
func MACD(closes []float64, fast, slow, signal int) (line, sig, hist []float64) {
	return macdOf(ema(closes, fast), ema(closes, slow), signal)
}

// macdOf builds MACD from precomputed fast and slow EMAs. The signal line is
// an EMA over the defined part of the MACD line.
func macdOf(f, s []float64, signal int) (line, sig, hist []float64) {
	n := len(f)
	line = nanSlice(n)
	for i := range f {
		if !math.IsNaN(f[i]) && !math.IsNaN(s[i]) {
			line[i] = f[i] - s[i]
		}
	}
	sig = ema(line, signal)
	hist = nanSlice(n)
	for i := range f {
		if !math.IsNaN(sig[i]) {
			hist[i] = line[i] - sig[i]
		}
	}
	return line, sig, hist
}

// DMI returns Wilder's ADX together with the +DI and −DI lines. DI values
// start at index p and ADX at index 2p−1.
func DMI(highs, lows, closes []float64, p int) (adx, plusDI, minusDI []float64) {
	n := len(closes)
	adx, plusDI, minusDI = nanSlice(n), nanSlice(n), nanSlice(n)
	if p <= 0 || n <= p {
		return adx, plusDI, minusDI
	}
	tr := trueRange(highs, lows, closes)
	pdm := make([]float64, n)
	mdm := make([]float64, n)
	for i := 1; i < n; i++ {
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		if up > down && up > 0 {
			pdm[i] = up
		}
		if down > up && down > 0 {
			mdm[i] = down
		}
	}

	var sTR, sP, sM float64
	for i := 1; i <= p; i++ {
		sTR += tr[i]
		sP += pdm[i]
		sM += mdm[i]
	}
	dx := nanSlice(n)
	for i := p; i < n; i++ {
		if i > p {
			sTR = sTR - sTR/float64(p) + tr[i]
			sP = sP - sP/float64(p) + pdm[i]
			sM = sM - sM/float64(p) + mdm[i]
		}
		plusDI[i] = 100 * safeDiv(sP, sTR, 0)
		minusDI[i] = 100 * safeDiv(sM, sTR, 0)
		dx[i] = 100 * safeDiv(math.Abs(plusDI[i]-minusDI[i]), plusDI[i]+minusDI[i], 0)
	}

	first := 2*p - 1
	if first >= n {
		return adx, plusDI, minusDI
	}
	sum := 0.0
	for i := p; i <= first; i++ {
		sum += dx[i]
	}
	adx[first] = sum / float64(p)
	for i := first + 1; i < n; i++ {
		adx[i] = (adx[i-1]*float64(p-1) + dx[i]) / float64(p)
	}
	return adx, plusDI, minusDI
}

// ParabolicSAR is Wilder's stop-and-reverse. Index 0 is undefined.
func ParabolicSAR(highs, lows, closes []float64, step, maxAF float64) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if n < 2 {
		return out
	}
	up := closes[1] >= closes[0]
	af := step
	var sar, ep float64
	if up {
		sar = lows[0]
		ep = math.Max(highs[0], highs[1])
	} else {
		sar = highs[0]
		ep = math.Min(lows[0], lows[1])
	}
	out[1] = sar
	for i := 2; i < n; i++ {
		sar += af * (ep - sar)
		if up {
			sar = math.Min(sar, math.Min(lows[i-1], lows[i-2]))
			switch {
			case lows[i] < sar:
				up = false
				sar, ep, af = ep, lows[i], step
			case highs[i] > ep:
				ep = highs[i]
				af = math.Min(af+step, maxAF)
			}
		} else {
			sar = math.Max(sar, math.Max(highs[i-1], highs[i-2]))
			switch {
			case highs[i] > sar:
				up = true
				sar, ep, af = ep, highs[i], step
			case lows[i] < ep:
				ep = lows[i]
				af = math.Min(af+step, maxAF)
			}
		}
		out[i] = sar
	}
	return out
}
