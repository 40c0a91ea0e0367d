package indicator

import (
	"math"

	"github.com/evdnx/goti"
)

var nan = math.NaN()

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = nan
	}
	return out
}

// firstValid returns the index of the first non-NaN value, or len(v).
func firstValid(v []float64) int {
	for i, x := range v {
		if !math.IsNaN(x) {
			return i
		}
	}
	return len(v)
}

// sma is a simple moving average. Any window touching a NaN yields NaN.
func sma(v []float64, p int) []float64 { return rolling(goti.SMAMovingAverage, v, p) }

// ema is an exponential moving average seeded with the SMA of the first p
// valid values. Leading NaNs are skipped.
func ema(v []float64, p int) []float64 { return rolling(goti.EMAMovingAverage, v, p) }

// rolling feeds v through a goti moving average. A NaN restarts the average.
func rolling(kind goti.MovingAverageType, v []float64, p int) []float64 {
	out := nanSlice(len(v))
	ma, err := goti.NewMovingAverage(kind, p)
	if err != nil {
		return out
	}
	for i, x := range v {
		if err := ma.AddValue(x); err != nil {
			ma.Reset()
			continue
		}
		if val, err := ma.Calculate(); err == nil {
			out[i] = val
		}
	}
	return out
}

// stddev is the rolling population standard deviation.
func stddev(v []float64, p int) []float64 {
	out := nanSlice(len(v))
	mean := sma(v, p)
	for i := p - 1; i < len(v); i++ {
		if math.IsNaN(mean[i]) {
			continue
		}
		acc := 0.0
		for j := i - p + 1; j <= i; j++ {
			d := v[j] - mean[i]
			acc += d * d
		}
		out[i] = math.Sqrt(acc / float64(p))
	}
	return out
}

func rollingMax(v []float64, p, i int) float64 {
	m := math.Inf(-1)
	for j := i - p + 1; j <= i; j++ {
		m = math.Max(m, v[j])
	}
	return m
}

func rollingMin(v []float64, p, i int) float64 {
	m := math.Inf(1)
	for j := i - p + 1; j <= i; j++ {
		m = math.Min(m, v[j])
	}
	return m
}

// safeDiv returns fallback when the denominator is zero or the result is
// not finite.
func safeDiv(num, den, fallback float64) float64 {
	if den == 0 {
		return fallback
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return fallback
	}
	return r
}
