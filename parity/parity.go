// Package parity audits the batch indicator engine against goti's streaming
// calculators, the ones a bar-by-bar live feed would use.
package parity

import (
	"fmt"
	"math"

	"github.com/evdnx/goti"

	"github.com/evdnx/gospot/config"
	"github.com/evdnx/gospot/indicator"
	"github.com/evdnx/gospot/types"
)

// Row is one bar's comparison. Diff and Match are meaningful only when both
// values are finite.
type Row struct {
	OpenTime int64   `json:"open_time"`
	Batch    float64 `json:"batch"`
	Stream   float64 `json:"stream"`
	Diff     float64 `json:"diff"`
	Match    bool    `json:"match"`
}

// Report summarises one indicator.
type Report struct {
	Indicator  string  `json:"indicator"`
	Period     int     `json:"period"`
	Tolerance  float64 `json:"tolerance"`
	Compared   int     `json:"compared"`
	Mismatches int     `json:"mismatches"`
	MaxDiff    float64 `json:"max_diff"`
	Rows       []Row   `json:"rows,omitempty"`
}

// OK reports whether at least one bar was compared and all matched.
func (r Report) OK() bool { return r.Compared > 0 && r.Mismatches == 0 }

// Compare computes RSI and MFI both ways over bars.
func Compare(bars []types.Bar, settings config.StrategySettings, tol float64) ([]Report, error) {
	rsi, mfi, err := Stream(bars, settings.Periods, settings.Thresholds)
	if err != nil {
		return nil, err
	}
	n := len(bars)
	times := make([]int64, n)
	h, l, c, v := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for i, b := range bars {
		times[i] = b.OpenTime
		h[i], l[i], c[i], v[i] = b.High, b.Low, b.Close, b.Volume
	}
	p := settings.Periods
	return []Report{
		Diff("rsi", p.RSI, times, indicator.RSI(c, p.RSI), rsi, tol),
		Diff("mfi", p.MFI, times, indicator.MFI(h, l, c, v, p.MFI), mfi, tol),
	}, nil
}

// Stream replays bars through goti RSI and MFI calculators built with the
// configured periods and collects their values after each bar. A value is
// NaN while a calculator cannot produce it.
func Stream(bars []types.Bar, p config.Periods, th config.Thresholds) (rsi, mfi []float64, err error) {
	ic := goti.DefaultConfig()
	ic.RSIOverbought = th.RSISell
	ic.RSIOversold = th.RSIBuy
	ic.MFIOverbought = th.MFISell
	ic.MFIOversold = th.MFIBuy
	rsiCalc, err := goti.NewRelativeStrengthIndexWithParams(p.RSI, ic)
	if err != nil {
		return nil, nil, fmt.Errorf("goti rsi(%d): %w", p.RSI, err)
	}
	mfiCalc, err := goti.NewMoneyFlowIndexWithParams(p.MFI, ic)
	if err != nil {
		return nil, nil, fmt.Errorf("goti mfi(%d): %w", p.MFI, err)
	}

	rsi = make([]float64, len(bars))
	mfi = make([]float64, len(bars))
	for i, b := range bars {
		rsi[i], mfi[i] = math.NaN(), math.NaN()
		if rsiCalc.Add(b.Close) == nil {
			if v, err := rsiCalc.Calculate(); err == nil {
				rsi[i] = v
			}
		}
		if mfiCalc.Add(b.High, b.Low, b.Close, b.Volume) == nil {
			if v, err := mfiCalc.Calculate(); err == nil {
				mfi[i] = v
			}
		}
	}
	return rsi, mfi, nil
}

// Diff compares two aligned series. Bars where either side is NaN are
// listed but not compared.
func Diff(name string, period int, times []int64, batch, stream []float64, tol float64) Report {
	r := Report{Indicator: name, Period: period, Tolerance: tol}
	n := min(len(times), len(batch), len(stream))
	r.Rows = make([]Row, n)
	for i := 0; i < n; i++ {
		row := Row{OpenTime: times[i], Batch: batch[i], Stream: stream[i]}
		if !math.IsNaN(row.Batch) && !math.IsNaN(row.Stream) {
			row.Diff = math.Abs(row.Batch - row.Stream)
			row.Match = row.Diff <= tol
			r.Compared++
			if !row.Match {
				r.Mismatches++
			}
			r.MaxDiff = math.Max(r.MaxDiff, row.Diff)
		}
		r.Rows[i] = row
	}
	return r
}
