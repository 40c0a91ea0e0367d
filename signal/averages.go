package signal

import (
	"math"

	"github.com/evdnx/gospot/config"
	"github.com/evdnx/gospot/indicator"
)

// Averages holds trailing means used by the divergence and level-vs-average
// predicates.
type Averages struct {
	Close  float64
	Volume float64
	RSI    float64
	CCI    float64
	MFI    float64
	Stoch  float64
	ATR    float64
}

// ComputeAverages takes the mean of the last N rows of each column, with N
// configured per indicator. The latest row is included.
func ComputeAverages(s *indicator.Series, w config.Averages) Averages {
	if s == nil || s.Len() == 0 {
		nan := math.NaN()
		return Averages{nan, nan, nan, nan, nan, nan, nan}
	}
	rows := s.Rows()
	return Averages{
		Close:  tailMean(rows, w.Close, func(r indicator.Row) float64 { return r.Close }),
		Volume: tailMean(rows, w.Volume, func(r indicator.Row) float64 { return r.Volume }),
		RSI:    tailMean(rows, w.RSI, func(r indicator.Row) float64 { return r.RSI }),
		CCI:    tailMean(rows, w.CCI, func(r indicator.Row) float64 { return r.CCI }),
		MFI:    tailMean(rows, w.MFI, func(r indicator.Row) float64 { return r.MFI }),
		Stoch:  tailMean(rows, w.Stoch, func(r indicator.Row) float64 { return r.StochK }),
		ATR:    tailMean(rows, w.ATR, func(r indicator.Row) float64 { return r.ATR }),
	}
}

func tailMean(rows []indicator.Row, n int, get func(indicator.Row) float64) float64 {
	if n <= 0 || n > len(rows) {
		n = len(rows)
	}
	sum := 0.0
	for _, r := range rows[len(rows)-n:] {
		sum += get(r)
	}
	return sum / float64(n)
}
