package indicator

import (
	"fmt"
	"math"

	"github.com/evdnx/gospot/types"
)

// Name identifies an indicator column.
type Name string

const (
	RSIName        Name = "rsi"
	CCIName        Name = "cci"
	MFIName        Name = "mfi"
	StochKName     Name = "stoch_k"
	StochDName     Name = "stoch_d"
	StochRSIKName  Name = "stoch_rsi_k"
	StochRSIDName  Name = "stoch_rsi_d"
	EMAFastName    Name = "ema_fast"
	EMASlowName    Name = "ema_slow"
	SMA50Name      Name = "sma_50"
	SMA200Name     Name = "sma_200"
	MACDName       Name = "macd"
	MACDSignalName Name = "macd_signal"
	MACDHistName   Name = "macd_hist"
	ADXName        Name = "adx"
	PlusDIName     Name = "plus_di"
	MinusDIName    Name = "minus_di"
	PSARName       Name = "psar"
	ATRName        Name = "atr"
	BBUpperName    Name = "bb_upper"
	BBMiddleName   Name = "bb_middle"
	BBLowerName    Name = "bb_lower"
	VWAPName       Name = "vwap"
)

// longContext columns come from the secondary bar series and do not take
// part in warm-up trimming.
var longContext = map[Name]bool{SMA50Name: true, SMA200Name: true}

// Series is a bar window enriched with indicator columns. Every column has
// exactly one value per bar.
type Series struct {
	bars []types.Bar
	cols map[Name][]float64
	long bool
}

// NewSeries wraps bars with no indicator columns.
func NewSeries(bars []types.Bar) *Series {
	return &Series{bars: bars, cols: make(map[Name][]float64)}
}

// Set attaches a column. Its length must match the bar count.
func (s *Series) Set(name Name, vals []float64) error {
	if len(vals) != len(s.bars) {
		return fmt.Errorf("indicator %s: %d values for %d bars", name, len(vals), len(s.bars))
	}
	s.cols[name] = vals
	return nil
}

func (s *Series) Len() int             { return len(s.bars) }
func (s *Series) Bars() []types.Bar    { return s.bars }
func (s *Series) HasLongContext() bool { return s.long }

// Column returns a column by name.
func (s *Series) Column(name Name) ([]float64, bool) {
	v, ok := s.cols[name]
	return v, ok
}

// Names lists the attached columns.
func (s *Series) Names() []Name {
	out := make([]Name, 0, len(s.cols))
	for n := range s.cols {
		out = append(out, n)
	}
	return out
}

// Row is one enriched bar. Columns that are not attached read as NaN.
type Row struct {
	types.Bar
	RSI, CCI, MFI              float64
	StochK, StochD             float64
	StochRSIK, StochRSID       float64
	EMAFast, EMASlow           float64
	SMA50, SMA200              float64
	MACD, MACDSignal, MACDHist float64
	ADX, PlusDI, MinusDI       float64
	PSAR, ATR                  float64
	BBUpper, BBMiddle, BBLower float64
	VWAP                       float64
}

// Row materialises the i-th row.
func (s *Series) Row(i int) Row {
	get := func(n Name) float64 {
		if c, ok := s.cols[n]; ok {
			return c[i]
		}
		return math.NaN()
	}
	return Row{
		Bar:        s.bars[i],
		RSI:        get(RSIName),
		CCI:        get(CCIName),
		MFI:        get(MFIName),
		StochK:     get(StochKName),
		StochD:     get(StochDName),
		StochRSIK:  get(StochRSIKName),
		StochRSID:  get(StochRSIDName),
		EMAFast:    get(EMAFastName),
		EMASlow:    get(EMASlowName),
		SMA50:      get(SMA50Name),
		SMA200:     get(SMA200Name),
		MACD:       get(MACDName),
		MACDSignal: get(MACDSignalName),
		MACDHist:   get(MACDHistName),
		ADX:        get(ADXName),
		PlusDI:     get(PlusDIName),
		MinusDI:    get(MinusDIName),
		PSAR:       get(PSARName),
		ATR:        get(ATRName),
		BBUpper:    get(BBUpperName),
		BBMiddle:   get(BBMiddleName),
		BBLower:    get(BBLowerName),
		VWAP:       get(VWAPName),
	}
}

// Rows materialises every row.
func (s *Series) Rows() []Row {
	out := make([]Row, s.Len())
	for i := range out {
		out[i] = s.Row(i)
	}
	return out
}

// Latest and Previous return the last two rows. Callers must check Len.
func (s *Series) Latest() Row   { return s.Row(s.Len() - 1) }
func (s *Series) Previous() Row { return s.Row(s.Len() - 2) }

// Trim drops every row holding a NaN in any window column. Long-context
// columns are ignored.
func (s *Series) Trim() *Series {
	keep := make([]int, 0, s.Len())
	for i := range s.bars {
		ok := true
		for n, c := range s.cols {
			if longContext[n] {
				continue
			}
			if math.IsNaN(c[i]) || math.IsInf(c[i], 0) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}
	return s.pick(keep)
}

// Tail keeps the last n rows.
func (s *Series) Tail(n int) *Series {
	if n >= s.Len() {
		return s
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = s.Len() - n + i
	}
	return s.pick(idx)
}

func (s *Series) pick(idx []int) *Series {
	out := &Series{
		bars: make([]types.Bar, len(idx)),
		cols: make(map[Name][]float64, len(s.cols)),
		long: s.long,
	}
	for j, i := range idx {
		out.bars[j] = s.bars[i]
	}
	for n, c := range s.cols {
		v := make([]float64, len(idx))
		for j, i := range idx {
			v[j] = c[i]
		}
		out.cols[n] = v
	}
	return out
}

func closes(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func ohlcv(bars []types.Bar) (highs, lows, cls, vols []float64) {
	n := len(bars)
	highs, lows, cls, vols = make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for i, b := range bars {
		highs[i], lows[i], cls[i], vols[i] = b.High, b.Low, b.Close, b.Volume
	}
	return highs, lows, cls, vols
}
