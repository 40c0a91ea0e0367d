package indicator

import (
	"fmt"
	"math"
	"sort"

	"github.com/evdnx/gospot/config"
	"github.com/evdnx/gospot/types"
)

// Kind is an indicator family in the engine catalog.
type Kind string

const (
	KindRSI       Kind = "rsi"
	KindCCI       Kind = "cci"
	KindMFI       Kind = "mfi"
	KindStoch     Kind = "stoch"
	KindStochRSI  Kind = "stoch_rsi"
	KindEMA       Kind = "ema"
	KindMACD      Kind = "macd"
	KindDMI       Kind = "dmi"
	KindPSAR      Kind = "psar"
	KindATR       Kind = "atr"
	KindBollinger Kind = "bollinger"
	KindVWAP      Kind = "vwap"
)

// Key addresses one computation in the catalog.
type Key struct {
	Kind   Kind
	Period int
}

// Spec describes a catalog entry. Warmup is the index of the first defined
// value for a window of sufficient length.
type Spec struct {
	Key
	Warmup int
}

// Result is the outcome of Compute: either a ready series or the reason it
// is not ready yet.
type Result struct {
	series *Series
	reason string
}

func Ready(s *Series) Result        { return Result{series: s} }
func NotReady(reason string) Result { return Result{reason: reason} }
func (r Result) IsReady() bool      { return r.series != nil }
func (r Result) Series() *Series    { return r.series }
func (r Result) Reason() string     { return r.reason }

// Engine turns a bar window into an enriched, warm-up trimmed Series.
type Engine struct {
	settings config.StrategySettings
	catalog  map[Key]Spec
	warmup   int
}

// NewEngine builds the (kind, period) catalog once for the given settings.
func NewEngine(s config.StrategySettings) *Engine {
	p := s.Periods
	e := &Engine{settings: s, catalog: make(map[Key]Spec)}
	add := func(k Kind, period, warmup int) {
		e.catalog[Key{k, period}] = Spec{Key: Key{k, period}, Warmup: warmup}
		if warmup > e.warmup {
			e.warmup = warmup
		}
	}
	add(KindRSI, p.RSI, p.RSI)
	add(KindCCI, p.CCI, p.CCI-1)
	add(KindMFI, p.MFI, p.MFI)
	add(KindStoch, p.StochK, p.StochK-1+p.StochD-1)
	add(KindStochRSI, p.StochRSI, p.RSI+p.StochRSI-1+p.StochRSIK-1+p.StochRSID-1)
	add(KindEMA, p.EMAFast, p.EMAFast-1)
	add(KindEMA, p.EMASlow, p.EMASlow-1)
	add(KindMACD, p.MACDSlow, p.MACDSlow-1+p.MACDSignal-1)
	add(KindDMI, p.ADX, 2*p.ADX-1)
	add(KindPSAR, 0, 1)
	add(KindATR, p.ATR, p.ATR)
	add(KindBollinger, p.Bollinger, p.Bollinger-1)
	add(KindVWAP, 0, 0)
	return e
}

// Catalog lists the computations in a stable order.
func (e *Engine) Catalog() []Spec {
	out := make([]Spec, 0, len(e.catalog))
	for _, s := range e.catalog {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Period < out[j].Period
	})
	return out
}

// MaxPeriod is the longest configured window period.
func (e *Engine) MaxPeriod() int { return e.settings.MaxPeriod() }

// Warmup is the number of leading rows lost to warm-up trimming.
func (e *Engine) Warmup() int { return e.warmup }

// Compute enriches bars with one column group per catalog entry and trims
// warm-up rows. longBars optionally supplies a longer history for the
// SMA-50/SMA-200 columns. A window that is too short is reported as NotReady.
func (e *Engine) Compute(bars, longBars []types.Bar) Result {
	if need := e.MaxPeriod() + 1; len(bars) < need {
		return NotReady(fmt.Sprintf("insufficient data: need %d bars, have %d", need, len(bars)))
	}
	w := newWorkspace(bars, e.settings.Periods)
	s := NewSeries(bars)
	for _, spec := range e.Catalog() {
		w.fill(s, spec.Key)
	}

	trimmed := s.Trim()
	if trimmed.Len() < 2 {
		return NotReady(fmt.Sprintf("insufficient data: %d rows after warm-up", trimmed.Len()))
	}
	e.attachLongContext(trimmed, longBars)
	return Ready(trimmed)
}

// workspace holds the price columns of one window and the intermediate
// results shared between catalog entries.
type workspace struct {
	p          config.Periods
	h, l, c, v []float64
	emas       map[int][]float64
	rsi        []float64
}

func newWorkspace(bars []types.Bar, p config.Periods) *workspace {
	w := &workspace{p: p, emas: make(map[int][]float64)}
	w.h, w.l, w.c, w.v = ohlcv(bars)
	return w
}

func (w *workspace) ema(period int) []float64 {
	if out, ok := w.emas[period]; ok {
		return out
	}
	out := ema(w.c, period)
	w.emas[period] = out
	return out
}

func (w *workspace) rsiCol() []float64 {
	if w.rsi == nil {
		w.rsi = RSI(w.c, w.p.RSI)
	}
	return w.rsi
}

// fill computes the columns owned by one catalog key.
func (w *workspace) fill(s *Series, k Key) {
	p := w.p
	switch k.Kind {
	case KindRSI:
		s.cols[RSIName] = w.rsiCol()
	case KindCCI:
		s.cols[CCIName] = CCI(w.h, w.l, w.c, k.Period)
	case KindMFI:
		s.cols[MFIName] = MFI(w.h, w.l, w.c, w.v, k.Period)
	case KindStoch:
		s.cols[StochKName], s.cols[StochDName] = Stochastic(w.h, w.l, w.c, k.Period, p.StochD)
	case KindStochRSI:
		s.cols[StochRSIKName], s.cols[StochRSIDName] = stochOfRSI(w.rsiCol(), k.Period, p.StochRSIK, p.StochRSID)
	case KindEMA:
		// Fast and slow share one entry when their periods are equal.
		if k.Period == p.EMAFast {
			s.cols[EMAFastName] = w.ema(k.Period)
		}
		if k.Period == p.EMASlow {
			s.cols[EMASlowName] = w.ema(k.Period)
		}
	case KindMACD:
		s.cols[MACDName], s.cols[MACDSignalName], s.cols[MACDHistName] = macdOf(w.ema(p.MACDFast), w.ema(k.Period), p.MACDSignal)
	case KindDMI:
		s.cols[ADXName], s.cols[PlusDIName], s.cols[MinusDIName] = DMI(w.h, w.l, w.c, k.Period)
	case KindPSAR:
		s.cols[PSARName] = ParabolicSAR(w.h, w.l, w.c, p.PSARStep, p.PSARMax)
	case KindATR:
		s.cols[ATRName] = ATR(w.h, w.l, w.c, k.Period)
	case KindBollinger:
		s.cols[BBUpperName], s.cols[BBMiddleName], s.cols[BBLowerName] = Bollinger(w.c, k.Period, p.BollingerStdDev)
	case KindVWAP:
		s.cols[VWAPName] = VWAP(w.h, w.l, w.c, w.v)
	}
}

// attachLongContext computes the long SMAs on the secondary series and
// aligns its tail with the trimmed primary rows. The series is marked as
// having long context only when the latest long SMA is defined.
func (e *Engine) attachLongContext(s *Series, longBars []types.Bar) {
	if len(longBars) == 0 {
		return
	}
	p := e.settings.Periods
	lc := closes(longBars)
	short := sma(lc, p.SMAShort)
	long := sma(lc, p.SMALong)
	n := s.Len()
	if len(lc) < n {
		return
	}
	s.cols[SMA50Name] = short[len(short)-n:]
	s.cols[SMA200Name] = long[len(long)-n:]
	s.long = !math.IsNaN(long[len(long)-1]) && !math.IsNaN(short[len(short)-1])
}
