package indicator

import (
	"math"
	"testing"

	"github.com/evdnx/gospot/config"
	"github.com/evdnx/gospot/types"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

// ramp builds n bars whose close rises by step from start.
func ramp(n int, start, step float64) []types.Bar {
	bars := make([]types.Bar, n)
	for i := range bars {
		c := start + float64(i)*step
		bars[i] = types.Bar{
			OpenTime:  int64(i) * 60_000,
			Open:      c - step/2,
			High:      c + 0.5,
			Low:       c - 0.5,
			Close:     c,
			Volume:    1000,
			CloseTime: int64(i+1)*60_000 - 1,
		}
	}
	return bars
}

func flat(n int, price float64) []types.Bar { return ramp(n, price, 0) }

func TestEMASeededWithSMA(t *testing.T) {
	out := ema([]float64{1, 2, 3, 4, 5}, 3)
	if !math.IsNaN(out[1]) {
		t.Fatalf("expected NaN before warm-up, got %v", out[1])
	}
	if !near(out[2], 2) {
		t.Fatalf("seed should be SMA 2, got %v", out[2])
	}
	if !near(out[3], 3) || !near(out[4], 4) {
		t.Fatalf("unexpected EMA tail: %v", out)
	}
}

func TestSMAPropagatesNaN(t *testing.T) {
	out := sma([]float64{nan, 1, 2, 3}, 2)
	if !math.IsNaN(out[1]) {
		t.Fatalf("window touching NaN must be NaN, got %v", out[1])
	}
	if !near(out[2], 1.5) || !near(out[3], 2.5) {
		t.Fatalf("unexpected SMA: %v", out)
	}
	gap := sma([]float64{1, 2, nan, 3, 4}, 2)
	if !near(gap[1], 1.5) || !math.IsNaN(gap[2]) || !math.IsNaN(gap[3]) || !near(gap[4], 3.5) {
		t.Fatalf("a NaN should restart the window, got %v", gap)
	}
}

func TestRSIExtremes(t *testing.T) {
	up := RSI(closes(ramp(30, 100, 1)), 14)
	if !math.IsNaN(up[13]) {
		t.Fatalf("RSI defined too early: %v", up[13])
	}
	if up[14] != 100 || up[29] != 100 {
		t.Fatalf("rising closes should give RSI 100, got %v / %v", up[14], up[29])
	}
	fl := RSI(closes(flat(30, 100)), 14)
	if fl[20] != 50 {
		t.Fatalf("flat closes should give RSI 50, got %v", fl[20])
	}
	down := RSI(closes(ramp(30, 100, -1)), 14)
	if down[29] != 0 {
		t.Fatalf("falling closes should give RSI 0, got %v", down[29])
	}
}

func TestATRConstantRange(t *testing.T) {
	h, l, c, _ := ohlcv(flat(20, 50))
	out := ATR(h, l, c, 14)
	if !math.IsNaN(out[13]) {
		t.Fatalf("ATR defined before index p")
	}
	if !near(out[14], 1) || !near(out[19], 1) {
		t.Fatalf("expected ATR 1 for a 1-wide range, got %v", out[14:])
	}
}

func TestFlatSeriesNeutralValues(t *testing.T) {
	h, l, c, v := ohlcv(flat(40, 10))
	if cci := CCI(h, l, c, 20); cci[39] != 0 {
		t.Fatalf("flat CCI should be 0, got %v", cci[39])
	}
	if mfi := MFI(h, l, c, v, 14); mfi[39] != 50 {
		t.Fatalf("flat MFI should be 50, got %v", mfi[39])
	}
	k, d := Stochastic(h, l, c, 14, 3)
	if !near(k[39], 50) || !near(d[39], 50) {
		t.Fatalf("close in the middle of a flat range should give 50, got %v / %v", k[39], d[39])
	}
	up, mid, lo := Bollinger(c, 20, 2)
	if up[39] != mid[39] || lo[39] != mid[39] {
		t.Fatalf("flat Bollinger bands should collapse, got %v %v %v", up[39], mid[39], lo[39])
	}
	adx, pdi, mdi := DMI(h, l, c, 14)
	if adx[39] != 0 || pdi[39] != 0 || mdi[39] != 0 {
		t.Fatalf("flat DMI should be zero, got %v %v %v", adx[39], pdi[39], mdi[39])
	}
}

func TestMFIWithoutNegativeFlow(t *testing.T) {
	h, l, c, v := ohlcv(ramp(20, 100, 1))
	if out := MFI(h, l, c, v, 14); out[19] != 100 {
		t.Fatalf("only positive flow should give MFI 100, got %v", out[19])
	}
}

func TestDMIWarmupAndDirection(t *testing.T) {
	h, l, c, _ := ohlcv(ramp(40, 100, 1))
	adx, pdi, mdi := DMI(h, l, c, 14)
	if !math.IsNaN(pdi[13]) || math.IsNaN(pdi[14]) {
		t.Fatalf("DI should start at index 14")
	}
	if !math.IsNaN(adx[26]) || math.IsNaN(adx[27]) {
		t.Fatalf("ADX should start at index 27")
	}
	if pdi[39] <= mdi[39] {
		t.Fatalf("rising market should have +DI above -DI, got %v <= %v", pdi[39], mdi[39])
	}
	if adx[39] < 25 {
		t.Fatalf("steady ramp should be a strong trend, ADX %v", adx[39])
	}
}

func TestMACDWarmup(t *testing.T) {
	line, sig, hist := MACD(closes(ramp(60, 100, 1)), 12, 26, 9)
	if math.IsNaN(line[25]) || !math.IsNaN(line[24]) {
		t.Fatalf("MACD line should start at index 25")
	}
	if !math.IsNaN(sig[32]) || math.IsNaN(sig[33]) {
		t.Fatalf("signal should start at index 33")
	}
	if !near(hist[40], line[40]-sig[40]) {
		t.Fatalf("histogram must be line minus signal")
	}
}

func TestParabolicSAR(t *testing.T) {
	h, l, c, _ := ohlcv(ramp(30, 100, 1))
	out := ParabolicSAR(h, l, c, 0.02, 0.2)
	if !math.IsNaN(out[0]) {
		t.Fatalf("index 0 must be undefined")
	}
	for i := 1; i < len(out); i++ {
		if out[i] > l[i] {
			t.Fatalf("uptrend SAR at %d (%v) should sit below the low %v", i, out[i], l[i])
		}
	}
}

func TestVWAPZeroVolume(t *testing.T) {
	out := VWAP([]float64{11, 12}, []float64{9, 10}, []float64{10, 11}, []float64{0, 0})
	if !near(out[0], 10) || !near(out[1], 11) {
		t.Fatalf("zero volume should fall back to typical price, got %v", out)
	}
}

func TestEngineScalpWarmup(t *testing.T) {
	e := NewEngine(config.Default())
	if e.Warmup() != 33 {
		t.Fatalf("expected warm-up 33 for default periods, got %d", e.Warmup())
	}
	res := e.Compute(ramp(45, 100, 0.5), nil)
	if !res.IsReady() {
		t.Fatalf("expected ready series, got %q", res.Reason())
	}
	s := res.Series()
	if s.Len() != 12 {
		t.Fatalf("expected 12 rows after trimming, got %d", s.Len())
	}
	for _, r := range s.Rows() {
		for _, v := range []float64{r.RSI, r.MACDSignal, r.ADX, r.StochRSID, r.PSAR, r.VWAP} {
			if math.IsNaN(v) {
				t.Fatalf("NaN survived trimming at close %v", r.Close)
			}
		}
	}
	if s.HasLongContext() {
		t.Fatalf("scalp series must not carry long context")
	}
	if !math.IsNaN(s.Latest().SMA200) {
		t.Fatalf("missing long column should read NaN")
	}
}

func TestEngineInsufficientData(t *testing.T) {
	e := NewEngine(config.Default())
	res := e.Compute(ramp(10, 100, 1), nil)
	if res.IsReady() {
		t.Fatalf("10 bars cannot be ready")
	}
	if res.Reason() == "" {
		t.Fatalf("expected a reason")
	}
	// Enough bars for the longest period but not for the full warm-up.
	if res := e.Compute(ramp(30, 100, 1), nil); res.IsReady() {
		t.Fatalf("30 bars leave no rows after warm-up")
	}
}

func TestEngineFlatSeriesIsReady(t *testing.T) {
	res := NewEngine(config.Default()).Compute(flat(45, 100), nil)
	if !res.IsReady() {
		t.Fatalf("flat series should be ready, got %q", res.Reason())
	}
	r := res.Series().Latest()
	if r.RSI != 50 || r.CCI != 0 || !near(r.ATR, 1) {
		t.Fatalf("unexpected flat values: rsi=%v cci=%v atr=%v", r.RSI, r.CCI, r.ATR)
	}
}

func TestEngineLongContext(t *testing.T) {
	s := config.Default()
	s.Family = config.Swing
	e := NewEngine(s)
	long := ramp(200, 1, 1)
	res := e.Compute(long[len(long)-48:], long)
	if !res.IsReady() {
		t.Fatalf("expected ready, got %q", res.Reason())
	}
	ser := res.Series()
	if !ser.HasLongContext() {
		t.Fatalf("expected long context")
	}
	last := ser.Latest()
	if !near(last.SMA200, 100.5) {
		t.Fatalf("SMA200 over 1..200 should be 100.5, got %v", last.SMA200)
	}
	if !near(last.SMA50, 175.5) {
		t.Fatalf("SMA50 over 151..200 should be 175.5, got %v", last.SMA50)
	}
	if last.Close != 200 {
		t.Fatalf("long context misaligned: close %v", last.Close)
	}
}

func TestEngineCatalogSharesEMAs(t *testing.T) {
	s := config.Default()
	s.Periods.EMAFast = 12
	s.Periods.EMASlow = 26
	e := NewEngine(s)
	n := 0
	for _, spec := range e.Catalog() {
		if spec.Kind == KindEMA {
			n++
		}
	}
	if n != 2 {
		t.Fatalf("expected two EMA entries, got %d", n)
	}
	res := e.Compute(ramp(45, 100, 1), nil)
	if !res.IsReady() {
		t.Fatalf("expected ready: %s", res.Reason())
	}
	r := res.Series().Latest()
	if !near(r.MACD, r.EMAFast-r.EMASlow) {
		t.Fatalf("MACD should equal the EMA spread when periods match")
	}
}

func TestEngineColumnsFollowCatalog(t *testing.T) {
	owned := map[Kind][]Name{
		KindRSI:       {RSIName},
		KindCCI:       {CCIName},
		KindMFI:       {MFIName},
		KindStoch:     {StochKName, StochDName},
		KindStochRSI:  {StochRSIKName, StochRSIDName},
		KindEMA:       {EMAFastName, EMASlowName},
		KindMACD:      {MACDName, MACDSignalName, MACDHistName},
		KindDMI:       {ADXName, PlusDIName, MinusDIName},
		KindPSAR:      {PSARName},
		KindATR:       {ATRName},
		KindBollinger: {BBUpperName, BBMiddleName, BBLowerName},
		KindVWAP:      {VWAPName},
	}
	e := NewEngine(config.Default())
	want := make(map[Name]bool)
	for _, spec := range e.Catalog() {
		names, ok := owned[spec.Kind]
		if !ok {
			t.Fatalf("catalog kind %q owns no columns", spec.Kind)
		}
		for _, n := range names {
			want[n] = true
		}
	}
	res := e.Compute(ramp(45, 100, 0.5), nil)
	if !res.IsReady() {
		t.Fatalf("expected ready: %s", res.Reason())
	}
	got := res.Series().Names()
	if len(got) != len(want) {
		t.Fatalf("expected %d columns, got %d: %v", len(want), len(got), got)
	}
	for _, n := range got {
		if !want[n] {
			t.Fatalf("column %q has no catalog entry", n)
		}
	}
}

func TestEngineEqualEMAPeriodsFillBothColumns(t *testing.T) {
	s := config.Default()
	s.Periods.EMAFast = 10
	s.Periods.EMASlow = 10
	e := NewEngine(s)
	n := 0
	for _, spec := range e.Catalog() {
		if spec.Kind == KindEMA {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("equal EMA periods should share one entry, got %d", n)
	}
	res := e.Compute(ramp(45, 100, 1), nil)
	if !res.IsReady() {
		t.Fatalf("expected ready: %s", res.Reason())
	}
	r := res.Series().Latest()
	if math.IsNaN(r.EMAFast) || r.EMAFast != r.EMASlow {
		t.Fatalf("both EMA columns should hold the shared series, got %v / %v", r.EMAFast, r.EMASlow)
	}
}

func TestMFIFollowsCloseDirection(t *testing.T) {
	// The typical price rises while the close falls, so all flow is negative.
	n := 20
	h, l, c, v := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		c[i] = 100 - float64(i)*0.1
		l[i] = c[i] - 1
		h[i] = c[i] + 1 + float64(i)
		v[i] = 500
	}
	if out := MFI(h, l, c, v, 14); out[19] != 0 {
		t.Fatalf("falling closes should give MFI 0, got %v", out[19])
	}
}

func TestSeriesSetRejectsLengthMismatch(t *testing.T) {
	s := NewSeries(flat(3, 1))
	if err := s.Set(RSIName, []float64{1, 2}); err == nil {
		t.Fatalf("expected length error")
	}
	if s.Tail(2).Len() != 2 {
		t.Fatalf("tail should keep 2 rows")
	}
}
