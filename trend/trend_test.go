package trend

import (
	"math"
	"testing"

	"github.com/evdnx/gospot/config"
	"github.com/evdnx/gospot/indicator"
	"github.com/evdnx/gospot/types"
)

func row(adx, plus, minus, rsi, rng, atr float64) indicator.Row {
	return indicator.Row{
		Bar:     types.Bar{High: 100 + rng/2, Low: 100 - rng/2, Close: 100},
		ADX:     adx,
		PlusDI:  plus,
		MinusDI: minus,
		RSI:     rsi,
		ATR:     atr,
	}
}

func window(latest indicator.Row, prior ...indicator.Row) []indicator.Row {
	return append(prior, latest)
}

func TestClassifyUptrend(t *testing.T) {
	th := config.Default().Thresholds
	latest := row(40, 35, 10, 60, 3, 1)
	w := window(latest, row(30, 22, 18, 55, 1, 1), row(32, 24, 17, 55, 1, 1))
	if got := Classify(latest, w, th); got != Uptrend {
		t.Fatalf("expected uptrend, got %s", got)
	}
}

func TestClassifyDowntrend(t *testing.T) {
	th := config.Default().Thresholds
	latest := row(40, 10, 35, 40, 3, 1)
	w := window(latest, row(30, 18, 22, 45, 1, 1), row(32, 17, 24, 45, 1, 1))
	if got := Classify(latest, w, th); got != Downtrend {
		t.Fatalf("expected downtrend, got %s", got)
	}
}

func TestClassifyUptrendNeedsRoomBelowSellThreshold(t *testing.T) {
	th := config.Default().Thresholds
	latest := row(40, 35, 10, 75, 3, 1)
	w := window(latest, row(30, 22, 18, 55, 1, 1))
	if got := Classify(latest, w, th); got == Uptrend {
		t.Fatalf("overbought RSI must not classify as uptrend")
	}
}

func TestClassifyHorizontalOnFadingADX(t *testing.T) {
	th := config.Default().Thresholds
	latest := row(15, 20, 18, 50, 0.5, 1)
	w := window(latest, row(22, 20, 18, 50, 1, 1), row(21, 20, 18, 50, 1, 1))
	if got := Classify(latest, w, th); got != Horizontal {
		t.Fatalf("expected horizontal, got %s", got)
	}
}

func TestClassifyNoneWithoutSignificantMove(t *testing.T) {
	th := config.Default().Thresholds
	// ADX rising and DI spread wide, but the bar range is below ATR.
	latest := row(40, 35, 10, 60, 0.5, 1)
	w := window(latest, row(30, 22, 18, 55, 1, 1), row(32, 24, 17, 55, 1, 1))
	if got := Classify(latest, w, th); got != None {
		t.Fatalf("expected none, got %s", got)
	}
}

func TestClassifyNaNIsNone(t *testing.T) {
	th := config.Default().Thresholds
	latest := row(math.NaN(), 35, 10, 60, 3, 1)
	if got := Classify(latest, window(latest), th); got != None {
		t.Fatalf("NaN input should give none, got %s", got)
	}
	if got := Classify(row(40, 35, 10, 60, 3, 1), nil, th); got != None {
		t.Fatalf("empty window should give none, got %s", got)
	}
}

func TestClassifySeriesFlatIsHorizontal(t *testing.T) {
	settings := config.Default()
	bars := make([]types.Bar, 120)
	for i := range bars {
		bars[i] = types.Bar{OpenTime: int64(i), High: 100.5, Low: 99.5, Open: 100, Close: 100, Volume: 10}
	}
	e := indicator.NewEngine(settings)
	w := settings.Family.WindowSize()
	for i := w; i <= len(bars); i++ {
		res := e.Compute(bars[i-w:i], nil)
		if !res.IsReady() {
			t.Fatalf("window ending %d not ready: %s", i, res.Reason())
		}
		if got := ClassifySeries(res.Series(), settings); got != Horizontal {
			t.Fatalf("flat market at %d classified as %s", i, got)
		}
	}
}

func TestTrendString(t *testing.T) {
	for tr, want := range map[Trend]string{None: "none", Uptrend: "uptrend", Downtrend: "downtrend", Horizontal: "horizontal"} {
		if tr.String() != want {
			t.Fatalf("%d: expected %q, got %q", tr, want, tr.String())
		}
	}
}
