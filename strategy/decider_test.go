package strategy

import (
	"errors"
	"testing"

	"github.com/evdnx/gospot/config"
	"github.com/evdnx/gospot/trend"
	"github.com/evdnx/gospot/types"
)

func flatWindow(n int, price float64) []types.Bar {
	bars := make([]types.Bar, n)
	for i := range bars {
		bars[i] = types.Bar{
			OpenTime:  int64(i) * 60_000,
			Open:      price,
			High:      price + 0.5,
			Low:       price - 0.5,
			Close:     price,
			Volume:    100,
			CloseTime: int64(i+1)*60_000 - 1,
		}
	}
	return bars
}

func TestNewEvaluatorRejectsInvalidSettings(t *testing.T) {
	s := config.Default()
	s.Thresholds.RSIBuy = 80
	_, err := NewEvaluator(s)
	var verr *config.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestNewEvaluatorRejectsWarmupBeyondWindow(t *testing.T) {
	s := config.Default()
	s.Periods.MACDSlow = 40
	if err := s.Validate(); err != nil {
		t.Fatalf("periods fit the window on their own: %v", err)
	}
	_, err := NewEvaluator(s)
	var verr *config.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for a 47-bar warm-up in a 45-bar window, got %v", err)
	}

	s.Periods.MACDSlow = 35
	if _, err := NewEvaluator(s); err != nil {
		t.Fatalf("warm-up of 42 leaves 3 rows and should be accepted: %v", err)
	}
}

func TestEvaluatorNotReadyOnShortWindow(t *testing.T) {
	ev, err := NewEvaluator(config.Default())
	if err != nil {
		t.Fatal(err)
	}
	d := ev.Decide(flatWindow(20, 100), nil)
	if d.Ready || d.Buy || d.Sell {
		t.Fatalf("short window must not be ready: %+v", d)
	}
	if d.Reason == "" {
		t.Fatalf("expected a not-ready reason")
	}
}

func TestEvaluatorFlatWindowHasNoSignal(t *testing.T) {
	ev, err := NewEvaluator(config.Default())
	if err != nil {
		t.Fatal(err)
	}
	bars := flatWindow(45, 100)
	d := ev.Decide(bars, nil)
	if !d.Ready {
		t.Fatalf("expected ready, got %q", d.Reason)
	}
	if d.Buy || d.Sell {
		t.Fatalf("flat window fired a signal")
	}
	if d.Trend != trend.Horizontal {
		t.Fatalf("expected horizontal, got %s", d.Trend)
	}
	if d.Price != 100 || d.Time != bars[44].CloseTime {
		t.Fatalf("decision should describe the latest bar: %+v", d)
	}
	if len(d.BuyFailed) == 0 || d.BuyFailed[0] != "trend" {
		t.Fatalf("expected the trend filter to reject first, got %v", d.BuyFailed)
	}
}

func TestEvaluatorAllSignalsOff(t *testing.T) {
	s := config.Default()
	s.Signals = config.NoSignals()
	ev, err := NewEvaluator(s)
	if err != nil {
		t.Fatal(err)
	}
	d := ev.Decide(flatWindow(45, 100), nil)
	if !d.Buy || !d.Sell {
		t.Fatalf("with no micro-signals enabled both sides pass: %+v", d)
	}
}
