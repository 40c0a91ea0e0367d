package position

import (
	"math"
	"testing"

	"github.com/evdnx/gospot/config"
	"github.com/evdnx/gospot/types"
)

func defaultRisk() config.Risk { return config.Default().Risk }

func openAt(t *testing.T, price float64, r config.Risk) Position {
	t.Helper()
	tr := Apply(Flat("BTCUSDT"), Input{Buy: true, Price: price, ATR: 2, Time: 1}, r)
	if tr.Action != Opened {
		t.Fatalf("expected open, got %s", tr.Action)
	}
	return tr.Position
}

func TestFlatHoldsWithoutBuy(t *testing.T) {
	tr := Apply(Flat("BTCUSDT"), Input{Sell: true, Price: 100}, defaultRisk())
	if tr.Action != Hold || tr.Position.Active {
		t.Fatalf("flat position should hold, got %s", tr.Action)
	}
}

func TestOpenSetsInitialStop(t *testing.T) {
	pos := openAt(t, 100, defaultRisk())
	if pos.EntryPrice != 100 || pos.CurrentPrice != 100 || pos.PreviousPrice != 100 {
		t.Fatalf("unexpected prices %+v", pos)
	}
	if math.Abs(pos.TrailingStop-98) > 1e-9 {
		t.Fatalf("expected stop 98, got %v", pos.TrailingStop)
	}
	if pos.TakeProfit != 0 {
		t.Fatalf("take-profit disabled by default, got %v", pos.TakeProfit)
	}
}

func TestRatchetNeverMovesDown(t *testing.T) {
	r := defaultRisk()
	pos := openAt(t, 100, r)
	prices := []float64{101, 103, 102.5, 104, 104, 106, 105.5, 108}
	last := pos.TrailingStop
	for _, p := range prices {
		tr := Apply(pos, Input{Price: p}, r)
		if tr.Action == Closed {
			t.Fatalf("unexpected close at %v", p)
		}
		if tr.Position.TrailingStop < last {
			t.Fatalf("stop moved down from %v to %v at price %v", last, tr.Position.TrailingStop, p)
		}
		last = tr.Position.TrailingStop
		pos = tr.Position
	}
	if math.Abs(last-108*0.98) > 1e-9 {
		t.Fatalf("expected stop to follow the high to %v, got %v", 108*0.98, last)
	}
}

func TestRatchetOnlyOnRisingPrice(t *testing.T) {
	r := defaultRisk()
	pos := openAt(t, 100, r)
	pos = Apply(pos, Input{Price: 110}, r).Position
	tr := Apply(pos, Input{Price: 109}, r)
	if tr.Action != Hold {
		t.Fatalf("falling price should hold, got %s", tr.Action)
	}
	if tr.Position.PreviousPrice != 110 || tr.Position.CurrentPrice != 109 {
		t.Fatalf("prices not tracked: %+v", tr.Position)
	}
}

func TestATRTrailingRuleIsFloored(t *testing.T) {
	r := defaultRisk()
	r.TrailingMode = config.ModeATR
	r.TrailingATRMultiplier = 2
	pos := openAt(t, 100, r)

	// 2 × ATR 0.5 = 1 below price: tighter than the 3% floor.
	tr := Apply(pos, Input{Price: 110, ATR: 0.5}, r)
	if math.Abs(tr.Position.TrailingStop-109) > 1e-9 {
		t.Fatalf("expected ATR stop 109, got %v", tr.Position.TrailingStop)
	}
	// 2 × ATR 10 = 20 below price, the floor at 3% wins.
	tr = Apply(tr.Position, Input{Price: 120, ATR: 10}, r)
	if math.Abs(tr.Position.TrailingStop-120*0.97) > 1e-9 {
		t.Fatalf("expected floored stop %v, got %v", 120*0.97, tr.Position.TrailingStop)
	}
}

func TestGapDownExitsAtGappedPrice(t *testing.T) {
	r := defaultRisk()
	pos := openAt(t, 100, r)
	pos = Apply(pos, Input{Price: 110}, r).Position
	pos.Amount = 2

	gap := 110 * 0.95
	tr := Apply(pos, Input{Price: gap, Time: 9}, r)
	if tr.Action != Closed || tr.Trade == nil {
		t.Fatalf("expected close, got %s", tr.Action)
	}
	if tr.Trade.Reason != types.ExitStopLoss {
		t.Fatalf("expected stop-loss, got %s", tr.Trade.Reason)
	}
	if tr.Trade.ExitPrice != gap {
		t.Fatalf("exit should fill at the gapped price %v, got %v", gap, tr.Trade.ExitPrice)
	}
	if tr.Trade.Amount != 2 || tr.Trade.ExitTime != 9 || tr.Trade.EntryTime != 1 {
		t.Fatalf("unexpected trade record %+v", tr.Trade)
	}
	if tr.Position.Active || tr.Position.TrailingStop != 0 || tr.Position.EntryPrice != 0 {
		t.Fatalf("closed position should be reset, got %+v", tr.Position)
	}
}

func TestStopTakesPrecedenceOverSell(t *testing.T) {
	r := defaultRisk()
	pos := openAt(t, 100, r)
	tr := Apply(pos, Input{Price: 90, Sell: true}, r)
	if tr.Trade.Reason != types.ExitStopLoss {
		t.Fatalf("stop should be checked before the sell signal, got %s", tr.Trade.Reason)
	}
}

func TestTakeProfit(t *testing.T) {
	r := defaultRisk()
	r.TakeProfitEnabled = true
	pos := openAt(t, 100, r)
	if math.Abs(pos.TakeProfit-105) > 1e-9 {
		t.Fatalf("expected take-profit 105, got %v", pos.TakeProfit)
	}
	tr := Apply(pos, Input{Price: 106}, r)
	if tr.Action != Closed || tr.Trade.Reason != types.ExitTakeProfit {
		t.Fatalf("expected take-profit exit, got %s", tr.Action)
	}
	if math.Abs(tr.Trade.PnLPct-6) > 1e-9 {
		t.Fatalf("expected 6%% gain, got %v", tr.Trade.PnLPct)
	}

	r.TakeProfitMode = config.ModeATR
	r.TakeProfitATRMultiplier = 3
	if pos = openAt(t, 100, r); pos.TakeProfit != 106 {
		t.Fatalf("ATR take-profit should be entry + 3×2, got %v", pos.TakeProfit)
	}
}

func TestSellSignalCloses(t *testing.T) {
	r := defaultRisk()
	pos := openAt(t, 100, r)
	tr := Apply(pos, Input{Price: 101, Sell: true}, r)
	if tr.Action != Closed || tr.Trade.Reason != types.ExitSignal {
		t.Fatalf("expected signal exit, got %s", tr.Action)
	}
	if !tr.Trade.Won() {
		t.Fatalf("exit above entry should be a win")
	}
}

func TestPctChangeGuardsZeroBase(t *testing.T) {
	if _, ok := PctChange(0, 10); ok {
		t.Fatalf("zero base must not be ok")
	}
	if v, ok := PctChange(50, 55); !ok || math.Abs(v-10) > 1e-9 {
		t.Fatalf("expected 10%%, got %v", v)
	}
}
