package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/evdnx/gospot/config"
	"github.com/evdnx/gospot/position"
	"github.com/evdnx/gospot/testutils"
	"github.com/evdnx/gospot/types"
)

// script replays a fixed sequence of decisions, one per call.
func script(ds ...Decision) Decider {
	i := 0
	return DeciderFunc(func(_, _ []types.Bar) Decision {
		d := ds[i]
		if i < len(ds)-1 {
			i++
		}
		return d
	})
}

func buildInstance(t *testing.T, d Decider, stable float64) (*Instance, *testutils.MockExecutor, *testutils.MockLogger) {
	t.Helper()
	exec := testutils.NewMockExecutor(stable)
	log := testutils.NewMockLogger()
	in, err := NewInstance("test", config.Default(), exec, log)
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	in.Decider = d
	return in, exec, log
}

func TestStepOpensAndCloses(t *testing.T) {
	in, exec, log := buildInstance(t, script(
		Decision{Ready: true, Buy: true, Price: 100, Time: 1},
		Decision{Ready: true, Sell: true, Price: 110, Time: 2},
	), 1000)
	ctx := context.Background()

	pos, out, err := in.Step(ctx, position.Position{}, nil, nil)
	if err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if out.Transition.Action != position.Opened || !pos.Active {
		t.Fatalf("expected open, got %s", out.Transition.Action)
	}
	if pos.Symbol != "BTCUSDT" || pos.Amount != 10 {
		t.Fatalf("unexpected position %+v", pos)
	}
	orders := exec.Orders()
	if len(orders) != 1 || orders[0].Side != types.Buy || orders[0].QuoteQty != 1000 {
		t.Fatalf("unexpected orders %+v", orders)
	}

	pos, out, err = in.Step(ctx, pos, nil, nil)
	if err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if out.Transition.Action != position.Closed || pos.Active {
		t.Fatalf("expected close, got %s", out.Transition.Action)
	}
	if out.Transition.Trade.Reason != types.ExitSignal || out.Transition.Trade.Amount != 10 {
		t.Fatalf("unexpected trade %+v", out.Transition.Trade)
	}
	if stable, asset := exec.Balances("BTCUSDT"); stable != 1100 || asset != 0 {
		t.Fatalf("unexpected balances: %v / %v", stable, asset)
	}
	if log.Count("info", "position_closed") != 1 {
		t.Fatalf("expected one position_closed log")
	}
}

func TestStepNotReadyLeavesPosition(t *testing.T) {
	in, exec, _ := buildInstance(t, script(Decision{Reason: "insufficient data"}), 1000)
	start := position.Position{Symbol: "BTCUSDT", Active: true, EntryPrice: 100, CurrentPrice: 100, TrailingStop: 98, Amount: 1}
	pos, out, err := in.Step(context.Background(), start, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if pos != start || out.Decision.Ready {
		t.Fatalf("not-ready cycle must not change the position")
	}
	if len(exec.Orders()) != 0 {
		t.Fatalf("not-ready cycle must not trade")
	}
}

func TestStepOrderFailureKeepsState(t *testing.T) {
	in, exec, log := buildInstance(t, script(Decision{Ready: true, Buy: true, Price: 100}), 1000)
	exec.FailNext(true)
	pos, _, err := in.Step(context.Background(), position.Flat("BTCUSDT"), nil, nil)
	if !errors.Is(err, testutils.ErrMockRejected) {
		t.Fatalf("expected rejected order error, got %v", err)
	}
	if pos.Active {
		t.Fatalf("failed buy must leave the instance flat")
	}
	if log.Count("error", "order_submit_failed") != 1 {
		t.Fatalf("expected order failure to be logged")
	}
}

func TestStepSkipsBuyWithoutFunds(t *testing.T) {
	in, exec, log := buildInstance(t, script(Decision{Ready: true, Buy: true, Price: 100}), 0)
	pos, out, err := in.Step(context.Background(), position.Flat("BTCUSDT"), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if pos.Active || out.Transition.Action != position.Hold {
		t.Fatalf("empty balance must not open a position")
	}
	if len(exec.Orders()) != 0 || log.Count("warn", "buy_skipped") != 1 {
		t.Fatalf("expected a skipped buy")
	}
}
