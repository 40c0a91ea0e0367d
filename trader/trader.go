// Package trader runs live decision cycles: each cycle loads the instance's
// position, fetches recent bars, steps the strategy, persists the new state
// and publishes lifecycle events.
package trader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evdnx/gospot/events"
	"github.com/evdnx/gospot/logger"
	"github.com/evdnx/gospot/marketdata"
	"github.com/evdnx/gospot/position"
	"github.com/evdnx/gospot/store"
	"github.com/evdnx/gospot/strategy"
	"github.com/evdnx/gospot/types"
)

// ErrCycleInProgress is returned when a cycle is started for an instance
// whose previous cycle has not finished.
var ErrCycleInProgress = errors.New("trader: cycle already in progress")

// Instance serialises the cycles of one strategy instance.
type Instance struct {
	step  *strategy.Instance
	store store.PositionStore
	pub   events.Publisher
	bars  marketdata.Source
	log   logger.Logger

	mu sync.Mutex
}

// New wires a live instance. A nil publisher discards events.
func New(step *strategy.Instance, st store.PositionStore, src marketdata.Source, pub events.Publisher, log logger.Logger) *Instance {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Instance{step: step, store: st, pub: pub, bars: src, log: log}
}

// Name is the instance name used for storage keys, metrics and events.
func (t *Instance) Name() string { return t.step.Name }

// Cycle runs one evaluation. A not-ready window leaves the stored position
// untouched. Publishing failures are logged; the position has already been
// saved by then.
func (t *Instance) Cycle(ctx context.Context) (strategy.Outcome, error) {
	if !t.mu.TryLock() {
		return strategy.Outcome{}, ErrCycleInProgress
	}
	defer t.mu.Unlock()

	name, symbol := t.step.Name, t.step.Settings.Symbol
	pos, err := t.store.Load(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		pos = position.Flat(symbol)
	case err != nil:
		return strategy.Outcome{}, fmt.Errorf("load position: %w", err)
	}

	fam := t.step.Settings.Family
	window, longWindow := fam.WindowSize(), fam.LongWindowSize()
	bars, err := t.bars.Recent(ctx, symbol, max(window, longWindow))
	if err != nil {
		return strategy.Outcome{}, fmt.Errorf("fetch bars: %w", err)
	}
	var long []types.Bar
	if longWindow > 0 && len(bars) >= longWindow {
		long = bars[len(bars)-longWindow:]
	}
	if len(bars) > window {
		bars = bars[len(bars)-window:]
	}

	next, out, err := t.step.Step(ctx, pos, bars, long)
	if err != nil {
		return out, err
	}
	if !out.Decision.Ready {
		t.log.Warn("cycle_not_ready",
			logger.String("instance", name),
			logger.String("reason", out.Decision.Reason),
		)
		return out, nil
	}
	if err := t.store.Save(ctx, name, next); err != nil {
		return out, fmt.Errorf("save position: %w", err)
	}

	var ev *events.Event
	switch out.Transition.Action {
	case position.Opened:
		ev = &events.Event{
			Kind:         events.PositionOpened,
			Price:        next.EntryPrice,
			Amount:       next.Amount,
			TrailingStop: next.TrailingStop,
		}
	case position.Closed:
		tr := out.Transition.Trade
		ev = &events.Event{
			Kind:   events.PositionClosed,
			Price:  tr.ExitPrice,
			Amount: tr.Amount,
			Trade:  tr,
		}
	}
	if ev != nil {
		ev.Instance, ev.Symbol, ev.Time = name, symbol, out.Decision.Time
		if err := t.pub.Publish(ctx, *ev); err != nil {
			t.log.Error("publish_failed",
				logger.String("instance", name),
				logger.String("kind", string(ev.Kind)),
				logger.Err(err),
			)
		}
	}
	return out, nil
}

// RunCycles runs one cycle of every instance concurrently, at most limit at
// a time (limit <= 0 means no limit). Instances are independent: a failure
// does not cancel the others, and every failure is returned joined.
func RunCycles(ctx context.Context, instances []*Instance, limit int) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, in := range instances {
		g.Go(func() error {
			if _, err := in.Cycle(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", in.Name(), err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Loop calls RunCycles every interval until ctx is done. Cycle failures are
// logged and do not stop the loop.
func Loop(ctx context.Context, instances []*Instance, interval time.Duration, log logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := RunCycles(ctx, instances, 0); err != nil {
			log.Warn("cycle_failed", logger.Err(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
