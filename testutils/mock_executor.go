package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/evdnx/gospot/types"
)

// ErrMockRejected is returned by a MockExecutor told to fail.
var ErrMockRejected = errors.New("mock executor: rejected")

// MockExecutor fills orders in memory and records them for assertions.
type MockExecutor struct {
	mu     sync.RWMutex
	stable float64
	assets map[string]float64
	orders []types.Order
	fail   bool
}

// NewMockExecutor creates a fresh executor with the supplied stable balance.
func NewMockExecutor(startStable float64) *MockExecutor {
	return &MockExecutor{
		stable: startStable,
		assets: make(map[string]float64),
	}
}

// FailNext makes every following Submit fail until reset with false.
func (m *MockExecutor) FailNext(fail bool) {
	m.mu.Lock()
	m.fail = fail
	m.mu.Unlock()
}

// Submit records the order and fills it at Order.Price.
func (m *MockExecutor) Submit(_ context.Context, o types.Order) (types.Fill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return types.Fill{}, ErrMockRejected
	}
	qty, quote := o.Qty, o.Qty*o.Price
	if o.Side == types.Buy && o.QuoteQty > 0 {
		quote = o.QuoteQty
		qty = quote / o.Price
	}
	if o.Side == types.Buy {
		m.stable -= quote
		m.assets[o.Symbol] += qty
	} else {
		m.stable += quote
		m.assets[o.Symbol] -= qty
	}
	m.orders = append(m.orders, o)
	return types.Fill{Symbol: o.Symbol, Side: o.Side, Qty: qty, QuoteQty: quote, Price: o.Price}, nil
}

// Balances returns the stable balance and holding of symbol.
func (m *MockExecutor) Balances(symbol string) (float64, float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stable, m.assets[symbol]
}

// Orders returns a copy of all submitted orders (useful for assertions).
func (m *MockExecutor) Orders() []types.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Order, len(m.orders))
	copy(out, m.orders)
	return out
}
