package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/evdnx/gospot/logger"
	"github.com/evdnx/gospot/types"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds = errors.New("executor: insufficient funds")
	ErrInvalidOrder      = errors.New("executor: invalid order")
)

// Executor places spot orders against a stable (quote) balance.
type Executor interface {
	Submit(ctx context.Context, o types.Order) (types.Fill, error)
	// Balances returns the stable balance and the held quantity of symbol.
	Balances(symbol string) (stable, asset float64)
}

// dust tolerates float round-trips when selling a full holding.
var dust = decimal.New(1, -9)

// PaperExecutor fills every order completely at Order.Price with no
// slippage or fees. Balances are kept in decimal.
type PaperExecutor struct {
	mu     sync.Mutex
	log    logger.Logger
	stable decimal.Decimal
	assets map[string]decimal.Decimal
}

func NewPaperExecutor(startStable float64, log logger.Logger) *PaperExecutor {
	if log == nil {
		log = logger.Nop()
	}
	return &PaperExecutor{
		log:    log,
		stable: decimal.NewFromFloat(startStable),
		assets: make(map[string]decimal.Decimal),
	}
}

// Submit executes o. A buy is sized by QuoteQty when set, otherwise by Qty.
// A sell within dust of the holding sells all of it; more than that fails.
func (p *PaperExecutor) Submit(ctx context.Context, o types.Order) (types.Fill, error) {
	if err := ctx.Err(); err != nil {
		return types.Fill{}, err
	}
	if o.Price <= 0 {
		return types.Fill{}, fmt.Errorf("%w: price %v", ErrInvalidOrder, o.Price)
	}
	price := decimal.NewFromFloat(o.Price)

	p.mu.Lock()
	defer p.mu.Unlock()

	var qty, quote decimal.Decimal
	switch o.Side {
	case types.Buy:
		if o.QuoteQty > 0 {
			quote = decimal.NewFromFloat(o.QuoteQty)
			qty = quote.Div(price)
		} else {
			qty = decimal.NewFromFloat(o.Qty)
			quote = qty.Mul(price)
		}
		if !qty.IsPositive() {
			return types.Fill{}, fmt.Errorf("%w: empty buy", ErrInvalidOrder)
		}
		if quote.GreaterThan(p.stable) {
			return types.Fill{}, fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, quote, p.stable)
		}
		p.stable = p.stable.Sub(quote)
		p.assets[o.Symbol] = p.assets[o.Symbol].Add(qty)
	case types.Sell:
		held := p.assets[o.Symbol]
		qty = decimal.NewFromFloat(o.Qty)
		if !qty.IsPositive() {
			return types.Fill{}, fmt.Errorf("%w: empty sell", ErrInvalidOrder)
		}
		if qty.GreaterThan(held.Add(dust)) {
			return types.Fill{}, fmt.Errorf("%w: sell %s, hold %s", ErrInsufficientFunds, qty, held)
		}
		if qty.Sub(held).Abs().LessThanOrEqual(dust) {
			qty = held
		}
		quote = qty.Mul(price)
		p.stable = p.stable.Add(quote)
		p.assets[o.Symbol] = held.Sub(qty)
	default:
		return types.Fill{}, fmt.Errorf("%w: side %q", ErrInvalidOrder, o.Side)
	}

	fill := types.Fill{
		Symbol:   o.Symbol,
		Side:     o.Side,
		Qty:      qty.InexactFloat64(),
		QuoteQty: quote.InexactFloat64(),
		Price:    o.Price,
	}
	p.log.Info("paper_fill",
		logger.String("symbol", o.Symbol),
		logger.String("side", string(o.Side)),
		logger.Float64("qty", fill.Qty),
		logger.Float64("price", fill.Price),
		logger.String("stable", p.stable.StringFixed(2)),
	)
	return fill, nil
}

func (p *PaperExecutor) Balances(symbol string) (float64, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stable.InexactFloat64(), p.assets[symbol].InexactFloat64()
}

// Equity values every holding of symbol at price.
func (p *PaperExecutor) Equity(symbol string, price float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stable.Add(p.assets[symbol].Mul(decimal.NewFromFloat(price))).InexactFloat64()
}
