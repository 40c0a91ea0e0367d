// Package marketdata loads candle series for backtests and the live trader.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/evdnx/gospot/types"
)

var (
	// ErrNoBars is returned when a source yields an empty series.
	ErrNoBars = errors.New("marketdata: no bars")
	// ErrInvalidBar marks a bar that breaks ordering or OHLC invariants.
	ErrInvalidBar = errors.New("marketdata: invalid bar")
)

// Source returns the n most recent closed bars for symbol, oldest first.
type Source interface {
	Recent(ctx context.Context, symbol string, n int) ([]types.Bar, error)
}

// Static serves a fixed series. It is used for replays and tests.
type Static struct {
	Bars []types.Bar
}

func (s Static) Recent(_ context.Context, _ string, n int) ([]types.Bar, error) {
	if len(s.Bars) == 0 {
		return nil, ErrNoBars
	}
	if n <= 0 || n > len(s.Bars) {
		n = len(s.Bars)
	}
	return s.Bars[len(s.Bars)-n:], nil
}

// ValidateBars checks that bars is non-empty, strictly ascending by open
// time, and that every bar has finite prices with Low <= Open, Close <= High
// and a non-negative volume.
func ValidateBars(bars []types.Bar) error {
	if len(bars) == 0 {
		return ErrNoBars
	}
	for i, b := range bars {
		for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: bar %d has a non-finite value", ErrInvalidBar, i)
			}
		}
		if b.Low <= 0 || b.Low > b.High {
			return fmt.Errorf("%w: bar %d low %v high %v", ErrInvalidBar, i, b.Low, b.High)
		}
		if b.Open < b.Low || b.Open > b.High || b.Close < b.Low || b.Close > b.High {
			return fmt.Errorf("%w: bar %d open/close outside [%v, %v]", ErrInvalidBar, i, b.Low, b.High)
		}
		if b.Volume < 0 {
			return fmt.Errorf("%w: bar %d negative volume", ErrInvalidBar, i)
		}
		if i > 0 && b.OpenTime <= bars[i-1].OpenTime {
			return fmt.Errorf("%w: bar %d at %d is not after %d", ErrInvalidBar, i, b.OpenTime, bars[i-1].OpenTime)
		}
	}
	return nil
}
