// Package events fans position lifecycle events out to downstream
// consumers.
package events

import (
	"context"

	"github.com/evdnx/gospot/types"
)

// Kind names a lifecycle event.
type Kind string

const (
	PositionOpened Kind = "position_opened"
	PositionClosed Kind = "position_closed"
)

// Event is one position lifecycle change. Trade is set on PositionClosed.
type Event struct {
	Kind         Kind               `json:"kind"`
	Instance     string             `json:"instance"`
	Symbol       string             `json:"symbol"`
	Time         int64              `json:"time"`
	Price        float64            `json:"price"`
	Amount       float64            `json:"amount"`
	TrailingStop float64            `json:"trailing_stop,omitempty"`
	Trade        *types.TradeRecord `json:"trade,omitempty"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
