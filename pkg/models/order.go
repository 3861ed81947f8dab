// Package models holds the value types shared by the order book and the
// market depth cache: Side, Order and OrderEvent.
package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Side distinguishes buy orders (Bid) from sell orders (Ask). The two
// sides are kept in separate ledgers because their "best" directions are
// opposite: the best bid is the highest price, the best ask the lowest.
type Side int8

const (
	// Bid is the buy side.
	Bid Side = iota
	// Ask is the sell side.
	Ask
)

// String returns "bid" or "ask".
func (s Side) String() string {
	switch s {
	case Bid:
		return "bid"
	case Ask:
		return "ask"
	default:
		return fmt.Sprintf("side(%d)", int8(s))
	}
}

// Validation errors returned by NewOrder.
var (
	ErrNonPositivePrice = errors.New("order price must be positive")
	ErrZeroQuantity     = errors.New("order quantity must be positive")
	ErrInvalidSide      = errors.New("order side must be Bid or Ask")
)

// Order is a single resting limit order. Orders are immutable values:
// they carry no identity beyond their fields, and once inserted into a
// book they are never mutated or removed.
type Order struct {
	// Price is the exact limit price, fixed-point decimal with at least
	// one-cent resolution.
	Price decimal.Decimal
	// Quantity is the amount being bought or sold.
	Quantity uint64
	// Side is whether this order bids or asks.
	Side Side
}

// NewOrder builds an Order from a floating-point price, converting it to
// the exact decimal representation used throughout the book. Malformed
// orders are rejected here, not at insertion time: insertion assumes a
// well-formed Order.
func NewOrder(price float64, quantity uint64, side Side) (Order, error) {
	p := decimal.NewFromFloat(price)
	if !p.IsPositive() {
		return Order{}, fmt.Errorf("%w: %s", ErrNonPositivePrice, p)
	}
	if quantity == 0 {
		return Order{}, ErrZeroQuantity
	}
	if side != Bid && side != Ask {
		return Order{}, fmt.Errorf("%w: got %d", ErrInvalidSide, int8(side))
	}
	return Order{Price: p, Quantity: quantity, Side: side}, nil
}

// OrderEvent is published by the book after each successful insertion.
// It carries everything a downstream aggregator needs, including the
// pre-computed aggregated level, so consumers never re-derive the
// truncation rule themselves.
type OrderEvent struct {
	Side     Side
	Price    decimal.Decimal
	Quantity uint64
	// Level is the price truncated to its integer part, the key used by
	// depth aggregation.
	Level int64
}
