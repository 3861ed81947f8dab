// Package orderbook implements the exact-price order ledger. The book
// stores bids and asks in two ordered ledgers keyed by exact price and
// publishes one OrderEvent per insertion for downstream depth
// aggregation. Aggregation itself lives in the marketdepth package; the
// book holds no reference to any consumer.
//
// OrderBook is deliberately not synchronized. Wrap it in a single
// reader-writer lock for concurrent use (ConcurrentOrderBook does
// exactly that), keeping the book's own logic lock-free so finer-grained
// locking can be swapped in later without changing the contract.
package orderbook

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"github.com/quantex/depthbook/pkg/models"
)

// priceLevel holds all orders resting at one exact price, in arrival
// order. The slice preserves insertion order only; no time-priority
// semantics are attached to it.
type priceLevel struct {
	price  decimal.Decimal
	orders []models.Order
}

func lessByPrice(a, b *priceLevel) bool {
	return a.price.LessThan(b.price)
}

// OrderBook maintains the two exact-price ledgers. Keys within a ledger
// are strictly increasing by price; ledgers grow monotonically since
// orders are never cancelled or matched here.
type OrderBook struct {
	bids *btree.BTreeG[*priceLevel]
	asks *btree.BTreeG[*priceLevel]
}

// NewOrderBook creates an empty order book.
func NewOrderBook() *OrderBook {
	return &OrderBook{
		bids: btree.NewBTreeG(lessByPrice),
		asks: btree.NewBTreeG(lessByPrice),
	}
}

// ledger selects the side's ledger. Side is a closed two-variant tag;
// anything else indicates a caller bug upstream of order validation.
func (ob *OrderBook) ledger(side models.Side) *btree.BTreeG[*priceLevel] {
	switch side {
	case models.Bid:
		return ob.bids
	case models.Ask:
		return ob.asks
	default:
		panic("orderbook: unknown side " + side.String())
	}
}

// AggregatePriceToLevel truncates an exact price toward zero to its
// integer price level, grouping e.g. 100.01, 100.25 and 100.99 under
// level 100. The book uses it to stamp OrderEvent.Level and the depth
// cache relies on the same rule, so the truncation lives in one place.
func AggregatePriceToLevel(price decimal.Decimal) int64 {
	return price.IntPart()
}

// InsertOrder appends the order to the sequence at its exact price,
// creating the price level if absent, and returns the event describing
// the change. Never fails for an order built by models.NewOrder; cost is
// O(log N) in the number of distinct prices on that side plus an O(1)
// append.
func (ob *OrderBook) InsertOrder(order models.Order) models.OrderEvent {
	ledger := ob.ledger(order.Side)

	if level, ok := ledger.Get(&priceLevel{price: order.Price}); ok {
		level.orders = append(level.orders, order)
	} else {
		ledger.Set(&priceLevel{
			price:  order.Price,
			orders: []models.Order{order},
		})
	}

	return models.OrderEvent{
		Side:     order.Side,
		Price:    order.Price,
		Quantity: order.Quantity,
		Level:    AggregatePriceToLevel(order.Price),
	}
}

// ComputeSpread returns the current best bid (highest bid price) and
// best ask (lowest ask price). A side with no resting orders yields an
// invalid NullDecimal: an empty side means the spread is undefined, not
// that something failed. O(1) via the ledgers' endpoint access.
func (ob *OrderBook) ComputeSpread() (bestBid, bestAsk decimal.NullDecimal) {
	if level, ok := ob.bids.Max(); ok {
		bestBid = decimal.NullDecimal{Decimal: level.price, Valid: true}
	}
	if level, ok := ob.asks.Min(); ok {
		bestAsk = decimal.NullDecimal{Decimal: level.price, Valid: true}
	}
	return bestBid, bestAsk
}

// OrdersAtExactPriceLevel returns a copy of the orders resting at the
// given exact price on the given side, in arrival order. The copy keeps
// the ledger's internals out of reach of callers. An empty slice means
// no orders rest at that price.
func (ob *OrderBook) OrdersAtExactPriceLevel(side models.Side, price decimal.Decimal) []models.Order {
	level, ok := ob.ledger(side).Get(&priceLevel{price: price})
	if !ok {
		return nil
	}
	out := make([]models.Order, len(level.orders))
	copy(out, level.orders)
	return out
}

// OrdersCountAtPriceLevel returns the number of orders resting at the
// given exact price on the given side, zero if the level is absent.
func (ob *OrderBook) OrdersCountAtPriceLevel(side models.Side, price decimal.Decimal) int {
	level, ok := ob.ledger(side).Get(&priceLevel{price: price})
	if !ok {
		return 0
	}
	return len(level.orders)
}

// BidLevelsCount returns the number of distinct bid prices.
func (ob *OrderBook) BidLevelsCount() int {
	return ob.bids.Len()
}

// AskLevelsCount returns the number of distinct ask prices.
func (ob *OrderBook) AskLevelsCount() int {
	return ob.asks.Len()
}
