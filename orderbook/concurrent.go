package orderbook

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantex/depthbook/pkg/metrics"
	"github.com/quantex/depthbook/pkg/models"
)

// ConcurrentOrderBook wraps an OrderBook behind a single reader-writer
// lock: insertions serialize against everything, spread and level
// queries run concurrently with each other. One lock guards both
// ledgers together, which keeps the locking trivial to reason about and
// leaves the inner book free to grow per-side locking later without a
// contract change.
//
// There is no lock spanning an insertion and the forwarding of its event
// to a depth cache; those are two independent critical sections driven
// by the caller, so a depth snapshot may briefly trail the ledger.
type ConcurrentOrderBook struct {
	mu     sync.RWMutex
	book   *OrderBook
	logger *zap.Logger
}

// NewConcurrentOrderBook creates an empty, internally locked book. A nil
// logger disables logging.
func NewConcurrentOrderBook(logger *zap.Logger) *ConcurrentOrderBook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConcurrentOrderBook{
		book:   NewOrderBook(),
		logger: logger,
	}
}

// InsertOrder inserts under the write lock and returns the insertion
// event for the caller to forward.
func (cb *ConcurrentOrderBook) InsertOrder(order models.Order) models.OrderEvent {
	start := time.Now()

	cb.mu.Lock()
	event := cb.book.InsertOrder(order)
	cb.mu.Unlock()

	metrics.OrdersInserted.WithLabelValues(order.Side.String()).Inc()
	metrics.InsertLatency.Observe(time.Since(start).Seconds())
	cb.logger.Debug("order inserted",
		zap.String("side", order.Side.String()),
		zap.String("price", order.Price.String()),
		zap.Uint64("quantity", order.Quantity),
		zap.Int64("level", event.Level),
	)
	return event
}

// ComputeSpread reads the best bid and ask under the read lock.
func (cb *ConcurrentOrderBook) ComputeSpread() (bestBid, bestAsk decimal.NullDecimal) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.book.ComputeSpread()
}

// OrdersAtExactPriceLevel lists the orders at an exact price under the
// read lock.
func (cb *ConcurrentOrderBook) OrdersAtExactPriceLevel(side models.Side, price decimal.Decimal) []models.Order {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.book.OrdersAtExactPriceLevel(side, price)
}

// OrdersCountAtPriceLevel counts orders at an exact price under the read
// lock.
func (cb *ConcurrentOrderBook) OrdersCountAtPriceLevel(side models.Side, price decimal.Decimal) int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.book.OrdersCountAtPriceLevel(side, price)
}

// BidLevelsCount returns the number of distinct bid prices.
func (cb *ConcurrentOrderBook) BidLevelsCount() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.book.BidLevelsCount()
}

// AskLevelsCount returns the number of distinct ask prices.
func (cb *ConcurrentOrderBook) AskLevelsCount() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.book.AskLevelsCount()
}
