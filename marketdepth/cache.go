// Package marketdepth maintains an aggregated, independently queryable
// view of market depth: cumulative quantity per truncated price level,
// one ordered map per side. The cache never touches the order book; it
// consumes the OrderEvents the caller forwards after each insertion and
// reflects exactly that event stream. Events dropped, duplicated or
// reordered by the caller diverge the cache silently — forwarding every
// event exactly once, in order, is a caller obligation.
package marketdepth

import (
	"sync"

	"github.com/tidwall/btree"

	"github.com/quantex/depthbook/pkg/metrics"
	"github.com/quantex/depthbook/pkg/models"
)

// LevelQuantity is one entry of a depth snapshot: the cumulative
// quantity observed at an aggregated price level.
type LevelQuantity struct {
	Level    int64
	Quantity uint64
}

// sideDepth is one side's aggregated level->quantity map behind its own
// reader-writer lock.
type sideDepth struct {
	mu     sync.RWMutex
	levels *btree.Map[int64, uint64]
}

func newSideDepth() sideDepth {
	return sideDepth{levels: btree.NewMap[int64, uint64](64)}
}

// MarketDepthCache aggregates order flow into per-level cumulative
// quantities. The bid and ask maps are synchronized independently, so a
// bid-side update never contends with an ask-side read. Safe for
// concurrent use from multiple goroutines.
type MarketDepthCache struct {
	bids sideDepth
	asks sideDepth
}

// NewMarketDepthCache creates an empty cache.
func NewMarketDepthCache() *MarketDepthCache {
	return &MarketDepthCache{
		bids: newSideDepth(),
		asks: newSideDepth(),
	}
}

func (c *MarketDepthCache) side(s models.Side) *sideDepth {
	switch s {
	case models.Bid:
		return &c.bids
	case models.Ask:
		return &c.asks
	default:
		panic("marketdepth: unknown side " + s.String())
	}
}

// ProcessOrderEvent adds the event's quantity to its aggregated level,
// creating the level if absent. Only the event's side is write-locked.
// The update is strictly additive and not idempotent: forwarding the
// same event twice doubles the recorded quantity, matching the
// append-only book it mirrors. O(log M) in the side's level count.
func (c *MarketDepthCache) ProcessOrderEvent(event models.OrderEvent) {
	side := c.side(event.Side)

	side.mu.Lock()
	current, _ := side.levels.Get(event.Level)
	side.levels.Set(event.Level, current+event.Quantity)
	side.mu.Unlock()

	metrics.DepthEventsProcessed.WithLabelValues(event.Side.String()).Inc()
}

// GetAggregatedMarketDepth returns owned, level-ascending copies of both
// depth maps. The two read locks are taken one after the other, never
// nested, so a snapshot blocks each side's writer only for the duration
// of that side's copy. The bid and ask halves may therefore reflect
// slightly different instants; each half is internally consistent.
func (c *MarketDepthCache) GetAggregatedMarketDepth() (bids, asks []LevelQuantity) {
	return c.bids.snapshot(), c.asks.snapshot()
}

func (d *sideDepth) snapshot() []LevelQuantity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]LevelQuantity, 0, d.levels.Len())
	d.levels.Scan(func(level int64, quantity uint64) bool {
		out = append(out, LevelQuantity{Level: level, Quantity: quantity})
		return true
	})
	return out
}

// GetQuantityAtLevel returns the cumulative quantity recorded at an
// aggregated level on one side. Zero means no quantity has been
// observed there, a normal state rather than an error. O(log M) under
// the side's read lock.
func (c *MarketDepthCache) GetQuantityAtLevel(level int64, s models.Side) uint64 {
	side := c.side(s)
	side.mu.RLock()
	defer side.mu.RUnlock()
	quantity, _ := side.levels.Get(level)
	return quantity
}

// BidLevelsCount returns the number of aggregated bid levels.
func (c *MarketDepthCache) BidLevelsCount() int {
	c.bids.mu.RLock()
	defer c.bids.mu.RUnlock()
	return c.bids.levels.Len()
}

// AskLevelsCount returns the number of aggregated ask levels.
func (c *MarketDepthCache) AskLevelsCount() int {
	c.asks.mu.RLock()
	defer c.asks.mu.RUnlock()
	return c.asks.levels.Len()
}

// Clear empties both depth maps, e.g. between simulation runs. The two
// write locks are taken in turn, not atomically together; a concurrent
// reader may observe one side cleared before the other.
func (c *MarketDepthCache) Clear() {
	c.bids.mu.Lock()
	c.bids.levels = btree.NewMap[int64, uint64](64)
	c.bids.mu.Unlock()

	c.asks.mu.Lock()
	c.asks.levels = btree.NewMap[int64, uint64](64)
	c.asks.mu.Unlock()

	metrics.DepthCacheClears.Inc()
}
