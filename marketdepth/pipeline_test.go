package marketdepth_test

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/quantex/depthbook/marketdepth"
	"github.com/quantex/depthbook/orderbook"
	"github.com/quantex/depthbook/pkg/models"
)

// Drives the full caller workflow: build order, insert into the book,
// forward the returned event to the cache, then query both tiers.
func TestPipeline_InsertionFeedsDepth(t *testing.T) {
	ob := orderbook.NewOrderBook()
	cache := marketdepth.NewMarketDepthCache()

	inserts := []struct {
		price    float64
		quantity uint64
		side     models.Side
	}{
		{99.50, 10, models.Bid},
		{99.01, 5, models.Bid},
		{100.25, 20, models.Ask},
		{100.99, 3, models.Ask},
		{101.00, 50, models.Ask},
	}
	for _, in := range inserts {
		order, err := models.NewOrder(in.price, in.quantity, in.side)
		require.NoError(t, err)
		cache.ProcessOrderEvent(ob.InsertOrder(order))
	}

	bestBid, bestAsk := ob.ComputeSpread()
	require.True(t, bestBid.Valid)
	require.True(t, bestAsk.Valid)
	assert.True(t, bestBid.Decimal.Equal(decimal.NewFromFloat(99.50)))
	assert.True(t, bestAsk.Decimal.Equal(decimal.NewFromFloat(100.25)))

	assert.Equal(t, uint64(15), cache.GetQuantityAtLevel(99, models.Bid))
	assert.Equal(t, uint64(0), cache.GetQuantityAtLevel(100, models.Bid))
	assert.Equal(t, uint64(23), cache.GetQuantityAtLevel(100, models.Ask))
	assert.Equal(t, uint64(50), cache.GetQuantityAtLevel(101, models.Ask))
}

// For every level, the cached quantity must equal the sum over all
// exact prices truncating to that level of the order quantities the
// book itself reports.
func TestPipeline_DepthMatchesLedgerSums(t *testing.T) {
	ob := orderbook.NewOrderBook()
	cache := marketdepth.NewMarketDepthCache()

	prices := []float64{100.01, 100.25, 100.25, 100.99, 101.10, 101.10, 102.00}
	for i, p := range prices {
		order, err := models.NewOrder(p, uint64(i+1), models.Ask)
		require.NoError(t, err)
		cache.ProcessOrderEvent(ob.InsertOrder(order))
	}

	for level := int64(100); level <= 102; level++ {
		var want uint64
		for _, p := range []float64{100.01, 100.25, 100.99, 101.10, 102.00} {
			price := decimal.NewFromFloat(p)
			if orderbook.AggregatePriceToLevel(price) != level {
				continue
			}
			for _, o := range ob.OrdersAtExactPriceLevel(models.Ask, price) {
				want += o.Quantity
			}
		}
		assert.Equal(t, want, cache.GetQuantityAtLevel(level, models.Ask), "level %d", level)
	}
}

// The insert-then-forward pair is two critical sections with no lock
// spanning them, so depth may momentarily trail the ledger. Once the
// stream drains, the two tiers must agree.
func TestPipeline_ConcurrentFlowConverges(t *testing.T) {
	cb := orderbook.NewConcurrentOrderBook(zaptest.NewLogger(t))
	cache := marketdepth.NewMarketDepthCache()

	const (
		producers         = 8
		ordersPerProducer = 500
	)

	wg := sync.WaitGroup{}
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			side := models.Side(p % 2)
			for i := 0; i < ordersPerProducer; i++ {
				price := 200 + float64(i%300)/100 // levels 200..202
				order, err := models.NewOrder(price, 2, side)
				assert.NoError(t, err)
				cache.ProcessOrderEvent(cb.InsertOrder(order))
			}
		}(p)
	}
	wg.Wait()

	perSide := uint64(producers / 2 * ordersPerProducer * 2)
	var gotBid, gotAsk uint64
	for level := int64(200); level <= 202; level++ {
		gotBid += cache.GetQuantityAtLevel(level, models.Bid)
		gotAsk += cache.GetQuantityAtLevel(level, models.Ask)
	}
	assert.Equal(t, perSide, gotBid, "bid depth must account for every forwarded event")
	assert.Equal(t, perSide, gotAsk, "ask depth must account for every forwarded event")

	bids, asks := cache.GetAggregatedMarketDepth()
	assert.Len(t, bids, 3)
	assert.Len(t, asks, 3)
}

func BenchmarkPipeline_InsertAndForward(b *testing.B) {
	ob := orderbook.NewOrderBook()
	cache := marketdepth.NewMarketDepthCache()
	price := 100.0
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		order, err := models.NewOrder(price, 100, models.Bid)
		if err != nil {
			b.Fatal(err)
		}
		cache.ProcessOrderEvent(ob.InsertOrder(order))
		price += 0.01
	}
}

func BenchmarkCache_ParallelSnapshots(b *testing.B) {
	cache := marketdepth.NewMarketDepthCache()
	for i := 0; i < 1000; i++ {
		p := decimal.NewFromFloat(100 + float64(i)/10)
		cache.ProcessOrderEvent(models.OrderEvent{
			Side: models.Bid, Price: p, Quantity: 10, Level: p.IntPart(),
		})
	}
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			bids, asks := cache.GetAggregatedMarketDepth()
			_ = bids
			_ = asks
		}
	})
}
