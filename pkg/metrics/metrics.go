package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrdersInserted counts orders accepted by the book, labelled by side.
var OrdersInserted = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "depthbook_orders_inserted_total",
		Help: "Total number of orders inserted into the order book",
	},
	[]string{"side"},
)

// InsertLatency records latency distribution for order insertion under
// the book's write lock.
var InsertLatency = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "depthbook_order_insert_latency_seconds",
		Help:    "Latency in seconds to insert individual orders",
		Buckets: prometheus.DefBuckets,
	},
)

// Depth cache metrics
var (
	DepthEventsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depthbook_depth_events_processed_total",
			Help: "Total number of order events applied to the depth cache",
		},
		[]string{"side"},
	)

	DepthCacheClears = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "depthbook_depth_cache_clears_total",
			Help: "Total number of depth cache resets",
		},
	)
)

func init() {
	prometheus.MustRegister(OrdersInserted, InsertLatency)
	prometheus.MustRegister(DepthEventsProcessed, DepthCacheClears)
}
