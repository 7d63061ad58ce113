// File: internal/infra/metrics/metrics.go
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ordersIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_orders_ingested_total",
			Help: "Ingested orders by platform and outcome.",
		},
		[]string{"platform", "outcome"},
	)

	transfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_transfers_total",
			Help: "Entitlement transfers by outcome.",
		},
		[]string{"outcome"},
	)

	rewardRedemptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_reward_redemptions_total",
			Help: "Reward redemptions by outcome.",
		},
		[]string{"outcome"},
	)

	checkInsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_check_ins_total",
			Help: "Activation events by outcome (recorded/suppressed/duplicate/failed).",
		},
		[]string{"outcome"},
	)

	cacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_cache_requests_total",
			Help: "Cache lookups by cache name and result.",
		},
		[]string{"cache", "result"},
	)

	platformQueryLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billing_platform_query_latency_ms",
			Help:    "Platform order-query latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"platform", "success"},
	)

	cdkCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_cdk_calls_total",
			Help: "Calls to the CDK backend by operation and success.",
		},
		[]string{"op", "success"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			ordersIngested, transfersTotal, rewardRedemptions,
			checkInsTotal, cacheRequests, platformQueryLatencyMs, cdkCalls,
		)
	})
}

func IncOrderIngested(platform, outcome string) {
	ordersIngested.WithLabelValues(platform, outcome).Inc()
}

func IncTransfer(outcome string) { transfersTotal.WithLabelValues(outcome).Inc() }

func IncRewardRedemption(outcome string) {
	rewardRedemptions.WithLabelValues(outcome).Inc()
}

func IncCheckIn(outcome string) { checkInsTotal.WithLabelValues(outcome).Inc() }

func IncCacheRequest(cache, result string) {
	cacheRequests.WithLabelValues(cache, result).Inc()
}

func ObservePlatformQuery(platform string, success bool, ms float64) {
	platformQueryLatencyMs.WithLabelValues(platform, boolLabel(success)).Observe(ms)
}

func IncCDKCall(op string, success bool) {
	cdkCalls.WithLabelValues(op, boolLabel(success)).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
