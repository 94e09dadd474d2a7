package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Wallet metrics
	WalletsCreated     prometheus.Counter
	WalletMoves        *prometheus.CounterVec
	WalletMoveDuration prometheus.Histogram

	// Group metrics
	GroupsDrafted      prometheus.Counter
	GroupsActivated    prometheus.Counter
	GroupsCompleted    prometheus.Counter
	GroupsCancelled    prometheus.Counter
	SlotsSettled       prometheus.Counter
	SettlementDuration prometheus.Histogram

	// Payment metrics
	IntentsCreated  *prometheus.CounterVec
	IntentsConsumed prometheus.Counter
	IntentsExpired  prometheus.Counter
	GatewayCalls    *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Cache metrics
	RedisOperations *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		WalletsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "herdpool_wallets_created_total",
			Help: "Total number of wallets created",
		}),
		WalletMoves: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "herdpool_wallet_moves_total",
				Help: "Total wallet debits and credits by direction",
			},
			[]string{"direction"},
		),
		WalletMoveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "herdpool_wallet_move_duration_seconds",
			Help:    "Duration of wallet debit/credit operations",
			Buckets: prometheus.DefBuckets,
		}),

		GroupsDrafted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "herdpool_groups_drafted_total",
			Help: "Total number of groups drafted",
		}),
		GroupsActivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "herdpool_groups_activated_total",
			Help: "Total number of groups activated",
		}),
		GroupsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "herdpool_groups_completed_total",
			Help: "Total number of groups fully funded",
		}),
		GroupsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "herdpool_groups_cancelled_total",
			Help: "Total number of groups cancelled",
		}),
		SlotsSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "herdpool_slots_settled_total",
			Help: "Total number of slots settled through joins",
		}),
		SettlementDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "herdpool_settlement_duration_seconds",
			Help:    "Duration of settlement transactions",
			Buckets: prometheus.DefBuckets,
		}),

		IntentsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "herdpool_intents_created_total",
				Help: "Total payment intents staged by funding method",
			},
			[]string{"method"},
		),
		IntentsConsumed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "herdpool_intents_consumed_total",
			Help: "Total payment intents consumed",
		}),
		IntentsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "herdpool_intents_expired_total",
			Help: "Total payment intents expired by the reaper",
		}),
		GatewayCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "herdpool_gateway_calls_total",
				Help: "Total payment gateway calls by operation and outcome",
			},
			[]string{"operation", "status"},
		),
		GatewayDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "herdpool_gateway_duration_seconds",
				Help:    "Payment gateway call duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "herdpool_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "herdpool_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		RedisOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "herdpool_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
	}
}
