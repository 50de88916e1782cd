package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LedgerMetrics holds the service's Prometheus collectors
type LedgerMetrics struct {
	// HTTP traffic
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Ledger operation outcomes, labelled by operation and error kind
	OperationsTotal *prometheus.CounterVec

	// Funds moved
	DepositedTotal prometheus.Counter
	WageredTotal   prometheus.Counter
	PaidOutTotal   prometheus.Counter

	// Paid out but not retired; any increase needs an operator
	ConsistencyErrorsTotal prometheus.Counter
}

// NewLedgerMetrics registers the collectors with reg
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	factory := promauto.With(reg)

	return &LedgerMetrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wagerledger_http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wagerledger_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~2s
			},
			[]string{"method", "route"},
		),

		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wagerledger_operations_total",
				Help: "Ledger operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),

		DepositedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "wagerledger_deposited_total",
			Help: "Total amount credited to deposit balances",
		}),

		WageredTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "wagerledger_wagered_total",
			Help: "Total amount debited from deposit balances by bets",
		}),

		PaidOutTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "wagerledger_paid_out_total",
			Help: "Total amount paid out by executed withdrawals",
		}),

		ConsistencyErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "wagerledger_consistency_errors_total",
			Help: "Payouts sent whose withdrawal request could not be retired",
		}),
	}
}

// RecordHTTPRequest records a served request
func (m *LedgerMetrics) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordOperation records the outcome of a ledger operation
func (m *LedgerMetrics) RecordOperation(operation, outcome string) {
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	if outcome == "payout_not_retired" {
		m.ConsistencyErrorsTotal.Inc()
	}
}

// RecordDeposit records funds credited to a deposit balance
func (m *LedgerMetrics) RecordDeposit(amount uint64) {
	m.DepositedTotal.Add(float64(amount))
}

// RecordBet records funds wagered
func (m *LedgerMetrics) RecordBet(amount uint64) {
	m.WageredTotal.Add(float64(amount))
}

// RecordPayout records funds paid out
func (m *LedgerMetrics) RecordPayout(amount uint64) {
	m.PaidOutTotal.Add(float64(amount))
}
