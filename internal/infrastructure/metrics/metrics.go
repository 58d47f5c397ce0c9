package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Authorization metrics
	AuthorizationsGranted prometheus.Counter
	AuthorizationsDenied  *prometheus.CounterVec
	WalletFailures        prometheus.Counter

	// Reservation metrics
	ReservationsActive prometheus.Gauge
	ReservationsTaken  prometheus.Counter

	// Settlement metrics
	PaymentsSettled *prometheus.CounterVec
	SpentBaseUnits  prometheus.Counter

	// Circuit breaker metrics
	BreakerState       *prometheus.GaugeVec
	BreakerTransitions *prometheus.CounterVec

	// Dispatcher metrics
	ToolCalls        *prometheus.CounterVec
	ToolCallDuration *prometheus.HistogramVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Audit metrics
	AuditEvents *prometheus.CounterVec

	// Snapshot metrics
	SnapshotSaves *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		AuthorizationsGranted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paymaster_authorizations_granted_total",
			Help: "Total number of payment authorizations granted",
		}),
		AuthorizationsDenied: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paymaster_authorizations_denied_total",
				Help: "Total number of payment authorizations denied by reason",
			},
			[]string{"reason"},
		),
		WalletFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paymaster_wallet_failures_total",
			Help: "Total number of payment instrument creation failures",
		}),

		ReservationsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "paymaster_reservations_active",
			Help: "Number of in-flight budget reservations",
		}),
		ReservationsTaken: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paymaster_reservations_taken_total",
			Help: "Total number of budget reservations taken",
		}),

		PaymentsSettled: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paymaster_payments_settled_total",
				Help: "Total number of settled payments by terminal status",
			},
			[]string{"status"},
		),
		SpentBaseUnits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paymaster_spent_base_units_total",
			Help: "Accepted spend in base units",
		}),

		BreakerState: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "paymaster_breaker_state",
				Help: "Circuit breaker state per service (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		BreakerTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paymaster_breaker_transitions_total",
				Help: "Circuit breaker state transitions per service",
			},
			[]string{"service", "to"},
		),

		ToolCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paymaster_tool_calls_total",
				Help: "Total tool invocations by service and outcome",
			},
			[]string{"service", "outcome"},
		),
		ToolCallDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paymaster_tool_call_duration_seconds",
				Help:    "Tool invocation duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service"},
		),

		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paymaster_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paymaster_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		AuditEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paymaster_audit_events_total",
				Help: "Total audit events emitted",
			},
			[]string{"event"},
		),

		SnapshotSaves: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paymaster_snapshot_saves_total",
				Help: "Ledger snapshot save attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}
