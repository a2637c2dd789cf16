package obs

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics groups Prometheus collectors for HTTP observability.
type HTTPMetrics struct {
	ReqTotal *prometheus.CounterVec
	ReqDur   *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

// NewHTTPMetrics registers and returns HTTP metrics collectors.
func NewHTTPMetrics(namespace string, reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &HTTPMetrics{
		ReqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"}),
		ReqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"method", "route"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
	}
	reg.MustRegister(m.ReqTotal, m.ReqDur, m.InFlight)
	return m
}

// DurationMillis converts a duration into fractional milliseconds.
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

var (
	domainOnce sync.Once

	// CartMutationsTotal counts cart store mutations by operation.
	CartMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Count of cart store mutations by operation.",
	}, []string{"op"})
	// CheckoutSubmissionsTotal counts checkout submission outcomes.
	CheckoutSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Count of checkout submission outcomes.",
	}, []string{"result"})
	// ReminderEmailsTotal counts inactivity reminder emails enqueued by the scan.
	ReminderEmailsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_reminder_emails_total",
		Help: "Count of inactivity reminder emails enqueued.",
	})
	// CartsPrunedTotal counts abandoned cart slots removed by the scan.
	CartsPrunedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "carts_pruned_total",
		Help: "Count of abandoned cart slots pruned.",
	})
)

// MustRegisterDomainMetrics registers domain-specific collectors. Collectors
// exist before registration so library code can increment them in tests
// without a registry.
func MustRegisterDomainMetrics(reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(
			CartMutationsTotal,
			CheckoutSubmissionsTotal,
			ReminderEmailsTotal,
			CartsPrunedTotal,
		)
	})
}
