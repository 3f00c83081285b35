package metrics

import "github.com/prometheus/client_golang/prometheus"

// WidgetMetrics exposes counters for the booking widget flows.
type WidgetMetrics struct {
	sessionsStarted prometheus.Counter
	bookingsTotal   *prometheus.CounterVec
	priorityTotal   *prometheus.CounterVec
	adminOpsTotal   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
}

func NewWidgetMetrics(reg prometheus.Registerer) *WidgetMetrics {
	m := &WidgetMetrics{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "belvedhair",
			Subsystem: "widget",
			Name:      "sessions_started_total",
			Help:      "Total wizard sessions started",
		}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "belvedhair",
			Subsystem: "widget",
			Name:      "bookings_total",
			Help:      "Booking submissions by outcome",
		}, []string{"outcome"}),
		priorityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "belvedhair",
			Subsystem: "widget",
			Name:      "priority_requests_total",
			Help:      "Priority request submissions by outcome",
		}, []string{"outcome"}),
		adminOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "belvedhair",
			Subsystem: "admin",
			Name:      "operations_total",
			Help:      "Admin panel operations by action and outcome",
		}, []string{"action", "outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "belvedhair",
			Subsystem: "widget",
			Name:      "upstream_latency_seconds",
			Help:      "Latency of booking backend requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.sessionsStarted, m.bookingsTotal, m.priorityTotal, m.adminOpsTotal, m.upstreamLatency)
	return m
}

func (m *WidgetMetrics) ObserveSessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

// Booking and priority outcomes: confirmed, rejected, invalid, suppressed.
func (m *WidgetMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *WidgetMetrics) ObservePriorityRequest(outcome string) {
	if m == nil {
		return
	}
	m.priorityTotal.WithLabelValues(outcome).Inc()
}

func (m *WidgetMetrics) ObserveUpstreamLatency(endpoint string, seconds float64) {
	if m == nil {
		return
	}
	m.upstreamLatency.WithLabelValues(endpoint).Observe(seconds)
}

func (m *WidgetMetrics) ObserveAdminOp(action, outcome string) {
	if m == nil {
		return
	}
	m.adminOpsTotal.WithLabelValues(action, outcome).Inc()
}
