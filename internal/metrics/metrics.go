package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking flow.
type BookingMetrics struct {
	bookingsTotal  *prometheus.CounterVec
	lockContention *prometheus.CounterVec
	slotCacheTotal *prometheus.CounterVec
	slotGeneration *prometheus.HistogramVec
	slotsGenerated *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mothercare",
			Subsystem: "booking",
			Name:      "operations_total",
			Help:      "Booking operations by kind and outcome",
		}, []string{"operation", "outcome"}),
		lockContention: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mothercare",
			Subsystem: "booking",
			Name:      "lock_contention_total",
			Help:      "Attempts that found the doctor's day already locked",
		}, []string{"operation"}),
		slotCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mothercare",
			Subsystem: "booking",
			Name:      "slot_cache_total",
			Help:      "Slot cache lookups by result",
		}, []string{"result"}),
		slotGeneration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mothercare",
			Subsystem: "booking",
			Name:      "slot_generation_seconds",
			Help:      "Time spent loading appointments and generating a day's slots",
			Buckets:   prometheus.DefBuckets,
		}, []string{"doctor_id"}),
		slotsGenerated: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mothercare",
			Subsystem: "booking",
			Name:      "slots_generated",
			Help:      "Number of free slots returned for a doctor's day",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32},
		}, []string{"doctor_id"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.lockContention, m.slotCacheTotal, m.slotGeneration, m.slotsGenerated)
	return m
}

func (m *BookingMetrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *BookingMetrics) ObserveLockContention(operation string) {
	if m == nil {
		return
	}
	m.lockContention.WithLabelValues(operation).Inc()
}

func (m *BookingMetrics) ObserveSlotCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.slotCacheTotal.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObserveSlotGeneration(doctorID string, seconds float64, slots int) {
	if m == nil {
		return
	}
	m.slotGeneration.WithLabelValues(doctorID).Observe(seconds)
	m.slotsGenerated.WithLabelValues(doctorID).Observe(float64(slots))
}

// HTTPMetrics counts requests served by the API.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mothercare",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mothercare",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

func (m *HTTPMetrics) ObserveRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(seconds)
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
