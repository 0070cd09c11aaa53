package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the frontier. A nil *Metrics is a valid no-op.
type Metrics struct {
	AddsTotal           *prometheus.CounterVec
	GetsTotal           *prometheus.CounterVec
	PromotionsTotal     *prometheus.CounterVec
	WorkerErrorsTotal   *prometheus.CounterVec
	ActiveWorkers       prometheus.Gauge
	URLsInQueue         *prometheus.GaugeVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers the frontier metrics on reg. Pass prometheus.DefaultRegisterer
// to expose them on the default /metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AddsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "frontier_adds_total",
			Help: "Total number of add calls.",
		}, []string{"priority", "result"}), // result: ok, invalid, error
		GetsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "frontier_gets_total",
			Help: "Total number of get calls.",
		}, []string{"result"}), // result: hit, empty, error
		PromotionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "frontier_promotions_total",
			Help: "Total number of promotion attempts.",
		}, []string{"priority", "result"}), // result: promoted, idle, error
		WorkerErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "frontier_worker_errors_total",
			Help: "Total number of failed promotion iterations.",
		}, []string{"type"}),
		ActiveWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "frontier_active_workers",
			Help: "Number of running promotion workers.",
		}),
		URLsInQueue: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "frontier_urls_in_queue",
			Help: "Current number of URLs in each intake queue.",
		}, []string{"priority"}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

func (m *Metrics) IncAdd(priority, result string) {
	if m == nil {
		return
	}
	m.AddsTotal.WithLabelValues(priority, result).Inc()
}

func (m *Metrics) IncGet(result string) {
	if m == nil {
		return
	}
	m.GetsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncPromotion(priority, result string) {
	if m == nil {
		return
	}
	m.PromotionsTotal.WithLabelValues(priority, result).Inc()
}

func (m *Metrics) IncWorkerError(errorType string) {
	if m == nil {
		return
	}
	m.WorkerErrorsTotal.WithLabelValues(errorType).Inc()
}

func (m *Metrics) AddActiveWorkers(delta float64) {
	if m == nil {
		return
	}
	m.ActiveWorkers.Add(delta)
}

func (m *Metrics) SetQueueLength(priority string, n int64) {
	if m == nil {
		return
	}
	m.URLsInQueue.WithLabelValues(priority).Set(float64(n))
}

func (m *Metrics) ObserveHTTPRequest(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}
