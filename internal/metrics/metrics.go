package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "widgetloader"

// Pass results
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

// Metrics holds the Prometheus collectors of the loader and proxy.
type Metrics struct {
	registry *prometheus.Registry

	// Loader metrics
	PassesTotal      *prometheus.CounterVec
	InjectedElements *prometheus.CounterVec
	ElementDefects   prometheus.Counter
	PassDuration     prometheus.Histogram

	// Proxy metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New registers the collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		PassesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "passes_total",
				Help:      "Total number of injection passes by result",
			},
			[]string{"result"},
		),
		InjectedElements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "injected_elements_total",
				Help:      "Total number of elements added to host pages",
			},
			[]string{"kind"},
		),
		ElementDefects: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "element_defects_total",
				Help:      "Total number of elements that could not be injected cleanly",
			},
		),
		PassDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pass_duration_seconds",
				Help:      "Duration of injection passes including the entry document fetch",
				Buckets:   prometheus.DefBuckets,
			},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "proxy_requests_total",
				Help:      "Total number of proxied requests",
			},
			[]string{"method", "status", "injected"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "proxy_request_duration_seconds",
				Help:      "Proxied request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
}

// RecordPass records one injection pass.
func (m *Metrics) RecordPass(result string, links, scripts, defects int, duration time.Duration) {
	m.PassesTotal.WithLabelValues(result).Inc()
	m.InjectedElements.WithLabelValues("link").Add(float64(links))
	m.InjectedElements.WithLabelValues("script").Add(float64(scripts))
	m.ElementDefects.Add(float64(defects))
	m.PassDuration.Observe(duration.Seconds())
}

// RecordRequest records one proxied request.
func (m *Metrics) RecordRequest(method, status string, injected bool, duration time.Duration) {
	label := "false"
	if injected {
		label = "true"
	}
	m.RequestsTotal.WithLabelValues(method, status, label).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
