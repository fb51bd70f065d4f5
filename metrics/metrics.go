// Package metrics holds the prometheus counters and gauges of the polling engine.
//
// Every method is safe to call on a nil *Metrics, so components record
// unconditionally and tests simply pass nil.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/seamui/seamui/constant"
)

// Lookup results.
const (
	ResultLive    = "live"
	ResultOffline = "offline"
	ResultFailed  = "failed"
)

// Metrics is one prometheus registry with the application collectors.
type Metrics struct {
	registry        *prometheus.Registry
	lookupsTotal    *prometheus.CounterVec
	lookupDuration  *prometheus.HistogramVec
	lookupsInFlight prometheus.Gauge
	anchorsTotal    prometheus.Gauge
	anchorsLive     prometheus.Gauge
	assetsTotal     *prometheus.CounterVec
	eventsDropped   prometheus.Counter
	requestsTotal   prometheus.Counter
	errorsTotal     prometheus.Counter
}

// New creates and registers the collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	lookupsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: constant.App,
		Name:      "lookups_total",
		Help:      "Room lookups by platform and result",
	}, []string{"platform", "result"})
	lookupDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: constant.App,
		Name:      "lookup_duration_seconds",
		Help:      "Duration of room lookups",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20},
	}, []string{"platform"})
	lookupsInFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: constant.App,
		Name:      "lookups_in_flight",
		Help:      "Lookups currently holding a concurrency slot",
	})
	anchorsTotal := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: constant.App,
		Name:      "anchors",
		Help:      "Followed anchors",
	})
	anchorsLive := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: constant.App,
		Name:      "anchors_live",
		Help:      "Followed anchors that are live",
	})
	assetsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: constant.App,
		Name:      "assets_total",
		Help:      "Asset resolutions by result (hit, download, error)",
	}, []string{"result"})
	eventsDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: constant.App,
		Name:      "events_dropped_total",
		Help:      "Snapshots dropped because the consumer lagged",
	})
	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: constant.App,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: constant.App,
		Name:      "http_errors_total",
		Help:      "Total number of HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		lookupsTotal,
		lookupDuration,
		lookupsInFlight,
		anchorsTotal,
		anchorsLive,
		assetsTotal,
		eventsDropped,
		requestsTotal,
		errorsTotal,
	)

	return &Metrics{
		registry:        registry,
		lookupsTotal:    lookupsTotal,
		lookupDuration:  lookupDuration,
		lookupsInFlight: lookupsInFlight,
		anchorsTotal:    anchorsTotal,
		anchorsLive:     anchorsLive,
		assetsTotal:     assetsTotal,
		eventsDropped:   eventsDropped,
		requestsTotal:   requestsTotal,
		errorsTotal:     errorsTotal,
	}
}

// ObserveLookup records one finished lookup.
func (m *Metrics) ObserveLookup(platform, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.lookupsTotal.WithLabelValues(platform, result).Inc()
	m.lookupDuration.WithLabelValues(platform).Observe(took.Seconds())
}

// LookupStarted marks a slot as taken.
func (m *Metrics) LookupStarted() {
	if m == nil {
		return
	}
	m.lookupsInFlight.Inc()
}

// LookupDone releases a slot taken with LookupStarted.
func (m *Metrics) LookupDone() {
	if m == nil {
		return
	}
	m.lookupsInFlight.Dec()
}

// SetAnchors sets the followed and live gauges.
func (m *Metrics) SetAnchors(configured, live int) {
	if m == nil {
		return
	}
	m.anchorsTotal.Set(float64(configured))
	m.anchorsLive.Set(float64(live))
}

// IncAsset counts an asset resolution ("hit", "download" or "error").
func (m *Metrics) IncAsset(result string) {
	if m == nil {
		return
	}
	m.assetsTotal.WithLabelValues(result).Inc()
}

// IncEventsDropped counts a snapshot replaced before it was consumed.
func (m *Metrics) IncEventsDropped() {
	if m == nil {
		return
	}
	m.eventsDropped.Inc()
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	if m == nil {
		return
	}
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}

// Handler serves the registry in the prometheus text format.
// updateGauges is called before each scrape.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
