// Package metrics exposes Prometheus collectors for the server.
//
// Each Provider owns its registry instead of using the global default, so
// tests can build as many as they like without duplicate-registration
// panics.
package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the rest of the server reports into.
type Recorder interface {
	IncRequestsTotal(route string, status int)
	ObserveRequestDuration(route string, d time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncSignups()
	IncOrnamentsPlaced()
	IncOrnamentsRejected(reason string)
	IncWishesSubmitted()
	// Handler serves the exposition format. The noop recorder returns 404.
	Handler() http.Handler
}

type Provider struct {
	registry          *prometheus.Registry
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	signups           prometheus.Counter
	ornamentsPlaced   prometheus.Counter
	ornamentsRejected *prometheus.CounterVec
	wishesSubmitted   prometheus.Counter
}

// New returns a Prometheus-backed Recorder, or a noop one when disabled.
func New(enabled bool) Recorder {
	if !enabled {
		return noopRecorder{}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Provider{
		registry: reg,
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wellwishers_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wellwishers_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "wellwishers_cache_hits_total",
			Help: "Tree metadata cache hits",
		}),
		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "wellwishers_cache_misses_total",
			Help: "Tree metadata cache misses",
		}),
		signups: f.NewCounter(prometheus.CounterOpts{
			Name: "wellwishers_signups_total",
			Help: "Participants created",
		}),
		ornamentsPlaced: f.NewCounter(prometheus.CounterOpts{
			Name: "wellwishers_ornaments_placed_total",
			Help: "Ornaments placed on trees",
		}),
		ornamentsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wellwishers_ornaments_rejected_total",
			Help: "Ornament placements refused, by reason",
		}, []string{"reason"}),
		wishesSubmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "wellwishers_wishes_submitted_total",
			Help: "Wishes written",
		}),
	}
}

func (p *Provider) IncRequestsTotal(route string, status int) {
	p.requestsTotal.WithLabelValues(route, statusBucket(status)).Inc()
}

func (p *Provider) ObserveRequestDuration(route string, d time.Duration) {
	p.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (p *Provider) IncCacheHits()                      { p.cacheHits.Inc() }
func (p *Provider) IncCacheMisses()                    { p.cacheMisses.Inc() }
func (p *Provider) IncSignups()                        { p.signups.Inc() }
func (p *Provider) IncOrnamentsPlaced()                { p.ornamentsPlaced.Inc() }
func (p *Provider) IncOrnamentsRejected(reason string) { p.ornamentsRejected.WithLabelValues(reason).Inc() }
func (p *Provider) IncWishesSubmitted()                { p.wishesSubmitted.Inc() }

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

type noopRecorder struct{}

func (noopRecorder) IncRequestsTotal(string, int)                {}
func (noopRecorder) ObserveRequestDuration(string, time.Duration) {}
func (noopRecorder) IncCacheHits()                               {}
func (noopRecorder) IncCacheMisses()                             {}
func (noopRecorder) IncSignups()                                 {}
func (noopRecorder) IncOrnamentsPlaced()                         {}
func (noopRecorder) IncOrnamentsRejected(string)                 {}
func (noopRecorder) IncWishesSubmitted()                         {}
func (noopRecorder) Handler() http.Handler                       { return http.NotFoundHandler() }

// Noop returns a Recorder that discards everything. Services default to it.
func Noop() Recorder { return noopRecorder{} }

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Middleware records count and latency per route. The chi route pattern
// ("/api/tree/{treeId}") is the label, not the raw path, so tree ids do not
// explode the series count. It must be mounted with r.Use on the router
// whose routes it measures; chi fills in the pattern during routing.
func Middleware(rec Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}
			rec.IncRequestsTotal(route, sw.status)
			rec.ObserveRequestDuration(route, time.Since(start))
		})
	}
}
