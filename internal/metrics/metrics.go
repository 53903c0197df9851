package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the portal's collectors on a private prometheus registry so
// tests can build as many as they like.
type Registry struct {
	reg *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	UpstreamRequests *prometheus.CounterVec
	ProbeFallbacks   *prometheus.CounterVec
	NameLookups      *prometheus.CounterVec
	TokenRefreshes   *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"handler", "method", "status"})
	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"handler", "method"})
	upstream := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_upstream_requests_total",
		Help: "Requests sent to the scheduling API by endpoint and response status",
	}, []string{"endpoint", "status"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_probe_fallbacks_total",
		Help: "Rejected paging conventions and date-range formats",
	}, []string{"kind"})
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_name_lookups_total",
		Help: "Employee name lookups by mode and outcome",
	}, []string{"mode", "outcome"})
	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_token_refreshes_total",
		Help: "Access token refresh exchanges by outcome",
	}, []string{"outcome"})

	r.MustRegister(httpRequests, httpDuration, upstream, fallbacks, lookups, refreshes)
	r.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Registry{
		reg:              r,
		HTTPRequests:     httpRequests,
		HTTPDuration:     httpDuration,
		UpstreamRequests: upstream,
		ProbeFallbacks:   fallbacks,
		NameLookups:      lookups,
		TokenRefreshes:   refreshes,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// The helpers below tolerate a nil registry so components can run without metrics.

func (r *Registry) Upstream(endpoint, status string) {
	if r == nil {
		return
	}
	r.UpstreamRequests.WithLabelValues(endpoint, status).Inc()
}

func (r *Registry) Fallback(kind string) {
	if r == nil {
		return
	}
	r.ProbeFallbacks.WithLabelValues(kind).Inc()
}

func (r *Registry) Lookup(mode, outcome string) {
	if r == nil {
		return
	}
	r.NameLookups.WithLabelValues(mode, outcome).Inc()
}

func (r *Registry) TokenRefresh(outcome string) {
	if r == nil {
		return
	}
	r.TokenRefreshes.WithLabelValues(outcome).Inc()
}
