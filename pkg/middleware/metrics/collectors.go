// Package metrics exposes prometheus collectors for HTTP traffic, dispatch
// outcomes and degraded synchronization steps.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Collector struct {
	responseTime           prometheus.Histogram
	totalHttpRequests      *prometheus.CounterVec
	totalHttpRequestsToUri *prometheus.CounterVec
	totalAuthenticated     *prometheus.CounterVec
	dispatchResults        *prometheus.CounterVec
	syncStepFailures       *prometheus.CounterVec

	opts options
}

// New builds the collectors and registers them with reg.
func New(reg prometheus.Registerer, opts ...Option) *Collector {
	c := &Collector{
		responseTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "response_time",
			Help:    "http response time.",
			Buckets: []float64{0.005, 0.05, 0.5, 1, 5, 10, 30},
		}),
		totalHttpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_http_requests", Help: "http requests by code, and method"},
			[]string{"code", "method"},
		),
		totalHttpRequestsToUri: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_http_requests_to_uri", Help: "http requests to uri"},
			[]string{"code", "uri", "method"},
		),
		totalAuthenticated: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_http_requests_authenticated", Help: "http requests by session state"},
			[]string{"authenticated"},
		),
		dispatchResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "dispatch_results_total", Help: "api dispatches by route and error kind"},
			[]string{"route", "kind"},
		),
		syncStepFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "sync_step_failures_total", Help: "failed synchronization steps"},
			[]string{"handler", "module", "operation"},
		),
		opts: defaultOptions(),
	}
	for _, o := range opts {
		o(&c.opts)
	}
	reg.MustRegister(
		c.responseTime,
		c.totalHttpRequests,
		c.totalHttpRequestsToUri,
		c.totalAuthenticated,
		c.dispatchResults,
		c.syncStepFailures,
	)
	return c
}
