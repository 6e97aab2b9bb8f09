package middleware

import (
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records request counts and latencies per route.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the HTTP collectors for one front-end on reg.
func NewMetrics(reg prometheus.Registerer, frontend string) (*Metrics, error) {
	labels := prometheus.Labels{"frontend": frontend}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "cmsgo",
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "HTTP requests by route, method and status.",
			ConstLabels: labels,
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "cmsgo",
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "HTTP request latency by route and method.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler must run inside the router so the matched route template is known.
func (m *Metrics) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		snoop := httpsnoop.CaptureMetrics(next, w, r)
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(snoop.Code)).Inc()
		m.duration.WithLabelValues(route, r.Method).Observe(snoop.Duration.Seconds())
	})
}
