package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the prometheus collectors of the server.
type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec

	signups     prometheus.Counter
	messages    prometheus.Counter
	follows     prometheus.Counter
	unfollows   prometheus.Counter
	likeToggles *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warbler_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warbler_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warbler_signups_total",
			Help: "Total number of successful signups",
		}),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warbler_messages_posted_total",
			Help: "Total number of successfully posted messages",
		}),
		follows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warbler_follows_total",
			Help: "Total number of successful follow requests",
		}),
		unfollows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warbler_unfollows_total",
			Help: "Total number of successful unfollow requests",
		}),
		likeToggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warbler_like_toggles_total",
				Help: "Total number of likes and unlikes",
			},
			[]string{"action"},
		),
	}
	reg.MustRegister(m.requests, m.duration, m.signups, m.messages, m.follows, m.unfollows, m.likeToggles)
	return m
}

func (m *metrics) handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// instrument records the count and duration of every routed request,
// labelled by the route's path template rather than the raw path.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.metrics.requests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		s.metrics.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
