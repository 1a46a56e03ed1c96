package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total number of HTTP requests processed by the chat service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_ws_events_total",
			Help: "Total number of websocket events by type.",
		},
		[]string{"event"},
	)
	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_matchmaking_queue_depth",
			Help: "Number of users waiting for a partner.",
		},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_active_sessions",
			Help: "Number of active chat sessions.",
		},
	)
	matchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_matches_total",
			Help: "Total number of successful pairings.",
		},
	)
	relayedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_relayed_total",
			Help: "Total number of relayed payloads by kind.",
		},
		[]string{"kind"},
	)
	sweepReapedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_sweep_reaped_total",
			Help: "Total number of records reaped by periodic sweeps.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		queueDepth,
		activeSessions,
		matchesTotal,
		relayedTotal,
		sweepReapedTotal,
	)
}

// HTTPMetricsMiddleware records request counts and latencies per route.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncWSActive() { wsActiveConnections.Inc() }

func DecWSActive() { wsActiveConnections.Dec() }

func IncWSEvent(event string) { wsEventsTotal.WithLabelValues(event).Inc() }

func SetQueueDepth(n int) { queueDepth.Set(float64(n)) }

func SetActiveSessions(n int) { activeSessions.Set(float64(n)) }

func IncMatches() { matchesTotal.Inc() }

func IncRelayed(kind string) { relayedTotal.WithLabelValues(kind).Inc() }

func IncSweepReaped(kind string) { sweepReapedTotal.WithLabelValues(kind).Inc() }
