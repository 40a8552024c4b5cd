// Package metrics exposes Prometheus collectors for the marketplace API:
// HTTP traffic, chat request transitions, paid sessions, payouts and the
// email worker.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts requests by method, route pattern and status code.
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "psychicline_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration records request latency in seconds.
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "psychicline_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// ChatRequestTransitions counts chat requests entering each status.
	ChatRequestTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "psychicline_chat_request_transitions_total",
		Help: "Chat requests entering a status",
	}, []string{"status"})

	// SessionsStarted counts paid sessions opened.
	SessionsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "psychicline_sessions_started_total",
		Help: "Paid chat sessions started",
	})

	// SessionsEnded counts paid sessions settled, labeled by who ended them.
	SessionsEnded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "psychicline_sessions_ended_total",
		Help: "Paid chat sessions settled",
	}, []string{"ended_by"})

	// CreditsBilled sums billed session amounts in credits.
	CreditsBilled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "psychicline_credits_billed_total",
		Help: "Credits billed for completed sessions",
	})

	// PayoutsTotal counts payout submissions; duplicate="true" for replayed payment ids.
	PayoutsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "psychicline_payouts_total",
		Help: "Psychic payouts processed",
	}, []string{"duplicate"})

	// JobsProcessed counts email jobs by type and outcome.
	JobsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "psychicline_jobs_processed_total",
		Help: "Background jobs processed",
	}, []string{"type", "outcome"})

	// WebSocketConnections tracks open websocket connections.
	WebSocketConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "psychicline_websocket_connections",
		Help: "Current number of open websocket connections",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ChatRequestTransitions,
		SessionsStarted,
		SessionsEnded,
		CreditsBilled,
		PayoutsTotal,
		JobsProcessed,
		WebSocketConnections,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
