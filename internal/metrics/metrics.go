package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"route", "method", "status"},
	)
	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request duration seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	InFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "http_in_flight_requests", Help: "In-flight HTTP requests"},
	)

	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "auth_logins_total", Help: "Login attempts by method and outcome"},
		[]string{"method", "status"},
	)
	RegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "auth_registrations_total", Help: "Registration attempts by outcome"},
		[]string{"status"},
	)
	RefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "auth_token_refresh_total", Help: "Refresh attempts by outcome"},
		[]string{"status"},
	)
	SessionsRevoked = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "auth_sessions_revoked_total", Help: "Sessions revoked by logout or theft detection"},
	)
)

func MustRegister() {
	prometheus.MustRegister(
		RequestsTotal, ReqDuration, InFlight,
		LoginsTotal, RegistrationsTotal, RefreshTotal, SessionsRevoked,
	)
}
