// Package metrics exposes Prometheus counters for the auth flows and the HTTP layer.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/passkeep/authsvc/internal/auth"
	"github.com/passkeep/authsvc/internal/identity"
)

// Flow outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

const namespace = "authsvc"

// Metrics holds the collectors registered for one registry.
type Metrics struct {
	flows    *prometheus.CounterVec
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
// Panics if registration fails (following prometheus convention).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		flows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_flows_total",
				Help:      "Auth flow invocations by flow and outcome",
			},
			[]string{"flow", "outcome"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	reg.MustRegister(m.flows, m.requests, m.duration)
	return m
}

// Observe records the outcome of an auth flow. It satisfies auth.Observer.
func (m *Metrics) Observe(flow string, err error) {
	m.flows.WithLabelValues(flow, Outcome(err)).Inc()
}

// Outcome classifies a flow result. Rejections are caller mistakes such as
// a wrong password or an expired code; anything else is an error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidOTP),
		errors.Is(err, auth.ErrInvalidResetToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, identity.ErrUserExists),
		errors.Is(err, identity.ErrUserNotFound),
		errors.Is(err, identity.ErrInvalidPassword):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}

// Middleware counts requests and observes their latency. Unmatched routes
// are labelled by the router's catch-all path to bound cardinality.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}
		route := c.Route().Path
		m.requests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the gatherer in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
