package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"document-proxy-go/internal/metrics"
)

// MetricsMiddleware returns an Echo middleware that records request count,
// latency and in-flight gauge. Labels are bounded: document ids are folded
// into their route prefix.
func MetricsMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			err := next(c)

			status := statusOf(c, err)
			method := metrics.NormalizeMethod(c.Request().Method)
			path := metrics.NormalizePath(c.Request().URL.Path)

			m.RequestsTotal.WithLabelValues(method, status, path).Inc()
			m.RequestDuration.WithLabelValues(method, status, path).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// statusOf returns the status the client will see. An *echo.HTTPError has not
// been written yet when it reaches this middleware, so its code wins.
func statusOf(c echo.Context, err error) string {
	code := c.Response().Status
	var he *echo.HTTPError
	if err != nil && errors.As(err, &he) {
		code = he.Code
	}
	return strconv.Itoa(code)
}
