package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/davidbz/quotekit/internal/observability"
)

const unmatchedRoute = "unmatched"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Metrics records request count and latency per route pattern.
// It must be the innermost middleware so the mux sets r.Pattern on the request it sees.
func Metrics(metrics *observability.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := r.Pattern
			if route == "" {
				route = unmatchedRoute
			}
			elapsed := time.Since(start)
			metrics.ObserveHTTP(route, r.Method, strconv.Itoa(rec.status), elapsed.Seconds())

			observability.FromContext(r.Context()).Info("request completed",
				observability.String("route", route),
				observability.Int("status", rec.status),
				observability.Duration("duration", elapsed),
			)
		})
	}
}
