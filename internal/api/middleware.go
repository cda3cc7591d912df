package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"procodus.dev/climate-monitor/pkg/logger"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// requestID tags every request with an id and puts a logger carrying it into the context.
func requestID(base *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		reqLogger := base.With("request_id", id, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(logger.IntoContext(r.Context(), reqLogger)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// instrument records request count, latency and response size under the route pattern.
func (a *API) instrument(route string, next http.Handler) http.Handler {
	if a.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.metrics.HTTPRequestsInFlight.Inc()
		defer a.metrics.HTTPRequestsInFlight.Dec()

		timer := prometheus.NewTimer(a.metrics.HTTPRequestDuration.WithLabelValues(r.Method, route))
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		timer.ObserveDuration()

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		a.metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		a.metrics.HTTPResponseSize.WithLabelValues(route).Observe(float64(rec.bytes))
	})
}
