package obs

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/XiaoHuahai/group3/internal/apperr"
)

var (
	initOnce sync.Once

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	serviceReady = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "service_ready",
		Help: "1 when the readiness probe last succeeded.",
	})

	articleTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "article_transitions_total",
			Help: "Article lifecycle operations by outcome.",
		},
		[]string{"operation", "result"},
	)
)

// Init registers the service metrics in the default registry. Safe to call
// more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration, serviceReady, articleTransitions)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetReady records the outcome of the latest readiness probe.
func SetReady(ready bool) {
	if ready {
		serviceReady.Set(1)
		return
	}
	serviceReady.Set(0)
}

// RecordTransition counts one lifecycle operation. The result label is "ok"
// or the error kind.
func RecordTransition(operation string, err error) {
	articleTransitions.WithLabelValues(operation, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	switch apperr.Kind(err) {
	case apperr.ErrNotFound:
		return "not_found"
	case apperr.ErrForbidden:
		return "forbidden"
	case apperr.ErrUnauthorized:
		return "unauthorized"
	case apperr.ErrInvalidState:
		return "invalid_state"
	case apperr.ErrInvalidArgument:
		return "invalid_argument"
	case apperr.ErrConflict:
		return "conflict"
	default:
		return "error"
	}
}

// Instrument measures request count, latency and in-flight requests.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		status := strconv.Itoa(sw.code)
		httpRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	})
}

// fixed second segments under /articles that are routes, not ids.
var articleRoutes = map[string]bool{
	"submit":     true,
	"mine":       true,
	"search":     true,
	"moderation": true,
	"analysis":   true,
}

// CanonicalPath collapses record ids so metric labels stay bounded.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return path
	}
	switch parts[0] {
	case "articles":
		if articleRoutes[parts[1]] {
			return path
		}
		if len(parts) == 2 {
			return "/articles/:id"
		}
		if len(parts) == 3 && (parts[2] == "moderate" || parts[2] == "analysis") {
			return "/articles/:id/" + parts[2]
		}
	case "users":
		if len(parts) == 2 {
			return "/users/:id"
		}
		if len(parts) == 3 && parts[2] == "roles" {
			return "/users/:id/roles"
		}
	}
	return path
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
