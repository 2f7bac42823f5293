package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"strconv"
	"time"
)

const subsystem = "tidemap"

// Geocode lookup outcomes
const (
	GeocodeCacheHit = "cache_hit"
	GeocodeProvider = "provider"
	GeocodeFailure  = "failure"
)

var (
	requestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:      "request_latency",
			Subsystem: subsystem,
			Help:      "HTTP request latencies in seconds.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.2, 0.4, 0.8, 1.0, 2.0, 4.0, 8.0, 16.0, 32.0},
		},
		[]string{"verb", "path", "code"},
	)

	fetchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:      "prediction_fetch_latency",
			Subsystem: subsystem,
			Help:      "Tide prediction fetch latencies in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
		},
		[]string{"outcome"},
	)

	geocodeLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "geocode_lookups_total",
			Subsystem: subsystem,
			Help:      "Reverse geocoding lookups by outcome.",
		},
		[]string{"outcome"},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:      "active_sessions",
			Subsystem: subsystem,
			Help:      "Client sessions currently held in memory.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		requestLatency,
		fetchLatency,
		geocodeLookups,
		activeSessions,
	)
}

func ObserveRequestLatency(verb, path, code string, latency float64) {
	requestLatency.With(prometheus.Labels{
		"code": code,
		"verb": verb,
		"path": path,
	}).Observe(latency)
}

// ObserveFetch records one prediction fetch. outcome is "ok" or the error
// class.
func ObserveFetch(outcome string, latency time.Duration) {
	fetchLatency.WithLabelValues(outcome).Observe(latency.Seconds())
}

func CountGeocode(outcome string) {
	geocodeLookups.WithLabelValues(outcome).Inc()
}

func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LatencyHandler observes every request. pathOf maps a request to a bounded
// label, e.g. the route template; nil uses the raw path.
func LatencyHandler(pathOf func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := time.Now()
			verb := r.Method
			path := ""
			if pathOf != nil {
				path = pathOf(r)
			} else if r.URL != nil {
				path = r.URL.Path
			}
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Panics in next are reported as 500 errors and then re-thrown.
			defer func() {
				if err := recover(); err != nil {
					ObserveRequestLatency(verb, path, "500", time.Since(t).Seconds())
					panic(err)
				}
				ObserveRequestLatency(verb, path, strconv.Itoa(rec.status), time.Since(t).Seconds())
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
