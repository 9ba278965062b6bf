package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// -----------------------------------------------------------------------------
// Metrics
// -----------------------------------------------------------------------------

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attngraph_http_requests_total",
		Help: "HTTP requests by method and status code",
	}, []string{"method", "status"})

	datasetDecodesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attngraph_dataset_decodes_total",
		Help: "Datasets fully decoded into memory",
	})

	sliceBytesServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attngraph_slice_bytes_served_total",
		Help: "Bytes of (batch, head) matrices served by random-access reads",
	})

	dispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attngraph_dispatch_duration_seconds",
		Help:    "Time to dispatch one view event and build its patch",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}, []string{"kind"})

	patchOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attngraph_patch_ops_total",
		Help: "Scene patch operations sent to live views",
	}, []string{"op"})

	liveViews = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "attngraph_live_views",
		Help: "View instances with a connected client",
	})
)

// MetricsHandler serves the prometheus metrics endpoint.
func MetricsHandler() HandlerFunc {
	h := promhttp.Handler()
	return func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
	}
}

// MetricsMiddleware counts requests by method and status.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := record(w)
		next.ServeHTTP(rec, r)
		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
	})
}

func observeDispatch(kind string, start time.Time) {
	dispatchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
